package api

import (
	"net/http"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/LhacenMed/admin-dashboard/internal/service/account"
	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	service  account.AccountUseCase
	fallback string
}

func NewMeHandler(service account.AccountUseCase, fallback string) *MeHandler {
	return &MeHandler{service: service, fallback: fallback}
}

func (h *MeHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.me)
	router.GET("/access", h.access)
}

func (h *MeHandler) me(c *gin.Context) {
	actor, _ := actorFrom(c)
	acct, err := h.service.Me(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, acct)
}

// access answers whether a status-gated page may be shown, e.g. ?required=approved.
func (h *MeHandler) access(c *gin.Context) {
	actor, _ := actorFrom(c)
	required := domain.AccountStatus(c.DefaultQuery("required", string(domain.StatusApproved)))
	if !required.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + string(required)})
		return
	}
	c.JSON(http.StatusOK, h.service.Access(c.Request.Context(), actor, required, h.fallback))
}
