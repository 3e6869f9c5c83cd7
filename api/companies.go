package api

import (
	"net/http"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/LhacenMed/admin-dashboard/internal/service/account"
	"github.com/gin-gonic/gin"
)

// CompanyHandler is the reviewer surface. Mount it behind RequireRoles(domain.RoleAdmin).
type CompanyHandler struct {
	service account.AccountUseCase
}

type updateStatusRequest struct {
	Status domain.AccountStatus `json:"status"`
}

func NewCompanyHandler(service account.AccountUseCase) *CompanyHandler {
	return &CompanyHandler{service: service}
}

func (h *CompanyHandler) Register(router *gin.RouterGroup) {
	router.GET("/companies", h.list)
	router.GET("/companies/:id", h.get)
	router.PATCH("/companies/:id/status", h.updateStatus)
}

func (h *CompanyHandler) list(c *gin.Context) {
	actor, _ := actorFrom(c)
	companies, err := h.service.ListCompanies(c.Request.Context(), actor, domain.AccountStatus(c.Query("status")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

func (h *CompanyHandler) get(c *gin.Context) {
	company, err := h.service.GetCompany(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if company == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, _ := actorFrom(c)
	company, err := h.service.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}
