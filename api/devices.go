package api

import (
	"net/http"

	"github.com/LhacenMed/admin-dashboard/internal/service/account"
	"github.com/gin-gonic/gin"
)

// DeviceHandler serves the accounts remembered on the calling device.
type DeviceHandler struct {
	service account.AccountUseCase
}

func NewDeviceHandler(service account.AccountUseCase) *DeviceHandler {
	return &DeviceHandler{service: service}
}

func (h *DeviceHandler) Register(router *gin.RouterGroup) {
	router.GET("/accounts", h.list)
	router.DELETE("/accounts/:id", h.forget)
}

func (h *DeviceHandler) list(c *gin.Context) {
	accounts, err := h.service.RecentAccounts(c.Request.Context(), deviceFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (h *DeviceHandler) forget(c *gin.Context) {
	if err := h.service.ForgetAccount(c.Request.Context(), deviceFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
