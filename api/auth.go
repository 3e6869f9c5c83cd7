package api

import (
	"net/http"

	"github.com/LhacenMed/admin-dashboard/internal/service/account"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service account.AccountUseCase
}

func NewAuthHandler(service account.AccountUseCase) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(router *gin.RouterGroup) {
	router.POST("/register", h.register)
	router.POST("/login", h.login)
}

func (h *AuthHandler) register(c *gin.Context) {
	var req account.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	req.DeviceID = deviceFrom(c)

	session, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req account.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	req.DeviceID = deviceFrom(c)

	session, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
