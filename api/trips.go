package api

import (
	"fmt"
	"net/http"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/LhacenMed/admin-dashboard/internal/service/trips"
	"github.com/gin-gonic/gin"
)

type TripHandler struct {
	service trips.TripUseCase
}

func NewTripHandler(service trips.TripUseCase) *TripHandler {
	return &TripHandler{service: service}
}

func (h *TripHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.PATCH("/:id/status", h.toggle)
	router.DELETE("/:id", h.delete)
	router.GET("/:id/manifest.pdf", h.manifest)
}

func (h *TripHandler) list(c *gin.Context) {
	actor, _ := actorFrom(c)
	result, err := h.service.List(c.Request.Context(), actor, trips.ListOptions{
		CompanyID:   c.Query("companyId"),
		Sort:        c.Query("sort"),
		Search:      c.Query("q"),
		Destination: c.Query("destination"),
		CarType:     domain.CarType(c.Query("carType")),
		Date:        c.Query("date"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": result})
}

func (h *TripHandler) create(c *gin.Context) {
	var req trips.CreateTripInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, _ := actorFrom(c)
	trip, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

func (h *TripHandler) get(c *gin.Context) {
	actor, _ := actorFrom(c)
	trip, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h *TripHandler) toggle(c *gin.Context) {
	actor, _ := actorFrom(c)
	trip, err := h.service.ToggleStatus(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h *TripHandler) delete(c *gin.Context) {
	actor, _ := actorFrom(c)
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TripHandler) manifest(c *gin.Context) {
	actor, _ := actorFrom(c)
	body, filename, err := h.service.Manifest(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", body)
}
