package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/LhacenMed/admin-dashboard/internal/service/seats"
	"github.com/gin-gonic/gin"
)

type SeatHandler struct {
	service seats.SeatUseCase
}

type setSeatRequest struct {
	Status domain.SeatStatus `json:"status"`
}

func NewSeatHandler(service seats.SeatUseCase) *SeatHandler {
	return &SeatHandler{service: service}
}

// Register mounts under the trips group.
func (h *SeatHandler) Register(router *gin.RouterGroup) {
	router.GET("/:id/seats", h.view)
	router.PUT("/:id/seats/:seat", h.set)
	router.GET("/:id/seats/stream", h.stream)
}

func (h *SeatHandler) view(c *gin.Context) {
	actor, _ := actorFrom(c)
	view, err := h.service.View(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *SeatHandler) set(c *gin.Context) {
	seat, err := strconv.Atoi(c.Param("seat"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seat must be a number"})
		return
	}
	var req setSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, _ := actorFrom(c)
	view, err := h.service.SetStatus(c.Request.Context(), actor, c.Param("id"), seat, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// stream pushes the seat view as server-sent events until the client disconnects.
func (h *SeatHandler) stream(c *gin.Context) {
	ctx := c.Request.Context()
	actor, _ := actorFrom(c)
	updates, err := h.service.Watch(ctx, actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case update, ok := <-updates:
			if !ok {
				return false
			}
			switch {
			case update.Err != nil:
				c.SSEvent("error", gin.H{"error": update.Err.Error()})
			case update.Deleted:
				c.SSEvent("deleted", gin.H{"id": c.Param("id")})
				return false
			default:
				c.SSEvent("seats", update.View)
			}
			return true
		case <-ctx.Done():
			return false
		}
	})
}
