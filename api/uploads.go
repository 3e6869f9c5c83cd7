package api

import (
	"context"
	"io"
	"net/http"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/gin-gonic/gin"
)

type Uploader interface {
	Upload(ctx context.Context, name string, size int64, r io.Reader) (domain.Asset, error)
}

type UploadHandler struct {
	uploader Uploader
}

func NewUploadHandler(uploader Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

func (h *UploadHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.upload)
}

// upload expects a multipart form with the image in "file".
func (h *UploadHandler) upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer file.Close()

	asset, err := h.uploader.Upload(c.Request.Context(), header.Filename, header.Size, file)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}
