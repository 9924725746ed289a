package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/jan-imagegen/internal/domain/gallery"
	"github.com/janhq/jan-imagegen/internal/interfaces/httpserver/responses"
)

type GalleryHandler struct {
	gallery GalleryService
	backend Backend
	log     zerolog.Logger
}

func NewGalleryHandler(g GalleryService, backend Backend, log zerolog.Logger) *GalleryHandler {
	return &GalleryHandler{gallery: g, backend: backend, log: log}
}

// List handles GET /api/v1/images.
func (h *GalleryHandler) List(c *gin.Context) {
	records, err := h.gallery.List(c.Request.Context())
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.NewListImagesResponse(records))
}

// Get handles GET /api/v1/images/:index.
func (h *GalleryHandler) Get(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	view, err := h.gallery.Detail(c.Request.Context(), index)
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.NewDetailResponse(view))
}

// Remove handles DELETE /api/v1/images/:index.
func (h *GalleryHandler) Remove(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	if err := h.gallery.Remove(c.Request.Context(), index); err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.Status(http.StatusNoContent)
}

// Clear handles DELETE /api/v1/images.
func (h *GalleryHandler) Clear(c *gin.Context) {
	if err := h.gallery.Clear(c.Request.Context()); err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.Status(http.StatusNoContent)
}

// Download streams the image at :index as an attachment, with the original_
// marker removed from its URL.
func (h *GalleryHandler) Download(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	view, err := h.gallery.Detail(ctx, index)
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	img, err := h.backend.FetchImage(ctx, view.DownloadURL)
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+img.FileName(view.DownloadName)+`"`)
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		responses.WriteValidationError(c, gallery.ErrIndexOutOfRange.Error()+": "+c.Param("index"))
		return 0, false
	}
	return index, true
}
