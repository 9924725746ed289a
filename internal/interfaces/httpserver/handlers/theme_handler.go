package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/jan-imagegen/internal/domain/theme"
	"github.com/janhq/jan-imagegen/internal/interfaces/httpserver/responses"
)

type ThemeHandler struct {
	theme ThemeService
	log   zerolog.Logger
}

func NewThemeHandler(t ThemeService, log zerolog.Logger) *ThemeHandler {
	return &ThemeHandler{theme: t, log: log}
}

// Get handles GET /api/v1/theme.
func (h *ThemeHandler) Get(c *gin.Context) {
	t, err := h.theme.Get(c.Request.Context())
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.ThemeResponse{Theme: string(t)})
}

// Put handles PUT /api/v1/theme.
func (h *ThemeHandler) Put(c *gin.Context) {
	var body responses.ThemeResponse
	if err := c.ShouldBindJSON(&body); err != nil {
		responses.WriteValidationError(c, "invalid request body: "+err.Error())
		return
	}
	t, err := theme.Parse(body.Theme)
	if err != nil {
		responses.WriteValidationError(c, err.Error())
		return
	}
	if err := h.theme.Set(c.Request.Context(), t); err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.ThemeResponse{Theme: string(t)})
}
