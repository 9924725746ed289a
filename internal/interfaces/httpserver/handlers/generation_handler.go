package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/jan-imagegen/internal/domain/gallery"
	"github.com/janhq/jan-imagegen/internal/domain/generation"
	"github.com/janhq/jan-imagegen/internal/interfaces/httpserver/responses"
	"github.com/janhq/jan-imagegen/internal/utils/requestid"
)

type GenerationHandler struct {
	base     context.Context
	starter  Starter
	tracker  JobTracker
	defaults generation.Request
	log      zerolog.Logger
}

func NewGenerationHandler(base context.Context, starter Starter, tracker JobTracker, defaults generation.Request, log zerolog.Logger) *GenerationHandler {
	if defaults.AspectRatio == "" {
		defaults.AspectRatio = gallery.DefaultAspectRatio
	}
	return &GenerationHandler{base: base, starter: starter, tracker: tracker, defaults: defaults, log: log}
}

type createGenerationRequest struct {
	Prompt           string `json:"prompt"`
	AspectRatio      string `json:"aspectRatio"`
	UsePromptRefiner *bool  `json:"usePromptRefiner"`
}

// Create handles POST /api/v1/generations.
func (h *GenerationHandler) Create(c *gin.Context) {
	var body createGenerationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		responses.WriteValidationError(c, "invalid request body: "+err.Error())
		return
	}
	req, msg := h.build(body.Prompt, body.AspectRatio, body.UsePromptRefiner)
	if msg != "" {
		responses.WriteValidationError(c, msg)
		return
	}
	id := h.start(c.Request.Context(), req)
	c.JSON(http.StatusAccepted, responses.GenerationAccepted{RequestID: id, Status: string(generation.StateSubmitting)})
}

// List handles GET /api/v1/generations.
func (h *GenerationHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, responses.GenerationsResponse{
		Busy:   h.tracker.Busy(),
		Jobs:   h.tracker.Jobs(),
		Alerts: h.tracker.Alerts(),
	})
}

// build applies defaults and validates. A non-empty message means reject.
func (h *GenerationHandler) build(prompt, ratio string, refine *bool) (generation.Request, string) {
	req := h.defaults
	req.Prompt = strings.TrimSpace(prompt)
	if ratio != "" {
		req.AspectRatio = ratio
	}
	if refine != nil {
		req.UsePromptRefiner = *refine
	}
	if req.Prompt == "" {
		return req, generation.MsgEmptyPrompt
	}
	if !gallery.IsSupportedAspectRatio(req.AspectRatio) {
		return req, "Unsupported aspect ratio " + req.AspectRatio + "."
	}
	return req, ""
}

// start detaches the run from the request so it outlives the response.
func (h *GenerationHandler) start(reqCtx context.Context, req generation.Request) string {
	ctx := h.base
	if id := requestid.FromContext(reqCtx); id != "" {
		ctx = requestid.WithContext(ctx, id)
	}
	id := h.starter.Start(ctx, req)
	h.log.Info().Str("request_id", id).Str("aspect_ratio", req.AspectRatio).Msg("generation started")
	return id
}
