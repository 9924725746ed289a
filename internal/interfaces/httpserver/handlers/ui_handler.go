package handlers

import (
	"context"
	"net/http"
	"net/url"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/jan-imagegen/internal/domain/gallery"
	"github.com/janhq/jan-imagegen/internal/domain/generation"
	"github.com/janhq/jan-imagegen/internal/domain/theme"
	"github.com/janhq/jan-imagegen/internal/infrastructure/imageapi"
	"github.com/janhq/jan-imagegen/internal/interfaces/httpserver/responses"
	"github.com/janhq/jan-imagegen/internal/utils/platformerrors"
)

// MsgStorageFailed is shown when the gallery cannot be read or written.
const MsgStorageFailed = "An error occurred while updating the gallery."

// UIHandler renders the single-page web UI and handles its form posts.
type UIHandler struct {
	gallery    GalleryService
	tracker    JobTracker
	theme      ThemeService
	jobs       *JobsHandler
	generation *GenerationHandler
	log        zerolog.Logger
}

func NewUIHandler(deps Deps, gen *GenerationHandler, jobs *JobsHandler, log zerolog.Logger) *UIHandler {
	return &UIHandler{
		gallery:    deps.Gallery,
		tracker:    deps.Tracker,
		theme:      deps.Theme,
		jobs:       jobs,
		generation: gen,
		log:        log,
	}
}

type indexPage struct {
	Theme            theme.Theme
	Themes           []theme.Theme
	Prompt           string
	AspectRatio      string
	AspectRatios     []string
	UsePromptRefiner bool
	Busy             bool
	Active           []generation.Job
	Alerts           []generation.Alert
	Stats            *imageapi.QueueStats
	Thumbnails       []gallery.Thumbnail
	ShowClear        bool
}

type detailPage struct {
	Theme  theme.Theme
	Detail gallery.DetailView
}

// Index handles GET /.
func (h *UIHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	view, err := h.gallery.Render(ctx)
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}

	defaults := h.generation.defaults
	page := indexPage{
		Theme:            h.currentTheme(ctx),
		Themes:           []theme.Theme{theme.Light, theme.Dark},
		Prompt:           c.Query("prompt"),
		AspectRatio:      defaults.AspectRatio,
		AspectRatios:     gallery.AspectRatios,
		UsePromptRefiner: defaults.UsePromptRefiner,
		Busy:             h.tracker.Busy(),
		Active:           h.tracker.Active(),
		Alerts:           h.tracker.Alerts(),
		Thumbnails:       slices.Collect(view.Thumbnails),
		ShowClear:        view.ShowClear,
	}
	if stats, err := h.jobs.Stats(ctx); err != nil {
		h.log.Debug().Err(err).Msg("queue stats unavailable")
	} else {
		page.Stats = stats
	}
	c.HTML(http.StatusOK, "index.html", page)
}

// Generate handles POST /generate.
func (h *UIHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()
	refine := c.PostForm("use_prompt_refiner") == "true"
	req, msg := h.generation.build(c.PostForm("prompt"), c.PostForm("aspect_ratio"), &refine)
	if msg != "" {
		h.tracker.Alert(ctx, msg)
		redirectHome(c)
		return
	}
	h.generation.start(ctx, req)
	redirectHome(c)
}

// Detail handles GET /images/:index.
func (h *UIHandler) Detail(c *gin.Context) {
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
	c.HTML(http.StatusOK, "detail.html", detailPage{Theme: h.currentTheme(ctx), Detail: view})
}

// Delete handles POST /images/:index/delete.
func (h *UIHandler) Delete(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	h.mutate(c, func(ctx context.Context) error { return h.gallery.Remove(ctx, index) })
}

// Clear handles POST /clear.
func (h *UIHandler) Clear(c *gin.Context) {
	h.mutate(c, h.gallery.Clear)
}

// CopyPrompt handles POST /images/:index/copy-prompt by sending the prompt
// back to the form.
func (h *UIHandler) CopyPrompt(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	view, err := h.gallery.Detail(c.Request.Context(), index)
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.Redirect(http.StatusSeeOther, "/?prompt="+url.QueryEscape(view.Prompt))
}

// SetTheme handles POST /theme.
func (h *UIHandler) SetTheme(c *gin.Context) {
	ctx := c.Request.Context()
	t, err := theme.Parse(c.PostForm("theme"))
	if err != nil {
		responses.WriteValidationError(c, err.Error())
		return
	}
	if err := h.theme.Set(ctx, t); err != nil {
		h.log.Warn().Err(err).Msg("failed to save theme")
		h.tracker.Alert(ctx, MsgStorageFailed)
	}
	redirectHome(c)
}

// DismissAlerts handles POST /alerts/dismiss.
func (h *UIHandler) DismissAlerts(c *gin.Context) {
	h.tracker.DismissAlerts()
	redirectHome(c)
}

// mutate runs fn and returns to the page. Backend failures were already
// alerted by the gallery; an unknown index is a 404.
func (h *UIHandler) mutate(c *gin.Context, fn func(ctx context.Context) error) {
	ctx := c.Request.Context()
	err := fn(ctx)
	switch {
	case err == nil:
	case platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound):
		responses.WriteError(c, err, h.log)
		return
	case platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal),
		platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation):
		h.log.Debug().Err(err).Msg("gallery mutation rejected")
	default:
		h.log.Error().Err(err).Msg("gallery mutation failed")
		h.tracker.Alert(ctx, MsgStorageFailed)
	}
	redirectHome(c)
}

func (h *UIHandler) currentTheme(ctx context.Context) theme.Theme {
	t, err := h.theme.Get(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to read theme")
		return theme.Default
	}
	return t
}

func redirectHome(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}
