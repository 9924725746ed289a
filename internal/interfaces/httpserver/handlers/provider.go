package handlers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/jan-imagegen/internal/domain/gallery"
	"github.com/janhq/jan-imagegen/internal/domain/generation"
	"github.com/janhq/jan-imagegen/internal/domain/theme"
	"github.com/janhq/jan-imagegen/internal/infrastructure/imageapi"
)

// GalleryService is the part of gallery.Store the server uses.
type GalleryService interface {
	List(ctx context.Context) ([]gallery.ImageRecord, error)
	Render(ctx context.Context) (gallery.View, error)
	Detail(ctx context.Context, index int) (gallery.DetailView, error)
	Remove(ctx context.Context, index int) error
	Clear(ctx context.Context) error
}

// Starter launches background generations.
type Starter interface {
	Start(ctx context.Context, req generation.Request) string
}

// JobTracker exposes in-flight runs and pending alerts.
type JobTracker interface {
	Busy() bool
	Active() []generation.Job
	Jobs() []generation.Job
	Alerts() []generation.Alert
	DismissAlerts()
	Alert(ctx context.Context, message string)
}

type ThemeService interface {
	Get(ctx context.Context) (theme.Theme, error)
	Set(ctx context.Context, t theme.Theme) error
}

// Backend is the read side of the image service used by the server.
type Backend interface {
	QueueStats(ctx context.Context) (*imageapi.QueueStats, error)
	FetchImage(ctx context.Context, rawURL string) (*imageapi.Image, error)
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Gallery    GalleryService
	Generator  Starter
	Tracker    JobTracker
	Theme      ThemeService
	Backend    Backend
	Generation generation.Request // defaults for new submissions
	StatsTTL   time.Duration
}

// Provider holds all HTTP handlers.
type Provider struct {
	Gallery    *GalleryHandler
	Generation *GenerationHandler
	Theme      *ThemeHandler
	Jobs       *JobsHandler
	UI         *UIHandler
}

// NewProvider creates the handlers. Background generations started over
// HTTP live on base rather than on the request context.
func NewProvider(base context.Context, deps Deps, log zerolog.Logger) *Provider {
	jobs := NewJobsHandler(deps.Backend, deps.StatsTTL, log)
	gen := NewGenerationHandler(base, deps.Generator, deps.Tracker, deps.Generation, log)
	return &Provider{
		Gallery:    NewGalleryHandler(deps.Gallery, deps.Backend, log),
		Generation: gen,
		Theme:      NewThemeHandler(deps.Theme, log),
		Jobs:       jobs,
		UI:         NewUIHandler(deps, gen, jobs, log),
	}
}
