package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/janhq/jan-imagegen/internal/infrastructure/metrics"
	"github.com/janhq/jan-imagegen/internal/interfaces/httpserver/handlers"
	"github.com/janhq/jan-imagegen/internal/interfaces/httpserver/middlewares"
	"github.com/janhq/jan-imagegen/internal/interfaces/httpserver/routes"
	"github.com/janhq/jan-imagegen/internal/interfaces/httpserver/web"
	"github.com/janhq/jan-imagegen/pkg/config"
	obsmiddleware "github.com/janhq/jan-imagegen/pkg/observability/middleware"
)

// Telemetry carries the OTEL instruments used by the request middleware.
type Telemetry struct {
	ServiceName string
	Tracer      trace.Tracer
	Meter       metric.Meter
}

// HTTPServer serves the local web UI and its JSON API.
type HTTPServer struct {
	cfg         config.ServerConfig
	engine      *gin.Engine
	log         zerolog.Logger
	handlerProv *handlers.Provider
}

// New creates the HTTP server. Generations started through it run on base.
func New(
	base context.Context,
	cfg *config.Config,
	log zerolog.Logger,
	deps handlers.Deps,
	tel Telemetry,
) (*HTTPServer, error) {
	if cfg.Meta.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	templates, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	engine := gin.New()
	engine.SetHTMLTemplate(templates)
	engine.Use(gin.Recovery())

	engine.Use(middlewares.RequestID())
	if tel.Tracer != nil && tel.Meter != nil {
		engine.Use(obsmiddleware.Gin(tel.Tracer, tel.Meter, tel.ServiceName))
	}
	engine.Use(metrics.GinMiddleware())
	engine.Use(middlewares.RequestLogger(log))

	registerCoreRoutes(engine)

	if deps.StatsTTL == 0 {
		deps.StatsTTL = cfg.Server.StatsCacheTTL
	}
	handlerProvider := handlers.NewProvider(base, deps, log)
	routes.NewProvider(handlerProvider).Register(engine)

	return &HTTPServer{
		cfg:         cfg.Server,
		engine:      engine,
		log:         log,
		handlerProv: handlerProvider,
	}, nil
}

// Handler exposes the engine, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("HTTP server error")
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func registerCoreRoutes(engine *gin.Engine) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
