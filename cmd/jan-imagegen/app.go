package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/janhq/jan-imagegen/internal/domain/gallery"
	"github.com/janhq/jan-imagegen/internal/domain/generation"
	"github.com/janhq/jan-imagegen/internal/domain/theme"
	"github.com/janhq/jan-imagegen/internal/infrastructure/imageapi"
	"github.com/janhq/jan-imagegen/internal/infrastructure/kvstore"
	"github.com/janhq/jan-imagegen/internal/infrastructure/logger"
	"github.com/janhq/jan-imagegen/internal/infrastructure/metrics"
	"github.com/janhq/jan-imagegen/pkg/config"
	"github.com/janhq/jan-imagegen/pkg/observability"
	"github.com/janhq/jan-imagegen/pkg/observability/tasks"
)

const serviceName = "jan-imagegen"

// App holds the wired components for one command invocation.
type App struct {
	Config    *config.Config
	Loader    *config.ConfigLoader
	Log       zerolog.Logger
	Client    *imageapi.Client
	Gallery   *gallery.Store
	Theme     *theme.Service
	Tracker   *generation.Tracker
	Generator *generation.Generator
	Telemetry *observability.Provider

	genOpts []generation.Option
	closers []func(context.Context) error
}

// loadConfig runs the source stack with the persistent flags on top.
func loadConfig(ctx context.Context, opts *rootOptions) (*config.ConfigLoader, error) {
	loader := config.NewConfigLoader(opts.configFile)
	loader.AddSource(&config.FlagSource{Apply: opts.apply})
	if _, err := loader.Load(ctx); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return loader, nil
}

func (o *rootOptions) apply(cfg *config.Config) {
	if o.apiURL != "" {
		cfg.API.BaseURL = o.apiURL
	}
	if o.storage != "" {
		cfg.Storage.Backend = o.storage
	}
	if o.storagePath != "" {
		cfg.Storage.Path = o.storagePath
	}
	if o.pollingMode != "" {
		cfg.Polling.Mode = o.pollingMode
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
}

// newApp loads configuration and wires storage, the backend client and the
// generator. Callers must Close the app.
func newApp(cmd *cobra.Command, opts *rootOptions) (*App, error) {
	ctx := cmd.Context()
	loader, err := loadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}
	cfg := loader.Get()
	log := logger.NewWithWriter(cfg, cmd.ErrOrStderr())

	app := &App{Config: cfg, Loader: loader, Log: log}
	if err := app.wire(ctx); err != nil {
		_ = app.Close(context.Background())
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg, log := a.Config, a.Log

	store, closer, err := kvstore.New(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.onClose(func(context.Context) error { return closer.Close() })

	client, err := imageapi.NewClient(cfg.API, log)
	if err != nil {
		return err
	}
	a.Client = client
	a.onClose(func(context.Context) error { return client.Close() })

	tel, err := observability.Init(ctx, observability.FromConfig(serviceName, cfg))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	a.Telemetry = tel
	a.onClose(tel.Shutdown)

	instrumenter, err := tasks.NewInstrumenter(tel.Tracer, tel.Meter, "jan_imagegen")
	if err != nil {
		return fmt.Errorf("init task instrumenter: %w", err)
	}

	policy, err := generation.PolicyForMode(cfg.Polling.Mode, cfg.Polling.Interval, cfg.Polling.MaxRetries, cfg.Polling.Budget)
	if err != nil {
		return err
	}

	a.Tracker = generation.NewTracker()
	a.Theme = theme.NewService(store)
	a.Gallery = gallery.NewStore(store, client,
		gallery.WithAlerter(a.Tracker),
		gallery.WithLogger(log.With().Str("component", "gallery").Logger()),
		gallery.WithChangeHook(metrics.GalleryChanged),
	)
	a.genOpts = []generation.Option{
		generation.WithPolicy(policy),
		generation.WithLogger(log.With().Str("component", "generator").Logger()),
		generation.WithListeners(a.Tracker, metrics.GenerationListener{}),
		generation.WithPromptSanitizer(tel.Sanitizer.SanitizePrompt),
		generation.WithInstrumenter(instrumenter),
		generation.WithConcurrentSubmissions(cfg.Generation.AllowConcurrent),
	}
	a.Generator = generation.NewGenerator(client, a.Gallery, a.Tracker, a.genOpts...)

	log.Debug().
		Str("api", tel.Sanitizer.SanitizeURL(cfg.API.BaseURL)).
		Str("storage", cfg.Storage.Backend).
		Str("polling_mode", cfg.Polling.Mode).
		Dur("poll_interval", policy.Interval).
		Int("max_retries", policy.MaxRetries).
		Dur("poll_budget", policy.Budget).
		Msg("application wired")
	return nil
}

// generatorOptions returns the wired generator options plus extra listeners.
func generatorOptions(a *App, extra ...generation.Listener) []generation.Option {
	opts := slices.Clone(a.genOpts)
	if len(extra) > 0 {
		opts = append(opts, generation.WithListeners(extra...))
	}
	return opts
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// printAlerts writes and dismisses pending alerts.
func (a *App) printAlerts(w io.Writer) {
	for _, alert := range a.Tracker.Alerts() {
		fmt.Fprintln(w, alert.Message)
	}
	a.Tracker.DismissAlerts()
}

// withApp builds the app, runs fn and always closes the app afterwards.
func withApp(opts *rootOptions, fn func(cmd *cobra.Command, args []string, app *App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd, opts)
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(context.Background()); err != nil {
				app.Log.Warn().Err(err).Msg("shutdown incomplete")
			}
		}()
		return fn(cmd, args, app)
	}
}
