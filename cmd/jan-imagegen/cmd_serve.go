package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/janhq/jan-imagegen/internal/domain/generation"
	"github.com/janhq/jan-imagegen/internal/interfaces/httpserver"
	"github.com/janhq/jan-imagegen/internal/interfaces/httpserver/handlers"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local web UI",
		Args:  cobra.NoArgs,
		RunE: withApp(root, func(cmd *cobra.Command, _ []string, app *App) error {
			if addr != "" {
				app.Config.Server.Addr = addr
			}
			return runServe(cmd, app)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	cfg := app.Config

	srv, err := httpserver.New(ctx, cfg, app.Log, handlers.Deps{
		Gallery:   app.Gallery,
		Generator: app.Generator,
		Tracker:   app.Tracker,
		Theme:     app.Theme,
		Backend:   app.Client,
		Generation: generation.Request{
			AspectRatio:      cfg.Generation.DefaultAspectRatio,
			UsePromptRefiner: cfg.Generation.UsePromptRefiner,
		},
		StatsTTL: cfg.Server.StatsCacheTTL,
	}, httpserver.Telemetry{
		ServiceName: "jan_imagegen",
		Tracer:      app.Telemetry.Tracer,
		Meter:       app.Telemetry.Meter,
	})
	if err != nil {
		return err
	}

	app.Log.Info().
		Str("addr", cfg.Server.Addr).
		Str("environment", cfg.Meta.Environment).
		Str("version", version).
		Msg("starting web UI")

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error { return srv.Run(egCtx) })
	eg.Go(func() error {
		// Background runs share ctx, so they end with the server.
		<-egCtx.Done()
		app.Generator.Wait()
		return nil
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	app.Log.Info().Msg("web UI stopped")
	return nil
}
