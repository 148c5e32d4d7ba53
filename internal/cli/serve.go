package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kittclouds/rtdb/internal/backup"
	"github.com/kittclouds/rtdb/internal/httpapi"
	"github.com/kittclouds/rtdb/internal/kv"
)

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP API. When a notifier is configured (redis backend, or fs with
storage.watch) the database reloads on saves made by other processes. When
backup.enabled is set, database images are written on backup.schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withApp(cmd, opts, func(_ context.Context, app *App) error {
				return serve(ctx, app, listen)
			})
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides server.listen_address)")
	return cmd
}

func serve(ctx context.Context, app *App, listen string) error {
	cfg := app.Config
	log := app.Logger

	go func() {
		if err := app.Store.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Debug("change watch not running", zap.Error(err))
		}
	}()

	if cfg.Backup.Enabled {
		fs, err := kv.DirFS(cfg.Backup.Dir)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open backup dir", err)
		}
		b := backup.New(app.Store, fs, backup.Config{
			Schedule: cfg.Backup.Schedule,
			Retain:   cfg.Backup.Retain,
		}, log)
		sched := backup.NewScheduler(b)
		if err := sched.Start(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to start backup scheduler", err)
		}
		defer sched.Stop()
	}

	router := httpapi.NewRouter(log)
	router.RegisterRoutes(httpapi.NewHandler(app.Service, app.Store, httpapi.HandlerOptions{
		MaxImportBytes: cfg.Server.MaxImportBytes,
		Gatherer:       app.Registry,
		Logger:         log,
	}))

	serverCfg := cfg.Server
	if listen != "" {
		serverCfg.ListenAddress = listen
	}
	if err := httpapi.NewServer(serverCfg, router, log).ListenAndServe(ctx); err != nil {
		return WrapExitError(ExitFailure, "server failed", err)
	}
	return nil
}
