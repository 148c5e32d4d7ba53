package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/kittclouds/rtdb/internal/config"
	"github.com/kittclouds/rtdb/internal/engine"
	"github.com/kittclouds/rtdb/internal/kv"
	"github.com/kittclouds/rtdb/internal/logger"
	"github.com/kittclouds/rtdb/internal/service"
	"github.com/kittclouds/rtdb/internal/store"
)

// App is everything a command needs, built from configuration.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Store    *store.Store
	Service  *service.Service

	closers []func() error
}

// openApp loads configuration, wires storage and initializes the store. An
// engine that fails to load is logged and the app runs degraded.
func openApp(ctx context.Context, opts *RootOptions) (*App, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	level := cfg.Logging.Level
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(level, cfg.Logging.Format, "rtdb")
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create logger", err)
	}

	app := &App{Config: cfg, Logger: log, Registry: prometheus.NewRegistry()}
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	slot, notifier, err := app.openSlot()
	if err != nil {
		app.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open storage", err)
	}
	if cfg.Storage.MaxBytes > 0 {
		slot = kv.WithQuota(slot, cfg.Storage.MaxBytes)
	}

	loader := engine.NewLoader(engine.ProbeFor(cfg.Database.Engine), log)
	app.Store = store.New(loader, slot, store.Options{
		Key:      cfg.Database.StorageKey,
		Notifier: notifier,
		Logger:   log,
		Metrics:  store.NewMetrics(app.Registry),
	})
	app.closers = append(app.closers, app.Store.Close)
	app.Service = service.New(app.Store, nil, log)

	if err := app.Store.Init(ctx); err != nil {
		log.Warn("continuing without a database", zap.Error(err))
	}
	return app, nil
}

func (a *App) openSlot() (kv.Slot, kv.Notifier, error) {
	cfg := a.Config
	switch cfg.Storage.Backend {
	case "mem":
		slot, err := kv.NewMemSlot()
		return slot, kv.NewBroadcast(), err

	case "fs":
		slot, err := kv.NewDirSlot(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Storage.Watch {
			return slot, kv.NewDirWatcher(cfg.Storage.Dir, a.Logger), nil
		}
		return slot, nil, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)
		return kv.NewRedisSlot(client), kv.NewRedisNotifier(client, cfg.Redis.Channel, a.Logger), nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Close releases everything in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}

// withApp opens the app, runs fn and closes the app.
func withApp(cmd interface{ Context() context.Context }, opts *RootOptions, fn func(ctx context.Context, app *App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}
