package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Bootstrap timing. The wait is fixed; there is no backoff and no retry inside one Load.
const (
	PollInterval  = 100 * time.Millisecond
	BootstrapWait = 5 * time.Second
)

// Probe reports whether an engine is ready. Returning ErrNotReady keeps the
// loader polling; any other error aborts the current Load.
type Probe func(ctx context.Context) (Engine, error)

// ProbeFor returns a probe that resolves the named engine and warms it up by
// opening and closing an empty database.
func ProbeFor(name string) Probe {
	return func(ctx context.Context) (Engine, error) {
		e, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		db, err := e.Open(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("warm up %s: %w", name, err)
		}
		db.Close()
		return e, nil
	}
}

// Static returns a probe that is ready immediately with e.
func Static(e Engine) Probe {
	return func(context.Context) (Engine, error) { return e, nil }
}

// LoaderOption tweaks loader timing. Production code uses the defaults.
type LoaderOption func(*Loader)

// WithTiming overrides the poll interval and the bootstrap wait.
func WithTiming(interval, wait time.Duration) LoaderOption {
	return func(l *Loader) {
		l.interval = interval
		l.wait = wait
	}
}

// Loader produces one engine for the lifetime of the process. A successful
// Load is cached; a failed one is retried in full on the next call.
type Loader struct {
	probe    Probe
	log      *zap.Logger
	interval time.Duration
	wait     time.Duration

	mu       sync.Mutex
	engine   Engine
	attempts int
}

// NewLoader creates a loader around probe.
func NewLoader(probe Probe, log *zap.Logger, opts ...LoaderOption) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Loader{
		probe:    probe,
		log:      log,
		interval: PollInterval,
		wait:     BootstrapWait,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the cached engine or bootstraps one.
func (l *Loader) Load(ctx context.Context) (Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.engine != nil {
		return l.engine, nil
	}
	l.attempts++

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		e, err := l.probe(waitCtx)
		if err == nil {
			l.engine = e
			l.log.Info("sqlite engine loaded", zap.String("engine", e.Name()))
			return e, nil
		}
		if !errors.Is(err, ErrNotReady) {
			l.log.Error("sqlite engine failed to load", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		select {
		case <-waitCtx.Done():
			l.log.Error("sqlite engine did not become ready",
				zap.Duration("waited", l.wait))
			return nil, fmt.Errorf("%w: not ready after %s", ErrUnavailable, l.wait)
		case <-ticker.C:
		}
	}
}

// Loaded returns the cached engine, or nil.
func (l *Loader) Loaded() Engine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine
}

// Attempts counts how many full bootstrap sequences have run.
func (l *Loader) Attempts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempts
}
