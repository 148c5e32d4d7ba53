package kv

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DirWatcher turns writes into a slot directory into Changes, so several
// processes sharing one data directory see each other's saves. It cannot tell
// who wrote, so every Change it emits has an empty Origin.
type DirWatcher struct {
	dir string
	log *zap.Logger
}

func NewDirWatcher(dir string, log *zap.Logger) *DirWatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &DirWatcher{dir: dir, log: log}
}

// Publish is a no-op: the file write itself is the signal.
func (w *DirWatcher) Publish(context.Context, Change) error { return nil }

func (w *DirWatcher) Subscribe(ctx context.Context) (<-chan Change, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", w.dir, err)
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				select {
				case out <- Change{Key: filepath.Base(event.Name)}:
				default:
					// A change is already queued; one reload covers both.
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.log.Warn("slot watcher error", zap.String("dir", w.dir), zap.Error(err))
			}
		}
	}()
	return out, nil
}

var _ Notifier = (*DirWatcher)(nil)
