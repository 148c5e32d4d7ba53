// Package kv holds the durable key-value slots a snapshot is written to, and
// the notifiers that tell other store instances a slot changed.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key has never been written.
	ErrNotFound = errors.New("kv: key not found")
	// ErrQuotaExceeded is returned by Set when the value does not fit.
	ErrQuotaExceeded = errors.New("kv: quota exceeded")
)

// Slot is a string-valued durable store, the shape of window.localStorage.
type Slot interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// Change announces that key was rewritten. Origin identifies the writer when
// the transport knows it; an empty Origin means unknown.
type Change struct {
	Key    string `json:"key"`
	Origin string `json:"origin,omitempty"`
}

// Notifier fans slot changes out to other store instances.
type Notifier interface {
	Publish(ctx context.Context, c Change) error
	// Subscribe delivers changes until ctx is done, then closes the channel.
	Subscribe(ctx context.Context) (<-chan Change, error)
}
