package kv

import (
	"context"
	"fmt"
	"sync"
)

// DefaultQuota is the per-origin budget most browsers give localStorage.
const DefaultQuota = 5 << 20

// Quota enforces a byte budget over everything written through it, counting
// keys and values the way localStorage does. A value that was already in the
// slot is charged from the first time it is read or written through the
// quota; keys never touched in this process are not counted.
type Quota struct {
	Slot
	Max int

	mu    sync.Mutex
	sizes map[string]int
}

// WithQuota wraps slot with a budget of max bytes. max <= 0 disables the limit.
func WithQuota(slot Slot, max int) *Quota {
	return &Quota{Slot: slot, Max: max, sizes: make(map[string]int)}
}

// Get reads through and charges a value the quota has not seen yet.
func (q *Quota) Get(ctx context.Context, key string) (string, error) {
	v, err := q.Slot.Get(ctx, key)
	if err != nil {
		return v, err
	}
	q.mu.Lock()
	if _, ok := q.sizes[key]; !ok {
		q.sizes[key] = len(key) + len(v)
	}
	q.mu.Unlock()
	return v, nil
}

func (q *Quota) Set(ctx context.Context, key string, value string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	size := len(key) + len(value)
	if q.Max > 0 {
		used := 0
		for k, n := range q.sizes {
			if k != key {
				used += n
			}
		}
		if used+size > q.Max {
			return fmt.Errorf("%w: %d bytes needed, %d of %d in use", ErrQuotaExceeded, size, used, q.Max)
		}
	}

	if err := q.Slot.Set(ctx, key, value); err != nil {
		return err
	}
	q.sizes[key] = size
	return nil
}

func (q *Quota) Delete(ctx context.Context, key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.Slot.Delete(ctx, key); err != nil {
		return err
	}
	delete(q.sizes, key)
	return nil
}

// Used reports the bytes currently charged against the budget.
func (q *Quota) Used() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	used := 0
	for _, n := range q.sizes {
		used += n
	}
	return used
}
