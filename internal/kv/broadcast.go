package kv

import (
	"context"
	"sync"
)

// Broadcast is an in-process Notifier, the analogue of a browser
// BroadcastChannel shared by every store in the process.
type Broadcast struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Change
}

func NewBroadcast() *Broadcast {
	return &Broadcast{subs: make(map[int]chan Change)}
}

// Publish delivers c to every subscriber. Slow subscribers lose the change
// rather than block the writer.
func (b *Broadcast) Publish(_ context.Context, c Change) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
	return nil
}

func (b *Broadcast) Subscribe(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, 16)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

var _ Notifier = (*Broadcast)(nil)
