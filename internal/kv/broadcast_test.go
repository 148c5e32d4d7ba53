package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcast_FansOut(t *testing.T) {
	b := NewBroadcast()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := b.Subscribe(ctx)
	require.NoError(t, err)
	c, err := b.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, Change{Key: "k", Origin: "x"}))

	for _, ch := range []<-chan Change{a, c} {
		select {
		case got := <-ch:
			assert.Equal(t, Change{Key: "k", Origin: "x"}, got)
		case <-time.After(time.Second):
			t.Fatal("subscriber missed the change")
		}
	}
}

func TestBroadcast_UnsubscribeOnCancel(t *testing.T) {
	b := NewBroadcast()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, time.Second, 5*time.Millisecond)

	// Publishing after everyone left must not panic.
	require.NoError(t, b.Publish(context.Background(), Change{Key: "k"}))
}
