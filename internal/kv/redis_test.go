package kv

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisSlot_GetSet(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := NewRedisSlot(client)
	ctx := context.Background()

	_, err := s.Get(ctx, "rt_database")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "rt_database", "U1FMaXRl"))
	got, err := s.Get(ctx, "rt_database")
	require.NoError(t, err)
	assert.Equal(t, "U1FMaXRl", got)

	// No expiry on the snapshot key.
	assert.Equal(t, time.Duration(0), mr.TTL("rt_database"))

	require.NoError(t, s.Delete(ctx, "rt_database"))
	assert.False(t, mr.Exists("rt_database"))
}

func TestRedisNotifier_PublishSubscribe(t *testing.T) {
	_, client := setupTestRedis(t)
	n := NewRedisNotifier(client, "", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := n.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, n.Publish(ctx, Change{Key: "rt_database", Origin: "tab-a"}))

	select {
	case c := <-ch:
		assert.Equal(t, "rt_database", c.Key)
		assert.Equal(t, "tab-a", c.Origin)
	case <-time.After(2 * time.Second):
		t.Fatal("no change delivered")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}
