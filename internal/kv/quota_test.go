package kv

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuota_RejectsOversizedWrite(t *testing.T) {
	inner, err := NewMemSlot()
	require.NoError(t, err)
	q := WithQuota(inner, 32)
	ctx := context.Background()

	require.NoError(t, q.Set(ctx, "k", "small"))

	err = q.Set(ctx, "k", strings.Repeat("x", 64))
	require.ErrorIs(t, err, ErrQuotaExceeded)

	// The previous value survives a rejected write.
	got, err := q.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "small", got)
}

func TestQuota_ChargesAllKeys(t *testing.T) {
	inner, err := NewMemSlot()
	require.NoError(t, err)
	q := WithQuota(inner, 20)
	ctx := context.Background()

	require.NoError(t, q.Set(ctx, "a", strings.Repeat("x", 9)))
	assert.Equal(t, 10, q.Used())

	// Rewriting the same key replaces its charge.
	require.NoError(t, q.Set(ctx, "a", strings.Repeat("x", 9)))
	assert.Equal(t, 10, q.Used())

	assert.ErrorIs(t, q.Set(ctx, "b", strings.Repeat("x", 10)), ErrQuotaExceeded)

	require.NoError(t, q.Delete(ctx, "a"))
	assert.Equal(t, 0, q.Used())
	require.NoError(t, q.Set(ctx, "b", strings.Repeat("x", 10)))
}

func TestQuota_Unlimited(t *testing.T) {
	inner, err := NewMemSlot()
	require.NoError(t, err)
	q := WithQuota(inner, 0)

	require.NoError(t, q.Set(context.Background(), "k", strings.Repeat("x", 1<<16)))
}

func TestQuota_ChargesValuesFoundAtStartup(t *testing.T) {
	inner, err := NewMemSlot()
	require.NoError(t, err)
	ctx := context.Background()

	// Written by an earlier process, bypassing this quota.
	require.NoError(t, inner.Set(ctx, "old", strings.Repeat("x", 17)))

	q := WithQuota(inner, 30)
	assert.Equal(t, 0, q.Used())

	got, err := q.Get(ctx, "old")
	require.NoError(t, err)
	assert.Len(t, got, 17)
	assert.Equal(t, 20, q.Used())

	assert.ErrorIs(t, q.Set(ctx, "new", strings.Repeat("x", 10)), ErrQuotaExceeded)
	require.NoError(t, q.Set(ctx, "new", strings.Repeat("x", 7)))
	assert.Equal(t, 30, q.Used())

	_, err = q.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 30, q.Used())
}
