package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSSlot_RoundTrip(t *testing.T) {
	fs, err := mem.NewFS()
	require.NoError(t, err)

	ctx := context.Background()

	// 1. Write through one slot
	{
		s, err := NewFSSlot(fs, "rt")
		require.NoError(t, err)
		require.NoError(t, s.Set(ctx, "rt_database", "U1FMaXRl"))
	}

	// 2. Read back through a new slot on the same filesystem
	{
		s, err := NewFSSlot(fs, "rt")
		require.NoError(t, err)
		got, err := s.Get(ctx, "rt_database")
		require.NoError(t, err)
		assert.Equal(t, "U1FMaXRl", got)
	}
}

func TestFSSlot_Missing(t *testing.T) {
	s, err := NewMemSlot()
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSSlot_OverwriteAndDelete(t *testing.T) {
	s, err := NewMemSlot()
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "first value that is long"))
	require.NoError(t, s.Set(ctx, "k", "short"))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "short", got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting twice is fine.
	require.NoError(t, s.Delete(ctx, "k"))
}

func TestFSSlot_RejectsPathKeys(t *testing.T) {
	s, err := NewMemSlot()
	require.NoError(t, err)

	for _, key := range []string{"", ".", "..", "a/b", `a\b`} {
		assert.Error(t, s.Set(context.Background(), key, "v"), "key %q", key)
	}
}

func TestDirSlot_WritesHostFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDirSlot(dir)
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "rt_database", "abc"))

	content, err := os.ReadFile(filepath.Join(dir, "rt_database"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(content))
}
