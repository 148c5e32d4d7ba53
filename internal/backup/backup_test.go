package backup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExporter struct {
	data []byte
	err  error
}

func (f fakeExporter) ExportDB(context.Context) ([]byte, error) { return f.data, f.err }

func newTestBackup(t *testing.T, exp Exporter, cfg Config) (*Backup, hackpadfs.FS) {
	t.Helper()
	fs, err := mem.NewFS()
	require.NoError(t, err)

	b := New(exp, fs, cfg, nil)
	clock := time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC)
	b.now = func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}
	return b, fs
}

func TestRunOnceWritesImage(t *testing.T) {
	b, fs := newTestBackup(t, fakeExporter{data: []byte("SQLite format 3\x00body")}, Config{Dir: "backups"})

	name, err := b.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rtdb-20240601T030000.000Z.sqlite", name)

	content, err := hackpadfs.ReadFile(fs, "backups/"+name)
	require.NoError(t, err)
	assert.Equal(t, "SQLite format 3\x00body", string(content))
}

func TestRunOnceKeepsNewest(t *testing.T) {
	b, _ := newTestBackup(t, fakeExporter{data: []byte("img")}, Config{Dir: "backups", Retain: 2})

	var written []string
	for i := 0; i < 4; i++ {
		name, err := b.RunOnce(context.Background())
		require.NoError(t, err)
		written = append(written, name)
	}

	names, err := b.List()
	require.NoError(t, err)
	assert.Equal(t, written[2:], names)
}

func TestRunOnceWithoutDatabase(t *testing.T) {
	b, _ := newTestBackup(t, fakeExporter{}, Config{Dir: "backups"})

	name, err := b.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestRunOnceExportError(t *testing.T) {
	b, _ := newTestBackup(t, fakeExporter{err: errors.New("boom")}, Config{})

	_, err := b.RunOnce(context.Background())
	assert.ErrorContains(t, err, "boom")
}

func TestScheduler(t *testing.T) {
	b, _ := newTestBackup(t, fakeExporter{data: []byte("img")}, Config{Schedule: "0 2 * * *"})
	s := NewScheduler(b)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	require.NotNil(t, s.NextRun())

	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	b, _ := newTestBackup(t, fakeExporter{}, Config{Schedule: "every day"})
	err := NewScheduler(b).Start(context.Background())
	assert.Error(t, err)
}

func TestSchedulerEmptySchedule(t *testing.T) {
	b, _ := newTestBackup(t, fakeExporter{}, Config{})
	s := NewScheduler(b)
	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRun())
}
