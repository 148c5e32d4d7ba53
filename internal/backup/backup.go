// Package backup writes timestamped copies of the database image on a cron
// schedule and prunes old ones.
package backup

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hack-pad/hackpadfs"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	filePrefix = "rtdb-"
	fileSuffix = ".sqlite"
	timeLayout = "20060102T150405.000Z"
)

// Exporter returns the current database image, or nil when there is none.
type Exporter interface {
	ExportDB(ctx context.Context) ([]byte, error)
}

// Config controls where backups go and how many are kept.
type Config struct {
	Schedule string
	Dir      string
	// Retain is how many of the newest backups to keep. 0 keeps everything.
	Retain int
}

// Backup writes database images into a directory of a hackpadfs filesystem.
type Backup struct {
	exp Exporter
	fs  hackpadfs.FS
	cfg Config
	log *zap.Logger
	now func() time.Time
}

// New creates a backup writer. The directory is created on first use.
func New(exp Exporter, fs hackpadfs.FS, cfg Config, log *zap.Logger) *Backup {
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Backup{exp: exp, fs: fs, cfg: cfg, log: log, now: time.Now}
}

// RunOnce writes one backup and prunes. It returns the file name written, or
// "" when there was no database to back up.
func (b *Backup) RunOnce(ctx context.Context) (string, error) {
	data, err := b.exp.ExportDB(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to export database: %w", err)
	}
	if data == nil {
		b.log.Warn("database not initialized, skipping backup")
		return "", nil
	}

	if err := hackpadfs.MkdirAll(b.fs, b.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}

	name := filePrefix + b.now().UTC().Format(timeLayout) + fileSuffix
	if err := hackpadfs.WriteFullFile(b.fs, path.Join(b.cfg.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	b.log.Info("wrote database backup", zap.String("file", name), zap.Int("bytes", len(data)))

	if err := b.prune(); err != nil {
		b.log.Warn("failed to prune old backups", zap.Error(err))
	}
	return name, nil
}

// List returns backup file names, oldest first.
func (b *Backup) List() ([]string, error) {
	entries, err := hackpadfs.ReadDir(b.fs, b.cfg.Dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if !e.IsDir() && strings.HasPrefix(n, filePrefix) && strings.HasSuffix(n, fileSuffix) {
			names = append(names, n)
		}
	}
	// Timestamps sort lexically.
	sort.Strings(names)
	return names, nil
}

func (b *Backup) prune() error {
	if b.cfg.Retain <= 0 {
		return nil
	}
	names, err := b.List()
	if err != nil {
		return err
	}
	for len(names) > b.cfg.Retain {
		if err := hackpadfs.Remove(b.fs, path.Join(b.cfg.Dir, names[0])); err != nil {
			return err
		}
		b.log.Debug("removed old backup", zap.String("file", names[0]))
		names = names[1:]
	}
	return nil
}

// Scheduler runs a Backup on a cron schedule.
type Scheduler struct {
	backup *Backup
	cron   *cron.Cron
	mu     sync.Mutex
	log    *zap.Logger

	running bool
}

// NewScheduler creates a scheduler for b.
func NewScheduler(b *Backup) *Scheduler {
	return &Scheduler{
		backup: b,
		cron:   cron.New(),
		log:    b.log.With(zap.String("component", "backup.scheduler")),
	}
}

// Start schedules backups. An empty schedule does nothing. The scheduler stops
// when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.backup.cfg.Schedule
	if schedule == "" {
		s.log.Info("backup schedule not configured, skipping scheduler")
		return nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	if _, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.backup.RunOnce(ctx); err != nil {
			s.log.Error("scheduled backup failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule backup: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.log.Info("backup scheduler started",
		zap.String("schedule", schedule), zap.Int("retain", s.backup.cfg.Retain))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop stops the scheduler and waits for a running backup to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.log.Info("backup scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled backup time, or nil.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
