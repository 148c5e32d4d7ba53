package store

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// ExportDB returns the raw SQLite image of the live database, the same bytes
// a database file on disk would hold. It returns nil when nothing is loaded.
func (s *Store) ExportDB(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		s.degraded("export")
		return nil, nil
	}
	return s.db.Snapshot(ctx)
}

// ImportDB replaces the live database with the image read from r and saves
// it. The previous contents are discarded, not merged. When r does not hold a
// usable database the live one is left as it was.
func (s *Store) ImportDB(ctx context.Context, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		s.metrics.imported(false)
		return fmt.Errorf("failed to read import: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		s.metrics.imported(false)
		return fmt.Errorf("import: %w", ErrNotInitialized)
	}

	db, _, err := s.openSnapshotLocked(ctx, data)
	if err != nil {
		s.metrics.imported(false)
		s.log.Warn("rejected database import", zap.Int("bytes", len(data)), zap.Error(err))
		return fmt.Errorf("failed to import database: %w", err)
	}

	if s.db != nil {
		s.db.Close()
	}
	s.db = db
	s.metrics.imported(true)
	s.log.Info("imported database", zap.Int("bytes", len(data)))

	_ = s.saveLocked(ctx)
	return nil
}

// ResetDB drops everything and starts over with empty tables, which are
// saved straight away.
func (s *Store) ResetDB(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		s.degraded("reset")
		return nil
	}

	db, err := s.freshLocked(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	if s.db != nil {
		s.db.Close()
	}
	s.db = db
	s.log.Info("reset database", zap.String("key", s.key))

	_ = s.saveLocked(ctx)
	return nil
}
