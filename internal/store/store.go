package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kittclouds/rtdb/internal/engine"
	"github.com/kittclouds/rtdb/internal/kv"
)

// DefaultKey is the slot key the snapshot is stored under.
const DefaultKey = "rt_database"

var (
	// ErrNotFound is returned by narrow updates and deletes that matched no row.
	ErrNotFound = errors.New("store: row not found")
	// ErrNotInitialized is returned by ImportDB before an engine has loaded.
	ErrNotInitialized = errors.New("store: not initialized")
)

// Options configures a Store. Zero values are usable.
type Options struct {
	// Key is the slot key. Defaults to DefaultKey.
	Key string

	// Notifier, when set, hears about every successful save and feeds Watch.
	Notifier kv.Notifier

	// Defaults are stamped on new security reports.
	Defaults ReportDefaults

	Logger  *zap.Logger
	Metrics *Metrics
}

// Store binds one embedded database to a durable slot. It is the only owner of
// the engine handle; Init, ImportDB, ResetDB and Reload are the only places
// that replace it.
type Store struct {
	loader   *engine.Loader
	slot     kv.Slot
	notifier kv.Notifier
	key      string
	defaults ReportDefaults
	log      *zap.Logger
	metrics  *Metrics
	origin   string

	mu         sync.RWMutex
	engine     engine.Engine
	db         *engine.DB
	lastDigest [sha256.Size]byte
}

// New creates a store. Nothing is loaded until Init.
func New(loader *engine.Loader, slot kv.Slot, opts Options) *Store {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Defaults == (ReportDefaults{}) {
		opts.Defaults = DefaultReportDefaults()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Store{
		loader:   loader,
		slot:     slot,
		notifier: opts.Notifier,
		key:      opts.Key,
		defaults: opts.Defaults,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		origin:   uuid.NewString(),
	}
}

// Origin identifies this store in change notifications.
func (s *Store) Origin() string { return s.origin }

// Key returns the slot key.
func (s *Store) Key() string { return s.key }

// Available reports whether an engine-backed database is live. Callers that
// do not check it still get empty results instead of errors.
func (s *Store) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db != nil
}

// Init loads the engine and the database. It does nothing once a database is
// live. The stored snapshot is restored when present and readable; otherwise
// a fresh schema is created and saved straight away. When the engine cannot be
// loaded the error is returned and the store stays in degraded mode; a later
// Init tries again.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	eng, err := s.loader.Load(ctx)
	if err != nil {
		s.log.Error("database unavailable, serving empty data", zap.Error(err))
		return err
	}
	s.engine = eng

	if db := s.restoreLocked(ctx); db != nil {
		s.db = db
		return nil
	}

	db, err := s.freshLocked(ctx)
	if err != nil {
		s.log.Error("failed to create database", zap.Error(err))
		return err
	}
	s.db = db
	s.log.Info("created new database", zap.String("key", s.key), zap.String("engine", eng.Name()))

	// A failed first save is logged inside; the session runs from memory.
	_ = s.saveLocked(ctx)
	return nil
}

// restoreLocked opens the stored snapshot, or returns nil when there is none
// or it cannot be used.
func (s *Store) restoreLocked(ctx context.Context) *engine.DB {
	encoded, err := s.slot.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Warn("failed to read stored database, starting fresh", zap.Error(err))
		}
		return nil
	}

	db, migrated, err := s.openEncodedLocked(ctx, encoded)
	if err != nil {
		s.log.Warn("stored database is unreadable, starting fresh", zap.Error(err))
		return nil
	}
	s.lastDigest = digest(encoded)
	s.log.Info("restored database from storage",
		zap.String("key", s.key), zap.Int("encoded_bytes", len(encoded)))

	if migrated {
		s.db = db
		_ = s.saveLocked(ctx)
	}
	return db
}

func (s *Store) openEncodedLocked(ctx context.Context, encoded string) (*engine.DB, bool, error) {
	data, err := DecodeSnapshot(encoded)
	if err != nil {
		return nil, false, err
	}
	return s.openSnapshotLocked(ctx, data)
}

// openSnapshotLocked opens data and migrates it. On error nothing is left open.
func (s *Store) openSnapshotLocked(ctx context.Context, data []byte) (*engine.DB, bool, error) {
	if len(data) == 0 {
		return nil, false, fmt.Errorf("%w: empty", engine.ErrInvalidSnapshot)
	}
	db, err := s.engine.Open(ctx, data)
	if err != nil {
		return nil, false, err
	}

	from, applied, err := migrate(ctx, db)
	if err != nil {
		db.Close()
		return nil, false, err
	}
	switch {
	case applied:
		s.log.Info("migrated database schema", zap.Int("from", from), zap.Int("to", SchemaVersion))
	case from > SchemaVersion:
		s.log.Warn("database schema is newer than this build", zap.Int("version", from), zap.Int("supported", SchemaVersion))
	}
	return db, applied, nil
}

func (s *Store) freshLocked(ctx context.Context) (*engine.DB, error) {
	db, err := s.engine.Open(ctx, nil)
	if err != nil {
		return nil, err
	}
	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Save writes the whole database to the slot. On failure the error is logged
// and returned, and the in-memory database stays the only copy of any
// unsaved change.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	if s.db == nil {
		return nil
	}

	data, err := s.db.Snapshot(ctx)
	if err != nil {
		s.log.Warn("failed to snapshot database", zap.Error(err))
		s.metrics.saveFailed()
		return err
	}

	encoded := EncodeSnapshot(data)
	if err := s.slot.Set(ctx, s.key, encoded); err != nil {
		s.log.Warn("failed to persist database, changes kept in memory only",
			zap.String("key", s.key), zap.Int("encoded_bytes", len(encoded)), zap.Error(err))
		s.metrics.saveFailed()
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	s.lastDigest = digest(encoded)
	s.metrics.saved(len(data))

	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, kv.Change{Key: s.key, Origin: s.origin}); err != nil {
			s.log.Warn("failed to announce save", zap.Error(err))
		}
	}
	return nil
}

// Reload replaces the live database with whatever the slot holds now, without
// saving. It is how a store picks up another instance's writes.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return nil
	}

	encoded, err := s.slot.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to read stored database: %w", err)
	}
	if d := digest(encoded); d == s.lastDigest {
		return nil
	}

	db, _, err := s.openEncodedLocked(ctx, encoded)
	if err != nil {
		return err
	}
	if s.db != nil {
		s.db.Close()
	}
	s.db = db
	s.lastDigest = digest(encoded)
	s.metrics.reloaded()
	s.log.Info("reloaded database after external change", zap.String("key", s.key))
	return nil
}

// Watch reloads the database whenever the notifier reports a change made by
// someone else. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	if s.notifier == nil {
		return errors.New("store: no notifier configured")
	}
	changes, err := s.notifier.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to changes: %w", err)
	}

	for c := range changes {
		if c.Key != s.key || c.Origin == s.origin {
			continue
		}
		if err := s.Reload(ctx); err != nil {
			s.log.Warn("failed to reload after external change", zap.Error(err))
		}
	}
	return ctx.Err()
}

// Close releases the database. The store returns to degraded mode.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) degraded(op string) {
	s.log.Debug("database not initialized", zap.String("op", op))
}
