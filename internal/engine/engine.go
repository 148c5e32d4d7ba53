// Package engine wraps the embedded SQLite implementations the portal can run on.
// Every engine backs a single in-memory connection that can be frozen into a
// snapshot (the SQLite file image) and rebuilt from one.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNotReady is returned by a Probe while the engine is still bootstrapping.
	ErrNotReady = errors.New("engine not ready")
	// ErrUnavailable is returned by Loader.Load when no engine came up in time.
	ErrUnavailable = errors.New("engine unavailable")
	// ErrUnknownEngine is returned by Lookup for an unregistered name.
	ErrUnknownEngine = errors.New("unknown engine")
	// ErrInvalidSnapshot is returned by Open when the bytes are not a database.
	ErrInvalidSnapshot = errors.New("invalid database snapshot")
)

// Engine opens embedded databases, either empty or from a snapshot.
type Engine interface {
	Name() string
	// Open returns a fresh database. A nil or empty snapshot means an empty database.
	Open(ctx context.Context, snapshot []byte) (*DB, error)
}

// Row is one materialized result row keyed by column name.
type Row map[string]any

// serializer moves the main schema of a raw driver connection in and out of bytes.
type serializer interface {
	serialize(driverConn any) ([]byte, error)
	deserialize(driverConn any, data []byte) error
}

// DB is an open in-memory database bound to exactly one connection.
type DB struct {
	sql *sql.DB
	ser serializer
}

func openDB(ctx context.Context, driverName string, ser serializer, snapshot []byte) (*DB, error) {
	sqlDB, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to :memory: is its own database.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	db := &DB{sql: sqlDB, ser: ser}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if len(snapshot) == 0 {
		return db, nil
	}

	if err := db.raw(ctx, func(c any) error { return ser.deserialize(c, snapshot) }); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	var result string
	if err := sqlDB.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if result != "ok" {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: quick_check: %s", ErrInvalidSnapshot, result)
	}

	return db, nil
}

func (d *DB) raw(ctx context.Context, fn func(driverConn any) error) error {
	conn, err := d.sql.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.Raw(fn)
}

// Query runs a row-returning statement and materializes every row.
func (d *DB) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				// Drivers may hand back TEXT as []byte.
				cp := make([]byte, len(b))
				copy(cp, b)
				row[col] = cp
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// Exec runs a statement that returns no rows.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.sql.ExecContext(ctx, query, args...)
}

// QueryRow runs a statement expected to return at most one row.
func (d *DB) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.sql.QueryRowContext(ctx, query, args...)
}

// TotalChanges reports the rows modified on the connection since it opened.
func (d *DB) TotalChanges(ctx context.Context) (int64, error) {
	var n int64
	err := d.sql.QueryRowContext(ctx, "SELECT total_changes()").Scan(&n)
	return n, err
}

// Mark is a cheap fingerprint of the database state. Two marks differ when
// rows changed, the schema changed or a header pragma was written.
type Mark struct {
	Changes       int64
	SchemaVersion int64
	UserVersion   int64
	ApplicationID int64
}

// Mark reads the current state fingerprint.
func (d *DB) Mark(ctx context.Context) (Mark, error) {
	var m Mark
	err := d.sql.QueryRowContext(ctx, `
SELECT total_changes(), s.schema_version, u.user_version, a.application_id
FROM pragma_schema_version AS s, pragma_user_version AS u, pragma_application_id AS a`).
		Scan(&m.Changes, &m.SchemaVersion, &m.UserVersion, &m.ApplicationID)
	return m, err
}

// Snapshot serializes the whole main database into its SQLite file image.
func (d *DB) Snapshot(ctx context.Context) ([]byte, error) {
	var data []byte
	err := d.raw(ctx, func(c any) error {
		var err error
		data, err = d.ser.serialize(c)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize database: %w", err)
	}
	return data, nil
}

// Close releases the connection. The in-memory contents are gone afterwards.
func (d *DB) Close() error {
	return d.sql.Close()
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Engine{}
)

// Register makes an engine available by name. Engines register from init.
func Register(e Engine) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[e.Name()] = e
}

// Lookup returns the engine registered under name.
func Lookup(name string) (Engine, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
	return e, nil
}

// Names lists registered engines in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
