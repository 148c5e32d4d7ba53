package store

import (
	"context"
	"fmt"

	"github.com/kittclouds/rtdb/internal/engine"
)

// migrations are applied in order; migrations[i] brings user_version to i+1.
// Every step is additive and safe to re-run, because snapshots written by the
// browser build carry user_version 0 even when the tables already exist.
var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS warga (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    nama TEXT,
    alamat TEXT,
    status TEXT,
    telepon TEXT
);

CREATE TABLE IF NOT EXISTS security_reports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    jenis_kejadian TEXT,
    lokasi TEXT,
    tanggal TEXT,
    status TEXT,
    priority TEXT,
    nama_pelapor TEXT,
    telepon_pelapor TEXT,
    kronologi TEXT
);
`,
	`
CREATE INDEX IF NOT EXISTS idx_warga_status ON warga(status);
CREATE INDEX IF NOT EXISTS idx_security_reports_status ON security_reports(status);
`,
}

// SchemaVersion is the user_version a fully migrated database carries.
var SchemaVersion = len(migrations)

// Tables lists the tables the schema defines.
var Tables = []string{"warga", "security_reports"}

// createTables runs every migration and stamps the current version.
func createTables(ctx context.Context, db *engine.DB) error {
	for i, ddl := range migrations {
		if _, err := db.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create schema (step %d): %w", i+1, err)
		}
	}
	return setUserVersion(ctx, db, SchemaVersion)
}

// migrate brings a restored database up to SchemaVersion. It reports whether
// anything ran.
func migrate(ctx context.Context, db *engine.DB) (from int, applied bool, err error) {
	from, err = userVersion(ctx, db)
	if err != nil {
		return 0, false, err
	}
	if from >= SchemaVersion {
		return from, false, nil
	}
	for v := from; v < SchemaVersion; v++ {
		if _, err := db.Exec(ctx, migrations[v]); err != nil {
			return from, false, fmt.Errorf("failed to migrate to version %d: %w", v+1, err)
		}
	}
	if err := setUserVersion(ctx, db, SchemaVersion); err != nil {
		return from, false, err
	}
	return from, true, nil
}

func userVersion(ctx context.Context, db *engine.DB) (int, error) {
	var v int
	if err := db.QueryRow(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

func setUserVersion(ctx context.Context, db *engine.DB, v int) error {
	if _, err := db.Exec(ctx, fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}
