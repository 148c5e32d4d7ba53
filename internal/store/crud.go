package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kittclouds/rtdb/internal/engine"
)

// RunResult describes a non-row-returning statement.
type RunResult struct {
	LastInsertID int64 `json:"last_insert_id"`
	RowsAffected int64 `json:"rows_affected"`
}

// Exec runs a parameterised statement and returns every row it produced. The
// database is saved when the statement wrote anything: rows, schema or header
// pragmas. Pure reads leave the slot alone.
func (s *Store) Exec(ctx context.Context, query string, params ...any) ([]engine.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		s.degraded("exec")
		return []engine.Row{}, nil
	}

	before, err := s.db.Mark(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	after, err := s.db.Mark(ctx)
	if err != nil {
		return nil, err
	}
	if after != before {
		_ = s.saveLocked(ctx)
	}
	return rows, nil
}

// Run executes a statement that returns no rows and saves the database.
func (s *Store) Run(ctx context.Context, query string, params ...any) (RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runLocked(ctx, "run", query, params...)
}

func (s *Store) runLocked(ctx context.Context, op, query string, params ...any) (RunResult, error) {
	if s.db == nil {
		s.degraded(op)
		return RunResult{}, nil
	}
	return s.execLocked(ctx, op, query, params...)
}

// execLocked runs and saves. The caller has checked for a database.
func (s *Store) execLocked(ctx context.Context, op, query string, params ...any) (RunResult, error) {
	res, err := s.db.Exec(ctx, query, params...)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to run %s: %w", op, err)
	}
	var out RunResult
	out.LastInsertID, _ = res.LastInsertId()
	out.RowsAffected, _ = res.RowsAffected()

	_ = s.saveLocked(ctx)
	return out, nil
}

// updateLocked runs a narrow write that must hit a row. what names the row
// in the ErrNotFound error.
func (s *Store) updateLocked(ctx context.Context, op, what, query string, params ...any) error {
	if s.db == nil {
		s.degraded(op)
		return nil
	}
	res, err := s.execLocked(ctx, op, query, params...)
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

// CreateTables runs the idempotent schema DDL against the live database.
func (s *Store) CreateTables(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		s.degraded("create_tables")
		return nil
	}
	if err := createTables(ctx, s.db); err != nil {
		return err
	}
	_ = s.saveLocked(ctx)
	return nil
}

// query is a read under the shared lock. It never saves.
func (s *Store) query(ctx context.Context, op, q string, params ...any) ([]engine.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		s.degraded(op)
		return []engine.Row{}, nil
	}
	rows, err := s.db.Query(ctx, q, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return rows, nil
}

// =============================================================================
// Warga
// =============================================================================

// GetAllWarga returns every resident in insertion order.
func (s *Store) GetAllWarga(ctx context.Context) ([]Warga, error) {
	rows, err := s.query(ctx, "list warga",
		"SELECT id, nama, alamat, status, telepon FROM warga ORDER BY id")
	if err != nil {
		return nil, err
	}

	out := make([]Warga, 0, len(rows))
	for _, r := range rows {
		out = append(out, wargaFromRow(r))
	}
	return out, nil
}

// AddWarga inserts a resident. The returned copy carries the assigned id.
func (s *Store) AddWarga(ctx context.Context, w Warga) (Warga, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.runLocked(ctx, "add warga",
		"INSERT INTO warga (nama, alamat, status, telepon) VALUES (?, ?, ?, ?)",
		w.Nama, w.Alamat, w.Status, w.Telepon)
	if err != nil {
		return Warga{}, err
	}
	w.ID = res.LastInsertID
	return w, nil
}

// UpdateWarga overwrites every field of the resident with w.ID.
func (s *Store) UpdateWarga(ctx context.Context, w Warga) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateLocked(ctx, "update warga", fmt.Sprintf("warga %d", w.ID),
		"UPDATE warga SET nama = ?, alamat = ?, status = ?, telepon = ? WHERE id = ?",
		w.Nama, w.Alamat, w.Status, w.Telepon, w.ID)
}

// DeleteWarga removes the resident with the given id.
func (s *Store) DeleteWarga(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateLocked(ctx, "delete warga", fmt.Sprintf("warga %d", id),
		"DELETE FROM warga WHERE id = ?", id)
}

// =============================================================================
// Security reports
// =============================================================================

// GetAllSecurityReports returns every report in insertion order.
func (s *Store) GetAllSecurityReports(ctx context.Context) ([]SecurityReport, error) {
	rows, err := s.query(ctx, "list security reports", `
SELECT id, jenis_kejadian, lokasi, tanggal, status, priority,
       nama_pelapor, telepon_pelapor, kronologi
FROM security_reports ORDER BY id`)
	if err != nil {
		return nil, err
	}

	out := make([]SecurityReport, 0, len(rows))
	for _, r := range rows {
		out = append(out, reportFromRow(r))
	}
	return out, nil
}

// AddSecurityReport inserts a report with the store's defaults stamped on.
// The returned copy shows exactly what was stored.
func (s *Store) AddSecurityReport(ctx context.Context, r SecurityReport) (SecurityReport, error) {
	r = s.defaults.Apply(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.runLocked(ctx, "add security report", `
INSERT INTO security_reports
    (jenis_kejadian, lokasi, tanggal, status, priority, nama_pelapor, telepon_pelapor, kronologi)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.JenisKejadian, r.Lokasi, r.Tanggal, r.Status, r.Priority,
		r.NamaPelapor, r.TeleponPelapor, r.Kronologi)
	if err != nil {
		return SecurityReport{}, err
	}
	r.ID = res.LastInsertID
	return r, nil
}

// UpdateSecurityReportStatus moves a report along its workflow. An empty
// status or priority leaves that column as it is.
func (s *Store) UpdateSecurityReportStatus(ctx context.Context, id int64, status, priority string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateLocked(ctx, "update security report", fmt.Sprintf("security report %d", id), `
UPDATE security_reports
SET status = COALESCE(NULLIF(?, ''), status),
    priority = COALESCE(NULLIF(?, ''), priority)
WHERE id = ?`, status, priority, id)
}

// =============================================================================
// Row mapping
// =============================================================================

func wargaFromRow(r engine.Row) Warga {
	return Warga{
		ID:      asInt64(r["id"]),
		Nama:    asString(r["nama"]),
		Alamat:  asString(r["alamat"]),
		Status:  asString(r["status"]),
		Telepon: asString(r["telepon"]),
	}
}

func reportFromRow(r engine.Row) SecurityReport {
	return SecurityReport{
		ID:             asInt64(r["id"]),
		JenisKejadian:  asString(r["jenis_kejadian"]),
		Lokasi:         asString(r["lokasi"]),
		Tanggal:        asString(r["tanggal"]),
		Status:         asString(r["status"]),
		Priority:       asString(r["priority"]),
		NamaPelapor:    asString(r["nama_pelapor"]),
		TeleponPelapor: asString(r["telepon_pelapor"]),
		Kronologi:      asString(r["kronologi"]),
	}
}

// asString reads a TEXT column. NULL becomes "".
func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func asInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case float64:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(string(x), 10, 64)
		return n
	default:
		return 0
	}
}

