// Package service is the single entry point the portal uses for data. Each
// administration data type is routed either to the embedded store, to values
// derived from it, or to static fixtures for entities that have no table yet.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/kittclouds/rtdb/internal/store"
	"github.com/kittclouds/rtdb/internal/triage"
)

var (
	// ErrUnknownType is returned for an administration data type with no route.
	ErrUnknownType = errors.New("unknown administration data type")
	// ErrInvalidInput is returned when a write is missing required fields.
	ErrInvalidInput = errors.New("invalid input")
)

// Source says where a data type is served from.
type Source string

const (
	SourceStore   Source = "store"
	SourceDerived Source = "derived"
	SourceFixture Source = "fixture"
)

// Administration data types.
const (
	TypeWarga     = "warga"
	TypeStatistik = "statistik"
	TypePengurus  = "pengurus"
	TypeLaporan   = "laporan"
)

// Backend is the part of the store the service needs.
type Backend interface {
	GetAllWarga(ctx context.Context) ([]store.Warga, error)
	AddWarga(ctx context.Context, w store.Warga) (store.Warga, error)
	UpdateWarga(ctx context.Context, w store.Warga) error
	DeleteWarga(ctx context.Context, id int64) error
	GetAllSecurityReports(ctx context.Context) ([]store.SecurityReport, error)
	AddSecurityReport(ctx context.Context, r store.SecurityReport) (store.SecurityReport, error)
	UpdateSecurityReportStatus(ctx context.Context, id int64, status, priority string) error
}

// Route is one row of the routing table.
type Route struct {
	Type        string `json:"type"`
	Source      Source `json:"source"`
	Description string `json:"description"`

	fetch func(ctx context.Context) (any, error)
}

// Service routes administration data requests.
type Service struct {
	backend Backend
	triage  *triage.Triage
	log     *zap.Logger
	routes  map[string]Route
}

// New creates a service over backend. A nil triage uses the default rules.
func New(backend Backend, tr *triage.Triage, log *zap.Logger) *Service {
	if tr == nil {
		tr = triage.MustDefault()
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{backend: backend, triage: tr, log: log}

	// The routing table. pengurus has no table in the store yet and is served
	// from fixtures until it gets one.
	s.routes = map[string]Route{
		TypeWarga: {
			Type: TypeWarga, Source: SourceStore,
			Description: "all residents",
			fetch:       func(ctx context.Context) (any, error) { return backend.GetAllWarga(ctx) },
		},
		TypeStatistik: {
			Type: TypeStatistik, Source: SourceDerived,
			Description: "resident and report counts",
			fetch:       func(ctx context.Context) (any, error) { return s.Statistik(ctx) },
		},
		TypePengurus: {
			Type: TypePengurus, Source: SourceFixture,
			Description: "board members",
			fetch:       func(context.Context) (any, error) { return Pengurus(), nil },
		},
		TypeLaporan: {
			Type: TypeLaporan, Source: SourceStore,
			Description: "all security reports",
			fetch:       func(ctx context.Context) (any, error) { return backend.GetAllSecurityReports(ctx) },
		},
	}
	return s
}

// Routes returns the routing table sorted by type.
func (s *Service) Routes() []Route {
	out := make([]Route, 0, len(s.routes))
	for _, r := range s.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// GetAdministrationData returns the data for one administration type.
func (s *Service) GetAdministrationData(ctx context.Context, typ string) (any, error) {
	route, ok := s.routes[strings.ToLower(strings.TrimSpace(typ))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	data, err := route.fetch(ctx)
	if err != nil {
		s.log.Error("failed to fetch administration data",
			zap.String("type", route.Type), zap.String("source", string(route.Source)), zap.Error(err))
		return nil, err
	}
	return data, nil
}

// Statistik is a summary derived from the full resident and report sets.
type Statistik struct {
	TotalWarga   int            `json:"total_warga"`
	WargaAktif   int            `json:"warga_aktif"`
	WargaBaru    int            `json:"warga_baru"`
	WargaKontrak int            `json:"warga_kontrak"`
	TotalLaporan int            `json:"total_laporan"`
	Laporan      map[string]int `json:"laporan"`
}

// Statistik counts residents by status and reports by status. Status matching
// ignores case, so "tetap" and "Tetap" count the same.
func (s *Service) Statistik(ctx context.Context) (Statistik, error) {
	warga, err := s.backend.GetAllWarga(ctx)
	if err != nil {
		return Statistik{}, err
	}
	reports, err := s.backend.GetAllSecurityReports(ctx)
	if err != nil {
		return Statistik{}, err
	}

	fold := cases.Fold()
	aktif := fold.String(store.WargaTetap)
	baru := fold.String(store.WargaBaru)
	kontrak := fold.String(store.WargaKontrak)

	st := Statistik{
		TotalWarga:   len(warga),
		TotalLaporan: len(reports),
		Laporan: map[string]int{
			store.ReportPending:  0,
			store.ReportProses:   0,
			store.ReportResolved: 0,
		},
	}
	for _, w := range warga {
		switch fold.String(strings.TrimSpace(w.Status)) {
		case aktif:
			st.WargaAktif++
		case baru:
			st.WargaBaru++
		case kontrak:
			st.WargaKontrak++
		}
	}
	for _, r := range reports {
		st.Laporan[canonicalReportStatus(r.Status)]++
	}
	return st, nil
}

var reportStatuses = []string{store.ReportPending, store.ReportProses, store.ReportResolved}

// canonicalReportStatus maps a stored status to its canonical spelling.
// Anything unrecognised is returned trimmed.
func canonicalReportStatus(status string) string {
	status = strings.TrimSpace(status)
	fold := cases.Fold()
	for _, known := range reportStatuses {
		if fold.String(status) == fold.String(known) {
			return known
		}
	}
	return status
}

// =============================================================================
// Writes
// =============================================================================

// AddWarga validates and stores a resident.
func (s *Service) AddWarga(ctx context.Context, w store.Warga) (store.Warga, error) {
	w.Nama = strings.TrimSpace(w.Nama)
	if w.Nama == "" {
		return store.Warga{}, fmt.Errorf("%w: nama is required", ErrInvalidInput)
	}
	if w.Status == "" {
		w.Status = store.WargaBaru
	}
	return s.backend.AddWarga(ctx, w)
}

// UpdateWarga validates and overwrites a resident.
func (s *Service) UpdateWarga(ctx context.Context, w store.Warga) error {
	if w.ID <= 0 {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	w.Nama = strings.TrimSpace(w.Nama)
	if w.Nama == "" {
		return fmt.Errorf("%w: nama is required", ErrInvalidInput)
	}
	return s.backend.UpdateWarga(ctx, w)
}

// DeleteWarga removes a resident.
func (s *Service) DeleteWarga(ctx context.Context, id int64) error {
	return s.backend.DeleteWarga(ctx, id)
}

// Submission is a stored report with the priority triage would give it.
type Submission struct {
	Report     store.SecurityReport `json:"report"`
	Suggestion triage.Result        `json:"suggestion"`
}

// SubmitSecurityReport stores r with the store defaults and returns a
// priority suggestion next to it. The suggestion is not persisted.
func (s *Service) SubmitSecurityReport(ctx context.Context, r store.SecurityReport) (Submission, error) {
	if strings.TrimSpace(r.JenisKejadian) == "" {
		return Submission{}, fmt.Errorf("%w: jenis_kejadian is required", ErrInvalidInput)
	}
	stored, err := s.backend.AddSecurityReport(ctx, r)
	if err != nil {
		return Submission{}, err
	}
	sub := Submission{Report: stored, Suggestion: s.triage.AssessReport(stored)}
	if sub.Suggestion.Priority != stored.Priority {
		s.log.Info("security report may need a different priority",
			zap.Int64("id", stored.ID),
			zap.String("stored", stored.Priority),
			zap.String("suggested", sub.Suggestion.Priority),
			zap.Strings("matched", sub.Suggestion.Matched))
	}
	return sub, nil
}

// UpdateReportStatus moves a report along Pending, Proses and Resolved, and
// optionally sets its priority. Empty values leave the column unchanged.
func (s *Service) UpdateReportStatus(ctx context.Context, id int64, status, priority string) error {
	if status != "" {
		status = canonicalReportStatus(status)
		if !contains(reportStatuses, status) {
			return fmt.Errorf("%w: status %q", ErrInvalidInput, status)
		}
	}
	if priority != "" {
		p, ok := canonicalPriority(priority)
		if !ok {
			return fmt.Errorf("%w: priority %q", ErrInvalidInput, priority)
		}
		priority = p
	}
	if status == "" && priority == "" {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	return s.backend.UpdateSecurityReportStatus(ctx, id, status, priority)
}

func canonicalPriority(p string) (string, bool) {
	fold := cases.Fold()
	for _, known := range []string{store.PriorityHigh, store.PriorityMedium, store.PriorityLow} {
		if fold.String(strings.TrimSpace(p)) == fold.String(known) {
			return known, true
		}
	}
	return "", false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
