package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kittclouds/rtdb/internal/report"
	"github.com/kittclouds/rtdb/internal/service"
	"github.com/kittclouds/rtdb/internal/store"
)

// Database is the whole-store surface the API exposes.
type Database interface {
	report.Source
	Available() bool
	ExportDB(ctx context.Context) ([]byte, error)
	ImportDB(ctx context.Context, r io.Reader) error
	ResetDB(ctx context.Context) error
}

// Handler implements the API routes.
type Handler struct {
	svc       *service.Service
	db        Database
	logger    *zap.Logger
	maxImport int64
	gatherer  prometheus.Gatherer
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	MaxImportBytes int64
	// Gatherer, when set, is served at /metrics.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

func NewHandler(svc *service.Service, db Database, opts HandlerOptions) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxImportBytes <= 0 {
		opts.MaxImportBytes = 64 << 20
	}
	return &Handler{
		svc:       svc,
		db:        db,
		logger:    opts.Logger,
		maxImport: opts.MaxImportBytes,
		gatherer:  opts.Gatherer,
	}
}

func metricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, Fail(err.Error()))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"status":   "ok",
		"database": h.db.Available(),
	}))
}

func (h *Handler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.svc.Routes()))
}

func (h *Handler) GetAdministrationData(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.GetAdministrationData(r.Context(), r.PathValue("type"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(data))
}

// =============================================================================
// Warga
// =============================================================================

func (h *Handler) ListWarga(w http.ResponseWriter, r *http.Request) {
	warga, err := h.db.GetAllWarga(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(warga))
}

func (h *Handler) AddWarga(w http.ResponseWriter, r *http.Request) {
	var in store.Warga
	if err := readBodyJSON(r, maxJSONBytes, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	added, err := h.svc.AddWarga(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(added))
}

func (h *Handler) UpdateWarga(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, Fail("invalid id"))
		return
	}
	var in store.Warga
	if err := readBodyJSON(r, maxJSONBytes, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	in.ID = id
	if err := h.svc.UpdateWarga(r.Context(), in); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(in))
}

func (h *Handler) DeleteWarga(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, Fail("invalid id"))
		return
	}
	if err := h.svc.DeleteWarga(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int64{"id": id}))
}

// =============================================================================
// Security reports
// =============================================================================

func (h *Handler) ListSecurityReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.db.GetAllSecurityReports(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(reports))
}

func (h *Handler) SubmitSecurityReport(w http.ResponseWriter, r *http.Request) {
	var in store.SecurityReport
	if err := readBodyJSON(r, maxJSONBytes, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	sub, err := h.svc.SubmitSecurityReport(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sub))
}

type statusUpdate struct {
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

func (h *Handler) UpdateReportStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, Fail("invalid id"))
		return
	}
	var in statusUpdate
	if err := readBodyJSON(r, maxJSONBytes, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	if err := h.svc.UpdateReportStatus(r.Context(), id, in.Status, in.Priority); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"id": id, "status": in.Status, "priority": in.Priority}))
}

// =============================================================================
// Whole database
// =============================================================================

func (h *Handler) ExportDB(w http.ResponseWriter, r *http.Request) {
	data, err := h.db.ExportDB(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if data == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("database not initialized"))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.sqlite3")
	w.Header().Set("Content-Disposition", `attachment; filename="rt_database.sqlite"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) ImportDB(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.maxImport)
	if err := h.db.ImportDB(r.Context(), body); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, Fail("import too large"))
		case errors.Is(err, store.ErrNotInitialized):
			h.fail(w, r, err)
		default:
			writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		}
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]bool{"imported": true}))
}

func (h *Handler) ResetDB(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "yes" {
		writeJSON(w, http.StatusBadRequest, Fail("reset needs confirm=yes"))
		return
	}
	if err := h.db.ResetDB(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]bool{"reset": true}))
}

func (h *Handler) Workbook(w http.ResponseWriter, r *http.Request) {
	data, err := report.Generate(r.Context(), h.db)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="rt.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
