// Package httpapi serves the RT database over HTTP.
package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router wraps http.ServeMux. Patterns carry their method.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler registers an http.Handler such as promhttp.
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterRoutes mounts every API route served by h.
func (r *Router) RegisterRoutes(h *Handler) {
	r.Handle("GET /healthz", h.Health)

	r.Handle("GET /api/administration", h.ListRoutes)
	r.Handle("GET /api/administration/{type}", h.GetAdministrationData)

	r.Handle("GET /api/warga", h.ListWarga)
	r.Handle("POST /api/warga", h.AddWarga)
	r.Handle("PUT /api/warga/{id}", h.UpdateWarga)
	r.Handle("DELETE /api/warga/{id}", h.DeleteWarga)

	r.Handle("GET /api/security-reports", h.ListSecurityReports)
	r.Handle("POST /api/security-reports", h.SubmitSecurityReport)
	r.Handle("POST /api/security-reports/{id}/status", h.UpdateReportStatus)

	r.Handle("GET /api/database/export", h.ExportDB)
	r.Handle("POST /api/database/import", h.ImportDB)
	r.Handle("POST /api/database/reset", h.ResetDB)

	r.Handle("GET /api/reports/rt.xlsx", h.Workbook)

	if h.gatherer != nil {
		r.HandleHandler("GET /metrics", metricsHandler(h.gatherer))
	}
}
