package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/rtdb/internal/engine"
	"github.com/kittclouds/rtdb/internal/kv"
	"github.com/kittclouds/rtdb/internal/service"
	"github.com/kittclouds/rtdb/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	slot, err := kv.NewMemSlot()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	st := store.New(engine.NewLoader(engine.ProbeFor(engine.NcrucesName), nil), slot, store.Options{
		Metrics: store.NewMetrics(reg),
	})
	require.NoError(t, st.Init(context.Background()))
	t.Cleanup(func() { st.Close() })

	router := NewRouter(nil)
	router.RegisterRoutes(NewHandler(service.New(st, nil, nil), st, HandlerOptions{
		MaxImportBytes: 1 << 20,
		Gatherer:       reg,
	}))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, st
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, Result[json.RawMessage]) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out Result[json.RawMessage]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestWargaEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, res := doJSON(t, http.MethodPost, srv.URL+"/api/warga", store.Warga{
		Nama: "Andi Santoso", Alamat: "Jl. Mawar No. 12", Status: store.WargaTetap, Telepon: "081234567890",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, ResultSuccess, res.Code)

	var added store.Warga
	require.NoError(t, json.Unmarshal(res.Result, &added))
	assert.Equal(t, int64(1), added.ID)

	resp, res = doJSON(t, http.MethodGet, srv.URL+"/api/warga", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []store.Warga
	require.NoError(t, json.Unmarshal(res.Result, &list))
	assert.Equal(t, []store.Warga{added}, list)

	added.Alamat = "Jl. Mawar No. 14"
	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/warga/1", added)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/warga/1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, res = doJSON(t, http.MethodDelete, srv.URL+"/api/warga/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, ResultError, res.Code)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/warga", store.Warga{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSecurityReportEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, res := doJSON(t, http.MethodPost, srv.URL+"/api/security-reports", map[string]string{
		"jenis_kejadian": "Pencurian",
		"status":         "Resolved",
		"kronologi":      "Pelaku membawa pisau",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sub service.Submission
	require.NoError(t, json.Unmarshal(res.Result, &sub))
	assert.Equal(t, store.ReportPending, sub.Report.Status)
	assert.Equal(t, store.PriorityMedium, sub.Report.Priority)
	assert.Equal(t, store.PriorityHigh, sub.Suggestion.Priority)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/security-reports/1/status", statusUpdate{Status: "Proses"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/security-reports/1/status", statusUpdate{Status: "Hilang"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, res = doJSON(t, http.MethodGet, srv.URL+"/api/security-reports", nil)
	var reports []store.SecurityReport
	require.NoError(t, json.Unmarshal(res.Result, &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, store.ReportProses, reports[0].Status)
}

func TestAdministrationEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, res := doJSON(t, http.MethodGet, srv.URL+"/api/administration/statistik", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats service.Statistik
	require.NoError(t, json.Unmarshal(res.Result, &stats))
	assert.Zero(t, stats.TotalWarga)

	resp, res = doJSON(t, http.MethodGet, srv.URL+"/api/administration/pengurus", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var members []service.Anggota
	require.NoError(t, json.Unmarshal(res.Result, &members))
	assert.Equal(t, service.Pengurus(), members)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/administration/iuran", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExportImportReset(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	_, err := st.AddWarga(ctx, store.Warga{Nama: "Sebelum Ekspor"})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/database/export")
	require.NoError(t, err)
	img, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.sqlite3", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(img, []byte("SQLite format 3\x00")))

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/database/reset", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "reset needs confirmation")

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/database/reset?confirm=yes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	warga, err := st.GetAllWarga(ctx)
	require.NoError(t, err)
	assert.Empty(t, warga)

	resp, err = http.Post(srv.URL+"/api/database/import", "application/octet-stream", strings.NewReader("bukan database"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/database/import", "application/octet-stream", bytes.NewReader(img))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	warga, err = st.GetAllWarga(ctx)
	require.NoError(t, err)
	require.Len(t, warga, 1)
	assert.Equal(t, "Sebelum Ekspor", warga[0].Nama)
}

func TestImportTooLarge(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/database/import", "application/octet-stream", bytes.NewReader(make([]byte, 1<<20+16)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestWorkbookAndMetrics(t *testing.T) {
	srv, st := newTestServer(t)
	_, err := st.AddWarga(context.Background(), store.Warga{Nama: "Excel"})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/reports/rt.xlsx")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "xlsx is a zip")

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "rtdb_store_saves_total")
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, res := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","database":true}`, string(res.Result))
}
