package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/rtdb/internal/service"
	"github.com/kittclouds/rtdb/internal/store"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "rtdb", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"warga", "list"}, {"warga", "add"}, {"warga", "update"}, {"warga", "delete"},
		{"laporan", "list"}, {"laporan", "add"}, {"laporan", "status"},
		{"admin"},
		{"db", "export"}, {"db", "import"}, {"db", "reset"}, {"db", "info"},
		{"xlsx"}, {"serve"},
	}

	for _, path := range commands {
		t.Run(fmt.Sprint(path), func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

// =============================================================================
// End-to-end against a temp data directory
// =============================================================================

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rtdb.yaml")
	content := fmt.Sprintf(`database:
  engine: modernc
storage:
  backend: fs
  dir: %q
logging:
  level: error
`, filepath.Join(dir, "data"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func TestWargaCommands(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "-c", cfg, "--format", "json", "warga", "add",
		"--nama", "Andi Santoso", "--alamat", "Jl. Mawar No. 12", "--status", "Tetap", "--telepon", "081234567890")
	require.NoError(t, err, out)
	var added store.Warga
	decodeData(t, out, &added)
	assert.Equal(t, int64(1), added.ID)

	// A second process sees the first one's save.
	out, err = execute(t, "-c", cfg, "--format", "json", "warga", "list")
	require.NoError(t, err, out)
	var list []store.Warga
	decodeData(t, out, &list)
	assert.Equal(t, []store.Warga{added}, list)

	out, err = execute(t, "-c", cfg, "warga", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Andi Santoso")
	assert.Contains(t, out, "NAMA")

	_, err = execute(t, "-c", cfg, "warga", "delete", "abc")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "-c", cfg, "warga", "delete", "7")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLaporanAndAdminCommands(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "-c", cfg, "--format", "json", "laporan", "add",
		"--jenis", "Pencurian", "--kronologi", "Pelaku membawa senjata", "--tanggal", "2024-06-12")
	require.NoError(t, err, out)
	var sub service.Submission
	decodeData(t, out, &sub)
	assert.Equal(t, store.ReportPending, sub.Report.Status)
	assert.Equal(t, store.PriorityMedium, sub.Report.Priority)
	assert.Equal(t, store.PriorityHigh, sub.Suggestion.Priority)

	_, err = execute(t, "-c", cfg, "laporan", "status", "1", "--status", "Resolved")
	require.NoError(t, err)

	out, err = execute(t, "-c", cfg, "--format", "json", "admin", "statistik")
	require.NoError(t, err, out)
	var stats service.Statistik
	decodeData(t, out, &stats)
	assert.Equal(t, 1, stats.TotalLaporan)
	assert.Equal(t, 1, stats.Laporan[store.ReportResolved])

	out, err = execute(t, "-c", cfg, "admin", "pengurus")
	require.NoError(t, err)
	assert.Contains(t, out, "Ketua RT")

	out, err = execute(t, "-c", cfg, "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "fixture")

	_, err = execute(t, "-c", cfg, "admin", "iuran")
	assert.ErrorIs(t, err, service.ErrUnknownType)
}

func TestDBCommands(t *testing.T) {
	cfg := writeConfig(t)
	exportPath := filepath.Join(t.TempDir(), "backup.sqlite")

	_, err := execute(t, "-c", cfg, "warga", "add", "--nama", "Satu")
	require.NoError(t, err)

	_, err = execute(t, "-c", cfg, "db", "export", "-o", exportPath)
	require.NoError(t, err)
	img, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("SQLite format 3\x00")))

	_, err = execute(t, "-c", cfg, "db", "reset")
	assert.Equal(t, ExitCommandError, GetExitCode(err), "reset needs --yes")

	_, err = execute(t, "-c", cfg, "db", "reset", "--yes")
	require.NoError(t, err)

	out, err := execute(t, "-c", cfg, "--format", "json", "db", "info")
	require.NoError(t, err)
	var info Info
	decodeData(t, out, &info)
	assert.True(t, info.Available)
	assert.Equal(t, "modernc", info.Engine)
	assert.Zero(t, info.Warga)
	assert.Positive(t, info.SnapshotBytes)

	junk := filepath.Join(t.TempDir(), "junk.sqlite")
	require.NoError(t, os.WriteFile(junk, []byte("bukan database"), 0o644))
	_, err = execute(t, "-c", cfg, "db", "import", junk)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = execute(t, "-c", cfg, "db", "import", exportPath)
	require.NoError(t, err)

	out, err = execute(t, "-c", cfg, "--format", "json", "warga", "list")
	require.NoError(t, err)
	var list []store.Warga
	decodeData(t, out, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Satu", list[0].Nama)
}

func TestXLSXCommand(t *testing.T) {
	cfg := writeConfig(t)
	path := filepath.Join(t.TempDir(), "rt.xlsx")

	_, err := execute(t, "-c", cfg, "xlsx", "-o", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "yaml", "admin")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  engine: postgres\n"), 0o644))

	_, err := execute(t, "-c", path, "warga", "list")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExitError(t *testing.T) {
	base := fmt.Errorf("boom")
	err := WrapExitError(ExitFailure, "failed", base)
	assert.Equal(t, "failed: boom", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(base))
}
