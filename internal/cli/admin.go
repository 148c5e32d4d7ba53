package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kittclouds/rtdb/internal/service"
	"github.com/kittclouds/rtdb/internal/store"
)

// NewAdminCommand creates the admin command.
func NewAdminCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "admin [type]",
		Short: "Show administration data",
		Long: `Show administration data by type. Without a type, list the routing table:
which types come from the database, which are derived from it and which are
static fixtures.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				f := opts.formatter(cmd)
				if len(args) == 0 {
					routes := app.Service.Routes()
					return f.Render(routes, func(w io.Writer) error {
						rows := make([][]any, 0, len(routes))
						for _, r := range routes {
							rows = append(rows, []any{r.Type, r.Source, r.Description})
						}
						return table(w, []string{"TYPE", "SOURCE", "DESCRIPTION"}, rows)
					})
				}

				data, err := app.Service.GetAdministrationData(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "failed to get administration data", err)
				}
				return f.Render(data, func(w io.Writer) error { return adminText(w, data) })
			})
		},
	}
}

func adminText(w io.Writer, data any) error {
	switch v := data.(type) {
	case []store.Warga:
		return wargaTable(w, v)
	case []service.Anggota:
		rows := make([][]any, 0, len(v))
		for _, a := range v {
			rows = append(rows, []any{a.ID, a.Jabatan, a.Nama, a.Telepon, a.Periode})
		}
		return table(w, []string{"ID", "JABATAN", "NAMA", "TELEPON", "PERIODE"}, rows)
	case service.Statistik:
		var b strings.Builder
		fmt.Fprintf(&b, "Total warga:    %d\n", v.TotalWarga)
		fmt.Fprintf(&b, "Warga aktif:    %d\n", v.WargaAktif)
		fmt.Fprintf(&b, "Warga baru:     %d\n", v.WargaBaru)
		fmt.Fprintf(&b, "Warga kontrak:  %d\n", v.WargaKontrak)
		fmt.Fprintf(&b, "Total laporan:  %d\n", v.TotalLaporan)
		fmt.Fprintf(&b, "  Pending:      %d\n", v.Laporan[store.ReportPending])
		fmt.Fprintf(&b, "  Proses:       %d\n", v.Laporan[store.ReportProses])
		fmt.Fprintf(&b, "  Resolved:     %d\n", v.Laporan[store.ReportResolved])
		_, err := io.WriteString(w, b.String())
		return err
	default:
		return indented(w, v)
	}
}
