package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kittclouds/rtdb/internal/store"
)

// NewLaporanCommand creates the security report command group.
func NewLaporanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "laporan",
		Aliases: []string{"reports"},
		Short:   "Manage security reports",
	}
	cmd.AddCommand(newLaporanListCommand(rootOpts))
	cmd.AddCommand(newLaporanAddCommand(rootOpts))
	cmd.AddCommand(newLaporanStatusCommand(rootOpts))
	return cmd
}

func newLaporanListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every security report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				reports, err := app.Store.GetAllSecurityReports(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to list security reports", err)
				}
				return opts.formatter(cmd).Render(reports, func(w io.Writer) error {
					rows := make([][]any, 0, len(reports))
					for _, r := range reports {
						rows = append(rows, []any{r.ID, r.Tanggal, r.JenisKejadian, r.Lokasi, r.Status, r.Priority, r.NamaPelapor})
					}
					return table(w, []string{"ID", "TANGGAL", "KEJADIAN", "LOKASI", "STATUS", "PRIORITAS", "PELAPOR"}, rows)
				})
			})
		},
	}
}

func newLaporanAddCommand(opts *RootOptions) *cobra.Command {
	var in store.SecurityReport
	cmd := &cobra.Command{
		Use:   "add",
		Short: "File a security report",
		Long: `File a security report. New reports are always stored as Pending with
Medium priority; the command also prints the priority the incident keywords
suggest, which can be applied with "rtdb laporan status".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Tanggal == "" {
				in.Tanggal = time.Now().Format("2006-01-02")
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				sub, err := app.Service.SubmitSecurityReport(ctx, in)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to add security report", err)
				}
				return opts.formatter(cmd).Render(sub, func(w io.Writer) error {
					fmt.Fprintf(w, "Added laporan %d (%s, %s)\n", sub.Report.ID, sub.Report.Status, sub.Report.Priority)
					if sub.Suggestion.Priority != sub.Report.Priority {
						fmt.Fprintf(w, "Suggested priority: %s (matched: %s)\n",
							sub.Suggestion.Priority, strings.Join(sub.Suggestion.Matched, ", "))
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&in.JenisKejadian, "jenis", "", "incident type")
	cmd.Flags().StringVar(&in.Lokasi, "lokasi", "", "location")
	cmd.Flags().StringVar(&in.Tanggal, "tanggal", "", "date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&in.NamaPelapor, "pelapor", "", "reporter name")
	cmd.Flags().StringVar(&in.TeleponPelapor, "telepon", "", "reporter phone")
	cmd.Flags().StringVar(&in.Kronologi, "kronologi", "", "what happened")
	_ = cmd.MarkFlagRequired("jenis")
	return cmd
}

func newLaporanStatusCommand(opts *RootOptions) *cobra.Command {
	var status, priority string
	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Change the status or priority of a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				if err := app.Service.UpdateReportStatus(ctx, id, status, priority); err != nil {
					return WrapExitError(ExitFailure, "failed to update security report", err)
				}
				out := map[string]any{"id": id, "status": status, "priority": priority}
				return opts.formatter(cmd).Render(out, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Updated laporan %d\n", id)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Pending, Proses or Resolved")
	cmd.Flags().StringVar(&priority, "priority", "", "High, Medium or Low")
	return cmd
}
