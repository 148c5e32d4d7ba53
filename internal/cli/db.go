package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewDBCommand creates the db command group for whole-database operations.
func NewDBCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Export, import, reset or inspect the whole database",
	}
	cmd.AddCommand(newDBExportCommand(rootOpts))
	cmd.AddCommand(newDBImportCommand(rootOpts))
	cmd.AddCommand(newDBResetCommand(rootOpts))
	cmd.AddCommand(newDBInfoCommand(rootOpts))
	return cmd
}

func newDBExportCommand(opts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the database image to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				data, err := app.Store.ExportDB(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to export database", err)
				}
				if data == nil {
					return NewExitError(ExitFailure, "database not initialized")
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return WrapExitError(ExitCommandError, "failed to write export", err)
				}
				out := map[string]any{"file": output, "bytes": len(data)}
				return opts.formatter(cmd).Render(out, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Exported %d bytes to %s\n", len(data), output)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "rt_database.sqlite", "output file")
	return cmd
}

func newDBImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the database with an image from a file",
		Long: `Replace the whole database with the SQLite image in <file>. The current
contents are discarded. When the file is not a usable database nothing changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open import", err)
			}
			defer f.Close()

			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				if err := app.Store.ImportDB(ctx, f); err != nil {
					return WrapExitError(ExitFailure, "failed to import database", err)
				}
				return opts.formatter(cmd).Render(map[string]string{"file": args[0]}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Imported %s\n", args[0])
					return err
				})
			})
		},
	}
}

func newDBResetCommand(opts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every row and start with empty tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return NewExitError(ExitCommandError, "reset deletes all data; pass --yes to confirm")
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				if err := app.Store.ResetDB(ctx); err != nil {
					return WrapExitError(ExitFailure, "failed to reset database", err)
				}
				return opts.formatter(cmd).Render(map[string]bool{"reset": true}, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, "Database reset")
					return err
				})
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

// Info describes the configured database.
type Info struct {
	Engine        string `json:"engine"`
	Available     bool   `json:"available"`
	Backend       string `json:"backend"`
	StorageKey    string `json:"storage_key"`
	SnapshotBytes int    `json:"snapshot_bytes"`
	Warga         int    `json:"warga"`
	Laporan       int    `json:"laporan"`
}

func newDBInfoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show engine, storage and row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				info := Info{
					Engine:     app.Config.Database.Engine,
					Available:  app.Store.Available(),
					Backend:    app.Config.Storage.Backend,
					StorageKey: app.Store.Key(),
				}
				img, err := app.Store.ExportDB(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to read database", err)
				}
				info.SnapshotBytes = len(img)
				warga, err := app.Store.GetAllWarga(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to count warga", err)
				}
				reports, err := app.Store.GetAllSecurityReports(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to count security reports", err)
				}
				info.Warga, info.Laporan = len(warga), len(reports)

				return opts.formatter(cmd).Render(info, func(w io.Writer) error {
					return table(w, []string{"FIELD", "VALUE"}, [][]any{
						{"engine", info.Engine},
						{"available", info.Available},
						{"backend", info.Backend},
						{"storage_key", info.StorageKey},
						{"snapshot_bytes", info.SnapshotBytes},
						{"warga", info.Warga},
						{"laporan", info.Laporan},
					})
				})
			})
		},
	}
}
