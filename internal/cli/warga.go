package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kittclouds/rtdb/internal/store"
)

// NewWargaCommand creates the warga command group.
func NewWargaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warga",
		Short: "Manage residents",
	}
	cmd.AddCommand(newWargaListCommand(rootOpts))
	cmd.AddCommand(newWargaAddCommand(rootOpts))
	cmd.AddCommand(newWargaUpdateCommand(rootOpts))
	cmd.AddCommand(newWargaDeleteCommand(rootOpts))
	return cmd
}

func newWargaListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every resident",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				warga, err := app.Store.GetAllWarga(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to list warga", err)
				}
				return opts.formatter(cmd).Render(warga, func(w io.Writer) error {
					return wargaTable(w, warga)
				})
			})
		},
	}
}

func wargaTable(w io.Writer, warga []store.Warga) error {
	rows := make([][]any, 0, len(warga))
	for _, x := range warga {
		rows = append(rows, []any{x.ID, x.Nama, x.Alamat, x.Status, x.Telepon})
	}
	return table(w, []string{"ID", "NAMA", "ALAMAT", "STATUS", "TELEPON"}, rows)
}

func bindWargaFlags(cmd *cobra.Command, w *store.Warga) {
	cmd.Flags().StringVar(&w.Nama, "nama", "", "full name")
	cmd.Flags().StringVar(&w.Alamat, "alamat", "", "address")
	cmd.Flags().StringVar(&w.Status, "status", "", "Tetap, Kontrak or Baru")
	cmd.Flags().StringVar(&w.Telepon, "telepon", "", "phone number")
}

func newWargaAddCommand(opts *RootOptions) *cobra.Command {
	var in store.Warga
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a resident",
		Example: `  rtdb warga add --nama "Andi Santoso" --alamat "Jl. Mawar No. 12" \
    --status Tetap --telepon 081234567890`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				added, err := app.Service.AddWarga(ctx, in)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to add warga", err)
				}
				return opts.formatter(cmd).Render(added, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added warga %d (%s)\n", added.ID, added.Nama)
					return err
				})
			})
		},
	}
	bindWargaFlags(cmd, &in)
	_ = cmd.MarkFlagRequired("nama")
	return cmd
}

func newWargaUpdateCommand(opts *RootOptions) *cobra.Command {
	var in store.Warga
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Overwrite a resident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in.ID = id
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				if err := app.Service.UpdateWarga(ctx, in); err != nil {
					return WrapExitError(ExitFailure, "failed to update warga", err)
				}
				return opts.formatter(cmd).Render(in, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Updated warga %d\n", id)
					return err
				})
			})
		},
	}
	bindWargaFlags(cmd, &in)
	_ = cmd.MarkFlagRequired("nama")
	return cmd
}

func newWargaDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a resident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				if err := app.Service.DeleteWarga(ctx, id); err != nil {
					return WrapExitError(ExitFailure, "failed to delete warga", err)
				}
				return opts.formatter(cmd).Render(map[string]int64{"id": id}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Deleted warga %d\n", id)
					return err
				})
			})
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid id %q", s))
	}
	return id, nil
}
