package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kittclouds/rtdb/internal/report"
)

// NewXLSXCommand creates the xlsx command.
func NewXLSXCommand(opts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "xlsx",
		Short: "Write residents and security reports to a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				data, err := report.Generate(ctx, app.Store)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to build workbook", err)
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return WrapExitError(ExitCommandError, "failed to write workbook", err)
				}
				return opts.formatter(cmd).Render(map[string]any{"file": output, "bytes": len(data)}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Wrote %s\n", output)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "rt.xlsx", "output file")
	return cmd
}
