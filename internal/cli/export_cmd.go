package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/knightqmd/scheduler-app/internal/export"
)

func newExportCmd(app *App) *cobra.Command {
	var asICS bool
	var weekStart string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "导出本周日程",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !asICS {
				return fmt.Errorf("choose an export format (--ics)")
			}

			start := app.now()
			if weekStart != "" {
				t, err := time.ParseInLocation("2006-01-02", weekStart, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --week-start %q (want YYYY-MM-DD): %w", weekStart, err)
				}
				start = t
			}

			week, err := app.Plans.Schedule(cmd.Context())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating %s: %w", outPath, err)
				}
				defer f.Close()
				w = f
			}

			if err := export.WriteICS(w, week, start); err != nil {
				return fmt.Errorf("writing calendar: %w", err)
			}
			if f, ok := w.(*os.File); ok {
				if err := f.Close(); err != nil {
					return fmt.Errorf("closing %s: %w", outPath, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "已导出到 %s\n", outPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asICS, "ics", false, "Export as iCalendar (.ics)")
	cmd.Flags().StringVar(&weekStart, "week-start", "", "Any date in the target week, YYYY-MM-DD (default: this week)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")

	return cmd
}
