package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/knightqmd/scheduler-app/internal/cli/formatter"
	"github.com/knightqmd/scheduler-app/internal/domain"
	"github.com/knightqmd/scheduler-app/internal/importer"
)

func newImportCmd(app *App) *cobra.Command {
	var demo bool

	cmd := &cobra.Command{
		Use:   "import [FILE]",
		Short: "从 JSON/YAML 日程文件（或内置示例）整体替换本周日程",
		Args: func(cmd *cobra.Command, args []string) error {
			if demo {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		Annotations: map[string]string{annotationNoBootstrap: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var week *domain.WeekSchedule
			if demo {
				week = importer.DefaultWeek(app.Config.Owner)
			} else {
				sf, err := importer.LoadScheduleFile(args[0])
				if err != nil {
					return err
				}
				var warnings []error
				week, warnings = importer.Convert(sf, app.Config.Owner)
				for _, w := range warnings {
					app.Logger.Warn("skipped schedule entry", zap.String("path", args[0]), zap.Error(w))
					fmt.Fprintln(out, formatter.StyleYellow.Render("跳过："+w.Error()))
				}
			}

			if err := app.Plans.Replace(cmd.Context(), week); err != nil {
				return err
			}
			stored, err := app.Plans.Schedule(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, formatter.StyleGreen.Render(fmt.Sprintf("已导入 %d 条日程。", week.ItemCount())))
			fmt.Fprint(out, formatter.FormatWeek("本周日程", stored))
			return nil
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "Import the built-in demo week")

	return cmd
}
