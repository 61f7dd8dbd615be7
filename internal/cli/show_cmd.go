package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/knightqmd/scheduler-app/internal/cli/formatter"
	"github.com/knightqmd/scheduler-app/internal/domain"
	"github.com/knightqmd/scheduler-app/internal/service"
)

// weekJSON is the --json view. Days are a list so stored order survives.
type weekJSON struct {
	Owner        string                `json:"owner"`
	Days         []domain.DaySchedule  `json:"days"`
	Unscheduled  []domain.ScheduleItem `json:"unscheduled,omitempty"`
	FreeText     string                `json:"free_text,omitempty"`
	LongTermPlan string                `json:"long_term_plan,omitempty"`
}

func newShowCmd(app *App) *cobra.Command {
	var asTree, asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "显示当前一周日程",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asTree && asJSON {
				return fmt.Errorf("--tree and --json are mutually exclusive")
			}
			week, err := app.Plans.Schedule(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(weekJSON{
					Owner:        week.Owner,
					Days:         week.Days(),
					Unscheduled:  week.Unscheduled(),
					FreeText:     week.FreeText,
					LongTermPlan: week.LongTermPlan,
				})
			case asTree:
				fmt.Fprint(out, formatter.FormatWeekTree(week))
			default:
				fmt.Fprint(out, formatter.FormatWeek("本周日程", week))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asTree, "tree", false, "Render as a plain tree")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

func newLongTermCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "long-term TEXT...",
		Short: "保存长期计划（不调用模型）",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("long-term plan text is empty")
			}
			res, err := app.Plans.Apply(cmd.Context(), service.ApplyRequest{
				LongTermPlan: text,
				Mode:         domain.PlanModeSave,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.StyleGreen.Render("长期计划已保存。"))
			fmt.Fprint(out, formatter.FormatWeek("本周日程", res.Schedule))
			return nil
		},
	}
}
