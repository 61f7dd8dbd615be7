package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/knightqmd/scheduler-app/internal/cli/formatter"
	"github.com/knightqmd/scheduler-app/internal/domain"
	"github.com/knightqmd/scheduler-app/internal/service"
)

func newPlanCmd(app *App) *cobra.Command {
	var request string
	var longTerm string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "根据需求调整本周日程",
		Long: "展示已有日程，读取需求（--request，或交互输入），调用模型生成新的一周日程并整体替换。\n" +
			"模型输出无法解析时，已有日程保持不变。",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			week, err := app.Plans.Schedule(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatter.FormatWeek("检测到以下已有日程，将自动纳入规划", week))

			req := strings.TrimSpace(request)
			if req == "" {
				if req, err = app.readRequest(ctx, out); err != nil {
					return err
				}
			} else {
				app.Logger.Info("request taken from flag, skipping interactive input")
			}

			res, err := withSpinner(ctx, app.interactive(), out, "正在调用模型规划本周日程…",
				func(ctx context.Context) (*service.ApplyResult, error) {
					return app.Plans.Apply(ctx, service.ApplyRequest{
						Request:      req,
						LongTermPlan: longTerm,
						Mode:         domain.PlanModeSmart,
					})
				})
			if err != nil {
				app.reportPlanFailure(ctx, out, err)
				return err
			}

			fmt.Fprint(out, "\n"+formatter.FormatRaw(res.Raw))
			fmt.Fprint(out, formatter.FormatSkipped(res.Skipped))
			fmt.Fprint(out, "\n"+formatter.FormatWeek("已更新的一周日程", res.Schedule))
			return nil
		},
	}

	cmd.Flags().StringVar(&request, "request", "", "planning request; prompts for input when empty")
	cmd.Flags().StringVar(&longTerm, "long-term", "", "long-term plan to store and include in the prompt")

	return cmd
}

// reportPlanFailure prints what went wrong, any raw model output and the
// week as it now stands in the store.
func (a *App) reportPlanFailure(ctx context.Context, out io.Writer, err error) {
	a.Logger.Error("plan failed", zap.Error(err))

	switch {
	case errors.Is(err, service.ErrModelCallFailed):
		fmt.Fprintln(out, formatter.StyleRed.Render("调用模型失败，请检查 ARK_API_KEY、网络和模型配置。"))
	case errors.Is(err, service.ErrPlanRejected):
		fmt.Fprintln(out, formatter.StyleRed.Render("未能解析模型输出为固定格式，请调整提示或稍后重试。"))
	case errors.Is(err, service.ErrStoreUnavailable):
		fmt.Fprintln(out, formatter.StyleRed.Render("读取或保存日程失败，请检查存储配置。"))
	default:
		fmt.Fprintln(out, formatter.StyleRed.Render("生成日程失败。"))
	}
	fmt.Fprintf(out, "错误信息：%v\n", err)

	if raw := service.RawOutput(err); raw != "" {
		fmt.Fprint(out, "\n"+formatter.FormatRaw(raw))
	}

	var week *domain.WeekSchedule
	var pe *service.PlanError
	if errors.As(err, &pe) && pe.Schedule != nil {
		week = pe.Schedule
	} else if loaded, loadErr := a.Plans.Schedule(ctx); loadErr == nil {
		week = loaded
	}
	if week != nil {
		fmt.Fprint(out, "\n"+formatter.FormatWeek("当前日程（未修改）", week))
	}
}
