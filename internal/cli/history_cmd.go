package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/knightqmd/scheduler-app/internal/cli/formatter"
	"github.com/knightqmd/scheduler-app/internal/domain"
	"github.com/knightqmd/scheduler-app/internal/service"
)

// runLookupWindow is how many recent runs an ID prefix is matched against.
const runLookupWindow = 200

func newHistoryCmd(app *App) *cobra.Command {
	var limit int
	var id string

	cmd := &cobra.Command{
		Use:         "history",
		Short:       "查看最近的规划记录",
		Long:        "列出最近的规划记录；--id 显示单条记录的详情和模型原始输出（可用列表中的短 ID）。",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoBootstrap: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if id != "" {
				run, err := app.findRun(cmd.Context(), strings.TrimSpace(id))
				if err != nil {
					return err
				}
				fmt.Fprint(out, formatter.FormatRun(run, app.now()))
				return nil
			}

			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			runs, err := app.Plans.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatter.FormatRuns(runs, app.now()))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")
	cmd.Flags().StringVar(&id, "id", "", "Show one run by ID or unique ID prefix")

	return cmd
}

// findRun looks id up exactly, then as a prefix of a recent run's ID.
func (a *App) findRun(ctx context.Context, id string) (*domain.PlanRun, error) {
	run, err := a.Plans.Run(ctx, id)
	if !errors.Is(err, service.ErrRunNotFound) {
		return run, err
	}

	recent, herr := a.Plans.History(ctx, runLookupWindow)
	if herr != nil {
		return nil, herr
	}
	var match *domain.PlanRun
	for _, r := range recent {
		if !strings.HasPrefix(r.ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("run ID prefix %q is ambiguous", id)
		}
		match = r
	}
	if match == nil {
		return nil, err
	}
	return match, nil
}
