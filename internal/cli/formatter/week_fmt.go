package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/xlab/treeprint"

	"github.com/knightqmd/scheduler-app/internal/domain"
	"github.com/knightqmd/scheduler-app/internal/intelligence"
)

// FormatWeek renders the week in a titled box: free text, each non-empty day
// in stored order, unscheduled items and the long-term plan.
func FormatWeek(title string, week *domain.WeekSchedule) string {
	var b strings.Builder

	if week.FreeText != "" {
		b.WriteString(Dim("用户提供的日程描述："))
		b.WriteString("\n")
		b.WriteString(week.FreeText)
		b.WriteString("\n\n")
	}

	days := week.Days()
	unscheduled := week.Unscheduled()
	if len(days) == 0 && len(unscheduled) == 0 {
		b.WriteString(Dim("当前一周暂无日程。"))
		b.WriteString("\n")
	}
	for _, ds := range days {
		b.WriteString(StyleYellow.Render(string(ds.Day)))
		b.WriteString(Dim("  " + ds.Day.English()))
		b.WriteString("\n")
		for _, it := range ds.Items {
			b.WriteString("  " + itemLine(it) + "\n")
		}
	}
	if len(unscheduled) > 0 {
		b.WriteString(StyleYellow.Render("未指定日期"))
		b.WriteString("\n")
		for _, it := range unscheduled {
			b.WriteString("  " + itemLine(it) + "\n")
		}
	}

	if week.LongTermPlan != "" {
		b.WriteString("\n")
		b.WriteString(StylePurple.Render("长期计划"))
		b.WriteString("\n")
		b.WriteString(week.LongTermPlan)
		b.WriteString("\n")
	}

	return RenderBox(title, strings.TrimRight(b.String(), "\n")) + "\n"
}

func itemLine(it domain.ScheduleItem) string {
	parts := []string{
		StyleGreen.Render(it.Start + "–" + it.End),
		Bold(it.Title),
	}
	if it.Location != "" {
		parts = append(parts, StyleBlue.Render("@"+it.Location))
	}
	if it.Notes != "" {
		parts = append(parts, Dim("("+it.Notes+")"))
	}
	if badge := TagBadge(it); badge != "" {
		parts = append(parts, badge)
	}
	return strings.Join(parts, " ")
}

// FormatWeekTree renders the week as a plain tree rooted at the owner.
func FormatWeekTree(week *domain.WeekSchedule) string {
	tree := treeprint.NewWithRoot(week.Owner + " 一周日程")
	for _, ds := range week.Days() {
		branch := tree.AddBranch(string(ds.Day))
		for _, it := range ds.Items {
			branch.AddNode(strings.TrimPrefix(it.Bullet(), " - "))
		}
	}
	if unscheduled := week.Unscheduled(); len(unscheduled) > 0 {
		branch := tree.AddBranch("未指定日期")
		for _, it := range unscheduled {
			branch.AddNode(strings.TrimPrefix(it.Bullet(), " - "))
		}
	}
	if week.FreeText != "" {
		tree.AddMetaNode("free_text", Truncate(week.FreeText, 60))
	}
	if week.LongTermPlan != "" {
		tree.AddMetaNode("long_term_plan", Truncate(week.LongTermPlan, 60))
	}
	return tree.String()
}

// FormatRaw renders the model's raw output under a header, verbatim.
func FormatRaw(raw string) string {
	return Header("模型返回（原始）") + "\n" + strings.TrimSpace(raw) + "\n"
}

// FormatSkipped lists entries the parser dropped.
func FormatSkipped(skipped []intelligence.SkippedEntry) string {
	if len(skipped) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleYellow.Render(fmt.Sprintf("已跳过 %d 条无效条目：", len(skipped))))
	b.WriteString("\n")
	for _, s := range skipped {
		b.WriteString(fmt.Sprintf("  #%d %s %s\n", s.Index, s.Reason, Dim(s.Detail)))
	}
	return b.String()
}

// FormatRuns renders plan runs as a table, newest first as given.
func FormatRuns(runs []*domain.PlanRun, now time.Time) string {
	if len(runs) == 0 {
		return Dim("暂无规划记录。") + "\n"
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		subject := r.Request
		if subject == "" {
			subject = r.LongTermPlan
		}
		rows = append(rows, []string{
			TruncID(r.ID),
			HumanTimestamp(r.CreatedAt, now),
			string(r.Mode),
			RunStatusPill(r.Status),
			fmt.Sprintf("%d", r.ItemCount),
			Truncate(subject, 40),
		})
	}
	return RenderTable([]string{"ID", "WHEN", "MODE", "STATUS", "ITEMS", "REQUEST"}, rows)
}

// FormatRun shows one recorded attempt in full.
func FormatRun(r *domain.PlanRun, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Bold(r.ID), RunStatusPill(r.Status))
	fmt.Fprintf(&b, "%s %s (%s)\n", Dim("时间："), HumanTimestamp(r.CreatedAt, now), r.Mode)
	if r.Request != "" {
		fmt.Fprintf(&b, "%s %s\n", Dim("需求："), r.Request)
	}
	if r.LongTermPlan != "" {
		fmt.Fprintf(&b, "%s %s\n", Dim("长期计划："), r.LongTermPlan)
	}
	fmt.Fprintf(&b, "%s %d\n", Dim("条目："), r.ItemCount)
	if r.Error != "" {
		fmt.Fprintf(&b, "%s %s\n", Dim("错误："), StyleRed.Render(r.Error))
	}
	if strings.TrimSpace(r.Raw) != "" {
		b.WriteString("\n" + FormatRaw(r.Raw))
	}
	return b.String()
}
