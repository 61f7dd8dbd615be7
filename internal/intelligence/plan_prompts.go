package intelligence

import (
	"strings"

	"github.com/knightqmd/scheduler-app/internal/domain"
)

// PlanSystemPrompt is the assistant persona sent as the system message.
const PlanSystemPrompt = "你是一个专业的中文日程规划助手。"

const planRolePreamble = "你是一个日程规划助手。请根据用户的需求，结合已有日程，生成一整周（周一至周日）互不冲突的完整日程安排。" +
	"已有日程需要保留，确有冲突时可以合理调整；空闲时间可以插入新的任务。"

const planOutputContract = `【输出要求】
- 只输出一个 JSON 数组，数组之外不要输出任何文字、解释或 Markdown 代码块。
- 数组中的每个元素是一个对象，必须包含字段 day、start、end、title，可选字段 location、notes、tag。
- day 只能是以下之一：{{DAYS}}。
- start 和 end 使用 24 小时制 HH:MM 格式（例如 09:00），且 start 必须早于 end。
- tag 可选，取值为 "短期提醒" 或 "长期习惯"。
- 数组会整体替换本周日程：请输出完整的一周安排，包括需要保留的已有日程。
示例：
[{"day":"周一","start":"09:00","end":"10:30","title":"团队例会","location":"会议室 A","notes":"同步本周重点"}]`

// BuildPlanPrompt assembles the planning instruction from the user request,
// the current week and the optional long-term plan. It never fails: a nil
// week renders as an empty week and an empty request is stated as such.
func BuildPlanPrompt(userRequest string, week *domain.WeekSchedule, longTermPlan string) string {
	if week == nil {
		week = domain.NewWeekSchedule("")
	}

	var b strings.Builder
	b.WriteString(planRolePreamble)
	b.WriteString("\n\n【用户需求】\n")
	if strings.TrimSpace(userRequest) == "" {
		b.WriteString("（用户没有提出新的需求，请整理已有日程。）")
	} else {
		b.WriteString(userRequest)
	}

	b.WriteString("\n\n【已有日程】\n")
	b.WriteString(week.Render())

	if plan := strings.TrimSpace(longTermPlan); plan != "" {
		b.WriteString("\n\n【长期计划】\n")
		b.WriteString(plan)
		b.WriteString("\n请在本周安排中兼顾以上长期计划。")
	}

	b.WriteString("\n\n")
	b.WriteString(strings.Replace(planOutputContract, "{{DAYS}}", domain.WeekdayTokenList("、"), 1))
	return b.String()
}
