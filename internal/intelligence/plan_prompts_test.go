package intelligence

import (
	"strings"
	"testing"

	"github.com/knightqmd/scheduler-app/internal/domain"
	"github.com/knightqmd/scheduler-app/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBuildPlanPrompt_Sections(t *testing.T) {
	week := testutil.NewTestWeek("alice",
		testutil.At(domain.Monday, testutil.NewTestItem("晨会", "09:00", "10:00")),
	)

	prompt := BuildPlanPrompt("周三下午加一次健身", week, "每天阅读 30 分钟")

	assert.Contains(t, prompt, "【用户需求】\n周三下午加一次健身")
	assert.Contains(t, prompt, "【已有日程】\n"+week.Render())
	assert.Contains(t, prompt, "【长期计划】\n每天阅读 30 分钟")
	assert.Contains(t, prompt, "【输出要求】")
	assert.Contains(t, prompt, "周一、周二、周三、周四、周五、周六、周日")
	assert.NotContains(t, prompt, "{{DAYS}}")

	req := strings.Index(prompt, "【用户需求】")
	existing := strings.Index(prompt, "【已有日程】")
	plan := strings.Index(prompt, "【长期计划】")
	contract := strings.Index(prompt, "【输出要求】")
	assert.True(t, req < existing && existing < plan && plan < contract)
}

func TestBuildPlanPrompt_OmitsBlankLongTermPlan(t *testing.T) {
	prompt := BuildPlanPrompt("整理日程", domain.NewWeekSchedule("bob"), "   ")
	assert.NotContains(t, prompt, "【长期计划】")
}

func TestBuildPlanPrompt_EmptyInputs(t *testing.T) {
	prompt := BuildPlanPrompt("", nil, "")
	assert.Contains(t, prompt, "当前一周暂无日程。")
	assert.Contains(t, prompt, "用户没有提出新的需求")
}

func TestBuildPlanPrompt_Deterministic(t *testing.T) {
	week := testutil.NewTestWeek("alice",
		testutil.At(domain.Friday, testutil.NewTestItem("总结", "17:00", "18:00", testutil.WithTag(domain.TagLongTerm))),
		testutil.At(domain.Tuesday, testutil.NewTestItem("课程", "08:00", "09:30", testutil.WithLocation("教室"))),
	)
	a := BuildPlanPrompt("req", week, "plan")
	b := BuildPlanPrompt("req", week, "plan")
	assert.Equal(t, a, b)
}
