package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knightqmd/scheduler-app/internal/domain"
	"github.com/knightqmd/scheduler-app/internal/testutil"
)

func TestWeekStart(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2026, 10, 15, 13, 30, 0, 0, loc), time.Date(2026, 10, 12, 0, 0, 0, 0, loc)}, // Thursday
		{time.Date(2026, 10, 12, 0, 0, 0, 0, loc), time.Date(2026, 10, 12, 0, 0, 0, 0, loc)},   // Monday
		{time.Date(2026, 10, 18, 23, 59, 0, 0, loc), time.Date(2026, 10, 12, 0, 0, 0, 0, loc)}, // Sunday
		{time.Date(2026, 11, 1, 8, 0, 0, 0, loc), time.Date(2026, 10, 26, 0, 0, 0, 0, loc)},    // across month
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeekStart(tt.in), tt.in.String())
	}
}

func TestWriteICS_Events(t *testing.T) {
	week := testutil.NewTestWeek("alice",
		testutil.At(domain.Wednesday, testutil.NewTestItem("评审", "14:00", "15:30",
			testutil.WithLocation("会议室 B"), testutil.WithNotes("带原型"))),
		testutil.At(domain.Monday, testutil.NewTestItem("健身", "18:00", "19:00", testutil.WithTag(domain.TagLongTerm))),
	)
	monday := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, week, monday))

	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	review := events[0]
	assert.Equal(t, "评审", review.GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "会议室 B", review.GetProperty(ics.ComponentPropertyLocation).Value)
	assert.Equal(t, "带原型", review.GetProperty(ics.ComponentPropertyDescription).Value)
	start, err := review.GetStartAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 14, 14, 0, 0, 0, time.UTC), start.UTC())
	end, err := review.GetEndAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC), end.UTC())
	assert.Nil(t, review.GetProperty(ics.ComponentPropertyRrule))

	gym := events[1]
	require.NotNil(t, gym.GetProperty(ics.ComponentPropertyRrule))
	assert.Equal(t, "FREQ=WEEKLY", gym.GetProperty(ics.ComponentPropertyRrule).Value)
	assert.Equal(t, domain.TagLongTerm, gym.GetProperty(ics.ComponentPropertyCategories).Value)
}

func TestWriteICS_EndBeforeStartRollsOver(t *testing.T) {
	week := testutil.NewTestWeek("u",
		testutil.At(domain.Sunday, testutil.NewTestItem("夜班", "22:00", "02:00")),
	)
	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, week, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)))

	cal, err := ics.ParseCalendar(&buf)
	require.NoError(t, err)
	end, err := cal.Events()[0].GetEndAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC), end.UTC())
}

func TestWriteICS_StableUIDs(t *testing.T) {
	week := testutil.NewTestWeek("u",
		testutil.At(domain.Friday, testutil.NewTestItem("总结", "17:00", "18:00")),
	)
	monday := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)

	uid := func() string {
		var buf bytes.Buffer
		require.NoError(t, WriteICS(&buf, week, monday))
		cal, err := ics.ParseCalendar(&buf)
		require.NoError(t, err)
		return cal.Events()[0].Id()
	}
	assert.Equal(t, uid(), uid())
}

func TestWriteICS_EmptyWeek(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, domain.NewWeekSchedule(""), time.Now()))
	assert.Contains(t, buf.String(), "BEGIN:VCALENDAR")
	assert.NotContains(t, buf.String(), "BEGIN:VEVENT")
}
