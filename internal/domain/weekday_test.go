package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWeekday(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
	}{
		{"周一", true},
		{"周日", true},
		{"星期一", false},
		{"周天", false},
		{" 周一", false},
		{"Monday", false},
		{"", false},
	}
	for _, tc := range cases {
		d, ok := ParseWeekday(tc.in)
		assert.Equal(t, tc.valid, ok, "input=%q", tc.in)
		if ok {
			assert.Equal(t, Weekday(tc.in), d)
		}
	}
}

func TestWeekdays_CanonicalOrder(t *testing.T) {
	days := Weekdays()
	assert.Len(t, days, 7)
	for i, d := range days {
		assert.Equal(t, i, d.Index())
	}
	assert.Equal(t, "Monday", days[0].English())
	assert.Equal(t, "Sunday", days[6].English())

	days[0] = "x"
	assert.Equal(t, Monday, Weekdays()[0], "callers get a copy")
}

func TestWeekdayTokenList(t *testing.T) {
	assert.Equal(t, "周一/周二/周三/周四/周五/周六/周日", WeekdayTokenList("/"))
}
