package domain

import "strings"

// Weekday is one of the seven canonical day tokens a WeekSchedule is keyed by.
type Weekday string

const (
	Monday    Weekday = "周一"
	Tuesday   Weekday = "周二"
	Wednesday Weekday = "周三"
	Thursday  Weekday = "周四"
	Friday    Weekday = "周五"
	Saturday  Weekday = "周六"
	Sunday    Weekday = "周日"
)

var canonicalWeekdays = [...]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var englishWeekdays = map[Weekday]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

// Weekdays returns the canonical tokens in Monday..Sunday order.
func Weekdays() []Weekday {
	out := make([]Weekday, len(canonicalWeekdays))
	copy(out, canonicalWeekdays[:])
	return out
}

// ParseWeekday accepts a canonical token only. Surrounding whitespace is not
// trimmed: the wire contract requires the exact token.
func ParseWeekday(s string) (Weekday, bool) {
	d := Weekday(s)
	return d, d.Valid()
}

// Valid reports whether d is one of the seven canonical tokens.
func (d Weekday) Valid() bool {
	return d.Index() >= 0
}

// Index returns the 0-based position of d in the week (Monday = 0), or -1.
func (d Weekday) Index() int {
	for i, w := range canonicalWeekdays {
		if w == d {
			return i
		}
	}
	return -1
}

// English returns the English day name, used for display and exports only.
func (d Weekday) English() string {
	if name, ok := englishWeekdays[d]; ok {
		return name
	}
	return string(d)
}

// WeekdayTokenList joins the canonical tokens for use in prompts and messages.
func WeekdayTokenList(sep string) string {
	parts := make([]string, len(canonicalWeekdays))
	for i, d := range canonicalWeekdays {
		parts[i] = string(d)
	}
	return strings.Join(parts, sep)
}
