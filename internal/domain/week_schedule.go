package domain

import "strings"

// Render labels.
const (
	freeTextHeader    = "用户提供的日程描述："
	emptyWeekSentence = "当前一周暂无日程。"
	unscheduledHeader = "未指定日期："
)

// DaySchedule is the ordered item sequence of one day.
type DaySchedule struct {
	Day   Weekday        `json:"day"`
	Items []ScheduleItem `json:"items"`
}

// WeekSchedule is a week of items grouped by weekday, plus free text and the
// separately persisted long-term plan. Day buckets keep first-insertion order.
//
// A WeekSchedule is not safe for concurrent mutation; one planning cycle owns
// an instance at a time.
type WeekSchedule struct {
	Owner        string
	FreeText     string
	LongTermPlan string

	order       []Weekday
	days        map[Weekday][]ScheduleItem
	unscheduled []ScheduleItem
}

// NewWeekSchedule returns an empty week for owner.
func NewWeekSchedule(owner string) *WeekSchedule {
	return &WeekSchedule{Owner: owner, days: make(map[Weekday][]ScheduleItem)}
}

// AddItem appends item to day, creating the bucket when absent. The token is
// not validated here; callers validate upstream.
func (w *WeekSchedule) AddItem(day Weekday, item ScheduleItem) {
	if w.days == nil {
		w.days = make(map[Weekday][]ScheduleItem)
	}
	if _, ok := w.days[day]; !ok {
		w.order = append(w.order, day)
	}
	w.days[day] = append(w.days[day], item)
}

// SetFreeText stores the trimmed text, clearing the field when it is empty.
func (w *WeekSchedule) SetFreeText(text string) {
	w.FreeText = strings.TrimSpace(text)
}

// Days returns a copy of the non-empty day buckets in insertion order.
func (w *WeekSchedule) Days() []DaySchedule {
	out := make([]DaySchedule, 0, len(w.order))
	for _, d := range w.order {
		items := w.days[d]
		if len(items) == 0 {
			continue
		}
		cp := make([]ScheduleItem, len(items))
		copy(cp, items)
		out = append(out, DaySchedule{Day: d, Items: cp})
	}
	return out
}

// Items returns a copy of the items scheduled on day.
func (w *WeekSchedule) Items(day Weekday) []ScheduleItem {
	items := w.days[day]
	if len(items) == 0 {
		return nil
	}
	cp := make([]ScheduleItem, len(items))
	copy(cp, items)
	return cp
}

// ItemCount is the number of day-bucketed items.
func (w *WeekSchedule) ItemCount() int {
	n := 0
	for _, items := range w.days {
		n += len(items)
	}
	return n
}

// IsEmpty reports whether the week has no items of any kind and no free text.
func (w *WeekSchedule) IsEmpty() bool {
	return w.ItemCount() == 0 && len(w.unscheduled) == 0 && w.FreeText == ""
}

// ClearDays drops every day bucket.
func (w *WeekSchedule) ClearDays() {
	w.order = nil
	w.days = make(map[Weekday][]ScheduleItem)
	w.unscheduled = nil
}

// ReplaceDays clears all buckets and installs days in the given order.
func (w *WeekSchedule) ReplaceDays(days []DaySchedule) {
	w.ClearDays()
	for _, ds := range days {
		for _, it := range ds.Items {
			w.AddItem(ds.Day, it)
		}
	}
}

// Unscheduled returns items that carry no weekday (flat input schedules).
func (w *WeekSchedule) Unscheduled() []ScheduleItem {
	cp := make([]ScheduleItem, len(w.unscheduled))
	copy(cp, w.unscheduled)
	return cp
}

// Clone returns a deep copy of w.
func (w *WeekSchedule) Clone() *WeekSchedule {
	c := NewWeekSchedule(w.Owner)
	c.FreeText = w.FreeText
	c.LongTermPlan = w.LongTermPlan
	c.ReplaceDays(w.Days())
	c.unscheduled = w.Unscheduled()
	return c
}

// Render produces the deterministic human-readable view of the week: free
// text first, then each non-empty day in insertion order.
func (w *WeekSchedule) Render() string {
	var blocks []string
	if w.FreeText != "" {
		blocks = append(blocks, freeTextHeader, w.FreeText)
	}

	days := w.Days()
	if len(days) == 0 && len(w.unscheduled) == 0 {
		if len(blocks) > 0 {
			return strings.Join(blocks, "\n")
		}
		return emptyWeekSentence
	}

	blocks = append(blocks, "用户 "+w.Owner+" 一周日程：")
	for _, ds := range days {
		blocks = append(blocks, string(ds.Day)+"：")
		for _, it := range ds.Items {
			blocks = append(blocks, it.Bullet())
		}
	}
	if len(w.unscheduled) > 0 {
		blocks = append(blocks, unscheduledHeader)
		for _, it := range w.unscheduled {
			blocks = append(blocks, it.Bullet())
		}
	}
	return strings.Join(blocks, "\n")
}
