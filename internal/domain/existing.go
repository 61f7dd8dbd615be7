package domain

// ExistingSchedule is the schedule context handed to a planning call. It is
// either a flat list of items with no weekday attached or a day-grouped week.
// Normalize turns both into a *WeekSchedule.
type ExistingSchedule struct {
	owner string
	flat  []ScheduleItem
	week  *WeekSchedule
}

// FlatSchedule wraps items that carry no weekday.
func FlatSchedule(owner string, items []ScheduleItem) ExistingSchedule {
	cp := make([]ScheduleItem, len(items))
	copy(cp, items)
	return ExistingSchedule{owner: owner, flat: cp}
}

// GroupedSchedule wraps a day-grouped week.
func GroupedSchedule(week *WeekSchedule) ExistingSchedule {
	return ExistingSchedule{week: week}
}

// IsFlat reports whether the schedule was built from a flat item list.
func (e ExistingSchedule) IsFlat() bool {
	return e.week == nil
}

// Normalize returns the day-grouped form. Flat items are kept in the week's
// unscheduled section rather than assigned an invented weekday. The returned
// week is a copy; mutating it does not affect the source.
func (e ExistingSchedule) Normalize() *WeekSchedule {
	if e.week != nil {
		return e.week.Clone()
	}
	w := NewWeekSchedule(e.owner)
	w.unscheduled = append(w.unscheduled, e.flat...)
	return w
}
