package testutil

import (
	"github.com/knightqmd/scheduler-app/internal/domain"
)

// Item options
type ItemOption func(*domain.ScheduleItem)

func WithLocation(loc string) ItemOption {
	return func(it *domain.ScheduleItem) {
		it.Location = loc
	}
}

func WithNotes(notes string) ItemOption {
	return func(it *domain.ScheduleItem) {
		it.Notes = notes
	}
}

func WithTag(tag string) ItemOption {
	return func(it *domain.ScheduleItem) {
		it.Tag = tag
	}
}

func NewTestItem(title, start, end string, opts ...ItemOption) domain.ScheduleItem {
	it := domain.ScheduleItem{Title: title, Start: start, End: end}
	for _, opt := range opts {
		opt(&it)
	}
	return it
}

// DayItem pairs an item with the day it belongs to.
type DayItem struct {
	Day  domain.Weekday
	Item domain.ScheduleItem
}

func At(day domain.Weekday, item domain.ScheduleItem) DayItem {
	return DayItem{Day: day, Item: item}
}

// NewTestWeek builds a week for owner, adding entries in order.
func NewTestWeek(owner string, entries ...DayItem) *domain.WeekSchedule {
	w := domain.NewWeekSchedule(owner)
	for _, e := range entries {
		w.AddItem(e.Day, e.Item)
	}
	return w
}
