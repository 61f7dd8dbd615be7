package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// timeOfDayPattern is strict 24-hour HH:MM, zero padded.
var timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidTimeOfDay reports whether s is a strict HH:MM time of day (00:00-23:59).
func ValidTimeOfDay(s string) bool {
	return timeOfDayPattern.MatchString(s)
}

// Tag values the assistant uses to classify items. Tags are free-form; these
// are the ones the prompt suggests.
const (
	TagShortTerm = "短期提醒"
	TagLongTerm  = "长期习惯"
)

// ScheduleItem is one calendar entry. Empty Location, Notes and Tag mean
// the field is absent. Items are values and are not mutated after construction.
type ScheduleItem struct {
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Tag      string `json:"tag,omitempty"`
}

// NewScheduleItem builds an item after checking the title and time format.
// Start is not required to precede End.
func NewScheduleItem(title, start, end, location, notes, tag string) (ScheduleItem, error) {
	if strings.TrimSpace(title) == "" {
		return ScheduleItem{}, fmt.Errorf("title is required")
	}
	if !ValidTimeOfDay(start) {
		return ScheduleItem{}, fmt.Errorf("start %q is not a valid HH:MM time", start)
	}
	if !ValidTimeOfDay(end) {
		return ScheduleItem{}, fmt.Errorf("end %q is not a valid HH:MM time", end)
	}
	return ScheduleItem{
		Title:    title,
		Start:    start,
		End:      end,
		Location: location,
		Notes:    notes,
		Tag:      tag,
	}, nil
}

// Bullet renders the item as a single line:
// "start → end | title [| @location] [| (notes)] [| [tag]]".
func (it ScheduleItem) Bullet() string {
	parts := []string{it.Start + " → " + it.End, it.Title}
	if it.Location != "" {
		parts = append(parts, "@"+it.Location)
	}
	if it.Notes != "" {
		parts = append(parts, "("+it.Notes+")")
	}
	if it.Tag != "" {
		parts = append(parts, "["+it.Tag+"]")
	}
	return " - " + strings.Join(parts, " | ")
}

// IsLongTerm reports whether the item is tagged as a recurring habit.
func (it ScheduleItem) IsLongTerm() bool {
	return it.Tag == TagLongTerm || strings.EqualFold(it.Tag, "long-term habit")
}
