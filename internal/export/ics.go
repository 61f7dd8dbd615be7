package export

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/knightqmd/scheduler-app/internal/domain"
)

const productID = "-//weekplan//schedule export//ZH"

// WeekStart returns midnight of the Monday on or before t, in t's location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WriteICS writes the week as an iCalendar document. Each item becomes an
// event on the matching date of the week beginning at weekStart, interpreted
// in weekStart's location. Items tagged as long-term habits repeat weekly.
// An end time not after the start is taken to fall on the next day. Items
// without a weekday are not exported.
func WriteICS(w io.Writer, week *domain.WeekSchedule, weekStart time.Time) error {
	monday := WeekStart(weekStart)
	stamp := time.Now().UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if week.Owner != "" {
		cal.SetXWRCalName(week.Owner)
	}

	for _, ds := range week.Days() {
		date := monday.AddDate(0, 0, ds.Day.Index())
		for i, it := range ds.Items {
			start, err := atTime(date, it.Start)
			if err != nil {
				return fmt.Errorf("%s item %d: %w", ds.Day, i, err)
			}
			end, err := atTime(date, it.End)
			if err != nil {
				return fmt.Errorf("%s item %d: %w", ds.Day, i, err)
			}
			if !end.After(start) {
				end = end.AddDate(0, 0, 1)
			}

			key := fmt.Sprintf("%s|%s|%d|%s|%s", monday.Format("2006-01-02"), ds.Day, i, it.Start, it.Title)
			ev := cal.AddEvent(uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String() + "@weekplan")
			ev.SetDtStampTime(stamp)
			ev.SetStartAt(start)
			ev.SetEndAt(end)
			ev.SetSummary(it.Title)
			if it.Location != "" {
				ev.SetLocation(it.Location)
			}
			if it.Notes != "" {
				ev.SetDescription(it.Notes)
			}
			if it.Tag != "" {
				ev.SetProperty(ics.ComponentPropertyCategories, it.Tag)
			}
			if it.IsLongTerm() {
				ev.SetProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY")
			}
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}

func atTime(date time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil || !domain.ValidTimeOfDay(hhmm) {
		return time.Time{}, fmt.Errorf("invalid time %q", hhmm)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}
