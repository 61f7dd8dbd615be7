package importer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/knightqmd/scheduler-app/internal/domain"
)

// Convert builds a week from a decoded file. Entries that cannot become a
// valid item are skipped and reported; the returned week is never nil. Days
// are added in Monday..Sunday order.
func Convert(sf *ScheduleFile, owner string) (*domain.WeekSchedule, []error) {
	week := domain.NewWeekSchedule(owner)
	week.SetFreeText(sf.FreeText)

	var warnings []error
	for _, token := range sortedDayTokens(sf.Days) {
		day, ok := domain.ParseWeekday(token)
		if !ok {
			warnings = append(warnings, fmt.Errorf("days.%s: unknown day, skipped", token))
			continue
		}
		entries, ok := sf.Days[token].([]any)
		if !ok {
			warnings = append(warnings, fmt.Errorf("days.%s: expected a list of items", token))
			continue
		}
		for i, raw := range entries {
			item, err := convertEntry(raw)
			if err != nil {
				warnings = append(warnings, fmt.Errorf("days.%s[%d]: %w", token, i, err))
				continue
			}
			week.AddItem(day, item)
		}
	}
	return week, warnings
}

func convertEntry(raw any) (domain.ScheduleItem, error) {
	entry, ok := raw.(map[string]any)
	if !ok {
		return domain.ScheduleItem{}, fmt.Errorf("expected an object, got %T", raw)
	}

	var missing []string
	for _, key := range []string{"title", "start", "end"} {
		if scalarString(entry[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return domain.ScheduleItem{}, fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}

	return domain.NewScheduleItem(
		scalarString(entry["title"]),
		scalarString(entry["start"]),
		scalarString(entry["end"]),
		scalarString(entry["location"]),
		scalarString(entry["notes"]),
		scalarString(entry["tag"]),
	)
}

// sortedDayTokens lists canonical days first in week order, then any other
// keys alphabetically so their warnings come out deterministically.
func sortedDayTokens(days map[string]any) []string {
	tokens := make([]string, 0, len(days))
	for k := range days {
		tokens = append(tokens, k)
	}
	sort.Slice(tokens, func(i, j int) bool {
		a, b := domain.Weekday(tokens[i]).Index(), domain.Weekday(tokens[j]).Index()
		switch {
		case a >= 0 && b >= 0:
			return a < b
		case a >= 0 || b >= 0:
			return a >= 0
		default:
			return tokens[i] < tokens[j]
		}
	})
	return tokens
}

// scalarString renders a decoded JSON or YAML scalar. Null, empty strings
// and non-scalars yield "".
func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case int, int64, float64, bool:
		return fmt.Sprint(x)
	default:
		return ""
	}
}
