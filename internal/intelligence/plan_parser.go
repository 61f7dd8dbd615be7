package intelligence

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/knightqmd/scheduler-app/internal/domain"
	"github.com/knightqmd/scheduler-app/internal/llm"
)

// ExtractionMode selects how the JSON array is located in model output.
type ExtractionMode string

const (
	// ExtractGreedy takes everything from the first '[' to the last ']'.
	ExtractGreedy ExtractionMode = "greedy"
	// ExtractBalanced takes the first balanced '[...]' span, ignoring
	// brackets inside JSON strings.
	ExtractBalanced ExtractionMode = "balanced"
)

// ParseExtractionMode maps a config value to a mode. Empty means greedy.
func ParseExtractionMode(s string) (ExtractionMode, error) {
	switch ExtractionMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExtractGreedy:
		return ExtractGreedy, nil
	case ExtractBalanced:
		return ExtractBalanced, nil
	default:
		return "", fmt.Errorf("unknown extraction mode %q (want greedy or balanced)", s)
	}
}

// ParseOptions tunes ParsePlan. The zero value is greedy extraction.
type ParseOptions struct {
	Extraction ExtractionMode
}

// SkipReason says why a single entry was dropped.
type SkipReason string

const (
	SkipMissingField SkipReason = "missing_field"
	SkipInvalidDay   SkipReason = "invalid_day"
	SkipInvalidTime  SkipReason = "invalid_time"
)

// SkippedEntry is the diagnostic for one dropped array element.
type SkippedEntry struct {
	Index  int        `json:"index"`
	Reason SkipReason `json:"reason"`
	Fields []string   `json:"fields,omitempty"`
	Detail string     `json:"detail"`
}

// ParsedPlan is the validated result: items grouped per day in the order
// they appeared, ready to replace a week's day buckets.
type ParsedPlan struct {
	Days    []domain.DaySchedule
	Skipped []SkippedEntry
}

// ItemCount is the number of accepted items.
func (p *ParsedPlan) ItemCount() int {
	n := 0
	for _, d := range p.Days {
		n += len(d.Items)
	}
	return n
}

// planEntry holds the required fields of one element after coercion.
type planEntry struct {
	Day   string `json:"day" validate:"required,weekday"`
	Start string `json:"start" validate:"required,hhmm"`
	End   string `json:"end" validate:"required,hhmm"`
	Title string `json:"title" validate:"required"`
}

var entryValidator = newEntryValidator()

func newEntryValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return domain.Weekday(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return domain.ValidTimeOfDay(fl.Field().String())
	})
	return v
}

// ParsePlan extracts and validates the schedule array in raw model output.
// Individual bad entries are skipped and reported in Skipped; the call fails
// with a *PlanRejectedError only when no array is found, it does not decode,
// it is not a list, or no entry survives validation.
func ParsePlan(raw string, opts ParseOptions) (*ParsedPlan, error) {
	text := llm.StripCodeFences(raw)

	var span string
	if opts.Extraction == ExtractBalanced {
		span = llm.BalancedSpan(text, '[', ']')
	} else {
		span = llm.GreedySpan(text, '[', ']')
	}
	if span == "" {
		return nil, newRejected(RejectNoArrayFound, "", nil)
	}

	value, err := decodeJSON(span)
	if err != nil {
		return nil, newRejected(RejectMalformedJSON, err.Error(), err)
	}

	elems, ok := value.([]any)
	if !ok {
		return nil, newRejected(RejectNotAList, fmt.Sprintf("got %T", value), nil)
	}

	acc := domain.NewWeekSchedule("")
	var skipped []SkippedEntry
	for i, elem := range elems {
		obj, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		item, day, skip := validateEntry(i, obj)
		if skip != nil {
			skipped = append(skipped, *skip)
			continue
		}
		acc.AddItem(day, item)
	}

	if acc.ItemCount() == 0 {
		rej := newRejected(RejectEmptyResult, fmt.Sprintf("%d elements, none valid", len(elems)), nil)
		rej.Skipped = skipped
		return nil, rej
	}
	return &ParsedPlan{Days: acc.Days(), Skipped: skipped}, nil
}

// decodeJSON parses exactly one JSON value. Numbers stay json.Number so they
// can be rendered back as written.
func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid character after top-level value")
	}
	return v, nil
}

func validateEntry(index int, obj map[string]any) (domain.ScheduleItem, domain.Weekday, *SkippedEntry) {
	e := planEntry{
		Day:   fieldString(obj["day"]),
		Start: fieldString(obj["start"]),
		End:   fieldString(obj["end"]),
		Title: fieldString(obj["title"]),
	}

	if err := entryValidator.Struct(e); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.ScheduleItem{}, "", &SkippedEntry{Index: index, Reason: SkipMissingField, Detail: err.Error()}
		}
		return domain.ScheduleItem{}, "", classifySkip(index, e, verrs)
	}

	item := domain.ScheduleItem{
		Title:    e.Title,
		Start:    e.Start,
		End:      e.End,
		Location: optionalString(obj["location"]),
		Notes:    optionalString(obj["notes"]),
		Tag:      optionalString(obj["tag"]),
	}
	return item, domain.Weekday(e.Day), nil
}

// classifySkip reports the most basic failure: missing fields first, then the
// day token, then the times.
func classifySkip(index int, e planEntry, verrs validator.ValidationErrors) *SkippedEntry {
	var missing, badTime []string
	badDay := false
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			missing = append(missing, fe.Field())
		case "weekday":
			badDay = true
		case "hhmm":
			badTime = append(badTime, fe.Field())
		}
	}

	switch {
	case len(missing) > 0:
		return &SkippedEntry{Index: index, Reason: SkipMissingField, Fields: missing,
			Detail: "missing " + strings.Join(missing, ", ")}
	case badDay:
		return &SkippedEntry{Index: index, Reason: SkipInvalidDay, Fields: []string{"day"},
			Detail: fmt.Sprintf("illegal day %q", e.Day)}
	default:
		return &SkippedEntry{Index: index, Reason: SkipInvalidTime, Fields: badTime,
			Detail: fmt.Sprintf("illegal time %q-%q", e.Start, e.End)}
	}
}

// fieldString renders a decoded JSON value as a field string. Values that
// count as absent yield "": null, "", whitespace, false, zero and empty
// arrays or objects.
func fieldString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		if strings.TrimSpace(x) == "" {
			return ""
		}
		return x
	case bool:
		if !x {
			return ""
		}
		return "true"
	case json.Number:
		if f, err := x.Float64(); err == nil && f == 0 {
			return ""
		}
		return x.String()
	case []any:
		if len(x) == 0 {
			return ""
		}
	case map[string]any:
		if len(x) == 0 {
			return ""
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func optionalString(v any) string {
	return fieldString(v)
}
