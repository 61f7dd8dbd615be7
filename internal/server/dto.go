package server

import (
	"time"

	"github.com/knightqmd/scheduler-app/internal/domain"
)

type planRequest struct {
	Request      string `json:"request"`
	Mode         string `json:"mode"`
	LongTermPlan string `json:"long_term_plan"`
}

// itemDTO always carries every field; absent values are "".
type itemDTO struct {
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
	Tag      string `json:"tag"`
}

type dayDTO struct {
	Day   string    `json:"day"`
	Items []itemDTO `json:"items"`
}

type scheduleDTO struct {
	Owner        string   `json:"owner"`
	Days         []dayDTO `json:"days"`
	FreeText     string   `json:"free_text"`
	LongTermPlan string   `json:"long_term_plan"`
	Rendered     string   `json:"rendered"`
}

type runDTO struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Request   string    `json:"request"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	ItemCount int       `json:"item_count"`
	Raw       string    `json:"raw"`
	CreatedAt time.Time `json:"created_at"`
}

func toScheduleDTO(w *domain.WeekSchedule) *scheduleDTO {
	if w == nil {
		return nil
	}
	days := make([]dayDTO, 0, 7)
	for _, ds := range w.Days() {
		items := make([]itemDTO, len(ds.Items))
		for i, it := range ds.Items {
			items[i] = itemDTO(it)
		}
		days = append(days, dayDTO{Day: string(ds.Day), Items: items})
	}
	return &scheduleDTO{
		Owner:        w.Owner,
		Days:         days,
		FreeText:     w.FreeText,
		LongTermPlan: w.LongTermPlan,
		Rendered:     w.Render(),
	}
}

func toRunDTO(r *domain.PlanRun) runDTO {
	return runDTO{
		ID:        r.ID,
		Mode:      string(r.Mode),
		Request:   r.Request,
		Status:    string(r.Status),
		Error:     r.Error,
		ItemCount: r.ItemCount,
		Raw:       r.Raw,
		CreatedAt: r.CreatedAt,
	}
}

func toRunDTOs(runs []*domain.PlanRun) []runDTO {
	out := make([]runDTO, len(runs))
	for i, r := range runs {
		out[i] = toRunDTO(r)
	}
	return out
}
