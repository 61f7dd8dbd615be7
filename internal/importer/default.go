package importer

import (
	"go.uber.org/zap"

	"github.com/knightqmd/scheduler-app/internal/domain"
)

// DefaultWeek is the built-in demo week used when no schedule file is given.
func DefaultWeek(owner string) *domain.WeekSchedule {
	w := domain.NewWeekSchedule(owner)
	w.AddItem(domain.Monday, domain.ScheduleItem{Title: "团队例会", Start: "09:00", End: "10:00", Location: "会议室 A", Notes: "同步本周重点"})
	w.AddItem(domain.Monday, domain.ScheduleItem{Title: "产品评审", Start: "15:00", End: "16:00", Location: "线上会议"})
	w.AddItem(domain.Wednesday, domain.ScheduleItem{Title: "需求梳理", Start: "14:00", End: "15:30", Location: "会议室 B"})
	w.AddItem(domain.Friday, domain.ScheduleItem{Title: "一对一沟通", Start: "10:30", End: "11:00", Notes: "与直线经理"})
	w.AddItem(domain.Friday, domain.ScheduleItem{Title: "健身", Start: "18:00", End: "19:00"})
	return w
}

// LoadExisting returns the week from path, or the demo week when path is
// empty, unreadable or not a schedule document. Skipped entries are logged.
func LoadExisting(path, owner string, logger *zap.Logger) *domain.WeekSchedule {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		logger.Info("no schedule file configured, using demo week")
		return DefaultWeek(owner)
	}

	sf, err := LoadScheduleFile(path)
	if err != nil {
		logger.Warn("schedule file unusable, using demo week", zap.String("path", path), zap.Error(err))
		return DefaultWeek(owner)
	}

	week, warnings := Convert(sf, owner)
	for _, w := range warnings {
		logger.Warn("skipped schedule entry", zap.String("path", path), zap.Error(w))
	}
	logger.Info("loaded schedule file", zap.String("path", path), zap.Int("items", week.ItemCount()))
	return week
}
