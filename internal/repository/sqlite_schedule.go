package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/knightqmd/scheduler-app/internal/db"
	"github.com/knightqmd/scheduler-app/internal/domain"
)

const (
	metaFreeText     = "free_text"
	metaLongTermPlan = "long_term_plan"
)

// SQLiteScheduleStore implements ScheduleStore on the schedule_items and
// schedule_meta tables. Every operation runs in its own transaction.
type SQLiteScheduleStore struct {
	uow   db.UnitOfWork
	owner string
}

// NewSQLiteScheduleStore creates a store whose loaded weeks belong to owner.
func NewSQLiteScheduleStore(uow db.UnitOfWork, owner string) *SQLiteScheduleStore {
	return &SQLiteScheduleStore{uow: uow, owner: owner}
}

func (s *SQLiteScheduleStore) Load(ctx context.Context) (*domain.WeekSchedule, error) {
	week := domain.NewWeekSchedule(s.owner)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := readItems(ctx, tx, week); err != nil {
			return err
		}
		free, err := readMeta(ctx, tx, metaFreeText)
		if err != nil {
			return err
		}
		week.SetFreeText(free)
		plan, err := readMeta(ctx, tx, metaLongTermPlan)
		if err != nil {
			return err
		}
		week.LongTermPlan = plan
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading schedule: %w", err)
	}
	return week, nil
}

func (s *SQLiteScheduleStore) Save(ctx context.Context, week *domain.WeekSchedule) error {
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_items`); err != nil {
			return fmt.Errorf("clearing schedule items: %w", err)
		}

		query := `INSERT INTO schedule_items (position, day, start, end, title, location, notes, tag)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		pos := 0
		for _, ds := range week.Days() {
			for _, it := range ds.Items {
				pos++
				_, err := tx.ExecContext(ctx, query,
					pos,
					string(ds.Day),
					it.Start,
					it.End,
					it.Title,
					nullableString(it.Location),
					nullableString(it.Notes),
					nullableString(it.Tag),
				)
				if err != nil {
					return fmt.Errorf("inserting schedule item %d: %w", pos, err)
				}
			}
		}

		if err := writeMeta(ctx, tx, metaFreeText, week.FreeText); err != nil {
			return err
		}
		if plan := strings.TrimSpace(week.LongTermPlan); plan != "" {
			if err := writeMeta(ctx, tx, metaLongTermPlan, plan); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving schedule: %w", err)
	}
	return nil
}

func (s *SQLiteScheduleStore) GetLongTermPlan(ctx context.Context) (string, error) {
	var plan string
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		plan, err = readMeta(ctx, tx, metaLongTermPlan)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("loading long-term plan: %w", err)
	}
	return plan, nil
}

// SaveLongTermPlan stores the trimmed text; an empty text clears the plan.
func (s *SQLiteScheduleStore) SaveLongTermPlan(ctx context.Context, text string) error {
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return writeMeta(ctx, tx, metaLongTermPlan, strings.TrimSpace(text))
	})
	if err != nil {
		return fmt.Errorf("saving long-term plan: %w", err)
	}
	return nil
}

func readItems(ctx context.Context, tx db.DBTX, week *domain.WeekSchedule) error {
	query := `SELECT day, start, end, title, location, notes, tag
		FROM schedule_items ORDER BY position, id`
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("querying schedule items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day string
		var it domain.ScheduleItem
		var location, notes, tag sql.NullString
		if err := rows.Scan(&day, &it.Start, &it.End, &it.Title, &location, &notes, &tag); err != nil {
			return fmt.Errorf("scanning schedule item: %w", err)
		}
		it.Location = fromNullable(location)
		it.Notes = fromNullable(notes)
		it.Tag = fromNullable(tag)
		week.AddItem(domain.Weekday(day), it)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating schedule items: %w", err)
	}
	return nil
}

// readMeta returns "" when the key is absent.
func readMeta(ctx context.Context, tx db.DBTX, key string) (string, error) {
	var value sql.NullString
	err := tx.QueryRowContext(ctx, `SELECT value FROM schedule_meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return fromNullable(value), nil
}

// writeMeta replaces key; an empty value removes it.
func writeMeta(ctx context.Context, tx db.DBTX, key, value string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_meta WHERE key = ?`, key); err != nil {
		return fmt.Errorf("clearing %s: %w", key, err)
	}
	if value == "" {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schedule_meta (key, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}
