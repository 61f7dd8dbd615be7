package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/knightqmd/scheduler-app/internal/db"
	"github.com/knightqmd/scheduler-app/internal/domain"
)

// runTimeLayout has a fixed width so created_at sorts lexically.
const runTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// SQLitePlanRunRepo implements PlanRunRepo using a SQLite database.
type SQLitePlanRunRepo struct {
	db db.DBTX
}

// NewSQLitePlanRunRepo creates a new SQLitePlanRunRepo.
func NewSQLitePlanRunRepo(conn db.DBTX) *SQLitePlanRunRepo {
	return &SQLitePlanRunRepo{db: conn}
}

func (r *SQLitePlanRunRepo) Create(ctx context.Context, run *domain.PlanRun) error {
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := `INSERT INTO plan_runs (id, mode, request, long_term_plan, raw_output, status, error, item_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		string(run.Mode),
		run.Request,
		run.LongTermPlan,
		run.Raw,
		string(run.Status),
		run.Error,
		run.ItemCount,
		createdAt.UTC().Format(runTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting plan run: %w", err)
	}
	return nil
}

func (r *SQLitePlanRunRepo) GetByID(ctx context.Context, id string) (*domain.PlanRun, error) {
	query := `SELECT id, mode, request, long_term_plan, raw_output, status, error, item_count, created_at
		FROM plan_runs WHERE id = ?`
	run, err := scanPlanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("plan run: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning plan run: %w", err)
	}
	return run, nil
}

// ListRecent returns at most limit runs, newest first.
func (r *SQLitePlanRunRepo) ListRecent(ctx context.Context, limit int) ([]*domain.PlanRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, mode, request, long_term_plan, raw_output, status, error, item_count, created_at
		FROM plan_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing plan runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.PlanRun
	for rows.Next() {
		run, err := scanPlanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plan runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlanRun(row rowScanner) (*domain.PlanRun, error) {
	var run domain.PlanRun
	var mode, status, createdAt string
	err := row.Scan(
		&run.ID,
		&mode,
		&run.Request,
		&run.LongTermPlan,
		&run.Raw,
		&status,
		&run.Error,
		&run.ItemCount,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	run.Mode = domain.PlanMode(mode)
	run.Status = domain.PlanRunStatus(status)
	if t, err := time.Parse(runTimeLayout, createdAt); err == nil {
		run.CreatedAt = t
	}
	return &run, nil
}
