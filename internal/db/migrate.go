package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are re-run on every open,
// so each one must be idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN is not idempotent in SQLite.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillPositions(db); err != nil {
		return fmt.Errorf("backfilling item positions: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS schedule_items (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		day      TEXT NOT NULL,
		start    TEXT NOT NULL,
		end      TEXT NOT NULL,
		title    TEXT NOT NULL,
		location TEXT,
		notes    TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS schedule_meta (
		key   TEXT PRIMARY KEY,
		value TEXT
	)`,

	// Databases written before tags existed lack the column.
	`ALTER TABLE schedule_items ADD COLUMN tag TEXT`,

	// position records the global insertion order so a load reproduces day
	// order and item order exactly.
	`ALTER TABLE schedule_items ADD COLUMN position INTEGER NOT NULL DEFAULT 0`,
	`CREATE INDEX IF NOT EXISTS idx_schedule_items_position ON schedule_items(position)`,

	`CREATE TABLE IF NOT EXISTS plan_runs (
		id             TEXT PRIMARY KEY,
		mode           TEXT NOT NULL CHECK(mode IN ('smart','save')),
		request        TEXT NOT NULL DEFAULT '',
		long_term_plan TEXT NOT NULL DEFAULT '',
		raw_output     TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL
		               CHECK(status IN ('applied','rejected','model_failed','store_failed','saved')),
		error          TEXT NOT NULL DEFAULT '',
		item_count     INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_plan_runs_created ON plan_runs(created_at)`,
}

// migrateBackfillPositions gives rows written without a position column their
// rowid as position, which is the order they were inserted in.
// Idempotent: a week saved by this version never has two rows at position 0.
func migrateBackfillPositions(db *sql.DB) error {
	ctx := context.Background()

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedule_items WHERE position = 0`).Scan(&count); err != nil {
		return fmt.Errorf("counting unpositioned items: %w", err)
	}
	if count < 2 {
		return nil
	}

	if _, err := db.ExecContext(ctx, `UPDATE schedule_items SET position = id WHERE position = 0`); err != nil {
		return fmt.Errorf("updating positions: %w", err)
	}
	return nil
}
