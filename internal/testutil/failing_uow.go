package testutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/knightqmd/scheduler-app/internal/db"
)

// FailOnNthExecUoW is a UnitOfWork whose transactions fail the Nth
// ExecContext call with Err, then roll back. A schedule save issues one
// delete, one insert per item and then the meta writes, so FailOn picks the
// exact write that breaks. Counting starts at 1 in every transaction; reads
// are not counted.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(ctx, &failingTx{DBTX: tx, failOn: u.FailOn, err: u.Err}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// failingTx is confined to one callback, so the counter needs no locking.
type failingTx struct {
	db.DBTX
	execs  int
	failOn int
	err    error
}

func (f *failingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.execs++
	if f.execs == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
