package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "tempus/pkg/domain-errors"
	txcontext "tempus/pkg/platform/tx"
)

const defaultStoreTxTimeout = 5 * time.Second

// postgresStoreTx runs a function inside one database transaction. The
// transaction travels in the context, so every store touched by the
// function joins it; the worklog, approval, absence, and tenant services
// all accept this same adapter.
type postgresStoreTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newPostgresStoreTx(db *sql.DB) *postgresStoreTx {
	return &postgresStoreTx{db: db}
}

func (t *postgresStoreTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultStoreTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
