package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/studyquest/internal/platform/logger"
)

// TxFn is the body of a unit of work. Returning nil commits the
// transaction; any error rolls it back.
type TxFn func(ctx context.Context, tx *sqlx.Tx) error

// RunInTransaction runs fn inside a transaction on db. A panic in fn
// rolls the transaction back and is re-raised. Commit failures wrap
// ErrTransactionFailed.
func RunInTransaction(ctx context.Context, db *sqlx.DB, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		log.ErrorContext(ctx, "failed to begin transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			log.ErrorContext(ctx, "rollback after panic failed",
				slog.String("error", rbErr.Error()),
				slog.Any("panic", p))
		} else {
			log.ErrorContext(ctx, "transaction rolled back after panic", slog.Any("panic", p))
		}
		// ALLOW-PANIC: re-raising the caller's panic after rollback
		panic(p)
	}()

	if err := fn(ctx, tx); err != nil {
		return rollback(ctx, log, tx, err)
	}

	if err := tx.Commit(); err != nil {
		log.ErrorContext(ctx, "failed to commit transaction", slog.String("error", err.Error()))
		return fmt.Errorf("%w: failed to commit transaction: %w", ErrTransactionFailed, err)
	}
	log.DebugContext(ctx, "transaction committed")
	return nil
}

// rollback aborts tx after fn failed with cause. cause stays in the
// returned chain whether or not the rollback succeeds.
func rollback(ctx context.Context, log *slog.Logger, tx *sqlx.Tx, cause error) error {
	if rbErr := tx.Rollback(); rbErr != nil {
		log.ErrorContext(ctx, "failed to roll back transaction",
			slog.String("rollback_error", rbErr.Error()),
			slog.String("original_error", cause.Error()))
		return fmt.Errorf("error rolling back transaction: %v (original error: %w)", rbErr, cause)
	}
	log.DebugContext(ctx, "transaction rolled back", slog.String("error", cause.Error()))
	return cause
}

// RunInTransactionWithTimeout bounds RunInTransaction by timeout. Past the
// deadline the driver cancels the statement in flight and the transaction
// rolls back. A timeout of zero or less disables the bound.
func RunInTransactionWithTimeout(ctx context.Context, db *sqlx.DB, timeout time.Duration, fn TxFn) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return RunInTransaction(ctx, db, fn)
}
