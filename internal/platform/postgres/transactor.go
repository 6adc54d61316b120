package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/studyquest/internal/store"
)

// Transactor implements store.Transactor on a PostgreSQL connection pool.
// Every unit of work runs under the configured timeout.
type Transactor struct {
	db      *sqlx.DB
	timeout time.Duration
	stores  store.Stores
}

// NewTransactor builds the PostgreSQL stores around db.
func NewTransactor(db *sqlx.DB, timeout time.Duration, logger *slog.Logger) *Transactor {
	if db == nil {
		panic("db cannot be nil")
	}
	return &Transactor{
		db:      db,
		timeout: timeout,
		stores: store.Stores{
			Topics:       NewPostgresTopicStore(db, logger),
			Wallets:      NewPostgresWalletStore(db, logger),
			Stats:        NewPostgresUserStatsStore(db, logger),
			Transactions: NewPostgresTransactionStore(db, logger),
			ReviewLog:    NewPostgresReviewLogStore(db, logger),
			NobleClaims:  NewPostgresNobleClaimStore(db, logger),
		},
	}
}

var _ store.Transactor = (*Transactor)(nil)

// Stores implements store.Transactor.Stores
func (t *Transactor) Stores() store.Stores {
	return t.stores
}

// WithinTx implements store.Transactor.WithinTx
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) error {
	return store.RunInTransactionWithTimeout(ctx, t.db, t.timeout, func(ctx context.Context, tx *sqlx.Tx) error {
		return fn(ctx, store.Stores{
			Topics:       t.stores.Topics.WithTx(tx),
			Wallets:      t.stores.Wallets.WithTx(tx),
			Stats:        t.stores.Stats.WithTx(tx),
			Transactions: t.stores.Transactions.WithTx(tx),
			ReviewLog:    t.stores.ReviewLog.WithTx(tx),
			NobleClaims:  t.stores.NobleClaims.WithTx(tx),
		})
	})
}
