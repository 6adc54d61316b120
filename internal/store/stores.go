package store

import (
	"context"
)

// Stores bundles every store so a unit of work can be handed a consistent
// set bound to one transaction.
type Stores struct {
	Topics       TopicStore
	Wallets      WalletStore
	Stats        UserStatsStore
	Transactions TransactionStore
	ReviewLog    ReviewLogStore
	NobleClaims  NobleClaimStore
}

// Transactor runs units of work atomically.
type Transactor interface {
	// Stores returns stores bound to the underlying connection, for reads
	// that do not need to be part of a transaction.
	Stores() Stores

	// WithinTx runs fn with stores bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise, so
	// either every write made through the stores applies or none does.
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
