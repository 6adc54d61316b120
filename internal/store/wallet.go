package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/studyquest/internal/domain"
)

// WalletStore defines the interface for wallet persistence.
// Wallets are created lazily: reading a wallet that does not exist yet
// yields an empty one.
type WalletStore interface {
	// Get returns the user's wallet without locking it.
	Get(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)

	// GetForUpdate returns the user's wallet locked for the rest of the
	// enclosing transaction, creating an empty wallet row if needed.
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)

	// Save writes balances and prestige. The wallet must have been obtained
	// through GetForUpdate in the same transaction.
	// Returns ErrWalletNotFound if the row does not exist.
	Save(ctx context.Context, wallet *domain.Wallet) error

	// WithTx returns a new WalletStore instance that uses the provided transaction.
	WithTx(tx *sqlx.Tx) WalletStore
}
