package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/store"
)

const walletColumns = `user_id, ruby, sapphire, emerald, diamond, prestige, updated_at`

type walletRow struct {
	UserID uuid.UUID `db:"user_id"`
	domain.Gems
	Prestige  int       `db:"prestige"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r walletRow) toDomain() *domain.Wallet {
	return &domain.Wallet{
		UserID:    r.UserID,
		Balance:   r.Gems,
		Prestige:  r.Prestige,
		UpdatedAt: r.UpdatedAt,
	}
}

// PostgresWalletStore implements the store.WalletStore interface
// using a PostgreSQL database as the storage backend.
type PostgresWalletStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWalletStore creates a new PostgreSQL implementation of the WalletStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresWalletStore(db store.DBTX, logger *slog.Logger) *PostgresWalletStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresWalletStore{
		db:     db,
		logger: logger.With(slog.String("component", "wallet_store")),
	}
}

var _ store.WalletStore = (*PostgresWalletStore)(nil)

// Get implements store.WalletStore.Get
func (s *PostgresWalletStore) Get(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	var row walletRow
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	if err := sqlx.GetContext(ctx, s.db, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewWallet(userID), nil
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get wallet",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	return row.toDomain(), nil
}

// GetForUpdate implements store.WalletStore.GetForUpdate
func (s *PostgresWalletStore) GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	ensure := `
		INSERT INTO wallets (user_id, updated_at)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, ensure, userID, time.Now().UTC()); err != nil {
		log.Error("failed to ensure wallet exists",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	var row walletRow
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 FOR UPDATE`
	if err := sqlx.GetContext(ctx, s.db, &row, query, userID); err != nil {
		log.Error("failed to lock wallet",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	return row.toDomain(), nil
}

// Save implements store.WalletStore.Save
// A balance that would go negative is rejected with domain.ErrNegativeBalance,
// either by validation or by the table's CHECK constraints.
func (s *PostgresWalletStore) Save(ctx context.Context, wallet *domain.Wallet) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := wallet.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE wallets
		SET ruby = $1, sapphire = $2, emerald = $3, diamond = $4, prestige = $5, updated_at = $6
		WHERE user_id = $7
	`
	result, err := s.db.ExecContext(ctx, query,
		wallet.Balance.Ruby,
		wallet.Balance.Sapphire,
		wallet.Balance.Emerald,
		wallet.Balance.Diamond,
		wallet.Prestige,
		wallet.UpdatedAt.UTC(),
		wallet.UserID,
	)
	if err != nil {
		log.Error("failed to save wallet",
			slog.String("error", err.Error()),
			slog.String("user_id", wallet.UserID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrWalletNotFound)
}

// WithTx implements store.WalletStore.WithTx
func (s *PostgresWalletStore) WithTx(tx *sqlx.Tx) store.WalletStore {
	return &PostgresWalletStore{db: tx, logger: s.logger}
}
