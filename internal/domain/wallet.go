package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a user's gem balances and accumulated prestige.
type Wallet struct {
	UserID    uuid.UUID `json:"user_id"`
	Balance   Gems      `json:"balance"`
	Prestige  int       `json:"prestige"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWallet returns an empty wallet for the user.
func NewWallet(userID uuid.UUID) *Wallet {
	return &Wallet{UserID: userID, UpdatedAt: time.Now().UTC()}
}

// Debit removes cost from the balance. The wallet is left untouched and
// ErrNegativeBalance returned when any currency would go below zero.
func (w *Wallet) Debit(cost Gems) error {
	next := w.Balance.Sub(cost)
	if next.IsNegative() {
		return ErrNegativeBalance
	}
	w.Balance = next
	return nil
}

// Credit adds gems to the balance.
func (w *Wallet) Credit(gems Gems) {
	w.Balance = w.Balance.Add(gems)
}

// Validate checks the non-negative balance invariant.
func (w *Wallet) Validate() error {
	if w.UserID == uuid.Nil {
		return NewValidationError("user_id", "cannot be empty", ErrInvalidID)
	}
	if w.Balance.IsNegative() || w.Prestige < 0 {
		return ErrNegativeBalance
	}
	return nil
}
