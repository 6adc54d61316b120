package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ReviewEntry records one scheduler-driven stage transition. Entries are
// append-only.
type ReviewEntry struct {
	ID        string    `json:"id"`
	TopicID   uuid.UUID `json:"topic_id"`
	UserID    uuid.UUID `json:"user_id"`
	FromStage Stage     `json:"from_stage"`
	ToStage   Stage     `json:"to_stage"`
	CreatedAt time.Time `json:"created_at"`
}

// NewReviewEntry builds an entry for a transition of topic t at the given time.
func NewReviewEntry(t *Topic, to Stage, at time.Time) *ReviewEntry {
	return &ReviewEntry{
		ID:        ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
		TopicID:   t.ID,
		UserID:    t.UserID,
		FromStage: t.Stage,
		ToStage:   to,
		CreatedAt: at.UTC(),
	}
}

// TransactionKind distinguishes purchase debits from noble rewards.
type TransactionKind string

const (
	TransactionPurchase TransactionKind = "purchase"
	TransactionNoble    TransactionKind = "noble"
)

// Transaction is an immutable record of a wallet-affecting event.
type Transaction struct {
	ID        string          `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Kind      TransactionKind `json:"kind"`
	TopicID   *uuid.UUID      `json:"topic_id,omitempty"`
	NobleID   string          `json:"noble_id,omitempty"`
	Spent     Gems            `json:"spent"`
	Prestige  int             `json:"prestige"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewPurchaseTransaction records a topic purchase.
func NewPurchaseTransaction(userID, topicID uuid.UUID, spent Gems, prestige int, at time.Time) *Transaction {
	return &Transaction{
		ID:        ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
		UserID:    userID,
		Kind:      TransactionPurchase,
		TopicID:   &topicID,
		Spent:     spent,
		Prestige:  prestige,
		CreatedAt: at.UTC(),
	}
}

// NewNobleTransaction records a noble reward.
func NewNobleTransaction(userID uuid.UUID, nobleID string, prestige int, at time.Time) *Transaction {
	return &Transaction{
		ID:        ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
		UserID:    userID,
		Kind:      TransactionNoble,
		NobleID:   nobleID,
		Prestige:  prestige,
		CreatedAt: at.UTC(),
	}
}
