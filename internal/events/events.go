package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/phrazzld/studyquest/internal/domain"
)

// Event types published by the economy and the scheduler.
const (
	TypeTopicPurchased = "topic.purchased"
	TypeNobleClaimed   = "noble.claimed"
	TypeTopicsAdmitted = "topics.admitted"
)

// Event is a fact that already happened and has been committed.
type Event struct {
	// ID is a time-sortable unique identifier for this event
	ID string `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// UserID is the user the event concerns; uuid.Nil for system events
	UserID uuid.UUID `json:"user_id"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, userID uuid.UUID, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Event{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Type:      eventType,
		UserID:    userID,
		Payload:   payloadBytes,
		CreatedAt: now,
	}, nil
}

// TopicPurchased is the payload of TypeTopicPurchased.
type TopicPurchased struct {
	TopicID       uuid.UUID   `json:"topic_id"`
	TransactionID string      `json:"transaction_id"`
	Spent         domain.Gems `json:"spent"`
	Prestige      int         `json:"prestige"`
	DiscountGem   domain.Gem  `json:"discount_gem"`
}

// NobleClaimed is the payload of TypeNobleClaimed.
type NobleClaimed struct {
	NobleID  string `json:"noble_id"`
	Prestige int    `json:"prestige"`
}

// TopicsAdmitted is the payload of TypeTopicsAdmitted.
type TopicsAdmitted struct {
	TopicIDs []uuid.UUID `json:"topic_ids"`
	Today    int         `json:"today"`
	Cap      int         `json:"cap"`
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}
