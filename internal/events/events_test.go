package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	userID := uuid.New()
	payload := TopicPurchased{
		TopicID:     uuid.New(),
		Spent:       domain.Gems{Ruby: 2, Sapphire: 1},
		Prestige:    2,
		DiscountGem: domain.GemEmerald,
	}

	event, err := NewEvent(TypeTopicPurchased, userID, payload)

	require.NoError(t, err)
	_, err = ulid.ParseStrict(event.ID)
	assert.NoError(t, err, "event IDs are ULIDs")
	assert.Equal(t, TypeTopicPurchased, event.Type)
	assert.Equal(t, userID, event.UserID)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded TopicPurchased
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewEventRejectsUnencodablePayload(t *testing.T) {
	_, err := NewEvent(TypeNobleClaimed, uuid.New(), make(chan int))
	assert.Error(t, err)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	// The last event received by this handler
	LastEvent *Event
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}
