package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventEmitter(t *testing.T) {
	// Create a minimal logger that discards output
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(discard)
		event, err := NewEvent(TypeNobleClaimed, uuid.New(), NobleClaimed{NobleID: "scholar", Prestige: 3})
		require.NoError(t, err)

		assert.NoError(t, emitter.EmitEvent(context.Background(), event))
	})

	t.Run("emit event with successful handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(discard)
		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event, err := NewEvent(TypeTopicsAdmitted, uuid.Nil, TopicsAdmitted{Today: 4, Cap: 10})
		require.NoError(t, err)

		assert.NoError(t, emitter.EmitEvent(context.Background(), event))
		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
		assert.Equal(t, event, handler1.LastEvent)
		assert.Equal(t, event, handler2.LastEvent)
	})

	t.Run("emit event with failing handler", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(discard)
		failingHandler := &MockEventHandler{HandlerError: errors.New("handler error")}
		successHandler := &MockEventHandler{}
		emitter.RegisterHandler(failingHandler)
		emitter.RegisterHandler(successHandler)

		event, err := NewEvent(TypeTopicPurchased, uuid.New(), TopicPurchased{})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		require.Error(t, err)
		assert.Equal(t, "handler error", err.Error())

		// A failing handler does not stop delivery to the others
		assert.Equal(t, 1, failingHandler.HandledCount)
		assert.Equal(t, 1, successHandler.HandledCount)
	})
}

func TestEmitLogsHandlerFailures(t *testing.T) {
	log, buf := logger.GetTestLogger(t)
	emitter := NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(&MockEventHandler{HandlerError: errors.New("downstream unavailable")})
	logging := NewLoggingHandler(log)
	emitter.RegisterHandler(logging)

	assert.NotPanics(t, func() {
		Emit(context.Background(), emitter, log, TypeNobleClaimed, uuid.New(), NobleClaimed{NobleID: "sage", Prestige: 4})
		Emit(context.Background(), nil, log, TypeNobleClaimed, uuid.New(), NobleClaimed{})
	})

	logger.AssertLogContains(t, buf, "downstream unavailable")
	logger.AssertLogContains(t, buf, `"event_type":"noble.claimed"`)
	logger.AssertLogContains(t, buf, `sage`)
}
