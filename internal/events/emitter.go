package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// InMemoryEventEmitter delivers events synchronously to handlers registered
// in process.
type InMemoryEventEmitter struct {
	mu       sync.RWMutex
	handlers []EventHandler
	logger   *slog.Logger
}

// NewInMemoryEventEmitter returns an emitter with no handlers.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		logger: logger.With(slog.String("component", "event_emitter")),
	}
}

// RegisterHandler subscribes handler to every event type.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	e.handlers = append(e.handlers, handler)
	n := len(e.handlers)
	e.mu.Unlock()

	e.logger.Debug("event handler registered", slog.Int("handler_count", n))
}

// EmitEvent hands event to every handler in registration order. A failing
// handler does not stop delivery; the first failure is returned.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	e.mu.RLock()
	handlers := append([]EventHandler(nil), e.handlers...)
	e.mu.RUnlock()

	log := e.logger.With(eventAttrs(event)...)
	log.DebugContext(ctx, "emitting event", slog.Int("handler_count", len(handlers)))

	var first error
	for i, h := range handlers {
		err := h.HandleEvent(ctx, event)
		if err == nil {
			continue
		}
		log.ErrorContext(ctx, "event handler failed",
			slog.Int("handler_index", i),
			slog.String("error", err.Error()))
		if first == nil {
			first = err
		}
	}
	return first
}

// LoggingHandler records every event at INFO.
type LoggingHandler struct {
	logger *slog.Logger
}

// NewLoggingHandler returns a LoggingHandler writing to logger.
func NewLoggingHandler(logger *slog.Logger) *LoggingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingHandler{logger: logger.With(slog.String("component", "event_log"))}
}

// HandleEvent implements EventHandler.
func (h *LoggingHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.logger.With(eventAttrs(event)...).
		InfoContext(ctx, "event", slog.String("payload", string(event.Payload)))
	return nil
}

// Emit publishes a new event of eventType and only logs failures. It is
// called after a transaction has committed, where a handler error must not
// undo the operation. A nil emitter is a no-op.
func Emit(ctx context.Context, emitter EventEmitter, logger *slog.Logger, eventType string, userID uuid.UUID, payload any) {
	if emitter == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	event, err := NewEvent(eventType, userID, payload)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if err := emitter.EmitEvent(ctx, event); err != nil {
		logger.WarnContext(ctx, "event delivery incomplete",
			slog.String("event_type", eventType),
			slog.String("event_id", event.ID),
			slog.String("error", err.Error()))
	}
}

func eventAttrs(event *Event) []any {
	return []any{
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type),
		slog.String("user_id", event.UserID.String()),
	}
}
