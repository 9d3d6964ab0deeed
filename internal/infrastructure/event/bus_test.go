package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hospital/backend/internal/domain/shared"
)

type recordingHandler struct {
	mu     sync.Mutex
	types  []string
	events []shared.DomainEvent
	err    error
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func (h *recordingHandler) seen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func testEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "Invoice", uuid.New(), uuid.New())
	return &e
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	t.Run("delivers to subscribed handler", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{"billing.invoice.created"}}
		bus.Subscribe(handler)

		err := bus.Publish(context.Background(), testEvent("billing.invoice.created"))

		require.NoError(t, err)
		assert.Equal(t, 1, handler.seen())
	})

	t.Run("skips handlers of other event types", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{"billing.invoice.created"}}
		bus.Subscribe(handler)

		err := bus.Publish(context.Background(), testEvent("billing.payment.received"))

		require.NoError(t, err)
		assert.Equal(t, 0, handler.seen())
	})

	t.Run("wildcard handler receives everything", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{}
		bus.Subscribe(handler)

		err := bus.Publish(context.Background(),
			testEvent("billing.invoice.created"),
			testEvent("insurance.claim.submitted"),
		)

		require.NoError(t, err)
		assert.Equal(t, 2, handler.seen())
	})

	t.Run("handler error is surfaced but other handlers still run", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		failing := &recordingHandler{types: []string{"billing.invoice.created"}, err: errors.New("boom")}
		healthy := &recordingHandler{types: []string{"billing.invoice.created"}}
		bus.Subscribe(failing)
		bus.Subscribe(healthy)

		err := bus.Publish(context.Background(), testEvent("billing.invoice.created"))

		require.Error(t, err)
		assert.Equal(t, 1, healthy.seen())
	})

	t.Run("unsubscribed handler no longer receives events", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{"billing.invoice.created"}}
		bus.Subscribe(handler)
		bus.Unsubscribe(handler)

		err := bus.Publish(context.Background(), testEvent("billing.invoice.created"))

		require.NoError(t, err)
		assert.Equal(t, 0, handler.seen())
	})
}
