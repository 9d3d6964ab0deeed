package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/insurance"
	"github.com/hospital/backend/internal/domain/shared"
)

// EventSerializer handles JSON serialization of domain events. Deserialization
// needs the concrete Go type, so every event type crossing the outbox must be
// registered first.
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates a new event serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{
		registry: make(map[string]reflect.Type),
	}
}

// NewRevenueCycleSerializer creates a serializer with all billing and
// insurance event types pre-registered
func NewRevenueCycleSerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(billing.EventTypeInvoiceCreated, &billing.InvoiceCreatedEvent{})
	s.Register(billing.EventTypeInvoiceItemAdded, &billing.InvoiceItemAddedEvent{})
	s.Register(billing.EventTypeInvoiceCancelled, &billing.InvoiceCancelledEvent{})
	s.Register(billing.EventTypePaymentReceived, &billing.PaymentReceivedEvent{})
	s.Register(billing.EventTypeInvoicePaid, &billing.InvoicePaidEvent{})
	s.Register(billing.EventTypeWriteOffRequested, &billing.WriteOffRequestedEvent{})
	s.Register(billing.EventTypeWriteOffApproved, &billing.WriteOffApprovedEvent{})
	s.Register(billing.EventTypeWriteOffRejected, &billing.WriteOffRejectedEvent{})
	s.Register(insurance.EventTypeClaimSubmitted, &insurance.ClaimSubmittedEvent{})
	s.Register(insurance.EventTypeClaimStatusChanged, &insurance.ClaimStatusChangedEvent{})
	s.Register(insurance.EventTypeClaimAppealCreated, &insurance.ClaimAppealCreatedEvent{})
	s.Register(insurance.EventTypeClaimAppealSubmitted, &insurance.ClaimAppealSubmittedEvent{})
	return s
}

// Register registers an event type for deserialization.
// The eventType must match what EventType() returns on the event.
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(eventInstance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize serializes a domain event to JSON bytes
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Deserialize deserializes JSON bytes into the registered concrete event type
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	eventPtr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, eventPtr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	event, ok := eventPtr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("deserialized object does not implement DomainEvent")
	}
	return event, nil
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}
