package event

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/insurance"
	"github.com/hospital/backend/internal/domain/shared"
)

func newObservedNotificationHandler() (*NotificationHandler, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	return NewNotificationHandler(zap.New(core)), logs
}

func TestNotificationHandler_EventTypes(t *testing.T) {
	handler := NewNotificationHandler(zap.NewNop())

	types := handler.EventTypes()
	assert.Contains(t, types, billing.EventTypeInvoiceCreated)
	assert.Contains(t, types, billing.EventTypeInvoicePaid)
	assert.Contains(t, types, billing.EventTypeWriteOffRequested)
	assert.Contains(t, types, insurance.EventTypeClaimStatusChanged)
	assert.Contains(t, types, insurance.EventTypeClaimAppealCreated)
}

func TestNotificationHandler_InvoiceCreated(t *testing.T) {
	handler, logs := newObservedNotificationHandler()
	patientID := uuid.New()

	event := &billing.InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(billing.EventTypeInvoiceCreated, billing.AggregateTypeInvoice, uuid.New(), uuid.New()),
		InvoiceNumber:   "INV-20260115-00001",
		PatientID:       patientID,
		PayerType:       billing.PayerTypePatient,
		ServiceDay:      time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		TotalAmount:     decimal.Zero,
	}

	require.NoError(t, handler.Handle(context.Background(), event))

	entries := logs.FilterMessage("invoice opened").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "INV-20260115-00001", fields["invoice_number"])
	assert.Equal(t, patientID.String(), fields["patient_id"])
	assert.Equal(t, "2026-01-15", fields["service_day"])
}

func TestNotificationHandler_InvoicePaid(t *testing.T) {
	handler, logs := newObservedNotificationHandler()

	event := &billing.InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(billing.EventTypeInvoicePaid, billing.AggregateTypeInvoice, uuid.New(), uuid.New()),
		InvoiceNumber:   "INV-20260115-00001",
		PatientID:       uuid.New(),
		TotalAmount:     decimal.NewFromInt(1000),
	}

	require.NoError(t, handler.Handle(context.Background(), event))
	assert.Equal(t, 1, logs.FilterMessage("invoice settled in full").Len())
}

func TestNotificationHandler_IgnoresUnknownEvents(t *testing.T) {
	handler, logs := newObservedNotificationHandler()

	event := &billing.InvoiceItemAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(billing.EventTypeInvoiceItemAdded, billing.AggregateTypeInvoice, uuid.New(), uuid.New()),
	}

	require.NoError(t, handler.Handle(context.Background(), event))
	assert.Zero(t, logs.Len())
}
