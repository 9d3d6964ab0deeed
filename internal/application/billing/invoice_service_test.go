package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/shared"
)

func newInvoiceServiceFixture() (*InvoiceService, *MockInvoiceRepository, *MockPriceResolver, *MockEventSaver) {
	invoices := new(MockInvoiceRepository)
	prices := new(MockPriceResolver)
	events := new(MockEventSaver)
	scope := &NoOpTransactionScope{Repos: &StaticRepositories{
		InvoiceRepo: invoices,
		EventSaver:  events,
	}}
	svc := NewInvoiceService(invoices, prices, scope, zap.NewNop())
	return svc, invoices, prices, events
}

func TestInvoiceServiceCreateInvoice(t *testing.T) {
	ctx := context.Background()
	hospitalID := uuid.New()
	day := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

	t.Run("prices coded items through the charge master", func(t *testing.T) {
		svc, invoices, prices, events := newInvoiceServiceFixture()
		code := "LAB-CBC"
		prices.On("Resolve", code).Return(&billing.ChargeItem{
			Code:        code,
			Description: "Complete blood count",
			Category:    "LAB",
			UnitPrice:   decimal.NewFromInt(45),
		}, nil)
		invoices.On("NextInvoiceNumber", ctx, hospitalID, day).Return("INV-20260115-00001", nil)
		invoices.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(nil)
		events.On("Save", ctx, mock.Anything).Return(nil)

		inv, err := svc.CreateInvoice(ctx, hospitalID, CreateInvoiceRequest{
			PatientID:  uuid.New(),
			PayerType:  billing.PayerTypePatient,
			ServiceDay: day,
			Items: []InvoiceItemRequest{
				{ChargeCode: &code, Quantity: decimal.NewFromInt(2)},
				{Description: "Dressing kit", Category: "SUPPLY", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "INV-20260115-00001", inv.InvoiceNumber)
		require.Len(t, inv.Items, 2)
		assert.Equal(t, "Complete blood count", inv.Items[0].Description)
		assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(100)), "2x45 + 10")
		assert.Empty(t, inv.GetDomainEvents(), "events are flushed to the outbox")
		prices.AssertExpectations(t)
	})

	t.Run("unknown charge code fails before any write", func(t *testing.T) {
		svc, invoices, prices, _ := newInvoiceServiceFixture()
		code := "NOPE"
		prices.On("Resolve", code).Return(nil, shared.NewValidationError("Unknown charge code: NOPE"))

		_, err := svc.CreateInvoice(ctx, hospitalID, CreateInvoiceRequest{
			PatientID:  uuid.New(),
			PayerType:  billing.PayerTypePatient,
			ServiceDay: day,
			Items:      []InvoiceItemRequest{{ChargeCode: &code}},
		})

		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
		invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestInvoiceServiceAddItem(t *testing.T) {
	ctx := context.Background()
	hospitalID := uuid.New()

	t.Run("recomputes totals atomically", func(t *testing.T) {
		svc, invoices, _, events := newInvoiceServiceFixture()
		inv := testInvoiceWithBalance(t, hospitalID, 100)
		invoices.On("FindByID", ctx, hospitalID, inv.ID).Return(inv, nil)
		invoices.On("SaveWithLock", ctx, inv).Return(nil)
		events.On("Save", ctx, mock.Anything).Return(nil)

		got, err := svc.AddItem(ctx, hospitalID, inv.ID, InvoiceItemRequest{
			Description: "X-ray",
			Category:    "RADIOLOGY",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(80),
		})

		require.NoError(t, err)
		assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(180)))
		assert.True(t, got.BalanceAmount.Equal(decimal.NewFromInt(180)))
	})

	t.Run("closed invoice is INVALID_STATE", func(t *testing.T) {
		svc, invoices, _, _ := newInvoiceServiceFixture()
		inv := testInvoiceWithBalance(t, hospitalID, 100)
		require.NoError(t, inv.Cancel("void"))
		inv.ClearDomainEvents()
		invoices.On("FindByID", ctx, hospitalID, inv.ID).Return(inv, nil)

		_, err := svc.AddItem(ctx, hospitalID, inv.ID, InvoiceItemRequest{
			Description: "X-ray",
			Category:    "RADIOLOGY",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(80),
		})

		assert.True(t, shared.IsInvalidState(err))
		invoices.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestInvoiceServiceFindOrCreateOpenInvoice(t *testing.T) {
	ctx := context.Background()
	hospitalID := uuid.New()
	patientID := uuid.New()
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	key := billing.OpenInvoiceKey(hospitalID, patientID, day)

	t.Run("returns the existing open invoice", func(t *testing.T) {
		svc, invoices, _, _ := newInvoiceServiceFixture()
		existing := testInvoiceWithBalance(t, hospitalID, 50)
		invoices.On("FindByOpenKey", ctx, hospitalID, key).Return(existing, nil)

		got, err := svc.FindOrCreateOpenInvoice(ctx, hospitalID, patientID, day)

		require.NoError(t, err)
		assert.Same(t, existing, got)
		invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("creates an empty invoice when none is open", func(t *testing.T) {
		svc, invoices, _, events := newInvoiceServiceFixture()
		invoices.On("FindByOpenKey", ctx, hospitalID, key).Return(nil, shared.NewNotFoundError("no open invoice"))
		invoices.On("NextInvoiceNumber", ctx, hospitalID, day).Return("INV-20260115-00007", nil)
		invoices.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(nil)
		events.On("Save", ctx, mock.Anything).Return(nil)

		got, err := svc.FindOrCreateOpenInvoice(ctx, hospitalID, patientID, day)

		require.NoError(t, err)
		assert.Equal(t, billing.InvoiceStatusPending, got.Status)
		assert.Equal(t, patientID, got.PatientID)
		require.NotNil(t, got.OpenKey)
		assert.Equal(t, key, *got.OpenKey)
	})

	t.Run("losing the open-key race returns the winner", func(t *testing.T) {
		svc, invoices, _, _ := newInvoiceServiceFixture()
		winner := testInvoiceWithBalance(t, hospitalID, 25)
		invoices.On("FindByOpenKey", ctx, hospitalID, key).Return(nil, shared.NewNotFoundError("no open invoice")).Once()
		invoices.On("NextInvoiceNumber", ctx, hospitalID, day).Return("INV-20260115-00008", nil)
		invoices.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(shared.ErrAlreadyExists)
		invoices.On("FindByOpenKey", ctx, hospitalID, key).Return(winner, nil).Once()

		got, err := svc.FindOrCreateOpenInvoice(ctx, hospitalID, patientID, day)

		require.NoError(t, err)
		assert.Same(t, winner, got)
	})
}

func TestInvoiceServiceCancelInvoice(t *testing.T) {
	ctx := context.Background()
	hospitalID := uuid.New()

	svc, invoices, _, events := newInvoiceServiceFixture()
	inv := testInvoiceWithBalance(t, hospitalID, 100)
	invoices.On("FindByID", ctx, hospitalID, inv.ID).Return(inv, nil)
	invoices.On("SaveWithLock", ctx, inv).Return(nil)
	events.On("Save", ctx, mock.Anything).Return(nil)

	got, err := svc.CancelInvoice(ctx, hospitalID, inv.ID, "duplicate entry")

	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusCancelled, got.Status)
	assert.Nil(t, got.OpenKey)
}
