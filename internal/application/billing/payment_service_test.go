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

func testInvoiceWithBalance(t *testing.T, hospitalID uuid.UUID, balance int64) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(hospitalID, uuid.New(), "INV-20260115-00001", billing.PayerTypePatient, time.Now(), nil)
	require.NoError(t, err)
	item, err := billing.NewInvoiceItem("Consultation", "CONSULTATION", nil,
		decimal.NewFromInt(1), decimal.NewFromInt(balance), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, inv.AddItem(item))
	inv.ClearDomainEvents()
	return inv
}

func newPaymentServiceFixture() (*PaymentService, *MockInvoiceRepository, *MockPaymentRepository, *MockEventSaver) {
	invoices := new(MockInvoiceRepository)
	payments := new(MockPaymentRepository)
	events := new(MockEventSaver)
	scope := &NoOpTransactionScope{Repos: &StaticRepositories{
		InvoiceRepo: invoices,
		PaymentRepo: payments,
		EventSaver:  events,
	}}
	svc := NewPaymentService(invoices, payments, scope, zap.NewNop())
	return svc, invoices, payments, events
}

func TestPaymentServiceAddPayment(t *testing.T) {
	ctx := context.Background()
	hospitalID := uuid.New()

	t.Run("records payment and settles the invoice", func(t *testing.T) {
		svc, invoices, payments, events := newPaymentServiceFixture()
		inv := testInvoiceWithBalance(t, hospitalID, 100)
		invoices.On("FindByID", ctx, hospitalID, inv.ID).Return(inv, nil)
		payments.On("NextPaymentNumber", ctx, hospitalID, mock.Anything).Return("PAY-20260115-00001", nil)
		payments.On("Save", ctx, mock.AnythingOfType("*billing.Payment")).Return(nil)
		invoices.On("SaveWithLock", ctx, inv).Return(nil)
		events.On("Save", ctx, mock.Anything).Return(nil)

		payment, err := svc.AddPayment(ctx, hospitalID, inv.ID, AddPaymentRequest{
			Amount: decimal.NewFromInt(100),
			Method: billing.PaymentMethodCash,
		})

		require.NoError(t, err)
		assert.Equal(t, "PAY-20260115-00001", payment.PaymentNumber)
		assert.Equal(t, billing.InvoiceStatusPaid, inv.Status)
		invoices.AssertExpectations(t)
		payments.AssertExpectations(t)
		events.AssertExpectations(t)
	})

	t.Run("overpayment creates no payment row", func(t *testing.T) {
		svc, invoices, payments, _ := newPaymentServiceFixture()
		inv := testInvoiceWithBalance(t, hospitalID, 100)
		invoices.On("FindByID", ctx, hospitalID, inv.ID).Return(inv, nil).Once()

		_, err := svc.AddPayment(ctx, hospitalID, inv.ID, AddPaymentRequest{
			Amount: decimal.NewFromInt(150),
			Method: billing.PaymentMethodCash,
		})

		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
		assert.Equal(t, "Payment amount (150.00) exceeds remaining balance (100.00)", err.Error())
		payments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		payments.AssertNotCalled(t, "NextPaymentNumber", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown invoice is NOT_FOUND", func(t *testing.T) {
		svc, invoices, _, _ := newPaymentServiceFixture()
		missing := uuid.New()
		invoices.On("FindByID", ctx, hospitalID, missing).Return(nil, shared.NewNotFoundError("Invoice not found"))

		_, err := svc.AddPayment(ctx, hospitalID, missing, AddPaymentRequest{
			Amount: decimal.NewFromInt(10),
			Method: billing.PaymentMethodCash,
		})

		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("invalid method is rejected before the transaction", func(t *testing.T) {
		svc, invoices, payments, _ := newPaymentServiceFixture()
		inv := testInvoiceWithBalance(t, hospitalID, 100)
		invoices.On("FindByID", ctx, hospitalID, inv.ID).Return(inv, nil).Once()

		_, err := svc.AddPayment(ctx, hospitalID, inv.ID, AddPaymentRequest{
			Amount: decimal.NewFromInt(10),
			Method: "CRYPTO",
		})

		assert.True(t, shared.IsValidation(err))
		payments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("in-transaction re-validation blocks a racing overdraw", func(t *testing.T) {
		svc, invoices, payments, _ := newPaymentServiceFixture()
		// the invoice looked payable before the transaction, but a
		// concurrent payment drained it in between
		stale := testInvoiceWithBalance(t, hospitalID, 100)
		drained := testInvoiceWithBalance(t, hospitalID, 100)
		p, err := billing.NewPayment(hospitalID, drained.ID, "PAY-X", decimal.NewFromInt(100), billing.PaymentMethodCash, "", nil)
		require.NoError(t, err)
		require.NoError(t, drained.ApplyPayment(p))

		invoices.On("FindByID", ctx, hospitalID, stale.ID).Return(stale, nil).Once()
		invoices.On("FindByID", ctx, hospitalID, stale.ID).Return(drained, nil).Once()
		payments.On("NextPaymentNumber", ctx, hospitalID, mock.Anything).Return("PAY-20260115-00002", nil)
		payments.On("Save", ctx, mock.AnythingOfType("*billing.Payment")).Return(nil)

		_, err = svc.AddPayment(ctx, hospitalID, stale.ID, AddPaymentRequest{
			Amount: decimal.NewFromInt(60),
			Method: billing.PaymentMethodCard,
		})

		require.Error(t, err)
		assert.True(t, shared.IsValidation(err), "the re-read invoice has no balance left")
		invoices.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestPaymentServiceListPayments(t *testing.T) {
	ctx := context.Background()
	hospitalID := uuid.New()

	svc, invoices, payments, _ := newPaymentServiceFixture()
	inv := testInvoiceWithBalance(t, hospitalID, 100)
	stored := []*billing.Payment{}
	invoices.On("FindByID", ctx, hospitalID, inv.ID).Return(inv, nil)
	payments.On("FindByInvoice", ctx, hospitalID, inv.ID).Return(stored, nil)

	got, err := svc.ListPayments(ctx, hospitalID, inv.ID)

	require.NoError(t, err)
	assert.Equal(t, stored, got)
}
