package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospital/backend/internal/domain/shared"
)

func newTestInvoice(t *testing.T) *Invoice {
	t.Helper()
	inv, err := NewInvoice(uuid.New(), uuid.New(), "INV-20260115-00001", PayerTypePatient, time.Now(), nil)
	require.NoError(t, err)
	return inv
}

func addTestItem(t *testing.T, inv *Invoice, unitPrice float64, qty int64) *InvoiceItem {
	t.Helper()
	item, err := NewInvoiceItem("Consultation", "CONSULTATION", nil,
		decimal.NewFromInt(qty), decimal.NewFromFloat(unitPrice), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, inv.AddItem(item))
	return item
}

func newTestPayment(t *testing.T, inv *Invoice, amount float64) *Payment {
	t.Helper()
	p, err := NewPayment(inv.HospitalID, inv.ID, "PAY-20260115-00001",
		decimal.NewFromFloat(amount), PaymentMethodCash, "", nil)
	require.NoError(t, err)
	return p
}

func TestNewInvoice(t *testing.T) {
	t.Run("creates pending invoice with open key", func(t *testing.T) {
		hospitalID := uuid.New()
		patientID := uuid.New()
		day := time.Date(2026, 1, 15, 14, 30, 0, 0, time.UTC)

		inv, err := NewInvoice(hospitalID, patientID, "INV-20260115-00001", PayerTypePatient, day, nil)

		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusPending, inv.Status)
		assert.True(t, inv.TotalAmount.IsZero())
		assert.True(t, inv.BalanceAmount.IsZero())
		require.NotNil(t, inv.OpenKey)
		assert.Equal(t, OpenInvoiceKey(hospitalID, patientID, day), *inv.OpenKey)
		assert.Contains(t, *inv.OpenKey, "2026-01-15")

		events := inv.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeInvoiceCreated, events[0].EventType())
	})

	t.Run("rejects missing patient", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), uuid.Nil, "INV-20260115-00001", PayerTypePatient, time.Now(), nil)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("rejects invalid payer type", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), uuid.New(), "INV-20260115-00001", "GOVERNMENT", time.Now(), nil)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestInvoiceTotals(t *testing.T) {
	t.Run("total equals subtotal minus discount plus tax", func(t *testing.T) {
		inv := newTestInvoice(t)
		addTestItem(t, inv, 100, 2)
		addTestItem(t, inv, 50, 1)
		require.NoError(t, inv.SetDiscount(decimal.NewFromInt(30)))
		require.NoError(t, inv.SetTax(decimal.NewFromInt(10)))

		assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(250)), "subtotal = %s", inv.Subtotal)
		assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(230)), "total = %s", inv.TotalAmount)
		assert.True(t, inv.BalanceAmount.Equal(decimal.NewFromInt(230)))
	})

	t.Run("line item applies its own discount", func(t *testing.T) {
		item, err := NewInvoiceItem("Lab panel", "LAB", nil,
			decimal.NewFromInt(3), decimal.NewFromInt(40), decimal.NewFromInt(20))
		require.NoError(t, err)
		assert.True(t, item.TotalPrice.Equal(decimal.NewFromInt(100)))
	})

	t.Run("rejects line discount exceeding line total", func(t *testing.T) {
		_, err := NewInvoiceItem("Lab panel", "LAB", nil,
			decimal.NewFromInt(1), decimal.NewFromInt(40), decimal.NewFromInt(50))
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("cannot add items to a paid invoice", func(t *testing.T) {
		inv := newTestInvoice(t)
		addTestItem(t, inv, 100, 1)
		require.NoError(t, inv.ApplyPayment(newTestPayment(t, inv, 100)))

		item, err := NewInvoiceItem("Extra", "PHARMACY", nil,
			decimal.NewFromInt(1), decimal.NewFromInt(10), decimal.Zero)
		require.NoError(t, err)
		err = inv.AddItem(item)
		assert.True(t, shared.IsInvalidState(err))
	})
}

func TestInvoiceApplyPayment(t *testing.T) {
	t.Run("partial payment moves to PARTIALLY_PAID and clears open key", func(t *testing.T) {
		inv := newTestInvoice(t)
		addTestItem(t, inv, 100, 1)

		err := inv.ApplyPayment(newTestPayment(t, inv, 40))

		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)
		assert.True(t, inv.PaidAmount.Equal(decimal.NewFromInt(40)))
		assert.True(t, inv.BalanceAmount.Equal(decimal.NewFromInt(60)))
		assert.Nil(t, inv.OpenKey)
	})

	t.Run("full payment moves to PAID and raises paid event", func(t *testing.T) {
		inv := newTestInvoice(t)
		addTestItem(t, inv, 100, 1)
		inv.ClearDomainEvents()

		require.NoError(t, inv.ApplyPayment(newTestPayment(t, inv, 100)))

		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.True(t, inv.BalanceAmount.IsZero())

		events := inv.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypePaymentReceived, events[0].EventType())
		assert.Equal(t, EventTypeInvoicePaid, events[1].EventType())
	})

	t.Run("overpayment is rejected with exact amounts", func(t *testing.T) {
		inv := newTestInvoice(t)
		addTestItem(t, inv, 100, 1)

		err := inv.ApplyPayment(newTestPayment(t, inv, 150))

		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
		assert.Equal(t, "Payment amount (150.00) exceeds remaining balance (100.00)", err.Error())
		assert.True(t, inv.PaidAmount.IsZero())
		assert.Equal(t, InvoiceStatusPending, inv.Status)
	})

	t.Run("cannot pay a cancelled invoice", func(t *testing.T) {
		inv := newTestInvoice(t)
		addTestItem(t, inv, 100, 1)
		require.NoError(t, inv.Cancel("duplicate entry"))

		err := inv.ApplyPayment(newTestPayment(t, inv, 50))
		assert.True(t, shared.IsInvalidState(err))
	})
}

func TestInvoiceApplyWriteOff(t *testing.T) {
	t.Run("reduces balance and settles at zero", func(t *testing.T) {
		inv := newTestInvoice(t)
		addTestItem(t, inv, 100, 1)
		require.NoError(t, inv.ApplyPayment(newTestPayment(t, inv, 60)))

		require.NoError(t, inv.ApplyWriteOff(decimal.NewFromInt(40)))

		assert.True(t, inv.BalanceAmount.IsZero())
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.True(t, inv.PaidAmount.Equal(decimal.NewFromInt(60)), "write-off must not touch paid amount")
	})

	t.Run("floors the balance at zero", func(t *testing.T) {
		inv := newTestInvoice(t)
		addTestItem(t, inv, 100, 1)

		require.NoError(t, inv.ApplyWriteOff(decimal.NewFromInt(500)))

		assert.True(t, inv.BalanceAmount.IsZero())
	})
}

func TestInvoiceCancel(t *testing.T) {
	t.Run("cancels an unpaid invoice", func(t *testing.T) {
		inv := newTestInvoice(t)
		addTestItem(t, inv, 100, 1)
		inv.ClearDomainEvents()

		require.NoError(t, inv.Cancel("entered in error"))

		assert.Equal(t, InvoiceStatusCancelled, inv.Status)
		assert.NotNil(t, inv.CancelledAt)
		assert.Nil(t, inv.OpenKey)

		events := inv.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeInvoiceCancelled, events[0].EventType())
	})

	t.Run("refuses once any payment is applied", func(t *testing.T) {
		inv := newTestInvoice(t)
		addTestItem(t, inv, 100, 1)
		require.NoError(t, inv.ApplyPayment(newTestPayment(t, inv, 10)))

		err := inv.Cancel("too late")
		assert.True(t, shared.IsInvalidState(err))
	})

	t.Run("refuses double cancellation", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.Cancel("first"))
		assert.True(t, shared.IsInvalidState(inv.Cancel("second")))
	})
}

func TestNormalizeServiceDay(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	late := time.Date(2026, 1, 16, 2, 30, 0, 0, loc) // 2026-01-15 18:30 UTC

	day := NormalizeServiceDay(late)

	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), day)
}
