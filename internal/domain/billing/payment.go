package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/backend/internal/domain/shared"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMobile       PaymentMethod = "MOBILE"
	PaymentMethodInsurance    PaymentMethod = "INSURANCE"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer,
		PaymentMethodMobile, PaymentMethodInsurance:
		return true
	}
	return false
}

// Payment is an immutable record of money received against an invoice.
// Payments are only ever created, never updated or deleted; corrections go
// through the invoice ledger, not the payment rows.
type Payment struct {
	shared.BaseEntity
	HospitalID    uuid.UUID
	InvoiceID     uuid.UUID
	PaymentNumber string
	Amount        decimal.Decimal
	Method        PaymentMethod
	Reference     string
	ReceivedBy    *uuid.UUID
	PaidAt        time.Time
}

// NewPayment creates a new payment record
func NewPayment(hospitalID, invoiceID uuid.UUID, paymentNumber string, amount decimal.Decimal, method PaymentMethod, reference string, receivedBy *uuid.UUID) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewValidationError("Invoice ID is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Invalid payment method: %s", method))
	}
	return &Payment{
		BaseEntity:    shared.NewBaseEntity(),
		HospitalID:    hospitalID,
		InvoiceID:     invoiceID,
		PaymentNumber: paymentNumber,
		Amount:        amount,
		Method:        method,
		Reference:     reference,
		ReceivedBy:    receivedBy,
		PaidAt:        time.Now(),
	}, nil
}
