package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/backend/internal/domain/shared"
)

// PayerType identifies who is expected to settle the invoice
type PayerType string

const (
	PayerTypePatient   PayerType = "PATIENT"
	PayerTypeInsurance PayerType = "INSURANCE"
)

// IsValid checks if the payer type is valid
func (p PayerType) IsValid() bool {
	switch p {
	case PayerTypePatient, PayerTypeInsurance:
		return true
	}
	return false
}

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending       InvoiceStatus = "PENDING"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
	InvoiceStatusRefunded      InvoiceStatus = "REFUNDED"
)

// InvoiceItem is a billable line owned by exactly one invoice.
// TotalPrice is always UnitPrice*Quantity - Discount.
type InvoiceItem struct {
	shared.BaseEntity
	InvoiceID   uuid.UUID
	Description string
	Category    string
	ChargeCode  *string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	TotalPrice  decimal.Decimal
}

// NewInvoiceItem creates a new invoice line item
func NewInvoiceItem(description, category string, chargeCode *string, quantity, unitPrice, discount decimal.Decimal) (*InvoiceItem, error) {
	if description == "" {
		return nil, shared.NewValidationError("Item description is required")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewValidationError("Item quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("Item unit price cannot be negative")
	}
	if discount.IsNegative() {
		return nil, shared.NewValidationError("Item discount cannot be negative")
	}
	total := unitPrice.Mul(quantity).Sub(discount)
	if total.IsNegative() {
		return nil, shared.NewValidationError("Item discount cannot exceed the line total")
	}
	return &InvoiceItem{
		BaseEntity:  shared.NewBaseEntity(),
		Description: description,
		Category:    category,
		ChargeCode:  chargeCode,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Discount:    discount,
		TotalPrice:  total,
	}, nil
}

// Invoice is the billing aggregate root. It tracks charges against a patient
// encounter and the running paid/balance ledger. Invoices are never deleted,
// only cancelled while unpaid.
type Invoice struct {
	shared.HospitalAggregateRoot
	InvoiceNumber string
	PatientID     uuid.UUID
	EncounterID   *uuid.UUID
	DepartmentID  *uuid.UUID
	DoctorID      *uuid.UUID
	PayerType     PayerType
	ServiceDay    time.Time
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	BalanceAmount decimal.Decimal
	Status        InvoiceStatus
	DueDate       *time.Time
	OpenKey       *string
	CancelledAt   *time.Time
	CancelReason  string
	Items         []*InvoiceItem
}

// NewInvoice creates a new pending invoice
func NewInvoice(hospitalID, patientID uuid.UUID, invoiceNumber string, payerType PayerType, serviceDay time.Time, dueDate *time.Time) (*Invoice, error) {
	if patientID == uuid.Nil {
		return nil, shared.NewValidationError("Patient ID is required")
	}
	if invoiceNumber == "" {
		return nil, shared.NewValidationError("Invoice number is required")
	}
	if !payerType.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Invalid payer type: %s", payerType))
	}

	inv := &Invoice{
		HospitalAggregateRoot: shared.NewHospitalAggregateRoot(hospitalID),
		InvoiceNumber:         invoiceNumber,
		PatientID:             patientID,
		PayerType:             payerType,
		ServiceDay:            NormalizeServiceDay(serviceDay),
		Subtotal:              decimal.Zero,
		Discount:              decimal.Zero,
		Tax:                   decimal.Zero,
		TotalAmount:           decimal.Zero,
		PaidAmount:            decimal.Zero,
		BalanceAmount:         decimal.Zero,
		Status:                InvoiceStatusPending,
		DueDate:               dueDate,
		Items:                 make([]*InvoiceItem, 0),
	}
	key := OpenInvoiceKey(hospitalID, patientID, inv.ServiceDay)
	inv.OpenKey = &key

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// NormalizeServiceDay truncates a timestamp to its calendar day in UTC
func NormalizeServiceDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// OpenInvoiceKey builds the uniqueness key for the single open invoice
// a patient may have per hospital per service day
func OpenInvoiceKey(hospitalID, patientID uuid.UUID, serviceDay time.Time) string {
	return fmt.Sprintf("%s:%s:%s", hospitalID, patientID, NormalizeServiceDay(serviceDay).Format("2006-01-02"))
}

// IsOpen returns true if the invoice can still accept charges
func (i *Invoice) IsOpen() bool {
	return i.Status == InvoiceStatusPending || i.Status == InvoiceStatusPartiallyPaid
}

// AddItem appends a line item and recomputes the invoice totals
func (i *Invoice) AddItem(item *InvoiceItem) error {
	if !i.IsOpen() {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot add items to invoice in status %s", i.Status))
	}
	item.InvoiceID = i.ID
	i.Items = append(i.Items, item)
	i.ComputeTotals()
	i.UpdatedAt = time.Now()

	i.AddDomainEvent(NewInvoiceItemAddedEvent(i, item))
	return nil
}

// SetDiscount sets the invoice-level discount and recomputes totals
func (i *Invoice) SetDiscount(discount decimal.Decimal) error {
	if discount.IsNegative() {
		return shared.NewValidationError("Discount cannot be negative")
	}
	i.Discount = discount
	i.ComputeTotals()
	return nil
}

// SetTax sets the invoice-level tax and recomputes totals
func (i *Invoice) SetTax(tax decimal.Decimal) error {
	if tax.IsNegative() {
		return shared.NewValidationError("Tax cannot be negative")
	}
	i.Tax = tax
	i.ComputeTotals()
	return nil
}

// ComputeTotals re-derives the invoice ledger from the full current item set.
/// Invariants: TotalAmount = Subtotal - Discount + Tax,
// BalanceAmount = max(0, TotalAmount - PaidAmount).
func (i *Invoice) ComputeTotals() {
	subtotal := decimal.Zero
	for _, item := range i.Items {
		subtotal = subtotal.Add(item.TotalPrice)
	}
	i.Subtotal = subtotal
	i.TotalAmount = subtotal.Sub(i.Discount).Add(i.Tax)
	balance := i.TotalAmount.Sub(i.PaidAmount)
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	i.BalanceAmount = balance
	i.refreshStatus()
}

// ApplyPayment records a payment against the invoice balance
func (i *Invoice) ApplyPayment(payment *Payment) error {
	if i.Status == InvoiceStatusCancelled || i.Status == InvoiceStatusRefunded {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot apply payment to invoice in status %s", i.Status))
	}
	if !payment.Amount.IsPositive() {
		return shared.NewValidationError("Payment amount must be positive")
	}
	if payment.Amount.GreaterThan(i.BalanceAmount) {
		return shared.NewValidationError(fmt.Sprintf(
			"Payment amount (%s) exceeds remaining balance (%s)",
			payment.Amount.StringFixed(2), i.BalanceAmount.StringFixed(2)))
	}

	i.PaidAmount = i.PaidAmount.Add(payment.Amount)
	i.BalanceAmount = i.TotalAmount.Sub(i.PaidAmount)
	if i.BalanceAmount.IsNegative() {
		i.BalanceAmount = decimal.Zero
	}
	i.refreshStatus()
	i.UpdatedAt = time.Now()

	i.AddDomainEvent(NewPaymentReceivedEvent(i, payment))
	if i.Status == InvoiceStatusPaid {
		i.AddDomainEvent(NewInvoicePaidEvent(i))
	}
	return nil
}

// ApplyWriteOff reduces the outstanding balance by an approved write-off
// amount, never below zero
func (i *Invoice) ApplyWriteOff(amount decimal.Decimal) error {
	if i.Status == InvoiceStatusCancelled || i.Status == InvoiceStatusRefunded {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot write off invoice in status %s", i.Status))
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("Write-off amount must be positive")
	}
	i.BalanceAmount = i.BalanceAmount.Sub(amount)
	if i.BalanceAmount.IsNegative() {
		i.BalanceAmount = decimal.Zero
	}
	i.refreshStatus()
	i.UpdatedAt = time.Now()
	return nil
}

// Cancel voids an invoice that has received no payments
func (i *Invoice) Cancel(reason string) error {
	if i.Status == InvoiceStatusCancelled {
		return shared.NewInvalidStateError("Invoice is already cancelled")
	}
	if i.PaidAmount.IsPositive() {
		return shared.NewInvalidStateError("Cannot cancel an invoice with payments applied")
	}
	now := time.Now()
	i.Status = InvoiceStatusCancelled
	i.CancelledAt = &now
	i.CancelReason = reason
	i.OpenKey = nil
	i.UpdatedAt = now

	i.AddDomainEvent(NewInvoiceCancelledEvent(i, reason))
	return nil
}

// refreshStatus derives the status from the paid/balance ledger. The open
// key is held only while the invoice is still PENDING, so a settled or
// partially paid invoice no longer blocks a new open invoice for the same
// patient and day.
func (i *Invoice) refreshStatus() {
	if i.Status == InvoiceStatusCancelled || i.Status == InvoiceStatusRefunded {
		return
	}
	switch {
	case i.BalanceAmount.IsZero() && i.TotalAmount.IsPositive():
		i.Status = InvoiceStatusPaid
	case i.PaidAmount.IsPositive():
		i.Status = InvoiceStatusPartiallyPaid
	default:
		i.Status = InvoiceStatusPending
	}
	if i.Status != InvoiceStatusPending {
		i.OpenKey = nil
	}
}
