package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/backend/internal/domain/shared"
)

// Billing event types
const (
	EventTypeInvoiceCreated    = "billing.invoice.created"
	EventTypeInvoiceItemAdded  = "billing.invoice.item_added"
	EventTypeInvoiceCancelled  = "billing.invoice.cancelled"
	EventTypePaymentReceived   = "billing.payment.received"
	EventTypeInvoicePaid       = "billing.invoice.paid"
	EventTypeWriteOffRequested = "billing.writeoff.requested"
	EventTypeWriteOffApproved  = "billing.writeoff.approved"
	EventTypeWriteOffRejected  = "billing.writeoff.rejected"
)

// Aggregate type names used in events and the outbox
const (
	AggregateTypeInvoice  = "Invoice"
	AggregateTypeWriteOff = "WriteOff"
)

// InvoiceCreatedEvent is raised when a new invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	PatientID     uuid.UUID       `json:"patient_id"`
	PayerType     PayerType       `json:"payer_type"`
	ServiceDay    time.Time       `json:"service_day"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewInvoiceCreatedEvent creates a new invoice created event
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID, inv.HospitalID),
		InvoiceNumber:   inv.InvoiceNumber,
		PatientID:       inv.PatientID,
		PayerType:       inv.PayerType,
		ServiceDay:      inv.ServiceDay,
		TotalAmount:     inv.TotalAmount,
	}
}

// InvoiceItemAddedEvent is raised when a line item is added to an invoice
type InvoiceItemAddedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	ItemID        uuid.UUID       `json:"item_id"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	NewTotal      decimal.Decimal `json:"new_total"`
}

// NewInvoiceItemAddedEvent creates a new invoice item added event
func NewInvoiceItemAddedEvent(inv *Invoice, item *InvoiceItem) *InvoiceItemAddedEvent {
	return &InvoiceItemAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceItemAdded, AggregateTypeInvoice, inv.ID, inv.HospitalID),
		InvoiceNumber:   inv.InvoiceNumber,
		ItemID:          item.ID,
		Description:     item.Description,
		Category:        item.Category,
		TotalPrice:      item.TotalPrice,
		NewTotal:        inv.TotalAmount,
	}
}

// InvoiceCancelledEvent is raised when an unpaid invoice is voided. Subtotal
// lets the GL posting worker reverse the revenue recognized per line item.
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	Reason        string          `json:"reason"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// NewInvoiceCancelledEvent creates a new invoice cancelled event
func NewInvoiceCancelledEvent(inv *Invoice, reason string) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCancelled, AggregateTypeInvoice, inv.ID, inv.HospitalID),
		InvoiceNumber:   inv.InvoiceNumber,
		Reason:          reason,
		Subtotal:        inv.Subtotal,
	}
}

// PaymentReceivedEvent is raised when a payment is applied to an invoice.
// The GL posting worker turns it into a debit-cash / credit-AR entry pair.
type PaymentReceivedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	PaymentNumber string          `json:"payment_number"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	NewBalance    decimal.Decimal `json:"new_balance"`
}

// NewPaymentReceivedEvent creates a new payment received event
func NewPaymentReceivedEvent(inv *Invoice, payment *Payment) *PaymentReceivedEvent {
	return &PaymentReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReceived, AggregateTypeInvoice, inv.ID, inv.HospitalID),
		InvoiceNumber:   inv.InvoiceNumber,
		PaymentID:       payment.ID,
		PaymentNumber:   payment.PaymentNumber,
		Amount:          payment.Amount,
		Method:          payment.Method,
		NewBalance:      inv.BalanceAmount,
	}
}

// InvoicePaidEvent is raised when an invoice balance reaches zero
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	PatientID     uuid.UUID       `json:"patient_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewInvoicePaidEvent creates a new invoice paid event
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, AggregateTypeInvoice, inv.ID, inv.HospitalID),
		InvoiceNumber:   inv.InvoiceNumber,
		PatientID:       inv.PatientID,
		TotalAmount:     inv.TotalAmount,
	}
}

// WriteOffRequestedEvent is raised when a write-off request is filed
type WriteOffRequestedEvent struct {
	shared.BaseDomainEvent
	InvoiceID   uuid.UUID        `json:"invoice_id"`
	Amount      decimal.Decimal  `json:"amount"`
	Category    WriteOffCategory `json:"category"`
	RequestedBy uuid.UUID        `json:"requested_by"`
}

// NewWriteOffRequestedEvent creates a new write-off requested event
func NewWriteOffRequestedEvent(w *WriteOff) *WriteOffRequestedEvent {
	return &WriteOffRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWriteOffRequested, AggregateTypeWriteOff, w.ID, w.HospitalID),
		InvoiceID:       w.InvoiceID,
		Amount:          w.Amount,
		Category:        w.Category,
		RequestedBy:     w.RequestedBy,
	}
}

// WriteOffApprovedEvent is raised when a write-off is approved. The GL
// posting worker turns it into a debit-expense / credit-AR entry pair.
type WriteOffApprovedEvent struct {
	shared.BaseDomainEvent
	InvoiceID  uuid.UUID        `json:"invoice_id"`
	Amount     decimal.Decimal  `json:"amount"`
	Category   WriteOffCategory `json:"category"`
	ApprovedBy uuid.UUID        `json:"approved_by"`
}

// NewWriteOffApprovedEvent creates a new write-off approved event
func NewWriteOffApprovedEvent(w *WriteOff) *WriteOffApprovedEvent {
	var approvedBy uuid.UUID
	if w.ApprovedBy != nil {
		approvedBy = *w.ApprovedBy
	}
	return &WriteOffApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWriteOffApproved, AggregateTypeWriteOff, w.ID, w.HospitalID),
		InvoiceID:       w.InvoiceID,
		Amount:          w.Amount,
		Category:        w.Category,
		ApprovedBy:      approvedBy,
	}
}

// WriteOffRejectedEvent is raised when a write-off is rejected
type WriteOffRejectedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewWriteOffRejectedEvent creates a new write-off rejected event
func NewWriteOffRejectedEvent(w *WriteOff) *WriteOffRejectedEvent {
	return &WriteOffRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWriteOffRejected, AggregateTypeWriteOff, w.ID, w.HospitalID),
		InvoiceID:       w.InvoiceID,
		Amount:          w.Amount,
	}
}
