package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hospital/backend/internal/domain/shared"
)

// InvoiceFilter narrows invoice list queries
type InvoiceFilter struct {
	shared.Filter
	PatientID *uuid.UUID
	Status    *InvoiceStatus
	PayerType *PayerType
	FromDate  *time.Time
	ToDate    *time.Time
}

// InvoiceRepository defines persistence for the invoice aggregate
type InvoiceRepository interface {
	// Save persists the invoice and its full item set
	Save(ctx context.Context, invoice *Invoice) error
	// SaveWithLock persists the invoice with optimistic lock checking,
	// returning a CONCURRENCY_CONFLICT error when the version moved
	SaveWithLock(ctx context.Context, invoice *Invoice) error
	// FindByID retrieves an invoice with its items
	FindByID(ctx context.Context, hospitalID, id uuid.UUID) (*Invoice, error)
	// FindByNumber retrieves an invoice by its invoice number
	FindByNumber(ctx context.Context, hospitalID uuid.UUID, invoiceNumber string) (*Invoice, error)
	// FindByOpenKey retrieves the open invoice for a patient/day key, or
	// a NOT_FOUND error when no open invoice exists
	FindByOpenKey(ctx context.Context, hospitalID uuid.UUID, openKey string) (*Invoice, error)
	// List retrieves invoices matching the filter
	List(ctx context.Context, hospitalID uuid.UUID, filter InvoiceFilter) (shared.Paginated[*Invoice], error)
	// NextInvoiceNumber generates the next invoice number for the given day,
	// formatted INV-YYYYMMDD-NNNNN
	NextInvoiceNumber(ctx context.Context, hospitalID uuid.UUID, day time.Time) (string, error)
}

// PaymentRepository defines persistence for payment records. Payments are
// append-only; there are no update or delete operations.
type PaymentRepository interface {
	// Save persists a new payment record
	Save(ctx context.Context, payment *Payment) error
	// FindByID retrieves a payment by ID
	FindByID(ctx context.Context, hospitalID, id uuid.UUID) (*Payment, error)
	// FindByInvoice retrieves all payments for an invoice, oldest first
	FindByInvoice(ctx context.Context, hospitalID, invoiceID uuid.UUID) ([]*Payment, error)
	// NextPaymentNumber generates the next payment number for the given day,
	// formatted PAY-YYYYMMDD-NNNNN
	NextPaymentNumber(ctx context.Context, hospitalID uuid.UUID, day time.Time) (string, error)
}

// WriteOffFilter narrows write-off list queries
type WriteOffFilter struct {
	shared.Filter
	InvoiceID *uuid.UUID
	Status    *WriteOffStatus
	Category  *WriteOffCategory
}

// WriteOffRepository defines persistence for write-off requests
type WriteOffRepository interface {
	// Save persists a write-off request
	Save(ctx context.Context, writeOff *WriteOff) error
	// SaveWithLock persists the write-off with optimistic lock checking
	SaveWithLock(ctx context.Context, writeOff *WriteOff) error
	// FindByID retrieves a write-off by ID
	FindByID(ctx context.Context, hospitalID, id uuid.UUID) (*WriteOff, error)
	// List retrieves write-offs matching the filter
	List(ctx context.Context, hospitalID uuid.UUID, filter WriteOffFilter) (shared.Paginated[*WriteOff], error)
}
