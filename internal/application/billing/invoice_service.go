package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/shared"
)

// InvoiceItemRequest describes one line of a new invoice. Coded items are
// priced through the charge master; uncoded items carry their own
// description, category and unit price.
type InvoiceItemRequest struct {
	ChargeCode  *string
	Description string
	Category    string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
}

// CreateInvoiceRequest carries the input for invoice creation
type CreateInvoiceRequest struct {
	PatientID    uuid.UUID
	EncounterID  *uuid.UUID
	DepartmentID *uuid.UUID
	DoctorID     *uuid.UUID
	PayerType    billing.PayerType
	ServiceDay   time.Time
	DueDate      *time.Time
	Discount     decimal.Decimal
	Tax          decimal.Decimal
	Items        []InvoiceItemRequest
}

// InvoiceService manages the invoice lifecycle
type InvoiceService struct {
	invoices billing.InvoiceRepository
	prices   billing.PriceResolver
	scope    TransactionScope
	logger   *zap.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(invoices billing.InvoiceRepository, prices billing.PriceResolver, scope TransactionScope, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{
		invoices: invoices,
		prices:   prices,
		scope:    scope,
		logger:   logger,
	}
}

// CreateInvoice creates a new invoice with its line items. The invoice, its
// items and the raised events persist in one transaction; GL posting and
// notifications are delivered by the outbox after commit and can never fail
// the creation.
func (s *InvoiceService) CreateInvoice(ctx context.Context, hospitalID uuid.UUID, req CreateInvoiceRequest) (*billing.Invoice, error) {
	items, err := s.buildItems(req.Items)
	if err != nil {
		return nil, err
	}

	var invoice *billing.Invoice
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := repos.Invoices().NextInvoiceNumber(ctx, hospitalID, req.ServiceDay)
		if err != nil {
			return fmt.Errorf("generate invoice number: %w", err)
		}

		invoice, err = billing.NewInvoice(hospitalID, req.PatientID, number, req.PayerType, req.ServiceDay, req.DueDate)
		if err != nil {
			return err
		}
		invoice.EncounterID = req.EncounterID
		invoice.DepartmentID = req.DepartmentID
		invoice.DoctorID = req.DoctorID

		for _, item := range items {
			if err := invoice.AddItem(item); err != nil {
				return err
			}
		}
		if err := invoice.SetDiscount(req.Discount); err != nil {
			return err
		}
		if err := invoice.SetTax(req.Tax); err != nil {
			return err
		}

		if err := repos.Invoices().Save(ctx, invoice); err != nil {
			return err
		}
		if err := repos.Events().Save(ctx, invoice.GetDomainEvents()...); err != nil {
			return err
		}
		invoice.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("patient_id", invoice.PatientID.String()),
		zap.String("total", invoice.TotalAmount.String()))
	return invoice, nil
}

// AddItem appends a line item to an open invoice and recomputes its totals
// in one atomic update
func (s *InvoiceService) AddItem(ctx context.Context, hospitalID, invoiceID uuid.UUID, req InvoiceItemRequest) (*billing.Invoice, error) {
	item, err := s.buildItem(req)
	if err != nil {
		return nil, err
	}

	var invoice *billing.Invoice
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err = repos.Invoices().FindByID(ctx, hospitalID, invoiceID)
		if err != nil {
			return err
		}
		if err := invoice.AddItem(item); err != nil {
			return err
		}
		if err := repos.Invoices().SaveWithLock(ctx, invoice); err != nil {
			return err
		}
		if err := repos.Events().Save(ctx, invoice.GetDomainEvents()...); err != nil {
			return err
		}
		invoice.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// CancelInvoice voids an invoice that has received no payments
func (s *InvoiceService) CancelInvoice(ctx context.Context, hospitalID, invoiceID uuid.UUID, reason string) (*billing.Invoice, error) {
	var invoice *billing.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.Invoices().FindByID(ctx, hospitalID, invoiceID)
		if err != nil {
			return err
		}
		if err := invoice.Cancel(reason); err != nil {
			return err
		}
		if err := repos.Invoices().SaveWithLock(ctx, invoice); err != nil {
			return err
		}
		if err := repos.Events().Save(ctx, invoice.GetDomainEvents()...); err != nil {
			return err
		}
		invoice.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice cancelled",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("reason", reason))
	return invoice, nil
}

// FindOrCreateOpenInvoice returns the patient's open invoice for a service
// day, creating an empty one when none exists. Concurrent callers race on
// the unique open key; the loser re-reads and returns the winner's invoice.
func (s *InvoiceService) FindOrCreateOpenInvoice(ctx context.Context, hospitalID, patientID uuid.UUID, day time.Time) (*billing.Invoice, error) {
	key := billing.OpenInvoiceKey(hospitalID, patientID, day)

	existing, err := s.invoices.FindByOpenKey(ctx, hospitalID, key)
	if err == nil {
		return existing, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}

	var invoice *billing.Invoice
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := repos.Invoices().NextInvoiceNumber(ctx, hospitalID, day)
		if err != nil {
			return fmt.Errorf("generate invoice number: %w", err)
		}
		invoice, err = billing.NewInvoice(hospitalID, patientID, number, billing.PayerTypePatient, day, nil)
		if err != nil {
			return err
		}
		if err := repos.Invoices().Save(ctx, invoice); err != nil {
			return err
		}
		if err := repos.Events().Save(ctx, invoice.GetDomainEvents()...); err != nil {
			return err
		}
		invoice.ClearDomainEvents()
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) || shared.ErrorCode(err) == shared.CodeAlreadyExists {
			// another request won the open-key race
			return s.invoices.FindByOpenKey(ctx, hospitalID, key)
		}
		return nil, err
	}
	return invoice, nil
}

// GetInvoice retrieves an invoice with its items
func (s *InvoiceService) GetInvoice(ctx context.Context, hospitalID, invoiceID uuid.UUID) (*billing.Invoice, error) {
	return s.invoices.FindByID(ctx, hospitalID, invoiceID)
}

// ListInvoices retrieves invoices matching the filter
func (s *InvoiceService) ListInvoices(ctx context.Context, hospitalID uuid.UUID, filter billing.InvoiceFilter) (shared.Paginated[*billing.Invoice], error) {
	return s.invoices.List(ctx, hospitalID, filter)
}

func (s *InvoiceService) buildItems(reqs []InvoiceItemRequest) ([]*billing.InvoiceItem, error) {
	items := make([]*billing.InvoiceItem, 0, len(reqs))
	for _, req := range reqs {
		item, err := s.buildItem(req)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// buildItem prices a coded item through the charge master; an uncoded item
// must carry its own description and unit price
func (s *InvoiceService) buildItem(req InvoiceItemRequest) (*billing.InvoiceItem, error) {
	description := req.Description
	category := req.Category
	unitPrice := req.UnitPrice

	if req.ChargeCode != nil && *req.ChargeCode != "" {
		charge, err := s.prices.Resolve(*req.ChargeCode)
		if err != nil {
			return nil, err
		}
		description = charge.Description
		category = charge.Category
		unitPrice = charge.UnitPrice
	}

	quantity := req.Quantity
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}
	return billing.NewInvoiceItem(description, category, req.ChargeCode, quantity, unitPrice, req.Discount)
}
