package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/shared"
)

// CreateWriteOffRequest carries the input for filing a write-off request
type CreateWriteOffRequest struct {
	InvoiceID   uuid.UUID
	Amount      decimal.Decimal
	Reason      string
	Category    billing.WriteOffCategory
	RequestedBy uuid.UUID
}

// WriteOffService manages the write-off approval workflow
type WriteOffService struct {
	invoices  billing.InvoiceRepository
	writeOffs billing.WriteOffRepository
	scope     TransactionScope
	logger    *zap.Logger
}

// NewWriteOffService creates a new write-off service
func NewWriteOffService(invoices billing.InvoiceRepository, writeOffs billing.WriteOffRepository, scope TransactionScope, logger *zap.Logger) *WriteOffService {
	return &WriteOffService{
		invoices:  invoices,
		writeOffs: writeOffs,
		scope:     scope,
		logger:    logger,
	}
}

// CreateWriteOff files a write-off request against an invoice balance
func (s *WriteOffService) CreateWriteOff(ctx context.Context, hospitalID uuid.UUID, req CreateWriteOffRequest) (*billing.WriteOff, error) {
	invoice, err := s.invoices.FindByID(ctx, hospitalID, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if err := validateWriteOffAmount(invoice, req.Amount); err != nil {
		return nil, err
	}

	var writeOff *billing.WriteOff
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		fresh, err := repos.Invoices().FindByID(ctx, hospitalID, req.InvoiceID)
		if err != nil {
			return err
		}
		if err := validateWriteOffAmount(fresh, req.Amount); err != nil {
			return err
		}

		writeOff, err = billing.NewWriteOff(hospitalID, req.InvoiceID, req.Amount, req.Reason, req.Category, req.RequestedBy)
		if err != nil {
			return err
		}
		if err := repos.WriteOffs().Save(ctx, writeOff); err != nil {
			return err
		}
		if err := repos.Events().Save(ctx, writeOff.GetDomainEvents()...); err != nil {
			return err
		}
		writeOff.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("write-off requested",
		zap.String("write_off_id", writeOff.ID.String()),
		zap.String("invoice_id", req.InvoiceID.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("category", string(req.Category)))
	return writeOff, nil
}

// UpdateWriteOffStatus decides a pending write-off. Approval atomically
// decrements the invoice balance (floored at zero) in the same transaction;
// rejection touches only the write-off.
func (s *WriteOffService) UpdateWriteOffStatus(ctx context.Context, hospitalID, writeOffID uuid.UUID, approve bool, decidedBy uuid.UUID) (*billing.WriteOff, error) {
	var writeOff *billing.WriteOff
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		writeOff, err = repos.WriteOffs().FindByID(ctx, hospitalID, writeOffID)
		if err != nil {
			return err
		}

		if approve {
			if err := writeOff.Approve(decidedBy); err != nil {
				return err
			}
			invoice, err := repos.Invoices().FindByID(ctx, hospitalID, writeOff.InvoiceID)
			if err != nil {
				return err
			}
			if err := invoice.ApplyWriteOff(writeOff.Amount); err != nil {
				return err
			}
			if err := repos.Invoices().SaveWithLock(ctx, invoice); err != nil {
				return err
			}
		} else {
			if err := writeOff.Reject(decidedBy); err != nil {
				return err
			}
		}

		if err := repos.WriteOffs().SaveWithLock(ctx, writeOff); err != nil {
			return err
		}
		if err := repos.Events().Save(ctx, writeOff.GetDomainEvents()...); err != nil {
			return err
		}
		writeOff.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("write-off decided",
		zap.String("write_off_id", writeOffID.String()),
		zap.String("status", string(writeOff.Status)))
	return writeOff, nil
}

// ListWriteOffs retrieves write-off requests matching the filter
func (s *WriteOffService) ListWriteOffs(ctx context.Context, hospitalID uuid.UUID, filter billing.WriteOffFilter) (shared.Paginated[*billing.WriteOff], error) {
	return s.writeOffs.List(ctx, hospitalID, filter)
}

func validateWriteOffAmount(invoice *billing.Invoice, amount decimal.Decimal) error {
	if !invoice.IsOpen() {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot write off invoice in status %s", invoice.Status))
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("Write-off amount must be positive")
	}
	if amount.GreaterThan(invoice.BalanceAmount) {
		return shared.NewValidationError(fmt.Sprintf(
			"Write-off amount (%s) exceeds invoice balance (%s)",
			amount.StringFixed(2), invoice.BalanceAmount.StringFixed(2)))
	}
	return nil
}
