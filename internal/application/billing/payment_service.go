package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/shared"
)

// AddPaymentRequest carries the input for recording a payment
type AddPaymentRequest struct {
	Amount     decimal.Decimal
	Method     billing.PaymentMethod
	Reference  string
	ReceivedBy *uuid.UUID
}

// PaymentService records payments against invoices
type PaymentService struct {
	invoices billing.InvoiceRepository
	payments billing.PaymentRepository
	scope    TransactionScope
	logger   *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(invoices billing.InvoiceRepository, payments billing.PaymentRepository, scope TransactionScope, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		invoices: invoices,
		payments: payments,
		scope:    scope,
		logger:   logger,
	}
}

// AddPayment applies a payment to an invoice. Validation runs against the
// current invoice before any transaction opens, so a rejected payment
// creates no row and no transaction. Inside the scope the invoice is
// re-read and re-validated; together with the version lock this blocks two
// concurrent payments from overdrawing the balance.
func (s *PaymentService) AddPayment(ctx context.Context, hospitalID, invoiceID uuid.UUID, req AddPaymentRequest) (*billing.Payment, error) {
	invoice, err := s.invoices.FindByID(ctx, hospitalID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := validatePayment(invoice, req.Amount); err != nil {
		return nil, err
	}
	if !req.Method.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Invalid payment method: %s", req.Method))
	}

	var payment *billing.Payment
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		fresh, err := repos.Invoices().FindByID(ctx, hospitalID, invoiceID)
		if err != nil {
			return err
		}

		number, err := repos.Payments().NextPaymentNumber(ctx, hospitalID, time.Now())
		if err != nil {
			return fmt.Errorf("generate payment number: %w", err)
		}
		payment, err = billing.NewPayment(hospitalID, invoiceID, number, req.Amount, req.Method, req.Reference, req.ReceivedBy)
		if err != nil {
			return err
		}

		// the payment row exists before the invoice ledger moves; both
		// commit or neither does
		if err := repos.Payments().Save(ctx, payment); err != nil {
			return err
		}
		if err := fresh.ApplyPayment(payment); err != nil {
			return err
		}
		if err := repos.Invoices().SaveWithLock(ctx, fresh); err != nil {
			return err
		}
		if err := repos.Events().Save(ctx, fresh.GetDomainEvents()...); err != nil {
			return err
		}
		fresh.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("payment_number", payment.PaymentNumber),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("method", string(payment.Method)))
	return payment, nil
}

// ListPayments retrieves all payments for an invoice, oldest first
func (s *PaymentService) ListPayments(ctx context.Context, hospitalID, invoiceID uuid.UUID) ([]*billing.Payment, error) {
	if _, err := s.invoices.FindByID(ctx, hospitalID, invoiceID); err != nil {
		return nil, err
	}
	return s.payments.FindByInvoice(ctx, hospitalID, invoiceID)
}

// validatePayment mirrors the aggregate's payment checks without mutating it
func validatePayment(invoice *billing.Invoice, amount decimal.Decimal) error {
	if invoice.Status == billing.InvoiceStatusCancelled || invoice.Status == billing.InvoiceStatusRefunded {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot apply payment to invoice in status %s", invoice.Status))
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("Payment amount must be positive")
	}
	if amount.GreaterThan(invoice.BalanceAmount) {
		return shared.NewValidationError(fmt.Sprintf(
			"Payment amount (%s) exceeds remaining balance (%s)",
			amount.StringFixed(2), invoice.BalanceAmount.StringFixed(2)))
	}
	return nil
}
