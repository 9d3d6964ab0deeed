package event

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/ledger"
	"github.com/hospital/backend/internal/domain/shared"
)

// GLPostingHandler mirrors billing events into balanced general ledger entry
// pairs. It runs behind the outbox, so a failed post is retried and
// eventually dead-lettered without ever touching the invoice, payment, or
// write-off row that raised the event.
//
// Posting rules:
//
//	item added       debit 1100 AR           credit 4000 patient revenue
//	payment received debit 1000 cash         credit 1100 AR
//	write-off        debit 5400 write-off    credit 1100 AR
//	cancelled        debit 4000 revenue      credit 1100 AR (reversal)
type GLPostingHandler struct {
	entries ledger.GLEntryRepository
	logger  *zap.Logger
}

// NewGLPostingHandler creates a new GL posting handler
func NewGLPostingHandler(entries ledger.GLEntryRepository, logger *zap.Logger) *GLPostingHandler {
	return &GLPostingHandler{entries: entries, logger: logger}
}

// EventTypes returns the billing events that produce ledger postings
func (h *GLPostingHandler) EventTypes() []string {
	return []string{
		billing.EventTypeInvoiceItemAdded,
		billing.EventTypePaymentReceived,
		billing.EventTypeWriteOffApproved,
		billing.EventTypeInvoiceCancelled,
	}
}

// Handle posts the ledger pair for one billing event
func (h *GLPostingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *billing.InvoiceItemAddedEvent:
		return h.post(ctx, e, e.TotalPrice,
			ledger.AccountAccountsReceivable, ledger.AccountTypeAsset,
			ledger.AccountPatientRevenue, ledger.AccountTypeRevenue,
			fmt.Sprintf("Charge %s on invoice %s", e.Description, e.InvoiceNumber),
			"INVOICE_ITEM", // source per line item, not per invoice
		)
	case *billing.PaymentReceivedEvent:
		return h.post(ctx, e, e.Amount,
			ledger.AccountCash, ledger.AccountTypeAsset,
			ledger.AccountAccountsReceivable, ledger.AccountTypeAsset,
			fmt.Sprintf("Payment %s on invoice %s", e.PaymentNumber, e.InvoiceNumber),
			"PAYMENT",
		)
	case *billing.WriteOffApprovedEvent:
		return h.post(ctx, e, e.Amount,
			ledger.AccountWriteOffExpense, ledger.AccountTypeExpense,
			ledger.AccountAccountsReceivable, ledger.AccountTypeAsset,
			fmt.Sprintf("Write-off (%s) on invoice %s", e.Category, e.InvoiceID),
			"WRITE_OFF",
		)
	case *billing.InvoiceCancelledEvent:
		return h.post(ctx, e, e.Subtotal,
			ledger.AccountPatientRevenue, ledger.AccountTypeRevenue,
			ledger.AccountAccountsReceivable, ledger.AccountTypeAsset,
			fmt.Sprintf("Cancellation of invoice %s", e.InvoiceNumber),
			"INVOICE_CANCELLATION",
		)
	default:
		h.logger.Debug("gl posting skipped unhandled event",
			zap.String("event_type", event.EventType()),
		)
		return nil
	}
}

// post writes one balanced debit/credit pair. The entry number is derived
// from the event ID, so the entries for a redelivered event are traceable
// back to a single delivery.
func (h *GLPostingHandler) post(
	ctx context.Context,
	event shared.DomainEvent,
	amount decimal.Decimal,
	debitAccount string, debitType ledger.AccountType,
	creditAccount string, creditType ledger.AccountType,
	description, sourceType string,
) error {
	if !amount.IsPositive() {
		return nil
	}

	entryNumber := glEntryNumber(event)
	debit, err := ledger.NewDebitEntry(event.HospitalID(), entryNumber, debitAccount, debitType, amount, description, sourceType, event.AggregateID())
	if err != nil {
		return err
	}
	credit, err := ledger.NewCreditEntry(event.HospitalID(), entryNumber, creditAccount, creditType, amount, description, sourceType, event.AggregateID())
	if err != nil {
		return err
	}

	if err := h.entries.Save(ctx, debit, credit); err != nil {
		return fmt.Errorf("failed to post gl entries: %w", err)
	}

	h.logger.Debug("posted gl entry pair",
		zap.String("entry_number", entryNumber),
		zap.String("debit_account", debitAccount),
		zap.String("credit_account", creditAccount),
		zap.String("amount", amount.String()),
	)
	return nil
}

func glEntryNumber(event shared.DomainEvent) string {
	return fmt.Sprintf("GL-%s-%s", event.OccurredAt().UTC().Format("20060102"), event.EventID().String()[:8])
}

// Ensure GLPostingHandler implements EventHandler
var _ shared.EventHandler = (*GLPostingHandler)(nil)
