package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/insurance"
	"github.com/hospital/backend/internal/domain/shared"
)

// NotificationHandler surfaces noteworthy revenue cycle events to the
// operational log. A real deployment would fan these out to email or a
// work queue; the handler is the single place to swap that in.
type NotificationHandler struct {
	logger *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{logger: logger}
}

// EventTypes returns the events worth notifying on
func (h *NotificationHandler) EventTypes() []string {
	return []string{
		billing.EventTypeInvoiceCreated,
		billing.EventTypeInvoicePaid,
		billing.EventTypeWriteOffRequested,
		insurance.EventTypeClaimStatusChanged,
		insurance.EventTypeClaimAppealCreated,
	}
}

// Handle logs the notification
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *billing.InvoiceCreatedEvent:
		h.logger.Info("invoice opened",
			zap.String("invoice_number", e.InvoiceNumber),
			zap.String("patient_id", e.PatientID.String()),
			zap.String("payer_type", string(e.PayerType)),
			zap.String("service_day", e.ServiceDay.Format("2006-01-02")),
		)
	case *billing.InvoicePaidEvent:
		h.logger.Info("invoice settled in full",
			zap.String("invoice_number", e.InvoiceNumber),
			zap.String("patient_id", e.PatientID.String()),
			zap.String("total_amount", e.TotalAmount.String()),
		)
	case *billing.WriteOffRequestedEvent:
		h.logger.Info("write-off awaiting approval",
			zap.String("invoice_id", e.InvoiceID.String()),
			zap.String("amount", e.Amount.String()),
			zap.String("category", string(e.Category)),
		)
	case *insurance.ClaimStatusChangedEvent:
		h.logger.Info("claim status changed",
			zap.String("claim_number", e.ClaimNumber),
			zap.String("previous_status", string(e.PreviousStatus)),
			zap.String("new_status", string(e.NewStatus)),
		)
	case *insurance.ClaimAppealCreatedEvent:
		h.logger.Info("appeal drafted for rejected claim",
			zap.String("appeal_number", e.ClaimNumber),
			zap.String("original_claim_number", e.OriginalClaimNumber),
		)
	}
	return nil
}

// Ensure NotificationHandler implements EventHandler
var _ shared.EventHandler = (*NotificationHandler)(nil)
