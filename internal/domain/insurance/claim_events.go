package insurance

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/backend/internal/domain/shared"
)

// Insurance event types
const (
	EventTypeClaimSubmitted       = "insurance.claim.submitted"
	EventTypeClaimStatusChanged   = "insurance.claim.status_changed"
	EventTypeClaimAppealCreated   = "insurance.claim.appeal_created"
	EventTypeClaimAppealSubmitted = "insurance.claim.appeal_submitted"
)

// AggregateTypeClaim is the aggregate type name used in events and the outbox
const AggregateTypeClaim = "InsuranceClaim"

// ClaimSubmittedEvent is raised when a claim is filed with the payer
type ClaimSubmittedEvent struct {
	shared.BaseDomainEvent
	ClaimNumber string          `json:"claim_number"`
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Provider    string          `json:"provider"`
	ClaimAmount decimal.Decimal `json:"claim_amount"`
}

// NewClaimSubmittedEvent creates a new claim submitted event
func NewClaimSubmittedEvent(c *InsuranceClaim) *ClaimSubmittedEvent {
	return &ClaimSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimSubmitted, AggregateTypeClaim, c.ID, c.HospitalID),
		ClaimNumber:     c.ClaimNumber,
		InvoiceID:       c.InvoiceID,
		Provider:        c.Provider,
		ClaimAmount:     c.ClaimAmount,
	}
}

// ClaimStatusChangedEvent is raised on every adjudication transition
type ClaimStatusChangedEvent struct {
	shared.BaseDomainEvent
	ClaimNumber      string           `json:"claim_number"`
	InvoiceID        uuid.UUID        `json:"invoice_id"`
	PreviousStatus   ClaimStatus      `json:"previous_status"`
	NewStatus        ClaimStatus      `json:"new_status"`
	ApprovedAmount   *decimal.Decimal `json:"approved_amount,omitempty"`
	DenialReasonCode *string          `json:"denial_reason_code,omitempty"`
}

// NewClaimStatusChangedEvent creates a new claim status changed event
func NewClaimStatusChangedEvent(c *InsuranceClaim, previous ClaimStatus) *ClaimStatusChangedEvent {
	return &ClaimStatusChangedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeClaimStatusChanged, AggregateTypeClaim, c.ID, c.HospitalID),
		ClaimNumber:      c.ClaimNumber,
		InvoiceID:        c.InvoiceID,
		PreviousStatus:   previous,
		NewStatus:        c.Status,
		ApprovedAmount:   c.ApprovedAmount,
		DenialReasonCode: c.DenialReasonCode,
	}
}

// ClaimAppealCreatedEvent is raised when an appeal claim is drafted
type ClaimAppealCreatedEvent struct {
	shared.BaseDomainEvent
	ClaimNumber         string    `json:"claim_number"`
	OriginalClaimID     uuid.UUID `json:"original_claim_id"`
	OriginalClaimNumber string    `json:"original_claim_number"`
}

// NewClaimAppealCreatedEvent creates a new claim appeal created event
func NewClaimAppealCreatedEvent(appeal, original *InsuranceClaim) *ClaimAppealCreatedEvent {
	return &ClaimAppealCreatedEvent{
		BaseDomainEvent:     shared.NewBaseDomainEvent(EventTypeClaimAppealCreated, AggregateTypeClaim, appeal.ID, appeal.HospitalID),
		ClaimNumber:         appeal.ClaimNumber,
		OriginalClaimID:     original.ID,
		OriginalClaimNumber: original.ClaimNumber,
	}
}

// ClaimAppealSubmittedEvent is raised when an appeal is filed with the payer
type ClaimAppealSubmittedEvent struct {
	shared.BaseDomainEvent
	ClaimNumber     string     `json:"claim_number"`
	OriginalClaimID *uuid.UUID `json:"original_claim_id,omitempty"`
}

// NewClaimAppealSubmittedEvent creates a new claim appeal submitted event
func NewClaimAppealSubmittedEvent(c *InsuranceClaim) *ClaimAppealSubmittedEvent {
	return &ClaimAppealSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimAppealSubmitted, AggregateTypeClaim, c.ID, c.HospitalID),
		ClaimNumber:     c.ClaimNumber,
		OriginalClaimID: c.OriginalClaimID,
	}
}
