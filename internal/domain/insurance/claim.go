package insurance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/backend/internal/domain/shared"
)

// ClaimStatus represents the adjudication status of an insurance claim
type ClaimStatus string

const (
	ClaimStatusDraft       ClaimStatus = "DRAFT"
	ClaimStatusSubmitted   ClaimStatus = "SUBMITTED"
	ClaimStatusUnderReview ClaimStatus = "UNDER_REVIEW"
	ClaimStatusApproved    ClaimStatus = "APPROVED"
	ClaimStatusRejected    ClaimStatus = "REJECTED"
	ClaimStatusPaid        ClaimStatus = "PAID"
)

// IsValid checks if the claim status is valid
func (s ClaimStatus) IsValid() bool {
	switch s {
	case ClaimStatusDraft, ClaimStatusSubmitted, ClaimStatusUnderReview,
		ClaimStatusApproved, ClaimStatusRejected, ClaimStatusPaid:
		return true
	}
	return false
}

// AppealStatus tracks whether a claim has been appealed
type AppealStatus string

const (
	AppealStatusPending     AppealStatus = "PENDING"
	AppealStatusAppealed    AppealStatus = "APPEALED"
	AppealStatusUnderReview AppealStatus = "UNDER_REVIEW"
)

// claimTransitions lists the legal adjudication moves. PAID is reachable
// from both APPROVED and REJECTED because a payer can settle a previously
// denied claim after review.
var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimStatusDraft:       {ClaimStatusSubmitted},
	ClaimStatusSubmitted:   {ClaimStatusUnderReview},
	ClaimStatusUnderReview: {ClaimStatusApproved, ClaimStatusRejected},
	ClaimStatusApproved:    {ClaimStatusPaid},
	ClaimStatusRejected:    {ClaimStatusPaid},
}

// CanTransitionTo reports whether the claim may move to the target status
func (s ClaimStatus) CanTransitionTo(target ClaimStatus) bool {
	for _, allowed := range claimTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// InsuranceClaim is the claim aggregate root. A rejected claim may be
// appealed; the appeal is a fresh claim holding OriginalClaimID, so a
// claim's appeal chain forms a parent-pointer forest.
type InsuranceClaim struct {
	shared.HospitalAggregateRoot
	InvoiceID        uuid.UUID
	ClaimNumber      string
	Provider         string
	PolicyNumber     string
	ClaimAmount      decimal.Decimal
	ApprovedAmount   *decimal.Decimal
	Status           ClaimStatus
	AppealStatus     AppealStatus
	OriginalClaimID  *uuid.UUID
	ResubmissionCode *string
	AppealNotes      string
	DenialReasonCode *string
	SubmittedAt      *time.Time
	ProcessedAt      *time.Time
	ProcessedBy      *uuid.UUID
}

// NewInsuranceClaim creates a claim in DRAFT status
func NewInsuranceClaim(hospitalID, invoiceID uuid.UUID, claimNumber, provider, policyNumber string, claimAmount decimal.Decimal) (*InsuranceClaim, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewValidationError("Invoice ID is required")
	}
	if provider == "" {
		return nil, shared.NewValidationError("Insurance provider is required")
	}
	if policyNumber == "" {
		return nil, shared.NewValidationError("Policy number is required")
	}
	if !claimAmount.IsPositive() {
		return nil, shared.NewValidationError("Claim amount must be positive")
	}
	return &InsuranceClaim{
		HospitalAggregateRoot: shared.NewHospitalAggregateRoot(hospitalID),
		InvoiceID:             invoiceID,
		ClaimNumber:           claimNumber,
		Provider:              provider,
		PolicyNumber:          policyNumber,
		ClaimAmount:           claimAmount,
		Status:                ClaimStatusDraft,
		AppealStatus:          AppealStatusPending,
	}, nil
}

// IsAppeal returns true if this claim was created as an appeal of another
func (c *InsuranceClaim) IsAppeal() bool {
	return c.OriginalClaimID != nil
}

// Submit files the claim with the payer
func (c *InsuranceClaim) Submit() error {
	if c.Status != ClaimStatusDraft {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot submit claim in status %s", c.Status))
	}
	now := time.Now()
	c.Status = ClaimStatusSubmitted
	c.SubmittedAt = &now
	c.UpdatedAt = now

	c.AddDomainEvent(NewClaimSubmittedEvent(c))
	return nil
}

// UpdateStatus applies an adjudication decision from the payer.
// approvedAmount is required for APPROVED and PAID; denialReasonCode is
// recorded on REJECTED.
func (c *InsuranceClaim) UpdateStatus(newStatus ClaimStatus, approvedAmount *decimal.Decimal, denialReasonCode *string, processedBy *uuid.UUID) error {
	if !newStatus.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("Invalid claim status: %s", newStatus))
	}
	if !c.Status.CanTransitionTo(newStatus) {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot transition claim from %s to %s", c.Status, newStatus))
	}
	if approvedAmount != nil {
		if approvedAmount.IsNegative() {
			return shared.NewValidationError("Approved amount cannot be negative")
		}
		if approvedAmount.GreaterThan(c.ClaimAmount) {
			return shared.NewValidationError("Approved amount cannot exceed the claim amount")
		}
	}

	previous := c.Status
	now := time.Now()
	c.Status = newStatus
	c.UpdatedAt = now

	switch newStatus {
	case ClaimStatusApproved, ClaimStatusPaid:
		if approvedAmount != nil {
			c.ApprovedAmount = approvedAmount
		}
		c.ProcessedAt = &now
		c.ProcessedBy = processedBy
	case ClaimStatusRejected:
		c.DenialReasonCode = denialReasonCode
		c.ProcessedAt = &now
		c.ProcessedBy = processedBy
	}

	c.AddDomainEvent(NewClaimStatusChangedEvent(c, previous))
	return nil
}

// PayoutAmount returns the amount the payer settles: the approved amount
// when present, otherwise the full claim amount
func (c *InsuranceClaim) PayoutAmount() decimal.Decimal {
	if c.ApprovedAmount != nil {
		return *c.ApprovedAmount
	}
	return c.ClaimAmount
}

// CreateAppeal creates a new DRAFT claim appealing this one. Only rejected
// claims can be appealed; the caller must persist both claims atomically
// because this also flips the original's appeal status.
func (c *InsuranceClaim) CreateAppeal(appealClaimNumber string, claimAmount decimal.Decimal, resubmissionCode *string, notes string) (*InsuranceClaim, error) {
	if c.Status != ClaimStatusRejected {
		return nil, shared.NewValidationError("Can only appeal rejected claims")
	}
	if !claimAmount.IsPositive() {
		claimAmount = c.ClaimAmount
	}

	appeal, err := NewInsuranceClaim(c.HospitalID, c.InvoiceID, appealClaimNumber, c.Provider, c.PolicyNumber, claimAmount)
	if err != nil {
		return nil, err
	}
	originalID := c.ID
	appeal.OriginalClaimID = &originalID
	appeal.ResubmissionCode = resubmissionCode
	appeal.AppealNotes = notes

	c.AppealStatus = AppealStatusAppealed
	c.UpdatedAt = time.Now()

	appeal.AddDomainEvent(NewClaimAppealCreatedEvent(appeal, c))
	return appeal, nil
}

// SubmitAppeal files an appeal claim with the payer and marks the appeal
// as under review
func (c *InsuranceClaim) SubmitAppeal() error {
	if !c.IsAppeal() {
		return shared.NewInvalidStateError("Claim is not an appeal")
	}
	if c.Status != ClaimStatusDraft {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot submit appeal in status %s", c.Status))
	}
	now := time.Now()
	c.Status = ClaimStatusSubmitted
	c.AppealStatus = AppealStatusUnderReview
	c.SubmittedAt = &now
	c.UpdatedAt = now

	c.AddDomainEvent(NewClaimAppealSubmittedEvent(c))
	return nil
}

// ClaimHistoryType tags an entry in an appeal history
type ClaimHistoryType string

const (
	ClaimHistoryOriginal ClaimHistoryType = "ORIGINAL"
	ClaimHistoryAppeal   ClaimHistoryType = "APPEAL"
)

// ClaimHistoryEntry pairs a claim with its role in the appeal chain
type ClaimHistoryEntry struct {
	Claim *InsuranceClaim  `json:"claim"`
	Type  ClaimHistoryType `json:"type"`
}

// HistoryType returns how the claim appears in an appeal history
func (c *InsuranceClaim) HistoryType() ClaimHistoryType {
	if c.IsAppeal() {
		return ClaimHistoryAppeal
	}
	return ClaimHistoryOriginal
}
