package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/backend/internal/domain/shared"
)

// WriteOffCategory classifies why a balance is being forgiven
type WriteOffCategory string

const (
	WriteOffCategoryCharity        WriteOffCategory = "CHARITY"
	WriteOffCategoryBadDebt        WriteOffCategory = "BAD_DEBT"
	WriteOffCategoryContractual    WriteOffCategory = "CONTRACTUAL"
	WriteOffCategoryAdministrative WriteOffCategory = "ADMINISTRATIVE"
	WriteOffCategorySmallBalance   WriteOffCategory = "SMALL_BALANCE"
)

// IsValid checks if the write-off category is valid
func (c WriteOffCategory) IsValid() bool {
	switch c {
	case WriteOffCategoryCharity, WriteOffCategoryBadDebt, WriteOffCategoryContractual,
		WriteOffCategoryAdministrative, WriteOffCategorySmallBalance:
		return true
	}
	return false
}

// WriteOffStatus represents the approval status of a write-off request
type WriteOffStatus string

const (
	WriteOffStatusPending  WriteOffStatus = "PENDING"
	WriteOffStatusApproved WriteOffStatus = "APPROVED"
	WriteOffStatusRejected WriteOffStatus = "REJECTED"
)

// WriteOff is a request to forgive part of an invoice balance. It goes
// through a PENDING -> APPROVED/REJECTED workflow; only an approval touches
// the invoice ledger.
type WriteOff struct {
	shared.HospitalAggregateRoot
	InvoiceID   uuid.UUID
	Amount      decimal.Decimal
	Reason      string
	Category    WriteOffCategory
	Status      WriteOffStatus
	RequestedBy uuid.UUID
	ApprovedBy  *uuid.UUID
	DecidedAt   *time.Time
}

// NewWriteOff creates a new pending write-off request
func NewWriteOff(hospitalID, invoiceID uuid.UUID, amount decimal.Decimal, reason string, category WriteOffCategory, requestedBy uuid.UUID) (*WriteOff, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewValidationError("Invoice ID is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("Write-off amount must be positive")
	}
	if reason == "" {
		return nil, shared.NewValidationError("Write-off reason is required")
	}
	if !category.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Invalid write-off category: %s", category))
	}

	w := &WriteOff{
		HospitalAggregateRoot: shared.NewHospitalAggregateRoot(hospitalID),
		InvoiceID:             invoiceID,
		Amount:                amount,
		Reason:                reason,
		Category:              category,
		Status:                WriteOffStatusPending,
		RequestedBy:           requestedBy,
	}
	w.AddDomainEvent(NewWriteOffRequestedEvent(w))
	return w, nil
}

// IsPending returns true if the write-off is still awaiting a decision
func (w *WriteOff) IsPending() bool {
	return w.Status == WriteOffStatusPending
}

// Approve marks the write-off as approved
func (w *WriteOff) Approve(approvedBy uuid.UUID) error {
	if w.Status != WriteOffStatusPending {
		return shared.NewInvalidStateError(fmt.Sprintf("Write-off has already been decided (status: %s)", w.Status))
	}
	now := time.Now()
	w.Status = WriteOffStatusApproved
	w.ApprovedBy = &approvedBy
	w.DecidedAt = &now
	w.UpdatedAt = now

	w.AddDomainEvent(NewWriteOffApprovedEvent(w))
	return nil
}

// Reject marks the write-off as rejected
func (w *WriteOff) Reject(decidedBy uuid.UUID) error {
	if w.Status != WriteOffStatusPending {
		return shared.NewInvalidStateError(fmt.Sprintf("Write-off has already been decided (status: %s)", w.Status))
	}
	now := time.Now()
	w.Status = WriteOffStatusRejected
	w.ApprovedBy = &decidedBy
	w.DecidedAt = &now
	w.UpdatedAt = now

	w.AddDomainEvent(NewWriteOffRejectedEvent(w))
	return nil
}
