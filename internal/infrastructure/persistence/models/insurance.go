package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/backend/internal/domain/insurance"
)

// ClaimModel is the persistence model for the InsuranceClaim aggregate root
type ClaimModel struct {
	HospitalAggregateModel
	InvoiceID        uuid.UUID              `gorm:"type:uuid;not null;index"`
	ClaimNumber      string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_claims_hospital_number,priority:2"`
	Provider         string                 `gorm:"type:varchar(200);not null;index"`
	PolicyNumber     string                 `gorm:"type:varchar(100);not null"`
	ClaimAmount      decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	ApprovedAmount   *decimal.Decimal       `gorm:"type:decimal(18,4)"`
	Status           insurance.ClaimStatus  `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	AppealStatus     insurance.AppealStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	OriginalClaimID  *uuid.UUID             `gorm:"type:uuid;index"`
	ResubmissionCode *string                `gorm:"type:varchar(50)"`
	AppealNotes      string                 `gorm:"type:text"`
	DenialReasonCode *string                `gorm:"type:varchar(50);index"`
	SubmittedAt      *time.Time             `gorm:"index"`
	ProcessedAt      *time.Time
	ProcessedBy      *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ClaimModel) TableName() string {
	return "insurance_claims"
}

// ToDomain converts the persistence model to a domain InsuranceClaim entity
func (m *ClaimModel) ToDomain() *insurance.InsuranceClaim {
	return &insurance.InsuranceClaim{
		HospitalAggregateRoot: m.ToDomainHospitalAggregateRoot(),
		InvoiceID:             m.InvoiceID,
		ClaimNumber:           m.ClaimNumber,
		Provider:              m.Provider,
		PolicyNumber:          m.PolicyNumber,
		ClaimAmount:           m.ClaimAmount,
		ApprovedAmount:        m.ApprovedAmount,
		Status:                m.Status,
		AppealStatus:          m.AppealStatus,
		OriginalClaimID:       m.OriginalClaimID,
		ResubmissionCode:      m.ResubmissionCode,
		AppealNotes:           m.AppealNotes,
		DenialReasonCode:      m.DenialReasonCode,
		SubmittedAt:           m.SubmittedAt,
		ProcessedAt:           m.ProcessedAt,
		ProcessedBy:           m.ProcessedBy,
	}
}

// FromDomain populates the persistence model from a domain InsuranceClaim entity
func (m *ClaimModel) FromDomain(c *insurance.InsuranceClaim) {
	m.FromDomainHospitalAggregateRoot(c.HospitalAggregateRoot)
	m.InvoiceID = c.InvoiceID
	m.ClaimNumber = c.ClaimNumber
	m.Provider = c.Provider
	m.PolicyNumber = c.PolicyNumber
	m.ClaimAmount = c.ClaimAmount
	m.ApprovedAmount = c.ApprovedAmount
	m.Status = c.Status
	m.AppealStatus = c.AppealStatus
	m.OriginalClaimID = c.OriginalClaimID
	m.ResubmissionCode = c.ResubmissionCode
	m.AppealNotes = c.AppealNotes
	m.DenialReasonCode = c.DenialReasonCode
	m.SubmittedAt = c.SubmittedAt
	m.ProcessedAt = c.ProcessedAt
	m.ProcessedBy = c.ProcessedBy
}
