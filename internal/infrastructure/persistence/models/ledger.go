package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/backend/internal/domain/ledger"
)

// GLEntryModel is the persistence model for general ledger entries
type GLEntryModel struct {
	BaseModel
	HospitalID   uuid.UUID          `gorm:"type:uuid;not null;index"`
	EntryNumber  string             `gorm:"type:varchar(50);not null;index"`
	AccountCode  string             `gorm:"type:varchar(20);not null;index"`
	AccountType  ledger.AccountType `gorm:"type:varchar(20);not null;index"`
	CostCenter   string             `gorm:"type:varchar(50)"`
	DebitAmount  decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	CreditAmount decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Description  string             `gorm:"type:varchar(500)"`
	SourceType   string             `gorm:"type:varchar(30);not null;index"`
	SourceID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	PostedAt     time.Time          `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (GLEntryModel) TableName() string {
	return "gl_entries"
}

// ToDomain converts the persistence model to a domain GLEntry entity
func (m *GLEntryModel) ToDomain() *ledger.GLEntry {
	return &ledger.GLEntry{
		BaseEntity:   m.BaseModel.ToDomain(),
		HospitalID:   m.HospitalID,
		EntryNumber:  m.EntryNumber,
		AccountCode:  m.AccountCode,
		AccountType:  m.AccountType,
		CostCenter:   m.CostCenter,
		DebitAmount:  m.DebitAmount,
		CreditAmount: m.CreditAmount,
		Description:  m.Description,
		SourceType:   m.SourceType,
		SourceID:     m.SourceID,
		PostedAt:     m.PostedAt,
	}
}

// FromDomain populates the persistence model from a domain GLEntry entity
func (m *GLEntryModel) FromDomain(e *ledger.GLEntry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.HospitalID = e.HospitalID
	m.EntryNumber = e.EntryNumber
	m.AccountCode = e.AccountCode
	m.AccountType = e.AccountType
	m.CostCenter = e.CostCenter
	m.DebitAmount = e.DebitAmount
	m.CreditAmount = e.CreditAmount
	m.Description = e.Description
	m.SourceType = e.SourceType
	m.SourceID = e.SourceID
	m.PostedAt = e.PostedAt
}
