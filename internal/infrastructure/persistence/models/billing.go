package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/backend/internal/domain/billing"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// The invoice number is unique per hospital; the open key is globally
// unique and nullable, so only an open PENDING invoice occupies its
// patient/day slot.
type InvoiceModel struct {
	HospitalAggregateModel
	InvoiceNumber string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoices_hospital_number,priority:2"`
	PatientID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	EncounterID   *uuid.UUID            `gorm:"type:uuid;index"`
	DepartmentID  *uuid.UUID            `gorm:"type:uuid;index"`
	DoctorID      *uuid.UUID            `gorm:"type:uuid;index"`
	PayerType     billing.PayerType     `gorm:"type:varchar(20);not null;index"`
	ServiceDay    time.Time             `gorm:"type:date;not null;index"`
	Subtotal      decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Discount      decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Tax           decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	TotalAmount   decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PaidAmount    decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	BalanceAmount decimal.Decimal       `gorm:"type:decimal(18,4);not null;index"`
	Status        billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	DueDate       *time.Time            `gorm:"index"`
	OpenKey       *string               `gorm:"type:varchar(120);uniqueIndex:idx_invoices_open_key"`
	CancelledAt   *time.Time
	CancelReason  string             `gorm:"type:varchar(500)"`
	Items         []InvoiceItemModel `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	items := make([]*billing.InvoiceItem, 0, len(m.Items))
	for i := range m.Items {
		items = append(items, m.Items[i].ToDomain())
	}
	return &billing.Invoice{
		HospitalAggregateRoot: m.ToDomainHospitalAggregateRoot(),
		InvoiceNumber:         m.InvoiceNumber,
		PatientID:             m.PatientID,
		EncounterID:           m.EncounterID,
		DepartmentID:          m.DepartmentID,
		DoctorID:              m.DoctorID,
		PayerType:             m.PayerType,
		ServiceDay:            m.ServiceDay,
		Subtotal:              m.Subtotal,
		Discount:              m.Discount,
		Tax:                   m.Tax,
		TotalAmount:           m.TotalAmount,
		PaidAmount:            m.PaidAmount,
		BalanceAmount:         m.BalanceAmount,
		Status:                m.Status,
		DueDate:               m.DueDate,
		OpenKey:               m.OpenKey,
		CancelledAt:           m.CancelledAt,
		CancelReason:          m.CancelReason,
		Items:                 items,
	}
}

// FromDomain populates the persistence model from a domain Invoice entity
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainHospitalAggregateRoot(inv.HospitalAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.PatientID = inv.PatientID
	m.EncounterID = inv.EncounterID
	m.DepartmentID = inv.DepartmentID
	m.DoctorID = inv.DoctorID
	m.PayerType = inv.PayerType
	m.ServiceDay = inv.ServiceDay
	m.Subtotal = inv.Subtotal
	m.Discount = inv.Discount
	m.Tax = inv.Tax
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.BalanceAmount = inv.BalanceAmount
	m.Status = inv.Status
	m.DueDate = inv.DueDate
	m.OpenKey = inv.OpenKey
	m.CancelledAt = inv.CancelledAt
	m.CancelReason = inv.CancelReason

	m.Items = make([]InvoiceItemModel, 0, len(inv.Items))
	for _, item := range inv.Items {
		var im InvoiceItemModel
		im.FromDomain(item)
		m.Items = append(m.Items, im)
	}
}

// InvoiceItemModel is the persistence model for invoice line items
type InvoiceItemModel struct {
	BaseModel
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:varchar(200);not null"`
	Category    string          `gorm:"type:varchar(50);not null;index"`
	ChargeCode  *string         `gorm:"type:varchar(50);index"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain InvoiceItem entity
func (m *InvoiceItemModel) ToDomain() *billing.InvoiceItem {
	return &billing.InvoiceItem{
		BaseEntity:  m.BaseModel.ToDomain(),
		InvoiceID:   m.InvoiceID,
		Description: m.Description,
		Category:    m.Category,
		ChargeCode:  m.ChargeCode,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Discount:    m.Discount,
		TotalPrice:  m.TotalPrice,
	}
}

// FromDomain populates the persistence model from a domain InvoiceItem entity
func (m *InvoiceItemModel) FromDomain(item *billing.InvoiceItem) {
	m.FromDomainBaseEntity(item.BaseEntity)
	m.InvoiceID = item.InvoiceID
	m.Description = item.Description
	m.Category = item.Category
	m.ChargeCode = item.ChargeCode
	m.Quantity = item.Quantity
	m.UnitPrice = item.UnitPrice
	m.Discount = item.Discount
	m.TotalPrice = item.TotalPrice
}

// PaymentModel is the persistence model for payment records. Rows are
// append-only.
type PaymentModel struct {
	BaseModel
	HospitalID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	InvoiceID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	PaymentNumber string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_payments_hospital_number,priority:2"`
	Amount        decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Method        billing.PaymentMethod `gorm:"type:varchar(20);not null;index"`
	Reference     string                `gorm:"type:varchar(100)"`
	ReceivedBy    *uuid.UUID            `gorm:"type:uuid"`
	PaidAt        time.Time             `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		BaseEntity:    m.BaseModel.ToDomain(),
		HospitalID:    m.HospitalID,
		InvoiceID:     m.InvoiceID,
		PaymentNumber: m.PaymentNumber,
		Amount:        m.Amount,
		Method:        m.Method,
		Reference:     m.Reference,
		ReceivedBy:    m.ReceivedBy,
		PaidAt:        m.PaidAt,
	}
}

// FromDomain populates the persistence model from a domain Payment entity
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.HospitalID = p.HospitalID
	m.InvoiceID = p.InvoiceID
	m.PaymentNumber = p.PaymentNumber
	m.Amount = p.Amount
	m.Method = p.Method
	m.Reference = p.Reference
	m.ReceivedBy = p.ReceivedBy
	m.PaidAt = p.PaidAt
}

// WriteOffModel is the persistence model for write-off requests
type WriteOffModel struct {
	HospitalAggregateModel
	InvoiceID   uuid.UUID                `gorm:"type:uuid;not null;index"`
	Amount      decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Reason      string                   `gorm:"type:varchar(500);not null"`
	Category    billing.WriteOffCategory `gorm:"type:varchar(30);not null;index"`
	Status      billing.WriteOffStatus   `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	RequestedBy uuid.UUID                `gorm:"type:uuid;not null"`
	ApprovedBy  *uuid.UUID               `gorm:"type:uuid"`
	DecidedAt   *time.Time
}

// TableName returns the table name for GORM
func (WriteOffModel) TableName() string {
	return "write_offs"
}

// ToDomain converts the persistence model to a domain WriteOff entity
func (m *WriteOffModel) ToDomain() *billing.WriteOff {
	return &billing.WriteOff{
		HospitalAggregateRoot: m.ToDomainHospitalAggregateRoot(),
		InvoiceID:             m.InvoiceID,
		Amount:                m.Amount,
		Reason:                m.Reason,
		Category:              m.Category,
		Status:                m.Status,
		RequestedBy:           m.RequestedBy,
		ApprovedBy:            m.ApprovedBy,
		DecidedAt:             m.DecidedAt,
	}
}

// FromDomain populates the persistence model from a domain WriteOff entity
func (m *WriteOffModel) FromDomain(w *billing.WriteOff) {
	m.FromDomainHospitalAggregateRoot(w.HospitalAggregateRoot)
	m.InvoiceID = w.InvoiceID
	m.Amount = w.Amount
	m.Reason = w.Reason
	m.Category = w.Category
	m.Status = w.Status
	m.RequestedBy = w.RequestedBy
	m.ApprovedBy = w.ApprovedBy
	m.DecidedAt = w.DecidedAt
}
