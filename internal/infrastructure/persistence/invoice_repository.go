package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/shared"
	"github.com/hospital/backend/internal/infrastructure/persistence/models"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Save creates or updates an invoice with its full item set
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	var model models.InvoiceModel
	model.FromDomain(invoice)
	if err := r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(&model).Error; err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

// SaveWithLock updates an invoice guarded by the optimistic version check.
// Line items are upserted alongside; items are never removed, only added.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	var model models.InvoiceModel
	model.FromDomain(invoice)
	model.Version = invoice.GetVersion() + 1

	items := model.Items
	model.Items = nil

	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND version = ?", invoice.ID, invoice.GetVersion()).
		Select("*").Omit("created_at").
		Updates(&model)
	if result.Error != nil {
		return translateUniqueViolation(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	if len(items) > 0 {
		if err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&items).Error; err != nil {
			return err
		}
	}
	invoice.IncrementVersion()
	return nil
}

// FindByID retrieves an invoice with its items
func (r *GormInvoiceRepository) FindByID(ctx context.Context, hospitalID, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("hospital_id = ? AND id = ?", hospitalID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Invoice not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber retrieves an invoice by its invoice number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, hospitalID uuid.UUID, invoiceNumber string) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("hospital_id = ? AND invoice_number = ?", hospitalID, invoiceNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Invoice not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOpenKey retrieves the open invoice occupying a patient/day slot
func (r *GormInvoiceRepository) FindByOpenKey(ctx context.Context, hospitalID uuid.UUID, openKey string) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("hospital_id = ? AND open_key = ?", hospitalID, openKey).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("No open invoice for this patient and day")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List retrieves invoices matching the filter
func (r *GormInvoiceRepository) List(ctx context.Context, hospitalID uuid.UUID, filter billing.InvoiceFilter) (shared.Paginated[*billing.Invoice], error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("hospital_id = ?", hospitalID)

	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PayerType != nil {
		query = query.Where("payer_type = ?", *filter.PayerType)
	}
	if filter.FromDate != nil {
		query = query.Where("service_day >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("service_day <= ?", *filter.ToDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[*billing.Invoice]{}, err
	}

	page, pageSize := normalizePage(filter.Filter)
	var invoiceModels []models.InvoiceModel
	if err := query.
		Preload("Items").
		Order(orderClause(filter.Filter)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&invoiceModels).Error; err != nil {
		return shared.Paginated[*billing.Invoice]{}, err
	}

	invoices := make([]*billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = invoiceModels[i].ToDomain()
	}
	return shared.NewPaginated(invoices, total, page, pageSize), nil
}

// NextInvoiceNumber generates the next invoice number for a service day,
// formatted INV-YYYYMMDD-NNNNN. A concurrent collision surfaces as a unique
// violation on save and the caller retries.
func (r *GormInvoiceRepository) NextInvoiceNumber(ctx context.Context, hospitalID uuid.UUID, day time.Time) (string, error) {
	prefix := fmt.Sprintf("INV-%s-", billing.NormalizeServiceDay(day).Format("20060102"))
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("hospital_id = ? AND invoice_number LIKE ?", hospitalID, prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

// translateUniqueViolation maps postgres unique violations to the domain
// ALREADY_EXISTS error so callers can handle open-key races
func translateUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return shared.ErrAlreadyExists
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return err
}

func normalizePage(f shared.Filter) (int, int) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return page, pageSize
}

func orderClause(f shared.Filter) string {
	column := f.OrderBy
	if column == "" {
		column = "created_at"
	}
	direction := "DESC"
	if f.OrderDir == "asc" || f.OrderDir == "ASC" {
		direction = "ASC"
	}
	return fmt.Sprintf("%s %s", column, direction)
}
