package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/shared"
	"github.com/hospital/backend/internal/infrastructure/persistence/models"
)

// GormWriteOffRepository implements billing.WriteOffRepository using GORM
type GormWriteOffRepository struct {
	db *gorm.DB
}

// NewGormWriteOffRepository creates a new GormWriteOffRepository
func NewGormWriteOffRepository(db *gorm.DB) *GormWriteOffRepository {
	return &GormWriteOffRepository{db: db}
}

// Save creates or updates a write-off request
func (r *GormWriteOffRepository) Save(ctx context.Context, writeOff *billing.WriteOff) error {
	var model models.WriteOffModel
	model.FromDomain(writeOff)
	return r.db.WithContext(ctx).Save(&model).Error
}

// SaveWithLock updates a write-off guarded by the optimistic version check
func (r *GormWriteOffRepository) SaveWithLock(ctx context.Context, writeOff *billing.WriteOff) error {
	var model models.WriteOffModel
	model.FromDomain(writeOff)
	model.Version = writeOff.GetVersion() + 1

	result := r.db.WithContext(ctx).
		Model(&models.WriteOffModel{}).
		Where("id = ? AND version = ?", writeOff.ID, writeOff.GetVersion()).
		Select("*").Omit("created_at").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	writeOff.IncrementVersion()
	return nil
}

// FindByID retrieves a write-off by ID
func (r *GormWriteOffRepository) FindByID(ctx context.Context, hospitalID, id uuid.UUID) (*billing.WriteOff, error) {
	var model models.WriteOffModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND id = ?", hospitalID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Write-off not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List retrieves write-offs matching the filter
func (r *GormWriteOffRepository) List(ctx context.Context, hospitalID uuid.UUID, filter billing.WriteOffFilter) (shared.Paginated[*billing.WriteOff], error) {
	query := r.db.WithContext(ctx).Model(&models.WriteOffModel{}).
		Where("hospital_id = ?", hospitalID)

	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[*billing.WriteOff]{}, err
	}

	page, pageSize := normalizePage(filter.Filter)
	var writeOffModels []models.WriteOffModel
	if err := query.
		Order(orderClause(filter.Filter)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&writeOffModels).Error; err != nil {
		return shared.Paginated[*billing.WriteOff]{}, err
	}

	writeOffs := make([]*billing.WriteOff, len(writeOffModels))
	for i := range writeOffModels {
		writeOffs[i] = writeOffModels[i].ToDomain()
	}
	return shared.NewPaginated(writeOffs, total, page, pageSize), nil
}
