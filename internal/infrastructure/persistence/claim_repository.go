package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hospital/backend/internal/domain/insurance"
	"github.com/hospital/backend/internal/domain/shared"
	"github.com/hospital/backend/internal/infrastructure/persistence/models"
)

// GormClaimRepository implements insurance.ClaimRepository using GORM
type GormClaimRepository struct {
	db *gorm.DB
}

// NewGormClaimRepository creates a new GormClaimRepository
func NewGormClaimRepository(db *gorm.DB) *GormClaimRepository {
	return &GormClaimRepository{db: db}
}

// Save creates or updates a claim
func (r *GormClaimRepository) Save(ctx context.Context, claim *insurance.InsuranceClaim) error {
	var model models.ClaimModel
	model.FromDomain(claim)
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

// SaveWithLock updates a claim guarded by the optimistic version check
func (r *GormClaimRepository) SaveWithLock(ctx context.Context, claim *insurance.InsuranceClaim) error {
	var model models.ClaimModel
	model.FromDomain(claim)
	model.Version = claim.GetVersion() + 1

	result := r.db.WithContext(ctx).
		Model(&models.ClaimModel{}).
		Where("id = ? AND version = ?", claim.ID, claim.GetVersion()).
		Select("*").Omit("created_at").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	claim.IncrementVersion()
	return nil
}

// FindByID retrieves a claim by ID
func (r *GormClaimRepository) FindByID(ctx context.Context, hospitalID, id uuid.UUID) (*insurance.InsuranceClaim, error) {
	var model models.ClaimModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND id = ?", hospitalID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Claim not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber retrieves a claim by its claim number
func (r *GormClaimRepository) FindByNumber(ctx context.Context, hospitalID uuid.UUID, claimNumber string) (*insurance.InsuranceClaim, error) {
	var model models.ClaimModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND claim_number = ?", hospitalID, claimNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Claim not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOriginal retrieves the direct appeals of a claim, newest first
func (r *GormClaimRepository) FindByOriginal(ctx context.Context, hospitalID, originalClaimID uuid.UUID) ([]*insurance.InsuranceClaim, error) {
	var claimModels []models.ClaimModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND original_claim_id = ?", hospitalID, originalClaimID).
		Order("created_at DESC").
		Find(&claimModels).Error; err != nil {
		return nil, err
	}
	claims := make([]*insurance.InsuranceClaim, len(claimModels))
	for i := range claimModels {
		claims[i] = claimModels[i].ToDomain()
	}
	return claims, nil
}

// List retrieves claims matching the filter
func (r *GormClaimRepository) List(ctx context.Context, hospitalID uuid.UUID, filter insurance.ClaimFilter) (shared.Paginated[*insurance.InsuranceClaim], error) {
	query := r.db.WithContext(ctx).Model(&models.ClaimModel{}).
		Where("hospital_id = ?", hospitalID)

	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Provider != nil {
		query = query.Where("provider = ?", *filter.Provider)
	}
	if filter.FromDate != nil {
		query = query.Where("submitted_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("submitted_at < ?", *filter.ToDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[*insurance.InsuranceClaim]{}, err
	}

	page, pageSize := normalizePage(filter.Filter)
	var claimModels []models.ClaimModel
	if err := query.
		Order(orderClause(filter.Filter)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&claimModels).Error; err != nil {
		return shared.Paginated[*insurance.InsuranceClaim]{}, err
	}

	claims := make([]*insurance.InsuranceClaim, len(claimModels))
	for i := range claimModels {
		claims[i] = claimModels[i].ToDomain()
	}
	return shared.NewPaginated(claims, total, page, pageSize), nil
}

// NextClaimNumber generates the next claim number for the given day,
// formatted CLM-YYYYMMDD-NNNNN
func (r *GormClaimRepository) NextClaimNumber(ctx context.Context, hospitalID uuid.UUID, day time.Time) (string, error) {
	prefix := fmt.Sprintf("CLM-%s-", day.UTC().Format("20060102"))
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ClaimModel{}).
		Where("hospital_id = ? AND claim_number LIKE ?", hospitalID, prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}
