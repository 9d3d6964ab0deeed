package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hospital/backend/internal/domain/ledger"
	"github.com/hospital/backend/internal/infrastructure/persistence/models"
)

// GormGLEntryRepository implements ledger.GLEntryRepository using GORM.
// Entries are append-only; reporting reads them back by period or account.
type GormGLEntryRepository struct {
	db *gorm.DB
}

// NewGormGLEntryRepository creates a new GormGLEntryRepository
func NewGormGLEntryRepository(db *gorm.DB) *GormGLEntryRepository {
	return &GormGLEntryRepository{db: db}
}

// Save persists one or more GL entries
func (r *GormGLEntryRepository) Save(ctx context.Context, entries ...*ledger.GLEntry) error {
	if len(entries) == 0 {
		return nil
	}
	entryModels := make([]models.GLEntryModel, len(entries))
	for i, e := range entries {
		entryModels[i].FromDomain(e)
	}
	return r.db.WithContext(ctx).Create(&entryModels).Error
}

// FindByPeriod retrieves entries posted within [from, to)
func (r *GormGLEntryRepository) FindByPeriod(ctx context.Context, hospitalID uuid.UUID, from, to time.Time) ([]*ledger.GLEntry, error) {
	var entryModels []models.GLEntryModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND posted_at >= ? AND posted_at < ?", hospitalID, from, to).
		Order("posted_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return toDomainEntries(entryModels), nil
}

// FindByAccount retrieves entries for one account within [from, to)
func (r *GormGLEntryRepository) FindByAccount(ctx context.Context, hospitalID uuid.UUID, accountCode string, from, to time.Time) ([]*ledger.GLEntry, error) {
	var entryModels []models.GLEntryModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND account_code = ? AND posted_at >= ? AND posted_at < ?", hospitalID, accountCode, from, to).
		Order("posted_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return toDomainEntries(entryModels), nil
}

// FindBySource retrieves the entries posted for a source document
func (r *GormGLEntryRepository) FindBySource(ctx context.Context, hospitalID uuid.UUID, sourceType string, sourceID uuid.UUID) ([]*ledger.GLEntry, error) {
	var entryModels []models.GLEntryModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND source_type = ? AND source_id = ?", hospitalID, sourceType, sourceID).
		Order("posted_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return toDomainEntries(entryModels), nil
}

// FindAsOf retrieves all entries posted up to the given time
func (r *GormGLEntryRepository) FindAsOf(ctx context.Context, hospitalID uuid.UUID, asOf time.Time) ([]*ledger.GLEntry, error) {
	var entryModels []models.GLEntryModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND posted_at <= ?", hospitalID, asOf).
		Order("posted_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return toDomainEntries(entryModels), nil
}

func toDomainEntries(entryModels []models.GLEntryModel) []*ledger.GLEntry {
	entries := make([]*ledger.GLEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries
}
