package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/shared"
	"github.com/hospital/backend/internal/infrastructure/persistence/models"
)

// GormPaymentRepository implements billing.PaymentRepository using GORM.
// Payments are append-only; the repository exposes no update or delete.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Save persists a new payment record
func (r *GormPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	var model models.PaymentModel
	model.FromDomain(payment)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

// FindByID retrieves a payment by ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, hospitalID, id uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND id = ?", hospitalID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Payment not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoice retrieves all payments for an invoice, oldest first
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, hospitalID, invoiceID uuid.UUID) ([]*billing.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND invoice_id = ?", hospitalID, invoiceID).
		Order("paid_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]*billing.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = paymentModels[i].ToDomain()
	}
	return payments, nil
}

// NextPaymentNumber generates the next payment number for the given day,
// formatted PAY-YYYYMMDD-NNNNN
func (r *GormPaymentRepository) NextPaymentNumber(ctx context.Context, hospitalID uuid.UUID, day time.Time) (string, error) {
	prefix := fmt.Sprintf("PAY-%s-", day.UTC().Format("20060102"))
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("hospital_id = ? AND payment_number LIKE ?", hospitalID, prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}
