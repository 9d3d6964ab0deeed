package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hospital/backend/internal/domain/report"
)

// GormReportQueryRepository implements report.QueryRepository with read-only
// SQL aggregates over the billing and insurance tables. The pure builders in
// the report package do the rest.
type GormReportQueryRepository struct {
	db *gorm.DB
}

// NewGormReportQueryRepository creates a new GormReportQueryRepository
func NewGormReportQueryRepository(db *gorm.DB) *GormReportQueryRepository {
	return &GormReportQueryRepository{db: db}
}

// OpenReceivables returns invoices with a positive balance as of a time
func (r *GormReportQueryRepository) OpenReceivables(ctx context.Context, hospitalID uuid.UUID, asOf time.Time) ([]report.OpenReceivable, error) {
	var rows []report.OpenReceivable
	err := r.db.WithContext(ctx).Raw(`
		SELECT id AS invoice_id,
		       patient_id,
		       payer_type,
		       created_at AS invoice_date,
		       due_date,
		       balance_amount AS balance
		FROM invoices
		WHERE hospital_id = ?
		  AND status IN ('PENDING', 'PARTIALLY_PAID')
		  AND balance_amount > 0
		  AND created_at <= ?
		ORDER BY created_at ASC`,
		hospitalID, asOf).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// RevenueRows returns billed revenue grouped along a dimension, excluding
// cancelled invoices. Rows with no value on the grouping axis fall into an
// UNASSIGNED group.
func (r *GormReportQueryRepository) RevenueRows(ctx context.Context, hospitalID uuid.UUID, dimension report.RevenueDimension, from, to time.Time) ([]report.RevenueRow, error) {
	var keyExpr string
	switch dimension {
	case report.RevenueByDepartment:
		keyExpr = "COALESCE(department_id::text, 'UNASSIGNED')"
	case report.RevenueByDoctor:
		keyExpr = "COALESCE(doctor_id::text, 'UNASSIGNED')"
	case report.RevenueByPayer:
		keyExpr = "payer_type"
	default:
		return nil, fmt.Errorf("unknown revenue dimension: %s", dimension)
	}

	var rows []report.RevenueRow
	err := r.db.WithContext(ctx).Raw(fmt.Sprintf(`
		SELECT %s AS key,
		       COALESCE(SUM(total_amount), 0) AS amount
		FROM invoices
		WHERE hospital_id = ?
		  AND status <> 'CANCELLED'
		  AND created_at >= ? AND created_at < ?
		GROUP BY 1
		ORDER BY amount DESC`, keyExpr),
		hospitalID, from, to).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CollectionRows returns billed and collected amounts per time bucket.
// Billed comes from invoice creation, collected from payment receipt, so a
// bucket can show collections against invoices billed in an earlier one.
func (r *GormReportQueryRepository) CollectionRows(ctx context.Context, hospitalID uuid.UUID, from, to time.Time, bucket report.CollectionBucket) ([]report.CollectionRow, error) {
	var trunc string
	switch bucket {
	case report.CollectionByDay:
		trunc = "day"
	case report.CollectionByWeek:
		trunc = "week"
	case report.CollectionByMonth:
		trunc = "month"
	default:
		return nil, fmt.Errorf("unknown collection bucket: %s", bucket)
	}

	var rows []report.CollectionRow
	err := r.db.WithContext(ctx).Raw(fmt.Sprintf(`
		SELECT period, SUM(billed) AS billed, SUM(collected) AS collected
		FROM (
			SELECT to_char(date_trunc('%[1]s', created_at), 'YYYY-MM-DD') AS period,
			       total_amount AS billed,
			       0 AS collected
			FROM invoices
			WHERE hospital_id = ?
			  AND status <> 'CANCELLED'
			  AND created_at >= ? AND created_at < ?
			UNION ALL
			SELECT to_char(date_trunc('%[1]s', paid_at), 'YYYY-MM-DD') AS period,
			       0 AS billed,
			       amount AS collected
			FROM payments
			WHERE hospital_id = ?
			  AND paid_at >= ? AND paid_at < ?
		) buckets
		GROUP BY period
		ORDER BY period ASC`, trunc),
		hospitalID, from, to, hospitalID, from, to).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ClaimOutcomes returns claim snapshots submitted within the period
func (r *GormReportQueryRepository) ClaimOutcomes(ctx context.Context, hospitalID uuid.UUID, from, to time.Time) ([]report.ClaimOutcome, error) {
	var rows []report.ClaimOutcome
	err := r.db.WithContext(ctx).Raw(`
		SELECT id AS claim_id,
		       status,
		       claim_amount,
		       approved_amount,
		       denial_reason_code,
		       submitted_at,
		       processed_at
		FROM insurance_claims
		WHERE hospital_id = ?
		  AND submitted_at >= ? AND submitted_at < ?
		ORDER BY submitted_at ASC`,
		hospitalID, from, to).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Ensure GormReportQueryRepository implements report.QueryRepository
var _ report.QueryRepository = (*GormReportQueryRepository)(nil)
