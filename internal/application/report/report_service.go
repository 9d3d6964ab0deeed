package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hospital/backend/internal/domain/ledger"
	"github.com/hospital/backend/internal/domain/report"
	"github.com/hospital/backend/internal/domain/shared"
)

// Period is a half-open reporting interval [From, To)
type Period struct {
	From time.Time
	To   time.Time
}

// Validate checks that the period is well formed
func (p Period) Validate() error {
	if p.From.IsZero() || p.To.IsZero() {
		return shared.NewValidationError("Report period is required")
	}
	if !p.To.After(p.From) {
		return shared.NewValidationError("Report period end must be after its start")
	}
	return nil
}

// ReportService assembles financial reports from query-side rows and the
// general ledger. All aggregation is pure; this service only fetches and
// delegates.
type ReportService struct {
	queries report.QueryRepository
	entries ledger.GLEntryRepository
	logger  *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(queries report.QueryRepository, entries ledger.GLEntryRepository, logger *zap.Logger) *ReportService {
	return &ReportService{
		queries: queries,
		entries: entries,
		logger:  logger,
	}
}

// GetARAging buckets outstanding receivables by age as of a point in time
func (s *ReportService) GetARAging(ctx context.Context, hospitalID uuid.UUID, asOf time.Time, detailed bool) (*report.ARAgingReport, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	receivables, err := s.queries.OpenReceivables(ctx, hospitalID, asOf)
	if err != nil {
		return nil, err
	}
	return report.BuildARAgingReport(asOf, receivables, detailed), nil
}

// GetRevenueBreakdown groups billed revenue along a dimension over a period
func (s *ReportService) GetRevenueBreakdown(ctx context.Context, hospitalID uuid.UUID, dimension report.RevenueDimension, period Period) (*report.RevenueBreakdown, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.queries.RevenueRows(ctx, hospitalID, dimension, period.From, period.To)
	if err != nil {
		return nil, err
	}
	return report.BuildRevenueBreakdown(dimension, period.From, period.To, rows), nil
}

// GetCollectionRate reports billed versus collected amounts over a period,
// bucketed by day, week or month
func (s *ReportService) GetCollectionRate(ctx context.Context, hospitalID uuid.UUID, period Period, bucket report.CollectionBucket) (*report.CollectionSummary, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.queries.CollectionRows(ctx, hospitalID, period.From, period.To, bucket)
	if err != nil {
		return nil, err
	}
	return report.BuildCollectionSummary(period.From, period.To, bucket, rows), nil
}

// GetIncomeStatement derives revenue and expense from GL entries posted in
// the period
func (s *ReportService) GetIncomeStatement(ctx context.Context, hospitalID uuid.UUID, period Period) (*report.IncomeStatement, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	entries, err := s.entries.FindByPeriod(ctx, hospitalID, period.From, period.To)
	if err != nil {
		return nil, err
	}
	return report.ComputeIncomeStatement(period.From, period.To, entries), nil
}

// GetBalanceSheet derives financial position from all GL entries posted up
// to the as-of time
func (s *ReportService) GetBalanceSheet(ctx context.Context, hospitalID uuid.UUID, asOf time.Time) (*report.BalanceSheet, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	entries, err := s.entries.FindAsOf(ctx, hospitalID, asOf)
	if err != nil {
		return nil, err
	}
	sheet := report.ComputeBalanceSheet(asOf, entries)
	if !sheet.IsBalanced() {
		// best-effort posting means the ledger can trail the invoices;
		// surface it, the report is still served
		s.logger.Warn("balance sheet out of balance",
			zap.String("hospital_id", hospitalID.String()),
			zap.Time("as_of", asOf))
	}
	return sheet, nil
}

// GetClaimAnalytics summarizes payer adjudication behavior over a period
func (s *ReportService) GetClaimAnalytics(ctx context.Context, hospitalID uuid.UUID, period Period) (*report.ClaimAnalytics, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	outcomes, err := s.queries.ClaimOutcomes(ctx, hospitalID, period.From, period.To)
	if err != nil {
		return nil, err
	}
	return report.BuildClaimAnalytics(period.From, period.To, outcomes), nil
}
