package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/insurance"
)

func bucketAmount(t *testing.T, lines []ARAgingLine, bucket AgingBucket) decimal.Decimal {
	t.Helper()
	for _, l := range lines {
		if l.Bucket == bucket {
			return l.Amount
		}
	}
	t.Fatalf("bucket %s not found", bucket)
	return decimal.Zero
}

func TestBuildARAgingReport(t *testing.T) {
	asOf := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	due := func(daysAgo int) *time.Time {
		d := asOf.AddDate(0, 0, -daysAgo)
		return &d
	}

	t.Run("45 days overdue lands in the 31-60 bucket", func(t *testing.T) {
		report := BuildARAgingReport(asOf, []OpenReceivable{
			{InvoiceID: uuid.New(), PayerType: billing.PayerTypePatient, DueDate: due(45), Balance: decimal.NewFromInt(300)},
		}, false)

		assert.True(t, bucketAmount(t, report.Buckets, Bucket31To60).Equal(decimal.NewFromInt(300)))
		assert.True(t, bucketAmount(t, report.Buckets, BucketCurrent).IsZero())
		assert.Equal(t, 1, report.TotalCount)
	})

	t.Run("buckets split at 30, 60 and 90 days", func(t *testing.T) {
		report := BuildARAgingReport(asOf, []OpenReceivable{
			{InvoiceID: uuid.New(), DueDate: due(10), Balance: decimal.NewFromInt(100)},
			{InvoiceID: uuid.New(), DueDate: due(30), Balance: decimal.NewFromInt(50)},
			{InvoiceID: uuid.New(), DueDate: due(31), Balance: decimal.NewFromInt(200)},
			{InvoiceID: uuid.New(), DueDate: due(90), Balance: decimal.NewFromInt(75)},
			{InvoiceID: uuid.New(), DueDate: due(91), Balance: decimal.NewFromInt(400)},
		}, false)

		assert.True(t, bucketAmount(t, report.Buckets, BucketCurrent).Equal(decimal.NewFromInt(150)))
		assert.True(t, bucketAmount(t, report.Buckets, Bucket31To60).Equal(decimal.NewFromInt(200)))
		assert.True(t, bucketAmount(t, report.Buckets, Bucket61To90).Equal(decimal.NewFromInt(75)))
		assert.True(t, bucketAmount(t, report.Buckets, BucketOver90).Equal(decimal.NewFromInt(400)))
		assert.True(t, report.TotalAmount.Equal(decimal.NewFromInt(825)))
	})

	t.Run("falls back to invoice date when no due date", func(t *testing.T) {
		report := BuildARAgingReport(asOf, []OpenReceivable{
			{InvoiceID: uuid.New(), InvoiceDate: asOf.AddDate(0, 0, -70), Balance: decimal.NewFromInt(120)},
		}, false)

		assert.True(t, bucketAmount(t, report.Buckets, Bucket61To90).Equal(decimal.NewFromInt(120)))
	})

	t.Run("detailed report splits by payer type", func(t *testing.T) {
		report := BuildARAgingReport(asOf, []OpenReceivable{
			{InvoiceID: uuid.New(), PayerType: billing.PayerTypePatient, DueDate: due(45), Balance: decimal.NewFromInt(300)},
			{InvoiceID: uuid.New(), PayerType: billing.PayerTypeInsurance, DueDate: due(45), Balance: decimal.NewFromInt(500)},
		}, true)

		require.Contains(t, report.ByPayerType, billing.PayerTypePatient)
		require.Contains(t, report.ByPayerType, billing.PayerTypeInsurance)
		assert.True(t, bucketAmount(t, report.ByPayerType[billing.PayerTypePatient], Bucket31To60).Equal(decimal.NewFromInt(300)))
		assert.True(t, bucketAmount(t, report.ByPayerType[billing.PayerTypeInsurance], Bucket31To60).Equal(decimal.NewFromInt(500)))
		assert.True(t, report.TotalAmount.Equal(decimal.NewFromInt(800)))
	})

	t.Run("skips zero balances", func(t *testing.T) {
		report := BuildARAgingReport(asOf, []OpenReceivable{
			{InvoiceID: uuid.New(), DueDate: due(45), Balance: decimal.Zero},
		}, false)
		assert.Equal(t, 0, report.TotalCount)
	})
}

func TestBuildRevenueBreakdown(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	breakdown := BuildRevenueBreakdown(RevenueByDepartment, from, to, []RevenueRow{
		{Key: "CARDIOLOGY", Amount: decimal.NewFromInt(750)},
		{Key: "RADIOLOGY", Amount: decimal.NewFromInt(250)},
	})

	assert.True(t, breakdown.Total.Equal(decimal.NewFromInt(1000)))
	require.Len(t, breakdown.Groups, 2)
	assert.True(t, breakdown.Groups[0].Percentage.Equal(decimal.NewFromInt(75)))
	assert.True(t, breakdown.Groups[1].Percentage.Equal(decimal.NewFromInt(25)))
}

func TestBuildCollectionSummary(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	summary := BuildCollectionSummary(from, to, CollectionByWeek, []CollectionRow{
		{Period: "2026-W01", Billed: decimal.NewFromInt(1000), Collected: decimal.NewFromInt(600)},
		{Period: "2026-W02", Billed: decimal.NewFromInt(1000), Collected: decimal.NewFromInt(900)},
	})

	assert.True(t, summary.TotalBilled.Equal(decimal.NewFromInt(2000)))
	assert.True(t, summary.TotalCollected.Equal(decimal.NewFromInt(1500)))
	assert.True(t, summary.CollectionRate.Equal(decimal.NewFromInt(75)))
}

func TestBuildClaimAnalytics(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	submitted := from.AddDate(0, 0, 5)
	processed := submitted.AddDate(0, 0, 4)
	approved := decimal.NewFromInt(800)
	co16 := "CO-16"
	co97 := "CO-97"

	analytics := BuildClaimAnalytics(from, to, []ClaimOutcome{
		{Status: insurance.ClaimStatusApproved, ClaimAmount: decimal.NewFromInt(1000), ApprovedAmount: &approved, SubmittedAt: &submitted, ProcessedAt: &processed},
		{Status: insurance.ClaimStatusPaid, ClaimAmount: decimal.NewFromInt(500)},
		{Status: insurance.ClaimStatusRejected, ClaimAmount: decimal.NewFromInt(300), DenialReasonCode: &co16},
		{Status: insurance.ClaimStatusRejected, ClaimAmount: decimal.NewFromInt(200), DenialReasonCode: &co16},
		{Status: insurance.ClaimStatusRejected, ClaimAmount: decimal.NewFromInt(100), DenialReasonCode: &co97},
		{Status: insurance.ClaimStatusSubmitted, ClaimAmount: decimal.NewFromInt(400)},
	})

	assert.Equal(t, 6, analytics.TotalClaims)
	assert.Equal(t, 2, analytics.ApprovedClaims)
	assert.Equal(t, 3, analytics.RejectedClaims)
	assert.Equal(t, 1, analytics.PendingClaims)
	assert.True(t, analytics.ApprovalRate.Equal(decimal.NewFromInt(40)), "2 of 5 decided = %s", analytics.ApprovalRate)
	assert.True(t, analytics.TotalApproved.Equal(decimal.NewFromInt(1300)), "800 approved + 500 full payout")
	assert.True(t, analytics.AvgProcessingDays.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, 2, analytics.DenialReasons["CO-16"])
	assert.Equal(t, 1, analytics.DenialReasons["CO-97"])
}
