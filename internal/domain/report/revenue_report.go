package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/insurance"
)

// AgingBucket labels how long a receivable has been outstanding
type AgingBucket string

const (
	BucketCurrent  AgingBucket = "CURRENT"     // 0-30 days
	Bucket31To60   AgingBucket = "DAYS_31_60"  // 31-60 days
	Bucket61To90   AgingBucket = "DAYS_61_90"  // 61-90 days
	BucketOver90   AgingBucket = "OVER_90"     // more than 90 days
)

// AgingBuckets lists the buckets in report order
var AgingBuckets = []AgingBucket{BucketCurrent, Bucket31To60, Bucket61To90, BucketOver90}

// BucketForAge maps days outstanding to an aging bucket
func BucketForAge(days int) AgingBucket {
	switch {
	case days <= 30:
		return BucketCurrent
	case days <= 60:
		return Bucket31To60
	case days <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// OpenReceivable is a query-side snapshot of one invoice with an outstanding
// balance. Aging is measured from the due date when set, otherwise from the
// invoice date.
type OpenReceivable struct {
	InvoiceID   uuid.UUID
	PatientID   uuid.UUID
	PayerType   billing.PayerType
	InvoiceDate time.Time
	DueDate     *time.Time
	Balance     decimal.Decimal
}

// AgeInDays returns how many whole days the receivable is outstanding as of
// the given time; never negative
func (r OpenReceivable) AgeInDays(asOf time.Time) int {
	ref := r.InvoiceDate
	if r.DueDate != nil {
		ref = *r.DueDate
	}
	days := int(asOf.Sub(ref).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days
}

// ARAgingLine is one bucket of an aging report
type ARAgingLine struct {
	Bucket AgingBucket     `json:"bucket"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// ARAgingReport buckets outstanding receivables by age
type ARAgingReport struct {
	AsOf        time.Time                             `json:"as_of"`
	TotalAmount decimal.Decimal                       `json:"total_amount"`
	TotalCount  int                                   `json:"total_count"`
	Buckets     []ARAgingLine                         `json:"buckets"`
	ByPayerType map[billing.PayerType][]ARAgingLine   `json:"by_payer_type,omitempty"`
}

// BuildARAgingReport aggregates open receivables into aging buckets.
// When detailed is true the buckets are additionally split by payer type.
func BuildARAgingReport(asOf time.Time, receivables []OpenReceivable, detailed bool) *ARAgingReport {
	report := &ARAgingReport{
		AsOf:        asOf,
		TotalAmount: decimal.Zero,
		Buckets:     emptyBuckets(),
	}
	if detailed {
		report.ByPayerType = make(map[billing.PayerType][]ARAgingLine)
	}

	for _, r := range receivables {
		if !r.Balance.IsPositive() {
			continue
		}
		bucket := BucketForAge(r.AgeInDays(asOf))
		addToBucket(report.Buckets, bucket, r.Balance)
		report.TotalAmount = report.TotalAmount.Add(r.Balance)
		report.TotalCount++

		if detailed {
			lines, ok := report.ByPayerType[r.PayerType]
			if !ok {
				lines = emptyBuckets()
				report.ByPayerType[r.PayerType] = lines
			}
			addToBucket(lines, bucket, r.Balance)
		}
	}
	return report
}

func emptyBuckets() []ARAgingLine {
	lines := make([]ARAgingLine, len(AgingBuckets))
	for i, b := range AgingBuckets {
		lines[i] = ARAgingLine{Bucket: b, Amount: decimal.Zero}
	}
	return lines
}

func addToBucket(lines []ARAgingLine, bucket AgingBucket, amount decimal.Decimal) {
	for i := range lines {
		if lines[i].Bucket == bucket {
			lines[i].Amount = lines[i].Amount.Add(amount)
			lines[i].Count++
			return
		}
	}
}

// RevenueDimension selects the grouping axis of a revenue breakdown
type RevenueDimension string

const (
	RevenueByDepartment RevenueDimension = "DEPARTMENT"
	RevenueByDoctor     RevenueDimension = "DOCTOR"
	RevenueByPayer      RevenueDimension = "PAYER"
)

// RevenueRow is a query-side aggregate of billed revenue for one group key
type RevenueRow struct {
	Key    string
	Amount decimal.Decimal
}

// RevenueShare is one group of a revenue breakdown with its share of the total
type RevenueShare struct {
	Key        string          `json:"key"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// RevenueBreakdown groups billed revenue over a period along one dimension.
// Cancelled invoices are excluded at the query layer.
type RevenueBreakdown struct {
	Dimension RevenueDimension `json:"dimension"`
	From      time.Time        `json:"from"`
	To        time.Time        `json:"to"`
	Total     decimal.Decimal  `json:"total"`
	Groups    []RevenueShare   `json:"groups"`
}

// BuildRevenueBreakdown computes percentage shares over the given rows
func BuildRevenueBreakdown(dimension RevenueDimension, from, to time.Time, rows []RevenueRow) *RevenueBreakdown {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}
	groups := make([]RevenueShare, 0, len(rows))
	hundred := decimal.NewFromInt(100)
	for _, r := range rows {
		share := RevenueShare{Key: r.Key, Amount: r.Amount, Percentage: decimal.Zero}
		if total.IsPositive() {
			share.Percentage = r.Amount.Div(total).Mul(hundred).Round(2)
		}
		groups = append(groups, share)
	}
	return &RevenueBreakdown{
		Dimension: dimension,
		From:      from,
		To:        to,
		Total:     total,
		Groups:    groups,
	}
}

// CollectionBucket selects the time grouping of a collection summary
type CollectionBucket string

const (
	CollectionByDay   CollectionBucket = "DAY"
	CollectionByWeek  CollectionBucket = "WEEK"
	CollectionByMonth CollectionBucket = "MONTH"
)

// CollectionRow is a query-side aggregate of billed and collected amounts
// for one time bucket
type CollectionRow struct {
	Period    string          `json:"period"`
	Billed    decimal.Decimal `json:"billed"`
	Collected decimal.Decimal `json:"collected"`
}

// CollectionSummary reports the collection rate over a period
type CollectionSummary struct {
	From           time.Time        `json:"from"`
	To             time.Time        `json:"to"`
	Bucket         CollectionBucket `json:"bucket"`
	TotalBilled    decimal.Decimal  `json:"total_billed"`
	TotalCollected decimal.Decimal  `json:"total_collected"`
	CollectionRate decimal.Decimal  `json:"collection_rate"`
	Series         []CollectionRow  `json:"series"`
}

// BuildCollectionSummary totals the bucketed rows and derives the rate
func BuildCollectionSummary(from, to time.Time, bucket CollectionBucket, rows []CollectionRow) *CollectionSummary {
	billed := decimal.Zero
	collected := decimal.Zero
	for _, r := range rows {
		billed = billed.Add(r.Billed)
		collected = collected.Add(r.Collected)
	}
	rate := decimal.Zero
	if billed.IsPositive() {
		rate = collected.Div(billed).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return &CollectionSummary{
		From:           from,
		To:             to,
		Bucket:         bucket,
		TotalBilled:    billed,
		TotalCollected: collected,
		CollectionRate: rate,
		Series:         rows,
	}
}

// ClaimOutcome is a query-side snapshot of one adjudicated or pending claim
type ClaimOutcome struct {
	ClaimID          uuid.UUID
	Status           insurance.ClaimStatus
	ClaimAmount      decimal.Decimal
	ApprovedAmount   *decimal.Decimal
	DenialReasonCode *string
	SubmittedAt      *time.Time
	ProcessedAt      *time.Time
}

// ClaimAnalytics summarizes payer adjudication behavior over a period
type ClaimAnalytics struct {
	From              time.Time                  `json:"from"`
	To                time.Time                  `json:"to"`
	TotalClaims       int                        `json:"total_claims"`
	ApprovedClaims    int                        `json:"approved_claims"`
	RejectedClaims    int                        `json:"rejected_claims"`
	PendingClaims     int                        `json:"pending_claims"`
	ApprovalRate      decimal.Decimal            `json:"approval_rate"`
	TotalClaimed      decimal.Decimal            `json:"total_claimed"`
	TotalApproved     decimal.Decimal            `json:"total_approved"`
	AvgProcessingDays decimal.Decimal            `json:"avg_processing_days"`
	DenialReasons     map[string]int             `json:"denial_reasons"`
}

// BuildClaimAnalytics aggregates claim outcomes. The approval rate counts
// APPROVED and PAID claims against all adjudicated ones; processing latency
// averages submitted-to-processed over claims that have both timestamps.
func BuildClaimAnalytics(from, to time.Time, outcomes []ClaimOutcome) *ClaimAnalytics {
	a := &ClaimAnalytics{
		From:          from,
		To:            to,
		ApprovalRate:  decimal.Zero,
		TotalClaimed:  decimal.Zero,
		TotalApproved: decimal.Zero,
		DenialReasons: make(map[string]int),
	}

	var latencyDays decimal.Decimal
	var latencyCount int64
	for _, o := range outcomes {
		a.TotalClaims++
		a.TotalClaimed = a.TotalClaimed.Add(o.ClaimAmount)

		switch o.Status {
		case insurance.ClaimStatusApproved, insurance.ClaimStatusPaid:
			a.ApprovedClaims++
			if o.ApprovedAmount != nil {
				a.TotalApproved = a.TotalApproved.Add(*o.ApprovedAmount)
			} else {
				a.TotalApproved = a.TotalApproved.Add(o.ClaimAmount)
			}
		case insurance.ClaimStatusRejected:
			a.RejectedClaims++
			if o.DenialReasonCode != nil {
				a.DenialReasons[*o.DenialReasonCode]++
			}
		default:
			a.PendingClaims++
		}

		if o.SubmittedAt != nil && o.ProcessedAt != nil {
			days := decimal.NewFromFloat(o.ProcessedAt.Sub(*o.SubmittedAt).Hours() / 24)
			latencyDays = latencyDays.Add(days)
			latencyCount++
		}
	}

	decided := a.ApprovedClaims + a.RejectedClaims
	if decided > 0 {
		a.ApprovalRate = decimal.NewFromInt(int64(a.ApprovedClaims)).
			Div(decimal.NewFromInt(int64(decided))).
			Mul(decimal.NewFromInt(100)).Round(2)
	}
	if latencyCount > 0 {
		a.AvgProcessingDays = latencyDays.Div(decimal.NewFromInt(latencyCount)).Round(2)
	}
	return a
}

// QueryRepository feeds the pure report aggregations with query-side rows
type QueryRepository interface {
	// OpenReceivables returns invoices with a positive balance as of a time
	OpenReceivables(ctx context.Context, hospitalID uuid.UUID, asOf time.Time) ([]OpenReceivable, error)
	// RevenueRows returns billed revenue grouped along a dimension,
	// excluding cancelled invoices
	RevenueRows(ctx context.Context, hospitalID uuid.UUID, dimension RevenueDimension, from, to time.Time) ([]RevenueRow, error)
	// CollectionRows returns billed and collected amounts per time bucket
	CollectionRows(ctx context.Context, hospitalID uuid.UUID, from, to time.Time, bucket CollectionBucket) ([]CollectionRow, error)
	// ClaimOutcomes returns claim snapshots submitted within the period
	ClaimOutcomes(ctx context.Context, hospitalID uuid.UUID, from, to time.Time) ([]ClaimOutcome, error)
}
