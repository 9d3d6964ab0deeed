package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/hospital/backend/internal/domain/report"
)

// CSV rendering for the financial reports. Handlers select it with
// ?format=csv; amounts are written with two decimal places the way finance
// teams expect spreadsheet imports.

const dateLayout = "2006-01-02"

// WriteARAging renders an AR aging report as CSV
func WriteARAging(w io.Writer, r *report.ARAgingReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"bucket", "amount", "count"}); err != nil {
		return err
	}
	for _, line := range r.Buckets {
		if err := cw.Write([]string{
			string(line.Bucket),
			line.Amount.StringFixed(2),
			fmt.Sprintf("%d", line.Count),
		}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"TOTAL", r.TotalAmount.StringFixed(2), fmt.Sprintf("%d", r.TotalCount)}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteRevenueBreakdown renders a revenue breakdown as CSV
func WriteRevenueBreakdown(w io.Writer, r *report.RevenueBreakdown) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"key", "amount", "percentage"}); err != nil {
		return err
	}
	for _, g := range r.Groups {
		if err := cw.Write([]string{g.Key, g.Amount.StringFixed(2), g.Percentage.StringFixed(2)}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"TOTAL", r.Total.StringFixed(2), ""}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteCollectionSummary renders a collection summary as CSV
func WriteCollectionSummary(w io.Writer, r *report.CollectionSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"period", "billed", "collected"}); err != nil {
		return err
	}
	for _, row := range r.Series {
		if err := cw.Write([]string{row.Period, row.Billed.StringFixed(2), row.Collected.StringFixed(2)}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"TOTAL", r.TotalBilled.StringFixed(2), r.TotalCollected.StringFixed(2)}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteIncomeStatement renders an income statement as CSV
func WriteIncomeStatement(w io.Writer, s *report.IncomeStatement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"section", "account_code", "amount"}); err != nil {
		return err
	}
	for _, a := range s.Revenue {
		if err := cw.Write([]string{"REVENUE", a.AccountCode, a.Balance.StringFixed(2)}); err != nil {
			return err
		}
	}
	for _, a := range s.Expenses {
		if err := cw.Write([]string{"EXPENSE", a.AccountCode, a.Balance.StringFixed(2)}); err != nil {
			return err
		}
	}
	rows := [][]string{
		{"TOTAL_REVENUE", "", s.TotalRevenue.StringFixed(2)},
		{"TOTAL_EXPENSES", "", s.TotalExpense.StringFixed(2)},
		{"NET_INCOME", "", s.NetIncome.StringFixed(2)},
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBalanceSheet renders a balance sheet as CSV
func WriteBalanceSheet(w io.Writer, s *report.BalanceSheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"section", "account_code", "amount"}); err != nil {
		return err
	}
	sections := []struct {
		name     string
		balances []report.AccountBalance
	}{
		{"ASSETS", s.Assets},
		{"LIABILITIES", s.Liabilities},
		{"EQUITY", s.Equity},
	}
	for _, section := range sections {
		for _, a := range section.balances {
			if err := cw.Write([]string{section.name, a.AccountCode, a.Balance.StringFixed(2)}); err != nil {
				return err
			}
		}
	}
	rows := [][]string{
		{"TOTAL_ASSETS", "", s.TotalAssets.StringFixed(2)},
		{"TOTAL_LIABILITIES", "", s.TotalLiabilities.StringFixed(2)},
		{"TOTAL_EQUITY", "", s.TotalEquity.StringFixed(2)},
		{"RETAINED_EARNINGS", "", s.RetainedEarnings.StringFixed(2)},
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteClaimAnalytics renders claim analytics as CSV
func WriteClaimAnalytics(w io.Writer, a *report.ClaimAnalytics) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"metric", "value"}); err != nil {
		return err
	}
	rows := [][]string{
		{"from", a.From.Format(dateLayout)},
		{"to", a.To.Format(dateLayout)},
		{"total_claims", fmt.Sprintf("%d", a.TotalClaims)},
		{"approved_claims", fmt.Sprintf("%d", a.ApprovedClaims)},
		{"rejected_claims", fmt.Sprintf("%d", a.RejectedClaims)},
		{"pending_claims", fmt.Sprintf("%d", a.PendingClaims)},
		{"approval_rate", a.ApprovalRate.StringFixed(2)},
		{"total_claimed", a.TotalClaimed.StringFixed(2)},
		{"total_approved", a.TotalApproved.StringFixed(2)},
		{"avg_processing_days", a.AvgProcessingDays.StringFixed(2)},
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	for reason, count := range a.DenialReasons {
		if err := cw.Write([]string{"denial_reason:" + reason, fmt.Sprintf("%d", count)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename builds the attachment name for a CSV download
func Filename(reportType string, day time.Time) string {
	return fmt.Sprintf("%s_%s.csv", reportType, day.Format("20060102"))
}
