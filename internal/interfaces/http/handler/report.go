package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	reportapp "github.com/hospital/backend/internal/application/report"
	"github.com/hospital/backend/internal/domain/report"
	"github.com/hospital/backend/internal/infrastructure/export"
	"github.com/hospital/backend/internal/infrastructure/logger"
)

// ReportHandler handles financial reporting endpoints. Every report is
// served as JSON by default and as a CSV download with ?format=csv.
type ReportHandler struct {
	BaseHandler
	reports *reportapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports *reportapp.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// RegisterRoutes registers report routes on the given group
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.GET("/ar-aging", h.ARAging)
		reports.GET("/revenue", h.RevenueBreakdown)
		reports.GET("/collections", h.CollectionRate)
		reports.GET("/income-statement", h.IncomeStatement)
		reports.GET("/balance-sheet", h.BalanceSheet)
		reports.GET("/claims", h.ClaimAnalytics)
	}
}

// reportQuery holds the query parameters common to report endpoints
type reportQuery struct {
	AsOf      string `form:"as_of"`
	From      string `form:"from"`
	To        string `form:"to"`
	Format    string `form:"format" binding:"omitempty,oneof=json csv"`
	Detailed  bool   `form:"detailed"`
	Dimension string `form:"dimension" binding:"omitempty,oneof=DEPARTMENT DOCTOR PAYER"`
	Bucket    string `form:"bucket" binding:"omitempty,oneof=DAY WEEK MONTH"`
}

func (q reportQuery) wantsCSV() bool {
	return q.Format == "csv"
}

// asOfTime parses as_of, defaulting to now
func (q reportQuery) asOfTime() (time.Time, error) {
	if q.AsOf == "" {
		return time.Now(), nil
	}
	return parseTimestamp(q.AsOf)
}

// period parses the required from/to pair
func (q reportQuery) period() (reportapp.Period, error) {
	if q.From == "" || q.To == "" {
		return reportapp.Period{}, fmt.Errorf("from and to are required")
	}
	from, err := parseTimestamp(q.From)
	if err != nil {
		return reportapp.Period{}, err
	}
	to, err := parseTimestamp(q.To)
	if err != nil {
		return reportapp.Period{}, err
	}
	return reportapp.Period{From: from, To: to}, nil
}

func (h *ReportHandler) bindReport(c *gin.Context) (uuid.UUID, reportQuery, bool) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return uuid.Nil, reportQuery{}, false
	}
	var query reportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return uuid.Nil, reportQuery{}, false
	}
	return hospitalID, query, true
}

// serveCSV streams a report as a CSV attachment
func (h *ReportHandler) serveCSV(c *gin.Context, reportType string, day time.Time, write func() error) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(reportType, day)))
	c.Status(http.StatusOK)
	if err := write(); err != nil {
		// headers are out; log instead of switching to a JSON error body
		logger.FromGin(c).Error("csv export failed")
		_ = c.Error(err)
	}
}

// ARAging serves the accounts receivable aging report
func (h *ReportHandler) ARAging(c *gin.Context) {
	hospitalID, query, ok := h.bindReport(c)
	if !ok {
		return
	}
	asOf, err := query.asOfTime()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	aging, err := h.reports.GetARAging(c.Request.Context(), hospitalID, asOf, query.Detailed)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if query.wantsCSV() {
		h.serveCSV(c, "ar_aging", asOf, func() error { return export.WriteARAging(c.Writer, aging) })
		return
	}
	h.Success(c, aging)
}

// RevenueBreakdown serves billed revenue grouped along a dimension
func (h *ReportHandler) RevenueBreakdown(c *gin.Context) {
	hospitalID, query, ok := h.bindReport(c)
	if !ok {
		return
	}
	period, err := query.period()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	dimension := report.RevenueDimension(query.Dimension)
	if dimension == "" {
		dimension = report.RevenueByDepartment
	}

	breakdown, err := h.reports.GetRevenueBreakdown(c.Request.Context(), hospitalID, dimension, period)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if query.wantsCSV() {
		h.serveCSV(c, "revenue", period.To, func() error { return export.WriteRevenueBreakdown(c.Writer, breakdown) })
		return
	}
	h.Success(c, breakdown)
}

// CollectionRate serves billed versus collected amounts over a period
func (h *ReportHandler) CollectionRate(c *gin.Context) {
	hospitalID, query, ok := h.bindReport(c)
	if !ok {
		return
	}
	period, err := query.period()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	bucket := report.CollectionBucket(query.Bucket)
	if bucket == "" {
		bucket = report.CollectionByDay
	}

	summary, err := h.reports.GetCollectionRate(c.Request.Context(), hospitalID, period, bucket)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if query.wantsCSV() {
		h.serveCSV(c, "collections", period.To, func() error { return export.WriteCollectionSummary(c.Writer, summary) })
		return
	}
	h.Success(c, summary)
}

// IncomeStatement serves revenue and expense derived from the general ledger
func (h *ReportHandler) IncomeStatement(c *gin.Context) {
	hospitalID, query, ok := h.bindReport(c)
	if !ok {
		return
	}
	period, err := query.period()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	stmt, err := h.reports.GetIncomeStatement(c.Request.Context(), hospitalID, period)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if query.wantsCSV() {
		h.serveCSV(c, "income_statement", period.To, func() error { return export.WriteIncomeStatement(c.Writer, stmt) })
		return
	}
	h.Success(c, stmt)
}

// BalanceSheet serves financial position as of a point in time
func (h *ReportHandler) BalanceSheet(c *gin.Context) {
	hospitalID, query, ok := h.bindReport(c)
	if !ok {
		return
	}
	asOf, err := query.asOfTime()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sheet, err := h.reports.GetBalanceSheet(c.Request.Context(), hospitalID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if query.wantsCSV() {
		h.serveCSV(c, "balance_sheet", asOf, func() error { return export.WriteBalanceSheet(c.Writer, sheet) })
		return
	}
	h.Success(c, sheet)
}

// ClaimAnalytics serves payer adjudication statistics over a period
func (h *ReportHandler) ClaimAnalytics(c *gin.Context) {
	hospitalID, query, ok := h.bindReport(c)
	if !ok {
		return
	}
	period, err := query.period()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	analytics, err := h.reports.GetClaimAnalytics(c.Request.Context(), hospitalID, period)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if query.wantsCSV() {
		h.serveCSV(c, "claim_analytics", period.To, func() error { return export.WriteClaimAnalytics(c.Writer, analytics) })
		return
	}
	h.Success(c, analytics)
}
