package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/hospital/backend/internal/application/billing"
	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/interfaces/http/dto"
)

// InvoiceHandler handles invoice and payment endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices *billingapp.InvoiceService
	payments *billingapp.PaymentService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices *billingapp.InvoiceService, payments *billingapp.PaymentService) *InvoiceHandler {
	return &InvoiceHandler{
		invoices: invoices,
		payments: payments,
	}
}

// RegisterRoutes registers invoice routes on the given group
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.CreateInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.POST("/open", h.OpenInvoice)
		invoices.GET("/:id", h.GetInvoice)
		invoices.POST("/:id/items", h.AddItem)
		invoices.POST("/:id/cancel", h.CancelInvoice)
		invoices.POST("/:id/payments", h.AddPayment)
		invoices.GET("/:id/payments", h.ListPayments)
	}
}

// ===================== Request/Response DTOs =====================

// InvoiceItemRequest is one line of an invoice creation or item addition.
// A charge_code prices the line from the charge master; without one the
// description, category and unit price must be supplied.
type InvoiceItemRequest struct {
	ChargeCode  string  `json:"charge_code"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Quantity    float64 `json:"quantity" binding:"omitempty,gt=0"`
	UnitPrice   float64 `json:"unit_price" binding:"omitempty,gte=0"`
	Discount    float64 `json:"discount" binding:"omitempty,gte=0"`
}

// CreateInvoiceRequest is the request body for invoice creation
type CreateInvoiceRequest struct {
	PatientID    string               `json:"patient_id" binding:"required,uuid"`
	EncounterID  string               `json:"encounter_id" binding:"omitempty,uuid"`
	DepartmentID string               `json:"department_id" binding:"omitempty,uuid"`
	DoctorID     string               `json:"doctor_id" binding:"omitempty,uuid"`
	PayerType    string               `json:"payer_type" binding:"required,oneof=PATIENT INSURANCE"`
	ServiceDay   string               `json:"service_day" binding:"required,day"`
	DueDate      string               `json:"due_date"`
	Discount     float64              `json:"discount" binding:"omitempty,gte=0"`
	Tax          float64              `json:"tax" binding:"omitempty,gte=0"`
	Items        []InvoiceItemRequest `json:"items"`
}

// OpenInvoiceRequest is the request body for find-or-create of the open
// invoice of a patient on a service day
type OpenInvoiceRequest struct {
	PatientID  string `json:"patient_id" binding:"required,uuid"`
	ServiceDay string `json:"service_day" binding:"required,day"`
}

// CancelInvoiceRequest is the request body for cancelling an invoice
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// AddPaymentRequest is the request body for recording a payment
type AddPaymentRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Method    string  `json:"method" binding:"required,oneof=CASH CARD BANK_TRANSFER MOBILE INSURANCE"`
	Reference string  `json:"reference" binding:"omitempty,max=100"`
}

// invoiceListQuery narrows the invoice list endpoint
type invoiceListQuery struct {
	PatientID string `form:"patient_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=PENDING PARTIALLY_PAID PAID CANCELLED REFUNDED"`
	PayerType string `form:"payer_type" binding:"omitempty,oneof=PATIENT INSURANCE"`
	FromDate  string `form:"from_date"`
	ToDate    string `form:"to_date"`
}

// InvoiceItemResponse is an invoice line item in API responses
type InvoiceItemResponse struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	ChargeCode  string  `json:"charge_code,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Discount    float64 `json:"discount"`
	TotalPrice  float64 `json:"total_price"`
}

// InvoiceResponse is an invoice in API responses
type InvoiceResponse struct {
	ID            string                `json:"id"`
	HospitalID    string                `json:"hospital_id"`
	InvoiceNumber string                `json:"invoice_number"`
	PatientID     string                `json:"patient_id"`
	EncounterID   string                `json:"encounter_id,omitempty"`
	DepartmentID  string                `json:"department_id,omitempty"`
	DoctorID      string                `json:"doctor_id,omitempty"`
	PayerType     string                `json:"payer_type"`
	ServiceDay    string                `json:"service_day"`
	Subtotal      float64               `json:"subtotal"`
	Discount      float64               `json:"discount"`
	Tax           float64               `json:"tax"`
	TotalAmount   float64               `json:"total_amount"`
	PaidAmount    float64               `json:"paid_amount"`
	BalanceAmount float64               `json:"balance_amount"`
	Status        string                `json:"status"`
	DueDate       *time.Time            `json:"due_date,omitempty"`
	CancelledAt   *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason  string                `json:"cancel_reason,omitempty"`
	Items         []InvoiceItemResponse `json:"items"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Version       int                   `json:"version"`
}

// PaymentResponse is a payment in API responses
type PaymentResponse struct {
	ID            string    `json:"id"`
	InvoiceID     string    `json:"invoice_id"`
	PaymentNumber string    `json:"payment_number"`
	Amount        float64   `json:"amount"`
	Method        string    `json:"method"`
	Reference     string    `json:"reference,omitempty"`
	ReceivedBy    string    `json:"received_by,omitempty"`
	PaidAt        time.Time `json:"paid_at"`
}

// ===================== Handlers =====================

// CreateInvoice creates an invoice with its line items
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq, err := toCreateInvoiceRequest(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.CreateInvoice(c.Request.Context(), hospitalID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toInvoiceResponse(invoice))
}

// OpenInvoice returns the patient's open invoice for a service day, creating
// an empty one when none exists
func (h *InvoiceHandler) OpenInvoice(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}

	var req OpenInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		h.BadRequest(c, "Invalid patient ID format")
		return
	}
	day, err := parseDay(req.ServiceDay)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.FindOrCreateOpenInvoice(c.Request.Context(), hospitalID, patientID, day)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(invoice))
}

// GetInvoice retrieves an invoice with its items
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}
	invoiceID, err := pathUUID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoices.GetInvoice(c.Request.Context(), hospitalID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(invoice))
}

// ListInvoices retrieves invoices matching the query filter
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}

	filter, err := bindInvoiceFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.invoices.ListInvoices(c.Request.Context(), hospitalID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]InvoiceResponse, 0, len(page.Items))
	for _, inv := range page.Items {
		responses = append(responses, toInvoiceResponse(inv))
	}
	h.SuccessWithMeta(c, responses, page.Total, page.Page, page.PageSize)
}

// AddItem appends a line item to an open invoice
func (h *InvoiceHandler) AddItem(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}
	invoiceID, err := pathUUID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req InvoiceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.AddItem(c.Request.Context(), hospitalID, invoiceID, toItemRequest(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(invoice))
}

// CancelInvoice voids an invoice that has received no payments
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}
	invoiceID, err := pathUUID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req CancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.CancelInvoice(c.Request.Context(), hospitalID, invoiceID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(invoice))
}

// AddPayment records a payment against an invoice
func (h *InvoiceHandler) AddPayment(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}
	invoiceID, err := pathUUID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := billingapp.AddPaymentRequest{
		Amount:    toDecimal(req.Amount),
		Method:    billing.PaymentMethod(req.Method),
		Reference: req.Reference,
	}
	// the cashier is optional; walk-in kiosks post without one
	if receivedBy, err := getUserID(c); err == nil {
		appReq.ReceivedBy = &receivedBy
	}

	payment, err := h.payments.AddPayment(c.Request.Context(), hospitalID, invoiceID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPaymentResponse(payment))
}

// ListPayments retrieves all payments for an invoice
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}
	invoiceID, err := pathUUID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	payments, err := h.payments.ListPayments(c.Request.Context(), hospitalID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, toPaymentResponse(p))
	}
	h.Success(c, responses)
}

// ===================== Conversions =====================

func toCreateInvoiceRequest(req CreateInvoiceRequest) (billingapp.CreateInvoiceRequest, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return billingapp.CreateInvoiceRequest{}, err
	}
	serviceDay, err := parseDay(req.ServiceDay)
	if err != nil {
		return billingapp.CreateInvoiceRequest{}, err
	}
	dueDate, err := optionalDay(req.DueDate)
	if err != nil {
		return billingapp.CreateInvoiceRequest{}, err
	}

	out := billingapp.CreateInvoiceRequest{
		PatientID:  patientID,
		PayerType:  billing.PayerType(req.PayerType),
		ServiceDay: serviceDay,
		DueDate:    dueDate,
		Discount:   toDecimal(req.Discount),
		Tax:        toDecimal(req.Tax),
	}
	if out.EncounterID, err = optionalUUID(req.EncounterID); err != nil {
		return billingapp.CreateInvoiceRequest{}, err
	}
	if out.DepartmentID, err = optionalUUID(req.DepartmentID); err != nil {
		return billingapp.CreateInvoiceRequest{}, err
	}
	if out.DoctorID, err = optionalUUID(req.DoctorID); err != nil {
		return billingapp.CreateInvoiceRequest{}, err
	}
	for _, item := range req.Items {
		out.Items = append(out.Items, toItemRequest(item))
	}
	return out, nil
}

func toItemRequest(req InvoiceItemRequest) billingapp.InvoiceItemRequest {
	out := billingapp.InvoiceItemRequest{
		Description: req.Description,
		Category:    req.Category,
		Quantity:    toDecimal(req.Quantity),
		UnitPrice:   toDecimal(req.UnitPrice),
		Discount:    toDecimal(req.Discount),
	}
	if req.ChargeCode != "" {
		code := req.ChargeCode
		out.ChargeCode = &code
	}
	return out
}

func bindInvoiceFilter(c *gin.Context) (billing.InvoiceFilter, error) {
	var list dto.ListRequest
	var query invoiceListQuery
	if err := c.ShouldBindQuery(&list); err != nil {
		return billing.InvoiceFilter{}, err
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		return billing.InvoiceFilter{}, err
	}
	list.ApplyDefaults()

	filter := billing.InvoiceFilter{Filter: toDomainFilter(list)}
	if query.PatientID != "" {
		id, err := uuid.Parse(query.PatientID)
		if err != nil {
			return billing.InvoiceFilter{}, err
		}
		filter.PatientID = &id
	}
	if query.Status != "" {
		status := billing.InvoiceStatus(query.Status)
		filter.Status = &status
	}
	if query.PayerType != "" {
		payer := billing.PayerType(query.PayerType)
		filter.PayerType = &payer
	}
	var err error
	if filter.FromDate, err = optionalDay(query.FromDate); err != nil {
		return billing.InvoiceFilter{}, err
	}
	if filter.ToDate, err = optionalDay(query.ToDate); err != nil {
		return billing.InvoiceFilter{}, err
	}
	return filter, nil
}

func toInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            inv.ID.String(),
		HospitalID:    inv.HospitalID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		PatientID:     inv.PatientID.String(),
		PayerType:     string(inv.PayerType),
		ServiceDay:    inv.ServiceDay.Format(dayLayout),
		Subtotal:      toFloat(inv.Subtotal),
		Discount:      toFloat(inv.Discount),
		Tax:           toFloat(inv.Tax),
		TotalAmount:   toFloat(inv.TotalAmount),
		PaidAmount:    toFloat(inv.PaidAmount),
		BalanceAmount: toFloat(inv.BalanceAmount),
		Status:        string(inv.Status),
		DueDate:       inv.DueDate,
		CancelledAt:   inv.CancelledAt,
		CancelReason:  inv.CancelReason,
		Items:         make([]InvoiceItemResponse, 0, len(inv.Items)),
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		Version:       inv.Version,
	}
	if inv.EncounterID != nil {
		resp.EncounterID = inv.EncounterID.String()
	}
	if inv.DepartmentID != nil {
		resp.DepartmentID = inv.DepartmentID.String()
	}
	if inv.DoctorID != nil {
		resp.DoctorID = inv.DoctorID.String()
	}
	for _, item := range inv.Items {
		resp.Items = append(resp.Items, toInvoiceItemResponse(item))
	}
	return resp
}

func toInvoiceItemResponse(item *billing.InvoiceItem) InvoiceItemResponse {
	resp := InvoiceItemResponse{
		ID:          item.ID.String(),
		Description: item.Description,
		Category:    item.Category,
		Quantity:    toFloat(item.Quantity),
		UnitPrice:   toFloat(item.UnitPrice),
		Discount:    toFloat(item.Discount),
		TotalPrice:  toFloat(item.TotalPrice),
	}
	if item.ChargeCode != nil {
		resp.ChargeCode = *item.ChargeCode
	}
	return resp
}

func toPaymentResponse(p *billing.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:            p.ID.String(),
		InvoiceID:     p.InvoiceID.String(),
		PaymentNumber: p.PaymentNumber,
		Amount:        toFloat(p.Amount),
		Method:        string(p.Method),
		Reference:     p.Reference,
		PaidAt:        p.PaidAt,
	}
	if p.ReceivedBy != nil {
		resp.ReceivedBy = p.ReceivedBy.String()
	}
	return resp
}
