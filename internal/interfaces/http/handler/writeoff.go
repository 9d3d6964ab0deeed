package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/hospital/backend/internal/application/billing"
	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/interfaces/http/dto"
)

// WriteOffHandler handles write-off workflow endpoints
type WriteOffHandler struct {
	BaseHandler
	writeOffs *billingapp.WriteOffService
}

// NewWriteOffHandler creates a new WriteOffHandler
func NewWriteOffHandler(writeOffs *billingapp.WriteOffService) *WriteOffHandler {
	return &WriteOffHandler{writeOffs: writeOffs}
}

// RegisterRoutes registers write-off routes on the given group
func (h *WriteOffHandler) RegisterRoutes(rg *gin.RouterGroup) {
	writeOffs := rg.Group("/write-offs")
	{
		writeOffs.POST("", h.CreateWriteOff)
		writeOffs.GET("", h.ListWriteOffs)
		writeOffs.POST("/:id/decision", h.DecideWriteOff)
	}
}

// CreateWriteOffRequest is the request body for filing a write-off request
type CreateWriteOffRequest struct {
	InvoiceID string  `json:"invoice_id" binding:"required,uuid"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Reason    string  `json:"reason" binding:"required,min=1,max=500"`
	Category  string  `json:"category" binding:"required,oneof=CHARITY BAD_DEBT CONTRACTUAL ADMINISTRATIVE SMALL_BALANCE"`
}

// DecideWriteOffRequest is the request body for deciding a pending write-off
type DecideWriteOffRequest struct {
	Approve bool `json:"approve"`
}

// writeOffListQuery narrows the write-off list endpoint
type writeOffListQuery struct {
	InvoiceID string `form:"invoice_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
	Category  string `form:"category" binding:"omitempty,oneof=CHARITY BAD_DEBT CONTRACTUAL ADMINISTRATIVE SMALL_BALANCE"`
}

// WriteOffResponse is a write-off request in API responses
type WriteOffResponse struct {
	ID          string     `json:"id"`
	InvoiceID   string     `json:"invoice_id"`
	Amount      float64    `json:"amount"`
	Reason      string     `json:"reason"`
	Category    string     `json:"category"`
	Status      string     `json:"status"`
	RequestedBy string     `json:"requested_by"`
	ApprovedBy  string     `json:"approved_by,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Version     int        `json:"version"`
}

// CreateWriteOff files a write-off request against an invoice balance
func (h *WriteOffHandler) CreateWriteOff(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}
	requestedBy, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identification required")
		return
	}

	var req CreateWriteOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	writeOff, err := h.writeOffs.CreateWriteOff(c.Request.Context(), hospitalID, billingapp.CreateWriteOffRequest{
		InvoiceID:   invoiceID,
		Amount:      toDecimal(req.Amount),
		Reason:      req.Reason,
		Category:    billing.WriteOffCategory(req.Category),
		RequestedBy: requestedBy,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toWriteOffResponse(writeOff))
}

// DecideWriteOff approves or rejects a pending write-off
func (h *WriteOffHandler) DecideWriteOff(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}
	decidedBy, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identification required")
		return
	}
	writeOffID, err := pathUUID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid write-off ID format")
		return
	}

	var req DecideWriteOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	writeOff, err := h.writeOffs.UpdateWriteOffStatus(c.Request.Context(), hospitalID, writeOffID, req.Approve, decidedBy)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toWriteOffResponse(writeOff))
}

// ListWriteOffs retrieves write-off requests matching the query filter
func (h *WriteOffHandler) ListWriteOffs(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}

	var list dto.ListRequest
	var query writeOffListQuery
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	list.ApplyDefaults()

	filter := billing.WriteOffFilter{Filter: toDomainFilter(list)}
	if query.InvoiceID != "" {
		id, err := uuid.Parse(query.InvoiceID)
		if err != nil {
			h.BadRequest(c, "Invalid invoice ID format")
			return
		}
		filter.InvoiceID = &id
	}
	if query.Status != "" {
		status := billing.WriteOffStatus(query.Status)
		filter.Status = &status
	}
	if query.Category != "" {
		category := billing.WriteOffCategory(query.Category)
		filter.Category = &category
	}

	page, err := h.writeOffs.ListWriteOffs(c.Request.Context(), hospitalID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]WriteOffResponse, 0, len(page.Items))
	for _, w := range page.Items {
		responses = append(responses, toWriteOffResponse(w))
	}
	h.SuccessWithMeta(c, responses, page.Total, page.Page, page.PageSize)
}

func toWriteOffResponse(w *billing.WriteOff) WriteOffResponse {
	resp := WriteOffResponse{
		ID:          w.ID.String(),
		InvoiceID:   w.InvoiceID.String(),
		Amount:      toFloat(w.Amount),
		Reason:      w.Reason,
		Category:    string(w.Category),
		Status:      string(w.Status),
		RequestedBy: w.RequestedBy.String(),
		DecidedAt:   w.DecidedAt,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
		Version:     w.Version,
	}
	if w.ApprovedBy != nil {
		resp.ApprovedBy = w.ApprovedBy.String()
	}
	return resp
}
