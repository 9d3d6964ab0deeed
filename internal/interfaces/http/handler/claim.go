package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	insuranceapp "github.com/hospital/backend/internal/application/insurance"
	"github.com/hospital/backend/internal/domain/insurance"
	"github.com/hospital/backend/internal/interfaces/http/dto"
)

// ClaimHandler handles insurance claim and appeal endpoints
type ClaimHandler struct {
	BaseHandler
	claims *insuranceapp.ClaimService
}

// NewClaimHandler creates a new ClaimHandler
func NewClaimHandler(claims *insuranceapp.ClaimService) *ClaimHandler {
	return &ClaimHandler{claims: claims}
}

// RegisterRoutes registers claim routes on the given group
func (h *ClaimHandler) RegisterRoutes(rg *gin.RouterGroup) {
	claims := rg.Group("/claims")
	{
		claims.POST("", h.SubmitClaim)
		claims.GET("", h.ListClaims)
		claims.GET("/:id", h.GetClaim)
		claims.PUT("/:id/status", h.UpdateClaimStatus)
		claims.POST("/:id/appeal", h.CreateAppeal)
		claims.POST("/:id/appeal/submit", h.SubmitAppeal)
		claims.GET("/:id/history", h.GetAppealHistory)
	}
}

// SubmitClaimRequest is the request body for filing a claim.
// A zero claim_amount defaults to the invoice balance.
type SubmitClaimRequest struct {
	InvoiceID    string  `json:"invoice_id" binding:"required,uuid"`
	Provider     string  `json:"provider" binding:"required,min=1,max=200"`
	PolicyNumber string  `json:"policy_number" binding:"required,min=1,max=100"`
	ClaimAmount  float64 `json:"claim_amount" binding:"omitempty,gt=0"`
}

// UpdateClaimStatusRequest is the request body for a payer adjudication
// decision
type UpdateClaimStatusRequest struct {
	Status           string   `json:"status" binding:"required,oneof=SUBMITTED UNDER_REVIEW APPROVED REJECTED PAID"`
	ApprovedAmount   *float64 `json:"approved_amount" binding:"omitempty,gte=0"`
	DenialReasonCode string   `json:"denial_reason_code" binding:"omitempty,max=50"`
}

// CreateAppealRequest is the request body for appealing a rejected claim.
// A zero claim_amount defaults to the original claim amount.
type CreateAppealRequest struct {
	ClaimAmount      float64 `json:"claim_amount" binding:"omitempty,gt=0"`
	ResubmissionCode string  `json:"resubmission_code" binding:"omitempty,max=50"`
	Notes            string  `json:"notes" binding:"omitempty,max=2000"`
}

// claimListQuery narrows the claim list endpoint
type claimListQuery struct {
	InvoiceID string `form:"invoice_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=DRAFT SUBMITTED UNDER_REVIEW APPROVED REJECTED PAID"`
	Provider  string `form:"provider"`
	FromDate  string `form:"from_date"`
	ToDate    string `form:"to_date"`
}

// ClaimResponse is an insurance claim in API responses
type ClaimResponse struct {
	ID               string     `json:"id"`
	InvoiceID        string     `json:"invoice_id"`
	ClaimNumber      string     `json:"claim_number"`
	Provider         string     `json:"provider"`
	PolicyNumber     string     `json:"policy_number"`
	ClaimAmount      float64    `json:"claim_amount"`
	ApprovedAmount   *float64   `json:"approved_amount,omitempty"`
	Status           string     `json:"status"`
	AppealStatus     string     `json:"appeal_status"`
	OriginalClaimID  string     `json:"original_claim_id,omitempty"`
	ResubmissionCode string     `json:"resubmission_code,omitempty"`
	AppealNotes      string     `json:"appeal_notes,omitempty"`
	DenialReasonCode string     `json:"denial_reason_code,omitempty"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
	ProcessedBy      string     `json:"processed_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Version          int        `json:"version"`
}

// ClaimHistoryEntryResponse is one entry of an appeal history
type ClaimHistoryEntryResponse struct {
	Claim ClaimResponse `json:"claim"`
	Type  string        `json:"type"`
}

// SubmitClaim creates a claim for an invoice and files it with the payer
func (h *ClaimHandler) SubmitClaim(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}

	var req SubmitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	claim, err := h.claims.SubmitClaim(c.Request.Context(), hospitalID, insuranceapp.SubmitClaimRequest{
		InvoiceID:    invoiceID,
		Provider:     req.Provider,
		PolicyNumber: req.PolicyNumber,
		ClaimAmount:  toDecimal(req.ClaimAmount),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toClaimResponse(claim))
}

// GetClaim retrieves a claim by ID
func (h *ClaimHandler) GetClaim(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}
	claimID, err := pathUUID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid claim ID format")
		return
	}

	claim, err := h.claims.GetClaim(c.Request.Context(), hospitalID, claimID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toClaimResponse(claim))
}

// UpdateClaimStatus applies a payer adjudication decision
func (h *ClaimHandler) UpdateClaimStatus(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}
	claimID, err := pathUUID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid claim ID format")
		return
	}

	var req UpdateClaimStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := insuranceapp.UpdateClaimStatusRequest{
		Status: insurance.ClaimStatus(req.Status),
	}
	if req.ApprovedAmount != nil {
		amount := toDecimal(*req.ApprovedAmount)
		appReq.ApprovedAmount = &amount
	}
	if req.DenialReasonCode != "" {
		code := req.DenialReasonCode
		appReq.DenialReasonCode = &code
	}
	if processedBy, err := getUserID(c); err == nil {
		appReq.ProcessedBy = &processedBy
	}

	claim, err := h.claims.UpdateClaimStatus(c.Request.Context(), hospitalID, claimID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toClaimResponse(claim))
}

// CreateAppeal drafts an appeal for a rejected claim
func (h *ClaimHandler) CreateAppeal(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}
	claimID, err := pathUUID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid claim ID format")
		return
	}

	var req CreateAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := insuranceapp.CreateAppealRequest{
		ClaimAmount: toDecimal(req.ClaimAmount),
		Notes:       req.Notes,
	}
	if req.ResubmissionCode != "" {
		code := req.ResubmissionCode
		appReq.ResubmissionCode = &code
	}

	appeal, err := h.claims.CreateClaimAppeal(c.Request.Context(), hospitalID, claimID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toClaimResponse(appeal))
}

// SubmitAppeal files a drafted appeal with the payer
func (h *ClaimHandler) SubmitAppeal(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}
	claimID, err := pathUUID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid claim ID format")
		return
	}

	claim, err := h.claims.SubmitClaimAppeal(c.Request.Context(), hospitalID, claimID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toClaimResponse(claim))
}

// GetAppealHistory returns the appeal chain around a claim
func (h *ClaimHandler) GetAppealHistory(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}
	claimID, err := pathUUID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid claim ID format")
		return
	}

	history, err := h.claims.GetClaimAppealHistory(c.Request.Context(), hospitalID, claimID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ClaimHistoryEntryResponse, 0, len(history))
	for _, entry := range history {
		responses = append(responses, ClaimHistoryEntryResponse{
			Claim: toClaimResponse(entry.Claim),
			Type:  string(entry.Type),
		})
	}
	h.Success(c, responses)
}

// ListClaims retrieves claims matching the query filter
func (h *ClaimHandler) ListClaims(c *gin.Context) {
	hospitalID, err := getHospitalID(c)
	if err != nil {
		h.Unauthorized(c, "Hospital identification required")
		return
	}

	var list dto.ListRequest
	var query claimListQuery
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	list.ApplyDefaults()

	filter := insurance.ClaimFilter{Filter: toDomainFilter(list)}
	if query.InvoiceID != "" {
		id, err := uuid.Parse(query.InvoiceID)
		if err != nil {
			h.BadRequest(c, "Invalid invoice ID format")
			return
		}
		filter.InvoiceID = &id
	}
	if query.Status != "" {
		status := insurance.ClaimStatus(query.Status)
		filter.Status = &status
	}
	if query.Provider != "" {
		provider := query.Provider
		filter.Provider = &provider
	}
	if filter.FromDate, err = optionalDay(query.FromDate); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.ToDate, err = optionalDay(query.ToDate); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.claims.ListClaims(c.Request.Context(), hospitalID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ClaimResponse, 0, len(page.Items))
	for _, claim := range page.Items {
		responses = append(responses, toClaimResponse(claim))
	}
	h.SuccessWithMeta(c, responses, page.Total, page.Page, page.PageSize)
}

func toClaimResponse(claim *insurance.InsuranceClaim) ClaimResponse {
	resp := ClaimResponse{
		ID:           claim.ID.String(),
		InvoiceID:    claim.InvoiceID.String(),
		ClaimNumber:  claim.ClaimNumber,
		Provider:     claim.Provider,
		PolicyNumber: claim.PolicyNumber,
		ClaimAmount:  toFloat(claim.ClaimAmount),
		Status:       string(claim.Status),
		AppealStatus: string(claim.AppealStatus),
		AppealNotes:  claim.AppealNotes,
		SubmittedAt:  claim.SubmittedAt,
		ProcessedAt:  claim.ProcessedAt,
		CreatedAt:    claim.CreatedAt,
		UpdatedAt:    claim.UpdatedAt,
		Version:      claim.Version,
	}
	if claim.ApprovedAmount != nil {
		amount := toFloat(*claim.ApprovedAmount)
		resp.ApprovedAmount = &amount
	}
	if claim.OriginalClaimID != nil {
		resp.OriginalClaimID = claim.OriginalClaimID.String()
	}
	if claim.ResubmissionCode != nil {
		resp.ResubmissionCode = *claim.ResubmissionCode
	}
	if claim.DenialReasonCode != nil {
		resp.DenialReasonCode = *claim.DenialReasonCode
	}
	if claim.ProcessedBy != nil {
		resp.ProcessedBy = claim.ProcessedBy.String()
	}
	return resp
}
