package insurance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appbilling "github.com/hospital/backend/internal/application/billing"
	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/insurance"
	"github.com/hospital/backend/internal/domain/shared"
)

// SubmitClaimRequest carries the input for filing a new claim
type SubmitClaimRequest struct {
	InvoiceID    uuid.UUID
	Provider     string
	PolicyNumber string
	// ClaimAmount defaults to the invoice balance when zero
	ClaimAmount decimal.Decimal
}

// UpdateClaimStatusRequest carries an adjudication decision from the payer
type UpdateClaimStatusRequest struct {
	Status           insurance.ClaimStatus
	ApprovedAmount   *decimal.Decimal
	DenialReasonCode *string
	ProcessedBy      *uuid.UUID
}

// CreateAppealRequest carries the input for appealing a rejected claim
type CreateAppealRequest struct {
	// ClaimAmount defaults to the original claim amount when zero
	ClaimAmount      decimal.Decimal
	ResubmissionCode *string
	Notes            string
}

// ClaimService manages insurance claims, adjudication and appeals
type ClaimService struct {
	claims   insurance.ClaimRepository
	invoices billing.InvoiceRepository
	scope    appbilling.TransactionScope
	logger   *zap.Logger
}

// NewClaimService creates a new claim service
func NewClaimService(claims insurance.ClaimRepository, invoices billing.InvoiceRepository, scope appbilling.TransactionScope, logger *zap.Logger) *ClaimService {
	return &ClaimService{
		claims:   claims,
		invoices: invoices,
		scope:    scope,
		logger:   logger,
	}
}

// SubmitClaim creates a claim for an invoice and files it with the payer
func (s *ClaimService) SubmitClaim(ctx context.Context, hospitalID uuid.UUID, req SubmitClaimRequest) (*insurance.InsuranceClaim, error) {
	var claim *insurance.InsuranceClaim
	err := s.scope.Execute(ctx, func(repos appbilling.TransactionalRepositories) error {
		invoice, err := repos.Invoices().FindByID(ctx, hospitalID, req.InvoiceID)
		if err != nil {
			return err
		}
		if !invoice.IsOpen() {
			return shared.NewInvalidStateError(fmt.Sprintf("Cannot claim against invoice in status %s", invoice.Status))
		}

		amount := req.ClaimAmount
		if amount.IsZero() {
			amount = invoice.BalanceAmount
		}
		if amount.GreaterThan(invoice.BalanceAmount) {
			return shared.NewValidationError(fmt.Sprintf(
				"Claim amount (%s) exceeds invoice balance (%s)",
				amount.StringFixed(2), invoice.BalanceAmount.StringFixed(2)))
		}

		number, err := repos.Claims().NextClaimNumber(ctx, hospitalID, time.Now())
		if err != nil {
			return fmt.Errorf("generate claim number: %w", err)
		}
		claim, err = insurance.NewInsuranceClaim(hospitalID, req.InvoiceID, number, req.Provider, req.PolicyNumber, amount)
		if err != nil {
			return err
		}
		if err := claim.Submit(); err != nil {
			return err
		}
		if err := repos.Claims().Save(ctx, claim); err != nil {
			return err
		}
		if err := repos.Events().Save(ctx, claim.GetDomainEvents()...); err != nil {
			return err
		}
		claim.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("claim submitted",
		zap.String("claim_number", claim.ClaimNumber),
		zap.String("invoice_id", req.InvoiceID.String()),
		zap.String("provider", claim.Provider),
		zap.String("amount", claim.ClaimAmount.String()))
	return claim, nil
}

// UpdateClaimStatus applies a payer decision. An APPROVED or PAID decision
// settles the invoice in the same transaction: the claim moves first, then
// an INSURANCE payment row is created, then the invoice ledger absorbs it.
// A denial records the reason code and touches nothing else.
func (s *ClaimService) UpdateClaimStatus(ctx context.Context, hospitalID, claimID uuid.UUID, req UpdateClaimStatusRequest) (*insurance.InsuranceClaim, error) {
	var claim *insurance.InsuranceClaim
	err := s.scope.Execute(ctx, func(repos appbilling.TransactionalRepositories) error {
		var err error
		claim, err = repos.Claims().FindByID(ctx, hospitalID, claimID)
		if err != nil {
			return err
		}
		if err := claim.UpdateStatus(req.Status, req.ApprovedAmount, req.DenialReasonCode, req.ProcessedBy); err != nil {
			return err
		}
		if err := repos.Claims().SaveWithLock(ctx, claim); err != nil {
			return err
		}

		if req.Status == insurance.ClaimStatusApproved || req.Status == insurance.ClaimStatusPaid {
			if err := s.settleInvoice(ctx, repos, hospitalID, claim); err != nil {
				return err
			}
		}

		if err := repos.Events().Save(ctx, claim.GetDomainEvents()...); err != nil {
			return err
		}
		claim.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("claim status updated",
		zap.String("claim_number", claim.ClaimNumber),
		zap.String("status", string(claim.Status)))
	return claim, nil
}

// settleInvoice applies the claim payout to the invoice as an insurance
// payment inside the caller's transaction
func (s *ClaimService) settleInvoice(ctx context.Context, repos appbilling.TransactionalRepositories, hospitalID uuid.UUID, claim *insurance.InsuranceClaim) error {
	payout := claim.PayoutAmount()
	if !payout.IsPositive() {
		return nil
	}

	invoice, err := repos.Invoices().FindByID(ctx, hospitalID, claim.InvoiceID)
	if err != nil {
		return err
	}

	number, err := repos.Payments().NextPaymentNumber(ctx, hospitalID, time.Now())
	if err != nil {
		return fmt.Errorf("generate payment number: %w", err)
	}
	payment, err := billing.NewPayment(hospitalID, claim.InvoiceID, number, payout,
		billing.PaymentMethodInsurance, claim.ClaimNumber, claim.ProcessedBy)
	if err != nil {
		return err
	}
	if err := repos.Payments().Save(ctx, payment); err != nil {
		return err
	}
	if err := invoice.ApplyPayment(payment); err != nil {
		return err
	}
	if err := repos.Invoices().SaveWithLock(ctx, invoice); err != nil {
		return err
	}
	if err := repos.Events().Save(ctx, invoice.GetDomainEvents()...); err != nil {
		return err
	}
	invoice.ClearDomainEvents()
	return nil
}

// CreateClaimAppeal drafts an appeal for a rejected claim. Marking the
// original as appealed and creating the appeal commit together.
func (s *ClaimService) CreateClaimAppeal(ctx context.Context, hospitalID, claimID uuid.UUID, req CreateAppealRequest) (*insurance.InsuranceClaim, error) {
	var appeal *insurance.InsuranceClaim
	err := s.scope.Execute(ctx, func(repos appbilling.TransactionalRepositories) error {
		original, err := repos.Claims().FindByID(ctx, hospitalID, claimID)
		if err != nil {
			return err
		}

		number, err := repos.Claims().NextClaimNumber(ctx, hospitalID, time.Now())
		if err != nil {
			return fmt.Errorf("generate claim number: %w", err)
		}
		appeal, err = original.CreateAppeal(number, req.ClaimAmount, req.ResubmissionCode, req.Notes)
		if err != nil {
			return err
		}

		if err := repos.Claims().SaveWithLock(ctx, original); err != nil {
			return err
		}
		if err := repos.Claims().Save(ctx, appeal); err != nil {
			return err
		}
		if err := repos.Events().Save(ctx, appeal.GetDomainEvents()...); err != nil {
			return err
		}
		appeal.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("claim appeal created",
		zap.String("claim_number", appeal.ClaimNumber),
		zap.String("original_claim_id", claimID.String()))
	return appeal, nil
}

// SubmitClaimAppeal files a drafted appeal with the payer
func (s *ClaimService) SubmitClaimAppeal(ctx context.Context, hospitalID, claimID uuid.UUID) (*insurance.InsuranceClaim, error) {
	var claim *insurance.InsuranceClaim
	err := s.scope.Execute(ctx, func(repos appbilling.TransactionalRepositories) error {
		var err error
		claim, err = repos.Claims().FindByID(ctx, hospitalID, claimID)
		if err != nil {
			return err
		}
		if err := claim.SubmitAppeal(); err != nil {
			return err
		}
		if err := repos.Claims().SaveWithLock(ctx, claim); err != nil {
			return err
		}
		if err := repos.Events().Save(ctx, claim.GetDomainEvents()...); err != nil {
			return err
		}
		claim.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// GetClaim retrieves a claim by ID
func (s *ClaimService) GetClaim(ctx context.Context, hospitalID, claimID uuid.UUID) (*insurance.InsuranceClaim, error) {
	return s.claims.FindByID(ctx, hospitalID, claimID)
}

// ListClaims retrieves claims matching the filter
func (s *ClaimService) ListClaims(ctx context.Context, hospitalID uuid.UUID, filter insurance.ClaimFilter) (shared.Paginated[*insurance.InsuranceClaim], error) {
	return s.claims.List(ctx, hospitalID, filter)
}

// GetClaimAppealHistory returns the appeal chain around a claim: ancestors
// root-first, then the queried claim, then its direct appeals newest first
func (s *ClaimService) GetClaimAppealHistory(ctx context.Context, hospitalID, claimID uuid.UUID) ([]insurance.ClaimHistoryEntry, error) {
	claim, err := s.claims.FindByID(ctx, hospitalID, claimID)
	if err != nil {
		return nil, err
	}

	var ancestors []*insurance.InsuranceClaim
	seen := map[uuid.UUID]bool{claim.ID: true}
	current := claim
	for current.OriginalClaimID != nil {
		if seen[*current.OriginalClaimID] {
			break
		}
		parent, err := s.claims.FindByID(ctx, hospitalID, *current.OriginalClaimID)
		if err != nil {
			if shared.IsNotFound(err) {
				break
			}
			return nil, err
		}
		seen[parent.ID] = true
		ancestors = append([]*insurance.InsuranceClaim{parent}, ancestors...)
		current = parent
	}

	history := make([]insurance.ClaimHistoryEntry, 0, len(ancestors)+2)
	for _, a := range ancestors {
		history = append(history, insurance.ClaimHistoryEntry{Claim: a, Type: a.HistoryType()})
	}
	history = append(history, insurance.ClaimHistoryEntry{Claim: claim, Type: claim.HistoryType()})

	children, err := s.claims.FindByOriginal(ctx, hospitalID, claim.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		history = append(history, insurance.ClaimHistoryEntry{Claim: c, Type: insurance.ClaimHistoryAppeal})
	}
	return history, nil
}
