package insurance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hospital/backend/internal/domain/shared"
)

// ClaimFilter narrows claim list queries
type ClaimFilter struct {
	shared.Filter
	InvoiceID *uuid.UUID
	Status    *ClaimStatus
	Provider  *string
	FromDate  *time.Time
	ToDate    *time.Time
}

// ClaimRepository defines persistence for insurance claims
type ClaimRepository interface {
	// Save persists the claim
	Save(ctx context.Context, claim *InsuranceClaim) error
	// SaveWithLock persists the claim with optimistic lock checking
	SaveWithLock(ctx context.Context, claim *InsuranceClaim) error
	// FindByID retrieves a claim by ID
	FindByID(ctx context.Context, hospitalID, id uuid.UUID) (*InsuranceClaim, error)
	// FindByNumber retrieves a claim by its claim number
	FindByNumber(ctx context.Context, hospitalID uuid.UUID, claimNumber string) (*InsuranceClaim, error)
	// FindByOriginal retrieves the direct appeals of a claim, newest first
	FindByOriginal(ctx context.Context, hospitalID, originalClaimID uuid.UUID) ([]*InsuranceClaim, error)
	// List retrieves claims matching the filter
	List(ctx context.Context, hospitalID uuid.UUID, filter ClaimFilter) (shared.Paginated[*InsuranceClaim], error)
	// NextClaimNumber generates the next claim number for the given day,
	// formatted CLM-YYYYMMDD-NNNNN
	NextClaimNumber(ctx context.Context, hospitalID uuid.UUID, day time.Time) (string, error)
}
