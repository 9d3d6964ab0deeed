package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/backend/internal/domain/shared"
)

// AccountType classifies a general ledger account
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Well-known account codes used by the revenue cycle posting rules
const (
	AccountCash               = "1000"
	AccountAccountsReceivable = "1100"
	AccountPatientRevenue     = "4000"
	AccountWriteOffExpense    = "5400"
)

// GLEntry is a single general ledger line. Entries are written only by the
// posting worker off the event stream; lifecycle components never touch
// them. An entry carries either a debit or a credit amount, never both.
type GLEntry struct {
	shared.BaseEntity
	HospitalID   uuid.UUID
	EntryNumber  string
	AccountCode  string
	AccountType  AccountType
	CostCenter   string
	DebitAmount  decimal.Decimal
	CreditAmount decimal.Decimal
	Description  string
	SourceType   string
	SourceID     uuid.UUID
	PostedAt     time.Time
}

// NewDebitEntry creates a GL entry on the debit side
func NewDebitEntry(hospitalID uuid.UUID, entryNumber, accountCode string, accountType AccountType, amount decimal.Decimal, description, sourceType string, sourceID uuid.UUID) (*GLEntry, error) {
	return newGLEntry(hospitalID, entryNumber, accountCode, accountType, amount, decimal.Zero, description, sourceType, sourceID)
}

// NewCreditEntry creates a GL entry on the credit side
func NewCreditEntry(hospitalID uuid.UUID, entryNumber, accountCode string, accountType AccountType, amount decimal.Decimal, description, sourceType string, sourceID uuid.UUID) (*GLEntry, error) {
	return newGLEntry(hospitalID, entryNumber, accountCode, accountType, decimal.Zero, amount, description, sourceType, sourceID)
}

func newGLEntry(hospitalID uuid.UUID, entryNumber, accountCode string, accountType AccountType, debit, credit decimal.Decimal, description, sourceType string, sourceID uuid.UUID) (*GLEntry, error) {
	if accountCode == "" {
		return nil, shared.NewValidationError("Account code is required")
	}
	amount := debit
	if amount.IsZero() {
		amount = credit
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("Entry amount must be positive")
	}
	return &GLEntry{
		BaseEntity:   shared.NewBaseEntity(),
		HospitalID:   hospitalID,
		EntryNumber:  entryNumber,
		AccountCode:  accountCode,
		AccountType:  accountType,
		DebitAmount:  debit,
		CreditAmount: credit,
		Description:  description,
		SourceType:   sourceType,
		SourceID:     sourceID,
		PostedAt:     time.Now(),
	}, nil
}

// GLEntryRepository defines persistence for general ledger entries
type GLEntryRepository interface {
	// Save persists one or more GL entries, typically a balanced pair
	Save(ctx context.Context, entries ...*GLEntry) error
	// FindByPeriod retrieves entries posted within a period
	FindByPeriod(ctx context.Context, hospitalID uuid.UUID, from, to time.Time) ([]*GLEntry, error)
	// FindByAccount retrieves entries for one account within a period
	FindByAccount(ctx context.Context, hospitalID uuid.UUID, accountCode string, from, to time.Time) ([]*GLEntry, error)
	// FindBySource retrieves entries posted for a source document
	FindBySource(ctx context.Context, hospitalID uuid.UUID, sourceType string, sourceID uuid.UUID) ([]*GLEntry, error)
	// FindAsOf retrieves all entries posted up to the given time
	FindAsOf(ctx context.Context, hospitalID uuid.UUID, asOf time.Time) ([]*GLEntry, error)
}

// GLPoster posts balanced entry sets to the ledger. The posting worker is
// best-effort: a failed post is retried through the outbox and eventually
// dead-lettered, it never rolls back the financial mutation it mirrors.
type GLPoster interface {
	Post(ctx context.Context, entries ...*GLEntry) error
}
