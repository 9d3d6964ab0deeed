package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospital/backend/internal/domain/ledger"
)

func debit(t *testing.T, code string, accountType ledger.AccountType, amount int64) *ledger.GLEntry {
	t.Helper()
	e, err := ledger.NewDebitEntry(uuid.New(), "GL-1", code, accountType,
		decimal.NewFromInt(amount), "", "TEST", uuid.New())
	require.NoError(t, err)
	return e
}

func credit(t *testing.T, code string, accountType ledger.AccountType, amount int64) *ledger.GLEntry {
	t.Helper()
	e, err := ledger.NewCreditEntry(uuid.New(), "GL-1", code, accountType,
		decimal.NewFromInt(amount), "", "TEST", uuid.New())
	require.NoError(t, err)
	return e
}

func TestComputeIncomeStatement(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	stmt := ComputeIncomeStatement(from, to, []*ledger.GLEntry{
		credit(t, ledger.AccountPatientRevenue, ledger.AccountTypeRevenue, 1000),
		credit(t, ledger.AccountPatientRevenue, ledger.AccountTypeRevenue, 500),
		// a revenue reversal posts on the debit side
		debit(t, ledger.AccountPatientRevenue, ledger.AccountTypeRevenue, 200),
		debit(t, ledger.AccountWriteOffExpense, ledger.AccountTypeExpense, 300),
		// asset movements never appear on the income statement
		debit(t, ledger.AccountCash, ledger.AccountTypeAsset, 9999),
	})

	assert.True(t, stmt.TotalRevenue.Equal(decimal.NewFromInt(1300)))
	assert.True(t, stmt.TotalExpense.Equal(decimal.NewFromInt(300)))
	assert.True(t, stmt.NetIncome.Equal(decimal.NewFromInt(1000)))
	require.Len(t, stmt.Revenue, 1)
	assert.Equal(t, ledger.AccountPatientRevenue, stmt.Revenue[0].AccountCode)
}

func TestComputeBalanceSheet(t *testing.T) {
	asOf := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("balanced books satisfy the accounting equation", func(t *testing.T) {
		// invoice posting: debit AR 1000 / credit revenue 1000
		// payment posting: debit cash 600 / credit AR 600
		// write-off posting: debit expense 100 / credit AR 100
		sheet := ComputeBalanceSheet(asOf, []*ledger.GLEntry{
			debit(t, ledger.AccountAccountsReceivable, ledger.AccountTypeAsset, 1000),
			credit(t, ledger.AccountPatientRevenue, ledger.AccountTypeRevenue, 1000),
			debit(t, ledger.AccountCash, ledger.AccountTypeAsset, 600),
			credit(t, ledger.AccountAccountsReceivable, ledger.AccountTypeAsset, 600),
			debit(t, ledger.AccountWriteOffExpense, ledger.AccountTypeExpense, 100),
			credit(t, ledger.AccountAccountsReceivable, ledger.AccountTypeAsset, 100),
		})

		assert.True(t, sheet.TotalAssets.Equal(decimal.NewFromInt(900)), "AR 300 + cash 600")
		assert.True(t, sheet.RetainedEarnings.Equal(decimal.NewFromInt(900)), "revenue 1000 - write-off 100")
		assert.True(t, sheet.IsBalanced())
	})

	t.Run("an unmatched posting breaks the balance", func(t *testing.T) {
		sheet := ComputeBalanceSheet(asOf, []*ledger.GLEntry{
			debit(t, ledger.AccountAccountsReceivable, ledger.AccountTypeAsset, 1000),
			credit(t, ledger.AccountPatientRevenue, ledger.AccountTypeRevenue, 900),
		})

		assert.False(t, sheet.IsBalanced())
	})

	t.Run("tolerates sub-cent rounding drift", func(t *testing.T) {
		ar, err := ledger.NewDebitEntry(uuid.New(), "GL-1", ledger.AccountAccountsReceivable,
			ledger.AccountTypeAsset, decimal.NewFromFloat(100.005), "", "TEST", uuid.New())
		require.NoError(t, err)
		rev, err := ledger.NewCreditEntry(uuid.New(), "GL-1", ledger.AccountPatientRevenue,
			ledger.AccountTypeRevenue, decimal.NewFromFloat(100.00), "", "TEST", uuid.New())
		require.NoError(t, err)

		sheet := ComputeBalanceSheet(asOf, []*ledger.GLEntry{ar, rev})
		assert.True(t, sheet.IsBalanced())
	})
}
