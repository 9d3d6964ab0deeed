package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hospital/backend/internal/domain/ledger"
)

// balanceTolerance absorbs rounding drift when checking the accounting equation
var balanceTolerance = decimal.NewFromFloat(0.01)

// AccountBalance is one account line of a financial statement
type AccountBalance struct {
	AccountCode string             `json:"account_code"`
	AccountType ledger.AccountType `json:"account_type"`
	Balance     decimal.Decimal    `json:"balance"`
}

// IncomeStatement reports revenue and expense over a period.
// Revenue accounts carry credit-normal balances, expense accounts
// debit-normal.
type IncomeStatement struct {
	From         time.Time        `json:"from"`
	To           time.Time        `json:"to"`
	Revenue      []AccountBalance `json:"revenue"`
	Expenses     []AccountBalance `json:"expenses"`
	TotalRevenue decimal.Decimal  `json:"total_revenue"`
	TotalExpense decimal.Decimal  `json:"total_expense"`
	NetIncome    decimal.Decimal  `json:"net_income"`
}

// ComputeIncomeStatement derives an income statement from GL entries posted
// within the period
func ComputeIncomeStatement(from, to time.Time, entries []*ledger.GLEntry) *IncomeStatement {
	stmt := &IncomeStatement{
		From:         from,
		To:           to,
		TotalRevenue: decimal.Zero,
		TotalExpense: decimal.Zero,
	}

	revenue := newAccountTotals()
	expenses := newAccountTotals()
	for _, e := range entries {
		switch e.AccountType {
		case ledger.AccountTypeRevenue:
			revenue.add(e.AccountCode, e.AccountType, e.CreditAmount.Sub(e.DebitAmount))
		case ledger.AccountTypeExpense:
			expenses.add(e.AccountCode, e.AccountType, e.DebitAmount.Sub(e.CreditAmount))
		}
	}

	stmt.Revenue = revenue.lines()
	stmt.Expenses = expenses.lines()
	for _, l := range stmt.Revenue {
		stmt.TotalRevenue = stmt.TotalRevenue.Add(l.Balance)
	}
	for _, l := range stmt.Expenses {
		stmt.TotalExpense = stmt.TotalExpense.Add(l.Balance)
	}
	stmt.NetIncome = stmt.TotalRevenue.Sub(stmt.TotalExpense)
	return stmt
}

// BalanceSheet reports financial position as of a point in time.
// Retained earnings absorb the lifetime net income so the statement
// balances without a formal closing process.
type BalanceSheet struct {
	AsOf             time.Time        `json:"as_of"`
	Assets           []AccountBalance `json:"assets"`
	Liabilities      []AccountBalance `json:"liabilities"`
	Equity           []AccountBalance `json:"equity"`
	TotalAssets      decimal.Decimal  `json:"total_assets"`
	TotalLiabilities decimal.Decimal  `json:"total_liabilities"`
	TotalEquity      decimal.Decimal  `json:"total_equity"`
	RetainedEarnings decimal.Decimal  `json:"retained_earnings"`
}

// ComputeBalanceSheet derives a balance sheet from all GL entries posted up
// to the as-of time
func ComputeBalanceSheet(asOf time.Time, entries []*ledger.GLEntry) *BalanceSheet {
	sheet := &BalanceSheet{
		AsOf:             asOf,
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
		RetainedEarnings: decimal.Zero,
	}

	assets := newAccountTotals()
	liabilities := newAccountTotals()
	equity := newAccountTotals()
	for _, e := range entries {
		switch e.AccountType {
		case ledger.AccountTypeAsset:
			assets.add(e.AccountCode, e.AccountType, e.DebitAmount.Sub(e.CreditAmount))
		case ledger.AccountTypeLiability:
			liabilities.add(e.AccountCode, e.AccountType, e.CreditAmount.Sub(e.DebitAmount))
		case ledger.AccountTypeEquity:
			equity.add(e.AccountCode, e.AccountType, e.CreditAmount.Sub(e.DebitAmount))
		case ledger.AccountTypeRevenue:
			sheet.RetainedEarnings = sheet.RetainedEarnings.Add(e.CreditAmount.Sub(e.DebitAmount))
		case ledger.AccountTypeExpense:
			sheet.RetainedEarnings = sheet.RetainedEarnings.Sub(e.DebitAmount.Sub(e.CreditAmount))
		}
	}

	sheet.Assets = assets.lines()
	sheet.Liabilities = liabilities.lines()
	sheet.Equity = equity.lines()
	for _, l := range sheet.Assets {
		sheet.TotalAssets = sheet.TotalAssets.Add(l.Balance)
	}
	for _, l := range sheet.Liabilities {
		sheet.TotalLiabilities = sheet.TotalLiabilities.Add(l.Balance)
	}
	for _, l := range sheet.Equity {
		sheet.TotalEquity = sheet.TotalEquity.Add(l.Balance)
	}
	return sheet
}

// IsBalanced reports whether assets equal liabilities plus equity plus
// retained earnings within the rounding tolerance
func (s *BalanceSheet) IsBalanced() bool {
	diff := s.TotalAssets.Sub(s.TotalLiabilities).Sub(s.TotalEquity).Sub(s.RetainedEarnings)
	return diff.Abs().LessThanOrEqual(balanceTolerance)
}

// accountTotals accumulates per-account balances preserving first-seen order
type accountTotals struct {
	order []string
	types map[string]ledger.AccountType
	sums  map[string]decimal.Decimal
}

func newAccountTotals() *accountTotals {
	return &accountTotals{
		types: make(map[string]ledger.AccountType),
		sums:  make(map[string]decimal.Decimal),
	}
}

func (t *accountTotals) add(code string, accountType ledger.AccountType, amount decimal.Decimal) {
	if _, ok := t.sums[code]; !ok {
		t.order = append(t.order, code)
		t.types[code] = accountType
		t.sums[code] = decimal.Zero
	}
	t.sums[code] = t.sums[code].Add(amount)
}

func (t *accountTotals) lines() []AccountBalance {
	lines := make([]AccountBalance, 0, len(t.order))
	for _, code := range t.order {
		lines = append(lines, AccountBalance{
			AccountCode: code,
			AccountType: t.types[code],
			Balance:     t.sums[code],
		})
	}
	return lines
}
