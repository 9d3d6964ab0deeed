package billing

import "github.com/shopspring/decimal"

// ChargeItem is a priced entry from the hospital charge master
type ChargeItem struct {
	Code        string
	Description string
	Category    string
	UnitPrice   decimal.Decimal
}

// PriceResolver resolves charge codes against the hospital charge master.
// Invoice creation uses it to price coded items; unknown codes are a
// VALIDATION_ERROR at the service layer.
type PriceResolver interface {
	// Resolve returns the charge master entry for a code
	Resolve(code string) (*ChargeItem, error)
}
