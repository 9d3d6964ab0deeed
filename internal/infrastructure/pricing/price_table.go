package pricing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/shared"
)

// TablePriceResolver resolves charge codes against a charge master table
// loaded from a TOML file. The table is read once at startup; hospitals
// reprice by redeploying the file, not through the API.
type TablePriceResolver struct {
	mu    sync.RWMutex
	items map[string]billing.ChargeItem
}

// chargeEntry mirrors one [[charge]] block in the charge master file
type chargeEntry struct {
	Code        string  `mapstructure:"code"`
	Description string  `mapstructure:"description"`
	Category    string  `mapstructure:"category"`
	UnitPrice   float64 `mapstructure:"unit_price"`
}

// NewTablePriceResolver loads the charge master from the given TOML file
func NewTablePriceResolver(path string) (*TablePriceResolver, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read charge master %s: %w", path, err)
	}

	var entries []chargeEntry
	if err := v.UnmarshalKey("charge", &entries); err != nil {
		return nil, fmt.Errorf("failed to parse charge master %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("charge master %s contains no charges", path)
	}

	items := make(map[string]billing.ChargeItem, len(entries))
	for _, e := range entries {
		code := strings.TrimSpace(e.Code)
		if code == "" {
			return nil, fmt.Errorf("charge master %s contains an entry without a code", path)
		}
		if _, dup := items[code]; dup {
			return nil, fmt.Errorf("charge master %s defines code %s twice", path, code)
		}
		items[code] = billing.ChargeItem{
			Code:        code,
			Description: e.Description,
			Category:    e.Category,
			UnitPrice:   decimal.NewFromFloat(e.UnitPrice),
		}
	}

	return &TablePriceResolver{items: items}, nil
}

// NewStaticPriceResolver builds a resolver from in-memory charge items,
// useful for tests and seeding
func NewStaticPriceResolver(charges ...billing.ChargeItem) *TablePriceResolver {
	items := make(map[string]billing.ChargeItem, len(charges))
	for _, c := range charges {
		items[c.Code] = c
	}
	return &TablePriceResolver{items: items}
}

// Resolve returns the charge master entry for a code
func (r *TablePriceResolver) Resolve(code string) (*billing.ChargeItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[code]
	if !ok {
		return nil, shared.NewValidationError(fmt.Sprintf("Unknown charge code: %s", code))
	}
	return &item, nil
}

// Size returns the number of loaded charges
func (r *TablePriceResolver) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Ensure TablePriceResolver implements PriceResolver
var _ billing.PriceResolver = (*TablePriceResolver)(nil)
