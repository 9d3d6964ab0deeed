package handler

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/backend/internal/domain/shared"
	"github.com/hospital/backend/internal/interfaces/http/dto"
)

// dayLayout is the wire format for calendar-day fields
const dayLayout = "2006-01-02"

// toDecimal converts a float64 request amount to a decimal.Decimal
func toDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// toFloat renders a decimal amount for a JSON response
func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// parseDay parses a calendar-day field (YYYY-MM-DD)
func parseDay(value string) (time.Time, error) {
	t, err := time.Parse(dayLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// parseTimestamp parses a query timestamp, accepting RFC 3339 or a bare day
func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return parseDay(value)
}

// optionalDay parses an optional calendar-day field
func optionalDay(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDay(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// optionalUUID parses an optional UUID field
func optionalUUID(value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// toDomainFilter converts the pagination query into the domain filter
func toDomainFilter(list dto.ListRequest) shared.Filter {
	return shared.Filter{
		Page:     list.Page,
		PageSize: list.PageSize,
		OrderBy:  list.OrderBy,
		OrderDir: list.OrderDir,
	}
}
