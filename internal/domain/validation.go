package domain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Validation constants
const (
	MaxTitleLength   = 100
	MaxNameLength    = 100
	MaxClientLength  = 100
	MaxInvoiceLength = 50
	MaxPeriodLength  = 100
	MaxAmount        = "1000000000000" // 1 trillion
	MaxQuantity      = 1_000_000_000
)

var maxAmount = decimal.RequireFromString(MaxAmount)

// NormalizeProductName trims, collapses inner whitespace and title-cases a product name,
// so "  usb   CABLE " and "Usb Cable" resolve to the same catalog item.
func NormalizeProductName(name string) string {
	fields := strings.Fields(name)
	// Casers are stateful, so one is built per call.
	return cases.Title(language.Und).String(strings.ToLower(strings.Join(fields, " ")))
}

// ValidateTitle validates a ledger record title.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return NewValidationError("title", "cannot be empty")
	}
	return ValidateLength("title", title, MaxTitleLength)
}

// ValidateLength rejects values longer than limit characters.
func ValidateLength(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return NewValidationError(field, fmt.Sprintf("exceeds %d characters", limit))
	}
	return nil
}

// TruncateRunes cuts s to at most limit characters without splitting a multi-byte rune.
func TruncateRunes(s string, limit int) string {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}

// ValidateProductName validates an already normalised catalog item name.
func ValidateProductName(name string) error {
	if name == "" {
		return NewValidationError("name", "cannot be empty")
	}
	return ValidateLength("name", name, MaxNameLength)
}

// ValidateAmount validates a monetary amount. Money is kept in whole currency units:
// non-negative, no fraction, at most MaxAmount.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return NewValidationError(field, "must not be negative")
	}
	if !amount.IsInteger() {
		return NewValidationError(field, "must be a whole amount")
	}
	if amount.GreaterThan(maxAmount) {
		return NewValidationError(field, fmt.Sprintf("exceeds maximum of %s", MaxAmount))
	}
	return nil
}

// ValidateUnitPrice validates a catalog price. Prices follow the same rules as amounts.
func ValidateUnitPrice(field string, price decimal.Decimal) error {
	return ValidateAmount(field, price)
}

// ValidateQuantity validates a stock quantity: non-negative and at most MaxQuantity.
func ValidateQuantity(field string, qty int64) error {
	if qty < 0 {
		return NewValidationError(field, "must not be negative")
	}
	if qty > MaxQuantity {
		return NewValidationError(field, fmt.Sprintf("exceeds maximum of %d", MaxQuantity))
	}
	return nil
}

// LaborCost is hours * rate rounded half away from zero to whole currency units.
func LaborCost(hours, rate decimal.Decimal) decimal.Decimal {
	return hours.Mul(rate).Round(0)
}

// ValidateHours validates worked or estimated hours: non-negative with one fractional digit.
func ValidateHours(hours decimal.Decimal) error {
	if hours.IsNegative() {
		return NewValidationError("hours", "must not be negative")
	}
	if !hours.Equal(hours.Round(1)) {
		return NewValidationError("hours", "allows a single decimal place")
	}
	return nil
}

// ParseQuantity parses a positive whole quantity from form text.
func ParseQuantity(field, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, NewValidationError(field, "is required")
	}
	qty, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, NewValidationError(field, fmt.Sprintf("%q is not a whole number", raw))
	}
	if qty <= 0 {
		return 0, NewValidationError(field, "must be positive")
	}
	return qty, nil
}

// ParseUnitPrice parses a non-negative whole price from form text. The upper bound is
// left to ValidateUnitPrice.
func ParseUnitPrice(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, NewValidationError(field, "is required")
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, NewValidationError(field, fmt.Sprintf("%q is not a number", raw))
	}
	if price.IsNegative() {
		return decimal.Zero, NewValidationError(field, "must not be negative")
	}
	if !price.IsInteger() {
		return decimal.Zero, NewValidationError(field, "must be a whole amount")
	}
	return price, nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 100
	const DefaultPageSize = 20

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
