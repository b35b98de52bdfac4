package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by a service operation wraps exactly one of these.
var (
	ErrValidation        = errors.New("validation error")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNoLineItems       = errors.New("no valid line items")
	ErrNoHourlyRate      = errors.New("employee has no hourly rate configured")
	ErrNotFound          = errors.New("not found")
	ErrSystem            = errors.New("system error")
	ErrForbidden         = errors.New("actor lacks the required permission")
)

var (
	// Catalog errors
	ErrCatalogItemNotFound = fmt.Errorf("%w: catalog item", ErrNotFound)
	ErrCatalogItemInUse    = fmt.Errorf("%w: catalog item is referenced by line items", ErrValidation)
	ErrCatalogItemExists   = fmt.Errorf("%w: a catalog item with that name already exists", ErrValidation)
	ErrSettlementNotFound  = fmt.Errorf("%w: payroll settlement", ErrNotFound)

	// Ledger errors
	ErrIncomeNotFound    = fmt.Errorf("%w: income record", ErrNotFound)
	ErrExpenseNotFound   = fmt.Errorf("%w: expense record", ErrNotFound)
	ErrRecordInactive    = fmt.Errorf("%w: record is already deleted", ErrValidation)
	ErrAmountIsDerived   = fmt.Errorf("%w: expense amount is derived from its line items", ErrValidation)
	ErrUnknownRecordType = fmt.Errorf("%w: unknown record type", ErrValidation)

	// People errors
	ErrProfileNotFound   = fmt.Errorf("%w: employee profile", ErrNotFound)
	ErrQuotationNotFound = fmt.Errorf("%w: quotation", ErrNotFound)
)

// ValidationError is a field-level input problem.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StockError reports the line that would have driven stock negative.
type StockError struct {
	ItemID    string
	Name      string
	Available int64
	Requested int64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s: %q has %d on hand, %d requested", ErrInsufficientStock, e.Name, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

// ErrorKind names the taxonomy class of an error.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindValidation        ErrorKind = "ValidationError"
	KindInsufficientStock ErrorKind = "InsufficientStock"
	KindNoLineItems       ErrorKind = "NoLineItems"
	KindNoHourlyRate      ErrorKind = "NoHourlyRate"
	KindNotFound          ErrorKind = "NotFound"
	KindForbidden         ErrorKind = "Forbidden"
	KindSystem            ErrorKind = "SystemError"
)

// Classify maps err onto the error taxonomy. Anything unrecognised is a SystemError.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInsufficientStock):
		return KindInsufficientStock
	case errors.Is(err, ErrNoLineItems):
		return KindNoLineItems
	case errors.Is(err, ErrNoHourlyRate):
		return KindNoHourlyRate
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindSystem
	}
}

// IsBusinessError reports whether err is an expected rule violation rather than a failure.
func IsBusinessError(err error) bool {
	kind := Classify(err)
	return kind != KindNone && kind != KindSystem
}
