package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// IncomeClassification separates operating from non-operating income.
type IncomeClassification string

const (
	IncomeOperational    IncomeClassification = "operational"
	IncomeNonOperational IncomeClassification = "non_operational"
)

// IsValid checks the classification against the allowed set.
func (c IncomeClassification) IsValid() bool {
	return c == IncomeOperational || c == IncomeNonOperational
}

// ExpenseClassification separates costs of goods from general expenses.
type ExpenseClassification string

const (
	ExpenseCost    ExpenseClassification = "cost"
	ExpenseGeneral ExpenseClassification = "expense"
)

// IsValid checks the classification against the allowed set.
func (c ExpenseClassification) IsValid() bool {
	return c == ExpenseCost || c == ExpenseGeneral
}

// IncomeRecord is an income header in the Ledger Store.
type IncomeRecord struct {
	ID             string
	Title          string
	Description    string
	Amount         decimal.Decimal
	Classification IncomeClassification
	Client         string
	CreatedAt      time.Time
	CreatedBy      string
	// CreatedByName is frozen at creation so the record stays attributable
	// after the creator account is renamed or removed.
	CreatedByName string
	Active        bool
	Lines         []LineItem
}

// ExpenseRecord is an expense header in the Ledger Store.
// Amount is always the sum of its lines, except for payroll expenses which carry no lines.
type ExpenseRecord struct {
	ID             string
	Title          string
	Description    string
	Amount         decimal.Decimal
	Classification ExpenseClassification
	CreatedAt      time.Time
	CreatedBy      string
	CreatedByName  string
	Active         bool
	Lines          []LineItem
}

// LineItem is one stock-affecting line of an income or expense record.
// UnitPrice is the catalog price at sale time for income and the purchase price for expenses.
type LineItem struct {
	ID            string
	RecordID      string
	CatalogItemID string
	Quantity      int64
	UnitPrice     decimal.Decimal
}

// Subtotal returns quantity * unit price.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// SumLines accumulates quantity * unit price over lines.
func SumLines(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// SubjectType implements Snapshotter.
func (r *IncomeRecord) SubjectType() SubjectType { return SubjectIncome }

// SubjectID implements Snapshotter.
func (r *IncomeRecord) SubjectID() string { return r.ID }

// Fields implements Snapshotter.
func (r *IncomeRecord) Fields() []Field {
	return []Field{
		{"title", r.Title},
		{"description", r.Description},
		{"amount", r.Amount.String()},
		{"classification", string(r.Classification)},
		{"client", r.Client},
		{"created_at", r.CreatedAt.UTC().Format(time.RFC3339)},
		{"created_by", r.CreatedByName},
		{"active", formatBool(r.Active)},
		{"lines", formatLines(r.Lines)},
	}
}

// SubjectType implements Snapshotter.
func (r *ExpenseRecord) SubjectType() SubjectType { return SubjectExpense }

// SubjectID implements Snapshotter.
func (r *ExpenseRecord) SubjectID() string { return r.ID }

// Fields implements Snapshotter.
func (r *ExpenseRecord) Fields() []Field {
	return []Field{
		{"title", r.Title},
		{"description", r.Description},
		{"amount", r.Amount.String()},
		{"classification", string(r.Classification)},
		{"created_at", r.CreatedAt.UTC().Format(time.RFC3339)},
		{"created_by", r.CreatedByName},
		{"active", formatBool(r.Active)},
		{"lines", formatLines(r.Lines)},
	}
}

func formatLines(lines []LineItem) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%s x%d @ %s", l.CatalogItemID, l.Quantity, l.UnitPrice.String()))
	}
	return strings.Join(parts, ", ")
}

// RecordChanges carries the header fields an edit may change. Nil fields are left untouched.
type RecordChanges struct {
	Title          *string
	Description    *string
	Classification *string
	Client         *string
	Amount         *decimal.Decimal
}

// IsEmpty reports whether no field is set.
func (c RecordChanges) IsEmpty() bool {
	return c.Title == nil && c.Description == nil && c.Classification == nil && c.Client == nil && c.Amount == nil
}

// ApplyToIncome validates and applies the changes to an income record.
func (c RecordChanges) ApplyToIncome(r *IncomeRecord) error {
	if c.Title != nil {
		if err := ValidateTitle(*c.Title); err != nil {
			return err
		}
		r.Title = *c.Title
	}
	if c.Description != nil {
		r.Description = *c.Description
	}
	if c.Classification != nil {
		cls := IncomeClassification(*c.Classification)
		if !cls.IsValid() {
			return NewValidationError("classification", fmt.Sprintf("unknown income classification %q", *c.Classification))
		}
		r.Classification = cls
	}
	if c.Client != nil {
		r.Client = *c.Client
	}
	if c.Amount != nil {
		if err := ValidateAmount("amount", *c.Amount); err != nil {
			return err
		}
		r.Amount = *c.Amount
	}
	return nil
}

// ApplyToExpense validates and applies the changes to an expense record.
// The amount of an expense is derived, so changing it is rejected.
func (c RecordChanges) ApplyToExpense(r *ExpenseRecord) error {
	if c.Amount != nil {
		return ErrAmountIsDerived
	}
	if c.Client != nil {
		return NewValidationError("client", "expenses have no client")
	}
	if c.Title != nil {
		if err := ValidateTitle(*c.Title); err != nil {
			return err
		}
		r.Title = *c.Title
	}
	if c.Description != nil {
		r.Description = *c.Description
	}
	if c.Classification != nil {
		cls := ExpenseClassification(*c.Classification)
		if !cls.IsValid() {
			return NewValidationError("classification", fmt.Sprintf("unknown expense classification %q", *c.Classification))
		}
		r.Classification = cls
	}
	return nil
}
