package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quotation is a non-binding price estimate. It never touches stock.
type Quotation struct {
	ID          string
	Client      string
	Hours       decimal.Decimal
	HourlyRate  decimal.Decimal
	Description string
	// MaterialsTotal is the sum of the line subtotals.
	MaterialsTotal decimal.Decimal
	// GrandTotal is labor plus materials.
	GrandTotal decimal.Decimal
	CreatedBy  string
	CreatedAt  time.Time
	Lines      []QuotationLine
}

// QuotationLine snapshots a catalog item's price at quotation time.
type QuotationLine struct {
	ID            string
	QuotationID   string
	CatalogItemID string
	ItemName      string
	Quantity      int64
	UnitPrice     decimal.Decimal
	Subtotal      decimal.Decimal
}

// LaborTotal returns hours * hourly rate in whole currency units.
func (q *Quotation) LaborTotal() decimal.Decimal {
	return LaborCost(q.Hours, q.HourlyRate)
}

// Compute fills line subtotals, the materials total and the grand total.
func (q *Quotation) Compute() {
	materials := decimal.Zero
	for i := range q.Lines {
		line := &q.Lines[i]
		line.Subtotal = line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity))
		materials = materials.Add(line.Subtotal)
	}
	q.MaterialsTotal = materials
	q.GrandTotal = q.LaborTotal().Add(materials)
}
