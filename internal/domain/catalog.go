package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogItem is a stock-keeping product in the Catalog Store.
type CatalogItem struct {
	ID            string
	Name          string
	Description   string
	UnitPrice     decimal.Decimal
	Quantity      int64
	InvoiceNumber string
	Active        bool
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ValidateWithdrawal checks that qty units can leave stock without going negative.
func (c *CatalogItem) ValidateWithdrawal(qty int64) error {
	if c.Quantity < qty {
		return &StockError{
			ItemID:    c.ID,
			Name:      c.Name,
			Available: c.Quantity,
			Requested: qty,
		}
	}
	return nil
}

// SubjectType implements Snapshotter.
func (c *CatalogItem) SubjectType() SubjectType { return SubjectCatalogItem }

// SubjectID implements Snapshotter.
func (c *CatalogItem) SubjectID() string { return c.ID }

// Fields implements Snapshotter.
func (c *CatalogItem) Fields() []Field {
	return []Field{
		{"name", c.Name},
		{"description", c.Description},
		{"unit_price", c.UnitPrice.String()},
		{"quantity", formatInt(c.Quantity)},
		{"invoice_number", c.InvoiceNumber},
		{"active", formatBool(c.Active)},
	}
}
