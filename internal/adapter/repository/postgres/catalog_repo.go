package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/usecase"
)

const catalogColumns = `id, name, description, unit_price, quantity, invoice_number, active, created_by, created_at, updated_at`

// CatalogRepository implements usecase.CatalogRepository.
type CatalogRepository struct {
	db querier
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: pool}
}

// Create inserts a catalog item. Names are unique.
func (r *CatalogRepository) Create(ctx context.Context, tx usecase.Transaction, item *domain.CatalogItem) error {
	_, err := inTx(tx).Exec(ctx, `
		INSERT INTO catalog_items (`+catalogColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID, item.Name, item.Description, item.UnitPrice, item.Quantity,
		item.InvoiceNumber, item.Active, item.CreatedBy, item.CreatedAt, item.UpdatedAt,
	)
	if hasCode(err, pgErrUniqueViolation) {
		return domain.ErrCatalogItemExists
	}
	return err
}

// GetByID retrieves a catalog item by ID.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	return getCatalogItem(ctx, r.db, `SELECT `+catalogColumns+` FROM catalog_items WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a catalog item by ID with a FOR UPDATE lock.
func (r *CatalogRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.CatalogItem, error) {
	return getCatalogItem(ctx, inTx(tx), `SELECT `+catalogColumns+` FROM catalog_items WHERE id = $1 FOR UPDATE`, id)
}

// DecrementStock withdraws qty units in one conditional UPDATE, so concurrent sales
// can never drive stock negative. When the guard fails the row is re-read to tell
// a missing item from an insufficient one.
func (r *CatalogRepository) DecrementStock(ctx context.Context, tx usecase.Transaction, id string, qty int64) (*domain.CatalogItem, error) {
	q := inTx(tx)

	item, err := getCatalogItem(ctx, q, `
		UPDATE catalog_items
		SET quantity = quantity - $2, updated_at = NOW()
		WHERE id = $1 AND quantity >= $2
		RETURNING `+catalogColumns, id, qty)
	if !errors.Is(err, domain.ErrCatalogItemNotFound) {
		return item, err
	}

	current, err := getCatalogItem(ctx, q, `SELECT `+catalogColumns+` FROM catalog_items WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if err := current.ValidateWithdrawal(qty); err != nil {
		return nil, err
	}

	return nil, fmt.Errorf("stock update for catalog item %s matched no rows", id)
}

// UpsertStock adds qty units to the item with the same name, creating it when absent.
// The unit price is overwritten with the incoming one.
func (r *CatalogRepository) UpsertStock(ctx context.Context, tx usecase.Transaction, item *domain.CatalogItem, qty int64) (*domain.CatalogItem, error) {
	return getCatalogItem(ctx, inTx(tx), `
		INSERT INTO catalog_items (`+catalogColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (name) DO UPDATE
		SET quantity = catalog_items.quantity + EXCLUDED.quantity,
		    unit_price = EXCLUDED.unit_price,
		    updated_at = EXCLUDED.updated_at
		RETURNING `+catalogColumns,
		item.ID, item.Name, item.Description, item.UnitPrice, qty,
		item.InvoiceNumber, item.Active, item.CreatedBy, item.CreatedAt, item.UpdatedAt,
	)
}

// SetQuantity overwrites the quantity on hand.
func (r *CatalogRepository) SetQuantity(ctx context.Context, tx usecase.Transaction, id string, qty int64, updatedAt time.Time) error {
	tag, err := inTx(tx).Exec(ctx,
		`UPDATE catalog_items SET quantity = $2, updated_at = $3 WHERE id = $1`,
		id, qty, updatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCatalogItemNotFound
	}
	return nil
}

// IsReferenced reports whether any income or expense line points at the item.
func (r *CatalogRepository) IsReferenced(ctx context.Context, tx usecase.Transaction, id string) (bool, error) {
	var referenced bool
	err := inTx(tx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM income_lines WHERE catalog_item_id = $1)
		    OR EXISTS (SELECT 1 FROM expense_lines WHERE catalog_item_id = $1)`,
		id,
	).Scan(&referenced)
	return referenced, err
}

// Delete removes a catalog item.
func (r *CatalogRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := inTx(tx).Exec(ctx, `DELETE FROM catalog_items WHERE id = $1`, id)
	if hasCode(err, pgErrForeignKeyViolation) {
		return domain.ErrCatalogItemInUse
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCatalogItemNotFound
	}
	return nil
}

// List lists catalog items by name with pagination.
func (r *CatalogRepository) List(ctx context.Context, limit, offset int) ([]*domain.CatalogItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+catalogColumns+` FROM catalog_items ORDER BY name LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.CatalogItem, 0, limit)
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func getCatalogItem(ctx context.Context, q querier, sql string, args ...any) (*domain.CatalogItem, error) {
	item, err := scanCatalogItem(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCatalogItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func scanCatalogItem(row pgx.Row) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.UnitPrice,
		&item.Quantity,
		&item.InvoiceNumber,
		&item.Active,
		&item.CreatedBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
