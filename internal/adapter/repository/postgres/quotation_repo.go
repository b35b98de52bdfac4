package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/usecase"
)

var quotationLineColumns = []string{"id", "quotation_id", "catalog_item_id", "item_name", "quantity", "unit_price", "subtotal", "position"}

// QuotationRepository implements usecase.QuotationRepository.
type QuotationRepository struct {
	db querier
}

// NewQuotationRepository creates a new QuotationRepository.
func NewQuotationRepository(pool *pgxpool.Pool) *QuotationRepository {
	return &QuotationRepository{db: pool}
}

// Create inserts a quotation and its lines.
func (r *QuotationRepository) Create(ctx context.Context, tx usecase.Transaction, quotation *domain.Quotation) error {
	q := inTx(tx)

	_, err := q.Exec(ctx, `
		INSERT INTO quotations (id, client, hours, hourly_rate, description, materials_total, grand_total, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		quotation.ID, quotation.Client, quotation.Hours, quotation.HourlyRate, quotation.Description,
		quotation.MaterialsTotal, quotation.GrandTotal, quotation.CreatedBy, quotation.CreatedAt,
	)
	if err != nil {
		return err
	}

	if len(quotation.Lines) == 0 {
		return nil
	}

	_, err = q.CopyFrom(ctx, pgx.Identifier{"quotation_lines"}, quotationLineColumns,
		pgx.CopyFromSlice(len(quotation.Lines), func(i int) ([]any, error) {
			l := quotation.Lines[i]
			return []any{l.ID, quotation.ID, l.CatalogItemID, l.ItemName, l.Quantity, l.UnitPrice, l.Subtotal, i}, nil
		}),
	)
	return err
}

// GetByID retrieves a quotation with its lines.
func (r *QuotationRepository) GetByID(ctx context.Context, id string) (*domain.Quotation, error) {
	var quotation domain.Quotation
	err := r.db.QueryRow(ctx, `
		SELECT id, client, hours, hourly_rate, description, materials_total, grand_total, created_by, created_at
		FROM quotations
		WHERE id = $1`,
		id,
	).Scan(
		&quotation.ID,
		&quotation.Client,
		&quotation.Hours,
		&quotation.HourlyRate,
		&quotation.Description,
		&quotation.MaterialsTotal,
		&quotation.GrandTotal,
		&quotation.CreatedBy,
		&quotation.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrQuotationNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, quotation_id, catalog_item_id, item_name, quantity, unit_price, subtotal
		FROM quotation_lines
		WHERE quotation_id = $1
		ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.QuotationLine
		if err := rows.Scan(&l.ID, &l.QuotationID, &l.CatalogItemID, &l.ItemName, &l.Quantity, &l.UnitPrice, &l.Subtotal); err != nil {
			return nil, err
		}
		quotation.Lines = append(quotation.Lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &quotation, nil
}
