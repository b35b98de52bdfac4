package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/iho/bizledger/internal/domain"
)

const (
	incomeLinesTable  = "income_lines"
	expenseLinesTable = "expense_lines"
)

var lineColumns = []string{"id", "record_id", "catalog_item_id", "quantity", "unit_price", "position"}

// insertLines bulk-loads the lines of one record with COPY.
func insertLines(ctx context.Context, q querier, table string, lines []domain.LineItem) error {
	if len(lines) == 0 {
		return nil
	}

	_, err := q.CopyFrom(ctx, pgx.Identifier{table}, lineColumns,
		pgx.CopyFromSlice(len(lines), func(i int) ([]any, error) {
			l := lines[i]
			return []any{l.ID, l.RecordID, l.CatalogItemID, l.Quantity, l.UnitPrice, i}, nil
		}),
	)
	return err
}

// linesByRecord loads the lines of the given records keyed by record ID, in entry order.
func linesByRecord(ctx context.Context, q querier, table string, recordIDs []string) (map[string][]domain.LineItem, error) {
	lines := make(map[string][]domain.LineItem, len(recordIDs))
	if len(recordIDs) == 0 {
		return lines, nil
	}

	rows, err := q.Query(ctx, `
		SELECT id, record_id, catalog_item_id, quantity, unit_price
		FROM `+table+`
		WHERE record_id = ANY($1)
		ORDER BY record_id, position`,
		recordIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.LineItem
		if err := rows.Scan(&l.ID, &l.RecordID, &l.CatalogItemID, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		lines[l.RecordID] = append(lines[l.RecordID], l)
	}

	return lines, rows.Err()
}
