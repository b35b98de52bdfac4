package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/usecase"
)

const expenseColumns = `id, title, description, amount, classification, created_at, created_by, created_by_name, active`

// ExpenseRepository implements usecase.ExpenseRepository.
type ExpenseRepository struct {
	db querier
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{db: pool}
}

// Create inserts an expense header and its lines.
func (r *ExpenseRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.ExpenseRecord) error {
	q := inTx(tx)

	_, err := q.Exec(ctx, `
		INSERT INTO expense_records (`+expenseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID, record.Title, record.Description, record.Amount, string(record.Classification),
		record.CreatedAt, record.CreatedBy, record.CreatedByName, record.Active,
	)
	if err != nil {
		return err
	}

	return insertLines(ctx, q, expenseLinesTable, record.Lines)
}

// GetByID retrieves an expense record with its lines, active or not.
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*domain.ExpenseRecord, error) {
	return r.get(ctx, r.db, `SELECT `+expenseColumns+` FROM expense_records WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves an expense record with a FOR UPDATE lock on the header.
func (r *ExpenseRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ExpenseRecord, error) {
	return r.get(ctx, inTx(tx), `SELECT `+expenseColumns+` FROM expense_records WHERE id = $1 FOR UPDATE`, id)
}

// Update writes the editable header fields. The amount is derived from the lines and never changes.
func (r *ExpenseRepository) Update(ctx context.Context, tx usecase.Transaction, record *domain.ExpenseRecord) error {
	tag, err := inTx(tx).Exec(ctx, `
		UPDATE expense_records
		SET title = $2, description = $3, classification = $4
		WHERE id = $1`,
		record.ID, record.Title, record.Description, string(record.Classification),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

// SetActive flips the active flag.
func (r *ExpenseRepository) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool) error {
	tag, err := inTx(tx).Exec(ctx, `UPDATE expense_records SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

// ListActive lists active expense records, newest first.
func (r *ExpenseRepository) ListActive(ctx context.Context, limit, offset int) ([]*domain.ExpenseRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+expenseColumns+`
		FROM expense_records
		WHERE active
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}

	records := make([]*domain.ExpenseRecord, 0, limit)
	ids := make([]string, 0, limit)
	for rows.Next() {
		rec, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		records = append(records, rec)
		ids = append(ids, rec.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines, err := linesByRecord(ctx, r.db, expenseLinesTable, ids)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		rec.Lines = lines[rec.ID]
	}

	return records, nil
}

func (r *ExpenseRepository) get(ctx context.Context, q querier, sql string, id string) (*domain.ExpenseRecord, error) {
	rec, err := scanExpense(q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, err
	}

	lines, err := linesByRecord(ctx, q, expenseLinesTable, []string{rec.ID})
	if err != nil {
		return nil, err
	}
	rec.Lines = lines[rec.ID]

	return rec, nil
}

func scanExpense(row pgx.Row) (*domain.ExpenseRecord, error) {
	var (
		rec            domain.ExpenseRecord
		classification string
	)
	err := row.Scan(
		&rec.ID,
		&rec.Title,
		&rec.Description,
		&rec.Amount,
		&classification,
		&rec.CreatedAt,
		&rec.CreatedBy,
		&rec.CreatedByName,
		&rec.Active,
	)
	if err != nil {
		return nil, err
	}
	rec.Classification = domain.ExpenseClassification(classification)
	return &rec, nil
}
