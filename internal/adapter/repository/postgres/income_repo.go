package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/usecase"
)

const incomeColumns = `id, title, description, amount, classification, client, created_at, created_by, created_by_name, active`

// IncomeRepository implements usecase.IncomeRepository.
type IncomeRepository struct {
	db querier
}

// NewIncomeRepository creates a new IncomeRepository.
func NewIncomeRepository(pool *pgxpool.Pool) *IncomeRepository {
	return &IncomeRepository{db: pool}
}

// Create inserts an income header and its lines.
func (r *IncomeRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.IncomeRecord) error {
	q := inTx(tx)

	_, err := q.Exec(ctx, `
		INSERT INTO income_records (`+incomeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID, record.Title, record.Description, record.Amount, string(record.Classification),
		record.Client, record.CreatedAt, record.CreatedBy, record.CreatedByName, record.Active,
	)
	if err != nil {
		return err
	}

	return insertLines(ctx, q, incomeLinesTable, record.Lines)
}

// GetByID retrieves an income record with its lines, active or not.
func (r *IncomeRepository) GetByID(ctx context.Context, id string) (*domain.IncomeRecord, error) {
	return r.get(ctx, r.db, `SELECT `+incomeColumns+` FROM income_records WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves an income record with a FOR UPDATE lock on the header.
func (r *IncomeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.IncomeRecord, error) {
	return r.get(ctx, inTx(tx), `SELECT `+incomeColumns+` FROM income_records WHERE id = $1 FOR UPDATE`, id)
}

// Update writes the editable header fields.
func (r *IncomeRepository) Update(ctx context.Context, tx usecase.Transaction, record *domain.IncomeRecord) error {
	tag, err := inTx(tx).Exec(ctx, `
		UPDATE income_records
		SET title = $2, description = $3, amount = $4, classification = $5, client = $6
		WHERE id = $1`,
		record.ID, record.Title, record.Description, record.Amount, string(record.Classification), record.Client,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIncomeNotFound
	}
	return nil
}

// SetActive flips the active flag.
func (r *IncomeRepository) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool) error {
	tag, err := inTx(tx).Exec(ctx, `UPDATE income_records SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIncomeNotFound
	}
	return nil
}

// ListActive lists active income records, newest first.
func (r *IncomeRepository) ListActive(ctx context.Context, limit, offset int) ([]*domain.IncomeRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+incomeColumns+`
		FROM income_records
		WHERE active
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}

	records := make([]*domain.IncomeRecord, 0, limit)
	ids := make([]string, 0, limit)
	for rows.Next() {
		rec, err := scanIncome(rows)
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

	lines, err := linesByRecord(ctx, r.db, incomeLinesTable, ids)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		rec.Lines = lines[rec.ID]
	}

	return records, nil
}

func (r *IncomeRepository) get(ctx context.Context, q querier, sql string, id string) (*domain.IncomeRecord, error) {
	rec, err := scanIncome(q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIncomeNotFound
		}
		return nil, err
	}

	lines, err := linesByRecord(ctx, q, incomeLinesTable, []string{rec.ID})
	if err != nil {
		return nil, err
	}
	rec.Lines = lines[rec.ID]

	return rec, nil
}

func scanIncome(row pgx.Row) (*domain.IncomeRecord, error) {
	var (
		rec            domain.IncomeRecord
		classification string
	)
	err := row.Scan(
		&rec.ID,
		&rec.Title,
		&rec.Description,
		&rec.Amount,
		&classification,
		&rec.Client,
		&rec.CreatedAt,
		&rec.CreatedBy,
		&rec.CreatedByName,
		&rec.Active,
	)
	if err != nil {
		return nil, err
	}
	rec.Classification = domain.IncomeClassification(classification)
	return &rec, nil
}
