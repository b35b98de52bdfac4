package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/usecase"
)

const settlementColumns = `id, employee_id, period, hours_worked, hourly_rate, bonuses, deductions, total,
	expense_id, recorded_by, recorded_name, created_at`

// PayrollRepository implements usecase.PayrollRepository.
type PayrollRepository struct {
	db querier
}

// NewPayrollRepository creates a new PayrollRepository.
func NewPayrollRepository(pool *pgxpool.Pool) *PayrollRepository {
	return &PayrollRepository{db: pool}
}

// Create inserts a settlement.
func (r *PayrollRepository) Create(ctx context.Context, tx usecase.Transaction, s *domain.PayrollSettlement) error {
	_, err := inTx(tx).Exec(ctx, `
		INSERT INTO payroll_settlements (`+settlementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.EmployeeID, s.Period, s.HoursWorked, s.HourlyRate, s.Bonuses, s.Deductions, s.Total,
		s.ExpenseID, s.RecordedBy, s.RecordedName, s.CreatedAt,
	)
	return err
}

// GetByID retrieves a settlement by ID.
func (r *PayrollRepository) GetByID(ctx context.Context, id string) (*domain.PayrollSettlement, error) {
	s, err := scanSettlement(r.db.QueryRow(ctx, `SELECT `+settlementColumns+` FROM payroll_settlements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSettlementNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListByEmployee lists an employee's settlements, newest first.
func (r *PayrollRepository) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]*domain.PayrollSettlement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+settlementColumns+`
		FROM payroll_settlements
		WHERE employee_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		employeeID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settlements := make([]*domain.PayrollSettlement, 0, limit)
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, s)
	}

	return settlements, rows.Err()
}

func scanSettlement(row pgx.Row) (*domain.PayrollSettlement, error) {
	var s domain.PayrollSettlement
	err := row.Scan(
		&s.ID,
		&s.EmployeeID,
		&s.Period,
		&s.HoursWorked,
		&s.HourlyRate,
		&s.Bonuses,
		&s.Deductions,
		&s.Total,
		&s.ExpenseID,
		&s.RecordedBy,
		&s.RecordedName,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
