package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bizledger/internal/domain"
)

func TestPayrollRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	cols := []string{"id", "employee_id", "period", "hours_worked", "hourly_rate", "bonuses", "deductions", "total",
		"expense_id", "recorded_by", "recorded_name", "created_at"}

	t.Run("found", func(t *testing.T) {
		mock := newMockPool(t)
		repo := &PayrollRepository{db: mock}

		mock.ExpectQuery(`FROM payroll_settlements WHERE id = \$1`).
			WithArgs("ps-1").
			WillReturnRows(pgxmock.NewRows(cols).AddRow(
				"ps-1", "emp-1", "2024-05", decimal.NewFromInt(160), decimal.NewFromInt(200),
				decimal.NewFromInt(500), decimal.NewFromInt(1500), decimal.NewFromInt(31000),
				"exp-1", "u-acc", "Carlos", time.Now().UTC(),
			))

		s, err := repo.GetByID(ctx, "ps-1")
		require.NoError(t, err)
		assert.True(t, s.Total.Equal(decimal.NewFromInt(31000)))
		assert.Equal(t, "exp-1", s.ExpenseID)
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMockPool(t)
		repo := &PayrollRepository{db: mock}

		mock.ExpectQuery(`FROM payroll_settlements`).
			WithArgs("ps-x").
			WillReturnRows(pgxmock.NewRows(cols))

		_, err := repo.GetByID(ctx, "ps-x")
		require.ErrorIs(t, err, domain.ErrSettlementNotFound)
	})
}

func TestProfileRepository_Get(t *testing.T) {
	mock := newMockPool(t)
	repo := &ProfileRepository{db: mock}

	mock.ExpectQuery(`FROM employee_profiles`).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "display_name", "hourly_rate", "created_by", "updated_at"}))

	_, err := repo.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
}
