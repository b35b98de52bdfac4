package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db querier
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: pool}
}

// ActiveTotals sums the amounts of active income and expense records created at or before asOf.
// Both sums are read in one statement so they see the same snapshot.
func (r *LedgerRepository) ActiveTotals(ctx context.Context, asOf time.Time) (income, expense decimal.Decimal, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(amount) FROM income_records WHERE active AND created_at <= $1), 0),
			COALESCE((SELECT SUM(amount) FROM expense_records WHERE active AND created_at <= $1), 0)`,
		asOf,
	).Scan(&income, &expense)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return income, expense, nil
}
