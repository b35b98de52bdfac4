package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/infrastructure/metrics"
	"github.com/iho/bizledger/internal/usecase"
	"github.com/iho/bizledger/internal/usecase/mocks"
)

func (f *fixture) recordIncome(t *testing.T, amount int64) *domain.IncomeRecord {
	t.Helper()

	rec, err := f.transactions.RecordIncome(context.Background(), usecase.RecordIncomeInput{
		Title:          "Service",
		Amount:         decimal.NewFromInt(amount),
		Classification: string(domain.IncomeOperational),
	}, accountant)
	require.NoError(t, err)

	return rec
}

func (f *fixture) recordExpense(t *testing.T, amount int64) *domain.ExpenseRecord {
	t.Helper()

	rec, err := f.transactions.RecordExpense(context.Background(), usecase.RecordExpenseInput{
		Title:          "Supplies",
		Classification: string(domain.ExpenseCost),
		Lines: []usecase.ExpenseLineInput{
			{Name: "Supplies", Quantity: "1", UnitPrice: decimal.NewFromInt(amount).String()},
		},
	}, accountant)
	require.NoError(t, err)

	return rec
}

func TestReportUseCase_Balance(t *testing.T) {
	ctx := context.Background()
	later := time.Now().Add(time.Hour)

	t.Run("profit is taxed", func(t *testing.T) {
		f := newFixture(t)
		f.recordIncome(t, 100000)
		f.recordExpense(t, 40000)

		report, err := f.reports.Balance(ctx, later, accountant)
		require.NoError(t, err)

		requireDecimal(t, 100000, report.TotalIncome)
		requireDecimal(t, 40000, report.TotalExpense)
		requireDecimal(t, 60000, report.OperatingProfit)
		requireDecimal(t, 11400, report.TaxEstimate)
		requireDecimal(t, 48600, report.NetProfit)
		assert.Equal(t, domain.StatusProfit, report.Status)
		assert.True(t, report.TaxRate.Equal(domain.DefaultTaxRate))
		assert.Equal(t, later.UTC().Truncate(time.Second), report.AsOf)
	})

	t.Run("loss carries no tax", func(t *testing.T) {
		f := newFixture(t)
		f.recordIncome(t, 10000)
		f.recordExpense(t, 50000)

		report, err := f.reports.Balance(ctx, later, accountant)
		require.NoError(t, err)

		requireDecimal(t, -40000, report.OperatingProfit)
		assert.True(t, report.TaxEstimate.IsZero())
		requireDecimal(t, -40000, report.NetProfit)
		assert.Equal(t, domain.StatusLoss, report.Status)
	})

	t.Run("empty ledger", func(t *testing.T) {
		f := newFixture(t)

		report, err := f.reports.Balance(ctx, time.Time{}, admin)
		require.NoError(t, err)
		assert.True(t, report.TotalIncome.IsZero())
		assert.True(t, report.NetProfit.IsZero())
		assert.False(t, report.AsOf.IsZero())
	})

	t.Run("records after asOf are excluded", func(t *testing.T) {
		f := newFixture(t)
		rec := f.recordIncome(t, 500)

		report, err := f.reports.Balance(ctx, rec.CreatedAt.Add(-time.Hour), accountant)
		require.NoError(t, err)
		assert.True(t, report.TotalIncome.IsZero())

		report, err = f.reports.Balance(ctx, rec.CreatedAt, accountant)
		require.NoError(t, err)
		requireDecimal(t, 500, report.TotalIncome)
	})

	t.Run("repeated calls are served from cache", func(t *testing.T) {
		f := newFixture(t)
		f.recordIncome(t, 1000)

		first, err := f.reports.Balance(ctx, later, accountant)
		require.NoError(t, err)
		second, err := f.reports.Balance(ctx, later, accountant)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, f.cache.Sets)
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ReportCacheLookups.WithLabelValues("miss")))
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ReportCacheLookups.WithLabelValues("hit")))
	})

	t.Run("writes invalidate cached reports", func(t *testing.T) {
		f := newFixture(t)
		f.recordIncome(t, 1000)

		before, err := f.reports.Balance(ctx, later, accountant)
		require.NoError(t, err)
		requireDecimal(t, 1000, before.TotalIncome)

		f.recordIncome(t, 250)

		after, err := f.reports.Balance(ctx, later, accountant)
		require.NoError(t, err)
		requireDecimal(t, 1250, after.TotalIncome)
		assert.Equal(t, 2, f.cache.Sets)
	})

	t.Run("soft deleted records are excluded", func(t *testing.T) {
		f := newFixture(t)
		f.recordIncome(t, 1000)
		exp := f.recordExpense(t, 300)

		require.NoError(t, f.transactions.SoftDelete(ctx, domain.SubjectExpense, exp.ID, accountant))

		report, err := f.reports.Balance(ctx, later, accountant)
		require.NoError(t, err)
		assert.True(t, report.TotalExpense.IsZero())
		requireDecimal(t, 1000, report.OperatingProfit)
	})

	t.Run("clerks cannot read reports", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.reports.Balance(ctx, later, clerk)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestReportUseCase_CustomTaxRate(t *testing.T) {
	f := newFixture(t)
	f.recordIncome(t, 1000)

	reports := usecase.NewReportUseCase(f.rt, f.store.Ledger(), decimal.RequireFromString("0.25"), time.Minute)

	report, err := reports.Balance(context.Background(), time.Now().Add(time.Hour), accountant)
	require.NoError(t, err)
	requireDecimal(t, 250, report.TaxEstimate)
	requireDecimal(t, 750, report.NetProfit)
}

func TestReportUseCase_CacheFailureFallsBackToLedger(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerRepository(ctrl)
	cache := mocks.NewMockReportCache(ctrl)
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	asOf := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	gomock.InOrder(
		cache.EXPECT().LedgerVersion(gomock.Any()).Return(int64(7), nil),
		cache.EXPECT().GetBalance(gomock.Any(), int64(7), asOf).Return(nil, errors.New("redis: connection refused")),
	)
	ledger.EXPECT().
		ActiveTotals(gomock.Any(), asOf.Add(time.Second-time.Nanosecond)).
		Return(decimal.NewFromInt(300), decimal.NewFromInt(100), nil)

	reports := usecase.NewReportUseCase(usecase.Runtime{
		Cache:   cache,
		Metrics: m,
		Logger:  zerolog.Nop(),
	}, ledger, decimal.Zero, 0)

	report, err := reports.Balance(context.Background(), asOf, accountant)
	require.NoError(t, err)
	requireDecimal(t, 200, report.OperatingProfit)
	requireDecimal(t, 38, report.TaxEstimate)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ReportCacheLookups.WithLabelValues("error")))
}

func TestReportUseCase_CachedReportSkipsLedger(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerRepository(ctrl)
	cache := mocks.NewMockReportCache(ctrl)

	asOf := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cached := domain.ComputeBalance(asOf, decimal.NewFromInt(10), decimal.Zero, domain.DefaultTaxRate)

	cache.EXPECT().LedgerVersion(gomock.Any()).Return(int64(3), nil)
	cache.EXPECT().GetBalance(gomock.Any(), int64(3), asOf).Return(&cached, nil)
	ledger.EXPECT().ActiveTotals(gomock.Any(), gomock.Any()).Times(0)

	reports := usecase.NewReportUseCase(usecase.Runtime{Cache: cache, Logger: zerolog.Nop()}, ledger, decimal.Zero, 0)

	report, err := reports.Balance(context.Background(), asOf.Add(400*time.Millisecond), accountant)
	require.NoError(t, err)
	assert.Equal(t, &cached, report)
}

func TestReportUseCase_LedgerErrorIsSystemError(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerRepository(ctrl)

	ledger.EXPECT().
		ActiveTotals(gomock.Any(), gomock.Any()).
		Return(decimal.Zero, decimal.Zero, errors.New("relation \"income_records\" does not exist"))

	reports := usecase.NewReportUseCase(usecase.Runtime{Logger: zerolog.Nop()}, ledger, decimal.Zero, 0)

	_, err := reports.Balance(context.Background(), time.Now(), accountant)
	require.ErrorIs(t, err, domain.ErrSystem)
	assert.Equal(t, domain.KindSystem, domain.Classify(err))
}
