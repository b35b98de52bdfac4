package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bizledger/internal/domain"
)

// ReportUseCase aggregates the ledger into balance reports.
type ReportUseCase struct {
	rt         Runtime
	ledgerRepo LedgerRepository
	taxRate    decimal.Decimal
	cacheTTL   time.Duration
}

// NewReportUseCase creates a new ReportUseCase. A zero taxRate falls back to domain.DefaultTaxRate.
func NewReportUseCase(rt Runtime, ledgerRepo LedgerRepository, taxRate decimal.Decimal, cacheTTL time.Duration) *ReportUseCase {
	if taxRate.IsZero() {
		taxRate = domain.DefaultTaxRate
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultReportCacheTTL
	}
	return &ReportUseCase{
		rt:         rt,
		ledgerRepo: ledgerRepo,
		taxRate:    taxRate,
		cacheTTL:   cacheTTL,
	}
}

// Balance sums active records created up to asOf into a profit/loss statement.
// A zero asOf means now. The result depends only on ledger contents, so cached copies are
// keyed by the ledger version and dropped on every write.
func (uc *ReportUseCase) Balance(ctx context.Context, asOf time.Time, actor domain.Actor) (report *domain.BalanceReport, err error) {
	start := time.Now()
	defer func() { err = uc.rt.finish(opBalance, actor, start, err) }()

	if err := domain.Authorize(actor, domain.PermViewReports); err != nil {
		return nil, err
	}

	if asOf.IsZero() {
		asOf = time.Now()
	}
	// Reports have second resolution and include everything written during the asOf second.
	asOf = asOf.UTC().Truncate(time.Second)
	cutoff := asOf.Add(time.Second - time.Nanosecond)

	version, cached := uc.lookup(ctx, asOf)
	if cached != nil {
		return cached, nil
	}

	income, expense, err := uc.ledgerRepo.ActiveTotals(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	balance := domain.ComputeBalance(asOf, income, expense, uc.taxRate)
	report = &balance

	if version >= 0 {
		if err := uc.rt.Cache.SetBalance(ctx, version, report, uc.cacheTTL); err != nil {
			uc.rt.Logger.Warn().Err(err).Msg("failed to cache balance report")
		}
	}

	return report, nil
}

// lookup returns the current ledger version and a cached report if one exists.
// A negative version means the cache is disabled or unavailable.
func (uc *ReportUseCase) lookup(ctx context.Context, asOf time.Time) (int64, *domain.BalanceReport) {
	if uc.rt.Cache == nil {
		return -1, nil
	}

	version, err := uc.rt.Cache.LedgerVersion(ctx)
	if err != nil {
		uc.countLookup("error")
		uc.rt.Logger.Warn().Err(err).Msg("report cache unavailable")
		return -1, nil
	}

	report, err := uc.rt.Cache.GetBalance(ctx, version, asOf)
	switch {
	case err != nil:
		uc.countLookup("error")
		uc.rt.Logger.Warn().Err(err).Msg("failed to read cached balance report")
		return -1, nil
	case report == nil:
		uc.countLookup("miss")
		return version, nil
	default:
		uc.countLookup("hit")
		return version, report
	}
}

func (uc *ReportUseCase) countLookup(result string) {
	if uc.rt.Metrics != nil {
		uc.rt.Metrics.ReportCacheLookups.WithLabelValues(result).Inc()
	}
}
