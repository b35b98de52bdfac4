package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/iho/bizledger/internal/domain"
)

const ledgerVersionKey = "ledger:version"

// ReportCache implements usecase.ReportCache using Redis.
// Reports are keyed by ledger version, so bumping the version orphans every
// cached report and lets them expire on their own TTL.
type ReportCache struct {
	client *redis.Client
	prefix string
}

// NewReportCache creates a new ReportCache.
func NewReportCache(client *redis.Client) *ReportCache {
	return &ReportCache{
		client: client,
		prefix: "bizledger:",
	}
}

// LedgerVersion returns the current ledger version, zero when never bumped.
func (c *ReportCache) LedgerVersion(ctx context.Context) (int64, error) {
	version, err := c.client.Get(ctx, c.prefix+ledgerVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

// BumpLedgerVersion invalidates every cached report.
func (c *ReportCache) BumpLedgerVersion(ctx context.Context) error {
	return c.client.Incr(ctx, c.prefix+ledgerVersionKey).Err()
}

// GetBalance returns the cached report, or nil on a miss.
func (c *ReportCache) GetBalance(ctx context.Context, version int64, asOf time.Time) (*domain.BalanceReport, error) {
	raw, err := c.client.Get(ctx, c.balanceKey(version, asOf)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cached cachedBalance
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("decode cached balance: %w", err)
	}
	return cached.toDomain(), nil
}

// SetBalance stores a report under the given version.
func (c *ReportCache) SetBalance(ctx context.Context, version int64, report *domain.BalanceReport, ttl time.Duration) error {
	raw, err := json.Marshal(fromDomain(report))
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.balanceKey(version, report.AsOf), raw, ttl).Err()
}

func (c *ReportCache) balanceKey(version int64, asOf time.Time) string {
	return fmt.Sprintf("%sbalance:v%d:%d", c.prefix, version, asOf.Unix())
}

type cachedBalance struct {
	AsOf            time.Time       `json:"as_of"`
	TotalIncome     decimal.Decimal `json:"total_income"`
	TotalExpense    decimal.Decimal `json:"total_expense"`
	OperatingProfit decimal.Decimal `json:"operating_profit"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	TaxEstimate     decimal.Decimal `json:"tax_estimate"`
	NetProfit       decimal.Decimal `json:"net_profit"`
	Status          string          `json:"status"`
}

func fromDomain(r *domain.BalanceReport) cachedBalance {
	return cachedBalance{
		AsOf:            r.AsOf.UTC(),
		TotalIncome:     r.TotalIncome,
		TotalExpense:    r.TotalExpense,
		OperatingProfit: r.OperatingProfit,
		TaxRate:         r.TaxRate,
		TaxEstimate:     r.TaxEstimate,
		NetProfit:       r.NetProfit,
		Status:          string(r.Status),
	}
}

func (c cachedBalance) toDomain() *domain.BalanceReport {
	return &domain.BalanceReport{
		AsOf:            c.AsOf,
		TotalIncome:     c.TotalIncome,
		TotalExpense:    c.TotalExpense,
		OperatingProfit: c.OperatingProfit,
		TaxRate:         c.TaxRate,
		TaxEstimate:     c.TaxEstimate,
		NetProfit:       c.NetProfit,
		Status:          domain.BalanceStatus(c.Status),
	}
}
