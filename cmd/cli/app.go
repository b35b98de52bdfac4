package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	postgresRepo "github.com/iho/bizledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/bizledger/internal/adapter/repository/redis"
	"github.com/iho/bizledger/internal/infrastructure/config"
	"github.com/iho/bizledger/internal/infrastructure/postgres"
	"github.com/iho/bizledger/internal/infrastructure/redis"
	"github.com/iho/bizledger/internal/usecase"
)

// services are the domain operations the CLI drives.
type services struct {
	transactions *usecase.TransactionUseCase
	payroll      *usecase.PayrollUseCase
	audit        *usecase.AuditUseCase
	reports      *usecase.ReportUseCase
	quotations   *usecase.QuotationUseCase
	catalog      *usecase.CatalogUseCase
	profiles     *usecase.ProfileUseCase
}

// repositories groups the storage ports a services set is built from.
type repositories struct {
	catalog    usecase.CatalogRepository
	income     usecase.IncomeRepository
	expense    usecase.ExpenseRepository
	ledger     usecase.LedgerRepository
	payroll    usecase.PayrollRepository
	profiles   usecase.ProfileRepository
	quotations usecase.QuotationRepository
}

func newServices(rt usecase.Runtime, repos repositories, taxRate decimal.Decimal, cacheTTL time.Duration) *services {
	transactions := usecase.NewTransactionUseCase(rt, repos.catalog, repos.income, repos.expense)

	return &services{
		transactions: transactions,
		payroll:      usecase.NewPayrollUseCase(rt, transactions, repos.payroll, repos.profiles),
		audit:        usecase.NewAuditUseCase(rt),
		reports:      usecase.NewReportUseCase(rt, repos.ledger, taxRate, cacheTTL),
		quotations:   usecase.NewQuotationUseCase(rt, repos.catalog, repos.quotations, repos.profiles),
		catalog:      usecase.NewCatalogUseCase(rt, repos.catalog),
		profiles:     usecase.NewProfileUseCase(rt, repos.profiles),
	}
}

// connectFunc builds the services and returns a function releasing their connections.
type connectFunc func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*services, func(), error)

// connectPostgres wires the services to Postgres and, when enabled and reachable, the Redis report cache.
func connectPostgres(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*services, func(), error) {
	taxRate, err := cfg.TaxRateDecimal()
	if err != nil {
		return nil, nil, err
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       1,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	closers := []func(){pool.Close}

	rt := usecase.Runtime{
		TxManager: postgresRepo.NewTxManager(pool),
		Retrier:   postgresRepo.NewRetrier(logger),
		IDGen:     postgresRepo.NewULIDGenerator(),
		Audit:     postgresRepo.NewAuditRepository(pool),
		Outbox:    postgresRepo.NewOutboxRepository(pool),
		Logger:    logger,
		TxTimeout: cfg.TransactionTimeout,
	}

	if cfg.ReportCacheEnabled {
		client, err := redis.NewClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("report cache disabled")
		} else {
			rt.Cache = redisRepo.NewReportCache(client)
			closers = append(closers, func() { _ = client.Close() })
		}
	}

	svc := newServices(rt, repositories{
		catalog:    postgresRepo.NewCatalogRepository(pool),
		income:     postgresRepo.NewIncomeRepository(pool),
		expense:    postgresRepo.NewExpenseRepository(pool),
		ledger:     postgresRepo.NewLedgerRepository(pool),
		payroll:    postgresRepo.NewPayrollRepository(pool),
		profiles:   postgresRepo.NewProfileRepository(pool),
		quotations: postgresRepo.NewQuotationRepository(pool),
	}, taxRate, cfg.ReportCacheTTL)

	return svc, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}
