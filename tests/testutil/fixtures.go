package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	postgresRepo "github.com/iho/bizledger/internal/adapter/repository/postgres"
	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/infrastructure/postgres"
	"github.com/iho/bizledger/internal/usecase"
)

// Actors with one role each.
var (
	Admin      = domain.Actor{ID: "u-admin", DisplayName: "Alicia Admin", Roles: []domain.Role{domain.RoleAdmin}}
	Accountant = domain.Actor{ID: "u-acc", DisplayName: "Carlos Contador", Roles: []domain.Role{domain.RoleAccountant}}
	Clerk      = domain.Actor{ID: "u-clerk", DisplayName: "Wanda Warehouse", Roles: []domain.Role{domain.RoleWarehouseClerk}}
)

// TestDB provides a migrated database for integration tests.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL and applies the embedded migrations.
// The test is skipped with -short or when DATABASE_URL is unset.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := postgres.RunMigrations(dbURL, "", zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dbURL, 20, 2)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	db := &TestDB{Pool: pool, t: t}
	t.Cleanup(db.Cleanup)
	db.TruncateAll(ctx)

	return db
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE
			income_lines, income_records,
			expense_lines, expense_records,
			quotation_lines, quotations,
			payroll_settlements, employee_profiles,
			catalog_items, audit_entries, outbox_events
		CASCADE`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// Services are the domain services wired to the test database.
type Services struct {
	Transactions *usecase.TransactionUseCase
	Payroll      *usecase.PayrollUseCase
	Audit        *usecase.AuditUseCase
	Reports      *usecase.ReportUseCase
	Quotations   *usecase.QuotationUseCase
	Catalog      *usecase.CatalogUseCase
	Profiles     *usecase.ProfileUseCase
	Outbox       *postgresRepo.OutboxRepository
}

// NewServices wires every service to the database with the production retrier.
func (db *TestDB) NewServices() *Services {
	pool := db.Pool
	outbox := postgresRepo.NewOutboxRepository(pool)
	profiles := postgresRepo.NewProfileRepository(pool)
	catalog := postgresRepo.NewCatalogRepository(pool)

	rt := usecase.Runtime{
		TxManager: postgresRepo.NewTxManager(pool),
		Retrier:   postgresRepo.NewRetrier(zerolog.Nop()),
		IDGen:     postgresRepo.NewULIDGenerator(),
		Audit:     postgresRepo.NewAuditRepository(pool),
		Outbox:    outbox,
		Logger:    zerolog.Nop(),
	}

	transactions := usecase.NewTransactionUseCase(rt, catalog, postgresRepo.NewIncomeRepository(pool), postgresRepo.NewExpenseRepository(pool))

	return &Services{
		Transactions: transactions,
		Payroll:      usecase.NewPayrollUseCase(rt, transactions, postgresRepo.NewPayrollRepository(pool), profiles),
		Audit:        usecase.NewAuditUseCase(rt),
		Reports:      usecase.NewReportUseCase(rt, postgresRepo.NewLedgerRepository(pool), domain.DefaultTaxRate, 0),
		Quotations:   usecase.NewQuotationUseCase(rt, catalog, postgresRepo.NewQuotationRepository(pool), profiles),
		Catalog:      usecase.NewCatalogUseCase(rt, catalog),
		Profiles:     usecase.NewProfileUseCase(rt, profiles),
		Outbox:       outbox,
	}
}

// CreateItem adds a catalog item with the given price and stock.
func (s *Services) CreateItem(t *testing.T, name string, price, quantity int64) *domain.CatalogItem {
	t.Helper()

	item, err := s.Catalog.CreateItem(context.Background(), usecase.CreateItemInput{
		Name:      name,
		UnitPrice: decimal.NewFromInt(price),
		Quantity:  quantity,
	}, Admin)
	if err != nil {
		t.Fatalf("failed to create catalog item: %v", err)
	}
	return item
}
