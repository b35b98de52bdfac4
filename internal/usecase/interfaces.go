package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bizledger/internal/domain"
)

// CatalogRepository defines data access for catalog items.
type CatalogRepository interface {
	Create(ctx context.Context, tx Transaction, item *domain.CatalogItem) error
	GetByID(ctx context.Context, id string) (*domain.CatalogItem, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.CatalogItem, error)
	// DecrementStock removes qty units only if at least qty are on hand.
	// It returns a *domain.StockError when stock is short.
	DecrementStock(ctx context.Context, tx Transaction, id string, qty int64) (*domain.CatalogItem, error)
	// UpsertStock adds qty units to the item with item.Name, creating it from item when missing.
	// The stored unit price is overwritten with item.UnitPrice.
	UpsertStock(ctx context.Context, tx Transaction, item *domain.CatalogItem, qty int64) (*domain.CatalogItem, error)
	SetQuantity(ctx context.Context, tx Transaction, id string, qty int64, updatedAt time.Time) error
	IsReferenced(ctx context.Context, tx Transaction, id string) (bool, error)
	Delete(ctx context.Context, tx Transaction, id string) error
	List(ctx context.Context, limit, offset int) ([]*domain.CatalogItem, error)
}

// IncomeRepository defines data access for income records and their lines.
type IncomeRepository interface {
	Create(ctx context.Context, tx Transaction, record *domain.IncomeRecord) error
	GetByID(ctx context.Context, id string) (*domain.IncomeRecord, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.IncomeRecord, error)
	Update(ctx context.Context, tx Transaction, record *domain.IncomeRecord) error
	SetActive(ctx context.Context, tx Transaction, id string, active bool) error
	ListActive(ctx context.Context, limit, offset int) ([]*domain.IncomeRecord, error)
}

// ExpenseRepository defines data access for expense records and their lines.
type ExpenseRepository interface {
	Create(ctx context.Context, tx Transaction, record *domain.ExpenseRecord) error
	GetByID(ctx context.Context, id string) (*domain.ExpenseRecord, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.ExpenseRecord, error)
	Update(ctx context.Context, tx Transaction, record *domain.ExpenseRecord) error
	SetActive(ctx context.Context, tx Transaction, id string, active bool) error
	ListActive(ctx context.Context, limit, offset int) ([]*domain.ExpenseRecord, error)
}

// LedgerRepository defines ledger-wide aggregations.
type LedgerRepository interface {
	// ActiveTotals sums active income and expense amounts created at or before asOf.
	ActiveTotals(ctx context.Context, asOf time.Time) (income, expense decimal.Decimal, err error)
}

// PayrollRepository defines data access for payroll settlements.
type PayrollRepository interface {
	Create(ctx context.Context, tx Transaction, settlement *domain.PayrollSettlement) error
	GetByID(ctx context.Context, id string) (*domain.PayrollSettlement, error)
	ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]*domain.PayrollSettlement, error)
}

// ProfileRepository defines data access for employee profiles.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*domain.EmployeeProfile, error)
	Upsert(ctx context.Context, tx Transaction, profile *domain.EmployeeProfile) error
}

// QuotationRepository defines data access for quotations.
type QuotationRepository interface {
	Create(ctx context.Context, tx Transaction, quotation *domain.Quotation) error
	GetByID(ctx context.Context, id string) (*domain.Quotation, error)
}

// AuditRepository defines data access for audit entries.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, entry *domain.AuditEntry) error
	ListBySubject(ctx context.Context, subjectType domain.SubjectType, subjectID string) ([]*domain.AuditEntry, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// ReportCache caches balance reports per ledger version.
type ReportCache interface {
	// LedgerVersion returns the current ledger version.
	LedgerVersion(ctx context.Context) (int64, error)
	// BumpLedgerVersion invalidates every cached report.
	BumpLedgerVersion(ctx context.Context) error
	// GetBalance returns (nil, nil) on a cache miss.
	GetBalance(ctx context.Context, version int64, asOf time.Time) (*domain.BalanceReport, error)
	SetBalance(ctx context.Context, version int64, report *domain.BalanceReport, ttl time.Duration) error
}
