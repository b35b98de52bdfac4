package usecase_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/infrastructure/metrics"
	"github.com/iho/bizledger/internal/usecase"
	"github.com/iho/bizledger/internal/usecase/mocks"
)

var (
	admin      = domain.Actor{ID: "u-admin", DisplayName: "Alicia Admin", Roles: []domain.Role{domain.RoleAdmin}}
	accountant = domain.Actor{ID: "u-acc", DisplayName: "Carlos Contador", Roles: []domain.Role{domain.RoleAccountant}}
	clerk      = domain.Actor{ID: "u-clerk", DisplayName: "Wanda Warehouse", Roles: []domain.Role{domain.RoleWarehouseClerk}}
	nobody     = domain.Actor{ID: "u-none", DisplayName: "No Groups"}
)

type fixture struct {
	store   *mocks.Store
	cache   *mocks.ReportCache
	metrics *metrics.Metrics
	rt      usecase.Runtime

	transactions *usecase.TransactionUseCase
	payroll      *usecase.PayrollUseCase
	audit        *usecase.AuditUseCase
	reports      *usecase.ReportUseCase
	quotations   *usecase.QuotationUseCase
	catalog      *usecase.CatalogUseCase
	profiles     *usecase.ProfileUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := mocks.NewStore()
	cache := mocks.NewReportCache()
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	rt := usecase.Runtime{
		TxManager: store,
		IDGen:     mocks.NewSequentialIDGenerator("id"),
		Audit:     store.Audit(),
		Outbox:    store.Outbox(),
		Cache:     cache,
		Metrics:   m,
		Logger:    zerolog.Nop(),
	}

	transactions := usecase.NewTransactionUseCase(rt, store.Catalog(), store.Income(), store.Expense())

	return &fixture{
		store:        store,
		cache:        cache,
		metrics:      m,
		rt:           rt,
		transactions: transactions,
		payroll:      usecase.NewPayrollUseCase(rt, transactions, store.Payroll(), store.Profiles()),
		audit:        usecase.NewAuditUseCase(rt),
		reports:      usecase.NewReportUseCase(rt, store.Ledger(), domain.DefaultTaxRate, 0),
		quotations:   usecase.NewQuotationUseCase(rt, store.Catalog(), store.Quotations(), store.Profiles()),
		catalog:      usecase.NewCatalogUseCase(rt, store.Catalog()),
		profiles:     usecase.NewProfileUseCase(rt, store.Profiles()),
	}
}

func (f *fixture) seedItem(t *testing.T, name string, price, qty int64) *domain.CatalogItem {
	t.Helper()

	item, err := f.catalog.CreateItem(context.Background(), usecase.CreateItemInput{
		Name:      name,
		UnitPrice: decimal.NewFromInt(price),
		Quantity:  qty,
	}, admin)
	require.NoError(t, err)

	return item
}

func (f *fixture) seedProfile(t *testing.T, userID, name string, rate int64) {
	t.Helper()

	_, err := f.profiles.Provision(context.Background(), usecase.ProvisionInput{
		UserID:      userID,
		DisplayName: name,
		HourlyRate:  decimal.NewFromInt(rate),
	}, admin)
	require.NoError(t, err)
}

func (f *fixture) quantityOf(t *testing.T, id string) int64 {
	t.Helper()

	item, err := f.store.Catalog().GetByID(context.Background(), id)
	require.NoError(t, err)

	return item.Quantity
}

func itemNamed(items []domain.CatalogItem, name string) (domain.CatalogItem, bool) {
	for _, it := range items {
		if it.Name == name {
			return it, true
		}
	}
	return domain.CatalogItem{}, false
}

func eventTypes(events []domain.OutboxEvent) []string {
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType)
	}
	return types
}

func requireDecimal(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, got.Equal(decimal.NewFromInt(want)), "expected %d, got %s", want, got)
}
