package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/usecase"
)

func TestTransactionUseCase_RecordIncome(t *testing.T) {
	ctx := context.Background()

	t.Run("withdraws stock and snapshots prices", func(t *testing.T) {
		f := newFixture(t)
		cable := f.seedItem(t, "cable", 100, 10)
		plug := f.seedItem(t, "plug", 50, 4)

		rec, err := f.transactions.RecordIncome(ctx, usecase.RecordIncomeInput{
			Title:          "Sale to shop",
			Amount:         decimal.NewFromInt(500),
			Classification: string(domain.IncomeOperational),
			Client:         "Ferreteria Sur",
			Lines: []usecase.IncomeLineInput{
				{CatalogItemID: cable.ID, Quantity: "3"},
				{CatalogItemID: plug.ID, Quantity: "4"},
			},
		}, clerk)
		require.NoError(t, err)

		assert.True(t, rec.Active)
		assert.Equal(t, clerk.ID, rec.CreatedBy)
		assert.Equal(t, clerk.DisplayName, rec.CreatedByName)
		assert.Equal(t, "Ferreteria Sur", rec.Client)
		require.Len(t, rec.Lines, 2)
		requireDecimal(t, 100, rec.Lines[0].UnitPrice)
		requireDecimal(t, 50, rec.Lines[1].UnitPrice)

		assert.Equal(t, int64(7), f.quantityOf(t, cable.ID))
		assert.Equal(t, int64(0), f.quantityOf(t, plug.ID))

		stored, err := f.transactions.GetIncome(ctx, rec.ID, accountant)
		require.NoError(t, err)
		requireDecimal(t, 500, stored.Amount)
		assert.Len(t, stored.Lines, 2)

		assert.Contains(t, eventTypes(f.store.OutboxEvents()), domain.EventTypeIncomeRecorded)
		assert.Equal(t, float64(7), testutil.ToFloat64(f.metrics.StockUnits.WithLabelValues("out")))
	})

	t.Run("insufficient stock rolls back everything", func(t *testing.T) {
		f := newFixture(t)
		cable := f.seedItem(t, "cable", 100, 10)
		plug := f.seedItem(t, "plug", 50, 4)
		eventsBefore := len(f.store.OutboxEvents())

		_, err := f.transactions.RecordIncome(ctx, usecase.RecordIncomeInput{
			Title:          "Too many plugs",
			Amount:         decimal.NewFromInt(1000),
			Classification: string(domain.IncomeOperational),
			Lines: []usecase.IncomeLineInput{
				{CatalogItemID: cable.ID, Quantity: "3"},
				{CatalogItemID: plug.ID, Quantity: "5"},
			},
		}, clerk)
		require.Error(t, err)

		var stockErr *domain.StockError
		require.True(t, errors.As(err, &stockErr))
		assert.Equal(t, plug.ID, stockErr.ItemID)
		assert.Equal(t, int64(4), stockErr.Available)
		assert.Equal(t, int64(5), stockErr.Requested)
		assert.Equal(t, domain.KindInsufficientStock, domain.Classify(err))

		assert.Empty(t, f.store.Incomes())
		assert.Equal(t, int64(10), f.quantityOf(t, cable.ID))
		assert.Equal(t, int64(4), f.quantityOf(t, plug.ID))
		assert.Len(t, f.store.OutboxEvents(), eventsBefore)
	})

	t.Run("repeated lines for one item draw on the same stock", func(t *testing.T) {
		f := newFixture(t)
		cable := f.seedItem(t, "cable", 100, 5)

		_, err := f.transactions.RecordIncome(ctx, usecase.RecordIncomeInput{
			Title:          "Split lines",
			Amount:         decimal.NewFromInt(600),
			Classification: string(domain.IncomeOperational),
			Lines: []usecase.IncomeLineInput{
				{CatalogItemID: cable.ID, Quantity: "3"},
				{CatalogItemID: cable.ID, Quantity: "3"},
			},
		}, clerk)
		require.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.Equal(t, int64(5), f.quantityOf(t, cable.ID))
	})

	t.Run("unparseable lines are skipped", func(t *testing.T) {
		f := newFixture(t)
		cable := f.seedItem(t, "cable", 100, 10)

		rec, err := f.transactions.RecordIncome(ctx, usecase.RecordIncomeInput{
			Title:          "Partial form",
			Amount:         decimal.NewFromInt(200),
			Classification: string(domain.IncomeNonOperational),
			Lines: []usecase.IncomeLineInput{
				{CatalogItemID: cable.ID, Quantity: "abc"},
				{CatalogItemID: "", Quantity: "2"},
				{CatalogItemID: cable.ID, Quantity: ""},
				{CatalogItemID: cable.ID, Quantity: "2"},
			},
		}, clerk)
		require.NoError(t, err)
		require.Len(t, rec.Lines, 1)
		assert.Equal(t, int64(8), f.quantityOf(t, cable.ID))
	})

	t.Run("income without lines", func(t *testing.T) {
		f := newFixture(t)

		rec, err := f.transactions.RecordIncome(ctx, usecase.RecordIncomeInput{
			Title:          "Consulting",
			Amount:         decimal.NewFromInt(100000),
			Classification: string(domain.IncomeOperational),
		}, accountant)
		require.NoError(t, err)
		assert.Empty(t, rec.Lines)
	})

	t.Run("unknown catalog item aborts", func(t *testing.T) {
		f := newFixture(t)
		cable := f.seedItem(t, "cable", 100, 10)

		_, err := f.transactions.RecordIncome(ctx, usecase.RecordIncomeInput{
			Title:          "Ghost item",
			Amount:         decimal.NewFromInt(100),
			Classification: string(domain.IncomeOperational),
			Lines: []usecase.IncomeLineInput{
				{CatalogItemID: cable.ID, Quantity: "1"},
				{CatalogItemID: "missing", Quantity: "1"},
			},
		}, clerk)
		require.ErrorIs(t, err, domain.ErrCatalogItemNotFound)
		assert.Equal(t, domain.KindNotFound, domain.Classify(err))
		assert.Equal(t, int64(10), f.quantityOf(t, cable.ID))
		assert.Empty(t, f.store.Incomes())
	})

	t.Run("header validation", func(t *testing.T) {
		f := newFixture(t)

		tests := []struct {
			name  string
			input usecase.RecordIncomeInput
		}{
			{"empty title", usecase.RecordIncomeInput{Title: " ", Amount: decimal.NewFromInt(1), Classification: "operational"}},
			{"bad classification", usecase.RecordIncomeInput{Title: "x", Amount: decimal.NewFromInt(1), Classification: "cost"}},
			{"negative amount", usecase.RecordIncomeInput{Title: "x", Amount: decimal.NewFromInt(-1), Classification: "operational"}},
			{"fractional amount", usecase.RecordIncomeInput{Title: "x", Amount: decimal.RequireFromString("10.25"), Classification: "operational"}},
			{"long accented title", usecase.RecordIncomeInput{Title: strings.Repeat("ñ", domain.MaxTitleLength+1), Amount: decimal.NewFromInt(1), Classification: "operational"}},
			{"long client", usecase.RecordIncomeInput{Title: "x", Amount: decimal.NewFromInt(1), Classification: "operational", Client: strings.Repeat("c", domain.MaxClientLength+1)}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.transactions.RecordIncome(ctx, tt.input, clerk)
				require.ErrorIs(t, err, domain.ErrValidation)
			})
		}
		assert.Empty(t, f.store.Incomes())
	})

	t.Run("actor without permission", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.transactions.RecordIncome(ctx, usecase.RecordIncomeInput{
			Title:          "Sale",
			Amount:         decimal.NewFromInt(1),
			Classification: string(domain.IncomeOperational),
		}, nobody)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestTransactionUseCase_RecordExpense(t *testing.T) {
	ctx := context.Background()

	t.Run("amount is the sum of lines and last price wins", func(t *testing.T) {
		f := newFixture(t)

		rec, err := f.transactions.RecordExpense(ctx, usecase.RecordExpenseInput{
			Title:          "Restock",
			Classification: string(domain.ExpenseCost),
			Lines: []usecase.ExpenseLineInput{
				{Name: "Cable", Quantity: "5", UnitPrice: "100"},
				{Name: "cable", Quantity: "3", UnitPrice: "120"},
			},
		}, clerk)
		require.NoError(t, err)

		requireDecimal(t, 860, rec.Amount)
		require.Len(t, rec.Lines, 2)
		assert.Equal(t, rec.Lines[0].CatalogItemID, rec.Lines[1].CatalogItemID)

		items := f.store.Items()
		require.Len(t, items, 1)
		assert.Equal(t, "Cable", items[0].Name)
		assert.Equal(t, int64(8), items[0].Quantity)
		requireDecimal(t, 120, items[0].UnitPrice)

		stored, err := f.transactions.GetExpense(ctx, rec.ID, accountant)
		require.NoError(t, err)
		requireDecimal(t, 860, stored.Amount)
		assert.Equal(t, clerk.DisplayName, stored.CreatedByName)
	})

	t.Run("existing items are restocked", func(t *testing.T) {
		f := newFixture(t)
		cable := f.seedItem(t, "cable", 90, 2)

		_, err := f.transactions.RecordExpense(ctx, usecase.RecordExpenseInput{
			Title:          "Restock",
			Classification: string(domain.ExpenseCost),
			Lines: []usecase.ExpenseLineInput{
				{Name: "  CABLE ", Quantity: "4", UnitPrice: "110"},
			},
		}, clerk)
		require.NoError(t, err)

		item, err := f.store.Catalog().GetByID(ctx, cable.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(6), item.Quantity)
		requireDecimal(t, 110, item.UnitPrice)
		assert.Len(t, f.store.Items(), 1)
	})

	t.Run("no valid lines", func(t *testing.T) {
		f := newFixture(t)

		inputs := [][]usecase.ExpenseLineInput{
			nil,
			{
				{Name: "", Quantity: "1", UnitPrice: "1"},
				{Name: "Cable", Quantity: "abc", UnitPrice: "1"},
				{Name: "Cable", Quantity: "1", UnitPrice: "1.5"},
				{Name: "Cable", Quantity: "0", UnitPrice: "1"},
			},
		}

		for _, lines := range inputs {
			_, err := f.transactions.RecordExpense(ctx, usecase.RecordExpenseInput{
				Title:          "Nothing",
				Classification: string(domain.ExpenseGeneral),
				Lines:          lines,
			}, clerk)
			require.ErrorIs(t, err, domain.ErrNoLineItems)
			assert.Equal(t, domain.KindNoLineItems, domain.Classify(err))
		}

		assert.Empty(t, f.store.Expenses())
		assert.Empty(t, f.store.Items())
	})

	t.Run("out of range lines fail before touching stock", func(t *testing.T) {
		f := newFixture(t)

		inputs := [][]usecase.ExpenseLineInput{
			{
				{Name: "Cable", Quantity: "2", UnitPrice: "100"},
				{Name: "Plug", Quantity: "9223372036854775807", UnitPrice: "1"},
			},
			{{Name: "Cable", Quantity: "1", UnitPrice: "10000000000000"}},
			{{Name: "Cable", Quantity: "1000000000", UnitPrice: "10000"}},
		}

		for _, lines := range inputs {
			_, err := f.transactions.RecordExpense(ctx, usecase.RecordExpenseInput{
				Title:          "Bulk",
				Classification: string(domain.ExpenseCost),
				Lines:          lines,
			}, clerk)
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, domain.KindValidation, domain.Classify(err))
		}

		assert.Empty(t, f.store.Items())
		assert.Empty(t, f.store.Expenses())
	})

	t.Run("storage failure leaves catalog untouched", func(t *testing.T) {
		f := newFixture(t)
		f.store.FailOn("expense.Create", errors.New("disk full"))

		_, err := f.transactions.RecordExpense(ctx, usecase.RecordExpenseInput{
			Title:          "Restock",
			Classification: string(domain.ExpenseCost),
			Lines: []usecase.ExpenseLineInput{
				{Name: "Cable", Quantity: "5", UnitPrice: "100"},
			},
		}, clerk)
		require.ErrorIs(t, err, domain.ErrSystem)
		assert.Equal(t, domain.KindSystem, domain.Classify(err))

		assert.Empty(t, f.store.Items())
		assert.Empty(t, f.store.Expenses())
	})
}

func TestTransactionUseCase_StockDeltasFollowDirection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.transactions.RecordExpense(ctx, usecase.RecordExpenseInput{
		Title:          "Buy",
		Classification: string(domain.ExpenseCost),
		Lines: []usecase.ExpenseLineInput{
			{Name: "Cable", Quantity: "10", UnitPrice: "100"},
			{Name: "Plug", Quantity: "6", UnitPrice: "40"},
		},
	}, clerk)
	require.NoError(t, err)

	totalStock := func() int64 {
		var sum int64
		for _, it := range f.store.Items() {
			sum += it.Quantity
		}
		return sum
	}
	require.Equal(t, int64(16), totalStock())

	cable, ok := itemNamed(f.store.Items(), "Cable")
	require.True(t, ok)
	plug, ok := itemNamed(f.store.Items(), "Plug")
	require.True(t, ok)

	_, err = f.transactions.RecordIncome(ctx, usecase.RecordIncomeInput{
		Title:          "Sell",
		Amount:         decimal.NewFromInt(900),
		Classification: string(domain.IncomeOperational),
		Lines: []usecase.IncomeLineInput{
			{CatalogItemID: cable.ID, Quantity: "4"},
			{CatalogItemID: plug.ID, Quantity: "1"},
		},
	}, clerk)
	require.NoError(t, err)

	assert.Equal(t, int64(11), totalStock())
}

func TestTransactionUseCase_SoftDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivates, audits and drops from balance", func(t *testing.T) {
		f := newFixture(t)

		rec, err := f.transactions.RecordIncome(ctx, usecase.RecordIncomeInput{
			Title:          "Sale",
			Amount:         decimal.NewFromInt(1500),
			Classification: string(domain.IncomeOperational),
		}, clerk)
		require.NoError(t, err)

		before, err := f.reports.Balance(ctx, rec.CreatedAt, accountant)
		require.NoError(t, err)
		requireDecimal(t, 1500, before.TotalIncome)

		require.NoError(t, f.transactions.SoftDelete(ctx, domain.SubjectIncome, rec.ID, accountant))

		stored, err := f.transactions.GetIncome(ctx, rec.ID, accountant)
		require.NoError(t, err)
		assert.False(t, stored.Active)

		entries := f.store.AuditEntries()
		require.Len(t, entries, 1)
		assert.Equal(t, domain.AuditActionDelete, entries[0].Action)
		assert.Equal(t, domain.SubjectIncome, entries[0].SubjectType)
		assert.Equal(t, rec.ID, entries[0].SubjectID)
		assert.Equal(t, accountant.ID, entries[0].ActorID)
		assert.Contains(t, entries[0].Snapshot, "title: Sale")
		assert.Contains(t, entries[0].Snapshot, "active: true")

		after, err := f.reports.Balance(ctx, rec.CreatedAt, accountant)
		require.NoError(t, err)
		assert.True(t, after.TotalIncome.IsZero())

		listed, err := f.transactions.ListIncome(ctx, 0, 0, accountant)
		require.NoError(t, err)
		assert.Empty(t, listed)

		assert.Contains(t, eventTypes(f.store.OutboxEvents()), domain.EventTypeRecordDeleted)
	})

	t.Run("stock is not restored", func(t *testing.T) {
		f := newFixture(t)
		cable := f.seedItem(t, "cable", 100, 10)

		rec, err := f.transactions.RecordIncome(ctx, usecase.RecordIncomeInput{
			Title:          "Sale",
			Amount:         decimal.NewFromInt(300),
			Classification: string(domain.IncomeOperational),
			Lines:          []usecase.IncomeLineInput{{CatalogItemID: cable.ID, Quantity: "3"}},
		}, clerk)
		require.NoError(t, err)

		require.NoError(t, f.transactions.SoftDelete(ctx, domain.SubjectIncome, rec.ID, admin))
		assert.Equal(t, int64(7), f.quantityOf(t, cable.ID))
	})

	t.Run("second delete is rejected", func(t *testing.T) {
		f := newFixture(t)

		rec, err := f.transactions.RecordExpense(ctx, usecase.RecordExpenseInput{
			Title:          "Buy",
			Classification: string(domain.ExpenseCost),
			Lines:          []usecase.ExpenseLineInput{{Name: "Cable", Quantity: "1", UnitPrice: "100"}},
		}, clerk)
		require.NoError(t, err)

		require.NoError(t, f.transactions.SoftDelete(ctx, domain.SubjectExpense, rec.ID, accountant))
		err = f.transactions.SoftDelete(ctx, domain.SubjectExpense, rec.ID, accountant)
		require.ErrorIs(t, err, domain.ErrRecordInactive)
		assert.Len(t, f.store.AuditEntries(), 1)
	})

	t.Run("audit failure keeps the record active", func(t *testing.T) {
		f := newFixture(t)

		rec, err := f.transactions.RecordIncome(ctx, usecase.RecordIncomeInput{
			Title:          "Sale",
			Amount:         decimal.NewFromInt(10),
			Classification: string(domain.IncomeOperational),
		}, clerk)
		require.NoError(t, err)

		f.store.FailOn("audit.CreateTx", errors.New("audit store down"))
		err = f.transactions.SoftDelete(ctx, domain.SubjectIncome, rec.ID, accountant)
		require.Error(t, err)

		stored, err := f.store.Income().GetByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.True(t, stored.Active)
	})

	t.Run("lookup failures", func(t *testing.T) {
		f := newFixture(t)

		err := f.transactions.SoftDelete(ctx, domain.SubjectIncome, "missing", accountant)
		require.ErrorIs(t, err, domain.ErrIncomeNotFound)

		err = f.transactions.SoftDelete(ctx, domain.SubjectCatalogItem, "x", accountant)
		require.ErrorIs(t, err, domain.ErrUnknownRecordType)

		err = f.transactions.SoftDelete(ctx, domain.SubjectIncome, "missing", clerk)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestTransactionUseCase_Edit(t *testing.T) {
	ctx := context.Background()

	t.Run("income edit is audited with a field diff", func(t *testing.T) {
		f := newFixture(t)

		rec, err := f.transactions.RecordIncome(ctx, usecase.RecordIncomeInput{
			Title:          "Sale",
			Amount:         decimal.NewFromInt(100),
			Classification: string(domain.IncomeOperational),
		}, clerk)
		require.NoError(t, err)

		title := "Sale (corrected)"
		amount := decimal.NewFromInt(150)
		require.NoError(t, f.transactions.Edit(ctx, domain.SubjectIncome, rec.ID, domain.RecordChanges{
			Title:  &title,
			Amount: &amount,
		}, accountant))

		stored, err := f.transactions.GetIncome(ctx, rec.ID, accountant)
		require.NoError(t, err)
		assert.Equal(t, title, stored.Title)
		requireDecimal(t, 150, stored.Amount)
		assert.Equal(t, rec.CreatedAt, stored.CreatedAt)

		entries := f.store.AuditEntries()
		require.Len(t, entries, 1)
		assert.Equal(t, domain.AuditActionEdit, entries[0].Action)
		assert.Contains(t, entries[0].Snapshot, "title: Sale\n")
		assert.Equal(t, domain.FieldChange{From: "Sale", To: title}, entries[0].Changes["title"])
		assert.Equal(t, domain.FieldChange{From: "100", To: "150"}, entries[0].Changes["amount"])
		assert.Len(t, entries[0].Changes, 2)
	})

	t.Run("expense amount cannot be edited", func(t *testing.T) {
		f := newFixture(t)

		rec, err := f.transactions.RecordExpense(ctx, usecase.RecordExpenseInput{
			Title:          "Buy",
			Classification: string(domain.ExpenseCost),
			Lines:          []usecase.ExpenseLineInput{{Name: "Cable", Quantity: "2", UnitPrice: "100"}},
		}, clerk)
		require.NoError(t, err)

		amount := decimal.NewFromInt(1)
		err = f.transactions.Edit(ctx, domain.SubjectExpense, rec.ID, domain.RecordChanges{Amount: &amount}, accountant)
		require.ErrorIs(t, err, domain.ErrAmountIsDerived)
		assert.Equal(t, domain.KindValidation, domain.Classify(err))
		assert.Empty(t, f.store.AuditEntries())

		cls := string(domain.ExpenseGeneral)
		require.NoError(t, f.transactions.Edit(ctx, domain.SubjectExpense, rec.ID, domain.RecordChanges{Classification: &cls}, accountant))

		stored, err := f.transactions.GetExpense(ctx, rec.ID, accountant)
		require.NoError(t, err)
		assert.Equal(t, domain.ExpenseGeneral, stored.Classification)
		requireDecimal(t, 200, stored.Amount)
	})

	t.Run("income amount stays whole", func(t *testing.T) {
		f := newFixture(t)
		rec := f.recordIncome(t, 100)

		amount := decimal.RequireFromString("99.5")
		err := f.transactions.Edit(ctx, domain.SubjectIncome, rec.ID, domain.RecordChanges{Amount: &amount}, accountant)
		require.ErrorIs(t, err, domain.ErrValidation)

		stored, err := f.transactions.GetIncome(ctx, rec.ID, accountant)
		require.NoError(t, err)
		requireDecimal(t, 100, stored.Amount)
		assert.Empty(t, f.store.AuditEntries())
	})

	t.Run("empty change set", func(t *testing.T) {
		f := newFixture(t)

		err := f.transactions.Edit(ctx, domain.SubjectIncome, "any", domain.RecordChanges{}, accountant)
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("deleted records are frozen", func(t *testing.T) {
		f := newFixture(t)

		rec, err := f.transactions.RecordIncome(ctx, usecase.RecordIncomeInput{
			Title:          "Sale",
			Amount:         decimal.NewFromInt(100),
			Classification: string(domain.IncomeOperational),
		}, clerk)
		require.NoError(t, err)
		require.NoError(t, f.transactions.SoftDelete(ctx, domain.SubjectIncome, rec.ID, accountant))

		title := "Revived"
		err = f.transactions.Edit(ctx, domain.SubjectIncome, rec.ID, domain.RecordChanges{Title: &title}, accountant)
		require.ErrorIs(t, err, domain.ErrRecordInactive)
	})
}
