package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/usecase"
)

func TestQuotationUseCase_Quote(t *testing.T) {
	ctx := context.Background()

	t.Run("labor plus materials without touching stock", func(t *testing.T) {
		f := newFixture(t)
		f.seedProfile(t, clerk.ID, clerk.DisplayName, 300)
		cable := f.seedItem(t, "cable", 100, 2)
		plug := f.seedItem(t, "plug", 40, 1)

		q, err := f.quotations.Quote(ctx, usecase.QuoteInput{
			Client:      "Hotel Central",
			Hours:       decimal.RequireFromString("8.5"),
			Description: "Rewire lobby",
			Items: []usecase.QuoteItemInput{
				{CatalogItemID: cable.ID, Quantity: 50},
				{CatalogItemID: plug.ID, Quantity: 10},
			},
		}, clerk)
		require.NoError(t, err)

		requireDecimal(t, 300, q.HourlyRate)
		requireDecimal(t, 5400, q.MaterialsTotal)
		requireDecimal(t, 7950, q.GrandTotal)
		require.Len(t, q.Lines, 2)
		assert.Equal(t, "Cable", q.Lines[0].ItemName)
		requireDecimal(t, 5000, q.Lines[0].Subtotal)

		assert.Equal(t, int64(2), f.quantityOf(t, cable.ID))
		assert.Equal(t, int64(1), f.quantityOf(t, plug.ID))

		stored, err := f.quotations.GetQuotation(ctx, q.ID, clerk)
		require.NoError(t, err)
		assert.Equal(t, q.Client, stored.Client)
		assert.Len(t, stored.Lines, 2)
	})

	t.Run("actor rate is used without a profile", func(t *testing.T) {
		f := newFixture(t)
		actor := clerk
		actor.HourlyRate = decimal.NewFromInt(150)

		q, err := f.quotations.Quote(ctx, usecase.QuoteInput{
			Client: "Home owner",
			Hours:  decimal.NewFromInt(2),
		}, actor)
		require.NoError(t, err)
		requireDecimal(t, 300, q.GrandTotal)
		assert.True(t, q.MaterialsTotal.IsZero())
	})

	t.Run("hours require a rate", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.quotations.Quote(ctx, usecase.QuoteInput{
			Client: "Home owner",
			Hours:  decimal.NewFromInt(2),
		}, clerk)
		require.ErrorIs(t, err, domain.ErrNoHourlyRate)

		q, err := f.quotations.Quote(ctx, usecase.QuoteInput{Client: "Materials only"}, clerk)
		require.NoError(t, err)
		assert.True(t, q.GrandTotal.IsZero())
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newFixture(t)
		cable := f.seedItem(t, "cable", 100, 2)

		_, err := f.quotations.Quote(ctx, usecase.QuoteInput{Client: " "}, clerk)
		require.ErrorIs(t, err, domain.ErrValidation)

		_, err = f.quotations.Quote(ctx, usecase.QuoteInput{
			Client: "x",
			Items:  []usecase.QuoteItemInput{{CatalogItemID: cable.ID, Quantity: 0}},
		}, clerk)
		require.ErrorIs(t, err, domain.ErrValidation)

		_, err = f.quotations.Quote(ctx, usecase.QuoteInput{
			Client: "x",
			Items:  []usecase.QuoteItemInput{{CatalogItemID: "missing", Quantity: 1}},
		}, clerk)
		require.ErrorIs(t, err, domain.ErrCatalogItemNotFound)

		_, err = f.quotations.Quote(ctx, usecase.QuoteInput{Client: "x"}, nobody)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})
}
