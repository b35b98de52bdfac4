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

func TestAuditUseCase_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("appends an entry", func(t *testing.T) {
		f := newFixture(t)

		entry, err := f.audit.Record(ctx, usecase.RecordInput{
			SubjectType: domain.SubjectIncome,
			SubjectID:   "inc-1",
			Action:      domain.AuditActionEdit,
			Snapshot:    "title: Old",
		}, clerk)
		require.NoError(t, err)

		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, clerk.ID, entry.ActorID)
		assert.Equal(t, clerk.DisplayName, entry.ActorName)
		assert.False(t, entry.CreatedAt.IsZero())
		assert.Len(t, f.store.AuditEntries(), 1)
	})

	t.Run("required fields", func(t *testing.T) {
		f := newFixture(t)
		valid := usecase.RecordInput{
			SubjectType: domain.SubjectExpense,
			SubjectID:   "exp-1",
			Action:      domain.AuditActionDelete,
			Snapshot:    "title: Old",
		}

		tests := []struct {
			name   string
			mutate func(in *usecase.RecordInput)
			actor  domain.Actor
		}{
			{"unknown subject type", func(in *usecase.RecordInput) { in.SubjectType = "invoice" }, clerk},
			{"missing subject id", func(in *usecase.RecordInput) { in.SubjectID = "" }, clerk},
			{"unknown action", func(in *usecase.RecordInput) { in.Action = "create" }, clerk},
			{"empty snapshot", func(in *usecase.RecordInput) { in.Snapshot = "" }, clerk},
			{"anonymous actor", func(in *usecase.RecordInput) {}, domain.Actor{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				in := valid
				tt.mutate(&in)
				_, err := f.audit.Record(ctx, in, tt.actor)
				require.ErrorIs(t, err, domain.ErrValidation)
			})
		}
		assert.Empty(t, f.store.AuditEntries())
	})
}

func TestAuditUseCase_History(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rec, err := f.transactions.RecordIncome(ctx, usecase.RecordIncomeInput{
		Title:          "Sale",
		Amount:         decimal.NewFromInt(100),
		Classification: string(domain.IncomeOperational),
	}, clerk)
	require.NoError(t, err)

	title := "Sale #2"
	require.NoError(t, f.transactions.Edit(ctx, domain.SubjectIncome, rec.ID, domain.RecordChanges{Title: &title}, accountant))
	require.NoError(t, f.transactions.SoftDelete(ctx, domain.SubjectIncome, rec.ID, accountant))

	history, err := f.audit.History(ctx, domain.SubjectIncome, rec.ID, accountant)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.AuditActionEdit, history[0].Action)
	assert.Contains(t, history[0].Snapshot, "title: Sale\n")
	assert.Equal(t, domain.AuditActionDelete, history[1].Action)
	assert.Contains(t, history[1].Snapshot, "title: Sale #2\n")

	_, err = f.audit.History(ctx, "invoice", rec.ID, accountant)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.audit.History(ctx, domain.SubjectIncome, rec.ID, clerk)
	require.ErrorIs(t, err, domain.ErrForbidden)
}
