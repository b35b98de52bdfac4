package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bizledger/internal/domain"
)

func TestAuditRepository_CreateTx(t *testing.T) {
	mock := newMockPool(t)
	repo := &AuditRepository{db: mock}
	tx := beginTx(t, mock)

	entry := &domain.AuditEntry{
		SubjectType: domain.SubjectIncome,
		SubjectID:   "inc-1",
		Action:      domain.AuditActionEdit,
		ActorID:     "u-acc",
		ActorName:   "Carlos",
		Snapshot:    "income inc-1\ntitle: Sale\n",
		Changes:     map[string]domain.FieldChange{"title": {From: "Sale", To: "Sale #2"}},
		CreatedAt:   time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO audit_entries`).
		WithArgs(pgxmock.AnyArg(), "income", "inc-1", "edit", "u-acc", "Carlos", entry.Snapshot,
			[]byte(`{"title":{"from":"Sale","to":"Sale #2"}}`), entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.CreateTx(context.Background(), tx, entry))

	_, err := uuid.Parse(entry.ID)
	require.NoError(t, err, "missing IDs are filled with a UUID")
	assertExpectations(t, mock)
}

func TestAuditRepository_ListBySubject(t *testing.T) {
	mock := newMockPool(t)
	repo := &AuditRepository{db: mock}
	created := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	cols := []string{"id", "subject_type", "subject_id", "action", "actor_id", "actor_name", "snapshot", "changes", "created_at"}

	mock.ExpectQuery(`FROM audit_entries\s+WHERE subject_type = \$1 AND subject_id = \$2`).
		WithArgs("expense", "exp-1").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("a-1", "expense", "exp-1", "edit", "u-acc", "Carlos", "title: Old\n", []byte(`{"title":{"from":"Old","to":"New"}}`), created).
			AddRow("a-2", "expense", "exp-1", "delete", "u-acc", "Carlos", "title: New\n", []byte{}, created.Add(time.Minute)))

	entries, err := repo.ListBySubject(context.Background(), domain.SubjectExpense, "exp-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.FieldChange{From: "Old", To: "New"}, entries[0].Changes["title"])
	assert.Equal(t, domain.AuditActionDelete, entries[1].Action)
	assert.Nil(t, entries[1].Changes)
	assertExpectations(t, mock)
}
