package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSumLines(t *testing.T) {
	lines := []LineItem{
		{CatalogItemID: "cable", Quantity: 5, UnitPrice: decimal.NewFromInt(100)},
		{CatalogItemID: "cable", Quantity: 3, UnitPrice: decimal.NewFromInt(120)},
	}

	if got := SumLines(lines); !got.Equal(decimal.NewFromInt(860)) {
		t.Fatalf("expected 860, got %s", got)
	}

	if got := SumLines(nil); !got.IsZero() {
		t.Fatalf("expected zero for no lines, got %s", got)
	}
}

func TestCatalogItem_ValidateWithdrawal(t *testing.T) {
	item := &CatalogItem{ID: "i1", Name: "Cable", Quantity: 4}

	if err := item.ValidateWithdrawal(4); err != nil {
		t.Fatalf("expected exact stock to be allowed, got %v", err)
	}

	err := item.ValidateWithdrawal(5)
	var stockErr *StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockError, got %v", err)
	}
	if stockErr.Available != 4 || stockErr.Requested != 5 {
		t.Fatalf("unexpected stock error %+v", stockErr)
	}
}

func TestRecordChanges_ApplyToIncome(t *testing.T) {
	title := "Consulting"
	cls := string(IncomeNonOperational)
	amount := decimal.NewFromInt(2500)

	record := &IncomeRecord{Title: "Old", Classification: IncomeOperational, Amount: decimal.NewFromInt(10)}
	err := RecordChanges{Title: &title, Classification: &cls, Amount: &amount}.ApplyToIncome(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.Title != title || record.Classification != IncomeNonOperational || !record.Amount.Equal(amount) {
		t.Fatalf("changes not applied: %+v", record)
	}

	bad := "other"
	if err := (RecordChanges{Classification: &bad}).ApplyToIncome(record); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected invalid classification to fail, got %v", err)
	}
}

func TestRecordChanges_ApplyToExpense(t *testing.T) {
	amount := decimal.NewFromInt(1)
	record := &ExpenseRecord{Title: "Old", Classification: ExpenseCost, Amount: decimal.NewFromInt(860)}

	err := RecordChanges{Amount: &amount}.ApplyToExpense(record)
	if !errors.Is(err, ErrAmountIsDerived) {
		t.Fatalf("expected ErrAmountIsDerived, got %v", err)
	}
	if !record.Amount.Equal(decimal.NewFromInt(860)) {
		t.Fatalf("amount must not change, got %s", record.Amount)
	}

	desc := "restock"
	if err := (RecordChanges{Description: &desc}).ApplyToExpense(record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Description != desc {
		t.Fatalf("expected description to change")
	}
}

func TestRenderSnapshotAndDiff(t *testing.T) {
	record := &IncomeRecord{
		ID:             "inc-1",
		Title:          "Sale",
		Amount:         decimal.NewFromInt(500),
		Classification: IncomeOperational,
		CreatedAt:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		CreatedByName:  "Ana",
		Active:         true,
	}

	snapshot := RenderSnapshot(record)
	for _, want := range []string{"income inc-1", "title: Sale", "amount: 500", "created_by: Ana", "active: true"} {
		if !strings.Contains(snapshot, want) {
			t.Fatalf("snapshot missing %q:\n%s", want, snapshot)
		}
	}

	before := record.Fields()
	record.Title = "Sale (corrected)"
	changes := DiffFields(before, record.Fields())

	if len(changes) != 1 {
		t.Fatalf("expected exactly one change, got %v", changes)
	}
	if changes["title"] != (FieldChange{From: "Sale", To: "Sale (corrected)"}) {
		t.Fatalf("unexpected change %+v", changes["title"])
	}
}

func TestAuditEntry_Validate(t *testing.T) {
	entry := &AuditEntry{
		SubjectType: SubjectExpense,
		SubjectID:   "exp-1",
		Action:      AuditActionDelete,
		ActorID:     "u1",
		Snapshot:    "expense exp-1\n",
	}
	if err := entry.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry.Action = "purge"
	if err := entry.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected invalid action to fail, got %v", err)
	}

	entry.Action = AuditActionEdit
	entry.SubjectType = "invoice"
	if err := entry.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected invalid subject type to fail, got %v", err)
	}
}
