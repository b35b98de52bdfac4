package domain

import (
	"encoding/json"
	"time"
)

// Event types
const (
	EventTypeIncomeRecorded       = "income.recorded"
	EventTypeExpenseRecorded      = "expense.recorded"
	EventTypePayrollSettled       = "payroll.settled"
	EventTypeRecordDeleted        = "ledger.record_deleted"
	EventTypeRecordEdited         = "ledger.record_edited"
	EventTypeCatalogStockAdjusted = "catalog.stock_adjusted"
)

// Aggregate types
const (
	AggregateTypeIncome      = "income"
	AggregateTypeExpense     = "expense"
	AggregateTypeSettlement  = "payroll_settlement"
	AggregateTypeCatalogItem = "catalog_item"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// LedgerRecordedEvent payload for income.recorded and expense.recorded
type LedgerRecordedEvent struct {
	RecordID  string `json:"record_id"`
	Title     string `json:"title"`
	Amount    string `json:"amount"`
	Lines     int    `json:"lines"`
	CreatedBy string `json:"created_by"`
}

// PayrollSettledEvent payload
type PayrollSettledEvent struct {
	SettlementID string `json:"settlement_id"`
	EmployeeID   string `json:"employee_id"`
	ExpenseID    string `json:"expense_id"`
	Period       string `json:"period"`
	Total        string `json:"total"`
}

// RecordChangedEvent payload for ledger.record_deleted and ledger.record_edited
type RecordChangedEvent struct {
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id"`
	AuditID     string `json:"audit_id"`
	ActorID     string `json:"actor_id"`
}

// StockAdjustedEvent payload
type StockAdjustedEvent struct {
	CatalogItemID string `json:"catalog_item_id"`
	From          int64  `json:"from"`
	To            int64  `json:"to"`
}

// Payload converts an event struct into the generic outbox payload.
func Payload(v any) map[string]any {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"error": "failed to marshal payload"}
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return map[string]any{"error": "failed to unmarshal payload"}
	}

	return result
}
