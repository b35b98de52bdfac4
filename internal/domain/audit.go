package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SubjectType tags the kind of record an audit entry describes.
type SubjectType string

const (
	SubjectIncome      SubjectType = "income"
	SubjectExpense     SubjectType = "expense"
	SubjectCatalogItem SubjectType = "catalog_item"
)

// IsValid checks the subject type against the allowed set.
func (s SubjectType) IsValid() bool {
	switch s {
	case SubjectIncome, SubjectExpense, SubjectCatalogItem:
		return true
	}
	return false
}

// AuditAction represents the state transition being recorded.
type AuditAction string

const (
	AuditActionEdit   AuditAction = "edit"
	AuditActionDelete AuditAction = "delete"
)

// AuditEntry is an append-only record of a subject's state immediately before an action.
type AuditEntry struct {
	ID          string
	SubjectType SubjectType
	SubjectID   string
	Action      AuditAction
	ActorID     string
	ActorName   string
	// Snapshot is a human-readable rendering of the prior field values.
	Snapshot string
	// Changes is the structured field diff of an edit. Empty for deletes.
	Changes   map[string]FieldChange
	CreatedAt time.Time
}

// FieldChange is one changed field of an edit.
type FieldChange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Validate checks the required fields of an audit entry.
func (e *AuditEntry) Validate() error {
	if !e.SubjectType.IsValid() {
		return NewValidationError("subject_type", fmt.Sprintf("unknown subject type %q", e.SubjectType))
	}
	if e.SubjectID == "" {
		return NewValidationError("subject_id", "is required")
	}
	if e.Action != AuditActionEdit && e.Action != AuditActionDelete {
		return NewValidationError("action", fmt.Sprintf("unknown action %q", e.Action))
	}
	if e.ActorID == "" {
		return NewValidationError("actor", "is required")
	}
	if e.Snapshot == "" {
		return NewValidationError("snapshot", "is required")
	}
	return nil
}

// Field is one named value of a snapshot, in display order.
type Field struct {
	Name  string
	Value string
}

// Snapshotter is implemented by every auditable record.
type Snapshotter interface {
	SubjectType() SubjectType
	SubjectID() string
	Fields() []Field
}

// RenderSnapshot renders the subject's fields one per line as "name: value".
func RenderSnapshot(s Snapshotter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", s.SubjectType(), s.SubjectID())
	for _, f := range s.Fields() {
		fmt.Fprintf(&b, "%s: %s\n", f.Name, f.Value)
	}
	return b.String()
}

// DiffFields returns the fields whose value differs between before and after.
func DiffFields(before, after []Field) map[string]FieldChange {
	prior := make(map[string]string, len(before))
	for _, f := range before {
		prior[f.Name] = f.Value
	}

	changes := make(map[string]FieldChange)
	for _, f := range after {
		if old, ok := prior[f.Name]; !ok || old != f.Value {
			changes[f.Name] = FieldChange{From: old, To: f.Value}
		}
	}
	return changes
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}
