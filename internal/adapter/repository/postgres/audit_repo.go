package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository. Entries are append-only.
type AuditRepository struct {
	db querier
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: pool}
}

// CreateTx inserts a new audit entry inside tx.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, entry *domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	var changesJSON []byte
	if len(entry.Changes) > 0 {
		var err error
		changesJSON, err = json.Marshal(entry.Changes)
		if err != nil {
			return fmt.Errorf("marshal audit changes: %w", err)
		}
	}

	_, err := inTx(tx).Exec(ctx, `
		INSERT INTO audit_entries (
			id, subject_type, subject_id, action, actor_id, actor_name, snapshot, changes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID,
		string(entry.SubjectType),
		entry.SubjectID,
		string(entry.Action),
		entry.ActorID,
		entry.ActorName,
		entry.Snapshot,
		changesJSON,
		entry.CreatedAt,
	)

	return err
}

// ListBySubject lists a record's audit entries, oldest first.
func (r *AuditRepository) ListBySubject(ctx context.Context, subjectType domain.SubjectType, subjectID string) ([]*domain.AuditEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, subject_type, subject_id, action, actor_id, actor_name, snapshot, changes, created_at
		FROM audit_entries
		WHERE subject_type = $1 AND subject_id = $2
		ORDER BY created_at, id`,
		string(subjectType), subjectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var (
			e           domain.AuditEntry
			subject     string
			action      string
			changesJSON []byte
		)
		if err := rows.Scan(&e.ID, &subject, &e.SubjectID, &action, &e.ActorID, &e.ActorName, &e.Snapshot, &changesJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.SubjectType = domain.SubjectType(subject)
		e.Action = domain.AuditAction(action)
		if len(changesJSON) > 0 {
			if err := json.Unmarshal(changesJSON, &e.Changes); err != nil {
				return nil, fmt.Errorf("decode audit changes of %s: %w", e.ID, err)
			}
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
