package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	db querier
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{db: pool}
}

// Create creates a new outbox event within a transaction.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	_, err = inTx(tx).Exec(ctx, `
		INSERT INTO outbox_events (id, aggregate_id, aggregate_type, event_type, payload, created_at, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.AggregateID, event.AggregateType, event.EventType, payload, event.CreatedAt, event.Published,
	)

	return err
}

// GetUnpublished retrieves unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, aggregate_id, aggregate_type, event_type, payload, created_at, published, published_at
		FROM outbox_events
		WHERE NOT published
		ORDER BY created_at, id
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.OutboxEvent, 0, limit)
	for rows.Next() {
		event, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE outbox_events SET published = TRUE, published_at = $2 WHERE id = $1`,
		id, publishedAt,
	)
	return err
}

// DeletePublished deletes published events older than the given time.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM outbox_events WHERE published AND published_at < $1`,
		before,
	)
	return err
}

func scanOutboxEvent(row pgx.Row) (*domain.OutboxEvent, error) {
	var (
		event       domain.OutboxEvent
		payload     []byte
		publishedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&event.ID,
		&event.AggregateID,
		&event.AggregateType,
		&event.EventType,
		&payload,
		&event.CreatedAt,
		&event.Published,
		&publishedAt,
	)
	if err != nil {
		return nil, err
	}

	if payload != nil {
		_ = json.Unmarshal(payload, &event.Payload)
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		event.PublishedAt = &t
	}

	return &event, nil
}
