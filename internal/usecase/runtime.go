package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/infrastructure/metrics"
)

// Runtime bundles the collaborators shared by every service.
// Retrier, Cache and Metrics are optional.
type Runtime struct {
	TxManager TransactionManager
	Retrier   Retrier
	IDGen     IDGenerator
	Audit     AuditRepository
	Outbox    OutboxRepository
	Cache     ReportCache
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
	TxTimeout time.Duration
}

// atomically runs fn as one transaction. The whole unit is retried on storage conflicts,
// so fn must not leak state between attempts.
func (rt Runtime) atomically(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	timeout := rt.TxTimeout
	if timeout <= 0 {
		timeout = DefaultTransactionTimeout
	}

	attempt := func() error {
		txCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		tx, err := rt.TxManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	if rt.Retrier == nil {
		return attempt()
	}

	return rt.Retrier.Retry(ctx, attempt)
}

// recordAudit appends an audit entry inside tx.
func (rt Runtime) recordAudit(
	ctx context.Context,
	tx Transaction,
	subjectType domain.SubjectType,
	subjectID string,
	action domain.AuditAction,
	snapshot string,
	changes map[string]domain.FieldChange,
	actor domain.Actor,
	now time.Time,
) (*domain.AuditEntry, error) {
	entry := &domain.AuditEntry{
		ID:          rt.IDGen.Generate(),
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Action:      action,
		ActorID:     actor.ID,
		ActorName:   displayName(actor),
		Snapshot:    snapshot,
		Changes:     changes,
		CreatedAt:   now,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := rt.Audit.CreateTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// emit appends an outbox event inside tx.
func (rt Runtime) emit(ctx context.Context, tx Transaction, aggregateType, aggregateID, eventType string, payload any, now time.Time) error {
	if rt.Outbox == nil {
		return nil
	}

	event := &domain.OutboxEvent{
		ID:            rt.IDGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       domain.Payload(payload),
		CreatedAt:     now,
		Published:     false,
	}

	return rt.Outbox.Create(ctx, tx, event)
}

// ledgerChanged invalidates cached balance reports after a committed ledger write.
// If every bump fails, reports cached before the write are served until they expire.
func (rt Runtime) ledgerChanged(ctx context.Context) {
	if rt.Cache == nil {
		return
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(ledgerBumpInterval), ledgerBumpRetries),
		ctx,
	)
	bump := func() error { return rt.Cache.BumpLedgerVersion(ctx) }
	notify := func(err error, _ time.Duration) {
		rt.Logger.Warn().Err(err).Msg("failed to bump ledger version, retrying")
	}

	if err := backoff.RetryNotify(bump, policy, notify); err != nil {
		rt.Logger.Error().Err(err).Msg("ledger version not bumped, cached balance reports stay until they expire")
	}
}

// finish records metrics and logs for one operation, and tags unexpected errors as system errors.
func (rt Runtime) finish(operation string, actor domain.Actor, start time.Time, err error) error {
	if rt.Metrics != nil {
		rt.Metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}

	if err == nil {
		return nil
	}

	kind := domain.Classify(err)
	if rt.Metrics != nil {
		rt.Metrics.OperationErrors.WithLabelValues(operation, string(kind)).Inc()
	}

	if kind != domain.KindSystem {
		rt.Logger.Warn().
			Err(err).
			Str("operation", operation).
			Str("actor_id", actor.ID).
			Str("kind", string(kind)).
			Msg("operation rejected")
		return err
	}

	rt.Logger.Error().
		Err(err).
		Str("operation", operation).
		Str("actor_id", actor.ID).
		Msg("operation failed")

	if errors.Is(err, domain.ErrSystem) {
		return err
	}

	return fmt.Errorf("%w: %w", domain.ErrSystem, err)
}

func displayName(actor domain.Actor) string {
	if actor.DisplayName != "" {
		return actor.DisplayName
	}
	return actor.ID
}
