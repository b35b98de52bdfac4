package usecase

import (
	"context"
	"time"

	"github.com/iho/bizledger/internal/domain"
)

// AuditUseCase appends and reads audit entries.
type AuditUseCase struct {
	rt        Runtime
	auditRepo AuditRepository
}

// NewAuditUseCase creates a new AuditUseCase.
func NewAuditUseCase(rt Runtime) *AuditUseCase {
	return &AuditUseCase{
		rt:        rt,
		auditRepo: rt.Audit,
	}
}

// RecordInput represents a free-standing audit entry.
type RecordInput struct {
	SubjectType domain.SubjectType
	SubjectID   string
	Action      domain.AuditAction
	Snapshot    string
}

// Record appends an audit entry in its own transaction. Only required fields are checked.
func (uc *AuditUseCase) Record(ctx context.Context, input RecordInput, actor domain.Actor) (entry *domain.AuditEntry, err error) {
	start := time.Now()
	defer func() { err = uc.rt.finish(opRecordAudit, actor, start, err) }()

	err = uc.rt.atomically(ctx, func(ctx context.Context, tx Transaction) error {
		e, err := uc.rt.recordAudit(ctx, tx, input.SubjectType, input.SubjectID, input.Action, input.Snapshot, nil, actor, time.Now().UTC())
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.rt.Metrics != nil {
		uc.rt.Metrics.AuditEntriesCreated.WithLabelValues(string(input.SubjectType), string(input.Action)).Inc()
	}

	return entry, nil
}

// History lists a record's audit entries, oldest first.
func (uc *AuditUseCase) History(ctx context.Context, subjectType domain.SubjectType, subjectID string, actor domain.Actor) ([]*domain.AuditEntry, error) {
	if err := domain.Authorize(actor, domain.PermViewAudit); err != nil {
		return nil, err
	}

	if !subjectType.IsValid() {
		return nil, domain.NewValidationError("subject_type", "unknown subject type")
	}

	return uc.auditRepo.ListBySubject(ctx, subjectType, subjectID)
}
