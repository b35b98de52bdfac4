package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bizledger/internal/domain"
)

// TransactionUseCase registers income and expense transactions and manages their lifecycle.
type TransactionUseCase struct {
	rt          Runtime
	catalogRepo CatalogRepository
	incomeRepo  IncomeRepository
	expenseRepo ExpenseRepository
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	rt Runtime,
	catalogRepo CatalogRepository,
	incomeRepo IncomeRepository,
	expenseRepo ExpenseRepository,
) *TransactionUseCase {
	return &TransactionUseCase{
		rt:          rt,
		catalogRepo: catalogRepo,
		incomeRepo:  incomeRepo,
		expenseRepo: expenseRepo,
	}
}

// IncomeLineInput is one income line as entered: a catalog reference and a quantity in text form.
type IncomeLineInput struct {
	CatalogItemID string
	Quantity      string
}

// RecordIncomeInput represents input for registering an income.
type RecordIncomeInput struct {
	Title          string
	Description    string
	Amount         decimal.Decimal
	Classification string
	Client         string
	Lines          []IncomeLineInput
}

// ExpenseLineInput is one ad-hoc purchase line keyed by product name.
type ExpenseLineInput struct {
	Name      string
	Quantity  string
	UnitPrice string
}

// RecordExpenseInput represents input for registering an expense.
type RecordExpenseInput struct {
	Title          string
	Description    string
	Classification string
	Lines          []ExpenseLineInput
}

type expenseLine struct {
	name      string
	quantity  int64
	unitPrice decimal.Decimal
}

// RecordIncome persists an income header with its lines and withdraws the sold units from stock.
// If any line exceeds available stock nothing is persisted.
func (uc *TransactionUseCase) RecordIncome(ctx context.Context, input RecordIncomeInput, actor domain.Actor) (record *domain.IncomeRecord, err error) {
	start := time.Now()
	defer func() { err = uc.rt.finish(opRecordIncome, actor, start, err) }()

	if err := domain.Authorize(actor, domain.PermRecordIncome); err != nil {
		return nil, err
	}

	header, err := buildIncomeHeader(input)
	if err != nil {
		return nil, err
	}

	lines := parseIncomeLines(input.Lines)

	err = uc.rt.atomically(ctx, func(ctx context.Context, tx Transaction) error {
		now := time.Now().UTC()
		rec := *header
		rec.ID = uc.rt.IDGen.Generate()
		rec.CreatedAt = now
		rec.CreatedBy = actor.ID
		rec.CreatedByName = displayName(actor)
		rec.Active = true
		rec.Lines = make([]domain.LineItem, 0, len(lines))

		for _, l := range lines {
			item, err := uc.catalogRepo.DecrementStock(ctx, tx, l.CatalogItemID, l.Quantity)
			if err != nil {
				return err
			}

			rec.Lines = append(rec.Lines, domain.LineItem{
				ID:            uc.rt.IDGen.Generate(),
				RecordID:      rec.ID,
				CatalogItemID: item.ID,
				Quantity:      l.Quantity,
				UnitPrice:     item.UnitPrice,
			})
		}

		if err := uc.incomeRepo.Create(ctx, tx, &rec); err != nil {
			return err
		}

		if err := uc.rt.emit(ctx, tx, domain.AggregateTypeIncome, rec.ID, domain.EventTypeIncomeRecorded, domain.LedgerRecordedEvent{
			RecordID:  rec.ID,
			Title:     rec.Title,
			Amount:    rec.Amount.String(),
			Lines:     len(rec.Lines),
			CreatedBy: actor.ID,
		}, now); err != nil {
			return err
		}

		record = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.rt.ledgerChanged(ctx)
	uc.observeRecord("income", record.Amount)
	uc.observeStock("out", record.Lines)

	return record, nil
}

// RecordExpense persists an expense whose amount is the sum of its lines and adds the purchased
// units to stock, creating catalog items for unknown product names.
func (uc *TransactionUseCase) RecordExpense(ctx context.Context, input RecordExpenseInput, actor domain.Actor) (record *domain.ExpenseRecord, err error) {
	start := time.Now()
	defer func() { err = uc.rt.finish(opRecordExpense, actor, start, err) }()

	if err := domain.Authorize(actor, domain.PermRecordExpense); err != nil {
		return nil, err
	}

	header, err := buildExpenseHeader(input.Title, input.Description, input.Classification)
	if err != nil {
		return nil, err
	}

	lines, err := parseExpenseLines(input.Lines)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.ErrNoLineItems
	}

	err = uc.rt.atomically(ctx, func(ctx context.Context, tx Transaction) error {
		now := time.Now().UTC()
		rec := *header
		rec.ID = uc.rt.IDGen.Generate()
		rec.CreatedAt = now
		rec.CreatedBy = actor.ID
		rec.CreatedByName = displayName(actor)
		rec.Active = true
		rec.Lines = make([]domain.LineItem, 0, len(lines))

		for _, l := range lines {
			item, err := uc.catalogRepo.UpsertStock(ctx, tx, &domain.CatalogItem{
				ID:        uc.rt.IDGen.Generate(),
				Name:      l.name,
				UnitPrice: l.unitPrice,
				Active:    true,
				CreatedBy: actor.ID,
				CreatedAt: now,
				UpdatedAt: now,
			}, l.quantity)
			if err != nil {
				return err
			}

			rec.Lines = append(rec.Lines, domain.LineItem{
				ID:            uc.rt.IDGen.Generate(),
				RecordID:      rec.ID,
				CatalogItemID: item.ID,
				Quantity:      l.quantity,
				UnitPrice:     l.unitPrice,
			})
		}

		rec.Amount = domain.SumLines(rec.Lines)

		if err := uc.expenseRepo.Create(ctx, tx, &rec); err != nil {
			return err
		}

		if err := uc.emitExpenseRecorded(ctx, tx, &rec, actor, now); err != nil {
			return err
		}

		record = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.rt.ledgerChanged(ctx)
	uc.observeRecord("expense", record.Amount)
	uc.observeStock("in", record.Lines)

	return record, nil
}

// recordDirectExpense writes an expense without line items inside an existing transaction.
// It is the ledger side of a payroll settlement.
func (uc *TransactionUseCase) recordDirectExpense(
	ctx context.Context,
	tx Transaction,
	title, description string,
	amount decimal.Decimal,
	actor domain.Actor,
	now time.Time,
) (*domain.ExpenseRecord, error) {
	if err := domain.ValidateAmount("amount", amount); err != nil {
		return nil, err
	}

	rec := &domain.ExpenseRecord{
		ID:             uc.rt.IDGen.Generate(),
		Title:          title,
		Description:    description,
		Amount:         amount,
		Classification: domain.ExpenseGeneral,
		CreatedAt:      now,
		CreatedBy:      actor.ID,
		CreatedByName:  displayName(actor),
		Active:         true,
	}

	if err := uc.expenseRepo.Create(ctx, tx, rec); err != nil {
		return nil, err
	}

	if err := uc.emitExpenseRecorded(ctx, tx, rec, actor, now); err != nil {
		return nil, err
	}

	return rec, nil
}

// SoftDelete marks a record inactive after writing an audit entry with its prior state.
// Stock adjustments made by the record are not reversed.
func (uc *TransactionUseCase) SoftDelete(ctx context.Context, subjectType domain.SubjectType, id string, actor domain.Actor) (err error) {
	start := time.Now()
	defer func() { err = uc.rt.finish(opSoftDelete, actor, start, err) }()

	if err := domain.Authorize(actor, domain.PermDeleteRecord); err != nil {
		return err
	}

	err = uc.rt.atomically(ctx, func(ctx context.Context, tx Transaction) error {
		now := time.Now().UTC()

		subject, err := uc.lockActive(ctx, tx, subjectType, id)
		if err != nil {
			return err
		}

		entry, err := uc.rt.recordAudit(ctx, tx, subjectType, id, domain.AuditActionDelete, domain.RenderSnapshot(subject), nil, actor, now)
		if err != nil {
			return err
		}

		switch subjectType {
		case domain.SubjectIncome:
			err = uc.incomeRepo.SetActive(ctx, tx, id, false)
		default:
			err = uc.expenseRepo.SetActive(ctx, tx, id, false)
		}
		if err != nil {
			return err
		}

		return uc.rt.emit(ctx, tx, string(subjectType), id, domain.EventTypeRecordDeleted, domain.RecordChangedEvent{
			SubjectType: string(subjectType),
			SubjectID:   id,
			AuditID:     entry.ID,
			ActorID:     actor.ID,
		}, now)
	})
	if err != nil {
		return err
	}

	uc.rt.ledgerChanged(ctx)
	if uc.rt.Metrics != nil {
		uc.rt.Metrics.AuditEntriesCreated.WithLabelValues(string(subjectType), string(domain.AuditActionDelete)).Inc()
	}

	return nil
}

// Edit applies header changes to a record after writing an audit entry with its prior state.
// Expense amounts stay derived from their lines, so changing them is rejected.
func (uc *TransactionUseCase) Edit(ctx context.Context, subjectType domain.SubjectType, id string, changes domain.RecordChanges, actor domain.Actor) (err error) {
	start := time.Now()
	defer func() { err = uc.rt.finish(opEdit, actor, start, err) }()

	if err := domain.Authorize(actor, domain.PermEditRecord); err != nil {
		return err
	}

	if changes.IsEmpty() {
		return domain.NewValidationError("changes", "nothing to change")
	}

	err = uc.rt.atomically(ctx, func(ctx context.Context, tx Transaction) error {
		now := time.Now().UTC()

		subject, err := uc.lockActive(ctx, tx, subjectType, id)
		if err != nil {
			return err
		}

		snapshot := domain.RenderSnapshot(subject)
		before := subject.Fields()

		switch rec := subject.(type) {
		case *domain.IncomeRecord:
			if err := changes.ApplyToIncome(rec); err != nil {
				return err
			}
			if err := domain.ValidateLength("client", rec.Client, domain.MaxClientLength); err != nil {
				return err
			}
		case *domain.ExpenseRecord:
			if err := changes.ApplyToExpense(rec); err != nil {
				return err
			}
		}

		diff := domain.DiffFields(before, subject.Fields())

		entry, err := uc.rt.recordAudit(ctx, tx, subjectType, id, domain.AuditActionEdit, snapshot, diff, actor, now)
		if err != nil {
			return err
		}

		switch rec := subject.(type) {
		case *domain.IncomeRecord:
			err = uc.incomeRepo.Update(ctx, tx, rec)
		case *domain.ExpenseRecord:
			err = uc.expenseRepo.Update(ctx, tx, rec)
		}
		if err != nil {
			return err
		}

		return uc.rt.emit(ctx, tx, string(subjectType), id, domain.EventTypeRecordEdited, domain.RecordChangedEvent{
			SubjectType: string(subjectType),
			SubjectID:   id,
			AuditID:     entry.ID,
			ActorID:     actor.ID,
		}, now)
	})
	if err != nil {
		return err
	}

	uc.rt.ledgerChanged(ctx)
	if uc.rt.Metrics != nil {
		uc.rt.Metrics.AuditEntriesCreated.WithLabelValues(string(subjectType), string(domain.AuditActionEdit)).Inc()
	}

	return nil
}

// GetIncome returns an income record by ID, including inactive ones.
func (uc *TransactionUseCase) GetIncome(ctx context.Context, id string, actor domain.Actor) (*domain.IncomeRecord, error) {
	if err := domain.Authorize(actor, domain.PermViewReports); err != nil {
		return nil, err
	}
	return uc.incomeRepo.GetByID(ctx, id)
}

// GetExpense returns an expense record by ID, including inactive ones.
func (uc *TransactionUseCase) GetExpense(ctx context.Context, id string, actor domain.Actor) (*domain.ExpenseRecord, error) {
	if err := domain.Authorize(actor, domain.PermViewReports); err != nil {
		return nil, err
	}
	return uc.expenseRepo.GetByID(ctx, id)
}

// ListIncome lists active income records, newest first.
func (uc *TransactionUseCase) ListIncome(ctx context.Context, limit, offset int, actor domain.Actor) ([]*domain.IncomeRecord, error) {
	if err := domain.Authorize(actor, domain.PermViewReports); err != nil {
		return nil, err
	}
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.incomeRepo.ListActive(ctx, limit, offset)
}

// ListExpenses lists active expense records, newest first.
func (uc *TransactionUseCase) ListExpenses(ctx context.Context, limit, offset int, actor domain.Actor) ([]*domain.ExpenseRecord, error) {
	if err := domain.Authorize(actor, domain.PermViewReports); err != nil {
		return nil, err
	}
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.expenseRepo.ListActive(ctx, limit, offset)
}

// lockActive loads a ledger record for update and checks it has not been deleted.
func (uc *TransactionUseCase) lockActive(ctx context.Context, tx Transaction, subjectType domain.SubjectType, id string) (domain.Snapshotter, error) {
	switch subjectType {
	case domain.SubjectIncome:
		rec, err := uc.incomeRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if !rec.Active {
			return nil, domain.ErrRecordInactive
		}
		return rec, nil
	case domain.SubjectExpense:
		rec, err := uc.expenseRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if !rec.Active {
			return nil, domain.ErrRecordInactive
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRecordType, subjectType)
	}
}

func (uc *TransactionUseCase) emitExpenseRecorded(ctx context.Context, tx Transaction, rec *domain.ExpenseRecord, actor domain.Actor, now time.Time) error {
	return uc.rt.emit(ctx, tx, domain.AggregateTypeExpense, rec.ID, domain.EventTypeExpenseRecorded, domain.LedgerRecordedEvent{
		RecordID:  rec.ID,
		Title:     rec.Title,
		Amount:    rec.Amount.String(),
		Lines:     len(rec.Lines),
		CreatedBy: actor.ID,
	}, now)
}

func (uc *TransactionUseCase) observeRecord(kind string, amount decimal.Decimal) {
	if uc.rt.Metrics == nil {
		return
	}
	uc.rt.Metrics.LedgerRecords.WithLabelValues(kind).Inc()
	uc.rt.Metrics.LedgerAmount.WithLabelValues(kind).Observe(amount.InexactFloat64())
}

func (uc *TransactionUseCase) observeStock(direction string, lines []domain.LineItem) {
	if uc.rt.Metrics == nil {
		return
	}
	for _, l := range lines {
		uc.rt.Metrics.StockUnits.WithLabelValues(direction).Add(float64(l.Quantity))
	}
}

func buildIncomeHeader(input RecordIncomeInput) (*domain.IncomeRecord, error) {
	if err := domain.ValidateTitle(input.Title); err != nil {
		return nil, err
	}

	cls := domain.IncomeClassification(input.Classification)
	if !cls.IsValid() {
		return nil, domain.NewValidationError("classification", fmt.Sprintf("unknown income classification %q", input.Classification))
	}

	if err := domain.ValidateAmount("amount", input.Amount); err != nil {
		return nil, err
	}

	client := strings.TrimSpace(input.Client)
	if err := domain.ValidateLength("client", client, domain.MaxClientLength); err != nil {
		return nil, err
	}

	return &domain.IncomeRecord{
		Title:          strings.TrimSpace(input.Title),
		Description:    input.Description,
		Amount:         input.Amount,
		Classification: cls,
		Client:         client,
	}, nil
}

func buildExpenseHeader(title, description, classification string) (*domain.ExpenseRecord, error) {
	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}

	cls := domain.ExpenseClassification(classification)
	if !cls.IsValid() {
		return nil, domain.NewValidationError("classification", fmt.Sprintf("unknown expense classification %q", classification))
	}

	return &domain.ExpenseRecord{
		Title:          strings.TrimSpace(title),
		Description:    description,
		Classification: cls,
	}, nil
}

// parseIncomeLines keeps the lines with a catalog reference and a positive whole quantity.
// Anything else is skipped rather than defaulted.
func parseIncomeLines(inputs []IncomeLineInput) []domain.LineItem {
	lines := make([]domain.LineItem, 0, len(inputs))
	for _, in := range inputs {
		id := strings.TrimSpace(in.CatalogItemID)
		if id == "" {
			continue
		}
		qty, err := domain.ParseQuantity("quantity", in.Quantity)
		if err != nil {
			continue
		}
		lines = append(lines, domain.LineItem{CatalogItemID: id, Quantity: qty})
	}
	return lines
}

// parseExpenseLines keeps the lines with a product name, a positive whole quantity and a
// whole non-negative price. Names are normalized so spelling variants hit the same item.
// Lines that parse but exceed the quantity or amount bounds fail the whole expense.
func parseExpenseLines(inputs []ExpenseLineInput) ([]expenseLine, error) {
	lines := make([]expenseLine, 0, len(inputs))
	total := decimal.Zero
	for _, in := range inputs {
		name := domain.NormalizeProductName(in.Name)
		if domain.ValidateProductName(name) != nil {
			continue
		}
		qty, err := domain.ParseQuantity("quantity", in.Quantity)
		if err != nil {
			continue
		}
		price, err := domain.ParseUnitPrice("unit_price", in.UnitPrice)
		if err != nil {
			continue
		}
		if err := domain.ValidateQuantity("quantity", qty); err != nil {
			return nil, err
		}
		if err := domain.ValidateUnitPrice("unit_price", price); err != nil {
			return nil, err
		}
		total = total.Add(price.Mul(decimal.NewFromInt(qty)))
		lines = append(lines, expenseLine{name: name, quantity: qty, unitPrice: price})
	}
	if err := domain.ValidateAmount("amount", total); err != nil {
		return nil, err
	}
	return lines, nil
}
