package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/usecase"
)

// Store is an in-memory backend for every repository port. Transactions are serialized:
// Begin snapshots the whole state and Rollback restores it, so an aborted unit leaves no trace.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	state    state
	failures map[string]error
}

type state struct {
	catalog     map[string]domain.CatalogItem
	income      map[string]domain.IncomeRecord
	expense     map[string]domain.ExpenseRecord
	settlements map[string]domain.PayrollSettlement
	profiles    map[string]domain.EmployeeProfile
	quotations  map[string]domain.Quotation
	audit       []domain.AuditEntry
	outbox      []domain.OutboxEvent
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		state: state{
			catalog:     make(map[string]domain.CatalogItem),
			income:      make(map[string]domain.IncomeRecord),
			expense:     make(map[string]domain.ExpenseRecord),
			settlements: make(map[string]domain.PayrollSettlement),
			profiles:    make(map[string]domain.EmployeeProfile),
			quotations:  make(map[string]domain.Quotation),
		},
		failures: make(map[string]error),
	}
}

func (s state) clone() state {
	c := state{
		catalog:     make(map[string]domain.CatalogItem, len(s.catalog)),
		income:      make(map[string]domain.IncomeRecord, len(s.income)),
		expense:     make(map[string]domain.ExpenseRecord, len(s.expense)),
		settlements: make(map[string]domain.PayrollSettlement, len(s.settlements)),
		profiles:    make(map[string]domain.EmployeeProfile, len(s.profiles)),
		quotations:  make(map[string]domain.Quotation, len(s.quotations)),
		audit:       append([]domain.AuditEntry(nil), s.audit...),
		outbox:      append([]domain.OutboxEvent(nil), s.outbox...),
	}
	for k, v := range s.catalog {
		c.catalog[k] = v
	}
	for k, v := range s.income {
		v.Lines = append([]domain.LineItem(nil), v.Lines...)
		c.income[k] = v
	}
	for k, v := range s.expense {
		v.Lines = append([]domain.LineItem(nil), v.Lines...)
		c.expense[k] = v
	}
	for k, v := range s.settlements {
		c.settlements[k] = v
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	for k, v := range s.quotations {
		v.Lines = append([]domain.QuotationLine(nil), v.Lines...)
		c.quotations[k] = v
	}
	return c
}

// FailOn makes the named operation (for example "expense.Create") return err until cleared with nil.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) failure(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failures[op]
}

// Transactions

type memTx struct {
	store    *Store
	snapshot state
	done     bool
}

// Begin implements usecase.TransactionManager.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := s.failure("tx.Begin"); err != nil {
		return nil, err
	}
	s.txMu.Lock()
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return &memTx{store: s, snapshot: snapshot}, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("transaction already closed")
	}
	if err := t.store.failure("tx.Commit"); err != nil {
		return err
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Lock()
	t.store.state = t.snapshot
	t.store.mu.Unlock()
	t.store.txMu.Unlock()
	return nil
}

// Inspection helpers for assertions.

// Items returns every catalog item.
func (s *Store) Items() []domain.CatalogItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]domain.CatalogItem, 0, len(s.state.catalog))
	for _, v := range s.state.catalog {
		items = append(items, v)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

// Incomes returns every income record, active or not.
func (s *Store) Incomes() []domain.IncomeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.IncomeRecord, 0, len(s.state.income))
	for _, v := range s.state.income {
		out = append(out, v)
	}
	return out
}

// Expenses returns every expense record, active or not.
func (s *Store) Expenses() []domain.ExpenseRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ExpenseRecord, 0, len(s.state.expense))
	for _, v := range s.state.expense {
		out = append(out, v)
	}
	return out
}

// Settlements returns every payroll settlement.
func (s *Store) Settlements() []domain.PayrollSettlement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PayrollSettlement, 0, len(s.state.settlements))
	for _, v := range s.state.settlements {
		out = append(out, v)
	}
	return out
}

// AuditEntries returns the audit log in append order.
func (s *Store) AuditEntries() []domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AuditEntry(nil), s.state.audit...)
}

// OutboxEvents returns the outbox in append order.
func (s *Store) OutboxEvents() []domain.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.OutboxEvent(nil), s.state.outbox...)
}

// Catalog

// CatalogRepo implements usecase.CatalogRepository.
type CatalogRepo struct{ s *Store }

// Catalog returns the catalog repository view of the store.
func (s *Store) Catalog() *CatalogRepo { return &CatalogRepo{s} }

func (r *CatalogRepo) Create(ctx context.Context, tx usecase.Transaction, item *domain.CatalogItem) error {
	if err := r.s.failure("catalog.Create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.state.catalog {
		if existing.Name == item.Name {
			return domain.ErrCatalogItemExists
		}
	}
	r.s.state.catalog[item.ID] = *item
	return nil
}

func (r *CatalogRepo) GetByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	item, ok := r.s.state.catalog[id]
	if !ok {
		return nil, domain.ErrCatalogItemNotFound
	}
	return &item, nil
}

func (r *CatalogRepo) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.CatalogItem, error) {
	return r.GetByID(ctx, id)
}

func (r *CatalogRepo) DecrementStock(ctx context.Context, tx usecase.Transaction, id string, qty int64) (*domain.CatalogItem, error) {
	if err := r.s.failure("catalog.DecrementStock"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.state.catalog[id]
	if !ok {
		return nil, domain.ErrCatalogItemNotFound
	}
	if err := item.ValidateWithdrawal(qty); err != nil {
		return nil, err
	}
	item.Quantity -= qty
	r.s.state.catalog[id] = item
	return &item, nil
}

func (r *CatalogRepo) UpsertStock(ctx context.Context, tx usecase.Transaction, item *domain.CatalogItem, qty int64) (*domain.CatalogItem, error) {
	if err := r.s.failure("catalog.UpsertStock"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, existing := range r.s.state.catalog {
		if existing.Name == item.Name {
			existing.Quantity += qty
			existing.UnitPrice = item.UnitPrice
			existing.UpdatedAt = item.UpdatedAt
			r.s.state.catalog[id] = existing
			return &existing, nil
		}
	}
	created := *item
	created.Quantity = qty
	r.s.state.catalog[created.ID] = created
	return &created, nil
}

func (r *CatalogRepo) SetQuantity(ctx context.Context, tx usecase.Transaction, id string, qty int64, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.state.catalog[id]
	if !ok {
		return domain.ErrCatalogItemNotFound
	}
	item.Quantity = qty
	item.UpdatedAt = updatedAt
	r.s.state.catalog[id] = item
	return nil
}

func (r *CatalogRepo) IsReferenced(ctx context.Context, tx usecase.Transaction, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rec := range r.s.state.income {
		for _, l := range rec.Lines {
			if l.CatalogItemID == id {
				return true, nil
			}
		}
	}
	for _, rec := range r.s.state.expense {
		for _, l := range rec.Lines {
			if l.CatalogItemID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *CatalogRepo) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.state.catalog[id]; !ok {
		return domain.ErrCatalogItemNotFound
	}
	delete(r.s.state.catalog, id)
	return nil
}

func (r *CatalogRepo) List(ctx context.Context, limit, offset int) ([]*domain.CatalogItem, error) {
	items := r.s.Items()
	out := make([]*domain.CatalogItem, 0, len(items))
	for i := range paginate(len(items), limit, offset) {
		out = append(out, &items[i])
	}
	return out, nil
}

// Income

// IncomeRepo implements usecase.IncomeRepository.
type IncomeRepo struct{ s *Store }

// Income returns the income repository view of the store.
func (s *Store) Income() *IncomeRepo { return &IncomeRepo{s} }

func (r *IncomeRepo) Create(ctx context.Context, tx usecase.Transaction, record *domain.IncomeRecord) error {
	if err := r.s.failure("income.Create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec := *record
	rec.Lines = append([]domain.LineItem(nil), record.Lines...)
	r.s.state.income[rec.ID] = rec
	return nil
}

func (r *IncomeRepo) GetByID(ctx context.Context, id string) (*domain.IncomeRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.state.income[id]
	if !ok {
		return nil, domain.ErrIncomeNotFound
	}
	rec.Lines = append([]domain.LineItem(nil), rec.Lines...)
	return &rec, nil
}

func (r *IncomeRepo) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.IncomeRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *IncomeRepo) Update(ctx context.Context, tx usecase.Transaction, record *domain.IncomeRecord) error {
	if err := r.s.failure("income.Update"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.state.income[record.ID]
	if !ok {
		return domain.ErrIncomeNotFound
	}
	rec.Title = record.Title
	rec.Description = record.Description
	rec.Amount = record.Amount
	rec.Classification = record.Classification
	rec.Client = record.Client
	r.s.state.income[rec.ID] = rec
	return nil
}

func (r *IncomeRepo) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool) error {
	if err := r.s.failure("income.SetActive"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.state.income[id]
	if !ok {
		return domain.ErrIncomeNotFound
	}
	rec.Active = active
	r.s.state.income[id] = rec
	return nil
}

func (r *IncomeRepo) ListActive(ctx context.Context, limit, offset int) ([]*domain.IncomeRecord, error) {
	var active []domain.IncomeRecord
	for _, rec := range r.s.Incomes() {
		if rec.Active {
			active = append(active, rec)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.After(active[j].CreatedAt) })
	out := make([]*domain.IncomeRecord, 0, len(active))
	for i := range paginate(len(active), limit, offset) {
		out = append(out, &active[i])
	}
	return out, nil
}

// Expense

// ExpenseRepo implements usecase.ExpenseRepository.
type ExpenseRepo struct{ s *Store }

// Expense returns the expense repository view of the store.
func (s *Store) Expense() *ExpenseRepo { return &ExpenseRepo{s} }

func (r *ExpenseRepo) Create(ctx context.Context, tx usecase.Transaction, record *domain.ExpenseRecord) error {
	if err := r.s.failure("expense.Create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec := *record
	rec.Lines = append([]domain.LineItem(nil), record.Lines...)
	r.s.state.expense[rec.ID] = rec
	return nil
}

func (r *ExpenseRepo) GetByID(ctx context.Context, id string) (*domain.ExpenseRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.state.expense[id]
	if !ok {
		return nil, domain.ErrExpenseNotFound
	}
	rec.Lines = append([]domain.LineItem(nil), rec.Lines...)
	return &rec, nil
}

func (r *ExpenseRepo) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ExpenseRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *ExpenseRepo) Update(ctx context.Context, tx usecase.Transaction, record *domain.ExpenseRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.state.expense[record.ID]
	if !ok {
		return domain.ErrExpenseNotFound
	}
	rec.Title = record.Title
	rec.Description = record.Description
	rec.Classification = record.Classification
	r.s.state.expense[rec.ID] = rec
	return nil
}

func (r *ExpenseRepo) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.state.expense[id]
	if !ok {
		return domain.ErrExpenseNotFound
	}
	rec.Active = active
	r.s.state.expense[id] = rec
	return nil
}

func (r *ExpenseRepo) ListActive(ctx context.Context, limit, offset int) ([]*domain.ExpenseRecord, error) {
	var active []domain.ExpenseRecord
	for _, rec := range r.s.Expenses() {
		if rec.Active {
			active = append(active, rec)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.After(active[j].CreatedAt) })
	out := make([]*domain.ExpenseRecord, 0, len(active))
	for i := range paginate(len(active), limit, offset) {
		out = append(out, &active[i])
	}
	return out, nil
}

// Ledger

// LedgerRepo implements usecase.LedgerRepository.
type LedgerRepo struct{ s *Store }

// Ledger returns the ledger aggregation view of the store.
func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{s} }

func (r *LedgerRepo) ActiveTotals(ctx context.Context, asOf time.Time) (decimal.Decimal, decimal.Decimal, error) {
	if err := r.s.failure("ledger.ActiveTotals"); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	income, expense := decimal.Zero, decimal.Zero
	for _, rec := range r.s.state.income {
		if rec.Active && !rec.CreatedAt.After(asOf) {
			income = income.Add(rec.Amount)
		}
	}
	for _, rec := range r.s.state.expense {
		if rec.Active && !rec.CreatedAt.After(asOf) {
			expense = expense.Add(rec.Amount)
		}
	}
	return income, expense, nil
}

// Payroll

// PayrollRepo implements usecase.PayrollRepository.
type PayrollRepo struct{ s *Store }

// Payroll returns the payroll repository view of the store.
func (s *Store) Payroll() *PayrollRepo { return &PayrollRepo{s} }

func (r *PayrollRepo) Create(ctx context.Context, tx usecase.Transaction, settlement *domain.PayrollSettlement) error {
	if err := r.s.failure("payroll.Create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.state.settlements[settlement.ID] = *settlement
	return nil
}

func (r *PayrollRepo) GetByID(ctx context.Context, id string) (*domain.PayrollSettlement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	s, ok := r.s.state.settlements[id]
	if !ok {
		return nil, domain.ErrSettlementNotFound
	}
	return &s, nil
}

func (r *PayrollRepo) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]*domain.PayrollSettlement, error) {
	var matched []domain.PayrollSettlement
	for _, s := range r.s.Settlements() {
		if s.EmployeeID == employeeID {
			matched = append(matched, s)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	out := make([]*domain.PayrollSettlement, 0, len(matched))
	for i := range paginate(len(matched), limit, offset) {
		out = append(out, &matched[i])
	}
	return out, nil
}

// Profiles

// ProfileRepo implements usecase.ProfileRepository.
type ProfileRepo struct{ s *Store }

// Profiles returns the profile repository view of the store.
func (s *Store) Profiles() *ProfileRepo { return &ProfileRepo{s} }

func (r *ProfileRepo) Get(ctx context.Context, userID string) (*domain.EmployeeProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.state.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &p, nil
}

func (r *ProfileRepo) Upsert(ctx context.Context, tx usecase.Transaction, profile *domain.EmployeeProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.state.profiles[profile.UserID] = *profile
	return nil
}

// Quotations

// QuotationRepo implements usecase.QuotationRepository.
type QuotationRepo struct{ s *Store }

// Quotations returns the quotation repository view of the store.
func (s *Store) Quotations() *QuotationRepo { return &QuotationRepo{s} }

func (r *QuotationRepo) Create(ctx context.Context, tx usecase.Transaction, quotation *domain.Quotation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q := *quotation
	q.Lines = append([]domain.QuotationLine(nil), quotation.Lines...)
	r.s.state.quotations[q.ID] = q
	return nil
}

func (r *QuotationRepo) GetByID(ctx context.Context, id string) (*domain.Quotation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q, ok := r.s.state.quotations[id]
	if !ok {
		return nil, domain.ErrQuotationNotFound
	}
	q.Lines = append([]domain.QuotationLine(nil), q.Lines...)
	return &q, nil
}

// Audit

// AuditRepo implements usecase.AuditRepository.
type AuditRepo struct{ s *Store }

// Audit returns the audit repository view of the store.
func (s *Store) Audit() *AuditRepo { return &AuditRepo{s} }

func (r *AuditRepo) CreateTx(ctx context.Context, tx usecase.Transaction, entry *domain.AuditEntry) error {
	if err := r.s.failure("audit.CreateTx"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.state.audit = append(r.s.state.audit, *entry)
	return nil
}

func (r *AuditRepo) ListBySubject(ctx context.Context, subjectType domain.SubjectType, subjectID string) ([]*domain.AuditEntry, error) {
	var out []*domain.AuditEntry
	for _, e := range r.s.AuditEntries() {
		if e.SubjectType == subjectType && e.SubjectID == subjectID {
			e := e
			out = append(out, &e)
		}
	}
	return out, nil
}

// Outbox

// OutboxRepo implements usecase.OutboxRepository.
type OutboxRepo struct{ s *Store }

// Outbox returns the outbox repository view of the store.
func (s *Store) Outbox() *OutboxRepo { return &OutboxRepo{s} }

func (r *OutboxRepo) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.state.outbox = append(r.s.state.outbox, *event)
	return nil
}

func (r *OutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	var out []*domain.OutboxEvent
	for _, e := range r.s.OutboxEvents() {
		if len(out) >= limit {
			break
		}
		if !e.Published {
			e := e
			out = append(out, &e)
		}
	}
	return out, nil
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.state.outbox {
		if r.s.state.outbox[i].ID == id {
			r.s.state.outbox[i].Published = true
			r.s.state.outbox[i].PublishedAt = &publishedAt
			return nil
		}
	}
	return fmt.Errorf("outbox event %s not found", id)
}

func (r *OutboxRepo) DeletePublished(ctx context.Context, before time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.state.outbox[:0]
	for _, e := range r.s.state.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	r.s.state.outbox = kept
	return nil
}

// SequentialIDGenerator implements usecase.IDGenerator with predictable IDs.
type SequentialIDGenerator struct {
	prefix string
	next   atomic.Int64
}

// NewSequentialIDGenerator creates a generator producing prefix-1, prefix-2, ...
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	return &SequentialIDGenerator{prefix: prefix}
}

func (g *SequentialIDGenerator) Generate() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.next.Add(1))
}

// ReportCache implements usecase.ReportCache in memory.
type ReportCache struct {
	mu      sync.Mutex
	version int64
	reports map[string]domain.BalanceReport

	Gets int
	Sets int
}

// NewReportCache creates an empty ReportCache.
func NewReportCache() *ReportCache {
	return &ReportCache{reports: make(map[string]domain.BalanceReport)}
}

func (c *ReportCache) LedgerVersion(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version, nil
}

func (c *ReportCache) BumpLedgerVersion(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	return nil
}

func (c *ReportCache) GetBalance(ctx context.Context, version int64, asOf time.Time) (*domain.BalanceReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	report, ok := c.reports[reportKey(version, asOf)]
	if !ok {
		return nil, nil
	}
	return &report, nil
}

func (c *ReportCache) SetBalance(ctx context.Context, version int64, report *domain.BalanceReport, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sets++
	c.reports[reportKey(version, report.AsOf)] = *report
	return nil
}

func reportKey(version int64, asOf time.Time) string {
	return fmt.Sprintf("%d:%d", version, asOf.Unix())
}

// paginate yields the indexes of one page.
func paginate(n, limit, offset int) func(yield func(int) bool) {
	return func(yield func(int) bool) {
		for i := offset; i < n && i < offset+limit; i++ {
			if !yield(i) {
				return
			}
		}
	}
}
