package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bizledger/internal/domain"
)

// PayrollUseCase settles employee payroll and books the matching expense.
type PayrollUseCase struct {
	rt           Runtime
	transactions *TransactionUseCase
	payrollRepo  PayrollRepository
	profileRepo  ProfileRepository
}

// NewPayrollUseCase creates a new PayrollUseCase.
func NewPayrollUseCase(
	rt Runtime,
	transactions *TransactionUseCase,
	payrollRepo PayrollRepository,
	profileRepo ProfileRepository,
) *PayrollUseCase {
	return &PayrollUseCase{
		rt:           rt,
		transactions: transactions,
		payrollRepo:  payrollRepo,
		profileRepo:  profileRepo,
	}
}

// SettleInput represents input for one payroll settlement.
type SettleInput struct {
	EmployeeID  string
	Period      string
	HoursWorked decimal.Decimal
	Bonuses     decimal.Decimal
	Deductions  decimal.Decimal
}

// Settle computes the settlement from the employee's current hourly rate and persists it
// together with one expense for the same total. Either both are stored or neither is.
func (uc *PayrollUseCase) Settle(ctx context.Context, input SettleInput, actor domain.Actor) (settlement *domain.PayrollSettlement, expense *domain.ExpenseRecord, err error) {
	start := time.Now()
	defer func() { err = uc.rt.finish(opSettlePayroll, actor, start, err) }()

	if err := domain.Authorize(actor, domain.PermSettlePayroll); err != nil {
		return nil, nil, err
	}

	if strings.TrimSpace(input.EmployeeID) == "" {
		return nil, nil, domain.NewValidationError("employee", "is required")
	}

	period := strings.TrimSpace(input.Period)
	if err := domain.ValidateLength("period", period, domain.MaxPeriodLength); err != nil {
		return nil, nil, err
	}

	profile, err := uc.profileRepo.Get(ctx, input.EmployeeID)
	if err != nil {
		return nil, nil, err
	}

	draft := domain.PayrollSettlement{
		EmployeeID:   input.EmployeeID,
		Period:       period,
		HoursWorked:  input.HoursWorked,
		HourlyRate:   profile.HourlyRate,
		Bonuses:      input.Bonuses,
		Deductions:   input.Deductions,
		RecordedBy:   actor.ID,
		RecordedName: displayName(actor),
	}
	draft.Total = domain.SettlementTotal(draft.HoursWorked, draft.HourlyRate, draft.Bonuses, draft.Deductions)

	if err := draft.Validate(); err != nil {
		return nil, nil, err
	}

	employeeName := profile.DisplayName
	if employeeName == "" {
		employeeName = profile.UserID
	}

	err = uc.rt.atomically(ctx, func(ctx context.Context, tx Transaction) error {
		now := time.Now().UTC()
		s := draft
		s.ID = uc.rt.IDGen.Generate()
		s.CreatedAt = now

		description := fmt.Sprintf("%s h x %s + %s bonuses - %s deductions",
			s.HoursWorked.String(), s.HourlyRate.String(), s.Bonuses.String(), s.Deductions.String())

		exp, err := uc.transactions.recordDirectExpense(ctx, tx, s.ExpenseTitle(employeeName), description, s.Total, actor, now)
		if err != nil {
			return err
		}
		s.ExpenseID = exp.ID

		if err := uc.payrollRepo.Create(ctx, tx, &s); err != nil {
			return err
		}

		if err := uc.rt.emit(ctx, tx, domain.AggregateTypeSettlement, s.ID, domain.EventTypePayrollSettled, domain.PayrollSettledEvent{
			SettlementID: s.ID,
			EmployeeID:   s.EmployeeID,
			ExpenseID:    exp.ID,
			Period:       s.Period,
			Total:        s.Total.String(),
		}, now); err != nil {
			return err
		}

		settlement = &s
		expense = exp
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	uc.rt.ledgerChanged(ctx)
	if uc.rt.Metrics != nil {
		uc.rt.Metrics.PayrollSettlements.Inc()
		uc.rt.Metrics.LedgerRecords.WithLabelValues("expense").Inc()
	}

	return settlement, expense, nil
}

// GetSettlement returns a settlement by ID.
func (uc *PayrollUseCase) GetSettlement(ctx context.Context, id string, actor domain.Actor) (*domain.PayrollSettlement, error) {
	if err := domain.Authorize(actor, domain.PermSettlePayroll); err != nil {
		return nil, err
	}
	return uc.payrollRepo.GetByID(ctx, id)
}

// ListSettlements lists an employee's settlements, newest first.
func (uc *PayrollUseCase) ListSettlements(ctx context.Context, employeeID string, limit, offset int, actor domain.Actor) ([]*domain.PayrollSettlement, error) {
	if err := domain.Authorize(actor, domain.PermSettlePayroll); err != nil {
		return nil, err
	}
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.payrollRepo.ListByEmployee(ctx, employeeID, limit, offset)
}
