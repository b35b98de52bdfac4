package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EmployeeProfile holds the payroll attributes of a user.
type EmployeeProfile struct {
	UserID      string
	DisplayName string
	HourlyRate  decimal.Decimal
	CreatedBy   string
	UpdatedAt   time.Time
}

// PayrollSettlement is one payroll calculation for one employee and period.
type PayrollSettlement struct {
	ID          string
	EmployeeID  string
	Period      string
	HoursWorked decimal.Decimal
	// HourlyRate is a snapshot of the employee's rate at settlement time.
	HourlyRate   decimal.Decimal
	Bonuses      decimal.Decimal
	Deductions   decimal.Decimal
	Total        decimal.Decimal
	ExpenseID    string
	RecordedBy   string
	RecordedName string
	CreatedAt    time.Time
}

// SettlementTotal computes hours * rate + bonuses - deductions, with the labor part
// rounded to whole currency units.
func SettlementTotal(hours, rate, bonuses, deductions decimal.Decimal) decimal.Decimal {
	return LaborCost(hours, rate).Add(bonuses).Sub(deductions)
}

// Validate checks the settlement inputs and its total invariant.
func (p *PayrollSettlement) Validate() error {
	if p.EmployeeID == "" {
		return NewValidationError("employee", "is required")
	}
	if p.Period == "" {
		return NewValidationError("period", "is required")
	}
	if !p.HourlyRate.IsPositive() {
		return ErrNoHourlyRate
	}
	if err := ValidateHours(p.HoursWorked); err != nil {
		return err
	}
	if err := ValidateAmount("hourly_rate", p.HourlyRate); err != nil {
		return err
	}
	if err := ValidateAmount("bonuses", p.Bonuses); err != nil {
		return err
	}
	if err := ValidateAmount("deductions", p.Deductions); err != nil {
		return err
	}
	if !p.Total.Equal(SettlementTotal(p.HoursWorked, p.HourlyRate, p.Bonuses, p.Deductions)) {
		return fmt.Errorf("%w: settlement total does not match its components", ErrValidation)
	}
	if p.Total.IsNegative() {
		return NewValidationError("deductions", "exceed gross pay")
	}
	return nil
}

// ExpenseTitle is the title of the expense emitted for the settlement.
func (p *PayrollSettlement) ExpenseTitle(employeeName string) string {
	return TruncateRunes(fmt.Sprintf("Payroll %s - %s", employeeName, p.Period), MaxTitleLength)
}
