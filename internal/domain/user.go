package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Actor is the authenticated user on whose behalf an operation runs.
// It is resolved by the web/auth layer and handed to every service call.
type Actor struct {
	ID          string
	DisplayName string
	Roles       []Role
	Superuser   bool
	HourlyRate  decimal.Decimal
}

// Role represents a user's group membership.
type Role string

const (
	// RoleAdmin has full access to all operations
	RoleAdmin Role = "administrator"

	// RoleAccountant keeps the books: ledger, payroll, reports and audit
	RoleAccountant Role = "accountant"

	// RoleWarehouseClerk registers stock movements and quotes
	RoleWarehouseClerk Role = "warehouse_clerk"
)

// Valid roles
var validRoles = map[Role]bool{
	RoleAdmin:          true,
	RoleAccountant:     true,
	RoleWarehouseClerk: true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// Permission is a capability checked at the service boundary.
type Permission string

const (
	PermRecordIncome   Permission = "ledger.record_income"
	PermRecordExpense  Permission = "ledger.record_expense"
	PermEditRecord     Permission = "ledger.edit"
	PermDeleteRecord   Permission = "ledger.delete"
	PermManageCatalog  Permission = "catalog.manage"
	PermSettlePayroll  Permission = "payroll.settle"
	PermCreateQuote    Permission = "quotation.create"
	PermViewReports    Permission = "report.view"
	PermViewAudit      Permission = "audit.view"
	PermManageProfiles Permission = "profile.manage"
)

var rolePermissions = map[Role]map[Permission]bool{
	RoleAccountant: {
		PermRecordIncome:  true,
		PermRecordExpense: true,
		PermEditRecord:    true,
		PermDeleteRecord:  true,
		PermManageCatalog: true,
		PermSettlePayroll: true,
		PermCreateQuote:   true,
		PermViewReports:   true,
		PermViewAudit:     true,
	},
	RoleWarehouseClerk: {
		PermRecordIncome:  true,
		PermRecordExpense: true,
		PermManageCatalog: true,
		PermCreateQuote:   true,
	},
}

// HasRole reports whether the actor belongs to role.
func (a Actor) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Can reports whether the actor holds perm.
func (a Actor) Can(perm Permission) bool {
	if a.Superuser || a.HasRole(RoleAdmin) {
		return true
	}
	for _, r := range a.Roles {
		if rolePermissions[r][perm] {
			return true
		}
	}
	return false
}

// Authorize is the single capability check run once per service operation.
func Authorize(actor Actor, perm Permission) error {
	if actor.ID == "" {
		return fmt.Errorf("%w: anonymous actor", ErrForbidden)
	}
	if !actor.Can(perm) {
		return fmt.Errorf("%w: %s", ErrForbidden, perm)
	}
	return nil
}
