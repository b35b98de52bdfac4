package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultReportCacheTTL is how long a cached balance report is kept
	DefaultReportCacheTTL = 5 * time.Minute

	// ledgerBumpRetries and ledgerBumpInterval bound the retries of a failed ledger version bump.
	ledgerBumpRetries  = 2
	ledgerBumpInterval = 25 * time.Millisecond
)

// Operation names used for metrics labels and log fields.
const (
	opRecordIncome  = "record_income"
	opRecordExpense = "record_expense"
	opSoftDelete    = "soft_delete"
	opEdit          = "edit"
	opSettlePayroll = "settle_payroll"
	opRecordAudit   = "record_audit"
	opBalance       = "balance"
	opQuote         = "quote"
	opCreateItem    = "create_catalog_item"
	opAdjustStock   = "adjust_stock"
	opDeleteItem    = "delete_catalog_item"
	opProvision     = "provision_profile"
)
