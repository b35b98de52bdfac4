package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the flat rate applied to positive operating profit.
var DefaultTaxRate = decimal.RequireFromString("0.19")

// BalanceStatus labels the sign of the net result.
type BalanceStatus string

const (
	StatusProfit BalanceStatus = "Profit"
	StatusLoss   BalanceStatus = "Loss"
)

// BalanceReport is a profit/loss statement over active ledger records.
type BalanceReport struct {
	AsOf            time.Time
	TotalIncome     decimal.Decimal
	TotalExpense    decimal.Decimal
	OperatingProfit decimal.Decimal
	TaxRate         decimal.Decimal
	TaxEstimate     decimal.Decimal
	NetProfit       decimal.Decimal
	Status          BalanceStatus
}

// ComputeBalance derives the statement from the two totals.
// Losses are not tax-credited.
func ComputeBalance(asOf time.Time, totalIncome, totalExpense, taxRate decimal.Decimal) BalanceReport {
	operating := totalIncome.Sub(totalExpense)

	tax := decimal.Zero
	if operating.IsPositive() {
		tax = operating.Mul(taxRate)
	}

	net := operating.Sub(tax)

	status := StatusProfit
	if net.IsNegative() {
		status = StatusLoss
	}

	return BalanceReport{
		AsOf:            asOf,
		TotalIncome:     totalIncome,
		TotalExpense:    totalExpense,
		OperatingProfit: operating,
		TaxRate:         taxRate,
		TaxEstimate:     tax,
		NetProfit:       net,
		Status:          status,
	}
}
