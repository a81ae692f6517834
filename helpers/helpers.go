package helpers

import (
	// External Packages
	"github.com/shopspring/decimal"
)

// HasSufficientFunds reports whether balance plus the unused part of the credit line
// covers amount. A used credit above the limit never counts as negative credit.
func HasSufficientFunds(balance, creditLimit, usedCredit, amount decimal.Decimal) bool {
	availableCredit := decimal.Max(creditLimit.Sub(usedCredit), decimal.Zero)
	return balance.Add(availableCredit).GreaterThanOrEqual(amount)
}
