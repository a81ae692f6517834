package models

import (
	// Go Internal Packages
	"time"

	// Local Packages
	helpers "cardflow/helpers"

	// External Packages
	"github.com/shopspring/decimal"
)

// Card is the ledger record of one card account. A card without a credit line has
// CreditLimit and UsedCredit set to zero.
type Card struct {
	CardNumber  string          `json:"card_number"`
	Balance     decimal.Decimal `json:"balance"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	UsedCredit  decimal.Decimal `json:"used_credit"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (c *Card) AvailableCredit() decimal.Decimal {
	return decimal.Max(c.CreditLimit.Sub(c.UsedCredit), decimal.Zero)
}

func (c *Card) HasSufficientFunds(amount decimal.Decimal) bool {
	return helpers.HasSufficientFunds(c.Balance, c.CreditLimit, c.UsedCredit, amount)
}

// Withdraw debits amount from the balance and charges whatever the balance cannot
// cover against the credit line. It returns false and leaves the card untouched when
// amount is not positive or the funds are insufficient.
func (c *Card) Withdraw(amount decimal.Decimal) bool {
	if !amount.IsPositive() || !c.HasSufficientFunds(amount) {
		return false
	}

	if c.Balance.GreaterThanOrEqual(amount) {
		c.Balance = c.Balance.Sub(amount)
		return true
	}

	spillover := amount.Sub(c.Balance)
	c.Balance = decimal.Zero
	c.UsedCredit = c.UsedCredit.Add(spillover)
	return true
}

// Deposit credits amount minus fee. Used credit is repaid first and the rest lands on
// the balance. A net amount that is zero or negative leaves the card unchanged.
func (c *Card) Deposit(amount, fee decimal.Decimal) {
	net := amount.Sub(fee)
	if !net.IsPositive() {
		return
	}

	if c.UsedCredit.IsPositive() {
		repay := decimal.Min(net, c.UsedCredit)
		c.UsedCredit = c.UsedCredit.Sub(repay)
		net = net.Sub(repay)
	}
	c.Balance = c.Balance.Add(net)
}

// CardView is what the card commands return to callers.
type CardView struct {
	CardNumber      string          `json:"card_number"`
	Balance         decimal.Decimal `json:"balance"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	UsedCredit      decimal.Decimal `json:"used_credit"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
}

func (c *Card) View() CardView {
	return CardView{
		CardNumber:      c.CardNumber,
		Balance:         c.Balance,
		CreditLimit:     c.CreditLimit,
		UsedCredit:      c.UsedCredit,
		AvailableCredit: c.AvailableCredit(),
	}
}

// Snapshot is the cached projection used by admission checks.
func (c *Card) Snapshot() CachedCardData {
	return CachedCardData{
		CardNumber:  c.CardNumber,
		Balance:     c.Balance,
		CreditLimit: c.CreditLimit,
		UsedCredit:  c.UsedCredit,
	}
}
