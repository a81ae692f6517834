package models

import (
	// External Packages
	"github.com/shopspring/decimal"
)

type CachedCardStatus struct {
	CardNumber string `json:"card_number"`
	IsActive   bool   `json:"is_active"`
}

type CachedCardData struct {
	CardNumber  string          `json:"card_number"`
	Balance     decimal.Decimal `json:"balance"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	UsedCredit  decimal.Decimal `json:"used_credit"`
}

func (c CachedCardData) HasSufficientFunds(amount decimal.Decimal) bool {
	card := Card{Balance: c.Balance, CreditLimit: c.CreditLimit, UsedCredit: c.UsedCredit}
	return card.HasSufficientFunds(amount)
}

// CachedFraudEntry is one member of a sender's fraud sorted set. Timestamp is in
// unix seconds and doubles as the member score.
type CachedFraudEntry struct {
	Timestamp       int64           `json:"timestamp"`
	Amount          decimal.Decimal `json:"amount"`
	RecipientNumber string          `json:"recipient_number"`
}

func (e CachedFraudEntry) Matches(recipientNumber string, amount decimal.Decimal) bool {
	return e.RecipientNumber == recipientNumber && e.Amount.Equal(amount)
}
