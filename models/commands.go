package models

import (
	// Local Packages
	errors "cardflow/errors"

	// External Packages
	"github.com/shopspring/decimal"
)

const CardNumberLength = 15

type AuthorizeTransactionCommand struct {
	SenderNumber    string          `json:"sender_number"`
	RecipientNumber string          `json:"recipient_number"`
	Amount          decimal.Decimal `json:"amount"`
}

func (c AuthorizeTransactionCommand) Validate() error {
	ve := errors.ValidationErrs()
	validateCardNumber(ve, "sender_number", c.SenderNumber)
	validateCardNumber(ve, "recipient_number", c.RecipientNumber)
	if !c.Amount.IsPositive() {
		ve.Add("amount", "must be positive")
	}
	return ve.Err()
}

// ValidateCardNumber reports a card number that is not CardNumberLength digits.
func ValidateCardNumber(cardNumber string) error {
	ve := errors.ValidationErrs()
	validateCardNumber(ve, "card_number", cardNumber)
	return ve.Err()
}

type CreateCardCommand struct {
	CardNumber     string           `json:"card_number"`
	InitialBalance decimal.Decimal  `json:"initial_balance"`
	CreditLimit    *decimal.Decimal `json:"credit_limit,omitempty"`
}

func (c CreateCardCommand) Validate() error {
	ve := errors.ValidationErrs()
	validateCardNumber(ve, "card_number", c.CardNumber)
	if c.InitialBalance.IsNegative() {
		ve.Add("initial_balance", "cannot be negative")
	}
	if c.CreditLimit != nil && c.CreditLimit.IsNegative() {
		ve.Add("credit_limit", "cannot be negative")
	}
	return ve.Err()
}

// UpdateCardCommand changes the balance, the credit limit, or both. Nil fields are
// left as they are.
type UpdateCardCommand struct {
	CardNumber  string           `json:"card_number"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
}

func (c UpdateCardCommand) Validate() error {
	ve := errors.ValidationErrs()
	validateCardNumber(ve, "card_number", c.CardNumber)
	if c.Balance != nil && c.Balance.IsNegative() {
		ve.Add("balance", "cannot be negative")
	}
	if c.CreditLimit != nil && c.CreditLimit.IsNegative() {
		ve.Add("credit_limit", "cannot be negative")
	}
	return ve.Err()
}

func validateCardNumber(ve *errors.ValidationErrors, field, number string) {
	if number == "" {
		ve.Add(field, "cannot be empty")
		return
	}
	if len(number) != CardNumberLength {
		ve.Add(field, "must have 15 digits")
		return
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			ve.Add(field, "must contain digits only")
			return
		}
	}
}
