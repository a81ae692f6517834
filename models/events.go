package models

import (
	// External Packages
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Every event is published on the topic named after its type.
const (
	TopicCardUpdated           = "CardUpdated"
	TopicFeeUpdated            = "FeeUpdated"
	TopicTransactionAuthorized = "TransactionAuthorized"
	TopicWithdrawFunds         = "WithdrawFunds"
	TopicFundsWithdrawn        = "FundsWithdrawn"
	TopicDepositFunds          = "DepositFunds"
	TopicTransactionCompleted  = "TransactionCompleted"
	TopicTransactionFailed     = "TransactionFailed"
	TopicRefundRequested       = "RefundRequested"
	TopicTransactionRefunded   = "TransactionRefunded"
)

// Event is a message published on the bus. Key picks the partition, so all events of
// one transaction share a key.
type Event interface {
	Topic() string
	Key() string
}

type CardUpdated struct {
	CardNumber  string           `json:"card_number"`
	Balance     decimal.Decimal  `json:"balance"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
	UsedCredit  *decimal.Decimal `json:"used_credit,omitempty"`
}

func (e CardUpdated) Topic() string { return TopicCardUpdated }
func (e CardUpdated) Key() string   { return e.CardNumber }

// CardUpdatedFrom builds the event for the current state of c.
func CardUpdatedFrom(c *Card) CardUpdated {
	limit, used := c.CreditLimit, c.UsedCredit
	return CardUpdated{CardNumber: c.CardNumber, Balance: c.Balance, CreditLimit: &limit, UsedCredit: &used}
}

type FeeUpdated struct {
	Value decimal.Decimal `json:"value"`
}

func (e FeeUpdated) Topic() string { return TopicFeeUpdated }
func (e FeeUpdated) Key() string   { return "fee" }

type TransactionAuthorized struct {
	TransactionID   uuid.UUID       `json:"transaction_id"`
	CardNumber      string          `json:"card_number"`
	RecipientNumber string          `json:"recipient_number"`
	Amount          decimal.Decimal `json:"amount"`
}

func (e TransactionAuthorized) Topic() string { return TopicTransactionAuthorized }
func (e TransactionAuthorized) Key() string   { return e.TransactionID.String() }

type WithdrawFunds struct {
	TransactionID   uuid.UUID       `json:"transaction_id"`
	CardNumber      string          `json:"card_number"`
	RecipientNumber string          `json:"recipient_number"`
	Amount          decimal.Decimal `json:"amount"`
}

func (e WithdrawFunds) Topic() string { return TopicWithdrawFunds }
func (e WithdrawFunds) Key() string   { return e.TransactionID.String() }

type FundsWithdrawn struct {
	TransactionID   uuid.UUID       `json:"transaction_id"`
	CardNumber      string          `json:"card_number"`
	RecipientNumber string          `json:"recipient_number"`
	Amount          decimal.Decimal `json:"amount"`
}

func (e FundsWithdrawn) Topic() string { return TopicFundsWithdrawn }
func (e FundsWithdrawn) Key() string   { return e.TransactionID.String() }

// DepositFunds credits the recipient in CardNumber. SenderNumber is the refund target.
type DepositFunds struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	CardNumber    string          `json:"card_number"`
	SenderNumber  string          `json:"sender_number"`
	Amount        decimal.Decimal `json:"amount"`
}

func (e DepositFunds) Topic() string { return TopicDepositFunds }
func (e DepositFunds) Key() string   { return e.TransactionID.String() }

type TransactionCompleted struct {
	TransactionID uuid.UUID `json:"transaction_id"`
}

func (e TransactionCompleted) Topic() string { return TopicTransactionCompleted }
func (e TransactionCompleted) Key() string   { return e.TransactionID.String() }

// TransactionFailed carries the sender card so its lock can be released. When
// NeedRefund is set, Amount is returned to CardNumber.
type TransactionFailed struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	Reason        string          `json:"reason"`
	NeedRefund    bool            `json:"need_refund"`
	CardNumber    string          `json:"card_number,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
}

func (e TransactionFailed) Topic() string { return TopicTransactionFailed }
func (e TransactionFailed) Key() string   { return e.TransactionID.String() }

type RefundRequested struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	CardNumber    string          `json:"card_number"`
	Amount        decimal.Decimal `json:"amount"`
}

func (e RefundRequested) Topic() string { return TopicRefundRequested }
func (e RefundRequested) Key() string   { return e.TransactionID.String() }

type TransactionRefunded struct {
	TransactionID uuid.UUID `json:"transaction_id"`
}

func (e TransactionRefunded) Topic() string { return TopicTransactionRefunded }
func (e TransactionRefunded) Key() string   { return e.TransactionID.String() }
