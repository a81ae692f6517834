package models

import (
	// Go Internal Packages
	"time"

	// External Packages
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CardLogType string

const (
	LogInitialBalance CardLogType = "Initial balance"
	LogWithdrawal     CardLogType = "Withdrawal"
	LogDeposit        CardLogType = "Deposit"
	LogRefund         CardLogType = "Refund"
	LogBalanceUpdate  CardLogType = "Balance update"
)

// CardLog is the append-only record of a balance-affecting event.
// Withdrawals carry a negative amount.
type CardLog struct {
	ID            uuid.UUID       `json:"id"`
	CardNumber    string          `json:"card_number"`
	TransactionID *uuid.UUID      `json:"transaction_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Type          CardLogType     `json:"type"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Ledger step names used in operation keys.
const (
	StepWithdraw = "withdraw"
	StepDeposit  = "deposit"
	StepRefund   = "refund"
)

// LedgerOperation is one idempotent mutation of a card. Key identifies the
// operation across redeliveries, e.g. "<transaction id>:withdraw".
type LedgerOperation struct {
	Key           string
	TransactionID uuid.UUID
	CardNumber    string
	Amount        decimal.Decimal
	Fee           decimal.Decimal
	LogType       CardLogType
}

// LedgerOutcome reports what an operation did. Replayed is set when the outcome was
// recorded by an earlier delivery of the same operation. Card is nil when the card
// does not exist.
type LedgerOutcome struct {
	Applied  bool
	Replayed bool
	Reason   string
	Card     *Card
}
