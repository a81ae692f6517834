package models

import (
	// Go Internal Packages
	"time"

	// External Packages
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CardTransaction struct {
	ID              uuid.UUID         `json:"id"`
	SenderNumber    string            `json:"sender_number"`
	RecipientNumber string            `json:"recipient_number"`
	Amount          decimal.Decimal   `json:"amount"`
	Status          TransactionStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
