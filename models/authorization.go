package models

import (
	// Go Internal Packages
	"time"

	// External Packages
	"github.com/google/uuid"
)

// CardAuthorization is the persisted decision for one card.
type CardAuthorization struct {
	CardNumber string    `json:"card_number"`
	IsActive   bool      `json:"is_active"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AuthorizationLog is written once per authorization decision and never updated.
type AuthorizationLog struct {
	ID           uuid.UUID `json:"id"`
	CardNumber   string    `json:"card_number"`
	IsAuthorized bool      `json:"is_authorized"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}

// Decision is the answer to an AuthorizeTransaction command. Reason is empty on success.
type Decision struct {
	Authorized    bool      `json:"authorized"`
	TransactionID uuid.UUID `json:"transaction_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

func Rejected(reason string) Decision {
	return Decision{Reason: reason}
}
