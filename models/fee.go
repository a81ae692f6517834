package models

import (
	// Go Internal Packages
	"time"

	// External Packages
	"github.com/shopspring/decimal"
)

// Fee is one entry of the fee history. The latest entry is the active transfer fee.
type Fee struct {
	Value     decimal.Decimal `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
}
