package models

import (
	// Go Internal Packages
	"time"
)

type Record struct {
	Key       []byte `json:"key"`
	Value     []byte `json:"value"`
	Topic     string `json:"topic"`
	Partition int32  `json:"partition"`
	Offset    int64  `json:"offset"`
}

// FailedRecord is what the dead letter queue keeps for a record no handler could process.
type FailedRecord struct {
	Record   Record    `json:"record"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}
