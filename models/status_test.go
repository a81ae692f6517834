package models

import (
	// Go Internal Packages
	"testing"

	// External Packages
	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	allowed := [][2]TransactionStatus{
		{StatusPending, StatusAuthorized},
		{StatusAuthorized, StatusWithdrawn},
		{StatusWithdrawn, StatusCompleted},
		{StatusAuthorized, StatusFailed},
		{StatusWithdrawn, StatusFailed},
		{StatusAuthorized, StatusRefundPending},
		{StatusWithdrawn, StatusRefundPending},
		{StatusRefundPending, StatusRefunded},
	}
	for _, pair := range allowed {
		assert.True(t, pair[0].CanTransitionTo(pair[1]), "%s -> %s", pair[0], pair[1])
	}

	refused := [][2]TransactionStatus{
		{StatusAuthorized, StatusCompleted},
		{StatusCompleted, StatusFailed},
		{StatusFailed, StatusRefundPending},
		{StatusRefunded, StatusRefundPending},
		{StatusWithdrawn, StatusRefunded},
		{StatusWithdrawn, StatusWithdrawn},
	}
	for _, pair := range refused {
		assert.False(t, pair[0].CanTransitionTo(pair[1]), "%s -> %s", pair[0], pair[1])
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []TransactionStatus{StatusCompleted, StatusFailed, StatusRefunded} {
		assert.True(t, s.IsTerminal(), s)
		for _, next := range []TransactionStatus{StatusWithdrawn, StatusCompleted, StatusFailed, StatusRefundPending, StatusRefunded} {
			assert.False(t, s.CanTransitionTo(next), "%s -> %s", s, next)
		}
	}
	assert.False(t, StatusRefundPending.IsTerminal())
	assert.ElementsMatch(t, []TransactionStatus{StatusAuthorized, StatusWithdrawn}, PriorStatuses(StatusFailed))
}
