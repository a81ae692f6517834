package models

type TransactionStatus string

const (
	StatusPending       TransactionStatus = "Pending"
	StatusAuthorized    TransactionStatus = "Authorized"
	StatusWithdrawn     TransactionStatus = "Funds withdrawn"
	StatusCompleted     TransactionStatus = "Completed"
	StatusFailed        TransactionStatus = "Failed"
	StatusRefundPending TransactionStatus = "Refund pending"
	StatusRefunded      TransactionStatus = "Refunded"
)

// priorStatuses lists, for every reachable status, the statuses it may be entered from.
var priorStatuses = map[TransactionStatus][]TransactionStatus{
	StatusAuthorized:    {StatusPending},
	StatusWithdrawn:     {StatusAuthorized},
	StatusCompleted:     {StatusWithdrawn},
	StatusFailed:        {StatusAuthorized, StatusWithdrawn},
	StatusRefundPending: {StatusAuthorized, StatusWithdrawn},
	StatusRefunded:      {StatusRefundPending},
}

// PriorStatuses returns the statuses from which target may be entered.
func PriorStatuses(target TransactionStatus) []TransactionStatus {
	return priorStatuses[target]
}

func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, prior := range priorStatuses[next] {
		if prior == s {
			return true
		}
	}
	return false
}

func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

func (s TransactionStatus) String() string {
	return string(s)
}
