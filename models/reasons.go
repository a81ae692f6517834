package models

// Reasons carried by authorization logs, rejected decisions and TransactionFailed.
const (
	ReasonInsufficientFunds    = "Insufficient funds"
	ReasonInvalidRecipient     = "Invalid recipient card"
	ReasonFeeNotFound          = "Fee not found"
	ReasonServerError          = "Server error"
	ReasonCardNotFound         = "Card not found"
	ReasonAuthorized           = "Authorized"
	ReasonAuthorizationFailed  = "Authorization failed"
	ReasonCardLocked           = "Card locked"
	ReasonInvalidAmount        = "Invalid amount"
	ReasonInactiveCard         = "Inactive card"
	ReasonDuplicateTransaction = "Duplicate transaction"
)
