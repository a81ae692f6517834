package utils

import (
	// Go Internal Packages
	"fmt"
	"strings"
)

// MaskCardNumber keeps the first six and last four digits for log output.
func MaskCardNumber(number string) string {
	if len(number) <= 10 {
		return strings.Repeat("*", len(number))
	}
	return number[:6] + strings.Repeat("*", len(number)-10) + number[len(number)-4:]
}

func CardDataKey(cardNumber string) string {
	return fmt.Sprintf("card:%s:data", cardNumber)
}

func CardStatusKey(cardNumber string) string {
	return fmt.Sprintf("card:%s:status", cardNumber)
}

func CardFraudKey(cardNumber string) string {
	return fmt.Sprintf("card:%s:fraud", cardNumber)
}

func CardLockKey(cardNumber string) string {
	return fmt.Sprintf("card:%s:lock", cardNumber)
}

func FeeKey() string {
	return "fee"
}

// OperationKey names one ledger step of one transaction, e.g. "<id>:withdraw".
func OperationKey(transactionID fmt.Stringer, step string) string {
	return transactionID.String() + ":" + step
}
