package mongodb

import (
	// External Packages
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}

// decimals converts several values at once and stops at the first failure.
func decimals(values ...decimal.Decimal) ([]primitive.Decimal128, error) {
	out := make([]primitive.Decimal128, len(values))
	for i, v := range values {
		d, err := toDecimal128(v)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
