package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// Money columns are NUMERIC(12,2) and counts are INTEGER.
const (
	amountScale = 2
	maxCount    = math.MaxInt32
)

var maxAmount = decimal.New(1, 12-amountScale)

// validateAmount rejects values the database would round or refuse.
func validateAmount(field string, d decimal.Decimal) error {
	if !d.Equal(d.Truncate(amountScale)) {
		return invalidInput(field + " must have at most 2 decimal places")
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return invalidInput(field + " is too large")
	}
	return nil
}
