package shift

import "github.com/shopspring/decimal"

// Variance classifies the difference between counted and expected cash
type Variance string

const (
	VarianceSurplus  Variance = "surplus"
	VarianceShortage Variance = "shortage"
	VarianceExact    Variance = "exact"
)

// ExpectedTotal is the cash that should be in the drawer
func ExpectedTotal(startingCash, cashSales decimal.Decimal) decimal.Decimal {
	return startingCash.Add(cashSales)
}

// Difference is positive for a surplus and negative for a shortage
func Difference(actualTotal, expectedTotal decimal.Decimal) decimal.Decimal {
	return actualTotal.Sub(expectedTotal)
}

// Classify buckets diff into surplus, shortage, or exact. Differences within
// tolerance on either side, bounds included, are exact.
func Classify(diff, tolerance decimal.Decimal) Variance {
	switch {
	case diff.GreaterThan(tolerance):
		return VarianceSurplus
	case diff.LessThan(tolerance.Neg()):
		return VarianceShortage
	default:
		return VarianceExact
	}
}
