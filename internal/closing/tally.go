package closing

import (
	"closeout/internal/money"
)

// TallyCash sums a denomination count into the physical cash total:
// Σ denomination × count, rounded to 2 decimals.
//
// TallyCash has no side effects and assumes counts >= 0; rejecting negative
// counts is the form layer's job.
func TallyCash(counts DenominationCount) float64 {
	total := 0
	for _, denom := range denominations {
		total += denom * counts[denom]
	}
	return money.Round(float64(total))
}
