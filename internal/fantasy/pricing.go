package fantasy

import "math"

const (
	MinPrice  = 1
	MaxPrice  = 20
	FlatPrice = 11
)

// ScalePrices maps each score onto an integer price in [MinPrice, MaxPrice]
// by min-max scaling. When every score is equal each player gets FlatPrice.
// Rounding is half away from zero, so a scaled 10.5 becomes 11.
func ScalePrices[K comparable](scores map[K]float64) map[K]int {
	prices := make(map[K]int, len(scores))
	if len(scores) == 0 {
		return prices
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range scores {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}

	if hi == lo {
		for k := range scores {
			prices[k] = FlatPrice
		}
		return prices
	}

	span := float64(MaxPrice - MinPrice)
	for k, s := range scores {
		prices[k] = int(math.Round(MinPrice + (s-lo)/(hi-lo)*span))
	}
	return prices
}
