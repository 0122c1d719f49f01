// README: Pricing helpers: bucket a price into a band and compute discounted prices.
package pricing

import (
	"math"

	"concierge/internal/types"
)

// Bucket returns the label of the band containing m. Negative amounts fall into the first band.
func Bucket(m types.Money) string {
	for _, b := range Bands {
		if b.contains(m.Amount) {
			return b.Label
		}
	}
	return Bands[0].Label
}

// BucketRange resolves a band label (compared canonically) to its range.
func BucketRange(label string) (Band, bool) {
	for _, b := range Bands {
		if types.SameValue(b.Label, label) {
			return b, true
		}
	}
	return Band{}, false
}

// ApplyDiscount takes percent off m, rounding half up to the nearest minor unit.
// Percent is clamped to [0, 100].
func ApplyDiscount(m types.Money, percent float64) types.Money {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	off := math.Floor(float64(m.Amount)*percent/100.0 + 0.5)
	return types.Money{Amount: m.Amount - int64(off), Currency: m.Currency}
}
