// README: Price band definitions used for the price_bucket facet and price filters.
package pricing

// Band is a half-open price range [Min, Max) in minor units. Max <= 0 means unbounded.
type Band struct {
	Label string
	Min   int64
	Max   int64
}

// Bands are the fixed price buckets, cheapest first.
var Bands = []Band{
	{Label: "Under $50", Min: 0, Max: 5000},
	{Label: "$50-$100", Min: 5000, Max: 10000},
	{Label: "$100-$200", Min: 10000, Max: 20000},
	{Label: "$200+", Min: 20000, Max: 0},
}

func (b Band) contains(amount int64) bool {
	if amount < b.Min {
		return false
	}
	return b.Max <= 0 || amount < b.Max
}
