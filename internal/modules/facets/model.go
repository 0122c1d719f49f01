// README: Per-turn facet statistics (entropy, impact, utility).
package facets

import "concierge/internal/modules/catalog"

// ValueCount is one bucket of a facet's value distribution.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Stat is derived per turn and never cached.
type Stat struct {
	Facet       string         `json:"facet"`
	Entropy     float64        `json:"entropy"`
	Cardinality int            `json:"cardinality"`
	Impact      float64        `json:"impact"`
	ClickPrior  float64        `json:"clickPrior"`
	Utility     float64        `json:"utility"`
	ValueCounts map[string]int `json:"valueCounts"`
	// Values holds the same distribution sorted by count desc, ties in first-seen order.
	Values []ValueCount `json:"values"`
}

// DefaultFacets is used when the caller does not name the facets active in the UI.
var DefaultFacets = []string{
	catalog.FacetPrice,
	catalog.FacetCategory,
	catalog.FacetStyle,
	catalog.FacetUseCase,
	catalog.FacetTag,
	catalog.FacetVendor,
}

// ClickPriors is the static belief of how useful each facet is to shoppers.
var ClickPriors = map[string]float64{
	catalog.FacetPrice:    1.0,
	catalog.FacetCategory: 0.8,
	catalog.FacetStyle:    0.7,
	catalog.FacetUseCase:  0.6,
	catalog.FacetTag:      0.5,
	catalog.FacetVendor:   0.4,
}

const defaultClickPrior = 0.3
