// README: Relaxation steps and their undo options.
package relaxation

import "concierge/internal/modules/catalog"

// DefaultPriority relaxes the cheapest constraint first.
var DefaultPriority = []string{
	catalog.FacetPrice,
	catalog.FacetStyle,
	catalog.FacetUseCase,
	catalog.FacetVendor,
}

// UndoOption puts a dropped filter back.
type UndoOption struct {
	Facet string `json:"facet"`
	Value string `json:"value"`
	Label string `json:"label"`
}

// Step records one dropped filter. Steps are append-only within a single relaxation run.
type Step struct {
	Facet         string      `json:"facet"`
	PreviousValue string      `json:"previousValue"`
	Note          string      `json:"note"`
	Undo          *UndoOption `json:"undo,omitempty"`
	// Recovered is true on the step whose retrieval came back non-empty.
	Recovered bool `json:"recovered"`
}

// Result is the outcome of one run. Filters is always a subset of the input filters.
type Result struct {
	Set     catalog.RetrievalSet `json:"-"`
	Filters catalog.Filters      `json:"filters"`
	Steps   []Step               `json:"steps"`
}
