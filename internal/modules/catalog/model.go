// README: Candidate items, retrieval sets and the retrieval port consumed by the decision core.
package catalog

import (
	"context"
	"errors"
	"sort"

	"concierge/internal/types"
)

// Well-known facet names. Any other facet is read from Item.Attributes.
const (
	FacetPrice    = "price_bucket"
	FacetCategory = "category"
	FacetTag      = "tag"
	FacetVendor   = "vendor"
	FacetStyle    = "style"
	FacetUseCase  = "use_case"
)

// ErrRetrieval wraps failures of the retrieval collaborator.
var ErrRetrieval = errors.New("retrieval failed")

// Item is a read-only projection of a catalog entry.
type Item struct {
	ID         types.ID          `json:"id"`
	Title      string            `json:"title"`
	Price      types.Money       `json:"price"`
	Tags       []string          `json:"tags,omitempty"`
	Category   string            `json:"category,omitempty"`
	Vendor     string            `json:"vendor,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Score      float64           `json:"score"`
}

// RetrievalSet is produced fresh per call by the retrieval collaborator and never mutated.
// FacetValues is populated even when Items is empty.
type RetrievalSet struct {
	Items       []Item              `json:"items"`
	FacetValues map[string][]string `json:"facetValues,omitempty"`
}

// Empty reports whether the set holds no items.
func (r RetrievalSet) Empty() bool {
	return len(r.Items) == 0
}

// Filters maps facet name to the single active value for that facet.
type Filters map[string]string

// Clone returns an independent copy; a nil receiver yields an empty map.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Lookup finds the value for facet, comparing facet names canonically.
func (f Filters) Lookup(facet string) (key, value string, ok bool) {
	if v, hit := f[facet]; hit {
		return facet, v, true
	}
	for k, v := range f {
		if types.SameValue(k, facet) {
			return k, v, true
		}
	}
	return "", "", false
}

// Keys returns the facet names in sorted order.
func (f Filters) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Query is one call to the retrieval collaborator.
type Query struct {
	Text      string
	Embedding []float32
	Filters   Filters
	Limit     int
}

// Retriever resolves a query into ranked candidates. Implementations must be idempotent for
// identical filter sets within a turn.
type Retriever interface {
	Search(ctx context.Context, q Query) (RetrievalSet, error)
}
