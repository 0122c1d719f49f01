// README: Facet statistics engine; a pure function of the retrieval set.
package facets

import (
	"math"
	"sort"

	"concierge/internal/modules/catalog"
	"concierge/internal/types"
)

type Engine struct {
	tagCap int
	priors map[string]float64
}

// NewEngine returns an engine that reads at most tagCap tags per item.
func NewEngine(tagCap int) *Engine {
	priors := make(map[string]float64, len(ClickPriors))
	for k, v := range ClickPriors {
		priors[types.Canonical(k)] = v
	}
	return &Engine{tagCap: tagCap, priors: priors}
}

// Compute returns one Stat per facet, in the order given. Facet names that compare equal under
// types.Canonical are computed once.
func (e *Engine) Compute(set catalog.RetrievalSet, facetNames []string) []Stat {
	if len(facetNames) == 0 {
		facetNames = DefaultFacets
	}
	seen := make(map[string]bool, len(facetNames))
	stats := make([]Stat, 0, len(facetNames))
	for _, f := range facetNames {
		c := types.Canonical(f)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		stats = append(stats, e.stat(set.Items, f))
	}
	return stats
}

func (e *Engine) stat(items []catalog.Item, facet string) Stat {
	index := make(map[string]int)
	var values []ValueCount
	for _, item := range items {
		// an item counts once per distinct value even if it repeats a tag
		perItem := make(map[string]bool)
		for _, v := range catalog.ValuesOf(item, facet, e.tagCap) {
			c := types.Canonical(v)
			if c == "" || perItem[c] {
				continue
			}
			perItem[c] = true
			i, ok := index[c]
			if !ok {
				i = len(values)
				index[c] = i
				values = append(values, ValueCount{Value: v})
			}
			values[i].Count++
		}
	}
	sort.SliceStable(values, func(i, j int) bool {
		return values[i].Count > values[j].Count
	})

	counts := make([]int, len(values))
	valueCounts := make(map[string]int, len(values))
	maxCount := 0
	for i, vc := range values {
		counts[i] = vc.Count
		valueCounts[vc.Value] = vc.Count
		if vc.Count > maxCount {
			maxCount = vc.Count
		}
	}

	st := Stat{
		Facet:       facet,
		Entropy:     Entropy(counts),
		Cardinality: len(values),
		Impact:      Impact(maxCount, len(items)),
		ClickPrior:  e.prior(facet),
		ValueCounts: valueCounts,
		Values:      values,
	}
	st.Utility = st.Entropy * st.Impact * st.ClickPrior
	return st
}

func (e *Engine) prior(facet string) float64 {
	if p, ok := e.priors[types.Canonical(facet)]; ok {
		return p
	}
	return defaultClickPrior
}

// Entropy is the Shannon entropy in bits of a frequency distribution. Zero counts contribute
// nothing and an empty distribution has entropy 0.
func Entropy(counts []int) float64 {
	total := 0
	for _, c := range counts {
		if c > 0 {
			total += c
		}
	}
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, c := range counts {
		if c <= 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

// Impact is 1 - maxCount/total: the share of items the most common value leaves unresolved.
func Impact(maxCount, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 1 - float64(maxCount)/float64(total)
}
