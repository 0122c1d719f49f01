// README: Turn strategy selector: show results or ask about the most useful facet.
package strategy

import (
	"sort"
	"strings"

	"concierge/internal/modules/facets"
	"concierge/internal/types"
)

type Selector struct {
	th Thresholds
}

func NewSelector(th Thresholds) *Selector {
	return &Selector{th: th}
}

// Select decides the turn strategy. answered holds canonical facet names the shopper has
// already answered within their TTL; those facets are never asked or hinted.
func (s *Selector) Select(stats []facets.Stat, itemCount int, answered map[string]bool) Strategy {
	if itemCount <= s.th.MaxItemsWithoutAsking {
		return ShowResults()
	}

	ranked := make([]facets.Stat, len(stats))
	copy(ranked, stats)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Utility > ranked[j].Utility
	})

	for _, st := range ranked {
		if answered[types.Canonical(st.Facet)] || !s.askable(st) {
			continue
		}
		opts := s.options(st)
		out, ok := Enforce(Strategy{
			Action:       ActionAskClarifier,
			FacetToAsk:   st.Facet,
			OptionValues: opts,
			OptionLabels: opts,
		})
		if ok {
			return out
		}
	}

	out := ShowResults()
	for _, st := range ranked {
		if len(out.SuggestedRefinements) >= s.th.MaxRefinements {
			break
		}
		if answered[types.Canonical(st.Facet)] || st.Utility < s.th.SoftUtility {
			continue
		}
		out.SuggestedRefinements = append(out.SuggestedRefinements, st.Facet)
	}
	return out
}

func (s *Selector) askable(st facets.Stat) bool {
	return st.Cardinality >= s.th.MinCardinality &&
		st.Cardinality <= s.th.MaxCardinality &&
		st.Impact >= s.th.MinImpact &&
		st.Utility >= s.th.MinUtility
}

// options takes the most frequent values, deduplicated canonically.
func (s *Selector) options(st facets.Stat) []string {
	seen := make(map[string]bool, len(st.Values))
	out := make([]string, 0, s.th.MaxOptions)
	for _, vc := range st.Values {
		if len(out) >= s.th.MaxOptions {
			break
		}
		c := types.Canonical(vc.Value)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, vc.Value)
	}
	return out
}

// Enforce checks the clarifier invariant and canonicalizes option values. Labels stay paired with
// their values; a missing label falls back to the trimmed raw value. A clarifier without a facet
// or with fewer than two distinct options degrades to show_results; ok is false when that happened.
func Enforce(st Strategy) (Strategy, bool) {
	if !st.Asking() {
		return st, true
	}
	seen := make(map[string]bool, len(st.OptionValues))
	values := make([]string, 0, len(st.OptionValues))
	labels := make([]string, 0, len(st.OptionValues))
	for i, v := range st.OptionValues {
		c := types.Canonical(v)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		label := strings.TrimSpace(v)
		if i < len(st.OptionLabels) && strings.TrimSpace(st.OptionLabels[i]) != "" {
			label = strings.TrimSpace(st.OptionLabels[i])
		}
		values = append(values, c)
		labels = append(labels, label)
	}
	if types.Canonical(st.FacetToAsk) == "" || len(values) < 2 {
		return Strategy{Action: ActionShowResults, SuggestedRefinements: st.SuggestedRefinements}, false
	}
	st.OptionValues = values
	st.OptionLabels = labels
	return st, true
}
