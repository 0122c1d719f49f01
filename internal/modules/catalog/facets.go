// README: Facet value extraction shared by the statistics engine and the retrieval adapter.
package catalog

import (
	"sort"

	"concierge/internal/modules/pricing"
	"concierge/internal/types"
)

// ValuesOf returns the raw values item carries for facet. Tags are capped to the first tagCap
// entries (tagCap <= 0 means no cap). Empty values are dropped.
func ValuesOf(item Item, facet string, tagCap int) []string {
	switch types.Canonical(facet) {
	case types.Canonical(FacetPrice):
		return []string{pricing.Bucket(item.Price)}
	case FacetCategory:
		return nonEmpty(item.Category)
	case FacetVendor:
		return nonEmpty(item.Vendor)
	case FacetTag:
		tags := item.Tags
		if tagCap > 0 && len(tags) > tagCap {
			tags = tags[:tagCap]
		}
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			if types.Canonical(t) != "" {
				out = append(out, t)
			}
		}
		return out
	default:
		for k, v := range item.Attributes {
			if types.SameValue(k, facet) {
				return nonEmpty(v)
			}
		}
		return nil
	}
}

// CollectFacetValues gathers the distinct values (first-seen label per canonical value) of every
// facet present on items. Facet names are the well-known ones plus every attribute key.
func CollectFacetValues(items []Item, tagCap int) map[string][]string {
	out := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	add := func(facet string, values []string) {
		if seen[facet] == nil {
			seen[facet] = make(map[string]bool)
		}
		for _, v := range values {
			c := types.Canonical(v)
			if c == "" || seen[facet][c] {
				continue
			}
			seen[facet][c] = true
			out[facet] = append(out[facet], v)
		}
	}
	for _, item := range items {
		for _, facet := range []string{FacetPrice, FacetCategory, FacetVendor, FacetTag} {
			add(facet, ValuesOf(item, facet, tagCap))
		}
		keys := make([]string, 0, len(item.Attributes))
		for k := range item.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			add(k, nonEmpty(item.Attributes[k]))
		}
	}
	return out
}

func nonEmpty(v string) []string {
	if types.Canonical(v) == "" {
		return nil
	}
	return []string{v}
}
