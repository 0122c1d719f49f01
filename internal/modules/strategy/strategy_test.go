// README: Strategy selector tests (small sets, facet choice, exclusions, soft hints).
package strategy

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/internal/modules/catalog"
	"concierge/internal/modules/facets"
	"concierge/internal/types"
)

func TestSelect_SmallSetsAlwaysShow(t *testing.T) {
	sel := NewSelector(DefaultThresholds)
	engine := facets.NewEngine(3)
	for n := 0; n <= 4; n++ {
		items := make([]catalog.Item, n)
		for i := range items {
			items[i] = catalog.Item{
				ID:    types.ID(fmt.Sprintf("p%d", i)),
				Price: types.Money{Amount: int64(i) * 6000},
				Attributes: map[string]string{"style": fmt.Sprintf("s%d", i)},
			}
		}
		stats := engine.Compute(catalog.RetrievalSet{Items: items}, nil)
		got := sel.Select(stats, n, nil)
		assert.Equal(t, ActionShowResults, got.Action, "n=%d", n)
		assert.Empty(t, got.SuggestedRefinements, "n=%d", n)
	}
}

func TestSelect_PriceScenario(t *testing.T) {
	items := priceSpread(10, 7, 3)
	stats := facets.NewEngine(3).Compute(catalog.RetrievalSet{Items: items}, nil)

	got := NewSelector(DefaultThresholds).Select(stats, len(items), nil)
	want := Strategy{
		Action:       ActionAskClarifier,
		FacetToAsk:   catalog.FacetPrice,
		OptionValues: []string{"under $50", "$50 $100", "$100 $200"},
		OptionLabels: []string{"Under $50", "$50-$100", "$100-$200"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("strategy mismatch (-want +got):\n%s", diff)
	}
}

func TestSelect_AnsweredFacetIsSkipped(t *testing.T) {
	stats := []facets.Stat{
		stat("price_bucket", 3, 0.5, 0.72),
		stat("style", 2, 0.4, 0.30),
		stat("vendor", 2, 0.3, 0.16),
	}
	sel := NewSelector(DefaultThresholds)

	got := sel.Select(stats, 20, map[string]bool{"price bucket": true})
	require.Equal(t, ActionAskClarifier, got.Action)
	assert.Equal(t, "style", got.FacetToAsk)

	got = sel.Select(stats, 20, map[string]bool{"price bucket": true, "style": true})
	assert.Equal(t, ActionShowResults, got.Action)
	assert.Equal(t, []string{"vendor"}, got.SuggestedRefinements)
}

func TestSelect_SoftHintsWhenNothingQualifies(t *testing.T) {
	stats := []facets.Stat{
		stat("tag", 9, 0.8, 0.9),       // too many values to ask
		stat("category", 2, 0.05, 0.2), // impact too low
		stat("vendor", 2, 0.2, 0.17),
		stat("style", 2, 0.2, 0.10), // below soft threshold
	}
	got := NewSelector(DefaultThresholds).Select(stats, 30, nil)
	assert.Equal(t, ActionShowResults, got.Action)
	assert.Equal(t, []string{"tag", "category"}, got.SuggestedRefinements, "at most two hints, by utility")
}

func TestSelect_TiesBrokenByInputOrder(t *testing.T) {
	stats := []facets.Stat{
		stat("style", 2, 0.5, 0.5),
		stat("use_case", 2, 0.5, 0.5),
	}
	got := NewSelector(DefaultThresholds).Select(stats, 10, nil)
	assert.Equal(t, "style", got.FacetToAsk)

	stats[0], stats[1] = stats[1], stats[0]
	got = NewSelector(DefaultThresholds).Select(stats, 10, nil)
	assert.Equal(t, "use_case", got.FacetToAsk)
}

func TestSelect_OptionsCappedAndDeduplicated(t *testing.T) {
	st := stat("style", 5, 0.6, 0.9)
	st.Values = []facets.ValueCount{
		{Value: "City", Count: 5}, {Value: "city", Count: 4}, {Value: "Sport", Count: 3},
		{Value: "Trail", Count: 2}, {Value: "Retro", Count: 2}, {Value: "Kids", Count: 1},
	}
	got := NewSelector(DefaultThresholds).Select([]facets.Stat{st}, 17, nil)
	require.Equal(t, ActionAskClarifier, got.Action)
	assert.Equal(t, []string{"city", "sport", "trail", "retro"}, got.OptionValues)
	assert.Equal(t, []string{"City", "Sport", "Trail", "Retro"}, got.OptionLabels)
}

func TestEnforce(t *testing.T) {
	got, ok := Enforce(Strategy{Action: ActionAskClarifier, FacetToAsk: "style", OptionValues: []string{"City", " city "}})
	assert.False(t, ok)
	assert.Equal(t, ShowResults(), got)

	got, ok = Enforce(Strategy{Action: ActionAskClarifier, OptionValues: []string{"a", "b"}})
	assert.False(t, ok, "a clarifier needs a facet")
	assert.Equal(t, ActionShowResults, got.Action)

	got, ok = Enforce(Strategy{Action: ActionAskClarifier, FacetToAsk: "style", OptionValues: []string{"a", "A", "b"}})
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got.OptionValues)

	got, ok = Enforce(Strategy{
		Action:       ActionAskClarifier,
		FacetToAsk:   "vendor",
		OptionValues: []string{" Acme Co-op ", "acme_co/op", "Orbit"},
		OptionLabels: []string{"", "ignored duplicate", "Orbit Cycles"},
	})
	assert.True(t, ok)
	assert.Equal(t, []string{"acme co op", "orbit"}, got.OptionValues)
	assert.Equal(t, []string{"Acme Co-op", "Orbit Cycles"}, got.OptionLabels)
	assert.Equal(t, "Orbit Cycles", got.Label(1))
	assert.Equal(t, "", got.Label(2))

	show := Strategy{Action: ActionShowResults, SuggestedRefinements: []string{"vendor"}}
	got, ok = Enforce(show)
	assert.True(t, ok)
	assert.Equal(t, show, got)
}

func stat(facet string, cardinality int, impact, utility float64) facets.Stat {
	values := make([]facets.ValueCount, cardinality)
	for i := range values {
		values[i] = facets.ValueCount{Value: fmt.Sprintf("%s-%d", facet, i), Count: cardinality - i}
	}
	return facets.Stat{Facet: facet, Cardinality: cardinality, Impact: impact, Utility: utility, Values: values}
}

func priceSpread(counts ...int) []catalog.Item {
	amounts := []int64{2500, 7500, 15000}
	var items []catalog.Item
	for band, n := range counts {
		for i := 0; i < n; i++ {
			items = append(items, catalog.Item{
				ID:       types.ID(fmt.Sprintf("p_%d_%d", band, i)),
				Price:    types.Money{Amount: amounts[band], Currency: "USD"},
				Category: "bikes",
				Vendor:   "Acme",
			})
		}
	}
	return items
}
