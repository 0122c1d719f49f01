// README: Flow sequencer tests (rule order, query classification).
package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"concierge/internal/modules/strategy"
)

func TestSequence(t *testing.T) {
	ask := strategy.Strategy{Action: strategy.ActionAskClarifier, FacetToAsk: "style", OptionValues: []string{"city", "trail"}}
	show := strategy.ShowResults()

	cases := []struct {
		name    string
		results int
		query   string
		st      strategy.Strategy
		turn    int
		want    Order
	}{
		{"zero results", 0, "looking for a bike", show, 0, AskThenShow},
		{"zero results specific", 0, "fx-300 hybrid", ask, 3, AskThenShow},
		{"small set with clarifier", 3, "looking for a bike", ask, 0, ShowThenAsk},
		{"small set without clarifier", 4, "looking for a bike", show, 0, ShowOnly},
		{"specific sku", 20, "trek fx-300 hybrid", ask, 0, ShowThenAsk},
		{"specific without clarifier", 20, "running shoes size 42", show, 0, ShowThenAsk},
		{"open first turn", 10, "I'm looking for a bike", ask, 0, AskThenShow},
		{"open first turn with a count phrase", 10, "looking for a 3 in 1 charger", ask, 0, AskThenShow},
		{"open first turn needs more than eight", 8, "I'm looking for a bike", ask, 0, ShowThenAsk},
		{"open later turn under twelve", 10, "can you recommend a bike", ask, 2, ShowThenAsk},
		{"open later turn over twelve", 13, "can you recommend a bike", ask, 2, AskThenShow},
		{"open without clarifier", 30, "I'm looking for a bike", show, 0, ShowOnly},
		{"plain query with clarifier", 30, "bikes", ask, 0, ShowThenAsk},
		{"plain query without clarifier", 30, "bikes", show, 1, ShowOnly},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sequence(tc.results, tc.query, tc.st, tc.turn))
		})
	}
}

func TestIsSpecific(t *testing.T) {
	cases := map[string]bool{
		"running shoes size 42":  true,
		"jacket size xl":         true,
		"29 inch wheels":         true,
		"10l daypack":            true,
		"27in monitor":           true,
		"500g coffee beans":      true,
		"3 in 1 charger":         false,
		"model X200":             true,
		"sku 88123":              true,
		"I'll take this one":     true,
		"black leather jacket":   true,
		"jacket under $100":      false,
		"black jacket":           false,
		"I'm looking for a bike": false,
		"gift ideas":             false,
		"":                       false,
	}
	for q, want := range cases {
		assert.Equal(t, want, IsSpecific(q), "query %q", q)
	}
}

func TestIsOpenEnded(t *testing.T) {
	assert.True(t, IsOpenEnded("I'm looking for a tent"))
	assert.True(t, IsOpenEnded("Can you RECOMMEND something"))
	assert.True(t, IsOpenEnded("help me choose a backpack"))
	assert.True(t, IsOpenEnded("any good ideas for a gift?"))
	assert.False(t, IsOpenEnded("red jacket"))
	assert.False(t, IsOpenEnded(""))
}
