// README: Turn strategy decision record and selection thresholds.
package strategy

type Action string

const (
	ActionShowResults  Action = "show_results"
	ActionAskClarifier Action = "ask_clarifier"
)

// Strategy is the immutable per-turn decision. An ask_clarifier strategy always carries at
// least two distinct option values in canonical form; see Enforce. OptionLabels runs parallel to
// OptionValues and keeps the first-seen catalog spelling for display.
type Strategy struct {
	Action               Action   `json:"action"`
	FacetToAsk           string   `json:"facetToAsk,omitempty"`
	OptionValues         []string `json:"optionValues,omitempty"`
	OptionLabels         []string `json:"optionLabels,omitempty"`
	SuggestedRefinements []string `json:"suggestedRefinements,omitempty"`
}

// Label returns the display label for option i, falling back to the value.
func (s Strategy) Label(i int) string {
	if i < len(s.OptionLabels) && s.OptionLabels[i] != "" {
		return s.OptionLabels[i]
	}
	if i < len(s.OptionValues) {
		return s.OptionValues[i]
	}
	return ""
}

// Asking reports whether the strategy is a clarifier.
func (s Strategy) Asking() bool {
	return s.Action == ActionAskClarifier
}

// ShowResults is the most conservative decision.
func ShowResults() Strategy {
	return Strategy{Action: ActionShowResults}
}

type Thresholds struct {
	// MaxItemsWithoutAsking: result sets this small are always shown, never narrowed.
	MaxItemsWithoutAsking int
	MinCardinality        int
	MaxCardinality        int
	MinImpact             float64
	MinUtility            float64
	SoftUtility           float64
	MaxOptions            int
	MaxRefinements        int
}

var DefaultThresholds = Thresholds{
	MaxItemsWithoutAsking: 4,
	MinCardinality:        2,
	MaxCardinality:        5,
	MinImpact:             0.10,
	MinUtility:            0.25,
	SoftUtility:           0.15,
	MaxOptions:            4,
	MaxRefinements:        2,
}
