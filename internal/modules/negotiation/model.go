// README: Negotiation stages, per-product rules and persisted bargaining state.
package negotiation

import (
	"errors"

	"concierge/internal/types"
)

type Stage string

const (
	StageAnchor    Stage = "anchor"
	StageSweetener Stage = "sweetener"
	StageDiscount  Stage = "discount"
)

// AllowedTransitions is the stage flow as code. Discount loops on itself while steps remain.
var AllowedTransitions = map[Stage][]Stage{
	StageAnchor:    {StageSweetener, StageDiscount},
	StageSweetener: {StageDiscount},
	StageDiscount:  {StageDiscount},
}

func CanTransition(from, to Stage) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ErrRuleLookup wraps failures of the rule collaborator.
var ErrRuleLookup = errors.New("negotiation rule lookup failed")

// Rule is per-store, per-product configuration. Read-only to the core.
type Rule struct {
	StoreID       string    `json:"storeId"`
	ProductID     types.ID  `json:"productId"`
	AnchorCopy    string    `json:"anchorCopy"`
	SweetenerCopy string    `json:"sweetenerCopy,omitempty"`
	DiscountSteps []float64 `json:"discountSteps"`
	RiskCopy      string    `json:"riskCopy,omitempty"`
}

// State is persisted per session. ConcessionIndex counts discount steps already granted and
// never exceeds len(Rule.DiscountSteps).
type State struct {
	ProductID       types.ID `json:"productId"`
	Stage           Stage    `json:"stage"`
	ConcessionIndex int      `json:"concessionIndex"`
}

// Terminal reports whether no further concessions are possible under rule.
func (s State) Terminal(rule Rule) bool {
	return s.Stage == StageDiscount && s.ConcessionIndex >= len(rule.DiscountSteps)
}

// Outcome is what one objection produced for the rendering step.
type Outcome struct {
	ProductID       types.ID     `json:"productId"`
	Stage           Stage        `json:"stage"`
	StepIndex       int          `json:"stepIndex"`
	Copy            string       `json:"copy"`
	DiscountPercent float64      `json:"discountPercent,omitempty"`
	OriginalPrice   *types.Money `json:"originalPrice,omitempty"`
	DiscountedPrice *types.Money `json:"discountedPrice,omitempty"`
	AssuranceCopy   string       `json:"assuranceCopy,omitempty"`
}
