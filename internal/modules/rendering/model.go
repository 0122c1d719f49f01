// README: Rendered turn shapes produced by the generation collaborator, as wire form and sum type.
package rendering

import (
	"errors"
	"fmt"
	"strings"
)

type Stage string

const (
	StageClarify Stage = "clarify"
	StageRefine  Stage = "refine"
	StageFinal   Stage = "final"
)

type Recommendation struct {
	ProductID string `json:"productId"`
	Title     string `json:"title,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type Clarifier struct {
	Facet    string   `json:"facet,omitempty"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// RenderedTurn is the wire form. Use Accept to turn it into a validated Turn.
type RenderedTurn struct {
	Stage           Stage            `json:"stage"`
	Lead            string           `json:"lead"`
	Recommendations []Recommendation `json:"recommendations"`
	Clarifier       *Clarifier       `json:"clarifier"`
}

// Turn is a validated rendered turn; exactly one of ClarifyTurn, RefineTurn, FinalTurn.
type Turn interface {
	Stage() Stage
	Rendered() RenderedTurn
	isTurn()
}

// ClarifyTurn asks a question and shows nothing.
type ClarifyTurn struct {
	Lead      string
	Clarifier Clarifier
}

// RefineTurn shows results and asks a narrowing question.
type RefineTurn struct {
	Lead            string
	Recommendations []Recommendation
	Clarifier       Clarifier
}

// FinalTurn shows results without a question. Recommendations may be empty when nothing matched.
type FinalTurn struct {
	Lead            string
	Recommendations []Recommendation
}

func (ClarifyTurn) Stage() Stage { return StageClarify }
func (RefineTurn) Stage() Stage  { return StageRefine }
func (FinalTurn) Stage() Stage   { return StageFinal }

func (ClarifyTurn) isTurn() {}
func (RefineTurn) isTurn()  {}
func (FinalTurn) isTurn()   {}

func (t ClarifyTurn) Rendered() RenderedTurn {
	c := t.Clarifier
	return RenderedTurn{Stage: StageClarify, Lead: t.Lead, Recommendations: []Recommendation{}, Clarifier: &c}
}

func (t RefineTurn) Rendered() RenderedTurn {
	c := t.Clarifier
	return RenderedTurn{Stage: StageRefine, Lead: t.Lead, Recommendations: t.Recommendations, Clarifier: &c}
}

func (t FinalTurn) Rendered() RenderedTurn {
	recs := t.Recommendations
	if recs == nil {
		recs = []Recommendation{}
	}
	return RenderedTurn{Stage: StageFinal, Lead: t.Lead, Recommendations: recs}
}

// ErrUnrepairable is the give-up variant: the output could not be fixed with one repair.
var ErrUnrepairable = errors.New("rendered turn unrepairable")

// Violation is one broken stage invariant.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (v Violation) String() string { return v.Field + ": " + v.Reason }

// RepairError carries the violations left after the repair attempt.
type RepairError struct {
	Stage      Stage
	Violations []Violation
}

func (e *RepairError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s (stage %q): %s", ErrUnrepairable, e.Stage, strings.Join(parts, "; "))
}

func (e *RepairError) Unwrap() error { return ErrUnrepairable }
