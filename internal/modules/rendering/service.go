// README: Stage validation and single-pass repair of rendered turns.
package rendering

import (
	"strings"

	"concierge/internal/types"
)

// Validate checks the stage invariants: clarify has no recommendations and a clarifier; refine
// has recommendations and a clarifier; final has no clarifier.
func Validate(t RenderedTurn) []Violation {
	var out []Violation
	if strings.TrimSpace(t.Lead) == "" {
		out = append(out, Violation{Field: "lead", Reason: "empty"})
	}
	if t.Clarifier != nil {
		if strings.TrimSpace(t.Clarifier.Question) == "" {
			out = append(out, Violation{Field: "clarifier.question", Reason: "empty"})
		}
		if distinct(t.Clarifier.Options) < 2 {
			out = append(out, Violation{Field: "clarifier.options", Reason: "fewer than two distinct options"})
		}
	}
	hasRecs := len(t.Recommendations) > 0
	hasClar := t.Clarifier != nil

	switch t.Stage {
	case StageClarify:
		if hasRecs {
			out = append(out, Violation{Field: "recommendations", Reason: "clarify carries no recommendations"})
		}
		if !hasClar {
			out = append(out, Violation{Field: "clarifier", Reason: "clarify requires a clarifier"})
		}
	case StageRefine:
		if !hasRecs {
			out = append(out, Violation{Field: "recommendations", Reason: "refine requires recommendations"})
		}
		if !hasClar {
			out = append(out, Violation{Field: "clarifier", Reason: "refine requires a clarifier"})
		}
	case StageFinal:
		if hasClar {
			out = append(out, Violation{Field: "clarifier", Reason: "final carries no clarifier"})
		}
	default:
		out = append(out, Violation{Field: "stage", Reason: "unknown stage " + string(t.Stage)})
	}
	return out
}

// Repair applies the minimal fix: an invalid or disallowed clarifier is stripped, then the stage
// is relabelled to match what the turn actually carries. It never invents content.
func Repair(t RenderedTurn, allowClarifier bool) (RenderedTurn, []string) {
	var notes []string
	if t.Clarifier != nil {
		bad := !allowClarifier ||
			strings.TrimSpace(t.Clarifier.Question) == "" ||
			distinct(t.Clarifier.Options) < 2
		if bad {
			t.Clarifier = nil
			notes = append(notes, "stripped clarifier")
		} else {
			c := *t.Clarifier
			c.Options = dedupe(c.Options)
			t.Clarifier = &c
		}
	}

	want := stageFor(t)
	if t.Stage != want {
		notes = append(notes, "stage "+string(t.Stage)+" -> "+string(want))
		t.Stage = want
	}
	t.Lead = strings.TrimSpace(t.Lead)
	return t, notes
}

func stageFor(t RenderedTurn) Stage {
	hasRecs := len(t.Recommendations) > 0
	switch {
	case t.Clarifier != nil && hasRecs:
		return StageRefine
	case t.Clarifier != nil:
		return StageClarify
	default:
		return StageFinal
	}
}

// Accept validates t and, on any violation (or a clarifier the turn-intent did not ask for),
// repairs once and re-validates. A second failure is a *RepairError.
func Accept(t RenderedTurn, allowClarifier bool) (Turn, []string, error) {
	violations := Validate(t)
	if len(violations) == 0 && (allowClarifier || t.Clarifier == nil) {
		return toTurn(t), nil, nil
	}
	fixed, notes := Repair(t, allowClarifier)
	if left := Validate(fixed); len(left) > 0 {
		return nil, notes, &RepairError{Stage: t.Stage, Violations: left}
	}
	return toTurn(fixed), notes, nil
}

// Decode parses raw generation output and accepts it with at most one repair. When the schema
// check already dropped a malformed clarifier, that drop is the repair: the stage is relabelled
// to match the remaining shape and the turn is validated without another pass.
func Decode(raw []byte, allowClarifier bool) (Turn, []string, error) {
	t, dropped, err := Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	if !dropped {
		return Accept(t, allowClarifier)
	}

	notes := []string{"dropped malformed clarifier"}
	if want := stageFor(t); t.Stage != want {
		notes = append(notes, "stage "+string(t.Stage)+" -> "+string(want))
		t.Stage = want
	}
	t.Lead = strings.TrimSpace(t.Lead)
	if left := Validate(t); len(left) > 0 {
		return nil, notes, &RepairError{Stage: t.Stage, Violations: left}
	}
	return toTurn(t), notes, nil
}

func toTurn(t RenderedTurn) Turn {
	switch t.Stage {
	case StageClarify:
		return ClarifyTurn{Lead: t.Lead, Clarifier: *t.Clarifier}
	case StageRefine:
		return RefineTurn{Lead: t.Lead, Recommendations: t.Recommendations, Clarifier: *t.Clarifier}
	default:
		return FinalTurn{Lead: t.Lead, Recommendations: t.Recommendations}
	}
}

func distinct(values []string) int {
	return len(dedupe(values))
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		c := types.Canonical(v)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
