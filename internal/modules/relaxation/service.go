// README: Constraint relaxation engine; drops filters in priority order until results appear.
package relaxation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"concierge/internal/modules/catalog"
	"concierge/internal/types"
)

type Engine struct {
	retriever catalog.Retriever
	priority  []string
	log       *zap.Logger
}

func NewEngine(retriever catalog.Retriever, priority []string, log *zap.Logger) *Engine {
	if len(priority) == 0 {
		priority = DefaultPriority
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{retriever: retriever, priority: priority, log: log}
}

// Priority returns the relaxation order in use.
func (e *Engine) Priority() []string {
	out := make([]string, len(e.priority))
	copy(out, e.priority)
	return out
}

// Relax runs only when initial is empty. Calls are strictly sequential: each retrieval uses the
// filters left by the previous step. The caller's filters are never mutated. On a retrieval error
// the steps recorded so far are returned with the error.
func (e *Engine) Relax(ctx context.Context, q catalog.Query, initial catalog.RetrievalSet) (Result, error) {
	res := Result{Set: initial, Filters: q.Filters.Clone()}
	if !initial.Empty() {
		return res, nil
	}

	for _, facet := range e.priority {
		if !res.Set.Empty() {
			break
		}
		key, value, ok := res.Filters.Lookup(facet)
		if !ok {
			continue
		}
		delete(res.Filters, key)

		next := q
		next.Filters = res.Filters.Clone()
		set, err := e.retriever.Search(ctx, next)
		if err != nil {
			res.Filters[key] = value
			return res, fmt.Errorf("relax %s: %w", key, err)
		}

		step := Step{
			Facet:         key,
			PreviousValue: value,
			Note:          Note(key, value),
			Undo:          &UndoOption{Facet: key, Value: value, Label: UndoLabel(key, value)},
			Recovered:     !set.Empty(),
		}
		res.Steps = append(res.Steps, step)
		res.Set = set
		e.log.Debug("relaxation step",
			zap.String("facet", key),
			zap.String("previous", value),
			zap.Int("items", len(set.Items)),
		)
	}
	return res, nil
}

// Note is the shopper-facing explanation for dropping value from facet.
func Note(facet, value string) string {
	switch types.Canonical(facet) {
	case types.Canonical(catalog.FacetPrice):
		return fmt.Sprintf("Nothing matched in the %s range, so I widened the price range.", value)
	case types.Canonical(catalog.FacetStyle):
		return fmt.Sprintf("I couldn't find a %s style match, so I included other styles.", value)
	case types.Canonical(catalog.FacetUseCase):
		return fmt.Sprintf("Nothing was made specifically for %s, so I included items for other uses.", value)
	case types.Canonical(catalog.FacetVendor):
		return fmt.Sprintf("%s had nothing that fit, so I looked at other brands.", value)
	case types.Canonical(catalog.FacetCategory):
		return fmt.Sprintf("Nothing matched in %s, so I looked in related categories.", value)
	case types.Canonical(catalog.FacetTag):
		return fmt.Sprintf("Nothing was tagged %q, so I dropped that requirement.", value)
	default:
		return fmt.Sprintf("Nothing matched %s %q, so I removed that filter.", types.Canonical(facet), value)
	}
}

func UndoLabel(facet, value string) string {
	if types.SameValue(facet, catalog.FacetPrice) {
		return fmt.Sprintf("Keep %s only", value)
	}
	return fmt.Sprintf("Only show %s", value)
}
