// README: Turn requests, the turn-intent record handed to generation, and the rendered response.
package turn

import (
	"errors"

	"concierge/internal/modules/catalog"
	"concierge/internal/modules/flow"
	"concierge/internal/modules/negotiation"
	"concierge/internal/modules/relaxation"
	"concierge/internal/modules/rendering"
	"concierge/internal/modules/strategy"
	"concierge/internal/types"
)

var (
	ErrBadRequest          = errors.New("bad request")
	ErrRendererUnavailable = errors.New("renderer unavailable")
)

// ClarifierAnswer is the shopper picking an option from the previous clarifier.
type ClarifierAnswer struct {
	Facet string `json:"facet"`
	Value string `json:"value"`
}

type Request struct {
	SessionID       string           `json:"sessionId"`
	StoreID         string           `json:"storeId"`
	Query           string           `json:"query"`
	Embedding       []float32        `json:"embedding,omitempty"`
	Filters         catalog.Filters  `json:"filters,omitempty"`
	ActiveFacets    []string         `json:"activeFacets,omitempty"`
	ProductID       types.ID         `json:"productId,omitempty"`
	ProductPrice    *types.Money     `json:"productPrice,omitempty"`
	ClarifierAnswer *ClarifierAnswer `json:"clarifierAnswer,omitempty"`
	Limit           int              `json:"limit,omitempty"`
}

// Intent is the turn-intent record. Generation renders it and must not re-derive any of it.
type Intent struct {
	TurnID                    string               `json:"turnId"`
	SessionID                 string               `json:"sessionId"`
	Turn                      int                  `json:"turn"`
	Strategy                  strategy.Strategy    `json:"strategy"`
	FlowOrder                 flow.Order           `json:"flowOrder"`
	RelaxationSteps           []relaxation.Step    `json:"relaxationSteps"`
	NegotiationOutcome        *negotiation.Outcome `json:"negotiationOutcome,omitempty"`
	SuppressedClarifierFacets []string             `json:"suppressedClarifierFacets"`
	Filters                   catalog.Filters      `json:"filters"`
	Items                     []catalog.Item       `json:"items"`
	// Degraded names the collaborators that failed this turn and were worked around.
	Degraded []string `json:"degraded,omitempty"`
}

// Response is a rendered turn together with the intent it was rendered from.
type Response struct {
	Intent         Intent                 `json:"intent"`
	Turn           rendering.RenderedTurn `json:"turn"`
	OpenerRepeated bool                   `json:"openerRepeated"`
	Regenerated    bool                   `json:"regenerated"`
	Repairs        []string               `json:"repairs,omitempty"`
}

// Config tunes the decision core.
type Config struct {
	SearchLimit        int
	TagCap             int
	ClarifierTTL       int
	OpenerHistory      int
	RelaxationPriority []string
	Thresholds         strategy.Thresholds
}

var DefaultConfig = Config{
	SearchLimit:        24,
	TagCap:             3,
	ClarifierTTL:       3,
	OpenerHistory:      5,
	RelaxationPriority: relaxation.DefaultPriority,
	Thresholds:         strategy.DefaultThresholds,
}

const (
	degradedRetrieval   = "retrieval"
	degradedRelaxation  = "relaxation"
	degradedNegotiation = "negotiation"
	degradedSession     = "session"
)
