package ai

import (
	"concierge/internal/modules/catalog"
	"concierge/internal/modules/flow"
	"concierge/internal/modules/negotiation"
	"concierge/internal/modules/relaxation"
	"concierge/internal/modules/strategy"
)

// RenderRequest is everything the generation step may use for one turn.
type RenderRequest struct {
	// Query is the shopper's latest message.
	Query string `json:"query"`

	Strategy  strategy.Strategy `json:"strategy"`
	FlowOrder flow.Order        `json:"flowOrder"`

	// Items are the candidates the lead may recommend, in rank order.
	Items []catalog.Item `json:"items"`

	RelaxationSteps    []relaxation.Step    `json:"relaxationSteps,omitempty"`
	NegotiationOutcome *negotiation.Outcome `json:"negotiationOutcome,omitempty"`

	// AvoidOpeners lists recent first sentences the lead must not start with.
	AvoidOpeners []string `json:"avoidOpeners,omitempty"`

	// Schema is the JSON schema the response must satisfy.
	Schema string `json:"-"`
}
