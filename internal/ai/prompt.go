package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"concierge/internal/modules/flow"
	"concierge/internal/modules/negotiation"
	"concierge/internal/modules/relaxation"
	"concierge/internal/modules/strategy"
)

const systemInstruction = `Role: You are the voice of a shopping assistant. Decisions are already made for you.
You write the shopper-facing words for ONE turn and return a single JSON object.

RULES:
1. Never change the decision. If the strategy is "show_results", do not ask a question and set "clarifier" to null.
   If it is "ask_clarifier", ask about exactly the given facet; the clarifier options are exactly "optionLabels".
2. Only recommend products from the provided items, by their exact "id". Never invent products or prices.
3. Stage: "clarify" = question only, no recommendations. "refine" = recommendations plus the question.
   "final" = recommendations and no question.
4. If relaxation steps are present, say briefly which filters were loosened, using their notes.
5. If a negotiation outcome is present, use its copy; quote discounted prices exactly as given.
6. Keep "lead" short: two or three sentences. Do not start it with any sentence listed under "avoid openers".
7. No markdown.`

// stageHint maps the decided strategy and flow to the stage the response should take.
func stageHint(st strategy.Strategy, order flow.Order, itemCount int) string {
	switch {
	case !st.Asking():
		return "final"
	case order == flow.AskThenShow || itemCount == 0:
		return "clarify"
	default:
		return "refine"
	}
}

func buildRenderPrompt(req RenderRequest) (string, error) {
	decision, err := json.MarshalIndent(struct {
		Strategy    strategy.Strategy    `json:"strategy"`
		FlowOrder   flow.Order           `json:"flowOrder"`
		Relaxation  []relaxation.Step    `json:"relaxationSteps,omitempty"`
		Negotiation *negotiation.Outcome `json:"negotiationOutcome,omitempty"`
	}{req.Strategy, req.FlowOrder, req.RelaxationSteps, req.NegotiationOutcome}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode decision: %w", err)
	}

	type promptItem struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Price string `json:"price"`
	}
	items := make([]promptItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, promptItem{ID: string(it.ID), Title: it.Title, Price: it.Price.String()})
	}
	itemsJSON, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode items: %w", err)
	}

	avoid := "NONE"
	if len(req.AvoidOpeners) > 0 {
		avoid = "- " + strings.Join(req.AvoidOpeners, "\n- ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Shopper message: %s\n\n", req.Query)
	fmt.Fprintf(&b, "Expected stage: %s\n\n", stageHint(req.Strategy, req.FlowOrder, len(req.Items)))
	fmt.Fprintf(&b, "Decision:\n%s\n\n", decision)
	fmt.Fprintf(&b, "Items:\n%s\n\n", itemsJSON)
	fmt.Fprintf(&b, "Avoid openers:\n%s\n", avoid)
	if req.Schema != "" {
		fmt.Fprintf(&b, "\nOutput JSON Schema:\n%s\n", req.Schema)
	}
	return b.String(), nil
}
