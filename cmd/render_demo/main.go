package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"concierge/internal/ai"
	"concierge/internal/modules/catalog"
	"concierge/internal/modules/facets"
	"concierge/internal/modules/flow"
	"concierge/internal/modules/rendering"
	"concierge/internal/modules/strategy"
	"concierge/internal/types"
)

func main() {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable not set")
	}

	ctx := context.Background()
	renderer, err := ai.NewGeminiRenderer(ctx, apiKey, os.Getenv("CONCIERGE_AI_MODEL"))
	if err != nil {
		log.Fatalf("Failed to initialize renderer: %v", err)
	}
	defer renderer.Close()

	// Sample catalog slice
	set := catalog.RetrievalSet{Items: []catalog.Item{
		sample("sku-1", "Canvas Weekender", 4200, "Northline", "casual"),
		sample("sku-2", "Leather Duffel", 18900, "Hartwell", "classic"),
		sample("sku-3", "Packable Tote", 3500, "Northline", "casual"),
		sample("sku-4", "Roller Carry-on", 24900, "Voyage", "travel"),
		sample("sku-5", "Gym Holdall", 7900, "Pace", "sport"),
		sample("sku-6", "Waxed Cotton Bag", 12900, "Hartwell", "classic"),
	}}

	userMessage := "I'm looking for a bag for weekend trips"
	fmt.Printf("User: %s\n", userMessage)

	stats := facets.NewEngine(3).Compute(set, []string{catalog.FacetPrice, catalog.FacetStyle, catalog.FacetVendor})
	strat, _ := strategy.Enforce(strategy.NewSelector(strategy.DefaultThresholds).Select(stats, len(set.Items), nil))
	order := flow.Sequence(len(set.Items), userMessage, strat, 0)
	fmt.Printf("Strategy: %s facet=%q options=%v order=%s\n", strat.Action, strat.FacetToAsk, strat.OptionValues, order)

	raw, err := renderer.Render(ctx, ai.RenderRequest{
		Query:     userMessage,
		Strategy:  strat,
		FlowOrder: order,
		Items:     set.Items,
		Schema:    rendering.SchemaJSON(),
	})
	if err != nil {
		log.Fatalf("Error rendering turn: %v", err)
	}

	turn, repairs, err := rendering.Decode(raw, strat.Asking())
	if err != nil {
		log.Fatalf("Rejected output: %v\n%s", err, raw)
	}

	out := turn.Rendered()
	fmt.Printf("Stage: %s\n", out.Stage)
	fmt.Printf("Lead: %s\n", out.Lead)
	for _, rec := range out.Recommendations {
		fmt.Printf("  - %s (%s): %s\n", rec.Title, rec.ProductID, rec.Reason)
	}
	if out.Clarifier != nil {
		fmt.Printf("Clarifier: %s %v\n", out.Clarifier.Question, out.Clarifier.Options)
	}
	if len(repairs) > 0 {
		fmt.Printf("Repairs: %v\n", repairs)
	}
}

func sample(id, title string, cents int64, vendor, style string) catalog.Item {
	return catalog.Item{
		ID:         types.ID(id),
		Title:      title,
		Price:      types.Money{Amount: cents, Currency: "USD"},
		Category:   "bags",
		Vendor:     vendor,
		Attributes: map[string]string{"style": style},
	}
}
