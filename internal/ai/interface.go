package ai

import (
	"context"
)

// Renderer turns a decided turn-intent into rendered-turn JSON.
// This interface allows for swapping different generation providers in the future.
type Renderer interface {
	// Render returns the raw rendered-turn document. It must not re-derive the facet,
	// relaxation or negotiation decisions carried by req.
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}
