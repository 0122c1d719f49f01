// README: Turn handlers for decide/respond.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"concierge/internal/modules/catalog"
	"concierge/internal/modules/turn"
	"concierge/internal/types"
)

type TurnService interface {
	Decide(ctx context.Context, req turn.Request) (turn.Intent, error)
	Respond(ctx context.Context, req turn.Request) (turn.Response, error)
}

type TurnHandler struct {
	turns TurnService
}

func NewTurnHandler(svc TurnService) *TurnHandler {
	return &TurnHandler{turns: svc}
}

type turnReq struct {
	SessionID       string                `json:"sessionId"`
	StoreID         string                `json:"storeId"`
	Query           string                `json:"query"`
	Embedding       []float32             `json:"embedding"`
	Filters         map[string]string     `json:"filters"`
	ActiveFacets    []string              `json:"activeFacets"`
	ProductID       string                `json:"productId"`
	ProductPrice    *types.Money          `json:"productPrice"`
	ClarifierAnswer *turn.ClarifierAnswer `json:"clarifierAnswer"`
	Limit           int                   `json:"limit"`
}

func (r turnReq) toRequest() turn.Request {
	return turn.Request{
		SessionID:       r.SessionID,
		StoreID:         r.StoreID,
		Query:           r.Query,
		Embedding:       r.Embedding,
		Filters:         catalog.Filters(r.Filters),
		ActiveFacets:    r.ActiveFacets,
		ProductID:       types.ID(r.ProductID),
		ProductPrice:    r.ProductPrice,
		ClarifierAnswer: r.ClarifierAnswer,
		Limit:           r.Limit,
	}
}

func (h *TurnHandler) Decide(c *gin.Context) {
	var req turnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	intent, err := h.turns.Decide(c.Request.Context(), req.toRequest())
	if err != nil {
		writeTurnError(c, err, nil)
		return
	}
	writeJSON(c, http.StatusOK, intent)
}

func (h *TurnHandler) Respond(c *gin.Context) {
	var req turnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	resp, err := h.turns.Respond(c.Request.Context(), req.toRequest())
	if err != nil {
		var intent *turn.Intent
		if resp.Intent.TurnID != "" {
			intent = &resp.Intent
		}
		writeTurnError(c, err, intent)
		return
	}
	writeJSON(c, http.StatusOK, resp)
}
