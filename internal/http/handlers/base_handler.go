// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"concierge/internal/modules/rendering"
	"concierge/internal/modules/turn"
)

type errorResponse struct {
	Error  string       `json:"error"`
	Intent *turn.Intent `json:"intent,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeTurnError maps core errors to status codes. The intent, when known, is returned so the
// caller can substitute a safe default response.
func writeTurnError(c *gin.Context, err error, intent *turn.Intent) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, turn.ErrBadRequest):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, turn.ErrRendererUnavailable):
		status, msg = http.StatusServiceUnavailable, turn.ErrRendererUnavailable.Error()
	case errors.Is(err, rendering.ErrUnrepairable):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	}
	writeJSON(c, status, errorResponse{Error: msg, Intent: intent})
}
