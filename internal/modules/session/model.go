// README: Session document: dialogue memory plus negotiation state.
package session

import (
	"errors"
	"time"

	"concierge/internal/modules/memory"
	"concierge/internal/modules/negotiation"
)

// ErrStore wraps session store failures.
var ErrStore = errors.New("session store failed")

// State is loaded at turn start and written back at turn end. A session that does not exist
// yet loads as a zero State with its id set.
type State struct {
	SessionID   string                `json:"sessionId"`
	Memory      memory.DialogueMemory `json:"memory"`
	Negotiation *negotiation.State    `json:"negotiation,omitempty"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}
