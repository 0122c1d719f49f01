// README: Per-session dialogue memory: opener history and answered clarifier facets.
package memory

// DialogueMemory is persisted per session by the session store.
type DialogueMemory struct {
	// OpenerHistory is most-recent-first and bounded by the guard's history size.
	OpenerHistory []string `json:"openerHistory"`
	// AnsweredClarifierFacets holds canonical facet names still within their TTL.
	AnsweredClarifierFacets []string `json:"answeredClarifierFacets"`
	// ClarifierHistory maps canonical facet name to the turn it was answered at.
	ClarifierHistory map[string]int `json:"clarifierHistory"`
	// Turn is the 0-based index of the current shopper turn.
	Turn int `json:"turn"`
	// PendingClarifier is the facet asked on the previous turn, if any.
	PendingClarifier string `json:"pendingClarifier,omitempty"`
}

// OpenerCheck is the result of checking a freshly generated lead.
type OpenerCheck struct {
	Opener   string `json:"opener"`
	Repeated bool   `json:"repeated"`
}

const (
	DefaultHistorySize = 5
	DefaultTTL         = 3
)
