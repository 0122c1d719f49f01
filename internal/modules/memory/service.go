// README: Dialogue memory guard: opener diversity and clarifier suppression across turns.
package memory

import (
	"regexp"
	"sort"
	"strings"

	"concierge/internal/modules/strategy"
	"concierge/internal/types"
)

type Guard struct {
	historySize int
	ttl         int
}

func NewGuard(historySize, ttl int) *Guard {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{historySize: historySize, ttl: ttl}
}

func (g *Guard) TTL() int { return g.ttl }

var sentenceEnd = regexp.MustCompile(`[.!?]+(?:["')\]]*)(?:\s|$)`)

// FirstSentence returns the trimmed first sentence of text, terminator included.
func FirstSentence(text string) string {
	t := strings.TrimSpace(text)
	if loc := sentenceEnd.FindStringIndex(t); loc != nil {
		return strings.TrimSpace(t[:loc[1]])
	}
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		return strings.TrimSpace(t[:i])
	}
	return t
}

func normalizeOpener(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// IsRepeated reports whether opener matches any stored opener, case-insensitive and trimmed.
func (g *Guard) IsRepeated(m DialogueMemory, opener string) bool {
	o := normalizeOpener(opener)
	if o == "" {
		return false
	}
	for i, h := range m.OpenerHistory {
		if i >= g.historySize {
			break
		}
		if normalizeOpener(h) == o {
			return true
		}
	}
	return false
}

// CheckOpener flags a repeated opener. A fresh opener is pushed to the front of the history,
// which is trimmed to the last N entries. Repeated openers are not recorded.
func (g *Guard) CheckOpener(m *DialogueMemory, lead string) OpenerCheck {
	opener := FirstSentence(lead)
	if opener == "" {
		return OpenerCheck{}
	}
	if g.IsRepeated(*m, opener) {
		return OpenerCheck{Opener: opener, Repeated: true}
	}
	g.Remember(m, opener)
	return OpenerCheck{Opener: opener}
}

// Remember pushes opener to the front of the history.
func (g *Guard) Remember(m *DialogueMemory, opener string) {
	if strings.TrimSpace(opener) == "" {
		return
	}
	hist := make([]string, 0, g.historySize)
	hist = append(hist, strings.TrimSpace(opener))
	for _, h := range m.OpenerHistory {
		if len(hist) >= g.historySize {
			break
		}
		hist = append(hist, h)
	}
	m.OpenerHistory = hist
}

// Recent returns up to N stored openers, most recent first.
func (g *Guard) Recent(m DialogueMemory) []string {
	n := len(m.OpenerHistory)
	if n > g.historySize {
		n = g.historySize
	}
	out := make([]string, n)
	copy(out, m.OpenerHistory[:n])
	return out
}

// DropFirstSentence removes the opener from lead. Used when a regenerated lead still repeats.
func DropFirstSentence(lead string) string {
	t := strings.TrimSpace(lead)
	first := FirstSentence(t)
	return strings.TrimSpace(strings.TrimPrefix(t, first))
}

// Prune removes answered facets whose TTL elapsed at currentTurn and rebuilds the answered set.
func (g *Guard) Prune(m *DialogueMemory, currentTurn int) {
	for facet, at := range m.ClarifierHistory {
		if currentTurn-at >= g.ttl {
			delete(m.ClarifierHistory, facet)
		}
	}
	answered := make([]string, 0, len(m.ClarifierHistory))
	for facet := range m.ClarifierHistory {
		answered = append(answered, facet)
	}
	sort.Strings(answered)
	m.AnsweredClarifierFacets = answered
}

// RecordAnswer marks facet answered at turn.
func (g *Guard) RecordAnswer(m *DialogueMemory, facet string, turn int) {
	c := types.Canonical(facet)
	if c == "" {
		return
	}
	if m.ClarifierHistory == nil {
		m.ClarifierHistory = make(map[string]int)
	}
	m.ClarifierHistory[c] = turn
	g.Prune(m, turn)
}

// Answered returns the canonical set of facets still within their TTL at currentTurn.
func (g *Guard) Answered(m DialogueMemory, currentTurn int) map[string]bool {
	out := make(map[string]bool, len(m.ClarifierHistory))
	for facet, at := range m.ClarifierHistory {
		if currentTurn-at < g.ttl {
			out[facet] = true
		}
	}
	return out
}

// SuppressClarifier degrades a clarifier about an answered facet to show_results and reports
// the suppressed facet.
func (g *Guard) SuppressClarifier(m DialogueMemory, currentTurn int, st strategy.Strategy) (strategy.Strategy, []string) {
	if !st.Asking() {
		return st, nil
	}
	c := types.Canonical(st.FacetToAsk)
	if !g.Answered(m, currentTurn)[c] {
		return st, nil
	}
	return strategy.Strategy{Action: strategy.ActionShowResults, SuggestedRefinements: st.SuggestedRefinements}, []string{st.FacetToAsk}
}
