// README: Flow sequencer; a pure function of result count, query text, strategy and turn index.
package flow

import (
	"regexp"
	"strings"

	"concierge/internal/modules/strategy"
)

var (
	// sku-like tokens: letters and digits mixed, optionally dashed (e.g. "AB-1234", "x200").
	skuPattern = regexp.MustCompile(`(?i)\b(?:[a-z]{1,4}-?\d{3,}[a-z0-9-]*|\d{3,}-[a-z0-9]+)\b`)
	// sizes and measurements (e.g. "size 42", "29 inch", "10l", "size xl"). One-letter and
	// word-like units (m, g, l, in) only count when attached to the number, so "3 in 1" is not one.
	measurePattern = regexp.MustCompile(`(?i)\b(?:size\s*\d+(?:\.\d+)?|size\s+(?:xxs|xs|s|m|l|xl|xxl)|\d+(?:\.\d+)?(?:\s*(?:mm|cm|inch|inches|ft|kg|lb|lbs|ml|gb|tb|oz)|(?:m|in|g|l)))\b`)
	// explicit product references.
	referencePattern = regexp.MustCompile(`(?i)\b(?:model|sku|item|part)\s*(?:#|no\.?|number)?\s*[a-z-]*\d[a-z0-9-]*|\bthis (?:one|item|product)\b|\bthe one (?:in|from|with)\b`)

	openEndedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\blooking for\b`),
		regexp.MustCompile(`(?i)\brecommend`),
		regexp.MustCompile(`(?i)\bsuggest`),
		regexp.MustCompile(`(?i)\bideas?\b`),
		regexp.MustCompile(`(?i)\bhelp me (?:find|choose|pick|decide)\b`),
		regexp.MustCompile(`(?i)\bwhat should i\b`),
		regexp.MustCompile(`(?i)\b(?:any|some) (?:good|nice)\b`),
		regexp.MustCompile(`(?i)\bgift for\b`),
		regexp.MustCompile(`(?i)\bi (?:need|want) (?:a|an|some)\b`),
	}

	// constraint keywords; two or more make a query specific.
	constraintPattern = regexp.MustCompile(`(?i)\b(?:(?:under|below|less than|over|above|cheaper than)(?:\s*\$?\s*\d+)?|between|max|maximum|min|minimum|budget|waterproof|wireless|leather|cotton|wool|steel|aluminum|black|white|red|blue|green|brown|grey|gray|men'?s|women'?s|kids'?|for (?:men|women|kids|running|hiking|commuting|travel))\b`)
)

// Sequence decides the flow order. Rules are evaluated in order; turnIndex 0 is the first turn.
func Sequence(resultCount int, query string, st strategy.Strategy, turnIndex int) Order {
	asking := st.Asking()
	fallback := ShowOnly
	if asking {
		fallback = ShowThenAsk
	}

	switch {
	case resultCount == 0:
		return AskThenShow
	case resultCount <= smallResultSet:
		return fallback
	case IsSpecific(query):
		return ShowThenAsk
	}

	open := IsOpenEnded(query)
	if asking && open && turnIndex == 0 && resultCount > firstTurnOpenMin {
		return AskThenShow
	}
	if asking && open && resultCount > laterTurnOpenMin {
		return AskThenShow
	}
	return fallback
}

// IsSpecific reports whether the query names a product, a SKU-like token, a size or measurement,
// or carries at least two constraint keywords.
func IsSpecific(query string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return false
	}
	if skuPattern.MatchString(q) || measurePattern.MatchString(q) || referencePattern.MatchString(q) {
		return true
	}
	return len(constraintPattern.FindAllString(q, -1)) >= specificConstraints
}

func IsOpenEnded(query string) bool {
	for _, p := range openEndedPatterns {
		if p.MatchString(query) {
			return true
		}
	}
	return false
}
