// README: Canonical form for free-form facet and option values.
package types

import (
	"strings"
	"unicode"
)

// Canonical folds a loosely-typed value (from the catalog, a filter, or model output) into the
// form used for every equality and set-membership check: trimmed, lower-cased, with '_', '-',
// '/' and runs of whitespace collapsed to a single space.
func Canonical(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	pendingSpace := false
	for _, r := range strings.TrimSpace(v) {
		if unicode.IsSpace(r) || r == '_' || r == '-' || r == '/' {
			pendingSpace = true
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// SameValue reports whether a and b are equal under Canonical.
func SameValue(a, b string) bool {
	return Canonical(a) == Canonical(b)
}

// CanonicalSet builds a membership set keyed by canonical form. Empty values are skipped.
func CanonicalSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if c := Canonical(v); c != "" {
			set[c] = true
		}
	}
	return set
}
