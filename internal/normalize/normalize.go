// Package normalize canonicalizes free-text document labels and
// organizational-unit codes into exact-match keys. Both the document side and
// the specialty reference table go through the same normalizer, so lookups
// are plain string equality, never fuzzy.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultBoilerplate lists the substrings stripped from document labels
// before they are used as matching keys: generic discharge-letter phrasing,
// day-clinic and consultation markers, and stray punctuation.
var DefaultBoilerplate = []string{
	"DISCHARGE SUMMARY",
	"DISCHARGE LETTER",
	"LIAISON LETTER",
	"DAY CLINIC",
	"CONSULTATION",
	".",
}

// Normalizer builds matching keys from free-text labels
type Normalizer struct {
	boilerplate []string
}

// New creates a normalizer with the given boilerplate substrings. Patterns
// are canonicalized the same way labels are, so configuration may be written
// in any case or accenting. A nil list means DefaultBoilerplate.
func New(boilerplate []string) *Normalizer {
	if boilerplate == nil {
		boilerplate = DefaultBoilerplate
	}
	canon := make([]string, 0, len(boilerplate))
	for _, p := range boilerplate {
		p = stripAccents(strings.ToUpper(strings.TrimSpace(p)))
		if p != "" {
			canon = append(canon, p)
		}
	}
	return &Normalizer{boilerplate: canon}
}

// Key canonicalizes a document label into a matching key. Total function:
// empty or whitespace input yields an empty key, never an error.
func (n *Normalizer) Key(label string) string {
	s := stripAccents(strings.ToUpper(strings.TrimSpace(label)))
	for _, p := range n.boilerplate {
		s = strings.ReplaceAll(s, p, " ")
	}
	return strings.Join(strings.Fields(s), " ")
}

// UnitCode canonicalizes an organizational-unit code
func UnitCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// stripAccents removes combining marks after NFD decomposition, mapping
// accented letters onto their unaccented base.
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
