// Package match implements the string heuristics used to associate
// free-text collection titles with product attribute values. The matching
// is deliberately tolerant: it accepts minor naming drift ("Pokémon" vs
// "pokemon tcg") at the cost of occasional false positives on short or
// generic titles.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lower-cases, strips combining diacritical marks, collapses
// any run of non-alphanumeric characters to a single space and trims.
// Normalize is idempotent.
func Normalize(s string) string {
	s = strings.ToLower(s)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		} else {
			space = true
		}
	}
	return b.String()
}

// TokenSet returns the set of normalized words of length >= 3.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(Normalize(s)) {
		if len(t) >= 3 {
			set[t] = struct{}{}
		}
	}
	return set
}

// SubstringMatch reports whether the normalized forms are equal or one
// contains the other. Used where the looser token-overlap tolerance is
// not wanted.
func SubstringMatch(a, b string) bool {
	na := Normalize(a)
	nb := Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// ApproxMatch extends SubstringMatch with a token-overlap branch: true
// when the word sets overlap at a ratio >= 0.6 relative to the smaller
// set. Symmetric in its arguments.
func ApproxMatch(a, b string) bool {
	if SubstringMatch(a, b) {
		return true
	}
	ta := TokenSet(a)
	tb := TokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	inter := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			inter++
		}
	}
	small := len(ta)
	if len(tb) < small {
		small = len(tb)
	}
	return float64(inter)/float64(small) >= 0.6
}

// Slugify converts a display name to a slug form: lower-cased, diacritics
// stripped, non-alphanumeric runs collapsed to single dashes.
func Slugify(s string) string {
	return strings.ReplaceAll(Normalize(s), " ", "-")
}

// StripPa removes WooCommerce's global-attribute taxonomy prefix.
func StripPa(slug string) string {
	return strings.ToLower(strings.TrimPrefix(slug, "pa_"))
}
