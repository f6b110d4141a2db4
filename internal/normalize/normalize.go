// Package normalize canonicalizes the free-text identifiers that arrive in
// plant-control exports so that comparisons are stable across casing,
// whitespace, and accent variations.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents decomposes to NFD, strips combining marks, and recomposes so
// that "Álamo" and "Alamo" normalize to the same form. Client and site names
// in the export are typed by dispatchers and accents are unreliable.
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Text returns s lower-cased with accents folded, internal whitespace
// collapsed to single spaces, and surrounding whitespace trimmed.
func Text(s string) string {
	if folded, _, err := transform.String(foldAccents, s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Equal reports whether two strings are equal after normalization.
func Equal(a, b string) bool {
	return Text(a) == Text(b)
}
