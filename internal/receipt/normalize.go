package receipt

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeToken lowercases a token, strips diacritics (so "QUANTITÀ"
// reads as "quantita") and collapses internal whitespace.
func NormalizeToken(token string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, token)
	if err != nil {
		folded = token
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
