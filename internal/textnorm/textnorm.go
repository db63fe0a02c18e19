// Package textnorm folds product names into the form used for catalog search.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ordinals = strings.NewReplacer("ª", "a", "º", "o")

// Normalize trims, strips diacritics and upper-cases s.
// "Pão de Açúcar" becomes "PAO DE ACUCAR".
func Normalize(s string) string {
	s = ordinals.Replace(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(out)
}

// Pattern builds a LIKE pattern requiring every non-space character of the
// normalised token to appear in order. Use with ESCAPE '\'.
func Pattern(token string) string {
	var b strings.Builder
	b.WriteByte('%')
	for _, r := range Normalize(token) {
		if unicode.IsSpace(r) {
			continue
		}
		if r == '%' || r == '_' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
		b.WriteByte('%')
	}
	return b.String()
}
