// Package textutil normalizes Spanish-language search input so that
// "Depósito" and "deposito" match the same rows.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldChain = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Fold strips combining marks and lowercases. Transformation errors fall
// back to plain lowercasing; search never fails on odd input.
func Fold(s string) string {
	out, _, err := transform.String(foldChain, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}
