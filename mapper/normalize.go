package mapper

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeCategoryName canonicalizes a raw category label taken from an
// annotation file: NFKC fold, whitespace collapse, lower case.
func NormalizeCategoryName(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}
