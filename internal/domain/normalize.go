package domain

import (
	"strings"
)

// NormalizeTerms splits every word on whitespace and drops empty tokens,
// so that `leo "to run"` and `leo to run` yield the same terms.
// Case, diacritics, and token order are preserved: the dictionary treats
// them as part of the query.
func NormalizeTerms(words []string) []string {
	terms := make([]string, 0, len(words))
	for _, w := range words {
		terms = append(terms, strings.Fields(w)...)
	}
	return terms
}
