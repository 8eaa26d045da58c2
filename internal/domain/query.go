package domain

import (
	"strings"
)

// Query identifies one dictionary lookup: the search terms in the order the
// user gave them and the language pair. The same Query drives both the
// remote request and the cache key.
type Query struct {
	Terms []string
	Lang1 string
	Lang2 string
}

// NewQuery normalizes words into terms and validates the language.
// The second language is always the pivot language.
func NewQuery(words []string, lang string) (Query, error) {
	terms := NormalizeTerms(words)

	var errs []FieldError
	if len(terms) == 0 {
		errs = append(errs, FieldError{Field: "terms", Message: "at least one search word required"})
	}
	if !IsSelectableLanguage(lang) {
		errs = append(errs, FieldError{Field: "lang", Message: "unsupported language " + quote(lang)})
	}
	if len(errs) > 0 {
		return Query{}, NewValidationErrors(errs)
	}

	return Query{Terms: terms, Lang1: lang, Lang2: PivotLanguage}, nil
}

// Search returns the canonical search string: terms joined by one space.
func (q Query) Search() string {
	return strings.Join(q.Terms, " ")
}

// Pair returns the concatenated language pair, e.g. "ende".
func (q Query) Pair() string {
	return q.Lang1 + q.Lang2
}

// Key returns the canonical cache identity of the query.
func (q Query) Key() string {
	return q.Lang2 + "/" + q.Lang1 + "/" + q.Search()
}

// QuotedTerms renders the terms for user-facing messages: 'a', 'b'.
func (q Query) QuotedTerms() string {
	quoted := make([]string, len(q.Terms))
	for i, t := range q.Terms {
		quoted[i] = quote(t)
	}
	return strings.Join(quoted, ", ")
}

func quote(s string) string { return "'" + s + "'" }
