package domain

// TranslationPair holds both language sides of one dictionary entry.
// Both sides were present in the source document; either may still be empty.
type TranslationPair struct {
	Source Side `json:"source"`
	Target Side `json:"target"`
}

// Section is a labeled group of translation pairs as presented by the
// dictionary (e.g. nouns, verbs, phrases). Sections built by the parser are
// never empty.
type Section struct {
	Name  string            `json:"name,omitempty"`
	Title string            `json:"title,omitempty"`
	Pairs []TranslationPair `json:"translations"`
}

// ResultSet is the complete parsed output of one lookup, in document order.
type ResultSet []Section

// Empty reports whether the lookup produced no sections.
func (rs ResultSet) Empty() bool { return len(rs) == 0 }

// PairCount returns the number of translation pairs across all sections.
func (rs ResultSet) PairCount() int {
	n := 0
	for _, s := range rs {
		n += len(s.Pairs)
	}
	return n
}
