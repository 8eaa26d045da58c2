package domain

import (
	"slices"
	"sort"
)

// PivotLanguage is the second language of every LEO dictionary pair.
const PivotLanguage = "de"

// Language describes a dictionary language supported by LEO.
type Language struct {
	Code  string
	Name  string
	Emoji string
}

var languages = map[string]Language{
	"de": {Code: "de", Name: "German", Emoji: "🇩🇪"},
	"en": {Code: "en", Name: "English", Emoji: "🇺🇸"},
	"fr": {Code: "fr", Name: "French", Emoji: "🇫🇷"},
	"es": {Code: "es", Name: "Spanish", Emoji: "🇪🇸"},
	"it": {Code: "it", Name: "Italian", Emoji: "🇮🇹"},
	"ch": {Code: "ch", Name: "Chinese", Emoji: "🇨🇳"},
	"ru": {Code: "ru", Name: "Russian", Emoji: "🇷🇺"},
	"pt": {Code: "pt", Name: "Portuguese", Emoji: "🇵🇹"},
	"pl": {Code: "pl", Name: "Polish", Emoji: "🇵🇱"},
}

// LookupLanguage returns the language registered under code.
func LookupLanguage(code string) (Language, bool) {
	l, ok := languages[code]
	return l, ok
}

// SelectableLanguages returns the codes a user may translate to or from,
// sorted. The pivot language is excluded since it is always the other side.
func SelectableLanguages() []string {
	codes := make([]string, 0, len(languages)-1)
	for code := range languages {
		if code != PivotLanguage {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// IsSelectableLanguage reports whether code may be used as the lookup language.
func IsSelectableLanguage(code string) bool {
	return slices.Contains(SelectableLanguages(), code)
}
