package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FragmentKind discriminates plain dictionary text from inline annotations
// (grammatical gender, usage domain, abbreviation markers).
type FragmentKind uint8

const (
	FragmentText FragmentKind = iota + 1
	FragmentAnnotation
)

func (k FragmentKind) String() string {
	switch k {
	case FragmentText:
		return "text"
	case FragmentAnnotation:
		return "annotation"
	}
	return fmt.Sprintf("FragmentKind(%d)", uint8(k))
}

func (k FragmentKind) IsValid() bool {
	return k == FragmentText || k == FragmentAnnotation
}

// ParseFragmentKind is the inverse of FragmentKind.String.
func ParseFragmentKind(s string) (FragmentKind, error) {
	switch s {
	case "text":
		return FragmentText, nil
	case "annotation":
		return FragmentAnnotation, nil
	}
	return 0, fmt.Errorf("unknown fragment kind %q", s)
}

func (k FragmentKind) MarshalText() ([]byte, error) {
	if !k.IsValid() {
		return nil, fmt.Errorf("marshal fragment kind: invalid value %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *FragmentKind) UnmarshalText(b []byte) error {
	parsed, err := ParseFragmentKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Fragment is the smallest classified unit of a rendered dictionary entry.
type Fragment struct {
	Kind FragmentKind `json:"kind"`
	Text string       `json:"text"`
}

// Text returns a plain-text fragment.
func Text(s string) Fragment { return Fragment{Kind: FragmentText, Text: s} }

// Annotation returns an annotation fragment.
func Annotation(s string) Fragment { return Fragment{Kind: FragmentAnnotation, Text: s} }

// Side is one language's rendering of a dictionary entry: an ordered
// sequence of fragments in reading order. A Side produced by Merge never
// holds two adjacent fragments of the same kind.
type Side []Fragment

// Merge folds fragments left to right, concatenating each fragment into its
// predecessor when both have the same kind. The input is not modified.
// A nil or empty input yields an empty, non-nil Side.
func Merge(fragments []Fragment) Side {
	out := make(Side, 0, len(fragments))
	for _, f := range fragments {
		if n := len(out); n > 0 && out[n-1].Kind == f.Kind {
			out[n-1].Text += f.Text
			continue
		}
		out = append(out, f)
	}
	return out
}

// String returns the concatenated text of all fragments, annotations included.
func (s Side) String() string {
	var b strings.Builder
	for _, f := range s {
		b.WriteString(f.Text)
	}
	return b.String()
}

// MarshalJSON keeps empty sides as [] rather than null.
func (s Side) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Fragment(s))
}
