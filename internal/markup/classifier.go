package markup

import (
	"strings"

	"github.com/heartmarshall/leocli/internal/domain"
)

// DefaultAnnotationTags are the inline elements LEO uses for usage, domain,
// and grammar labels inside an entry representation.
var DefaultAnnotationTags = []string{"small", "domain"}

// Classifier maps representation child nodes to fragments. The annotation
// tag set is the only schema-dependent knob; everything else is Text.
type Classifier struct {
	annotations map[string]struct{}
}

// NewClassifier creates a Classifier recognizing the given element names as
// annotations. Names are matched case-sensitively after trimming; blank
// names are ignored. With no usable names, DefaultAnnotationTags apply.
func NewClassifier(tags ...string) *Classifier {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			set[t] = struct{}{}
		}
	}
	if len(set) == 0 {
		for _, t := range DefaultAnnotationTags {
			set[t] = struct{}{}
		}
	}
	return &Classifier{annotations: set}
}

// IsAnnotation reports whether elements named name are annotations.
func (c *Classifier) IsAnnotation(name string) bool {
	_, ok := c.annotations[name]
	return ok
}

// Classify returns the fragment for one representation child. It is total:
// text leaves and unrecognized elements are Text.
func (c *Classifier) Classify(n *Node) domain.Fragment {
	switch n.Kind {
	case ElementNode:
		if c.IsAnnotation(n.Name) {
			return domain.Annotation(n.TextContent())
		}
		return domain.Text(n.TextContent())
	default:
		return domain.Text(n.TextContent())
	}
}
