// Package markup turns LEO dictionary XML documents into domain result sets.
// The parsing functions are pure: no I/O beyond reading the supplied bytes
// and no shared mutable state, so independent documents may be parsed
// concurrently.
package markup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/heartmarshall/leocli/internal/domain"
)

// NodeKind is the closed set of node kinds in a parsed document.
type NodeKind uint8

const (
	TextNode NodeKind = iota + 1
	ElementNode
)

// Node is one node of a parsed document tree. Text nodes carry Data;
// element nodes carry Name, Attrs, and Children.
type Node struct {
	Kind     NodeKind
	Name     string
	Attrs    map[string]string
	Data     string
	Children []*Node
}

// Attr returns the value of the named attribute and whether it was present.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// TextContent returns the concatenated text of the node and all descendants.
func (n *Node) TextContent() string {
	if n.Kind == TextNode {
		return n.Data
	}
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	for _, c := range n.Children {
		if c.Kind == TextNode {
			b.WriteString(c.Data)
			continue
		}
		c.writeText(b)
	}
}

// Child returns the first direct child element with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Kind == ElementNode && c.Name == name {
			return c
		}
	}
	return nil
}

// Find returns the first descendant element, in document order, with the
// given name for which match returns true. A nil match accepts any element.
func (n *Node) Find(name string, match func(*Node) bool) *Node {
	for _, c := range n.Children {
		if c.Kind != ElementNode {
			continue
		}
		if c.Name == name && (match == nil || match(c)) {
			return c
		}
		if found := c.Find(name, match); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns all descendant elements with the given name in document order.
func (n *Node) FindAll(name string) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(p *Node) {
		for _, c := range p.Children {
			if c.Kind != ElementNode {
				continue
			}
			if c.Name == name {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// ParseDocument parses an XML document into a tree and returns a synthetic
// root element holding the top-level nodes. Element and attribute names are
// local names. Non-UTF-8 encodings declared in the prolog are decoded, and
// HTML named entities such as &nbsp; are accepted.
func ParseDocument(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Entity = xml.HTMLEntity

	root := &Node{Kind: ElementNode}
	stack := []*Node{root}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.Malformed("decode xml", err)
		}

		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Node{Kind: ElementNode, Name: t.Name.Local}
			if len(t.Attr) > 0 {
				el.Attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					el.Attrs[a.Name.Local] = a.Value
				}
			}
			top.Children = append(top.Children, el)
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			top.Children = append(top.Children, &Node{Kind: TextNode, Data: string(t)})
		}
	}

	if len(stack) != 1 {
		return nil, domain.Malformed(fmt.Sprintf("unclosed element %q", stack[len(stack)-1].Name), nil)
	}
	return root, nil
}

// ParseDocumentBytes is ParseDocument over a byte slice.
func ParseDocumentBytes(b []byte) (*Node, error) {
	return ParseDocument(bytes.NewReader(b))
}
