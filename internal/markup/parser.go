package markup

import (
	"bytes"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/heartmarshall/leocli/internal/domain"
)

// Element and attribute names of the LEO query.xml response.
const (
	elemSectionList = "sectionlist"
	elemSection     = "section"
	elemEntry       = "entry"
	elemSide        = "side"
	elemRepr        = "repr"

	attrCount = "sctCount"
	attrName  = "sctName"
	attrTitle = "sctTitle"
	attrLang  = "lang"
)

// Parser builds result sets from LEO documents.
type Parser struct {
	classifier *Classifier
	log        *slog.Logger
}

// NewParser creates a Parser using the given classifier. A nil classifier
// uses the default annotation tags.
func NewParser(classifier *Classifier, logger *slog.Logger) *Parser {
	if classifier == nil {
		classifier = NewClassifier()
	}
	return &Parser{
		classifier: classifier,
		log:        logger.With("component", "markup"),
	}
}

// Parse reads a whole document and groups its entries into sections of
// translation pairs for lang1 and lang2.
func (p *Parser) Parse(r io.Reader, lang1, lang2 string) (domain.ResultSet, error) {
	doc, err := ParseDocument(r)
	if err != nil {
		return nil, err
	}
	return p.groupSections(doc, lang1, lang2)
}

// ParseBytes is Parse over a byte slice.
func (p *Parser) ParseBytes(b []byte, lang1, lang2 string) (domain.ResultSet, error) {
	return p.Parse(bytes.NewReader(b), lang1, lang2)
}

// groupSections walks sectionlist/section in document order. Sections that
// declare no results, or whose entries all lack a side, are left out.
// The sectionlist, its sections and their entries are matched at any depth,
// not only as direct children, so wrapper elements do not hide them.
func (p *Parser) groupSections(doc *Node, lang1, lang2 string) (domain.ResultSet, error) {
	list := doc.Find(elemSectionList, nil)
	if list == nil {
		return nil, domain.Malformed("missing <sectionlist>", nil)
	}

	rs := domain.ResultSet{}
	for _, sect := range list.FindAll(elemSection) {
		count, err := sectionCount(sect)
		if err != nil {
			return nil, err
		}
		if count <= 0 {
			continue
		}

		var pairs []domain.TranslationPair
		entries := sect.FindAll(elemEntry)
		for _, entry := range entries {
			pair, ok, err := p.pairEntry(entry, lang1, lang2)
			if err != nil {
				return nil, err
			}
			if ok {
				pairs = append(pairs, pair)
			}
		}
		if len(pairs) == 0 {
			p.log.Debug("section dropped, no complete entries",
				slog.String("section", sect.Attrs[attrName]),
				slog.Int("declared", count),
				slog.Int("entries", len(entries)),
			)
			continue
		}

		rs = append(rs, domain.Section{
			Name:  sect.Attrs[attrName],
			Title: sect.Attrs[attrTitle],
			Pairs: pairs,
		})
	}
	return rs, nil
}

func sectionCount(sect *Node) (int, error) {
	raw, ok := sect.Attr(attrCount)
	if !ok {
		return 0, domain.Malformed("section without "+attrCount, nil)
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, domain.Malformed("section "+attrCount, err)
	}
	return n, nil
}

// pairEntry extracts both sides of an entry. ok is false when either side
// is missing from the document.
func (p *Parser) pairEntry(entry *Node, lang1, lang2 string) (domain.TranslationPair, bool, error) {
	src, ok, err := p.extractSide(entry, lang1)
	if err != nil || !ok {
		return domain.TranslationPair{}, false, err
	}
	dst, ok, err := p.extractSide(entry, lang2)
	if err != nil || !ok {
		return domain.TranslationPair{}, false, err
	}
	return domain.TranslationPair{Source: src, Target: dst}, true, nil
}

// extractSide returns the merged fragments of the entry's side for lang.
// ok is false when the entry has no such side; a present side with an
// empty representation yields an empty Side.
func (p *Parser) extractSide(entry *Node, lang string) (domain.Side, bool, error) {
	side := entry.Find(elemSide, func(n *Node) bool {
		return n.Attrs[attrLang] == lang
	})
	if side == nil {
		return nil, false, nil
	}

	repr := side.Find(elemRepr, nil)
	if repr == nil {
		return nil, false, domain.Malformed("side "+lang+" without <repr>", nil)
	}

	raw := make([]domain.Fragment, 0, len(repr.Children))
	for _, c := range repr.Children {
		raw = append(raw, p.classifier.Classify(c))
	}
	return domain.Merge(raw), true, nil
}
