// Package render formats lookup results for the terminal.
package render

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/heartmarshall/leocli/internal/domain"
)

const (
	ansiDim   = "\x1b[2m"
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// Options controls table output.
type Options struct {
	Lang1  string
	Lang2  string
	Emojis bool
	Color  bool
}

// presto mimics the "presto" layout: no outer border, "|" between columns
// and a "-+-" rule under the header. Header text keeps its case.
var presto = func() table.Style {
	s := table.StyleDefault
	s.Name = "presto"
	s.Format.Header = text.FormatDefault
	s.Options.DrawBorder = false
	s.Options.SeparateColumns = true
	s.Options.SeparateHeader = true
	s.Options.SeparateRows = false
	return s
}()

// Table writes one table per section, each preceded by its title and
// separated from the next by a blank line:
//
//	Nouns
//	 English   | German
//	-----------+----------
//	 the house | das Haus
func Table(w io.Writer, rs domain.ResultSet, opts Options) error {
	bw := bufio.NewWriter(w)
	header := table.Row{headerCell(opts.Lang1, opts.Emojis), headerCell(opts.Lang2, opts.Emojis)}

	for i, sec := range rs {
		if i > 0 {
			bw.WriteByte('\n')
		}
		if title := collapse(sec.Title); title != "" {
			if opts.Color {
				title = ansiBold + title + ansiReset
			}
			bw.WriteString(title)
			bw.WriteByte('\n')
		}
		bw.WriteString(renderSection(header, sec.Pairs, opts.Color))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func renderSection(header table.Row, pairs []domain.TranslationPair, color bool) string {
	tw := table.NewWriter()
	tw.SetStyle(presto)
	tw.SuppressTrailingSpaces()
	tw.AppendHeader(header)
	for _, p := range pairs {
		tw.AppendRow(table.Row{sideCell(p.Source, color), sideCell(p.Target, color)})
	}
	return tw.Render()
}

func headerCell(code string, emojis bool) string {
	lang, ok := domain.LookupLanguage(code)
	if !ok {
		return collapse(code)
	}
	if emojis {
		return lang.Emoji + " " + lang.Name
	}
	return lang.Name
}

// sideCell joins the fragments of a side, collapsing every whitespace run
// (fragment boundaries included) to one space and trimming both ends.
// Annotations are dimmed when color is set; the table measures cells
// without their escape sequences.
func sideCell(side domain.Side, color bool) string {
	var b strings.Builder
	started, pendingSpace := false, false

	for _, f := range side {
		styled := false
		for _, r := range f.Text {
			if unicode.IsSpace(r) {
				pendingSpace = started
				continue
			}
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			if color && f.Kind == domain.FragmentAnnotation && !styled {
				b.WriteString(ansiDim)
				styled = true
			}
			b.WriteRune(r)
			started = true
		}
		if styled {
			b.WriteString(ansiReset)
		}
	}
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
