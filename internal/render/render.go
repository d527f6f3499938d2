// Package render converts paragraphs, runs and tables of the document
// model into HTML nodes: escaped text, deterministic inline formatting,
// inline images or downloadable placeholders, and resolved hyperlinks.
package render

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ebrasseur/fichedoc/internal/classify"
	"github.com/ebrasseur/fichedoc/internal/docx"
	"github.com/ebrasseur/fichedoc/internal/heading"
	"github.com/ebrasseur/fichedoc/internal/htmlx"
)

// Artifact is an embedded image the browser cannot display inline,
// surfaced as a downloadable payload instead of being dropped.
type Artifact struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MIME     string `json:"mime"`
	Data     []byte `json:"data"`
}

// Renderer builds HTML nodes from document blocks. It accumulates the
// unsupported-image artifacts produced along the way; callers drain
// them with TakeArtifacts after each block so payloads stay attributed
// to the right section.
type Renderer struct {
	log       *slog.Logger
	artifacts []Artifact
	seq       int
}

func New(log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{log: log}
}

// TakeArtifacts returns and clears the accumulated artifacts.
func (r *Renderer) TakeArtifacts() []Artifact {
	out := r.artifacts
	r.artifacts = nil
	return out
}

// Paragraph renders a plain paragraph as <p>.
func (r *Renderer) Paragraph(p *docx.Paragraph) *html.Node {
	n := htmlx.Element(atom.P)
	for _, child := range r.Inline(p) {
		n.AppendChild(child)
	}
	return n
}

// Inline renders the runs of a paragraph as a flat inline sequence,
// for use inside <p> or <li>.
func (r *Renderer) Inline(p *docx.Paragraph) []*html.Node {
	var out []*html.Node
	for _, run := range p.Runs {
		out = append(out, r.Run(run)...)
	}
	return out
}

// Item renders a list item's runs, removing the hand-typed marker the
// classifier recognized so output lists do not double their bullets.
func (r *Renderer) Item(p *docx.Paragraph, marker string) []*html.Node {
	if marker == "" {
		return r.Inline(p)
	}
	return r.Inline(stripMarker(p, marker))
}

// stripMarker copies the paragraph with the typed marker removed from
// its first text fragment.
func stripMarker(p *docx.Paragraph, marker string) *docx.Paragraph {
	out := *p
	out.Runs = append([]docx.Run(nil), p.Runs...)
	for ri := range out.Runs {
		out.Runs[ri].Fragments = append([]docx.Fragment(nil), out.Runs[ri].Fragments...)
		for fi := range out.Runs[ri].Fragments {
			f := &out.Runs[ri].Fragments[fi]
			if f.Kind != docx.FragText || strings.TrimSpace(f.Text) == "" {
				continue
			}
			lead := strings.TrimLeft(f.Text, " \t")
			if strings.HasPrefix(lead, marker) {
				f.Text = strings.TrimLeft(strings.TrimPrefix(lead, marker), " \t")
			}
			return &out
		}
	}
	return &out
}

var bareURLRe = regexp.MustCompile(`https?://[^\s<>"')]+`)

// Run renders one run. Formatting wraps the whole run in a fixed
// nesting order (color innermost, then underline, italic, bold) so
// combined formatting always serializes the same way; an enclosing
// hyperlink wraps the result.
func (r *Renderer) Run(run docx.Run) []*html.Node {
	var frags []*html.Node
	for _, f := range run.Fragments {
		switch f.Kind {
		case docx.FragText:
			if run.Href == "" {
				frags = append(frags, autoLink(f.Text)...)
			} else {
				frags = append(frags, htmlx.Text(f.Text))
			}
		case docx.FragBreak:
			frags = append(frags, htmlx.Element(atom.Br))
		case docx.FragTab:
			frags = append(frags, htmlx.Text("\t"))
		case docx.FragImage:
			frags = append(frags, r.image(f.Image))
		}
	}
	if len(frags) == 0 {
		return nil
	}

	wrap := func(a atom.Atom) {
		w := htmlx.Element(a)
		for _, f := range frags {
			w.AppendChild(f)
		}
		frags = []*html.Node{w}
	}

	if run.Color != "" {
		span := htmlx.Element(atom.Span)
		htmlx.SetAttr(span, "style", "color:#"+strings.ToLower(run.Color))
		for _, f := range frags {
			span.AppendChild(f)
		}
		frags = []*html.Node{span}
	}
	if run.Underline {
		wrap(atom.U)
	}
	if run.Italic {
		wrap(atom.Em)
	}
	if run.Bold {
		wrap(atom.Strong)
	}
	if run.Href != "" {
		a := htmlx.Element(atom.A)
		htmlx.SetAttr(a, "href", run.Href)
		for _, f := range frags {
			a.AppendChild(f)
		}
		frags = []*html.Node{a}
	}
	return frags
}

// autoLink wraps bare URLs in anchor elements. It only runs on runs
// that carry no explicit hyperlink, so links are never doubled.
func autoLink(text string) []*html.Node {
	locs := bareURLRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []*html.Node{htmlx.Text(text)}
	}
	var out []*html.Node
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			out = append(out, htmlx.Text(text[prev:loc[0]]))
		}
		url := text[loc[0]:loc[1]]
		a := htmlx.Element(atom.A)
		htmlx.SetAttr(a, "href", url)
		a.AppendChild(htmlx.Text(url))
		out = append(out, a)
		prev = loc[1]
	}
	if prev < len(text) {
		out = append(out, htmlx.Text(text[prev:]))
	}
	return out
}

// Table renders the full row/cell structure, recursing into cell
// blocks through the same paragraph and list rules.
func (r *Renderer) Table(t *docx.Table, idx *heading.Index) *html.Node {
	table := htmlx.Element(atom.Table)
	for _, row := range t.Rows {
		tr := htmlx.Element(atom.Tr)
		for _, cell := range row.Cells {
			td := htmlx.Element(atom.Td)
			for _, n := range r.Blocks(cell.Blocks, idx) {
				td.AppendChild(n)
			}
			tr.AppendChild(td)
		}
		table.AppendChild(tr)
	}
	return table
}

// Blocks renders an ordered block sequence (table cell content) with
// list grouping. Heading classification never switches sections inside
// a cell; heading-shaped text renders as a plain paragraph.
func (r *Renderer) Blocks(blocks []docx.Block, idx *heading.Index) []*html.Node {
	lb := NewListBuilder()
	for _, b := range blocks {
		switch {
		case b.Paragraph != nil:
			p := b.Paragraph
			if p.Text() == "" && !hasImage(p) {
				continue
			}
			c := classify.Classify(p, idx)
			if c.Kind == classify.ListItem {
				lb.AddItem(c.Ordered, c.Level, r.Item(p, c.Marker))
			} else {
				lb.AddBlock(r.Paragraph(p))
			}
		case b.Table != nil:
			lb.AddBlock(r.Table(b.Table, idx))
		}
	}
	return lb.Nodes()
}

func hasImage(p *docx.Paragraph) bool {
	for _, run := range p.Runs {
		for _, f := range run.Fragments {
			if f.Kind == docx.FragImage {
				return true
			}
		}
	}
	return false
}

func (r *Renderer) nextID() string {
	r.seq++
	return fmt.Sprintf("att-%d", r.seq)
}
