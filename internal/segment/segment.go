// Package segment walks the document block sequence and accumulates
// rendered HTML under the current canonical section label, switching
// sections on recognized headings.
package segment

import (
	"bytes"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/ebrasseur/fichedoc/internal/classify"
	"github.com/ebrasseur/fichedoc/internal/docx"
	"github.com/ebrasseur/fichedoc/internal/heading"
	"github.com/ebrasseur/fichedoc/internal/render"
)

// DefaultLabel receives content that appears before the first
// recognized heading.
const DefaultLabel = "Introduction"

// DefaultFor picks the label the preamble lands under for a given
// schema vocabulary: the canonical introduction label when the schema
// has one, otherwise the schema's first label, so the preamble stays
// readable through some field even under a custom schema.
func DefaultFor(labels []string) string {
	want := heading.Normalize(DefaultLabel)
	for _, l := range labels {
		if heading.Normalize(l) == want {
			return l
		}
	}
	if len(labels) > 0 {
		return labels[0]
	}
	return DefaultLabel
}

// Section accumulates one canonical label's content.
type Section struct {
	Label     string
	Artifacts []render.Artifact

	builder *render.ListBuilder
}

// HTML serializes the accumulated content. Call after the walk.
func (s *Section) HTML() string {
	var buf bytes.Buffer
	for _, n := range s.builder.Nodes() {
		html.Render(&buf, n)
	}
	return buf.String()
}

// Result is the outcome of segmenting one document.
type Result struct {
	Sections map[string]*Section
	Order    []string // labels in order of first appearance

	// UnmappedHeadings lists document headings that looked
	// heading-shaped but matched no canonical label. Content under
	// them is dropped from structured output; the list is surfaced
	// for operator review.
	UnmappedHeadings []string
}

// Segment walks blocks, classifying each and attributing rendered
// output to the current section. A heading that resolves (exactly or
// fuzzily, with the shape guard) switches the current section; a
// recognized-but-unmapped heading stops accumulation without starting
// a new section.
func Segment(doc *docx.Document, idx *heading.Index, r *render.Renderer, defaultLabel string, log *slog.Logger) *Result {
	if log == nil {
		log = slog.Default()
	}
	if defaultLabel == "" {
		defaultLabel = DefaultLabel
	}
	res := &Result{Sections: make(map[string]*Section)}

	current := res.section(defaultLabel)
	dropping := false

	for _, b := range doc.Blocks {
		switch {
		case b.Paragraph != nil:
			p := b.Paragraph
			text := p.Text()
			if text == "" && !paragraphHasImage(p) {
				continue
			}

			c := classify.Classify(p, idx)
			if c.Kind == classify.Heading {
				label, ok := idx.Resolve(text)
				if !ok {
					label, ok = idx.ResolveFuzzy(text)
				}
				if ok {
					current = res.section(label)
					dropping = false
				} else {
					// Terminates the previous section without opening
					// a new one: following content is dropped but the
					// heading is reported.
					log.Info("unmapped heading", "text", text)
					res.UnmappedHeadings = append(res.UnmappedHeadings, text)
					dropping = true
				}
				continue
			}
			if dropping {
				continue
			}

			if c.Kind == classify.ListItem {
				current.builder.AddItem(c.Ordered, c.Level, r.Item(p, c.Marker))
			} else {
				current.builder.AddBlock(r.Paragraph(p))
			}
			current.Artifacts = append(current.Artifacts, r.TakeArtifacts()...)

		case b.Table != nil:
			if dropping {
				continue
			}
			// Tables always close any open list and are never split
			// across sections.
			current.builder.AddBlock(r.Table(b.Table, idx))
			current.Artifacts = append(current.Artifacts, r.TakeArtifacts()...)
		}
	}
	return res
}

func (res *Result) section(label string) *Section {
	if s, ok := res.Sections[label]; ok {
		return s
	}
	s := &Section{Label: label, builder: render.NewListBuilder()}
	res.Sections[label] = s
	res.Order = append(res.Order, label)
	return s
}

func paragraphHasImage(p *docx.Paragraph) bool {
	for _, run := range p.Runs {
		for _, f := range run.Fragments {
			if f.Kind == docx.FragImage {
				return true
			}
		}
	}
	return false
}
