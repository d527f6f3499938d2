// Package docx reads the WordprocessingML package format and exposes an
// ordered, flattened block model: paragraphs and tables in document
// order, runs with resolved formatting, hyperlink targets, native
// numbering metadata and embedded media bytes.
package docx

import "strings"

// Document is a fully parsed word-processor package. It is read-only
// and lives for a single processing call.
type Document struct {
	Blocks []Block
}

// Block is a tagged variant over paragraph and table. Exactly one of
// the two fields is set.
type Block struct {
	Paragraph *Paragraph
	Table     *Table
}

// Paragraph is one block-level paragraph with its ordered runs.
type Paragraph struct {
	StyleID   string
	StyleName string

	// Native numbering metadata. NumID is empty when the paragraph
	// carries no <w:numPr>. Ilvl is -1 when absent.
	NumID     string
	Ilvl      int
	NumFormat string // resolved from numbering.xml: "decimal", "bullet", ...

	// IndentLeft is the left indent in twips, used as a nesting
	// fallback when Ilvl is absent.
	IndentLeft int

	Runs []Run
}

// Text returns the concatenated visible text of the paragraph.
// Breaks and tabs collapse to single spaces.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		for _, f := range r.Fragments {
			switch f.Kind {
			case FragText:
				b.WriteString(f.Text)
			case FragBreak, FragTab:
				b.WriteByte(' ')
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Run is a styling-atomic span: formatting never covers part of a run.
type Run struct {
	Fragments []Fragment

	Bold      bool
	Italic    bool
	Underline bool
	Color     string // hex like "FF0000", empty for automatic

	// Href is the enclosing hyperlink target, resolved from both the
	// relationship form and the field-code form. Empty when the run is
	// not inside a link.
	Href string
}

// Text returns the concatenated text fragments of the run.
func (r *Run) Text() string {
	var b strings.Builder
	for _, f := range r.Fragments {
		if f.Kind == FragText {
			b.WriteString(f.Text)
		}
	}
	return b.String()
}

// FragmentKind discriminates run fragments.
type FragmentKind int

const (
	FragText FragmentKind = iota
	FragBreak
	FragTab
	FragImage
)

// Fragment is one atom of run content, in document order.
type Fragment struct {
	Kind  FragmentKind
	Text  string
	Image *Image
}

// Image is an embedded picture with its media bytes and declared MIME
// type from the package content types.
type Image struct {
	Name string
	Data []byte
	MIME string
}

// Table preserves the row/cell structure. Each cell owns its own
// ordered block sequence, recursively.
type Table struct {
	Rows []TableRow
}

type TableRow struct {
	Cells []TableCell
}

type TableCell struct {
	Blocks []Block
}
