// Package classify decides, per paragraph, whether it is a heading, a
// list item or a plain paragraph. Style names alone are never trusted:
// every test also inspects text shape.
package classify

import (
	"strings"

	"github.com/ebrasseur/fichedoc/internal/docx"
	"github.com/ebrasseur/fichedoc/internal/heading"
)

// Kind is the block classification.
type Kind int

const (
	Plain Kind = iota
	Heading
	ListItem
)

// Result carries the classification plus list details when relevant.
type Result struct {
	Kind    Kind
	Ordered bool
	Level   int // nesting level, clamped to [0,6]

	// Marker is the hand-typed list marker ("• ", "1. ") that drove the
	// classification, when there is one. Native numbering carries no
	// marker. Renderers strip it so it is not doubled in output.
	Marker string
}

// twipsPerLevel is the indentation width treated as one nesting level
// when native numbering metadata is absent (0.5in).
const twipsPerLevel = 720

const maxLevel = 6

// bulletGlyphs are the leading characters that mark a hand-typed
// bullet item.
var bulletGlyphs = []string{"•", "◦", "▪", "-", "–", "—", "*"}

// headingStyleMarkers match both English and French template style
// names for headings.
var headingStyleMarkers = []string{"heading", "titre", "title", "subtitle", "sous-titre"}

// listStyleMarkers match list paragraph styles across locales.
var listStyleMarkers = []string{"list", "bullet", "puces", "numerot"}

// Classify applies the heading test before the list test; a paragraph
// is never both.
func Classify(p *docx.Paragraph, idx *heading.Index) Result {
	text := p.Text()

	if isHeading(p, text, idx) {
		return Result{Kind: Heading}
	}
	if ok, ordered, level, marker := isListItem(p, text); ok {
		return Result{Kind: ListItem, Ordered: ordered, Level: level, Marker: marker}
	}
	return Result{Kind: Plain}
}

// isHeading accepts a paragraph whose text resolves in the expected
// vocabulary, or one with a heading-family style and heading shape.
func isHeading(p *docx.Paragraph, text string, idx *heading.Index) bool {
	if text == "" {
		return false
	}
	if idx != nil {
		if _, ok := idx.Resolve(text); ok {
			return true
		}
	}
	if hasStyleMarker(p, headingStyleMarkers) && heading.LooksLikeHeading(text) {
		return true
	}
	return false
}

// isListItem applies native numbering first, then the style and glyph
// heuristics for paragraphs the converter left without metadata.
func isListItem(p *docx.Paragraph, text string) (ok, ordered bool, level int, marker string) {
	if p.NumID != "" {
		ordered = orderedFromFormat(p) ||
			hasStyleMarker(p, []string{"number", "numerot"}) ||
			heading.HasDecimalPrefix(text)
		return true, ordered, clampLevel(nativeLevel(p)), ""
	}

	if hasStyleMarker(p, listStyleMarkers) {
		return true, heading.HasDecimalPrefix(text), clampLevel(indentLevel(p)), ""
	}

	trimmed := strings.TrimSpace(text)
	for _, g := range bulletGlyphs {
		if strings.HasPrefix(trimmed, g+" ") {
			return true, false, clampLevel(indentLevel(p)), g + " "
		}
		if trimmed == g {
			return true, false, clampLevel(indentLevel(p)), g
		}
	}
	if heading.HasDecimalPrefix(trimmed) && !heading.LooksLikeHeading(trimmed) {
		return true, true, clampLevel(indentLevel(p)), decimalMarker(trimmed)
	}
	return false, false, 0, ""
}

// decimalMarker returns the typed "1. " prefix including its trailing
// whitespace.
func decimalMarker(trimmed string) string {
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i < len(trimmed) && (trimmed[i] == '.' || trimmed[i] == ')') {
		i++
	}
	for i < len(trimmed) && (trimmed[i] == ' ' || trimmed[i] == '\t') {
		i++
	}
	return trimmed[:i]
}

// orderedFromFormat reads the resolved numbering format.
func orderedFromFormat(p *docx.Paragraph) bool {
	switch p.NumFormat {
	case "decimal", "lowerLetter", "upperLetter", "lowerRoman", "upperRoman", "decimalZero":
		return true
	}
	return false
}

func nativeLevel(p *docx.Paragraph) int {
	if p.Ilvl >= 0 {
		return p.Ilvl
	}
	return indentLevel(p)
}

func indentLevel(p *docx.Paragraph) int {
	if p.IndentLeft <= 0 {
		return 0
	}
	return p.IndentLeft / twipsPerLevel
}

func clampLevel(n int) int {
	if n < 0 {
		return 0
	}
	if n > maxLevel {
		return maxLevel
	}
	return n
}

func hasStyleMarker(p *docx.Paragraph, markers []string) bool {
	id := strings.ToLower(p.StyleID)
	name := strings.ToLower(heading.Normalize(p.StyleName))
	for _, m := range markers {
		if strings.Contains(id, m) || strings.Contains(name, m) {
			return true
		}
	}
	return false
}
