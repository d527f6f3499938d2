// Package export assembles the final CRM payload: one entry per schema
// field with the French HTML, a markdown rendition, the Dutch
// translation when requested, and the artifacts that could not be
// inlined.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/ebrasseur/fichedoc/internal/render"
)

// FieldResult is one schema field filled from the document.
type FieldResult struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	FR         string `json:"fr"`
	FRMarkdown string `json:"fr_markdown"`
	NLKey      string `json:"nl_key"`
	NL         string `json:"nl"`
	Found      bool   `json:"found"`
}

// Payload is the full conversion result.
type Payload struct {
	Fields           []FieldResult     `json:"fields"`
	UnmappedHeadings []string          `json:"unmapped_headings,omitempty"`
	Artifacts        []render.Artifact `json:"artifacts,omitempty"`
}

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// Markdown renders a section's HTML as markdown. Conversion failures
// degrade to empty rather than aborting an export.
func Markdown(sectionHTML string) string {
	if strings.TrimSpace(sectionHTML) == "" {
		return ""
	}
	result, err := mdConverter.ConvertString(sectionHTML)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(result)
}

// WriteCSV writes the flat rendition of the payload.
func WriteCSV(w io.Writer, p *Payload) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"key", "fr", "nl_key", "nl"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, f := range p.Fields {
		if err := cw.Write([]string{f.Key, f.FR, f.NLKey, f.NL}); err != nil {
			return fmt.Errorf("write csv row %s: %w", f.Key, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
