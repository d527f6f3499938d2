// Package pipeline runs a fact sheet end to end: read the document,
// split it into CRM sections, repair the markup, apply the mandatory
// orderings and optionally translate each field.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ebrasseur/fichedoc/internal/docx"
	"github.com/ebrasseur/fichedoc/internal/export"
	"github.com/ebrasseur/fichedoc/internal/heading"
	"github.com/ebrasseur/fichedoc/internal/render"
	"github.com/ebrasseur/fichedoc/internal/renumber"
	"github.com/ebrasseur/fichedoc/internal/repair"
	"github.com/ebrasseur/fichedoc/internal/schema"
	"github.com/ebrasseur/fichedoc/internal/segment"
	"github.com/ebrasseur/fichedoc/internal/translate"
)

// Options adjusts one conversion. Zero values fall back to the
// pipeline defaults.
type Options struct {
	Schema        *schema.Schema
	Mapping       map[string]string
	Translator    translate.Func
	MaxChunkChars int
}

// Pipeline holds the defaults shared by every conversion.
type Pipeline struct {
	log           *slog.Logger
	schema        *schema.Schema
	mapping       map[string]string
	maxChunkChars int
}

func New(log *slog.Logger, s *schema.Schema, mapping map[string]string, maxChunkChars int) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if s == nil {
		s = schema.Default()
	}
	if mapping == nil {
		mapping = map[string]string{}
	}
	if maxChunkChars <= 0 {
		maxChunkChars = translate.DefaultMaxChunkChars
	}
	return &Pipeline{
		log:           log,
		schema:        s,
		mapping:       mapping,
		maxChunkChars: maxChunkChars,
	}
}

// Process converts one .docx into the CRM payload. Translation runs
// only when opts.Translator is set; a field whose translation fails is
// delivered with an inline error marker rather than failing the whole
// document.
func (p *Pipeline) Process(ctx context.Context, data []byte, opts Options) (*export.Payload, error) {
	s := opts.Schema
	if s == nil {
		s = p.schema
	}
	mapping := opts.Mapping
	if mapping == nil {
		mapping = p.mapping
	}
	maxChunk := opts.MaxChunkChars
	if maxChunk <= 0 {
		maxChunk = p.maxChunkChars
	}

	doc, err := docx.Read(data)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	idx := heading.NewIndex(s.Labels(), mapping)
	r := render.New(p.log)
	seg := segment.Segment(doc, idx, r, segment.DefaultFor(s.Labels()), p.log)

	payload := &export.Payload{
		UnmappedHeadings: seg.UnmappedHeadings,
	}
	for _, field := range s.Fields {
		fr := &export.FieldResult{
			Key:   field.Key,
			Label: field.Label,
			NLKey: field.NLKey,
		}
		if sec, ok := seg.Sections[field.Label]; ok {
			html, err := repair.RunHTML(sec.HTML())
			if err != nil {
				return nil, fmt.Errorf("repair section %s: %w", field.Key, err)
			}
			html = renumber.Renumber(html, field.Label)
			fr.FR = html
			fr.FRMarkdown = export.Markdown(html)
			fr.Found = html != ""
			payload.Artifacts = append(payload.Artifacts, sec.Artifacts...)
		}

		if opts.Translator != nil && fr.FR != "" {
			nl, err := translate.HTML(ctx, field.Key, fr.FR, opts.Translator, maxChunk)
			if err != nil {
				if ctx.Err() != nil {
					return nil, err
				}
				p.log.Warn("translation failed", "field", field.Key, "error", err)
				nl = fmt.Sprintf("[NL ERREUR: %v]", err)
			}
			fr.NL = nl
		}
		payload.Fields = append(payload.Fields, *fr)
	}
	return payload, nil
}
