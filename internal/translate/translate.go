// Package translate converts the French HTML of a section into Dutch
// while preserving markup. A section is chunked on block boundaries so
// each call stays inside the backend's comfortable size, and every
// translated chunk is sanitized before being stitched back together.
package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Func translates one HTML chunk from French to Dutch.
type Func func(ctx context.Context, chunk string) (string, error)

// ChunkError reports which chunk of which field failed.
type ChunkError struct {
	Field string
	Index int
	Chunk string
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("translate field %s chunk %d: %v", e.Field, e.Index, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// policy admits the markup the renderer emits and nothing more.
var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("style").OnElements("span", "ul", "ol")
	p.AllowAttrs("class", "data-artifact").OnElements("span")
	p.AllowDataURIImages()
	return p
}

// HTML translates a section's HTML field by field. maxChunkChars bounds
// the size of each backend call; chunks whose text content is empty
// (markup-only, e.g. a bare image) pass through untranslated.
func HTML(ctx context.Context, field, sectionHTML string, fn Func, maxChunkChars int) (string, error) {
	if strings.TrimSpace(sectionHTML) == "" {
		return "", nil
	}
	chunks, err := Chunks(sectionHTML, maxChunkChars)
	if err != nil {
		return "", fmt.Errorf("chunk field %s: %w", field, err)
	}

	var out strings.Builder
	for i, chunk := range chunks {
		if !hasText(chunk) {
			out.WriteString(chunk)
			continue
		}
		translated, err := fn(ctx, chunk)
		if err != nil {
			return "", &ChunkError{Field: field, Index: i, Chunk: chunk, Err: err}
		}
		out.WriteString(policy.Sanitize(translated))
	}
	return out.String(), nil
}

// Demo is the offline fallback backend: it tags chunks instead of
// translating them, so the rest of the pipeline can be exercised
// without credentials.
func Demo() Func {
	return func(_ context.Context, chunk string) (string, error) {
		return "[NL] " + chunk, nil
	}
}
