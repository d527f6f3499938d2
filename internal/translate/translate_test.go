package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestChunksRespectBlockBoundaries(t *testing.T) {
	p := "<p>" + strings.Repeat("a", 40) + "</p>"
	in := p + p + p
	chunks, err := Chunks(in, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("want 2 chunks, got %d: %v", len(chunks), chunks)
	}
	for i, c := range chunks {
		if !strings.HasPrefix(c, "<p>") || !strings.HasSuffix(c, "</p>") {
			t.Errorf("chunk %d cut inside a block: %q", i, c)
		}
	}
}

func TestChunksSplitOversizeList(t *testing.T) {
	var items strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&items, "<li>point numéro %d %s</li>", i, strings.Repeat("x", 30))
	}
	in := "<ol>" + items.String() + "</ol>"

	chunks, err := Chunks(in, 120)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("oversize list not split: %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if !strings.HasPrefix(c, "<ol") || !strings.HasSuffix(c, "</ol>") {
			t.Errorf("chunk %d is not a standalone list: %q", i, c)
		}
	}
	// Numbering continues across the split.
	if !strings.Contains(strings.Join(chunks, ""), `<ol start="`) {
		t.Errorf("continuation chunks missing start attribute: %v", chunks)
	}
}

func TestChunksSingleOversizeBlock(t *testing.T) {
	in := "<p>" + strings.Repeat("b", 500) + "</p>"
	chunks, err := Chunks(in, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("indivisible block split: %d chunks", len(chunks))
	}
}

func TestHTMLTranslatesChunks(t *testing.T) {
	fn := func(_ context.Context, chunk string) (string, error) {
		return strings.ReplaceAll(chunk, "bonjour", "goedendag"), nil
	}
	got, err := HTML(context.Background(), "marche", "<p>bonjour</p><p>bonjour encore</p>", fn, 0)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "bonjour") || !strings.Contains(got, "goedendag") {
		t.Errorf("translation not applied: %s", got)
	}
}

func TestHTMLChunkError(t *testing.T) {
	boom := errors.New("backend down")
	fn := func(_ context.Context, chunk string) (string, error) {
		return "", boom
	}
	_, err := HTML(context.Background(), "budget", "<p>texte</p>", fn, 0)
	if err == nil {
		t.Fatal("want error")
	}
	var ce *ChunkError
	if !errors.As(err, &ce) {
		t.Fatalf("want *ChunkError, got %T", err)
	}
	if ce.Field != "budget" || ce.Index != 0 || !errors.Is(err, boom) {
		t.Errorf("chunk error fields: %+v", ce)
	}
}

func TestHTMLSkipsMarkupOnlyChunks(t *testing.T) {
	calls := 0
	fn := func(_ context.Context, chunk string) (string, error) {
		calls++
		return chunk, nil
	}
	in := `<p><img src="data:image/png;base64,AA=="/></p>`
	got, err := HTML(context.Background(), "localisation", in, fn, 0)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("markup-only chunk sent to backend %d times", calls)
	}
	if !strings.Contains(got, "<img") {
		t.Errorf("markup-only chunk lost: %s", got)
	}
}

func TestHTMLSanitizesBackendOutput(t *testing.T) {
	fn := func(_ context.Context, chunk string) (string, error) {
		return `<p>vertaald</p><script>alert(1)</script>`, nil
	}
	got, err := HTML(context.Background(), "marche", "<p>texte</p>", fn, 0)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "<script") {
		t.Errorf("script survived sanitization: %s", got)
	}
	if !strings.Contains(got, "vertaald") {
		t.Errorf("translated text lost: %s", got)
	}
}
