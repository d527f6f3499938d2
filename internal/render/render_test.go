package render

import (
	"encoding/base64"
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ebrasseur/fichedoc/internal/docx"
	"github.com/ebrasseur/fichedoc/internal/htmlx"
)

func renderNodes(nodes []*html.Node) string {
	container := htmlx.Element(atom.Div)
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return htmlx.RenderChildren(container)
}

func textRun(text string) docx.Run {
	return docx.Run{Fragments: []docx.Fragment{{Kind: docx.FragText, Text: text}}}
}

func TestRunFormattingOrder(t *testing.T) {
	r := New(nil)
	run := textRun("important")
	run.Bold = true
	run.Italic = true
	run.Underline = true
	run.Color = "FF0000"

	got := renderNodes(r.Run(run))
	want := `<strong><em><u><span style="color:#ff0000">important</span></u></em></strong>`
	if got != want {
		t.Errorf("formatted run = %s, want %s", got, want)
	}
}

func TestRunHyperlink(t *testing.T) {
	r := New(nil)
	run := textRun("le site")
	run.Href = "https://example.com/projet"
	run.Bold = true

	got := renderNodes(r.Run(run))
	want := `<a href="https://example.com/projet"><strong>le site</strong></a>`
	if got != want {
		t.Errorf("hyperlink run = %s, want %s", got, want)
	}
}

func TestRunAutoLink(t *testing.T) {
	r := New(nil)
	got := renderNodes(r.Run(textRun("Voir https://example.com/fiche pour le détail.")))
	if !strings.Contains(got, `<a href="https://example.com/fiche">https://example.com/fiche</a>`) {
		t.Errorf("bare URL not linked: %s", got)
	}
	if !strings.HasPrefix(got, "Voir ") || !strings.HasSuffix(got, " pour le détail.") {
		t.Errorf("surrounding text mangled: %s", got)
	}
}

func TestRunNoDoubleLink(t *testing.T) {
	r := New(nil)
	run := textRun("https://example.com")
	run.Href = "https://example.com"
	got := renderNodes(r.Run(run))
	if strings.Count(got, "<a ") != 1 {
		t.Errorf("URL linked twice: %s", got)
	}
}

func TestRunBreaksAndTabs(t *testing.T) {
	r := New(nil)
	run := docx.Run{Fragments: []docx.Fragment{
		{Kind: docx.FragText, Text: "ligne un"},
		{Kind: docx.FragBreak},
		{Kind: docx.FragText, Text: "ligne deux"},
	}}
	got := renderNodes(r.Run(run))
	if !strings.Contains(got, "ligne un<br/>ligne deux") {
		t.Errorf("break lost: %s", got)
	}
}

func TestItemStripsTypedMarker(t *testing.T) {
	r := New(nil)
	p := para("- Premier point")
	got := renderNodes(r.Item(p, "- "))
	if got != "Premier point" {
		t.Errorf("marker not stripped: %q", got)
	}
	// Original paragraph is untouched.
	if p.Text() != "- Premier point" {
		t.Errorf("source paragraph mutated: %q", p.Text())
	}
}

// 1x1 transparent PNG.
var pngPixel, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg==")

func imageRun(img *docx.Image) docx.Run {
	return docx.Run{Fragments: []docx.Fragment{{Kind: docx.FragImage, Image: img}}}
}

func TestImageInline(t *testing.T) {
	r := New(nil)
	got := renderNodes(r.Run(imageRun(&docx.Image{Name: "plan.png", MIME: "image/png", Data: pngPixel})))
	if !strings.Contains(got, `src="data:image/png;base64,`) {
		t.Errorf("renderable image not inlined: %s", got)
	}
	if !strings.Contains(got, `alt="plan.png"`) {
		t.Errorf("alt lost: %s", got)
	}
	if arts := r.TakeArtifacts(); len(arts) != 0 {
		t.Errorf("inline image produced artifacts: %+v", arts)
	}
}

func TestImageUnsupportedBecomesArtifact(t *testing.T) {
	r := New(nil)
	got := renderNodes(r.Run(imageRun(&docx.Image{Name: "schema.emf", MIME: "image/x-emf", Data: []byte{1, 2, 3}})))

	if !strings.Contains(got, `class="unsupported-image"`) {
		t.Errorf("no placeholder for unsupported image: %s", got)
	}
	if !strings.Contains(got, "à télécharger séparément") {
		t.Errorf("placeholder text missing: %s", got)
	}
	arts := r.TakeArtifacts()
	if len(arts) != 1 {
		t.Fatalf("want 1 artifact, got %d", len(arts))
	}
	if arts[0].Filename != "schema.emf" || arts[0].MIME != "image/x-emf" {
		t.Errorf("artifact = %+v", arts[0])
	}
	if !strings.Contains(got, `data-artifact="`+arts[0].ID+`"`) {
		t.Errorf("placeholder not linked to artifact: %s", got)
	}
	if len(r.TakeArtifacts()) != 0 {
		t.Error("TakeArtifacts did not drain")
	}
}

func TestImageCorruptBytes(t *testing.T) {
	r := New(nil)
	got := renderNodes(r.Run(imageRun(&docx.Image{Name: "photo.png", MIME: "image/png", Data: []byte("pas un png")})))
	if !strings.Contains(got, `class="image-error"`) {
		t.Errorf("corrupt image not flagged: %s", got)
	}
	if strings.Contains(got, "<img") {
		t.Errorf("corrupt image inlined anyway: %s", got)
	}
}

func TestImageMissingData(t *testing.T) {
	r := New(nil)
	got := renderNodes(r.Run(imageRun(nil)))
	if !strings.Contains(got, "[image illisible]") {
		t.Errorf("missing image not flagged: %s", got)
	}
}

func TestTable(t *testing.T) {
	r := New(nil)
	tbl := &docx.Table{Rows: []docx.TableRow{
		{Cells: []docx.TableCell{
			{Blocks: []docx.Block{{Paragraph: para("Poste")}}},
			{Blocks: []docx.Block{{Paragraph: para("Montant")}}},
		}},
	}}
	got := renderNodes([]*html.Node{r.Table(tbl, nil)})
	want := `<table><tr><td><p>Poste</p></td><td><p>Montant</p></td></tr></table>`
	if got != want {
		t.Errorf("table = %s, want %s", got, want)
	}
}

func para(text string) *docx.Paragraph {
	return &docx.Paragraph{Ilvl: -1, Runs: []docx.Run{textRun(text)}}
}
