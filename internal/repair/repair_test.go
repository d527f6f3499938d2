package repair

import (
	"strings"
	"testing"

	"github.com/ebrasseur/fichedoc/internal/htmlx"
)

func repaired(t *testing.T, in string) string {
	t.Helper()
	out, err := RunHTML(in)
	if err != nil {
		t.Fatalf("RunHTML(%q): %v", in, err)
	}
	return out
}

func TestDropBulletOnly(t *testing.T) {
	in := `<p>Intro.</p><p>•</p><ul><li>- </li><li>Vrai point</li></ul>`
	got := repaired(t, in)

	if strings.Contains(got, "<p>•</p>") {
		t.Errorf("bullet-only paragraph kept: %s", got)
	}
	if strings.Count(got, "<li>") != 1 {
		t.Errorf("bullet-only item kept: %s", got)
	}
	if !strings.Contains(got, "Vrai point") {
		t.Errorf("real item lost: %s", got)
	}
}

func TestDropBulletOnlyKeepsImages(t *testing.T) {
	in := `<p>- <img src="data:image/png;base64,AA=="/></p>`
	got := repaired(t, in)
	if !strings.Contains(got, "<img") {
		t.Errorf("image paragraph dropped: %s", got)
	}
}

func TestDropEmptyNestedParagraph(t *testing.T) {
	in := `<ul><li><p></p>Texte</li></ul>`
	got := repaired(t, in)
	if strings.Contains(got, "<p>") {
		t.Errorf("empty nested paragraph kept: %s", got)
	}
	if !strings.Contains(got, "Texte") {
		t.Errorf("item text lost: %s", got)
	}
}

func TestCollapseWrapperSameKind(t *testing.T) {
	in := `<ul><li>Avant</li><li><ul><li>Un</li><li>Deux</li></ul></li><li>Après</li></ul>`
	got := repaired(t, in)

	if strings.Count(got, "<ul>") != 1 {
		t.Errorf("nested wrapper survived: %s", got)
	}
	for _, w := range []string{"Avant", "Un", "Deux", "Après"} {
		if !strings.Contains(got, "<li>"+w+"</li>") {
			t.Errorf("item %q not flattened: %s", w, got)
		}
	}
}

func TestCollapseWrapperDifferentKind(t *testing.T) {
	// A single-item ul wrapping an ol is the converter's way of writing
	// an ordered list.
	in := `<ul><li><ol><li>Un</li><li>Deux</li></ol></li></ul>`
	got := repaired(t, in)

	if strings.Contains(got, "<ul>") {
		t.Errorf("wrapper ul survived: %s", got)
	}
	if !strings.Contains(got, "<ol>") {
		t.Errorf("inner ol lost: %s", got)
	}
}

func TestUnwrapItemlessList(t *testing.T) {
	in := `<ul><ul><li>Seul</li></ul></ul>`
	got := repaired(t, in)
	if strings.Count(got, "<ul>") != 1 {
		t.Errorf("itemless wrapper survived: %s", got)
	}
}

func TestMergeSplitOrderedLists(t *testing.T) {
	in := `<ol><li>Un</li><li>Deux</li></ol>` +
		`<p>Note : les chiffres sont hors taxes.</p>` +
		`<ol><li>Trois</li></ol>`
	got := repaired(t, in)

	if strings.Count(got, "<ol>") != 1 {
		t.Errorf("split lists not merged: %s", got)
	}
	if !strings.Contains(got, "Note : les chiffres sont hors taxes.") {
		t.Errorf("continuation note lost: %s", got)
	}
	// The note belongs to the last item before the break.
	if !strings.Contains(got, "<li>Deux<p>Note : les chiffres sont hors taxes.</p></li>") {
		t.Errorf("note not attached to preceding item: %s", got)
	}
}

func TestMergeSkipsEmptiedFirstList(t *testing.T) {
	// The bullet-only rule empties the first list in the same pass; the
	// note between the lists must survive the merge rule.
	in := `<ol><li>•</li></ol>` +
		`<p>Note importante sur les chiffres</p>` +
		`<ol><li>Trois</li></ol>`
	got := repaired(t, in)

	if !strings.Contains(got, "Note importante sur les chiffres") {
		t.Fatalf("note paragraph lost: %s", got)
	}
	if !strings.Contains(got, "<li>Trois</li>") {
		t.Errorf("second list damaged: %s", got)
	}
	if strings.Contains(got, "<ol></ol>") {
		t.Errorf("emptied list kept: %s", got)
	}
}

func TestDropEmptyLists(t *testing.T) {
	in := `<p>Avant</p><ul><li>-</li><li> • </li></ul><p>Après</p>`
	got := repaired(t, in)

	if strings.Contains(got, "<ul") {
		t.Errorf("emptied list kept: %s", got)
	}
	if !strings.Contains(got, "Avant") || !strings.Contains(got, "Après") {
		t.Errorf("surrounding paragraphs lost: %s", got)
	}
}

func TestMergeStopsAtBoldHeading(t *testing.T) {
	in := `<ol><li>Un</li></ol>` +
		`<p><strong>Calendrier</strong></p>` +
		`<ol><li>Deux</li></ol>`
	got := repaired(t, in)

	if strings.Count(got, "<ol>") != 2 {
		t.Errorf("lists merged across a heading-shaped paragraph: %s", got)
	}
}

func TestPromoteMisnestedSublist(t *testing.T) {
	in := `<ol>` +
		`<li>Le premier risque concerne le calendrier du chantier et ses aléas.` +
		`<ol>` +
		`<li>Le second risque concerne la commercialisation des lots restants.</li>` +
		`<li>Le troisième risque concerne le refinancement de la dette senior.</li>` +
		`</ol>` +
		`</li>` +
		`</ol>`
	got := repaired(t, in)

	if strings.Count(got, "<ol>") != 1 {
		t.Errorf("mis-nested sublist not promoted: %s", got)
	}
	if strings.Count(got, "<li>") != 3 {
		t.Errorf("want 3 sibling items, got: %s", got)
	}
}

func TestPromoteKeepsGenuineOutline(t *testing.T) {
	// Short labels under a short parent are a real outline.
	in := `<ol><li>Phases<ol><li>Achat</li><li>Travaux</li></ol></li></ol>`
	got := repaired(t, in)
	if strings.Count(got, "<ol>") != 2 {
		t.Errorf("genuine outline flattened: %s", got)
	}
}

func TestRunReachesFixedPoint(t *testing.T) {
	in := `<ul><li><ul><li>•</li><li><ul><li>Un</li></ul></li></ul></li></ul>` +
		`<ol><li>Deux</li></ol><p>suite</p><ol><li>Trois</li></ol>`
	container, err := htmlx.ParseFragment(in)
	if err != nil {
		t.Fatal(err)
	}
	if passes := Run(container); passes >= MaxPasses {
		t.Fatalf("no fixed point within %d passes", MaxPasses)
	}
	// A second run is a no-op.
	if Apply(container) != 0 {
		t.Errorf("repair not idempotent: %s", htmlx.RenderChildren(container))
	}
}
