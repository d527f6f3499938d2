package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
)

func TestMarkdown(t *testing.T) {
	got := Markdown(`<p>Un <strong>projet</strong> solide.</p><ul><li>Premier</li><li>Second</li></ul>`)
	if !strings.Contains(got, "**projet**") {
		t.Errorf("bold not converted: %q", got)
	}
	if !strings.Contains(got, "- Premier") {
		t.Errorf("list not converted: %q", got)
	}
	if Markdown("  ") != "" {
		t.Error("blank input should yield empty markdown")
	}
}

func TestMarkdownTable(t *testing.T) {
	got := Markdown(`<table><tr><td>Poste</td><td>Montant</td></tr><tr><td>Travaux</td><td>1 200 000</td></tr></table>`)
	if !strings.Contains(got, "|") {
		t.Errorf("table not converted: %q", got)
	}
}

func TestWriteCSV(t *testing.T) {
	p := &Payload{Fields: []FieldResult{
		{Key: "intro", FR: "<p>Texte, avec virgule</p>", NLKey: "intro_nl", NL: "<p>Tekst</p>"},
		{Key: "budget", FR: "", NLKey: "budget_nl", NL: ""},
	}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, p); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("want header + 2 rows, got %d", len(rows))
	}
	wantHeader := []string{"key", "fr", "nl_key", "nl"}
	for i, h := range wantHeader {
		if rows[0][i] != h {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], h)
		}
	}
	if rows[1][1] != "<p>Texte, avec virgule</p>" {
		t.Errorf("comma field mangled: %q", rows[1][1])
	}
}
