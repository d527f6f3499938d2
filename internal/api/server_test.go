package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ebrasseur/fichedoc/internal/config"
	"github.com/ebrasseur/fichedoc/internal/export"
	"github.com/ebrasseur/fichedoc/internal/pipeline"
	"github.com/ebrasseur/fichedoc/internal/schema"
	"github.com/ebrasseur/fichedoc/internal/translate"
)

func testServer(apiKey string, translator translate.Func) *Server {
	cfg := config.Config{
		APIKey:         apiKey,
		MaxUploadBytes: 1 << 20,
	}
	sc := schema.Default()
	p := pipeline.New(nil, sc, nil, 0)
	return NewServer(p, sc, translator, nil, cfg)
}

func fixtureDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(doc))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func multipartUpload(t *testing.T, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	srv := testServer("", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	srv := testServer("secret", nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schema", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: %d", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Errorf("WWW-Authenticate = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("rejection content type = %q", got)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("rejection not a json error: %s", rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/schema", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/schema", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("good token: %d %s", rec.Code, rec.Body.String())
	}
}

func TestConvert(t *testing.T) {
	srv := testServer("", nil)
	docx := fixtureDocx(t, "Introduction", "Un beau projet.", "Budget", "Les chiffres.")
	body, contentType := multipartUpload(t, "fiche.docx", docx, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("convert = %d %s", rec.Code, rec.Body.String())
	}
	var payload export.Payload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Fields) != 12 {
		t.Errorf("fields = %d, want 12", len(payload.Fields))
	}
	for _, f := range payload.Fields {
		if f.Key == "budget" && !strings.Contains(f.FR, "chiffres") {
			t.Errorf("budget = %+v", f)
		}
	}
}

func TestConvertRejectsNonDocx(t *testing.T) {
	srv := testServer("", nil)
	body, contentType := multipartUpload(t, "fiche.pdf", []byte("%PDF"), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("pdf upload = %d, want 400", rec.Code)
	}
}

func TestConvertRejectsCorruptDocx(t *testing.T) {
	srv := testServer("", nil)
	body, contentType := multipartUpload(t, "fiche.docx", []byte("pas un zip"), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("corrupt docx = %d, want 422", rec.Code)
	}
}

func TestConvertTranslateWithoutBackend(t *testing.T) {
	srv := testServer("", nil)
	docx := fixtureDocx(t, "Introduction", "Texte.")
	body, contentType := multipartUpload(t, "fiche.docx", docx, map[string]string{"translate": "true"})

	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("translate without backend = %d, want 400", rec.Code)
	}
}

func TestConvertWithTranslation(t *testing.T) {
	demo := func(_ context.Context, chunk string) (string, error) {
		return "[NL] " + chunk, nil
	}
	srv := testServer("", demo)
	docx := fixtureDocx(t, "Introduction", "Texte.")
	body, contentType := multipartUpload(t, "fiche.docx", docx, map[string]string{"translate": "true"})

	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("convert = %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "[NL]") {
		t.Errorf("translation missing from payload: %s", rec.Body.String())
	}
}

func TestConvertCSV(t *testing.T) {
	srv := testServer("", nil)
	docx := fixtureDocx(t, "Introduction", "Texte.")
	body, contentType := multipartUpload(t, "fiche.docx", docx, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/convert/csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("convert csv = %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "key,fr,nl_key,nl") {
		t.Errorf("csv header missing: %s", rec.Body.String())
	}
}

func TestConvertSchemaOverride(t *testing.T) {
	srv := testServer("", nil)
	docx := fixtureDocx(t, "Résumé", "Texte du résumé.")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "fiche.docx")
	fw.Write(docx)
	sw, _ := mw.CreateFormFile("schema", "schema.yaml")
	sw.Write([]byte("fields:\n  - key: resume\n    label: Résumé\n    nl_key: resume_nl\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/convert", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("convert = %d %s", rec.Code, rec.Body.String())
	}
	var payload export.Payload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Fields) != 1 || payload.Fields[0].Key != "resume" {
		t.Errorf("schema override ignored: %+v", payload.Fields)
	}
	if !strings.Contains(payload.Fields[0].FR, "résumé") {
		t.Errorf("content not routed to overridden field: %+v", payload.Fields[0])
	}
}
