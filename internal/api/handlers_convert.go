package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ebrasseur/fichedoc/internal/docx"
	"github.com/ebrasseur/fichedoc/internal/export"
	"github.com/ebrasseur/fichedoc/internal/pipeline"
	"github.com/ebrasseur/fichedoc/internal/schema"
)

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.convert(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) handleConvertCSV(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.convert(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="payload.csv"`)
	if err := export.WriteCSV(w, payload); err != nil {
		s.log.Error("write csv", "error", err)
	}
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.schema)
}

// convert parses the multipart form, runs the pipeline and writes the
// error response itself on failure.
func (s *Server) convert(w http.ResponseWriter, r *http.Request) (*export.Payload, bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".docx") {
		jsonError(w, fmt.Sprintf("unsupported file type: %s (only .docx)", filepath.Ext(filename)), http.StatusBadRequest)
		return nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return nil, false
	}

	opts := pipeline.Options{}

	if r.FormValue("translate") == "true" {
		if s.translator == nil {
			jsonError(w, "translation requested but no backend is configured", http.StatusBadRequest)
			return nil, false
		}
		opts.Translator = s.translator
	}

	// Per-request schema and mapping overrides, both optional.
	if sf, _, err := r.FormFile("schema"); err == nil {
		defer sf.Close()
		raw, err := io.ReadAll(io.LimitReader(sf, 1<<20))
		if err != nil {
			jsonError(w, "failed to read schema", http.StatusBadRequest)
			return nil, false
		}
		sc, err := schema.Parse(raw)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return nil, false
		}
		opts.Schema = sc
	}
	if mf, _, err := r.FormFile("mapping"); err == nil {
		defer mf.Close()
		raw, err := io.ReadAll(io.LimitReader(mf, 1<<20))
		if err != nil {
			jsonError(w, "failed to read mapping", http.StatusBadRequest)
			return nil, false
		}
		m, err := schema.ParseMapping(raw)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return nil, false
		}
		opts.Mapping = m.Mapping
	}

	payload, err := s.pipeline.Process(r.Context(), data, opts)
	if err != nil {
		var readErr *docx.ReadError
		if errors.As(err, &readErr) {
			jsonError(w, "invalid document: "+readErr.Error(), http.StatusUnprocessableEntity)
			return nil, false
		}
		s.log.Error("conversion failed", "file", filename, "error", err)
		jsonError(w, "conversion failed: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return payload, true
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
