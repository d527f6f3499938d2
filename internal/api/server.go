package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ebrasseur/fichedoc/internal/config"
	"github.com/ebrasseur/fichedoc/internal/pipeline"
	"github.com/ebrasseur/fichedoc/internal/schema"
	"github.com/ebrasseur/fichedoc/internal/translate"
)

// Server is the HTTP API server for fichedoc.
type Server struct {
	router     chi.Router
	pipeline   *pipeline.Pipeline
	schema     *schema.Schema
	translator translate.Func
	log        *slog.Logger
	cfg        config.Config
}

// NewServer creates and configures the HTTP server. translator may be
// nil when no translation backend is configured.
func NewServer(p *pipeline.Pipeline, s *schema.Schema, translator translate.Func, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.Default()
	}
	srv := &Server{
		pipeline:   p,
		schema:     s,
		translator: translator,
		log:        log,
		cfg:        cfg,
	}
	srv.setupRoutes()
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/convert", s.handleConvert)
		r.Post("/api/convert/csv", s.handleConvertCSV)
		r.Get("/api/schema", s.handleSchema)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
