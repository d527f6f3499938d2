package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ebrasseur/fichedoc/internal/api"
	"github.com/ebrasseur/fichedoc/internal/config"
	"github.com/ebrasseur/fichedoc/internal/pipeline"
	"github.com/ebrasseur/fichedoc/internal/schema"
	"github.com/ebrasseur/fichedoc/internal/translate"
)

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	sc, err := schema.Load(cfg.SchemaPath)
	if err != nil {
		log.Error("load schema", "error", err)
		os.Exit(1)
	}
	mapping, err := schema.LoadMapping(cfg.MappingPath)
	if err != nil {
		log.Error("load mapping", "error", err)
		os.Exit(1)
	}

	translator, closeTranslator := buildTranslator(cfg)

	p := pipeline.New(log, sc, mapping.Mapping, cfg.MaxChunkChars)
	srv := api.NewServer(p, sc, translator, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if closeTranslator != nil {
			closeTranslator()
		}
	}()

	log.Info("starting fichedoc", "port", cfg.Port, "backend", cfg.TranslateBackend)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// buildTranslator wires the configured backend. It returns a nil Func
// when translation is disabled.
func buildTranslator(cfg config.Config) (translate.Func, func()) {
	switch cfg.TranslateBackend {
	case config.BackendOpenAI:
		c := translate.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAISystemPrompt)
		return c.Translate, c.Close
	case config.BackendLibre:
		c := translate.NewLibreClient(cfg.LibreURL, cfg.LibreAPIKey)
		return c.Translate, c.Close
	case config.BackendMyMemory:
		c := translate.NewMyMemoryClient(cfg.MyMemoryEmail)
		return c.Translate, c.Close
	case config.BackendDemo:
		return translate.Demo(), nil
	default:
		return nil, nil
	}
}
