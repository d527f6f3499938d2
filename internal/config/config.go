package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Translation backends.
const (
	BackendNone     = "none"
	BackendDemo     = "demo"
	BackendOpenAI   = "openai"
	BackendLibre    = "libretranslate"
	BackendMyMemory = "mymemory"
)

type Config struct {
	Port string

	// Auth. Empty disables authentication (local use).
	APIKey string

	// CRM schema and heading mapping, YAML. Empty paths use the
	// built-in defaults.
	SchemaPath  string
	MappingPath string

	// Upload limits
	MaxUploadBytes int64

	// Translation
	TranslateBackend string
	MaxChunkChars    int

	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAISystemPrompt string

	LibreURL    string
	LibreAPIKey string

	MyMemoryEmail string

	// Server timeouts
	ShutdownTimeout time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("FICHEDOC_API_KEY"),

		SchemaPath:  os.Getenv("SCHEMA_PATH"),
		MappingPath: os.Getenv("MAPPING_PATH"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 26214400), // 25MB

		TranslateBackend: envOr("TRANSLATE_BACKEND", BackendNone),
		MaxChunkChars:    envInt("MAX_CHUNK_CHARS", 4500),

		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        envOr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAISystemPrompt: os.Getenv("OPENAI_SYSTEM_PROMPT"),

		LibreURL:    envOr("LIBRETRANSLATE_URL", "http://localhost:5000"),
		LibreAPIKey: os.Getenv("LIBRETRANSLATE_API_KEY"),

		MyMemoryEmail: os.Getenv("MYMEMORY_EMAIL"),

		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 26214400
	}
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = 4500
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.TranslateBackend {
	case BackendNone, BackendDemo, BackendLibre, BackendMyMemory:
	case BackendOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required with TRANSLATE_BACKEND=openai")
		}
	default:
		return fmt.Errorf("unknown TRANSLATE_BACKEND %q", c.TranslateBackend)
	}
	if c.SchemaPath != "" {
		if _, err := os.Stat(c.SchemaPath); err != nil {
			return fmt.Errorf("SCHEMA_PATH: %w", err)
		}
	}
	if c.MappingPath != "" {
		if _, err := os.Stat(c.MappingPath); err != nil {
			return fmt.Errorf("MAPPING_PATH: %w", err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
