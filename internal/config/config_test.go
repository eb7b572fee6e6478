package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// clearEnv blanks every variable Load reads so the host environment does not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "HOST", "PORT", "DATABASE_URL", "REDIS_URL", "INDEX_DIR",
		"OPENAI_API_KEY",
		"EMBEDDING_PROVIDER", "EMBEDDING_API_KEY", "EMBEDDING_MODEL", "EMBEDDING_BASE_URL", "EMBEDDING_BATCH_SIZE",
		"LLM_PROVIDER", "LLM_API_KEY", "LLM_MODEL", "LLM_BASE_URL", "ANSWER_TEMPERATURE",
		"CHUNK_SIZE", "CHUNK_OVERLAP", "CHUNK_DEDUPLICATE", "RETRIEVAL_TOP_K",
		"SESSION_MESSAGE_LIMIT", "SESSION_WINDOW_SEC", "UPLOAD_RATE_LIMIT", "UPLOAD_RATE_WINDOW_SEC",
		"MAX_UPLOAD_BYTES", "UPLOAD_TIMEOUT_SEC", "QUERY_TIMEOUT_SEC", "CORS_ALLOWED_ORIGINS",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Port)
	}
	if cfg.IndexDir != "faiss" {
		t.Errorf("expected index dir faiss, got %s", cfg.IndexDir)
	}
	if cfg.Chunking.Size != 1000 || cfg.Chunking.Overlap != 500 {
		t.Errorf("expected chunking 1000/500, got %d/%d", cfg.Chunking.Size, cfg.Chunking.Overlap)
	}
	if cfg.RetrievalTopK != 7 {
		t.Errorf("expected top k 7, got %d", cfg.RetrievalTopK)
	}
	if cfg.SessionMessageLimit != 5 || cfg.SessionWindow() != time.Minute {
		t.Errorf("expected 5 messages per minute, got %d per %v", cfg.SessionMessageLimit, cfg.SessionWindow())
	}
	if cfg.UploadRateLimit != 5 || cfg.UploadRateWindow() != time.Minute {
		t.Errorf("expected 5 uploads per minute, got %d per %v", cfg.UploadRateLimit, cfg.UploadRateWindow())
	}
	if cfg.LLM.Temperature != 0.4 {
		t.Errorf("expected temperature 0.4, got %v", cfg.LLM.Temperature)
	}
	if cfg.UploadTimeout() != 5*time.Minute || cfg.QueryTimeout() != 90*time.Second {
		t.Errorf("unexpected timeouts %v/%v", cfg.UploadTimeout(), cfg.QueryTimeout())
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("expected CORS *, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.DatabaseURL != "" || cfg.RedisURL != "" {
		t.Error("expected no database or redis by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://db/pdfqa")
	t.Setenv("EMBEDDING_PROVIDER", "ollama")
	t.Setenv("EMBEDDING_MODEL", "nomic-embed-text")
	t.Setenv("ANSWER_TEMPERATURE", "0.1")
	t.Setenv("CHUNK_DEDUPLICATE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("unexpected addr %s", cfg.Addr())
	}
	if cfg.DatabaseURL != "postgres://db/pdfqa" {
		t.Errorf("unexpected database url %s", cfg.DatabaseURL)
	}
	emb := cfg.EmbeddingSettings()
	if emb.Provider != domain.AIProviderOllama || emb.Model != "nomic-embed-text" {
		t.Errorf("unexpected embedding settings %+v", emb)
	}
	if !emb.IsConfigured() {
		t.Error("expected ollama embedding to be configured without a key")
	}
	if cfg.LLM.Temperature != 0.1 {
		t.Errorf("expected temperature 0.1, got %v", cfg.LLM.Temperature)
	}
	if !cfg.Chunking.Deduplicate {
		t.Error("expected deduplicate to be enabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_SharedAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-shared")
	t.Setenv("LLM_API_KEY", "sk-llm")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.EmbeddingSettings().APIKey != "sk-shared" {
		t.Errorf("expected embedding to use the shared key, got %q", cfg.Embedding.APIKey)
	}
	if cfg.LLMSettings().APIKey != "sk-llm" {
		t.Errorf("expected llm to use its own key, got %q", cfg.LLM.APIKey)
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "pdfqa.yaml")
	content := `
port: 7000
index_dir: /var/lib/pdfqa
llm:
  provider: gemini
  api_key: from-file
chunking:
  size: 400
  overlap: 100
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 7001 {
		t.Errorf("expected env to override file port, got %d", cfg.Port)
	}
	if cfg.IndexDir != "/var/lib/pdfqa" {
		t.Errorf("expected index dir from file, got %s", cfg.IndexDir)
	}
	if cfg.LLM.Provider != "gemini" || cfg.LLM.APIKey != "from-file" {
		t.Errorf("unexpected llm config %+v", cfg.LLM)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("expected unset file keys to keep defaults, got model %s", cfg.LLM.Model)
	}
	if cfg.Chunking.Size != 400 || cfg.Chunking.Overlap != 100 {
		t.Errorf("unexpected chunking %+v", cfg.Chunking)
	}
}

func TestLoad_FileErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("port: [not an int"), 0o644)
	t.Setenv("CONFIG_FILE", path)
	if _, err := Load(); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"empty index dir", func(c *Config) { c.IndexDir = "" }},
		{"unknown embedding provider", func(c *Config) { c.Embedding.Provider = "cohere" }},
		{"unknown llm provider", func(c *Config) { c.LLM.Provider = "anthropic" }},
		{"zero chunk size", func(c *Config) { c.Chunking.Size = 0 }},
		{"overlap too large", func(c *Config) { c.Chunking.Overlap = 1000 }},
		{"zero top k", func(c *Config) { c.RetrievalTopK = 0 }},
		{"zero session limit", func(c *Config) { c.SessionMessageLimit = 0 }},
		{"zero upload window", func(c *Config) { c.UploadRateWindowSec = 0 }},
		{"zero max upload", func(c *Config) { c.MaxUploadBytes = 0 }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("expected defaults to be valid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidate_InvalidProviderIsTyped(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "anthropic"

	if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidProvider) {
		t.Errorf("expected ErrInvalidProvider, got %v", err)
	}
}
