// Package config loads server configuration from defaults, an optional YAML
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// Config is the root configuration
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`
	IndexDir    string `yaml:"index_dir"`

	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Chunking  ChunkingConfig  `yaml:"chunking"`

	RetrievalTopK int `yaml:"retrieval_top_k"`

	SessionMessageLimit int `yaml:"session_message_limit"`
	SessionWindowSec    int `yaml:"session_window_sec"`

	UploadRateLimit     int   `yaml:"upload_rate_limit"`
	UploadRateWindowSec int   `yaml:"upload_rate_window_sec"`
	MaxUploadBytes      int64 `yaml:"max_upload_bytes"`
	UploadTimeoutSec    int   `yaml:"upload_timeout_sec"`
	QueryTimeoutSec     int   `yaml:"query_timeout_sec"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// EmbeddingConfig selects the embedding provider
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	BatchSize int    `yaml:"batch_size"`
}

// LLMConfig selects the chat completion provider
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
}

// ChunkingConfig controls how extracted text is split
type ChunkingConfig struct {
	Size        int  `yaml:"size"`
	Overlap     int  `yaml:"overlap"`
	Deduplicate bool `yaml:"deduplicate"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Host:     "0.0.0.0",
		Port:     8000,
		IndexDir: "faiss",
		Embedding: EmbeddingConfig{
			Provider:  string(domain.AIProviderOpenAI),
			Model:     "text-embedding-3-small",
			BatchSize: 64,
		},
		LLM: LLMConfig{
			Provider:    string(domain.AIProviderOpenAI),
			Model:       "gpt-4o-mini",
			Temperature: domain.DefaultAnswerTemperature,
		},
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 500,
		},
		RetrievalTopK:       domain.DefaultTopK,
		SessionMessageLimit: domain.DefaultSessionMessageLimit,
		SessionWindowSec:    int(domain.DefaultSessionWindow / time.Second),
		UploadRateLimit:     5,
		UploadRateWindowSec: 60,
		MaxUploadBytes:      50 << 20,
		UploadTimeoutSec:    300,
		QueryTimeoutSec:     90,
		CORSAllowedOrigins:  []string{"*"},
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// Load reads .env (if present), then CONFIG_FILE (if set), then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Host = getEnv("HOST", c.Host)
	c.Port = getEnvInt("PORT", c.Port)

	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.IndexDir = getEnv("INDEX_DIR", c.IndexDir)

	// OPENAI_API_KEY serves both providers unless a specific key is set.
	shared := os.Getenv("OPENAI_API_KEY")

	c.Embedding.Provider = getEnv("EMBEDDING_PROVIDER", c.Embedding.Provider)
	c.Embedding.APIKey = getEnv("EMBEDDING_API_KEY", firstNonEmpty(c.Embedding.APIKey, shared))
	c.Embedding.Model = getEnv("EMBEDDING_MODEL", c.Embedding.Model)
	c.Embedding.BaseURL = getEnv("EMBEDDING_BASE_URL", c.Embedding.BaseURL)
	c.Embedding.BatchSize = getEnvInt("EMBEDDING_BATCH_SIZE", c.Embedding.BatchSize)

	c.LLM.Provider = getEnv("LLM_PROVIDER", c.LLM.Provider)
	c.LLM.APIKey = getEnv("LLM_API_KEY", firstNonEmpty(c.LLM.APIKey, shared))
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.BaseURL = getEnv("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Temperature = getEnvFloat("ANSWER_TEMPERATURE", c.LLM.Temperature)

	c.Chunking.Size = getEnvInt("CHUNK_SIZE", c.Chunking.Size)
	c.Chunking.Overlap = getEnvInt("CHUNK_OVERLAP", c.Chunking.Overlap)
	c.Chunking.Deduplicate = getEnvBool("CHUNK_DEDUPLICATE", c.Chunking.Deduplicate)

	c.RetrievalTopK = getEnvInt("RETRIEVAL_TOP_K", c.RetrievalTopK)
	c.SessionMessageLimit = getEnvInt("SESSION_MESSAGE_LIMIT", c.SessionMessageLimit)
	c.SessionWindowSec = getEnvInt("SESSION_WINDOW_SEC", c.SessionWindowSec)
	c.UploadRateLimit = getEnvInt("UPLOAD_RATE_LIMIT", c.UploadRateLimit)
	c.UploadRateWindowSec = getEnvInt("UPLOAD_RATE_WINDOW_SEC", c.UploadRateWindowSec)
	c.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))
	c.UploadTimeoutSec = getEnvInt("UPLOAD_TIMEOUT_SEC", c.UploadTimeoutSec)
	c.QueryTimeoutSec = getEnvInt("QUERY_TIMEOUT_SEC", c.QueryTimeoutSec)

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORSAllowedOrigins = splitList(v)
	}

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// Validate checks values that would otherwise fail later at request time.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.IndexDir == "" {
		errs = append(errs, errors.New("index_dir must be set"))
	}
	if p := domain.AIProvider(c.Embedding.Provider); p != "" && !p.IsValid() {
		errs = append(errs, fmt.Errorf("%w: embedding provider %q", domain.ErrInvalidProvider, p))
	}
	if p := domain.AIProvider(c.LLM.Provider); p != "" && !p.IsValid() {
		errs = append(errs, fmt.Errorf("%w: llm provider %q", domain.ErrInvalidProvider, p))
	}
	if c.Chunking.Size <= 0 {
		errs = append(errs, fmt.Errorf("chunk size must be positive, got %d", c.Chunking.Size))
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		errs = append(errs, fmt.Errorf("chunk overlap must be in [0, %d), got %d", c.Chunking.Size, c.Chunking.Overlap))
	}
	if c.RetrievalTopK <= 0 {
		errs = append(errs, fmt.Errorf("retrieval_top_k must be positive, got %d", c.RetrievalTopK))
	}
	if c.SessionMessageLimit <= 0 || c.SessionWindowSec <= 0 {
		errs = append(errs, errors.New("session limit and window must be positive"))
	}
	if c.UploadRateLimit <= 0 || c.UploadRateWindowSec <= 0 {
		errs = append(errs, errors.New("upload rate limit and window must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("max_upload_bytes must be positive"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// EmbeddingSettings converts to the domain settings used by the AI factory
func (c *Config) EmbeddingSettings() *domain.EmbeddingSettings {
	return &domain.EmbeddingSettings{
		Provider:  domain.AIProvider(c.Embedding.Provider),
		Model:     c.Embedding.Model,
		APIKey:    c.Embedding.APIKey,
		BaseURL:   c.Embedding.BaseURL,
		BatchSize: c.Embedding.BatchSize,
	}
}

// LLMSettings converts to the domain settings used by the AI factory
func (c *Config) LLMSettings() *domain.LLMSettings {
	return &domain.LLMSettings{
		Provider: domain.AIProvider(c.LLM.Provider),
		Model:    c.LLM.Model,
		APIKey:   c.LLM.APIKey,
		BaseURL:  c.LLM.BaseURL,
	}
}

// SessionWindow returns the per-connection message window
func (c *Config) SessionWindow() time.Duration {
	return time.Duration(c.SessionWindowSec) * time.Second
}

// UploadRateWindow returns the upload limiter window
func (c *Config) UploadRateWindow() time.Duration {
	return time.Duration(c.UploadRateWindowSec) * time.Second
}

// UploadTimeout bounds one upload pipeline. Zero disables it.
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.UploadTimeoutSec) * time.Second
}

// QueryTimeout bounds one question. Zero disables it.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSec) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseFloat(value, 64); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
