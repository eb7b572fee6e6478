// Package runtime holds the AI services shared by the upload and question paths.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// Services holds the embedding and LLM clients.
// Either may be nil when its provider is not configured.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	embeddingService driven.EmbeddingService
	llmService       driven.LLMService
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// LLMService returns the current LLM service (may be nil)
func (s *Services) LLMService() driven.LLMService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.llmService
}

// SetEmbeddingService replaces the embedding service, closing the old one.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
	}

	s.embeddingService = svc
	s.config.SetEmbeddingAvailable(svc != nil)
}

// SetLLMService replaces the LLM service, closing the old one.
func (s *Services) SetLLMService(svc driven.LLMService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.llmService != nil {
		_ = s.llmService.Close()
	}

	s.llmService = svc
	s.config.SetLLMAvailable(svc != nil)
}

// Configure builds both services from settings through factory.
// Unconfigured providers leave the slot empty; factory errors are returned.
// When checkHealth is set each service is checked once and a failure is only logged,
// since the provider may come up after the server does.
func (s *Services) Configure(
	ctx context.Context,
	factory driven.AIServiceFactory,
	embedding *domain.EmbeddingSettings,
	llm *domain.LLMSettings,
	checkHealth bool,
	logger *slog.Logger,
) error {
	if logger == nil {
		logger = slog.Default()
	}

	emb, err := factory.CreateEmbeddingService(embedding)
	if err != nil {
		return fmt.Errorf("embedding service: %w", err)
	}
	gen, err := factory.CreateLLMService(llm)
	if err != nil {
		if emb != nil {
			_ = emb.Close()
		}
		return fmt.Errorf("llm service: %w", err)
	}

	if emb == nil {
		logger.Warn("embedding provider not configured, uploads and questions will fail")
	} else if checkHealth {
		if err := emb.HealthCheck(ctx); err != nil {
			logger.Warn("embedding provider not reachable", "model", emb.Model(), "error", err)
		}
	}
	if gen == nil {
		logger.Warn("llm provider not configured, questions will fail")
	} else if checkHealth {
		if err := gen.Ping(ctx); err != nil {
			logger.Warn("llm provider not reachable", "model", gen.Model(), "error", err)
		}
	}

	s.SetEmbeddingService(emb)
	s.SetLLMService(gen)
	return nil
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	if s.llmService != nil {
		_ = s.llmService.Close()
		s.llmService = nil
	}

	s.config.SetEmbeddingAvailable(false)
	s.config.SetLLMAvailable(false)

	return nil
}
