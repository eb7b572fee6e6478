package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driving"
	"github.com/custodia-labs/pdfqa/internal/runtime"
)

// Ensure questionService implements QuestionService
var _ driving.QuestionService = (*questionService)(nil)

// NoRelevantInformation is answered when retrieval returns nothing
const NoRelevantInformation = "No relevant information found in the document."

// QuestionServiceConfig holds dependencies for the question service
type QuestionServiceConfig struct {
	VectorIndex driven.VectorIndex
	Services    *runtime.Services
	Generator   *AnswerGenerator
	TopK        int
	Logger      *slog.Logger
}

// questionService implements the QuestionService interface
type questionService struct {
	index     driven.VectorIndex
	services  *runtime.Services
	generator *AnswerGenerator
	topK      int
	logger    *slog.Logger
}

// NewQuestionService creates a new QuestionService
func NewQuestionService(cfg QuestionServiceConfig) driving.QuestionService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	generator := cfg.Generator
	if generator == nil {
		generator = NewAnswerGenerator(domain.DefaultAnswerTemperature)
	}
	return &questionService{
		index:     cfg.VectorIndex,
		services:  cfg.Services,
		generator: generator,
		topK:      topK,
		logger:    logger.With("component", "question"),
	}
}

// Ask answers question from the current index.
// The index is reloaded on every call so a concurrent upload is picked up.
func (s *questionService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	snapshot, err := s.index.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoIndex) {
			s.logger.Error("stage failed", "stage", "load", "error", err)
		}
		return nil, err
	}

	embedder := s.services.EmbeddingService()
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedding provider not configured", domain.ErrServiceUnavailable)
	}
	llm := s.services.LLMService()
	if llm == nil {
		return nil, fmt.Errorf("%w: llm provider not configured", domain.ErrServiceUnavailable)
	}

	vector, err := embedder.EmbedQuery(ctx, question)
	if err != nil {
		s.logger.Error("stage failed", "stage", "embed", "error", err)
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := snapshot.Search(vector, s.topK)
	if err != nil {
		s.logger.Error("stage failed", "stage", "search", "error", err)
		return nil, fmt.Errorf("search index: %w", err)
	}

	answer := &domain.Answer{
		Question: question,
		Sources:  hits,
	}
	if len(hits) == 0 {
		answer.Text = NoRelevantInformation
		answer.Took = time.Since(start)
		return answer, nil
	}

	text, err := s.generator.Generate(ctx, llm, hits, question)
	if err != nil {
		s.logger.Error("stage failed", "stage", "generate", "model", llm.Model(), "error", err)
		return nil, err
	}

	answer.Text = text
	answer.Took = time.Since(start)
	s.logger.Info("question answered",
		"chunks", len(hits),
		"model", llm.Model(),
		"duration", answer.Took)
	return answer, nil
}
