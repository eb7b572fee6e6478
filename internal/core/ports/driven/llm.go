package driven

import (
	"context"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// LLMService provides generative model completions
type LLMService interface {
	// Complete sends a single prompt and returns the model's text
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}
