package driving

import (
	"context"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// QuestionService answers questions against the current index
type QuestionService interface {
	// Ask embeds the question, retrieves the top chunks and generates an answer.
	// Returns domain.ErrNoIndex before any upload.
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}
