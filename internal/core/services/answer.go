package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// NotInDocument is the reply the model is told to give when the context
// does not contain the answer.
const NotInDocument = "The information is not available in the document."

const answerPrompt = `You are a helpful assistant answering questions about a document.
Use only the context below to answer the question.
If the answer is not contained in the context, reply exactly:
"` + NotInDocument + `"

Context:
{context}

Question: {question}

Answer:`

// AnswerGenerator fills the fixed prompt and calls the model once.
type AnswerGenerator struct {
	temperature float64
}

// NewAnswerGenerator creates a generator. A negative temperature selects the default.
func NewAnswerGenerator(temperature float64) *AnswerGenerator {
	if temperature < 0 {
		temperature = domain.DefaultAnswerTemperature
	}
	return &AnswerGenerator{temperature: temperature}
}

// BuildPrompt joins chunks with blank lines, in retrieval order, and fills the template.
func BuildPrompt(chunks []*domain.RetrievedChunk, question string) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	// The template slot is the last "{question}"; earlier ones belong to chunk text.
	prompt := strings.Replace(answerPrompt, "{context}", strings.Join(parts, "\n\n"), 1)
	idx := strings.LastIndex(prompt, "{question}")
	return prompt[:idx] + question + prompt[idx+len("{question}"):]
}

// Generate returns the model's answer to question given chunks.
func (g *AnswerGenerator) Generate(ctx context.Context, llm driven.LLMService, chunks []*domain.RetrievedChunk, question string) (string, error) {
	text, err := llm.Complete(ctx, domain.CompletionRequest{
		Prompt:      BuildPrompt(chunks, question),
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return strings.TrimSpace(text), nil
}
