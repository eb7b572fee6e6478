package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// Ensure OpenAILLM implements LLMService
var _ driven.LLMService = (*OpenAILLM)(nil)

const llmTimeout = 120 * time.Second

// OpenAILLM implements LLMService on the eino OpenAI chat model, which speaks
// to any OpenAI-compatible endpoint (OpenAI, Ollama, Gemini).
type OpenAILLM struct {
	chat     *openai.ChatModel
	api      *apiClient // model listing for Ping
	provider domain.AIProvider
	model    string
}

// NewOpenAILLM creates a new OpenAI chat completion service
func NewOpenAILLM(apiKey, model, baseURL string) (driven.LLMService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = openAIBaseURL
	}
	llm, err := newLLM(domain.AIProviderOpenAI, apiKey, model, baseURL)
	if err != nil {
		return nil, err
	}
	return llm, nil
}

// NewOllamaLLM creates a chat completion service for a local Ollama server
func NewOllamaLLM(baseURL, model string) (driven.LLMService, error) {
	if model == "" {
		model = "llama3.1"
	}
	if baseURL == "" {
		baseURL = ollamaBaseURL
	}
	llm, err := newLLM(domain.AIProviderOllama, "", model, baseURL)
	if err != nil {
		return nil, err
	}
	return llm, nil
}

// NewGeminiLLM creates a chat completion service using Gemini's OpenAI-compatible endpoint
func NewGeminiLLM(apiKey, model, baseURL string) (driven.LLMService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if baseURL == "" {
		baseURL = geminiBaseURL
	}
	llm, err := newLLM(domain.AIProviderGemini, apiKey, model, baseURL)
	if err != nil {
		return nil, err
	}
	return llm, nil
}

func newLLM(provider domain.AIProvider, apiKey, model, baseURL string) (*OpenAILLM, error) {
	chat, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Timeout: llmTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s chat model: %w", provider, err)
	}
	return &OpenAILLM{
		chat:     chat,
		api:      newAPIClient(provider, apiKey, baseURL, llmTimeout),
		provider: provider,
		model:    model,
	}, nil
}

// Complete sends the prompt as a single user message
func (l *OpenAILLM) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	opts := []model.Option{model.WithTemperature(float32(req.Temperature))}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	msg, err := l.chat.Generate(ctx, []*schema.Message{schema.UserMessage(req.Prompt)}, opts...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %s chat completion failed: %v", domain.ErrServiceUnavailable, l.provider, err)
	}
	if msg == nil {
		return "", fmt.Errorf("no completion returned")
	}
	return strings.TrimSpace(msg.Content), nil
}

// Model returns the model name being used
func (l *OpenAILLM) Model() string {
	return l.model
}

// Ping verifies the LLM service is available by listing models
func (l *OpenAILLM) Ping(ctx context.Context) error {
	return l.api.getJSON(ctx, "/models", nil)
}

// Close releases resources held by the LLM service
func (l *OpenAILLM) Close() error {
	l.api.close()
	return nil
}
