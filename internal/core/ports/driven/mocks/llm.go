package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// MockLLMService is a mock implementation of LLMService for testing.
// By default it echoes the prompt back so tests can see what context was sent.
type MockLLMService struct {
	mu         sync.Mutex
	CompleteFn func(ctx context.Context, req domain.CompletionRequest) (string, error)
	failNext   bool
	requests   []domain.CompletionRequest
}

// NewMockLLMService creates a new MockLLMService
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{}
}

func (m *MockLLMService) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fail := m.failNext
	m.failNext = false
	m.mu.Unlock()

	if fail {
		return "", errors.New("model overloaded")
	}
	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, req)
	}
	return req.Prompt, nil
}

func (m *MockLLMService) Model() string {
	return "mock-llm-model"
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockLLMService) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockLLMService) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

// Requests returns every completion request received
func (m *MockLLMService) Requests() []domain.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CompletionRequest(nil), m.requests...)
}
