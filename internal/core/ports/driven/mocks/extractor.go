package mocks

import (
	"context"

	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// MockTextExtractor is a mock implementation of TextExtractor for testing.
// By default it returns the input bytes as text.
type MockTextExtractor struct {
	SupportedTypesFn func() []string
	PriorityFn       func() int
	ExtractFn        func(ctx context.Context, data []byte) (string, error)
}

func NewMockTextExtractor() *MockTextExtractor {
	return &MockTextExtractor{}
}

func (m *MockTextExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if m.ExtractFn != nil {
		return m.ExtractFn(ctx, data)
	}
	return string(data), nil
}

func (m *MockTextExtractor) SupportedTypes() []string {
	if m.SupportedTypesFn != nil {
		return m.SupportedTypesFn()
	}
	return []string{"application/pdf"}
}

func (m *MockTextExtractor) Priority() int {
	if m.PriorityFn != nil {
		return m.PriorityFn()
	}
	return 100
}

// MockExtractorRegistry is a mock implementation of ExtractorRegistry for testing
type MockExtractorRegistry struct {
	GetFn      func(mimeType string) driven.TextExtractor
	RegisterFn func(extractor driven.TextExtractor)
	MIMETypeFn func(filename string) string
	extractor  driven.TextExtractor
}

func NewMockExtractorRegistry(extractor driven.TextExtractor) *MockExtractorRegistry {
	if extractor == nil {
		extractor = NewMockTextExtractor()
	}
	return &MockExtractorRegistry{extractor: extractor}
}

func (m *MockExtractorRegistry) Get(mimeType string) driven.TextExtractor {
	if m.GetFn != nil {
		return m.GetFn(mimeType)
	}
	return m.extractor
}

func (m *MockExtractorRegistry) MIMEType(filename string) string {
	if m.MIMETypeFn != nil {
		return m.MIMETypeFn(filename)
	}
	return "application/pdf"
}

func (m *MockExtractorRegistry) Register(extractor driven.TextExtractor) {
	if m.RegisterFn != nil {
		m.RegisterFn(extractor)
		return
	}
	m.extractor = extractor
}

func (m *MockExtractorRegistry) List() []string {
	return m.extractor.SupportedTypes()
}
