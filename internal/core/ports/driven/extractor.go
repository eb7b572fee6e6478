package driven

import (
	"context"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// TextExtractor turns a raw file into plain text.
type TextExtractor interface {
	// Extract returns the text of data. Any parse failure fails the whole call;
	// partial text is never returned.
	Extract(ctx context.Context, data []byte) (string, error)

	// SupportedTypes returns MIME types this extractor handles.
	SupportedTypes() []string

	// Priority returns the extractor priority (higher = more specific).
	Priority() int
}

// ExtractorRegistry manages text extractors.
// When multiple extractors match a MIME type, the highest priority one is used.
type ExtractorRegistry interface {
	// Get retrieves the best-matching extractor for a MIME type.
	// Returns nil if no extractor is registered for the type.
	Get(mimeType string) TextExtractor

	// MIMEType maps an uploaded filename to the MIME type passed to Get.
	MIMEType(filename string) string

	// Register registers an extractor.
	Register(extractor TextExtractor)

	// List returns all registered MIME types.
	List() []string
}

// PostProcessor applies post-processing to document chunks.
// Processors form a pipeline: Chunker -> Deduplicator.
type PostProcessor interface {
	// Process applies post-processing to content chunks.
	// The first processor (Chunker) receives a single chunk with the full content.
	// Subsequent processors receive the chunks from the previous stage.
	Process(chunks []domain.Chunk) []domain.Chunk

	// Name returns the processor name for logging.
	Name() string

	// Order returns the processor order in the pipeline (lower = earlier).
	Order() int
}

// PostProcessorPipeline chains multiple post-processors in order.
type PostProcessorPipeline interface {
	// Process applies all processors in order to the raw document text.
	Process(content string) []domain.Chunk

	// Add adds a processor to the pipeline.
	Add(processor PostProcessor)

	// List returns processor names in order.
	List() []string
}
