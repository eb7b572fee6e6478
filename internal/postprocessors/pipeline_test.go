package postprocessors

import (
	"strings"
	"testing"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

func TestNewPipeline(t *testing.T) {
	p := NewPipeline()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if len(p.processors) != 0 {
		t.Errorf("expected empty processors, got %d", len(p.processors))
	}
}

func TestPipeline_Process_EmptyContent(t *testing.T) {
	p := DefaultPipeline()

	if chunks := p.Process(""); len(chunks) != 0 {
		t.Errorf("expected no chunks for empty content, got %d", len(chunks))
	}
	if chunks := p.Process(" \n\n \t"); len(chunks) != 0 {
		t.Errorf("expected no chunks for whitespace content, got %d", len(chunks))
	}
}

func TestPipeline_Process_SmallContent(t *testing.T) {
	p := DefaultPipeline()

	content := "Hello, world!"
	chunks := p.Process(content)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != content {
		t.Errorf("expected %q, got %q", content, chunks[0].Content)
	}
	if chunks[0].Position != 0 {
		t.Errorf("expected position 0, got %d", chunks[0].Position)
	}
	if chunks[0].StartOffset != 0 {
		t.Errorf("expected start offset 0, got %d", chunks[0].StartOffset)
	}
	if chunks[0].EndOffset != len(content) {
		t.Errorf("expected end offset %d, got %d", len(content), chunks[0].EndOffset)
	}
}

func TestPipeline_Process_JustUnderChunkSize(t *testing.T) {
	p := DefaultPipeline()

	content := strings.Repeat("word ", 199) + "last" // 999 characters
	chunks := p.Process(content)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != content {
		t.Error("expected the single chunk to equal the full text")
	}
}

func TestPipeline_Process_OrderedProcessors(t *testing.T) {
	p := NewPipeline()

	// Add in wrong order - should be sorted by Order()
	p.Add(NewDeduplicator(DefaultDeduplicatorConfig())) // Order 10
	p.Add(NewChunker(DefaultChunkConfig()))             // Order 0

	_ = p.Process("Test content")

	names := p.List()
	if len(names) != 2 {
		t.Fatalf("expected 2 processors, got %d", len(names))
	}
	if names[0] != "chunker" {
		t.Errorf("expected first processor 'chunker', got %s", names[0])
	}
	if names[1] != "deduplicator" {
		t.Errorf("expected second processor 'deduplicator', got %s", names[1])
	}
}

func TestDefaultPipeline(t *testing.T) {
	p := DefaultPipeline()

	names := p.List()
	if len(names) != 1 {
		t.Fatalf("expected 1 processor in default pipeline, got %d", len(names))
	}
	if names[0] != "chunker" {
		t.Errorf("expected 'chunker', got %s", names[0])
	}
}

func TestNewChunkPipeline_WithDeduplicator(t *testing.T) {
	p := NewChunkPipeline(DefaultChunkConfig(), true)

	names := p.List()
	if len(names) != 2 || names[1] != "deduplicator" {
		t.Errorf("expected chunker then deduplicator, got %v", names)
	}
}

func TestDeduplicator_Process(t *testing.T) {
	d := NewDeduplicator(DefaultDeduplicatorConfig())

	footer := "Confidential - Internal use only - Page footer text repeated"
	input := []domain.Chunk{
		{Position: 0, Content: footer},
		{Position: 1, Content: "Short"},
		{Position: 2, Content: "  " + strings.ToUpper(footer) + "  "},
		{Position: 3, Content: "Short"},
		{Position: 4, Content: "Unique body text that is long enough to be compared against others"},
	}

	out := d.Process(input)
	if len(out) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(out))
	}
	if out[2].Position != 3 {
		t.Errorf("expected short duplicates to be kept, got position %d", out[2].Position)
	}
	if out[3].Position != 4 {
		t.Errorf("expected positions to be preserved, got %d", out[3].Position)
	}
}

func TestDeduplicator_NameOrder(t *testing.T) {
	d := NewDeduplicator(DefaultDeduplicatorConfig())
	if d.Name() != "deduplicator" {
		t.Errorf("expected name 'deduplicator', got %s", d.Name())
	}
	if d.Order() != 10 {
		t.Errorf("expected order 10, got %d", d.Order())
	}
}
