package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driving"
	"github.com/custodia-labs/pdfqa/internal/runtime"
)

// Ensure uploadService implements UploadService
var _ driving.UploadService = (*uploadService)(nil)

const (
	// UploadMessage is returned to the client on success
	UploadMessage = "PDF uploaded and processed successfully"
)

// UploadServiceConfig holds dependencies for the upload service
type UploadServiceConfig struct {
	DocumentStore driven.DocumentStore
	VectorIndex   driven.VectorIndex
	Services      *runtime.Services
	Extractors    driven.ExtractorRegistry
	Pipeline      driven.PostProcessorPipeline
	MaxBytes      int64
	Logger        *slog.Logger
}

// uploadService runs extract -> store -> chunk -> embed -> rebuild.
type uploadService struct {
	documents  driven.DocumentStore
	index      driven.VectorIndex
	services   *runtime.Services
	extractors driven.ExtractorRegistry
	pipeline   driven.PostProcessorPipeline
	maxBytes   int64
	logger     *slog.Logger
}

// NewUploadService creates a new UploadService
func NewUploadService(cfg UploadServiceConfig) driving.UploadService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &uploadService{
		documents:  cfg.DocumentStore,
		index:      cfg.VectorIndex,
		services:   cfg.Services,
		extractors: cfg.Extractors,
		pipeline:   cfg.Pipeline,
		maxBytes:   cfg.MaxBytes,
		logger:     logger.With("component", "upload"),
	}
}

// Upload validates, extracts, stores and indexes a file.
// The document row is committed only after the index rebuild succeeds.
func (s *uploadService) Upload(ctx context.Context, filename string, data []byte) (*domain.UploadResult, error) {
	start := time.Now()

	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, domain.ErrNotPDF
	}
	if len(data) == 0 {
		return nil, domain.ErrEmptyFile
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	text, err := s.extract(ctx, filename, data)
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		Filename:    filename,
		TextContent: text,
	}

	var chunkCount int
	err = s.documents.Insert(ctx, doc, func(ctx context.Context, doc *domain.Document) error {
		n, err := s.reindex(ctx, doc)
		chunkCount = n
		return err
	})
	if err != nil {
		var stageErr *domain.StageError
		if errors.As(err, &stageErr) {
			return nil, err
		}
		s.logger.Error("stage failed", "stage", domain.StageDatabase, "filename", filename, "error", err)
		return nil, domain.NewStageError(domain.StageDatabase, err)
	}

	s.logger.Info("upload processed",
		"filename", filename,
		"document_id", doc.ID,
		"text_length", doc.TextLength(),
		"chunks", chunkCount,
		"duration", time.Since(start))

	return &domain.UploadResult{
		Document:   doc,
		Filename:   filename,
		Message:    UploadMessage,
		TextLength: doc.TextLength(),
		ChunkCount: chunkCount,
	}, nil
}

func (s *uploadService) extract(ctx context.Context, filename string, data []byte) (string, error) {
	start := time.Now()

	mimeType := s.extractors.MIMEType(filename)
	extractor := s.extractors.Get(mimeType)
	if extractor == nil {
		return "", domain.NewStageError(domain.StageExtraction, fmt.Errorf("no extractor registered for %s", mimeType))
	}

	text, err := extractor.Extract(ctx, data)
	if err != nil {
		s.logger.Warn("stage failed",
			"stage", domain.StageExtraction,
			"filename", filename,
			"duration", time.Since(start),
			"error", err)
		if errors.Is(err, domain.ErrNoExtractableText) || errors.Is(err, domain.ErrEmptyFile) {
			return "", err
		}
		return "", domain.NewStageError(domain.StageExtraction, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrNoExtractableText
	}

	s.logger.Debug("stage complete",
		"stage", domain.StageExtraction,
		"filename", filename,
		"bytes", len(data),
		"duration", time.Since(start))
	return text, nil
}

// reindex chunks and embeds doc and replaces the global index with the result.
// Every failure is attributed to the index stage so the insert is rolled back.
func (s *uploadService) reindex(ctx context.Context, doc *domain.Document) (int, error) {
	start := time.Now()

	chunks := s.pipeline.Process(doc.TextContent)
	if len(chunks) == 0 {
		return 0, domain.NewStageError(domain.StageIndex, fmt.Errorf("%w: no chunks produced", domain.ErrNoExtractableText))
	}

	embedder := s.services.EmbeddingService()
	if embedder == nil {
		return 0, domain.NewStageError(domain.StageIndex, fmt.Errorf("%w: embedding provider not configured", domain.ErrServiceUnavailable))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		s.logger.Error("stage failed", "stage", domain.StageIndex, "step", "embed", "chunks", len(chunks), "error", err)
		return 0, domain.NewStageError(domain.StageIndex, err)
	}
	if len(vectors) != len(chunks) {
		return 0, domain.NewStageError(domain.StageIndex, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i := range chunks {
		entries[i] = domain.IndexEntry{Chunk: chunks[i], Vector: vectors[i]}
	}

	meta := domain.IndexMetadata{
		Model:    embedder.Model(),
		Filename: doc.Filename,
	}
	if err := s.index.Rebuild(ctx, meta, entries); err != nil {
		s.logger.Error("stage failed", "stage", domain.StageIndex, "step", "rebuild", "error", err)
		return 0, domain.NewStageError(domain.StageIndex, err)
	}

	s.logger.Debug("stage complete",
		"stage", domain.StageIndex,
		"document_id", doc.ID,
		"chunks", len(chunks),
		"duration", time.Since(start))
	return len(chunks), nil
}
