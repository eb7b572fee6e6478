package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/pdfqa/internal/postprocessors"
	"github.com/custodia-labs/pdfqa/internal/runtime"
)

// createTestServices creates runtime services for testing
func createTestServices(embedding driven.EmbeddingService, llm driven.LLMService) *runtime.Services {
	config := domain.NewRuntimeConfig("memory", "memory")
	services := runtime.NewServices(config)
	if embedding != nil {
		services.SetEmbeddingService(embedding)
	}
	if llm != nil {
		services.SetLLMService(llm)
	}
	return services
}

type uploadFixture struct {
	svc       *uploadService
	store     *mocks.MockDocumentStore
	index     *mocks.MockVectorIndex
	embedding *mocks.MockEmbeddingService
	extractor *mocks.MockTextExtractor
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()

	f := &uploadFixture{
		store:     mocks.NewMockDocumentStore(),
		index:     mocks.NewMockVectorIndex(),
		embedding: mocks.NewMockEmbeddingService(),
		extractor: mocks.NewMockTextExtractor(),
	}
	f.svc = NewUploadService(UploadServiceConfig{
		DocumentStore: f.store,
		VectorIndex:   f.index,
		Services:      createTestServices(f.embedding, nil),
		Extractors:    mocks.NewMockExtractorRegistry(f.extractor),
		Pipeline:      postprocessors.DefaultPipeline(),
		MaxBytes:      1 << 20,
	}).(*uploadService)
	return f
}

func TestUploadService_Upload(t *testing.T) {
	f := newUploadFixture(t)
	ctx := context.Background()

	result, err := f.svc.Upload(ctx, "report.pdf", []byte("Revenue grew by 12 percent in the third quarter."))
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", result.Filename)
	assert.Equal(t, UploadMessage, result.Message)
	assert.Equal(t, 48, result.TextLength)
	assert.Equal(t, 1, result.ChunkCount)
	assert.NotZero(t, result.Document.ID)

	count, _ := f.store.Count(ctx)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, f.index.Rebuilds())
	assert.Equal(t, []string{"Revenue grew by 12 percent in the third quarter."}, f.index.Contents())
}

func TestUploadService_Upload_ChunksLongText(t *testing.T) {
	f := newUploadFixture(t)

	result, err := f.svc.Upload(context.Background(), "long.pdf", []byte(strings.Repeat("a", 2500)))
	require.NoError(t, err)

	assert.Equal(t, 2500, result.TextLength)
	assert.Equal(t, 4, result.ChunkCount)
	assert.Len(t, f.index.Contents(), 4)
	assert.Len(t, f.embedding.Embedded(), 4)
}

func TestUploadService_Upload_ReplacesIndex(t *testing.T) {
	f := newUploadFixture(t)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, "a.pdf", []byte("alpha document"))
	require.NoError(t, err)
	_, err = f.svc.Upload(ctx, "b.pdf", []byte("bravo document"))
	require.NoError(t, err)

	assert.Equal(t, []string{"bravo document"}, f.index.Contents())

	count, _ := f.store.Count(ctx)
	assert.Equal(t, 2, count, "documents are append-only")
}

func TestUploadService_Upload_Validation(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     error
	}{
		{"not a pdf", "notes.txt", []byte("text"), domain.ErrNotPDF},
		{"no extension", "report", []byte("text"), domain.ErrNotPDF},
		{"empty", "report.pdf", nil, domain.ErrEmptyFile},
		{"too large", "report.pdf", make([]byte, 2<<20), domain.ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUploadFixture(t)
			_, err := f.svc.Upload(context.Background(), tt.filename, tt.data)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, f.index.Rebuilds(), "index must stay untouched")
			assert.Equal(t, 0, f.embedding.Calls())
		})
	}
}

func TestUploadService_Upload_UppercaseExtension(t *testing.T) {
	f := newUploadFixture(t)

	_, err := f.svc.Upload(context.Background(), "REPORT.PDF", []byte("content"))
	assert.NoError(t, err)
}

func TestUploadService_Upload_ResolvesExtractorByFilename(t *testing.T) {
	f := newUploadFixture(t)
	registry := mocks.NewMockExtractorRegistry(f.extractor)

	var resolved, requested string
	registry.MIMETypeFn = func(filename string) string {
		resolved = filename
		return "application/x-scanned-pdf"
	}
	registry.GetFn = func(mimeType string) driven.TextExtractor {
		requested = mimeType
		return nil
	}
	f.svc.extractors = registry

	_, err := f.svc.Upload(context.Background(), "Scan.PDF", []byte("%PDF-1.4"))

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageExtraction, stageErr.Stage)
	assert.Equal(t, "Scan.PDF", resolved)
	assert.Equal(t, "application/x-scanned-pdf", requested)
	assert.Contains(t, err.Error(), "application/x-scanned-pdf")
	assert.Equal(t, 0, f.index.Rebuilds())
}

func TestUploadService_Upload_NoExtractableText(t *testing.T) {
	f := newUploadFixture(t)
	f.extractor.ExtractFn = func(ctx context.Context, data []byte) (string, error) {
		return " \n\t ", nil
	}

	_, err := f.svc.Upload(context.Background(), "scan.pdf", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, domain.ErrNoExtractableText)

	count, _ := f.store.Count(context.Background())
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, f.index.Rebuilds())
}

func TestUploadService_Upload_ExtractionError(t *testing.T) {
	f := newUploadFixture(t)
	f.extractor.ExtractFn = func(ctx context.Context, data []byte) (string, error) {
		return "", errors.New("malformed xref table")
	}

	_, err := f.svc.Upload(context.Background(), "broken.pdf", []byte("%PDF-1.4"))

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageExtraction, stageErr.Stage)
	assert.Contains(t, err.Error(), "malformed xref table")
}

func TestUploadService_Upload_DatabaseError(t *testing.T) {
	f := newUploadFixture(t)
	f.store.SetFailNext(true)

	_, err := f.svc.Upload(context.Background(), "a.pdf", []byte("content"))

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageDatabase, stageErr.Stage)
	assert.Equal(t, 0, f.index.Rebuilds())
}

func TestUploadService_Upload_EmbeddingErrorRollsBack(t *testing.T) {
	f := newUploadFixture(t)
	f.embedding.SetFailNext(true)

	_, err := f.svc.Upload(context.Background(), "a.pdf", []byte("content"))

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageIndex, stageErr.Stage)

	count, _ := f.store.Count(context.Background())
	assert.Equal(t, 0, count, "insert must be rolled back")
}

func TestUploadService_Upload_IndexErrorRollsBack(t *testing.T) {
	f := newUploadFixture(t)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, "a.pdf", []byte("first"))
	require.NoError(t, err)

	f.index.SetFailNext(true)
	_, err = f.svc.Upload(ctx, "b.pdf", []byte("second"))

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageIndex, stageErr.Stage)
	assert.Contains(t, err.Error(), "disk full")

	count, _ := f.store.Count(ctx)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"first"}, f.index.Contents(), "previous index stays in place")
}

func TestUploadService_Upload_NoEmbeddingService(t *testing.T) {
	f := newUploadFixture(t)
	f.svc.services = createTestServices(nil, nil)

	_, err := f.svc.Upload(context.Background(), "a.pdf", []byte("content"))

	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageIndex, stageErr.Stage)
}

func TestUploadService_Upload_RecordsModel(t *testing.T) {
	f := newUploadFixture(t)

	_, err := f.svc.Upload(context.Background(), "a.pdf", []byte("content"))
	require.NoError(t, err)

	snap, err := f.index.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.embedding.Model(), snap.Metadata().Model)
	assert.Equal(t, "a.pdf", snap.Metadata().Filename)
}
