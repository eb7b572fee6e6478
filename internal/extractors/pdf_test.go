package extractors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// buildPDF writes a minimal single-font PDF with one text run per page.
// An empty page string produces a page with no text operators.
func buildPDF(pages ...string) []byte {
	var buf bytes.Buffer
	var offsets []int

	write := func(num int, body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	write(1, "<< /Type /Catalog /Pages 2 0 R >>")
	write(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	write(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, text := range pages {
		pageNum := 4 + 2*i
		write(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			pageNum+1))

		stream := "q Q"
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		write(pageNum+1, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestPDFExtractor_Extract(t *testing.T) {
	e := NewPDFExtractor()

	text, err := e.Extract(context.Background(), buildPDF("Hello PDF"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "Hello PDF") {
		t.Errorf("expected extracted text to contain 'Hello PDF', got %q", text)
	}
}

func TestPDFExtractor_ConcatenatesPages(t *testing.T) {
	e := NewPDFExtractor()

	text, err := e.Extract(context.Background(), buildPDF("First page", "Second page"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := strings.Index(text, "First page")
	second := strings.Index(text, "Second page")
	if first < 0 || second < 0 {
		t.Fatalf("expected both pages in %q", text)
	}
	if first > second {
		t.Error("expected pages in document order")
	}
}

func TestPDFExtractor_NoTextLayer(t *testing.T) {
	e := NewPDFExtractor()

	_, err := e.Extract(context.Background(), buildPDF(""))
	if !errors.Is(err, domain.ErrNoExtractableText) {
		t.Errorf("expected ErrNoExtractableText, got %v", err)
	}
}

func TestPDFExtractor_InvalidInput(t *testing.T) {
	e := NewPDFExtractor()

	tests := map[string][]byte{
		"plain text": []byte("this is not a pdf at all"),
		"truncated":  buildPDF("Hello")[:40],
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := e.Extract(context.Background(), data)
			if !errors.Is(err, domain.ErrExtractionFailed) {
				t.Errorf("expected ErrExtractionFailed, got %v", err)
			}
		})
	}
}

func TestPDFExtractor_Empty(t *testing.T) {
	e := NewPDFExtractor()

	_, err := e.Extract(context.Background(), nil)
	if !errors.Is(err, domain.ErrEmptyFile) {
		t.Errorf("expected ErrEmptyFile, got %v", err)
	}
}

func TestPDFExtractor_Metadata(t *testing.T) {
	e := NewPDFExtractor()

	if types := e.SupportedTypes(); len(types) != 1 || types[0] != MIMETypePDF {
		t.Errorf("unexpected supported types %v", types)
	}
	if e.Priority() != 50 {
		t.Errorf("expected priority 50, got %d", e.Priority())
	}
}
