package extractors

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// MIMETypePDF is the MIME type handled by PDFExtractor
const MIMETypePDF = "application/pdf"

// Verify interface compliance
var _ driven.TextExtractor = (*PDFExtractor)(nil)

// PDFExtractor reads the text layer of a PDF.
// Page texts are concatenated with no separator and no layout.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF extractor
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns the concatenated text of every page.
// A parse failure on the document or on any page fails the whole call.
// A document with no text layer returns domain.ErrNoExtractableText.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", domain.ErrEmptyFile
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", domain.ErrExtractionFailed, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	var sb strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			return "", fmt.Errorf("%w: page %d is missing", domain.ErrExtractionFailed, i)
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", domain.ErrExtractionFailed, i, err)
		}
		sb.WriteString(pageText)
	}

	text = sb.String()
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrNoExtractableText
	}
	return text, nil
}

// SupportedTypes returns the PDF MIME type.
func (e *PDFExtractor) SupportedTypes() []string {
	return []string{MIMETypePDF}
}

// Priority returns 50 - format-specific.
func (e *PDFExtractor) Priority() int {
	return 50
}
