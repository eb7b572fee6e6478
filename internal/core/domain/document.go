package domain

import "time"

// Document is an uploaded PDF and its extracted text.
// Rows are append-only; nothing updates or deletes them.
type Document struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	TextContent string    `json:"text_content"`
	CreatedAt   time.Time `json:"created_at"`
}

// TextLength returns the length of the extracted text in characters.
func (d *Document) TextLength() int {
	return len([]rune(d.TextContent))
}

// DocumentSummary is the list view of a document without its text
type DocumentSummary struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	TextLength int       `json:"text_length"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary returns the list view of the document
func (d *Document) Summary() *DocumentSummary {
	return &DocumentSummary{
		ID:         d.ID,
		Filename:   d.Filename,
		TextLength: d.TextLength(),
		CreatedAt:  d.CreatedAt,
	}
}

// Chunk is a window of a document's text, the unit of retrieval.
// Chunks are recomputed on every upload and never stored on their own.
type Chunk struct {
	Position    int    `json:"position"`
	Content     string `json:"content"`
	StartOffset int    `json:"start_offset"` // rune offset into the source text
	EndOffset   int    `json:"end_offset"`
}

// UploadResult is returned after a document has been stored and indexed
type UploadResult struct {
	Document   *Document `json:"-"`
	Filename   string    `json:"filename"`
	Message    string    `json:"message"`
	TextLength int       `json:"text_length"`
	ChunkCount int       `json:"-"`
}
