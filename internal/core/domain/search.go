package domain

import "time"

// IndexEntry pairs a chunk with its embedding for index building
type IndexEntry struct {
	Chunk  Chunk
	Vector []float32
}

// RetrievedChunk is a search hit from the vector index
type RetrievedChunk struct {
	Position int     `json:"position"`
	Content  string  `json:"content"`
	Score    float32 `json:"score"` // cosine similarity, higher is closer
}

// IndexMetadata describes the currently persisted index
type IndexMetadata struct {
	Model      string    `json:"model"`
	Dimensions int       `json:"dimensions"`
	ChunkCount int       `json:"chunk_count"`
	Filename   string    `json:"filename"`
	BuiltAt    time.Time `json:"built_at"`
}

// CompletionRequest is a single prompt sent to a generative model
type CompletionRequest struct {
	Prompt      string
	Temperature float64
	MaxTokens   int // 0 leaves the provider default
}

// Answer is the response to one question
type Answer struct {
	Question string            `json:"question"`
	Text     string            `json:"response"`
	Sources  []*RetrievedChunk `json:"-"`
	Took     time.Duration     `json:"-"`
}

// Retrieval defaults
const (
	DefaultTopK              = 7
	DefaultAnswerTemperature = 0.4
)
