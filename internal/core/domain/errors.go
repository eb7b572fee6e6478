package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotPDF indicates the uploaded file does not carry a .pdf name
	ErrNotPDF = errors.New("only PDF files are allowed")

	// ErrEmptyFile indicates the uploaded body has no bytes
	ErrEmptyFile = errors.New("empty file uploaded")

	// ErrFileTooLarge indicates the upload exceeds the configured limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrExtractionFailed indicates the PDF could not be parsed
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrNoExtractableText indicates the PDF has no text layer
	ErrNoExtractableText = errors.New("could not extract text from PDF")

	// ErrNoIndex indicates no document has been indexed yet
	ErrNoIndex = errors.New("no index")

	// ErrIndexCorrupt indicates index files exist but cannot be decoded
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrRateLimited indicates a caller exceeded its allowance
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrEmptyQuestion indicates a blank question was sent
	ErrEmptyQuestion = errors.New("question must not be empty")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates the AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Stage names a step of the upload pipeline.
type Stage string

const (
	StageExtraction Stage = "extraction"
	StageDatabase   Stage = "database"
	StageIndex      Stage = "index"
)

// StageError attributes a failure to the pipeline stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with a stage. Returns nil for a nil err.
func NewStageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
