package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

//go:embed static/index.html
var indexPage []byte

// Upload error details returned to clients
const (
	detailNotPDF    = "Only PDF files are allowed"
	detailEmptyFile = "Empty file uploaded"
	detailNoText    = "Could not extract text from PDF"
	detailTooLarge  = "File too large"
	detailNoFile    = "No file uploaded"
	detailInternal  = "Internal server error"
)

const (
	uploadFormField   = "file"
	multipartMemory   = 32 << 20
	multipartOverhead = 1 << 20
	defaultPageLimit  = 20
)

// DetailResponse is the error body of the upload endpoint
// @Description Upload error response
type DetailResponse struct {
	Detail string `json:"detail" example:"Only PDF files are allowed"`
}

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"document not found"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse reports each dependency check
// @Description Readiness response
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// DocumentListResponse is a page of document summaries
// @Description Paginated document list
type DocumentListResponse struct {
	Documents []*domain.DocumentSummary `json:"documents"`
	Total     int                       `json:"total"`
	Limit     int                       `json:"limit"`
	Offset    int                       `json:"offset"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the document store and rate limiter backends, checks the index directory and reports AI provider availability
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string)}
	status := http.StatusOK

	for name, p := range s.checks {
		if p == nil {
			continue
		}
		if err := p.Ping(r.Context()); err != nil {
			resp.Checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	if s.vectorIndex != nil {
		if s.vectorIndex.Exists() {
			resp.Checks["index"] = "ok"
		} else {
			resp.Checks["index"] = "empty"
		}
	}

	// AI availability is reported only; it never fails readiness.
	if s.runtimeConfig != nil {
		if s.runtimeConfig.CanAnswer() {
			resp.Checks["ai"] = "ok"
		} else {
			resp.Checks["ai"] = "unconfigured"
		}
	}

	if status != http.StatusOK {
		resp.Status = "unavailable"
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// handleIndex serves the upload and chat page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexPage)
}

// Upload endpoint

// handleUpload godoc
// @Summary      Upload a PDF
// @Description  Extracts the PDF text, stores it and replaces the question index with its chunks
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "PDF file"
// @Success      200  {object}  domain.UploadResult
// @Failure      400  {object}  DetailResponse
// @Failure      429  {object}  DetailResponse
// @Failure      500  {object}  DetailResponse
// @Router       /upload/ [post]
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeDetail(w, http.StatusBadRequest, detailTooLarge)
			return
		}
		writeDetail(w, http.StatusBadRequest, detailNoFile)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, detailNoFile)
		return
	}
	defer file.Close()

	reader := io.Reader(file)
	if s.maxUploadBytes > 0 {
		reader = io.LimitReader(file, s.maxUploadBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, detailNoFile)
		return
	}

	ctx := r.Context()
	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	result, err := s.uploadService.Upload(ctx, header.Filename, data)
	if err != nil {
		status, detail := uploadErrorDetail(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("upload failed", "filename", header.Filename, "error", err)
		}
		writeDetail(w, status, detail)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// uploadErrorDetail maps an upload failure to its status and client message
func uploadErrorDetail(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotPDF):
		return http.StatusBadRequest, detailNotPDF
	case errors.Is(err, domain.ErrEmptyFile):
		return http.StatusBadRequest, detailEmptyFile
	case errors.Is(err, domain.ErrNoExtractableText):
		return http.StatusBadRequest, detailNoText
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusBadRequest, detailTooLarge
	}

	var stageErr *domain.StageError
	if errors.As(err, &stageErr) {
		cause := stageErr.Err.Error()
		switch stageErr.Stage {
		case domain.StageExtraction:
			return http.StatusInternalServerError, "Extraction error: " + cause
		case domain.StageDatabase:
			return http.StatusInternalServerError, "Database error: " + cause
		case domain.StageIndex:
			return http.StatusInternalServerError, "Vector store error: " + cause
		}
	}
	return http.StatusInternalServerError, detailInternal
}

// Document endpoints

// handleListDocuments godoc
// @Summary      List documents
// @Description  Returns uploaded documents newest first, without their text
// @Tags         Documents
// @Produce      json
// @Param        limit   query  int  false  "Page size (max 100)"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {object}  DocumentListResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultPageLimit)
	offset := queryInt(r, "offset", 0)
	if limit <= 0 || limit > 100 {
		limit = defaultPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := s.docService.List(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list documents failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	total, err := s.docService.Count(r.Context())
	if err != nil {
		s.logger.Error("count documents failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count documents")
		return
	}

	writeJSON(w, http.StatusOK, DocumentListResponse{
		Documents: docs,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	})
}

// handleGetDocument godoc
// @Summary      Get document
// @Description  Returns one uploaded document with its extracted text
// @Tags         Documents
// @Produce      json
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := s.docService.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "document not found")
		default:
			s.logger.Error("get document failed", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get document")
		}
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, DetailResponse{Detail: detail})
}
