package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tracedoc/tracedoc/internal/config"
	"github.com/tracedoc/tracedoc/internal/extract"
	"github.com/tracedoc/tracedoc/internal/pdfx"
	"github.com/tracedoc/tracedoc/internal/report"
	"github.com/tracedoc/tracedoc/internal/store"
	"github.com/tracedoc/tracedoc/internal/workers"
)

// maxUploadBytes caps multipart uploads at 100 MB.
const maxUploadBytes = 100 << 20

// DocumentSummary is the list/upload view of a stored document.
type DocumentSummary struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	TotalPages int       `json:"total_pages"`
	CreatedAt  time.Time `json:"created_at"`
}

func summarize(rec *store.DocumentRecord) DocumentSummary {
	return DocumentSummary{
		ID:         rec.ID,
		Filename:   rec.Filename,
		TotalPages: rec.TotalPages,
		CreatedAt:  rec.CreatedAt,
	}
}

// handleUploadDocument accepts a multipart PDF upload, parses it on the CPU
// pool and persists the result.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return
	}

	var (
		doc      *pdfx.Document
		parseErr error
	)
	err = s.pool.Run(r.Context(), func(ctx context.Context) {
		doc, parseErr = pdfx.ExtractDocument(ctx, data, header.Filename, s.logger)
	})
	if errors.Is(err, workers.ErrQueueFull) {
		writeError(w, http.StatusServiceUnavailable, "parse queue full, try again later")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if parseErr != nil {
		writeError(w, http.StatusBadRequest, parseErr.Error())
		return
	}

	rec, err := s.store.SaveDocument(doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("document uploaded", "id", rec.ID, "filename", rec.Filename, "pages", rec.TotalPages)
	writeJSON(w, http.StatusCreated, summarize(rec))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListDocuments()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]DocumentSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, summarize(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupDocument(w, r.PathValue("id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleGetIDMap returns only the marker-to-bbox map, for highlighting.
func (s *Server) handleGetIDMap(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupDocument(w, r.PathValue("id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec.IDMap)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteDocument(r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookupDocument(w http.ResponseWriter, id string) (*store.DocumentRecord, bool) {
	rec, err := s.store.GetDocument(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found: "+id)
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return rec, true
}

// loadDocuments resolves document IDs into extraction inputs.
func (s *Server) loadDocuments(w http.ResponseWriter, ids []string) ([]*pdfx.Document, bool) {
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "document_ids is required")
		return nil, false
	}
	docs := make([]*pdfx.Document, 0, len(ids))
	for _, id := range ids {
		rec, ok := s.lookupDocument(w, id)
		if !ok {
			return nil, false
		}
		docs = append(docs, rec.Document())
	}
	return docs, true
}

// ExtractRequest triggers a batched key extraction run.
type ExtractRequest struct {
	DocumentIDs []string `json:"document_ids"`
	KeyNames    []string `json:"key_names"`

	// Optional overrides; config values apply when zero.
	BatchSize     int    `json:"batch_size,omitempty"`
	MaxConcurrent int    `json:"max_concurrent,omitempty"`
	Language      string `json:"language,omitempty"`
}

// ExtractResponse carries the run ID and the merged per-key results.
type ExtractResponse struct {
	RunID   string                        `json:"run_id"`
	Results map[string]*extract.KeyResult `json:"results"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	docs, ok := s.loadDocuments(w, req.DocumentIDs)
	if !ok {
		return
	}

	cfg := config.DefaultConfig()
	if s.configMgr != nil {
		cfg = s.configMgr.Get()
	}
	if req.BatchSize == 0 {
		req.BatchSize = cfg.Extraction.BatchSize
	}
	if req.MaxConcurrent == 0 {
		req.MaxConcurrent = cfg.Extraction.MaxConcurrent
	}
	if req.Language == "" {
		req.Language = cfg.Extraction.Language
	}
	if len(req.KeyNames) == 0 {
		req.KeyNames = extract.KnownKeys()
	}

	results, err := s.extractor.ExtractKeys(r.Context(), extract.KeyExtractionRequest{
		KeyNames:      req.KeyNames,
		Documents:     docs,
		BatchSize:     req.BatchSize,
		MaxConcurrent: req.MaxConcurrent,
		Language:      req.Language,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run := &store.ExtractionRun{
		ID:          uuid.New().String(),
		DocumentIDs: req.DocumentIDs,
		Language:    req.Language,
		Results:     results,
	}
	if err := s.store.SaveRun(run); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ExtractResponse{RunID: run.ID, Results: results})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r.PathValue("id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleRunReport streams the run's results as an XLSX workbook.
func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r.PathValue("id"))
	if !ok {
		return
	}

	data, err := report.BuildWorkbook(run.Results, s.logger)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "extraction-"+run.ID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) lookupRun(w http.ResponseWriter, id string) (*store.ExtractionRun, bool) {
	run, err := s.store.GetRun(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found: "+id)
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return run, true
}

// AskRequest asks a free-form question about stored documents.
type AskRequest struct {
	DocumentIDs []string              `json:"document_ids"`
	Question    string                `json:"question"`
	History     []extract.ChatMessage `json:"history,omitempty"`
}

// handleAsk streams the answer as server-sent events. Each content chunk is
// a "data:" line; the stream ends with "event: done".
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	docs, ok := s.loadDocuments(w, req.DocumentIDs)
	if !ok {
		return
	}

	chunks, err := s.extractor.AnswerQuestion(r.Context(), extract.QuestionRequest{
		Question:  req.Question,
		Documents: docs,
		History:   req.History,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	flusher, canFlush := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for chunk := range chunks {
		if chunk.Err != nil {
			fmt.Fprintf(w, "event: error\ndata: %s\n\n", sseEscape(chunk.Err.Error()))
			break
		}
		payload, _ := json.Marshal(chunk.Content)
		fmt.Fprintf(w, "data: %s\n\n", payload)
		if canFlush {
			flusher.Flush()
		}
	}

	fmt.Fprint(w, "event: done\ndata: {}\n\n")
	if canFlush {
		flusher.Flush()
	}
}

// sseEscape keeps an error message on one SSE data line.
func sseEscape(msg string) string {
	b, _ := json.Marshal(msg)
	return string(b)
}

// CompareRequest diffs two stored documents.
type CompareRequest struct {
	BaseID  string `json:"base_id"`
	NewID   string `json:"new_id"`
	Context string `json:"context,omitempty"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	baseRec, ok := s.lookupDocument(w, req.BaseID)
	if !ok {
		return
	}
	newRec, ok := s.lookupDocument(w, req.NewID)
	if !ok {
		return
	}

	result, err := s.extractor.CompareDocuments(r.Context(), baseRec.Document(), newRec.Document(), req.Context)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// DetectRequest names the documents a detection runs over.
type DetectRequest struct {
	DocumentIDs []string `json:"document_ids"`
	ProductType string   `json:"product_type,omitempty"` // core-winding only
}

func (s *Server) handleDetectProductType(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	docs, ok := s.loadDocuments(w, req.DocumentIDs)
	if !ok {
		return
	}

	result, err := s.extractor.DetectProductType(r.Context(), docs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDetectCoreWinding(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ProductType == "" {
		writeError(w, http.StatusBadRequest, "product_type is required")
		return
	}

	docs, ok := s.loadDocuments(w, req.DocumentIDs)
	if !ok {
		return
	}

	result, err := s.extractor.DetectCoreWindingCount(r.Context(), docs, req.ProductType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
