package server

import (
	"encoding/json"
	"net/http"
)

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)

	mux.HandleFunc("POST /documents", s.handleUploadDocument)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	mux.HandleFunc("GET /documents/{id}/idmap", s.handleGetIDMap)
	mux.HandleFunc("DELETE /documents/{id}", s.handleDeleteDocument)

	mux.HandleFunc("POST /extract", s.handleExtract)
	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /runs/{id}/report", s.handleRunReport)

	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("POST /compare", s.handleCompare)
	mux.HandleFunc("POST /detect/product-type", s.handleDetectProductType)
	mux.HandleFunc("POST /detect/core-winding", s.handleDetectCoreWinding)
}

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store,omitempty"`
}

// handleHealth returns basic server health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleReady returns readiness including store availability.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ListDocuments(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Store: "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Store: "ok"})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
