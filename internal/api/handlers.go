package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/intentguard/intentguard/internal/explainer"
	"github.com/intentguard/intentguard/internal/logging"
)

// analyzeRequest is the POST /api/analyze body.
type analyzeRequest struct {
	Prompt string `json:"prompt"`
	Code   string `json:"code"`
}

// handleAnalyze runs Phase A synchronously and returns the
// preliminary record with status=processing.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := s.orc.Submit(r.Context(), req.Prompt, req.Code)
	if err != nil {
		logging.Errorf(logging.CategoryAPI, "analyze failed: %v", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleGetAnalysis implements GET /api/analysis/{id} polling.
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	a, err := s.orc.Get(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "analysis not found")
			return
		}
		logging.Errorf(logging.CategoryAPI, "get analysis %s failed: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load analysis")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// feedbackRequest is the POST /api/analysis/{id}/feedback body.
type feedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
	Helpful bool   `json:"helpful"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	if err := s.st.SaveFeedback(id, req.Rating, req.Comment, req.Helpful); err != nil {
		logging.Errorf(logging.CategoryAPI, "save feedback for %s failed: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to save feedback")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// handlePatterns serves the catalog of the ten canonical pattern
// tags.
func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, explainer.Catalog())
}

// handleListAnalyses lists the most recent analyses.
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := s.st.List(50)
	if err != nil {
		logging.Errorf(logging.CategoryAPI, "list analyses failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	writeJSON(w, http.StatusOK, analyses)
}

// handleStats serves aggregate statistics across all analyses.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.st.Stats()
	if err != nil {
		logging.Errorf(logging.CategoryAPI, "stats failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
