package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hireproof/hireproof/internal/pipeline"
	"github.com/hireproof/hireproof/internal/server/middleware"
	"github.com/hireproof/hireproof/internal/types"
)

// handleListCandidates returns the caller's past analyses, newest first.
// Auth is enforced by middleware; the caller ID comes from the token claims.
func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if s.db == nil {
		s.errorResponse(w, HTTPStatus(&ErrPersistenceDisabled{}), "candidate history requires a configured database")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	summaries, err := s.db.ListResultsByCaller(r.Context(), callerID, limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to list candidates")
		return
	}
	if summaries == nil {
		summaries = []types.ResultSummary{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"candidates": summaries})
}

// handleGetCandidate returns one stored report by ID.
func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.GetUserID(r); err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if s.db == nil {
		s.errorResponse(w, HTTPStatus(&ErrPersistenceDisabled{}), "candidate history requires a configured database")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid candidate ID")
		return
	}

	result, err := s.db.GetResult(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to get candidate")
		return
	}
	if result == nil {
		s.errorResponse(w, http.StatusNotFound, "candidate not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// handleDeleteCandidate removes one stored report by ID.
func (s *Server) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.GetUserID(r); err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if s.db == nil {
		s.errorResponse(w, HTTPStatus(&ErrPersistenceDisabled{}), "candidate history requires a configured database")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid candidate ID")
		return
	}

	found, err := s.db.DeleteResult(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to delete candidate")
		return
	}
	if !found {
		s.errorResponse(w, http.StatusNotFound, "candidate not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleDemoResult serves the most recently completed analysis, or a canned
// report when none has run yet.
func (s *Server) handleDemoResult(w http.ResponseWriter, _ *http.Request) {
	if last := s.lastResult.Load(); last != nil {
		s.jsonResponse(w, http.StatusOK, last)
		return
	}
	result := pipeline.FallbackResult("https://github.com/demo", "", time.Now())
	result.Degraded = false
	s.jsonResponse(w, http.StatusOK, result)
}
