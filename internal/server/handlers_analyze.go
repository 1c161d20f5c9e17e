package server

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hireproof/hireproof/internal/pipeline"
	"github.com/hireproof/hireproof/internal/types"
)

// maxResumeSize caps uploaded resume files at 10 MB.
const maxResumeSize = 10 << 20

// AnalyzeRequest represents the JSON request body for /analyze. The resume,
// when sent as JSON rather than multipart, is base64-encoded.
type AnalyzeRequest struct {
	URL            string `json:"url"`
	Resume         string `json:"resume,omitempty"`
	ResumeFilename string `json:"resume_filename,omitempty"`
}

// handleAnalyze runs a full analysis and returns the report.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseAnalysisRequest(w, r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if req == nil {
		return // auth failure already written
	}

	result, err := s.analyzer.Analyze(r.Context(), req, nil)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.persistResult(r, req.CallerID, result)
	s.jsonResponse(w, http.StatusOK, result)
}

// handleAnalyzeStream runs an analysis while streaming stage transitions as
// Server-Sent Events, ending with the report itself.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseAnalysisRequest(w, r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if req == nil {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), req, func(event pipeline.StageEvent) {
		sse.WriteStage(event)
	})
	if err != nil {
		sse.WriteError(err.Error())
		return
	}

	s.persistResult(r, req.CallerID, result)
	sse.WriteResult(result)
}

// handleInvalidate drops the cached report for a source URL so the next
// analysis recomputes from live data.
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req := &types.AnalysisRequest{SourceURL: body.URL}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.analyzer.Invalidate(r.Context(), req)
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// parseAnalysisRequest builds the pipeline request from either a JSON body or
// a multipart form with an attached resume. A nil request with nil error means
// an auth response was already written.
func (s *Server) parseAnalysisRequest(w http.ResponseWriter, r *http.Request) (*types.AnalysisRequest, error) {
	callerID, ok := s.callerID(w, r)
	if !ok {
		return nil, nil
	}

	req := &types.AnalysisRequest{CallerID: callerID}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxResumeSize); err != nil {
			return nil, &types.ErrValidation{Field: "resume", Message: "invalid multipart form: " + err.Error()}
		}
		req.SourceURL = r.FormValue("url")

		file, header, err := r.FormFile("resume")
		if err == nil {
			defer file.Close()
			blob, readErr := io.ReadAll(io.LimitReader(file, maxResumeSize))
			if readErr != nil {
				return nil, &types.ErrValidation{Field: "resume", Message: "failed to read resume upload"}
			}
			req.ResumeBlob = blob
			req.ResumeFilename = header.Filename
		}
	} else {
		var body AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, &types.ErrValidation{Field: "body", Message: "invalid JSON body"}
		}
		req.SourceURL = body.URL
		if body.Resume != "" {
			blob, err := base64.StdEncoding.DecodeString(body.Resume)
			if err != nil {
				return nil, &types.ErrValidation{Field: "resume", Message: "resume must be base64-encoded"}
			}
			if len(blob) > maxResumeSize {
				return nil, &types.ErrValidation{Field: "resume", Message: "resume exceeds the size limit"}
			}
			req.ResumeBlob = blob
			req.ResumeFilename = body.ResumeFilename
		}
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// callerID resolves the authenticated caller. With REQUIRE_AUTH unset a
// missing token is fine and the analysis runs anonymously; a token that is
// present but invalid is always rejected.
func (s *Server) callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	token := bearerToken(r)
	if token == "" {
		if s.cfg.RequireAuth {
			s.errorResponse(w, http.StatusUnauthorized, "authentication required")
			return uuid.Nil, false
		}
		return uuid.Nil, true
	}

	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "invalid token")
		return uuid.Nil, false
	}
	return claims.UserID, true
}

// bearerToken extracts the Bearer token from the Authorization header, or ""
func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// persistResult records a completed report: it becomes the latest result for
// the demo endpoint and, when persistence is configured, is stored as well.
// Storage failures are logged, never surfaced: the caller already has the report.
func (s *Server) persistResult(r *http.Request, callerID uuid.UUID, result *types.AnalysisResult) {
	if result.Degraded {
		return
	}
	s.lastResult.Store(result)
	if s.db == nil {
		return
	}
	if err := s.db.SaveResult(r.Context(), callerID, result); err != nil {
		log.Printf("[server] failed to persist result %s: %v", result.ID, err)
	}
}
