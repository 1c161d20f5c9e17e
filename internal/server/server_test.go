package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hireproof/hireproof/internal/config"
	"github.com/hireproof/hireproof/internal/db"
	"github.com/hireproof/hireproof/internal/pipeline"
	"github.com/hireproof/hireproof/internal/types"
)

// stubAnalyzer records requests and serves a canned report.
type stubAnalyzer struct {
	lastReq     *types.AnalysisRequest
	invalidated []string
	result      *types.AnalysisResult
	err         error
}

func (a *stubAnalyzer) Analyze(ctx context.Context, req *types.AnalysisRequest, onEvent pipeline.EventFunc) (*types.AnalysisResult, error) {
	a.lastReq = req
	if a.err != nil {
		return nil, a.err
	}
	if onEvent != nil {
		onEvent(pipeline.StageEvent{Stage: pipeline.StageFetching, Message: "Analyzing candidate sources...", At: time.Now()})
		onEvent(pipeline.StageEvent{Stage: pipeline.StageComplete, Message: "Analysis complete", At: time.Now()})
	}
	return a.result, nil
}

func (a *stubAnalyzer) Invalidate(ctx context.Context, req *types.AnalysisRequest) {
	a.invalidated = append(a.invalidated, req.SourceURL)
}

func cannedResult() *types.AnalysisResult {
	return &types.AnalysisResult{
		ID:                uuid.New(),
		AuthenticityScore: 72,
		ConfidenceLevel:   types.ConfidenceMedium,
		Recommendation:    types.RecommendReview,
		RoleMatchScore:    64,
		Skills:            []types.Skill{{Name: "Go", Confidence: 80, Verified: true}},
		Projects:          []types.Project{{Name: "shop-api", Confidence: 75, Authenticity: types.AuthenticityMedium}},
		Risks:             []types.RiskFlag{},
		Summary:           "Candidate shows verified Go experience.",
		SourceURL:         "https://github.com/octocat",
		CreatedAt:         time.Now().UTC(),
	}
}

// fakeUserStore is an in-memory UserStore for auth flow tests.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*db.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*db.User)}
}

func (s *fakeUserStore) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) CreateUser(ctx context.Context, name, email, role, company, passwordHash string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	now := time.Now().UTC()
	s.users[id] = &db.User{
		ID: id, Name: name, Email: email, Role: role, Company: company,
		PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now,
	}
	return id, nil
}

func (s *fakeUserStore) GetUser(ctx context.Context, userID uuid.UUID) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID], nil
}

func (s *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func newTestServer(t *testing.T, analyzer Analyzer, store UserStore) *Server {
	t.Helper()
	s := &Server{cfg: config.Defaults(), analyzer: analyzer}
	s.jwtService = NewJWTService(&config.JWTConfig{
		Secret: "test-secret", Issuer: "hireproof", ExpirationHours: 1,
	})
	s.userService = NewUserService(store, &config.PasswordConfig{BcryptCost: bcrypt.MinCost})
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)
	return s
}

func TestHandleAnalyze(t *testing.T) {
	analyzer := &stubAnalyzer{result: cannedResult()}
	s := newTestServer(t, analyzer, nil)

	body := strings.NewReader(`{"url": "https://github.com/octocat"}`)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result types.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 72, result.AuthenticityScore)
	assert.Equal(t, types.RecommendReview, result.Recommendation)
	assert.Equal(t, "https://github.com/octocat", analyzer.lastReq.SourceURL)
	assert.Equal(t, uuid.Nil, analyzer.lastReq.CallerID, "anonymous caller")
}

func TestHandleAnalyze_InvalidURL(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{result: cannedResult()}, nil)

	body := strings.NewReader(`{"url": "https://github.com/octocat/some-repo"}`)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestHandleAnalyze_MalformedBody(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{result: cannedResult()}, nil)

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAnalyze_MultipartWithResume(t *testing.T) {
	analyzer := &stubAnalyzer{result: cannedResult()}
	s := newTestServer(t, analyzer, nil)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("url", "https://github.com/octocat"))
	part, err := form.CreateFormFile("resume", "cv.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("Jane Doe\nReact developer"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cv.txt", analyzer.lastReq.ResumeFilename)
	assert.Equal(t, []byte("Jane Doe\nReact developer"), analyzer.lastReq.ResumeBlob)
}

func TestHandleAnalyze_JSONResume(t *testing.T) {
	analyzer := &stubAnalyzer{result: cannedResult()}
	s := newTestServer(t, analyzer, nil)

	encoded := base64.StdEncoding.EncodeToString([]byte("Jane Doe\nReact developer"))
	body, err := json.Marshal(AnalyzeRequest{
		URL:            "https://github.com/octocat",
		Resume:         encoded,
		ResumeFilename: "cv.txt",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []byte("Jane Doe\nReact developer"), analyzer.lastReq.ResumeBlob)
	assert.Equal(t, "cv.txt", analyzer.lastReq.ResumeFilename)
}

func TestHandleAnalyze_BadBase64Resume(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{result: cannedResult()}, nil)

	body := strings.NewReader(`{"url":"https://github.com/octocat","resume":"%%%","resume_filename":"cv.txt"}`)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAnalyze_RequireAuth(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{result: cannedResult()}, nil)
	s.cfg.RequireAuth = true

	body := strings.NewReader(`{"url": "https://github.com/octocat"}`)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleAnalyze_InvalidTokenAlwaysRejected(t *testing.T) {
	// Even in anonymous mode, a token that is present must be valid.
	s := newTestServer(t, &stubAnalyzer{result: cannedResult()}, nil)

	body := strings.NewReader(`{"url": "https://github.com/octocat"}`)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleAnalyze_AuthenticatedCaller(t *testing.T) {
	analyzer := &stubAnalyzer{result: cannedResult()}
	s := newTestServer(t, analyzer, nil)

	userID := uuid.New()
	token, err := s.jwtService.GenerateToken(userID, types.RoleRecruiter)
	require.NoError(t, err)

	body := strings.NewReader(`{"url": "https://github.com/octocat"}`)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, analyzer.lastReq.CallerID)
}

func TestHandleAnalyzeStream(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{result: cannedResult()}, nil)

	body := strings.NewReader(`{"url": "https://github.com/octocat"}`)
	req := httptest.NewRequest(http.MethodPost, "/analyze/stream", body)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := rec.Body.String()
	assert.Contains(t, events, "event: stage")
	assert.Contains(t, events, `"stage":"fetching"`)
	assert.Contains(t, events, "event: result")
	assert.Contains(t, events, `"authenticityScore":72`)
}

func TestHandleInvalidate(t *testing.T) {
	analyzer := &stubAnalyzer{result: cannedResult()}
	s := newTestServer(t, analyzer, nil)

	body := strings.NewReader(`{"url": "https://github.com/octocat"}`)
	req := httptest.NewRequest(http.MethodPost, "/analyze/invalidate", body)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalidated")
	assert.Equal(t, []string{"https://github.com/octocat"}, analyzer.invalidated)
}

func TestHandleCandidates_Unauthorized(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/candidates", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleCandidates_PersistenceDisabled(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{}, nil)

	token, err := s.jwtService.GenerateToken(uuid.New(), types.RoleRecruiter)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/candidates", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHandleDemoResult(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/analysis-result", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result types.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Degraded)
	assert.Equal(t, 85, result.AuthenticityScore)
}

func TestHandleDemoResult_ServesLatestAnalysis(t *testing.T) {
	canned := cannedResult()
	s := newTestServer(t, &stubAnalyzer{result: canned}, nil)
	mux := s.routes()

	body := strings.NewReader(`{"url": "https://github.com/octocat"}`)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/analysis-result", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result types.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, canned.ID, result.ID, "demo endpoint serves the latest completed analysis")
	assert.Equal(t, 72, result.AuthenticityScore)
}

func TestHandleDemoResult_IgnoresDegradedAnalyses(t *testing.T) {
	degraded := cannedResult()
	degraded.Degraded = true
	s := newTestServer(t, &stubAnalyzer{result: degraded}, nil)
	mux := s.routes()

	body := strings.NewReader(`{"url": "https://github.com/octocat"}`)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/analysis-result", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result types.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEqual(t, degraded.ID, result.ID, "degraded results never become the latest")
	assert.Equal(t, 85, result.AuthenticityScore)
}

func TestHandleDeleteCandidate_Unauthorized(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/candidates/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleDeleteCandidate_PersistenceDisabled(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{}, nil)

	token, err := s.jwtService.GenerateToken(uuid.New(), types.RoleRecruiter)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/candidates/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAuthFlow(t *testing.T) {
	store := newFakeUserStore()
	s := newTestServer(t, &stubAnalyzer{}, store)
	mux := s.routes()

	register := `{"name":"Jane","email":"jane@example.com","password":"hunter2secret","role":"recruiter","company":"Acme"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(register))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created types.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, "jane@example.com", created.User.Email)

	// Duplicate registration conflicts.
	req = httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(register))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Login with the right password.
	login := `{"email":"jane@example.com","password":"hunter2secret"}`
	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(login))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var loggedIn types.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loggedIn))

	// Wrong password gets the same generic rejection as unknown email.
	badLogin := `{"email":"jane@example.com","password":"wrong-password"}`
	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(badLogin))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Verify returns the account behind the token.
	req = httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer "+loggedIn.Token)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jane@example.com")
}

func TestAuthFlow_WeakPassword(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{}, newFakeUserStore())

	body := `{"name":"Jane","email":"jane@example.com","password":"short","role":"recruiter"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password")
}

func TestAuthFlow_PersistenceDisabled(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{}, nil)

	body := `{"name":"Jane","email":"jane@example.com","password":"hunter2secret","role":"recruiter"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestJWTService_RoundTrip(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{}, nil)

	userID := uuid.New()
	token, err := s.jwtService.GenerateToken(userID, types.RoleCandidate)
	require.NoError(t, err)

	claims, err := s.jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, types.RoleCandidate, claims.Role)
	assert.Equal(t, "hireproof", claims.Issuer)
}

func TestJWTService_RejectsForeignSignature(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{}, nil)
	other := NewJWTService(&config.JWTConfig{Secret: "other-secret", Issuer: "hireproof", ExpirationHours: 1})

	token, err := other.GenerateToken(uuid.New(), types.RoleRecruiter)
	require.NoError(t, err)

	_, err = s.jwtService.ValidateToken(token)
	assert.Error(t, err)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&types.ErrValidation{Field: "source_url", Message: "bad"}, http.StatusBadRequest},
		{&ErrEmailAlreadyExists{Email: "a@b.c"}, http.StatusConflict},
		{&ErrInvalidCredentials{}, http.StatusUnauthorized},
		{&ErrUserNotFound{UserID: uuid.New()}, http.StatusNotFound},
		{&ErrPersistenceDisabled{}, http.StatusNotImplemented},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "error %v", tt.err)
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, bearerToken(req))

	req.Header.Set("Authorization", "bearer abc123")
	assert.Equal(t, "abc123", bearerToken(req))

	req.Header.Set("Authorization", "Basic abc123")
	assert.Empty(t, bearerToken(req))
}
