package types

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceKind discriminates the two URL validation regimes the engine accepts.
type SourceKind string

const (
	// SourceGitHub is a GitHub profile URL (https://github.com/<owner>).
	SourceGitHub SourceKind = "github"
	// SourceGeneric is any well-formed absolute http(s) URL (portfolio sites).
	SourceGeneric SourceKind = "generic"
)

// AuthenticityLevel buckets a project confidence score for display.
type AuthenticityLevel string

const (
	AuthenticityHigh   AuthenticityLevel = "High"
	AuthenticityMedium AuthenticityLevel = "Medium"
	AuthenticityLow    AuthenticityLevel = "Low"
)

// ConfidenceLevel describes how tightly the per-skill confidences agree.
// It is derived from score spread, not from the score itself.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "High"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceLow    ConfidenceLevel = "Low"
)

// Recommendation is the categorical hiring verdict.
type Recommendation string

const (
	RecommendShortlist Recommendation = "SHORTLIST"
	RecommendReview    Recommendation = "REVIEW"
	RecommendReject    Recommendation = "REJECT"
)

// Severity tags a risk flag.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank orders severities for sorting: higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// githubProfilePattern matches GitHub profile URLs: scheme, optional www,
// a single owner path segment, optional trailing slash. Repository URLs and
// deeper paths are rejected.
var githubProfilePattern = regexp.MustCompile(`^https?://(www\.)?github\.com/[a-zA-Z0-9_-]+/?$`)

// AnalysisRequest describes one candidate analysis. Immutable once built.
type AnalysisRequest struct {
	SourceURL      string
	ResumeBlob     []byte
	ResumeFilename string
	// CallerID is the authenticated caller, uuid.Nil for anonymous requests.
	CallerID uuid.UUID
}

// SourceKindOf classifies a URL without validating it.
func SourceKindOf(sourceURL string) SourceKind {
	if githubProfilePattern.MatchString(strings.TrimSpace(sourceURL)) {
		return SourceGitHub
	}
	return SourceGeneric
}

// ValidateSourceURL checks a source URL against the validation regime for its
// kind. GitHub profile URLs must match the strict owner-only pattern; anything
// else must parse as an absolute http(s) URL.
func ValidateSourceURL(sourceURL string) (SourceKind, error) {
	trimmed := strings.TrimSpace(sourceURL)
	if trimmed == "" {
		return "", &ErrValidation{Field: "url", Message: "source URL is required"}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", &ErrValidation{Field: "url", Message: "must be an absolute URL"}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", &ErrValidation{Field: "url", Message: "scheme must be http or https"}
	}

	host := strings.ToLower(parsed.Host)
	if host == "github.com" || host == "www.github.com" {
		if !githubProfilePattern.MatchString(trimmed) {
			return "", &ErrValidation{Field: "url", Message: "GitHub URLs must be a profile: https://github.com/username"}
		}
		return SourceGitHub, nil
	}
	return SourceGeneric, nil
}

// Validate checks the request before any fetch is attempted.
func (r *AnalysisRequest) Validate() error {
	_, err := ValidateSourceURL(r.SourceURL)
	if err != nil {
		return err
	}
	if len(r.ResumeBlob) > 0 && r.ResumeFilename == "" {
		return &ErrValidation{Field: "resume_filename", Message: "required when a resume is attached"}
	}
	return nil
}

// Skill is one scored skill in an analysis result.
type Skill struct {
	Name       string `json:"name"`
	Confidence int    `json:"confidence"` // 0-100
	Verified   bool   `json:"verified"`
	// EvidenceCount is how many deduplicated signals backed this skill.
	EvidenceCount int `json:"-"`
}

// Project is one scored project in an analysis result.
type Project struct {
	Name         string            `json:"name"`
	Technologies []string          `json:"technologies"`
	Confidence   int               `json:"confidence"` // 0-100
	Authenticity AuthenticityLevel `json:"authenticity"`
	// EvidenceCount is how many deduplicated signals backed this project.
	EvidenceCount int `json:"-"`
}

// RiskFlag is a generated inconsistency warning. Never user-editable.
type RiskFlag struct {
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// AnalysisResult is the complete verdict for one analysis run. Created once
// per completed pipeline run and immutable afterwards. JSON field names match
// the report consumers already deployed against.
type AnalysisResult struct {
	ID                 uuid.UUID       `json:"id"`
	AuthenticityScore  int             `json:"authenticityScore"` // 0-100
	ConfidenceLevel    ConfidenceLevel `json:"confidenceLevel"`
	Recommendation     Recommendation  `json:"recommendation"`
	RoleMatchScore     int             `json:"roleMatchScore"` // 0-100, independent axis
	Skills             []Skill         `json:"skills"`         // descending confidence
	Projects           []Project       `json:"projects"`       // descending confidence
	Risks              []RiskFlag      `json:"risks"`          // descending severity, never nil
	Summary            string          `json:"summary"`
	Degraded           bool            `json:"degraded"`
	SourceURL          string          `json:"sourceUrl,omitempty"`
	Fingerprint        string          `json:"-"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// ResultSummary is the condensed listing row for previously completed analyses.
type ResultSummary struct {
	ID                uuid.UUID       `json:"id"`
	SourceURL         string          `json:"sourceUrl"`
	AuthenticityScore int             `json:"authenticityScore"`
	Recommendation    Recommendation  `json:"recommendation"`
	ConfidenceLevel   ConfidenceLevel `json:"confidenceLevel"`
	Degraded          bool            `json:"degraded"`
	CreatedAt         time.Time       `json:"createdAt"`
}
