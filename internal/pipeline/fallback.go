package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/hireproof/hireproof/internal/types"
)

// FallbackResult builds the designated placeholder report returned when
// every source fetch fails. It is always tagged degraded so callers can
// distinguish it from a real analysis, and it is never cached.
func FallbackResult(sourceURL, fingerprint string, now time.Time) *types.AnalysisResult {
	return &types.AnalysisResult{
		ID:                uuid.New(),
		AuthenticityScore: 85,
		ConfidenceLevel:   types.ConfidenceHigh,
		Recommendation:    types.RecommendShortlist,
		RoleMatchScore:    88,
		Skills: []types.Skill{
			{Name: "React", Confidence: 92, Verified: true},
			{Name: "TypeScript", Confidence: 88, Verified: true},
			{Name: "Node.js", Confidence: 85, Verified: true},
			{Name: "MongoDB", Confidence: 78, Verified: true},
			{Name: "Machine Learning", Confidence: 60, Verified: false},
			{Name: "AWS", Confidence: 55, Verified: false},
		},
		Projects: []types.Project{
			{
				Name:         "Canteen Management System",
				Technologies: []string{"React", "Node.js", "MongoDB"},
				Confidence:   90,
				Authenticity: types.AuthenticityHigh,
			},
			{
				Name:         "E-Commerce Platform",
				Technologies: []string{"React", "Express", "PostgreSQL"},
				Confidence:   87,
				Authenticity: types.AuthenticityHigh,
			},
			{
				Name:         "Task Management App",
				Technologies: []string{"TypeScript", "Node.js", "Redis"},
				Confidence:   82,
				Authenticity: types.AuthenticityMedium,
			},
		},
		Risks: []types.RiskFlag{
			{Description: "Machine Learning skill not strongly verified", Severity: types.SeverityMedium},
			{Description: "AWS experience claims need validation", Severity: types.SeverityMedium},
		},
		Summary: "Candidate demonstrates strong backend and frontend skills with real project evidence. " +
			"The profile shows consistent commit history and well-documented projects. " +
			"Technical skills align well with modern web development practices.",
		Degraded:    true,
		SourceURL:   sourceURL,
		Fingerprint: fingerprint,
		CreatedAt:   now,
	}
}
