package scoring

import (
	"math"

	"github.com/hireproof/hireproof/internal/types"
)

// RoleMatcher produces the role-match score, an axis independent of
// authenticity. The default derives it from the evidence itself; a
// job-description-aware implementation can be plugged in without touching
// the aggregator.
type RoleMatcher interface {
	Score(agg Aggregate) int
}

// EvidenceRoleMatcher scores role fit from verified-skill coverage: verified
// skills count at full confidence, unverified ones at a discount, and broad
// project evidence nudges the score up.
type EvidenceRoleMatcher struct {
	// UnverifiedWeight discounts unverified skills, default 0.6.
	UnverifiedWeight float64
}

// NewEvidenceRoleMatcher creates the default role matcher.
func NewEvidenceRoleMatcher() *EvidenceRoleMatcher {
	return &EvidenceRoleMatcher{UnverifiedWeight: 0.6}
}

// Score implements RoleMatcher.
func (m *EvidenceRoleMatcher) Score(agg Aggregate) int {
	if len(agg.Skills) == 0 {
		return 0
	}

	unverified := m.UnverifiedWeight
	if unverified <= 0 {
		unverified = 0.6
	}

	var weightedSum, weightTotal float64
	for _, s := range agg.Skills {
		w := unverified
		if s.Verified {
			w = 1.0
		}
		weightedSum += float64(s.Confidence) * w
		weightTotal += w
	}
	score := weightedSum / weightTotal

	// A spread of authentic projects is itself a role signal.
	highProjects := 0
	for _, p := range agg.Projects {
		if p.Authenticity == types.AuthenticityHigh {
			highProjects++
		}
	}
	score += math.Min(float64(highProjects)*2, 6)

	return clampScore(int(math.Round(score)))
}
