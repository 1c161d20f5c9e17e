// Package policy maps an authenticity score and risk flags to a categorical
// hiring recommendation. The decision table here is the single place this
// logic lives; callers never duplicate it.
package policy

import (
	"github.com/hireproof/hireproof/internal/config"
	"github.com/hireproof/hireproof/internal/risk"
	"github.com/hireproof/hireproof/internal/types"
)

// Recommender evaluates the recommendation decision table.
type Recommender struct {
	shortlistMin int
	reviewMin    int
}

// NewRecommender creates a recommender from policy configuration.
func NewRecommender(cfg *config.Config) *Recommender {
	if cfg == nil {
		cfg = config.Defaults()
	}
	return &Recommender{
		shortlistMin: cfg.ShortlistMin,
		reviewMin:    cfg.ReviewMin,
	}
}

// Recommend evaluates the decision table in order; the first matching row
// wins. Bounds are inclusive as written:
//
//	score >= shortlistMin AND no high-severity risk  => SHORTLIST
//	score >= reviewMin                               => REVIEW
//	otherwise                                        => REJECT
func (r *Recommender) Recommend(authenticityScore int, flags []types.RiskFlag) types.Recommendation {
	switch {
	case authenticityScore >= r.shortlistMin && !risk.HasHighSeverity(flags):
		return types.RecommendShortlist
	case authenticityScore >= r.reviewMin:
		return types.RecommendReview
	default:
		return types.RecommendReject
	}
}
