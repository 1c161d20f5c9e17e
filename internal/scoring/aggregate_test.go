package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireproof/hireproof/internal/types"
)

var asOf = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func signal(kind types.SignalKind, subject string, strength float64, ref string) types.Signal {
	return types.Signal{
		Kind:        kind,
		Subject:     subject,
		Strength:    strength,
		EvidenceRef: ref,
		ObservedAt:  asOf,
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	agg := NewAggregator(nil)
	signals := []types.Signal{
		signal(types.SignalSkillMention, "React", 0.95, "github:octocat/app"),
		signal(types.SignalCommitActivity, "React", 0.9, "github:octocat/app@commits"),
		signal(types.SignalSkillMention, "Go", 0.6, "resume:cv.pdf"),
		signal(types.SignalProjectReference, "shop-api", 0.8, "github:octocat/shop-api"),
	}

	first := agg.Aggregate(signals, asOf)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, agg.Aggregate(signals, asOf), "same signals must produce identical output")
	}
}

func TestAggregate_CorroboratedSkillIsVerified(t *testing.T) {
	agg := NewAggregator(nil)
	signals := []types.Signal{
		signal(types.SignalSkillMention, "React", 0.95, "github:octocat/app"),
		signal(types.SignalCommitActivity, "React", 0.9, "github:octocat/app@commits"),
	}

	result := agg.Aggregate(signals, asOf)
	require.Len(t, result.Skills, 1)

	react := result.Skills[0]
	assert.Equal(t, "React", react.Name)
	assert.InDelta(t, 92, react.Confidence, 1)
	assert.True(t, react.Verified, "two distinct signal kinds above threshold verify the skill")
}

func TestAggregate_SingleKindIsNeverVerified(t *testing.T) {
	agg := NewAggregator(nil)
	signals := []types.Signal{
		signal(types.SignalSkillMention, "Kubernetes", 0.95, "resume:cv.pdf"),
		signal(types.SignalSkillMention, "Kubernetes", 0.92, "portfolio:https://jane.dev"),
	}

	result := agg.Aggregate(signals, asOf)
	require.Len(t, result.Skills, 1)
	assert.False(t, result.Skills[0].Verified,
		"high confidence from one signal kind alone must not verify")
}

func TestAggregate_ConfidenceBounds(t *testing.T) {
	agg := NewAggregator(nil)
	signals := []types.Signal{
		signal(types.SignalSkillMention, "Go", 1.0, "a"),
		signal(types.SignalCommitActivity, "Go", 1.0, "b"),
		signal(types.SignalSkillMention, "COBOL", 0.0, "c"),
	}

	result := agg.Aggregate(signals, asOf)
	for _, s := range result.Skills {
		assert.GreaterOrEqual(t, s.Confidence, 0)
		assert.LessOrEqual(t, s.Confidence, 100)
	}
	assert.GreaterOrEqual(t, result.AuthenticityScore, 0)
	assert.LessOrEqual(t, result.AuthenticityScore, 100)
}

func TestAggregate_RecencyDecay(t *testing.T) {
	agg := NewAggregator(nil)

	fresh := types.Signal{
		Kind: types.SignalSkillMention, Subject: "Go", Strength: 0.8,
		EvidenceRef: "a", ObservedAt: asOf,
	}
	stale := fresh
	stale.Subject = "Rust"
	stale.ObservedAt = asOf.AddDate(-3, 0, 0)

	result := agg.Aggregate([]types.Signal{fresh, stale}, asOf)
	require.Len(t, result.Skills, 2)

	var goConf, rustConf int
	for _, s := range result.Skills {
		switch s.Name {
		case "Go":
			goConf = s.Confidence
		case "Rust":
			rustConf = s.Confidence
		}
	}
	// A single-signal skill is a weighted mean of itself, so decay alone does
	// not change its confidence; the stale one must not score higher.
	assert.Equal(t, goConf, rustConf)

	// Decay shows when fresh and stale evidence mix: the result leans fresh.
	weak := fresh
	weak.Strength = 0.2
	weak.EvidenceRef = "b"
	weak.ObservedAt = asOf.AddDate(-3, 0, 0)
	mixed := agg.Aggregate([]types.Signal{fresh, weak}, asOf)
	require.Len(t, mixed.Skills, 1)
	assert.Greater(t, mixed.Skills[0].Confidence, 50,
		"old weak evidence should barely drag down fresh strong evidence")
}

func TestAggregate_UndatedEvidenceGetsNeutralWeight(t *testing.T) {
	agg := NewAggregator(nil)
	undated := types.Signal{Kind: types.SignalSkillMention, Subject: "Go", Strength: 0.8, EvidenceRef: "a"}

	result := agg.Aggregate([]types.Signal{undated}, asOf)
	require.Len(t, result.Skills, 1)
	assert.Equal(t, 80, result.Skills[0].Confidence)
}

func TestAggregate_ProjectPartitionAndTechnologies(t *testing.T) {
	agg := NewAggregator(nil)
	signals := []types.Signal{
		signal(types.SignalProjectReference, "shop-api", 0.9, "github:octocat/shop-api"),
		{
			Kind: types.SignalSkillMention, Subject: "Go", Strength: 0.8,
			EvidenceRef: "github:octocat/shop-api", ObservedAt: asOf, Project: "shop-api",
		},
		{
			Kind: types.SignalSkillMention, Subject: "PostgreSQL", Strength: 0.6,
			EvidenceRef: "github:octocat/shop-api", ObservedAt: asOf, Project: "shop-api",
		},
	}

	result := agg.Aggregate(signals, asOf)
	require.Len(t, result.Projects, 1)

	project := result.Projects[0]
	assert.Equal(t, "shop-api", project.Name)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, project.Technologies)
	assert.Equal(t, types.AuthenticityHigh, project.Authenticity)

	// The project subject itself must not double as a skill.
	for _, s := range result.Skills {
		assert.NotEqual(t, "shop-api", s.Name)
	}
}

func TestAggregate_AuthenticityBuckets(t *testing.T) {
	agg := NewAggregator(nil)
	tests := []struct {
		strength float64
		want     types.AuthenticityLevel
	}{
		{0.9, types.AuthenticityHigh},
		{0.6, types.AuthenticityMedium},
		{0.2, types.AuthenticityLow},
	}

	for _, tt := range tests {
		signals := []types.Signal{
			signal(types.SignalProjectReference, "proj", tt.strength, "ref"),
		}
		result := agg.Aggregate(signals, asOf)
		require.Len(t, result.Projects, 1)
		assert.Equal(t, tt.want, result.Projects[0].Authenticity,
			"strength %.1f", tt.strength)
	}
}

func TestAggregate_EmptySignals(t *testing.T) {
	agg := NewAggregator(nil)
	result := agg.Aggregate(nil, asOf)

	assert.Empty(t, result.Skills)
	assert.Empty(t, result.Projects)
	assert.Equal(t, 0, result.AuthenticityScore)
	assert.Equal(t, types.ConfidenceLow, result.ConfidenceLevel)
}

func TestConfidenceLevel(t *testing.T) {
	agg := NewAggregator(nil)

	t.Run("tight agreement at high confidence", func(t *testing.T) {
		signals := []types.Signal{
			signal(types.SignalSkillMention, "Go", 0.9, "a"),
			signal(types.SignalSkillMention, "React", 0.85, "b"),
			signal(types.SignalSkillMention, "SQL", 0.88, "c"),
		}
		result := agg.Aggregate(signals, asOf)
		assert.Equal(t, types.ConfidenceHigh, result.ConfidenceLevel)
	})

	t.Run("wide spread lowers the level", func(t *testing.T) {
		signals := []types.Signal{
			signal(types.SignalSkillMention, "Go", 0.95, "a"),
			signal(types.SignalSkillMention, "React", 0.1, "b"),
		}
		result := agg.Aggregate(signals, asOf)
		assert.Equal(t, types.ConfidenceLow, result.ConfidenceLevel)
	})
}
