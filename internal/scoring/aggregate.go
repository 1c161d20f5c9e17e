// Package scoring combines normalized signals into per-skill confidence,
// per-project authenticity, and the overall authenticity score.
//
// Every function here is deterministic: no randomness and no wall clock.
// Recency decay takes an explicit as-of timestamp so identical signal sets
// always produce identical results.
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/hireproof/hireproof/internal/config"
	"github.com/hireproof/hireproof/internal/types"
)

// Confidence-spread cutoffs for deriving the categorical confidence level.
const (
	highSpreadMax  = 15.0
	highMeanMin    = 70.0
	mediumSpreadMax = 28.0
	mediumMeanMin  = 50.0
)

// Aggregate holds the scored view of one signal set.
type Aggregate struct {
	Skills            []types.Skill   // descending confidence
	Projects          []types.Project // descending confidence
	AuthenticityScore int
	ConfidenceLevel   types.ConfidenceLevel
}

// Aggregator scores signal sets under a fixed policy.
type Aggregator struct {
	cfg *config.Config
}

// NewAggregator creates an aggregator with the given policy configuration.
func NewAggregator(cfg *config.Config) *Aggregator {
	if cfg == nil {
		cfg = config.Defaults()
	}
	return &Aggregator{cfg: cfg}
}

// entity accumulates the evidence for one subject.
type entity struct {
	subject string
	signals []types.Signal
	kinds   map[types.SignalKind]bool
}

// Aggregate scores a deduplicated signal set as of the given timestamp.
func (a *Aggregator) Aggregate(signals []types.Signal, asOf time.Time) Aggregate {
	skills, projects := a.partition(signals)

	result := Aggregate{
		Skills:   a.scoreSkills(skills, asOf),
		Projects: a.scoreProjects(projects, signals, asOf),
	}
	result.AuthenticityScore = overallScore(result.Skills, result.Projects)
	result.ConfidenceLevel = confidenceLevel(result.Skills)
	return result
}

// partition splits subjects into skills and projects. A subject backed by a
// project-reference signal is a project; everything else is a skill.
func (a *Aggregator) partition(signals []types.Signal) (skills, projects map[string]*entity) {
	skills = make(map[string]*entity)
	projects = make(map[string]*entity)

	projectNames := make(map[string]bool)
	for _, sig := range signals {
		if sig.Kind == types.SignalProjectReference {
			projectNames[sig.Subject] = true
		}
	}

	for _, sig := range signals {
		target := skills
		if projectNames[sig.Subject] {
			target = projects
		}
		e, ok := target[sig.Subject]
		if !ok {
			e = &entity{subject: sig.Subject, kinds: make(map[types.SignalKind]bool)}
			target[sig.Subject] = e
		}
		e.signals = append(e.signals, sig)
		e.kinds[sig.Kind] = true
	}
	return skills, projects
}

// scoreSkills computes per-skill confidence and verification.
func (a *Aggregator) scoreSkills(skills map[string]*entity, asOf time.Time) []types.Skill {
	out := make([]types.Skill, 0, len(skills))
	for _, e := range skills {
		confidence := a.confidence(e.signals, asOf)
		out = append(out, types.Skill{
			Name:          e.subject,
			Confidence:    confidence,
			Verified:      len(e.kinds) >= 2 && confidence >= a.cfg.VerificationThreshold,
			EvidenceCount: len(e.signals),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// scoreProjects computes per-project confidence, authenticity buckets and the
// technology list observed alongside each project.
func (a *Aggregator) scoreProjects(projects map[string]*entity, all []types.Signal, asOf time.Time) []types.Project {
	out := make([]types.Project, 0, len(projects))
	for _, e := range projects {
		confidence := a.confidence(e.signals, asOf)
		out = append(out, types.Project{
			Name:          e.subject,
			Technologies:  projectTechnologies(e.subject, all),
			Confidence:    confidence,
			Authenticity:  a.bucket(confidence),
			EvidenceCount: len(e.signals),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// confidence is the recency-weighted mean of signal strengths on a 0-100
// scale. Weight halves every DecayHalfLife of evidence age relative to asOf.
func (a *Aggregator) confidence(signals []types.Signal, asOf time.Time) int {
	var weightedSum, weightTotal float64
	for _, sig := range signals {
		w := a.decay(sig.ObservedAt, asOf)
		weightedSum += sig.Strength * w
		weightTotal += w
	}
	if weightTotal == 0 {
		return 0
	}
	return clampScore(int(math.Round(100 * weightedSum / weightTotal)))
}

// decay returns the recency weight for evidence observed at the given time.
// Undated evidence gets a neutral half weight.
func (a *Aggregator) decay(observedAt, asOf time.Time) float64 {
	if observedAt.IsZero() {
		return 0.5
	}
	age := asOf.Sub(observedAt)
	if age <= 0 {
		return 1.0
	}
	halfLives := float64(age) / float64(a.cfg.DecayHalfLife)
	return math.Pow(0.5, halfLives)
}

// bucket maps a project confidence to its authenticity level.
func (a *Aggregator) bucket(confidence int) types.AuthenticityLevel {
	switch {
	case confidence >= a.cfg.HighAuthenticityMin:
		return types.AuthenticityHigh
	case confidence >= a.cfg.MediumAuthenticityMin:
		return types.AuthenticityMedium
	default:
		return types.AuthenticityLow
	}
}

// projectTechnologies lists skills observed in signals tied to the project,
// ordered by descending evidence strength then name.
func projectTechnologies(project string, all []types.Signal) []string {
	best := make(map[string]float64)
	for _, sig := range all {
		if sig.Project != project || sig.Kind == types.SignalProjectReference {
			continue
		}
		if sig.Subject == project {
			continue
		}
		if sig.Strength > best[sig.Subject] {
			best[sig.Subject] = sig.Strength
		}
	}

	techs := make([]string, 0, len(best))
	for name := range best {
		techs = append(techs, name)
	}
	sort.Slice(techs, func(i, j int) bool {
		if best[techs[i]] != best[techs[j]] {
			return best[techs[i]] > best[techs[j]]
		}
		return techs[i] < techs[j]
	})
	return techs
}

// overallScore is the evidence-count-weighted mean across all scored
// entities. Entities with more corroborating evidence dominate; a single
// weak signal cannot swing the total.
func overallScore(skills []types.Skill, projects []types.Project) int {
	var weightedSum, weightTotal float64
	for _, s := range skills {
		w := float64(s.EvidenceCount)
		weightedSum += float64(s.Confidence) * w
		weightTotal += w
	}
	for _, p := range projects {
		w := float64(p.EvidenceCount)
		weightedSum += float64(p.Confidence) * w
		weightTotal += w
	}
	if weightTotal == 0 {
		return 0
	}
	return clampScore(int(math.Round(weightedSum / weightTotal)))
}

// confidenceLevel derives the categorical confidence from the spread and mean
// of skill confidences. Low spread with a high mean means the evidence agrees.
func confidenceLevel(skills []types.Skill) types.ConfidenceLevel {
	if len(skills) == 0 {
		return types.ConfidenceLow
	}

	var sum float64
	for _, s := range skills {
		sum += float64(s.Confidence)
	}
	mean := sum / float64(len(skills))

	var variance float64
	for _, s := range skills {
		d := float64(s.Confidence) - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(skills)))

	switch {
	case stddev <= highSpreadMax && mean >= highMeanMin:
		return types.ConfidenceHigh
	case stddev <= mediumSpreadMax && mean >= mediumMeanMin:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}

// clampScore bounds a score to [0, 100].
func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
