package risk

import (
	"fmt"

	"github.com/hireproof/hireproof/internal/types"
)

// corroborationKinds counts the distinct signal kinds observed per subject.
func corroborationKinds(subject string, signals []types.Signal) int {
	kinds := make(map[types.SignalKind]bool)
	for _, sig := range signals {
		if sig.Subject == subject {
			kinds[sig.Kind] = true
		}
	}
	return len(kinds)
}

// UnverifiedSkillRule flags skills below the verification threshold that have
// no corroborating signal of a second kind.
type UnverifiedSkillRule struct{}

// Name implements Rule.
func (r *UnverifiedSkillRule) Name() string { return "unverified-skill" }

// Evaluate implements Rule.
func (r *UnverifiedSkillRule) Evaluate(in Input) ([]types.RiskFlag, error) {
	var flags []types.RiskFlag
	for _, skill := range in.Skills {
		if skill.Confidence >= in.Config.VerificationThreshold {
			continue
		}
		if corroborationKinds(skill.Name, in.Signals) >= 2 {
			continue
		}
		severity := types.SeverityMedium
		if skill.Confidence < in.Config.MediumAuthenticityMin {
			severity = types.SeverityHigh
		}
		flags = append(flags, types.RiskFlag{
			Description: fmt.Sprintf("%s skill not strongly verified", skill.Name),
			Severity:    severity,
		})
	}
	return flags, nil
}

// SingleEvidenceRule flags skills claimed exactly once with no standalone
// evidence: one signal, tied to a single project, nothing else backing it.
type SingleEvidenceRule struct{}

// Name implements Rule.
func (r *SingleEvidenceRule) Name() string { return "single-evidence" }

// Evaluate implements Rule.
func (r *SingleEvidenceRule) Evaluate(in Input) ([]types.RiskFlag, error) {
	var flags []types.RiskFlag
	for _, skill := range in.Skills {
		if skill.EvidenceCount != 1 {
			continue
		}
		// Already covered by the unverified rule when below threshold.
		if skill.Confidence < in.Config.VerificationThreshold {
			continue
		}
		flags = append(flags, types.RiskFlag{
			Description: fmt.Sprintf("%s experience claims need validation", skill.Name),
			Severity:    types.SeverityMedium,
		})
	}
	return flags, nil
}

// UndeclaredTechnologyRule flags project technologies that appear in no
// skill entry at all.
type UndeclaredTechnologyRule struct{}

// Name implements Rule.
func (r *UndeclaredTechnologyRule) Name() string { return "undeclared-technology" }

// Evaluate implements Rule.
func (r *UndeclaredTechnologyRule) Evaluate(in Input) ([]types.RiskFlag, error) {
	declared := make(map[string]bool, len(in.Skills))
	for _, skill := range in.Skills {
		declared[skill.Name] = true
	}

	seen := make(map[string]bool)
	var flags []types.RiskFlag
	for _, project := range in.Projects {
		for _, tech := range project.Technologies {
			if declared[tech] || seen[tech] {
				continue
			}
			seen[tech] = true
			flags = append(flags, types.RiskFlag{
				Description: fmt.Sprintf("%s used in %s but absent from skill evidence", tech, project.Name),
				Severity:    types.SeverityMedium,
			})
		}
	}
	return flags, nil
}
