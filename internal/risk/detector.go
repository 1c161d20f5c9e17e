// Package risk scans aggregated analysis output for inconsistency patterns
// and emits risk flags. Rules are independent and composable: adding or
// removing a rule never touches another, and a failing rule is skipped with
// a logged warning rather than aborting detection.
package risk

import (
	"log"
	"sort"

	"github.com/hireproof/hireproof/internal/config"
	"github.com/hireproof/hireproof/internal/types"
)

// Input is the aggregated material rules inspect.
type Input struct {
	Skills   []types.Skill
	Projects []types.Project
	Signals  []types.Signal
	Config   *config.Config
}

// Rule is one independent risk check.
type Rule interface {
	Name() string
	Evaluate(in Input) ([]types.RiskFlag, error)
}

// Detector runs a rule set over aggregated output.
type Detector struct {
	rules []Rule
}

// NewDetector creates a detector with the default rule set.
func NewDetector() *Detector {
	return &Detector{
		rules: []Rule{
			&UnverifiedSkillRule{},
			&SingleEvidenceRule{},
			&UndeclaredTechnologyRule{},
		},
	}
}

// NewDetectorWithRules creates a detector with a custom rule set.
func NewDetectorWithRules(rules ...Rule) *Detector {
	return &Detector{rules: rules}
}

// Detect runs every rule and returns all flags ordered by descending
// severity, then description. The result is never nil.
func (d *Detector) Detect(in Input) []types.RiskFlag {
	if in.Config == nil {
		in.Config = config.Defaults()
	}

	flags := make([]types.RiskFlag, 0)
	for _, rule := range d.rules {
		ruleFlags, err := rule.Evaluate(in)
		if err != nil {
			log.Printf("[risk] rule %s failed, skipped: %v", rule.Name(), err)
			continue
		}
		flags = append(flags, ruleFlags...)
	}

	sort.SliceStable(flags, func(i, j int) bool {
		if flags[i].Severity.Rank() != flags[j].Severity.Rank() {
			return flags[i].Severity.Rank() > flags[j].Severity.Rank()
		}
		return flags[i].Description < flags[j].Description
	})
	return flags
}

// HasHighSeverity reports whether any flag is high severity.
func HasHighSeverity(flags []types.RiskFlag) bool {
	for _, f := range flags {
		if f.Severity == types.SeverityHigh {
			return true
		}
	}
	return false
}
