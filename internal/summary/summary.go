// Package summary generates the human-readable summary paragraph of an
// analysis report. The default implementation is deterministic; an optional
// Gemini-backed implementation produces richer prose and falls back to the
// template on any error.
package summary

import (
	"fmt"
	"strings"

	"github.com/hireproof/hireproof/internal/scoring"
	"github.com/hireproof/hireproof/internal/types"
)

// Summarizer produces the report summary text.
type Summarizer interface {
	Summarize(ctx Context) string
}

// Context is the evidence a summarizer may draw on.
type Context struct {
	SourceURL      string
	Aggregate      scoring.Aggregate
	Risks          []types.RiskFlag
	Recommendation types.Recommendation
}

// TemplateSummarizer composes the summary from fixed phrasing. Identical
// input always yields identical output.
type TemplateSummarizer struct{}

// NewTemplateSummarizer creates the deterministic summarizer.
func NewTemplateSummarizer() *TemplateSummarizer {
	return &TemplateSummarizer{}
}

// Summarize implements Summarizer.
func (s *TemplateSummarizer) Summarize(ctx Context) string {
	var sb strings.Builder

	verified := verifiedNames(ctx.Aggregate.Skills)
	switch {
	case len(verified) >= 3:
		sb.WriteString(fmt.Sprintf("Candidate demonstrates strong %s skills with real project evidence. ",
			joinNames(verified[:3])))
	case len(verified) > 0:
		sb.WriteString(fmt.Sprintf("Candidate shows verified %s experience. ", joinNames(verified)))
	default:
		sb.WriteString("Candidate's claimed skills lack corroborating evidence across sources. ")
	}

	highProjects := 0
	for _, p := range ctx.Aggregate.Projects {
		if p.Authenticity == types.AuthenticityHigh {
			highProjects++
		}
	}
	switch {
	case highProjects > 1:
		sb.WriteString(fmt.Sprintf("The profile shows consistent activity across %d well-evidenced projects. ", highProjects))
	case highProjects == 1:
		sb.WriteString("The profile includes one well-evidenced project. ")
	case len(ctx.Aggregate.Projects) > 0:
		sb.WriteString("Project evidence is present but thin. ")
	}

	switch {
	case len(ctx.Risks) == 0:
		sb.WriteString("No inconsistencies were detected.")
	case len(ctx.Risks) == 1:
		sb.WriteString("One area needs attention: " + lowerFirst(ctx.Risks[0].Description) + ".")
	default:
		sb.WriteString(fmt.Sprintf("%d areas need follow-up, starting with: %s.", len(ctx.Risks), lowerFirst(ctx.Risks[0].Description)))
	}

	return sb.String()
}

// verifiedNames lists verified skill names in confidence order.
func verifiedNames(skills []types.Skill) []string {
	var names []string
	for _, s := range skills {
		if s.Verified {
			names = append(names, s.Name)
		}
	}
	return names
}

// joinNames joins up to three names as natural prose.
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
