// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/hireproof/hireproof/internal/pipeline"
	"github.com/hireproof/hireproof/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the one-shot analysis command
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintStage outputs a pipeline stage transition in verbose mode.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintStage(event pipeline.StageEvent) {
	fmt.Fprintf(p.out, "[%s] %s\n", event.Stage, event.Message)
}

// PrintResult outputs a human-readable analysis report.
func (p *Printer) PrintResult(result *types.AnalysisResult) {
	if result == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Authenticity:    %d/100 (%s confidence)\n",
		result.AuthenticityScore, result.ConfidenceLevel))
	sb.WriteString(fmt.Sprintf("Role match:      %d/100\n", result.RoleMatchScore))
	sb.WriteString(fmt.Sprintf("Recommendation:  %s", result.Recommendation))
	if result.Degraded {
		sb.WriteString("\n\nSources were unavailable; this report is a fallback.")
	}
	p.printBox("CANDIDATE ANALYSIS", sb.String())

	p.printSkills(result.Skills)
	p.printProjects(result.Projects)
	p.printRisks(result.Risks)

	if result.Summary != "" {
		p.printBox("SUMMARY", wrapText(result.Summary, boxWidth-4))
	}
}

func (p *Printer) printSkills(skills []types.Skill) {
	if len(skills) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(skills), maxItemsToShow)
	for i := 0; i < count; i++ {
		s := skills[i]
		mark := " "
		if s.Verified {
			mark = "✓"
		}
		sb.WriteString(fmt.Sprintf("%s %-22s %d\n", mark, s.Name, s.Confidence))
	}
	if len(skills) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(skills)-maxItemsToShow))
	}
	p.printBox("SKILLS (✓ = verified)", strings.TrimSuffix(sb.String(), "\n"))
}

func (p *Printer) printProjects(projects []types.Project) {
	if len(projects) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(projects), maxItemsToShow)
	for i := 0; i < count; i++ {
		proj := projects[i]
		sb.WriteString(fmt.Sprintf("%s  [%s]\n", proj.Name, proj.Authenticity))
		if len(proj.Technologies) > 0 {
			tech := strings.Join(proj.Technologies, ", ")
			if len(tech) > 40 {
				tech = tech[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf("    %s\n", tech))
		}
	}
	if len(projects) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(projects)-maxItemsToShow))
	}
	p.printBox("PROJECTS", strings.TrimSuffix(sb.String(), "\n"))
}

func (p *Printer) printRisks(risks []types.RiskFlag) {
	if len(risks) == 0 {
		return
	}

	var sb strings.Builder
	for _, risk := range risks {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", strings.ToUpper(string(risk.Severity)), risk.Description))
	}
	p.printBox("RISK FLAGS", wrapText(strings.TrimSuffix(sb.String(), "\n"), boxWidth-4))
}

// wrapText breaks text into lines no longer than width.
func wrapText(text string, width int) string {
	var sb strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			sb.WriteString("\n")
		}
		lineLen := 0
		for j, word := range strings.Fields(line) {
			if j > 0 {
				if lineLen+1+len(word) > width {
					sb.WriteString("\n")
					lineLen = 0
				} else {
					sb.WriteString(" ")
					lineLen++
				}
			}
			sb.WriteString(word)
			lineLen += len(word)
		}
	}
	return sb.String()
}
