package extract

import (
	"sort"
	"strings"
	"time"

	"github.com/hireproof/hireproof/internal/fetch"
	"github.com/hireproof/hireproof/internal/resume"
	"github.com/hireproof/hireproof/internal/types"
)

const (
	// textBaseStrength is the strength of a single mention in free text.
	// Self-reported text is weaker evidence than observed activity.
	textBaseStrength = 0.4
	// textMentionBonus is added per additional mention, capped below.
	textMentionBonus = 0.1
	// textMaxStrength caps free-text evidence below activity evidence.
	textMaxStrength = 0.75
)

// ExtractPortfolio mines skill mentions from a portfolio page's main text.
func ExtractPortfolio(payload *fetch.RawPayload) []types.Signal {
	if payload.Text == "" {
		anomaly("portfolio payload without text for %s", payload.SourceURL)
		return nil
	}
	return textSignals(payload.Text, "portfolio:"+payload.SourceURL, payload.FetchedAt)
}

// ExtractResume mines signals from an uploaded resume: skill mentions across
// the whole document, plus project references from a Projects section when
// one exists.
func ExtractResume(req *types.AnalysisRequest, observedAt time.Time) []types.Signal {
	if len(req.ResumeBlob) == 0 {
		return nil
	}

	text, err := resume.ExtractText(req.ResumeFilename, req.ResumeBlob)
	if err != nil {
		anomaly("resume extraction failed for %s: %v", req.ResumeFilename, err)
		return nil
	}

	evidenceRef := "resume:" + req.ResumeFilename
	signals := textSignals(text, evidenceRef, observedAt)

	if section := resume.ProjectsSection(text); section != "" {
		for _, line := range strings.Split(section, "\n") {
			name := projectTitle(line)
			if name == "" {
				continue
			}
			signals = append(signals, types.Signal{
				Kind:        types.SignalProjectReference,
				Subject:     name,
				Strength:    textBaseStrength,
				EvidenceRef: evidenceRef,
				ObservedAt:  observedAt,
				Project:     name,
			})
		}
	}
	return signals
}

// textSignals converts lexicon matches in free text into skill mentions.
func textSignals(text, evidenceRef string, observedAt time.Time) []types.Signal {
	counts := lexiconMatches(text)

	skills := make([]string, 0, len(counts))
	for skill := range counts {
		skills = append(skills, skill)
	}
	sort.Strings(skills)

	signals := make([]types.Signal, 0, len(skills))
	for _, skill := range skills {
		strength := textBaseStrength + textMentionBonus*float64(counts[skill]-1)
		if strength > textMaxStrength {
			strength = textMaxStrength
		}
		signals = append(signals, types.Signal{
			Kind:        types.SignalSkillMention,
			Subject:     skill,
			Strength:    strength,
			EvidenceRef: evidenceRef,
			ObservedAt:  observedAt,
		})
	}
	return signals
}

// projectTitle decides whether a projects-section line names a project and
// returns the cleaned name. Bullet fragments and long sentences are skipped.
func projectTitle(line string) string {
	name := strings.TrimSpace(strings.TrimLeft(line, "-•*\t "))
	if name == "" || len(name) > 60 {
		return ""
	}
	// Titles are usually short and not full sentences.
	if strings.Count(name, " ") > 6 || strings.HasSuffix(name, ".") {
		return ""
	}
	// Drop a trailing technology annotation: "My App (React, Node.js)".
	if idx := strings.IndexAny(name, "(|–"); idx > 0 {
		name = strings.TrimSpace(name[:idx])
	}
	return name
}
