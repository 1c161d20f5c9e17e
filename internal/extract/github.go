package extract

import (
	"fmt"
	"sort"
	"time"

	"github.com/hireproof/hireproof/internal/fetch"
	"github.com/hireproof/hireproof/internal/types"
)

// Strength shaping constants for GitHub evidence.
const (
	// repoBaseStrength is the floor for an original repository's evidence.
	repoBaseStrength = 0.45
	// forkStrength discounts forked repositories heavily.
	forkStrength = 0.15
	// starsForMax is the star count at which a repo reaches full strength.
	starsForMax = 50.0
	// commitsForMax is the pushed-commit count at which cadence evidence
	// reaches full strength.
	commitsForMax = 60.0
)

// ExtractGitHub converts a GitHub profile payload into signals:
// repository languages and topics become skill mentions, push events become
// commit activity, and repositories themselves become project references.
func ExtractGitHub(payload *fetch.RawPayload) []types.Signal {
	profile := payload.GitHub
	if profile == nil {
		anomaly("github payload without profile data for %s", payload.SourceURL)
		return nil
	}

	var signals []types.Signal
	repoLanguage := make(map[string]string)

	for _, repo := range profile.Repos {
		if repo.Name == "" {
			anomaly("repo without name for %s, dropped", profile.Owner)
			continue
		}

		evidenceRef := "github:" + repo.FullName
		observedAt := repo.PushedAt
		if observedAt.IsZero() {
			observedAt = repo.CreatedAt
		}

		strength := repoStrength(repo)

		// The repository itself backs a project claim.
		signals = append(signals, types.Signal{
			Kind:        types.SignalProjectReference,
			Subject:     repo.Name,
			Strength:    strength,
			EvidenceRef: evidenceRef,
			ObservedAt:  observedAt,
			Project:     repo.Name,
		})

		// Its language and topics back skill claims.
		if repo.Language != "" {
			lang := CanonicalSkill(repo.Language)
			repoLanguage[repo.FullName] = lang
			signals = append(signals, types.Signal{
				Kind:        types.SignalSkillMention,
				Subject:     lang,
				Strength:    strength,
				EvidenceRef: evidenceRef,
				ObservedAt:  observedAt,
				Project:     repo.Name,
			})
		}
		for _, topic := range repo.Topics {
			skill := CanonicalSkill(topic)
			if skill == "" {
				continue
			}
			signals = append(signals, types.Signal{
				Kind:        types.SignalSkillMention,
				Subject:     skill,
				Strength:    clamp(strength * 0.8),
				EvidenceRef: evidenceRef,
				ObservedAt:  observedAt,
				Project:     repo.Name,
			})
		}
	}

	signals = append(signals, commitActivitySignals(profile, repoLanguage)...)
	return signals
}

// repoStrength scores a repository's evidentiary weight. Forks are weak
// evidence of authorship; stars raise strength toward 1.
func repoStrength(repo fetch.GitHubRepo) float64 {
	if repo.Fork {
		return forkStrength
	}
	bonus := float64(repo.Stars) / starsForMax
	if bonus > 1 {
		bonus = 1
	}
	return clamp(repoBaseStrength + (1-repoBaseStrength)*bonus)
}

// commitActivitySignals aggregates push events per repository into
// commit-activity signals for both the project and its primary language.
func commitActivitySignals(profile *fetch.GitHubProfile, repoLanguage map[string]string) []types.Signal {
	type cadence struct {
		commits int
		latest  time.Time
	}
	perRepo := make(map[string]*cadence)

	for _, event := range profile.Events {
		if event.Type != "PushEvent" {
			continue
		}
		if event.Repo.Name == "" {
			anomaly("push event without repo for %s, dropped", profile.Owner)
			continue
		}
		c, ok := perRepo[event.Repo.Name]
		if !ok {
			c = &cadence{}
			perRepo[event.Repo.Name] = c
		}
		commits := event.Payload.Size
		if commits <= 0 {
			commits = 1
		}
		c.commits += commits
		if event.CreatedAt.After(c.latest) {
			c.latest = event.CreatedAt
		}
	}

	repos := make([]string, 0, len(perRepo))
	for name := range perRepo {
		repos = append(repos, name)
	}
	sort.Strings(repos)

	var signals []types.Signal
	for _, fullName := range repos {
		c := perRepo[fullName]
		strength := clamp(float64(c.commits) / commitsForMax)
		if strength < 0.1 {
			strength = 0.1
		}
		evidenceRef := fmt.Sprintf("github:%s@commits", fullName)
		project := shortRepoName(fullName)

		signals = append(signals, types.Signal{
			Kind:        types.SignalCommitActivity,
			Subject:     project,
			Strength:    strength,
			EvidenceRef: evidenceRef,
			ObservedAt:  c.latest,
			Project:     project,
		})
		if lang, ok := repoLanguage[fullName]; ok {
			signals = append(signals, types.Signal{
				Kind:        types.SignalCommitActivity,
				Subject:     lang,
				Strength:    strength,
				EvidenceRef: evidenceRef,
				ObservedAt:  c.latest,
				Project:     project,
			})
		}
	}
	return signals
}

// shortRepoName strips the owner prefix from owner/repo.
func shortRepoName(fullName string) string {
	for i := len(fullName) - 1; i >= 0; i-- {
		if fullName[i] == '/' {
			return fullName[i+1:]
		}
	}
	return fullName
}
