// Package types provides type definitions for structured data used throughout the analysis engine.
package types

import (
	"time"
)

// SignalKind classifies a normalized observation extracted from a source payload.
type SignalKind string

const (
	// SignalSkillMention indicates a skill was named or implied by source material.
	SignalSkillMention SignalKind = "skill-mention"
	// SignalCommitActivity indicates observed commit cadence for a skill or project.
	SignalCommitActivity SignalKind = "commit-activity"
	// SignalProjectReference indicates a concrete project backing a claim.
	SignalProjectReference SignalKind = "project-reference"
)

// Signal is a single normalized observation extracted from a raw source payload.
// Signals are immutable after creation: extractors produce them, the aggregator
// and risk detector only read them.
type Signal struct {
	Kind        SignalKind `json:"kind"`
	Subject     string     `json:"subject"`
	Strength    float64    `json:"strength"` // 0.0 - 1.0
	EvidenceRef string     `json:"evidence_ref"`
	// ObservedAt anchors recency decay. Extractors set it from source
	// metadata; aggregation never reads the wall clock.
	ObservedAt time.Time `json:"observed_at"`

	// Project associates a skill signal with the project it was observed in,
	// when known. Empty for standalone evidence.
	Project string `json:"project,omitempty"`
}

// DedupeKey identifies duplicate observations: the same kind, subject and
// evidence ref describe the same underlying fact.
func (s Signal) DedupeKey() string {
	return string(s.Kind) + "\x00" + s.Subject + "\x00" + s.EvidenceRef
}
