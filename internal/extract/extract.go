// Package extract converts raw source payloads into normalized signals.
// Extraction is pure over payload contents and total over any well-formed
// payload: malformed records are dropped with a logged anomaly, never an
// error to the caller.
package extract

import (
	"log"
	"sort"

	"github.com/hireproof/hireproof/internal/fetch"
	"github.com/hireproof/hireproof/internal/types"
)

// Extract converts a payload into signals based on its source kind.
func Extract(payload *fetch.RawPayload) []types.Signal {
	if payload == nil {
		return nil
	}
	switch payload.Kind {
	case types.SourceGitHub:
		return ExtractGitHub(payload)
	case types.SourceGeneric:
		return ExtractPortfolio(payload)
	default:
		anomaly("unknown payload kind %q for %s", payload.Kind, payload.SourceURL)
		return nil
	}
}

// Dedupe collapses duplicate observations (same kind, subject and evidence
// ref), keeping the maximum strength. Output order is deterministic.
func Dedupe(signals []types.Signal) []types.Signal {
	best := make(map[string]types.Signal, len(signals))
	for _, sig := range signals {
		key := sig.DedupeKey()
		if existing, ok := best[key]; !ok || sig.Strength > existing.Strength {
			best[key] = sig
		}
	}

	out := make([]types.Signal, 0, len(best))
	for _, sig := range best {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DedupeKey() < out[j].DedupeKey()
	})
	return out
}

// clamp bounds a strength to [0, 1].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// anomaly logs a dropped malformed record.
func anomaly(format string, args ...any) {
	log.Printf("[extract] anomaly: "+format, args...)
}
