// Package cache memoizes completed analyses keyed by request fingerprint.
// Backend failures are never fatal: a cache that errors behaves like a cache
// that misses, because correctness must not depend on cache availability.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/hireproof/hireproof/internal/types"
)

// Cache stores completed analysis results by fingerprint.
type Cache interface {
	// Get returns the cached result for a fingerprint, or false on miss.
	// Backend errors are reported as misses.
	Get(ctx context.Context, fingerprint string) (*types.AnalysisResult, bool)
	// Put stores a result with the given TTL. Backend errors are logged
	// and swallowed.
	Put(ctx context.Context, fingerprint string, result *types.AnalysisResult, ttl time.Duration)
	// Invalidate removes a cached result.
	Invalidate(ctx context.Context, fingerprint string)
}

// Fingerprint derives the stable cache key for a request: the normalized,
// case-folded source URL plus a hash of the resume content when present.
// Two requests with the same fingerprint describe the same analysis.
func Fingerprint(sourceURL string, resumeBlob []byte) string {
	h := sha256.New()
	h.Write([]byte(normalizeURL(sourceURL)))
	if len(resumeBlob) > 0 {
		resumeHash := sha256.Sum256(resumeBlob)
		h.Write(resumeHash[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// normalizeURL lowercases the scheme and host and trims redundant trailing
// slashes, so cosmetic URL variants share a fingerprint.
func normalizeURL(sourceURL string) string {
	trimmed := strings.TrimSpace(sourceURL)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.ToLower(trimmed)
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.Fragment = ""
	return parsed.String()
}
