// Package fetch retrieves raw signal data from external candidate sources.
// Each source type has one Fetcher implementation; the pipeline fans out over
// all fetchers that accept a given source URL.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hireproof/hireproof/internal/types"
)

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; HireProofBot/1.0)"

// ErrorKind classifies a fetch failure for the fallback policy.
type ErrorKind string

const (
	// KindTimeout means the source did not answer within the caller's budget.
	KindTimeout ErrorKind = "timeout"
	// KindRateLimited means the source throttled us; RetryAfter may be set.
	KindRateLimited ErrorKind = "rate_limited"
	// KindNotFound means the subject does not exist at the source.
	KindNotFound ErrorKind = "not_found"
	// KindUnreachable covers transport failures and unexpected statuses.
	KindUnreachable ErrorKind = "unreachable"
)

// Error represents a failure fetching from one external source. Fetch errors
// never surface to callers as hard failures; the orchestrator degrades instead.
type Error struct {
	URL        string
	Kind       ErrorKind
	RetryAfter time.Duration
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error (%s) for %s: %v", e.Kind, e.URL, e.Cause)
	}
	return fmt.Sprintf("fetch error (%s) for %s", e.Kind, e.URL)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// classifyTransportError maps a transport-level failure to an Error.
func classifyTransportError(url string, err error) *Error {
	kind := KindUnreachable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{URL: url, Kind: kind, Cause: err}
}

// RawPayload holds the unprocessed content retrieved from one source.
// Extractors convert payloads into normalized signals; fetchers never
// interpret them beyond decoding.
type RawPayload struct {
	SourceURL string
	Kind      types.SourceKind
	FetchedAt time.Time

	// GitHub is set for github-profile payloads.
	GitHub *GitHubProfile
	// HTML and Text are set for portfolio-page payloads.
	HTML string
	Text string
}

// Fetcher retrieves raw signal data from one external source type.
type Fetcher interface {
	// Kind reports which source validation regime this fetcher serves.
	Kind() types.SourceKind
	// Accepts reports whether this fetcher can serve the given URL.
	Accepts(sourceURL string) bool
	// Fetch retrieves the payload, honoring ctx cancellation and deadline.
	// Failures are always *Error.
	Fetch(ctx context.Context, sourceURL string) (*RawPayload, error)
}

// httpDoer is the subset of http.Client the fetchers need; tests substitute it.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// newRequest builds a GET request with the shared headers.
func newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	return req, nil
}
