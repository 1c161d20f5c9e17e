// Package fetch - github.go retrieves a candidate's public GitHub activity.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hireproof/hireproof/internal/types"
)

// defaultGitHubAPI is the REST API root for github.com profiles.
const defaultGitHubAPI = "https://api.github.com"

// GitHubUser is the subset of the user endpoint the extractor consumes.
type GitHubUser struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	Bio         string    `json:"bio"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	CreatedAt   time.Time `json:"created_at"`
}

// GitHubRepo is the subset of the repos endpoint the extractor consumes.
type GitHubRepo struct {
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Topics      []string  `json:"topics"`
	Fork        bool      `json:"fork"`
	Stars       int       `json:"stargazers_count"`
	PushedAt    time.Time `json:"pushed_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// GitHubEvent is the subset of the public events endpoint the extractor consumes.
type GitHubEvent struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Repo      struct {
		Name string `json:"name"`
	} `json:"repo"`
	Payload struct {
		Size int `json:"size"` // commit count for PushEvents
	} `json:"payload"`
}

// GitHubProfile bundles the three endpoint payloads for one owner.
type GitHubProfile struct {
	Owner  string
	User   *GitHubUser
	Repos  []GitHubRepo
	Events []GitHubEvent
}

// GitHubFetcher retrieves public profile activity from the GitHub REST API.
type GitHubFetcher struct {
	client  httpDoer
	baseURL string
	token   string
}

// GitHubOption configures a GitHubFetcher.
type GitHubOption func(*GitHubFetcher)

// WithGitHubToken sets a bearer token to raise API rate limits.
func WithGitHubToken(token string) GitHubOption {
	return func(f *GitHubFetcher) { f.token = token }
}

// WithGitHubBaseURL overrides the API root, used by tests.
func WithGitHubBaseURL(baseURL string) GitHubOption {
	return func(f *GitHubFetcher) { f.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithGitHubClient overrides the HTTP client.
func WithGitHubClient(client httpDoer) GitHubOption {
	return func(f *GitHubFetcher) { f.client = client }
}

// NewGitHubFetcher creates a GitHub profile fetcher.
func NewGitHubFetcher(opts ...GitHubOption) *GitHubFetcher {
	f := &GitHubFetcher{
		client:  &http.Client{},
		baseURL: defaultGitHubAPI,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Kind reports the source validation regime this fetcher serves.
func (f *GitHubFetcher) Kind() types.SourceKind {
	return types.SourceGitHub
}

// Accepts reports whether the URL is a GitHub profile URL.
func (f *GitHubFetcher) Accepts(sourceURL string) bool {
	return types.SourceKindOf(sourceURL) == types.SourceGitHub
}

// OwnerFromURL extracts the profile owner from a validated GitHub profile URL.
func OwnerFromURL(sourceURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil {
		return "", fmt.Errorf("invalid GitHub URL: %w", err)
	}
	owner := strings.Trim(parsed.Path, "/")
	if owner == "" || strings.Contains(owner, "/") {
		return "", fmt.Errorf("not a profile URL: %s", sourceURL)
	}
	return owner, nil
}

// Fetch retrieves the owner's user record, repositories and recent public
// events. The user record is mandatory; repos and events degrade to empty on
// failure so one flaky endpoint does not sink the whole source.
func (f *GitHubFetcher) Fetch(ctx context.Context, sourceURL string) (*RawPayload, error) {
	owner, err := OwnerFromURL(sourceURL)
	if err != nil {
		return nil, &Error{URL: sourceURL, Kind: KindNotFound, Cause: err}
	}

	profile := &GitHubProfile{Owner: owner}

	if err := f.getJSON(ctx, fmt.Sprintf("%s/users/%s", f.baseURL, owner), &profile.User); err != nil {
		return nil, err
	}

	// Secondary endpoints: log-and-continue is the extractor's job, so we just
	// leave them empty on failure.
	_ = f.getJSON(ctx, fmt.Sprintf("%s/users/%s/repos?per_page=100&sort=pushed", f.baseURL, owner), &profile.Repos)
	_ = f.getJSON(ctx, fmt.Sprintf("%s/users/%s/events/public?per_page=100", f.baseURL, owner), &profile.Events)

	return &RawPayload{
		SourceURL: sourceURL,
		Kind:      types.SourceGitHub,
		FetchedAt: time.Now(),
		GitHub:    profile,
	}, nil
}

// getJSON performs one API call and decodes the response into out.
func (f *GitHubFetcher) getJSON(ctx context.Context, apiURL string, out any) error {
	req, err := newRequest(ctx, apiURL)
	if err != nil {
		return &Error{URL: apiURL, Kind: KindUnreachable, Cause: err}
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return classifyTransportError(apiURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusNotFound:
		return &Error{URL: apiURL, Kind: KindNotFound}
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return &Error{URL: apiURL, Kind: KindRateLimited, RetryAfter: retryAfter(resp)}
	default:
		return &Error{URL: apiURL, Kind: KindUnreachable,
			Cause: fmt.Errorf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{URL: apiURL, Kind: KindUnreachable, Cause: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{URL: apiURL, Kind: KindUnreachable,
			Cause: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// retryAfter reads the throttle hint from rate-limit response headers.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
			if d := time.Until(time.Unix(unix, 0)); d > 0 {
				return d
			}
		}
	}
	return 0
}
