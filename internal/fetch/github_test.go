package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireproof/hireproof/internal/types"
)

func TestOwnerFromURL(t *testing.T) {
	tests := []struct {
		url     string
		owner   string
		wantErr bool
	}{
		{"https://github.com/octocat", "octocat", false},
		{"https://github.com/octocat/", "octocat", false},
		{"  https://github.com/octocat ", "octocat", false},
		{"https://github.com/octocat/repo", "", true},
		{"https://github.com/", "", true},
	}
	for _, tt := range tests {
		owner, err := OwnerFromURL(tt.url)
		if tt.wantErr {
			assert.Error(t, err, "url %q", tt.url)
			continue
		}
		require.NoError(t, err, "url %q", tt.url)
		assert.Equal(t, tt.owner, owner)
	}
}

func TestGitHubFetcher_Accepts(t *testing.T) {
	f := NewGitHubFetcher()
	assert.Equal(t, types.SourceGitHub, f.Kind())
	assert.True(t, f.Accepts("https://github.com/octocat"))
	assert.False(t, f.Accepts("https://jane.dev"))
}

func TestGitHubFetcher_Fetch(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/users/octocat":
			fmt.Fprint(w, `{"login":"octocat","public_repos":2}`)
		case "/users/octocat/repos":
			fmt.Fprint(w, `[{"name":"shop-api","full_name":"octocat/shop-api","language":"Go","stargazers_count":25}]`)
		case "/users/octocat/events/public":
			fmt.Fprint(w, `[{"type":"PushEvent","repo":{"name":"octocat/shop-api"},"payload":{"size":3}}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := NewGitHubFetcher(
		WithGitHubBaseURL(server.URL),
		WithGitHubToken("tok123"),
	)

	payload, err := f.Fetch(context.Background(), "https://github.com/octocat")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.Equal(t, types.SourceGitHub, payload.Kind)
	assert.False(t, payload.FetchedAt.IsZero())

	require.NotNil(t, payload.GitHub)
	assert.Equal(t, "octocat", payload.GitHub.Owner)
	require.NotNil(t, payload.GitHub.User)
	assert.Equal(t, "octocat", payload.GitHub.User.Login)
	require.Len(t, payload.GitHub.Repos, 1)
	assert.Equal(t, 25, payload.GitHub.Repos[0].Stars)
	require.Len(t, payload.GitHub.Events, 1)
	assert.Equal(t, 3, payload.GitHub.Events[0].Payload.Size)
}

func TestGitHubFetcher_Fetch_UserNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := NewGitHubFetcher(WithGitHubBaseURL(server.URL))
	_, err := f.Fetch(context.Background(), "https://github.com/ghost")

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, KindNotFound, fetchErr.Kind)
}

func TestGitHubFetcher_Fetch_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := NewGitHubFetcher(WithGitHubBaseURL(server.URL))
	_, err := f.Fetch(context.Background(), "https://github.com/octocat")

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, KindRateLimited, fetchErr.Kind)
	assert.Equal(t, 120*time.Second, fetchErr.RetryAfter)
}

func TestGitHubFetcher_Fetch_SecondaryEndpointFailureTolerated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/octocat" {
			fmt.Fprint(w, `{"login":"octocat"}`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewGitHubFetcher(WithGitHubBaseURL(server.URL))
	payload, err := f.Fetch(context.Background(), "https://github.com/octocat")
	require.NoError(t, err)
	assert.Empty(t, payload.GitHub.Repos)
	assert.Empty(t, payload.GitHub.Events)
}

func TestGitHubFetcher_Fetch_InvalidProfileURL(t *testing.T) {
	f := NewGitHubFetcher()
	_, err := f.Fetch(context.Background(), "https://github.com/octocat/repo")

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, KindNotFound, fetchErr.Kind)
}

func TestFetchError_Unwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := classifyTransportError("https://x.test", cause)
	assert.Equal(t, KindTimeout, err.Kind)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timeout")
}
