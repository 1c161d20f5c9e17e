// Package fetch - portfolio.go retrieves generic portfolio pages and reduces
// them to main body text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hireproof/hireproof/internal/types"
)

// PortfolioFetcher retrieves any well-formed http(s) URL and extracts the
// main page text. For JavaScript-rendered sites it can fall back to a
// headless browser when enabled.
type PortfolioFetcher struct {
	client     httpDoer
	useBrowser bool
	verbose    bool
}

// PortfolioOption configures a PortfolioFetcher.
type PortfolioOption func(*PortfolioFetcher)

// WithBrowserFallback enables headless-browser rendering for pages that
// return too little static text.
func WithBrowserFallback(enabled bool) PortfolioOption {
	return func(f *PortfolioFetcher) { f.useBrowser = enabled }
}

// WithPortfolioClient overrides the HTTP client.
func WithPortfolioClient(client httpDoer) PortfolioOption {
	return func(f *PortfolioFetcher) { f.client = client }
}

// WithPortfolioVerbose enables debug logging.
func WithPortfolioVerbose(verbose bool) PortfolioOption {
	return func(f *PortfolioFetcher) { f.verbose = verbose }
}

// NewPortfolioFetcher creates a generic portfolio page fetcher.
func NewPortfolioFetcher(opts ...PortfolioOption) *PortfolioFetcher {
	f := &PortfolioFetcher{client: &http.Client{}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Kind reports the source validation regime this fetcher serves.
func (f *PortfolioFetcher) Kind() types.SourceKind {
	return types.SourceGeneric
}

// Accepts reports whether the URL should be treated as a generic portfolio.
func (f *PortfolioFetcher) Accepts(sourceURL string) bool {
	return types.SourceKindOf(sourceURL) == types.SourceGeneric
}

// Fetch retrieves the page and extracts its main text.
func (f *PortfolioFetcher) Fetch(ctx context.Context, sourceURL string) (*RawPayload, error) {
	req, err := newRequest(ctx, sourceURL)
	if err != nil {
		return nil, &Error{URL: sourceURL, Kind: KindUnreachable, Cause: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(sourceURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, &Error{URL: sourceURL, Kind: KindNotFound}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &Error{URL: sourceURL, Kind: KindRateLimited, RetryAfter: retryAfter(resp)}
	default:
		return nil, &Error{URL: sourceURL, Kind: KindUnreachable,
			Cause: fmt.Errorf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: sourceURL, Kind: KindUnreachable, Cause: err}
	}

	html := string(body)
	text, err := ExtractMainText(html, portfolioSelectors())
	if err != nil {
		return nil, &Error{URL: sourceURL, Kind: KindUnreachable, Cause: err}
	}

	// SPA sites often ship an empty shell; re-render in a browser if allowed.
	if f.useBrowser && ShouldUseBrowser(text) {
		rendered, berr := WithBrowser(ctx, sourceURL, 20*time.Second, f.verbose)
		if berr == nil {
			if renderedText, terr := ExtractMainText(rendered, portfolioSelectors()); terr == nil {
				html = rendered
				text = renderedText
			}
		}
	}

	return &RawPayload{
		SourceURL: sourceURL,
		Kind:      types.SourceGeneric,
		FetchedAt: time.Now(),
		HTML:      html,
		Text:      text,
	}, nil
}

// portfolioSelectors returns content selectors for personal portfolio pages.
func portfolioSelectors() []string {
	return []string{
		"main",
		"article",
		".portfolio",
		".projects",
		".content",
		"#content",
		".main-content",
	}
}

// ExtractMainText parses HTML and returns the main body text with layout
// noise removed. If no content selector matches it falls back to body.
func ExtractMainText(html string, contentSelectors []string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, .ad, .sidebar, .cookie-banner, .popup").Remove()

	var mainContent *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	return cleanWhitespace(mainContent.Text()), nil
}

// cleanWhitespace normalizes whitespace in extracted text.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
