package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hireproof/hireproof/internal/cache"
	"github.com/hireproof/hireproof/internal/config"
	"github.com/hireproof/hireproof/internal/extract"
	"github.com/hireproof/hireproof/internal/fetch"
	"github.com/hireproof/hireproof/internal/policy"
	"github.com/hireproof/hireproof/internal/risk"
	"github.com/hireproof/hireproof/internal/scoring"
	"github.com/hireproof/hireproof/internal/summary"
	"github.com/hireproof/hireproof/internal/types"
)

// Orchestrator coordinates the analysis pipeline for each request:
// cache check, concurrent source fetches, extraction, aggregation, risk
// detection, recommendation and summary. It is safe for concurrent use.
type Orchestrator struct {
	cfg         *config.Config
	fetchers    []fetch.Fetcher
	cache       cache.Cache
	aggregator  *scoring.Aggregator
	roleMatcher scoring.RoleMatcher
	detector    *risk.Detector
	recommender *policy.Recommender
	summarizer  summary.Summarizer

	// group deduplicates concurrent identical requests: one computation
	// serves every waiter with the same fingerprint.
	group singleflight.Group

	// now is injectable so scoring stays reproducible in tests.
	now func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFetchers replaces the source fetcher set.
func WithFetchers(fetchers ...fetch.Fetcher) Option {
	return func(o *Orchestrator) { o.fetchers = fetchers }
}

// WithCache replaces the analysis cache backend.
func WithCache(c cache.Cache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithSummarizer replaces the summary generator.
func WithSummarizer(s summary.Summarizer) Option {
	return func(o *Orchestrator) { o.summarizer = s }
}

// WithRoleMatcher replaces the role-match scoring axis.
func WithRoleMatcher(m scoring.RoleMatcher) Option {
	return func(o *Orchestrator) { o.roleMatcher = m }
}

// WithClock replaces the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator wired with default collaborators: a GitHub
// fetcher, a portfolio fetcher, an in-memory cache, and the template
// summarizer. Options override any of them.
func New(cfg *config.Config, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = config.Defaults()
	}
	o := &Orchestrator{
		cfg: cfg,
		fetchers: []fetch.Fetcher{
			fetch.NewGitHubFetcher(fetch.WithGitHubToken(cfg.GitHubToken)),
			fetch.NewPortfolioFetcher(fetch.WithBrowserFallback(cfg.UseBrowser)),
		},
		cache:       cache.NewMemory(),
		aggregator:  scoring.NewAggregator(cfg),
		roleMatcher: scoring.NewEvidenceRoleMatcher(),
		detector:    risk.NewDetector(),
		recommender: policy.NewRecommender(cfg),
		summarizer:  summary.NewTemplateSummarizer(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Fingerprint exposes the cache key for a request, for cache busting.
func (o *Orchestrator) Fingerprint(req *types.AnalysisRequest) string {
	return cache.Fingerprint(req.SourceURL, req.ResumeBlob)
}

// Invalidate drops any cached result for the request's fingerprint.
func (o *Orchestrator) Invalidate(ctx context.Context, req *types.AnalysisRequest) {
	o.cache.Invalidate(ctx, o.Fingerprint(req))
}

// Analyze runs the pipeline for one request. Validation failures return an
// error; every other failure mode degrades to a usable result. Concurrent
// calls with the same fingerprint share one computation; a caller that
// cancels stops waiting without disturbing the shared run.
func (o *Orchestrator) Analyze(ctx context.Context, req *types.AnalysisRequest, onEvent EventFunc) (*types.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// The relay detaches before Analyze returns, so the callback never
	// fires after the caller has moved on. A streaming handler's response
	// writer is dead once its ServeHTTP returns; without the relay a
	// shared computation would keep writing to it.
	relay := newEventRelay(onEvent)
	defer relay.detach()

	emit(relay.emit, StagePending, "Request accepted")

	fingerprint := o.Fingerprint(req)
	if cached, ok := o.cache.Get(ctx, fingerprint); ok {
		emit(relay.emit, StageComplete, "Served from cache")
		return cached, nil
	}

	ch := o.group.DoChan(fingerprint, func() (any, error) {
		// The computation outlives any individual waiter: it is bounded by
		// the pipeline budget, not by whichever caller started it.
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.PipelineTimeout)
		defer cancel()
		return o.run(runCtx, req, fingerprint, relay.emit), nil
	})

	select {
	case res := <-ch:
		result := res.Val.(*types.AnalysisResult)
		if res.Shared {
			emit(relay.emit, StageComplete, "Joined in-flight analysis")
		}
		return result, nil
	case <-ctx.Done():
		// Per-subscriber cancellation: other waiters keep waiting.
		return nil, ctx.Err()
	}
}

// run executes the pipeline stages in their fixed sequence.
func (o *Orchestrator) run(ctx context.Context, req *types.AnalysisRequest, fingerprint string, onEvent EventFunc) *types.AnalysisResult {
	asOf := o.now()

	emit(onEvent, StageFetching, "Analyzing candidate sources...")
	payloads := o.fetchAll(ctx, req.SourceURL)
	if len(payloads) == 0 && len(req.ResumeBlob) == 0 {
		emit(onEvent, StageFailed, "All sources unavailable, returning fallback report")
		return FallbackResult(req.SourceURL, fingerprint, asOf)
	}

	emit(onEvent, StageExtracting, "Extracting signals...")
	var signals []types.Signal
	for _, payload := range payloads {
		signals = append(signals, extract.Extract(payload)...)
	}
	signals = append(signals, extract.ExtractResume(req, asOf)...)
	signals = extract.Dedupe(signals)

	emit(onEvent, StageAggregating, "Calculating authenticity score...")
	agg := o.aggregator.Aggregate(signals, asOf)
	roleMatch := o.roleMatcher.Score(agg)

	emit(onEvent, StageDetecting, "Scanning for risk patterns...")
	flags := o.detector.Detect(risk.Input{
		Skills:   agg.Skills,
		Projects: agg.Projects,
		Signals:  signals,
		Config:   o.cfg,
	})

	emit(onEvent, StageRecommending, "Generating recommendation...")
	recommendation := o.recommender.Recommend(agg.AuthenticityScore, flags)

	result := &types.AnalysisResult{
		ID:                uuid.New(),
		AuthenticityScore: agg.AuthenticityScore,
		ConfidenceLevel:   agg.ConfidenceLevel,
		Recommendation:    recommendation,
		RoleMatchScore:    roleMatch,
		Skills:            agg.Skills,
		Projects:          agg.Projects,
		Risks:             flags,
		Summary: o.summarizer.Summarize(summary.Context{
			SourceURL:      req.SourceURL,
			Aggregate:      agg,
			Risks:          flags,
			Recommendation: recommendation,
		}),
		Degraded:    len(payloads) == 0,
		SourceURL:   req.SourceURL,
		Fingerprint: fingerprint,
		CreatedAt:   asOf,
	}

	// Degraded results stay out of the cache so a later retry can succeed.
	if !result.Degraded {
		o.cache.Put(ctx, fingerprint, result, o.cfg.CacheTTL)
	}

	emit(onEvent, StageComplete, fmt.Sprintf("Analysis complete: %s", recommendation))
	return result
}

// fetchAll fans out over every fetcher that accepts the source URL, bounded
// by the configured concurrency limit and per-fetch timeout. Failures are
// tolerated; only the successful payloads come back.
func (o *Orchestrator) fetchAll(ctx context.Context, sourceURL string) []*fetch.RawPayload {
	var accepted []fetch.Fetcher
	for _, f := range o.fetchers {
		if f.Accepts(sourceURL) {
			accepted = append(accepted, f)
		}
	}
	if len(accepted) == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		payloads []*fetch.RawPayload
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxConcurrentFetches)
	for _, f := range accepted {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, o.cfg.FetchTimeout)
			defer cancel()

			payload, err := f.Fetch(fetchCtx, sourceURL)
			if err != nil {
				// Recovered locally: a failed source degrades the report
				// instead of failing the request.
				log.Printf("[pipeline] %s fetch failed for %s: %v", f.Kind(), sourceURL, err)
				return nil
			}
			mu.Lock()
			payloads = append(payloads, payload)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return payloads
}
