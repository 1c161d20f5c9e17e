// Package config provides configuration loading and validation for the analysis engine.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Scoring and policy defaults. The bucket and recommendation thresholds mirror
// the values the report UI renders against; they are configuration, not fixed
// truths, so product can tune them without a code change.
const (
	DefaultVerificationThreshold = 70
	DefaultHighAuthenticityMin   = 76 // confidence > 75 => High
	DefaultMediumAuthenticityMin = 45 // 45-75 => Medium, below => Low
	DefaultShortlistMin          = 80
	DefaultReviewMin             = 50
	DefaultDecayHalfLife         = 180 * 24 * time.Hour
	DefaultFetchTimeout          = 10 * time.Second
	DefaultPipelineTimeout       = 30 * time.Second
	DefaultCacheTTL              = 24 * time.Hour
	DefaultMaxConcurrentFetches  = 4
)

// Config holds engine configuration. Zero values are replaced with defaults
// by Load, so a Config literal in tests only needs the fields under test.
type Config struct {
	// Scoring policy
	VerificationThreshold int           // skill confidence needed for verification
	HighAuthenticityMin   int           // lowest confidence still bucketed High
	MediumAuthenticityMin int           // lowest confidence still bucketed Medium
	ShortlistMin          int           // lowest score eligible for SHORTLIST
	ReviewMin             int           // lowest score eligible for REVIEW
	DecayHalfLife         time.Duration // evidence-age half-life for recency decay

	// Pipeline budgets
	FetchTimeout         time.Duration // per-source fetch budget
	PipelineTimeout      time.Duration // overall per-request budget
	MaxConcurrentFetches int

	// External collaborators
	DatabaseURL string // optional; empty disables persistence
	RedisAddr   string // optional; empty selects the in-memory cache
	GitHubToken string // optional; raises GitHub API rate limits
	GeminiKey   string // optional; enables AI summary generation
	CacheTTL    time.Duration

	// Behavior
	RequireAuth bool // reject unauthenticated /analyze and /candidates calls
	UseBrowser  bool // headless-browser fallback for SPA portfolio sites
	Verbose     bool
}

// Load reads configuration from environment variables, applying defaults for
// anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		VerificationThreshold: getEnvInt("VERIFICATION_THRESHOLD", DefaultVerificationThreshold),
		HighAuthenticityMin:   getEnvInt("AUTHENTICITY_HIGH_MIN", DefaultHighAuthenticityMin),
		MediumAuthenticityMin: getEnvInt("AUTHENTICITY_MEDIUM_MIN", DefaultMediumAuthenticityMin),
		ShortlistMin:          getEnvInt("RECOMMEND_SHORTLIST_MIN", DefaultShortlistMin),
		ReviewMin:             getEnvInt("RECOMMEND_REVIEW_MIN", DefaultReviewMin),
		DecayHalfLife:         getEnvDuration("EVIDENCE_DECAY_HALF_LIFE", DefaultDecayHalfLife),
		FetchTimeout:          getEnvDuration("FETCH_TIMEOUT", DefaultFetchTimeout),
		PipelineTimeout:       getEnvDuration("PIPELINE_TIMEOUT", DefaultPipelineTimeout),
		MaxConcurrentFetches:  getEnvInt("MAX_CONCURRENT_FETCHES", DefaultMaxConcurrentFetches),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		GitHubToken:           os.Getenv("GITHUB_TOKEN"),
		GeminiKey:             os.Getenv("GEMINI_API_KEY"),
		CacheTTL:              getEnvDuration("ANALYSIS_CACHE_TTL", DefaultCacheTTL),
		RequireAuth:           getEnvBool("REQUIRE_AUTH", false),
		UseBrowser:            getEnvBool("USE_BROWSER", false),
		Verbose:               getEnvBool("VERBOSE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration has coherent values.
func (c *Config) Validate() error {
	if c.VerificationThreshold < 0 || c.VerificationThreshold > 100 {
		return fmt.Errorf("config error: verification threshold out of range: %d", c.VerificationThreshold)
	}
	if c.MediumAuthenticityMin >= c.HighAuthenticityMin {
		return fmt.Errorf("config error: authenticity buckets overlap: medium min %d >= high min %d",
			c.MediumAuthenticityMin, c.HighAuthenticityMin)
	}
	if c.ReviewMin >= c.ShortlistMin {
		return fmt.Errorf("config error: recommendation cutoffs overlap: review min %d >= shortlist min %d",
			c.ReviewMin, c.ShortlistMin)
	}
	if c.FetchTimeout <= 0 || c.PipelineTimeout <= 0 {
		return fmt.Errorf("config error: timeouts must be positive")
	}
	if c.FetchTimeout > c.PipelineTimeout {
		return fmt.Errorf("config error: fetch timeout %s exceeds pipeline budget %s",
			c.FetchTimeout, c.PipelineTimeout)
	}
	if c.MaxConcurrentFetches < 1 {
		return fmt.Errorf("config error: max concurrent fetches must be at least 1")
	}
	if c.DecayHalfLife <= 0 {
		return fmt.Errorf("config error: decay half-life must be positive")
	}
	return nil
}

// Defaults returns a Config populated entirely with default values, ignoring
// the environment. Used by tests and the one-shot CLI path.
func Defaults() *Config {
	return &Config{
		VerificationThreshold: DefaultVerificationThreshold,
		HighAuthenticityMin:   DefaultHighAuthenticityMin,
		MediumAuthenticityMin: DefaultMediumAuthenticityMin,
		ShortlistMin:          DefaultShortlistMin,
		ReviewMin:             DefaultReviewMin,
		DecayHalfLife:         DefaultDecayHalfLife,
		FetchTimeout:          DefaultFetchTimeout,
		PipelineTimeout:       DefaultPipelineTimeout,
		MaxConcurrentFetches:  DefaultMaxConcurrentFetches,
		CacheTTL:              DefaultCacheTTL,
	}
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
