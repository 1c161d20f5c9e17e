// Package ratelimit throttles clients of the analysis API. Full analyses
// fan out to external services and possibly a headless browser, so each
// client gets a token bucket per endpoint and method.
package ratelimit

import (
	"sync"
	"time"
)

// staleAfter is how long an untouched bucket survives before the
// background sweep drops it.
const staleAfter = time.Hour

// tokenBucket refills at a steady rate up to a burst capacity.
type tokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	refilledAt time.Time
	touchedAt  time.Time
}

func newTokenBucket(capacity int, refillRate float64) *tokenBucket {
	now := time.Now()
	return &tokenBucket{
		capacity:   float64(capacity),
		refillRate: refillRate,
		tokens:     float64(capacity),
		refilledAt: now,
		touchedAt:  now,
	}
}

// refill credits tokens for the time elapsed since the last refill.
// Callers hold mu.
func (b *tokenBucket) refill(now time.Time) {
	b.tokens = min(b.capacity, b.tokens+now.Sub(b.refilledAt).Seconds()*b.refillRate)
	b.refilledAt = now
}

// allow consumes one token when available.
func (b *tokenBucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.refill(now)
	b.touchedAt = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// getStatus reports whole tokens remaining and when the bucket is full again.
func (b *tokenBucket) getStatus() (remaining int, resetTime time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.refill(now)
	resetTime = now
	if b.tokens < b.capacity {
		secondsToFull := (b.capacity - b.tokens) / b.refillRate
		resetTime = now.Add(time.Duration(secondsToFull * float64(time.Second)))
	}
	return int(b.tokens), resetTime
}

func (b *tokenBucket) idleSince(cutoff time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.touchedAt.Before(cutoff)
}

// Info carries the outcome of one rate-limit decision, for response headers.
// Limit is zero when no limit applied (disabled, whitelisted, or unlimited
// endpoint).
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config controls the limiter. Whitelisted clients bypass all limits;
// blacklisted clients are always refused. EndpointConfigs override the
// default limit for specific path and method pairs.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// Limiter hands out tokens per client, endpoint, and method. Buckets are
// created on first use and dropped by a background sweep once idle.
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*tokenBucket
	config  *Config

	sweeper *time.Ticker
	stop    chan struct{}
}

// NewLimiter builds a limiter from config. A nil config enables limiting
// with a default of 1000 requests per minute per client.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
		}
	}

	l := &Limiter{
		buckets: make(map[string]*tokenBucket),
		config:  config,
	}
	if config.Enabled && config.CleanupInterval > 0 {
		l.sweeper = time.NewTicker(config.CleanupInterval)
		l.stop = make(chan struct{})
		go l.sweep()
	}
	return l
}

// Allow decides whether a request from clientID to endpoint may proceed.
func (l *Limiter) Allow(clientID, endpoint, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{}
	}

	cfg := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if cfg == nil {
		cfg = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
		}
	}
	if cfg.Limit <= 0 {
		// Unlimited endpoints, such as the health check.
		return true, Info{Allowed: true}
	}

	bucket := l.bucket(clientID+":"+endpoint+":"+method, cfg)
	allowed := bucket.allow()
	remaining, resetTime := bucket.getStatus()

	info := Info{
		Allowed:   allowed,
		Limit:     cfg.Limit,
		Remaining: remaining,
		ResetTime: resetTime,
	}
	if !allowed {
		if info.RetryAfter = time.Until(resetTime); info.RetryAfter < 0 {
			info.RetryAfter = 0
		}
	}
	return allowed, info
}

// bucket returns the bucket for key, creating it on first use.
func (l *Limiter) bucket(key string, cfg *EndpointConfig) *tokenBucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	capacity := cfg.Burst
	if capacity <= 0 {
		capacity = cfg.Limit
	}
	fresh := newTokenBucket(capacity, float64(cfg.Limit)/cfg.Window.Seconds())

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		// Another request created it first.
		return b
	}
	l.buckets[key] = fresh
	return fresh
}

func (l *Limiter) sweep() {
	for {
		select {
		case <-l.sweeper.C:
			l.dropIdle(time.Now().Add(-staleAfter))
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) dropIdle(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.idleSince(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop halts the background sweep. The limiter remains usable.
func (l *Limiter) Stop() {
	if l.sweeper != nil {
		l.sweeper.Stop()
	}
	if l.stop != nil {
		close(l.stop)
	}
}
