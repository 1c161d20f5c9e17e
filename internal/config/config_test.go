package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultVerificationThreshold, cfg.VerificationThreshold)
	assert.Equal(t, DefaultShortlistMin, cfg.ShortlistMin)
	assert.Equal(t, DefaultReviewMin, cfg.ReviewMin)
	assert.Equal(t, DefaultDecayHalfLife, cfg.DecayHalfLife)
	assert.Equal(t, DefaultMaxConcurrentFetches, cfg.MaxConcurrentFetches)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VERIFICATION_THRESHOLD", "80")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("REQUIRE_AUTH", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 80, cfg.VerificationThreshold)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.True(t, cfg.RequireAuth)
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("VERIFICATION_THRESHOLD", "not-a-number")
	t.Setenv("PIPELINE_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultVerificationThreshold, cfg.VerificationThreshold)
	assert.Equal(t, DefaultPipelineTimeout, cfg.PipelineTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are coherent", func(c *Config) {}, false},
		{"threshold out of range", func(c *Config) { c.VerificationThreshold = 150 }, true},
		{"authenticity buckets overlap", func(c *Config) { c.MediumAuthenticityMin = 90 }, true},
		{"recommendation cutoffs overlap", func(c *Config) { c.ReviewMin = 95 }, true},
		{"fetch budget exceeds pipeline budget", func(c *Config) { c.FetchTimeout = time.Minute }, true},
		{"zero concurrency", func(c *Config) { c.MaxConcurrentFetches = 0 }, true},
		{"negative half-life", func(c *Config) { c.DecayHalfLife = -time.Hour }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewJWTConfig(t *testing.T) {
	t.Run("requires secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := NewJWTConfig()
		assert.Error(t, err)
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret-that-is-long-enough")
		cfg, err := NewJWTConfig()
		require.NoError(t, err)
		assert.Equal(t, "hireproof", cfg.Issuer)
		assert.Equal(t, 168, cfg.ExpirationHours)
	})
}

func TestPasswordConfig_HashAndVerify(t *testing.T) {
	t.Setenv("BCRYPT_COST", "4") // minimum cost keeps the test fast

	cfg, err := NewPasswordConfig()
	require.NoError(t, err)

	hash, err := cfg.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, cfg.VerifyPassword("correct horse battery staple", hash))
	assert.False(t, cfg.VerifyPassword("wrong password", hash))
}
