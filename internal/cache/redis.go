package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hireproof/hireproof/internal/types"
)

// keyPrefix namespaces analysis entries in a shared Redis instance.
const keyPrefix = "hireproof:analysis:"

// Redis is a Cache backed by a Redis instance, for deployments with more
// than one engine replica. Any backend error degrades to a miss.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed cache and verifies connectivity.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Redis{client: client}, nil
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, fingerprint string) (*types.AnalysisResult, bool) {
	data, err := r.client.Get(ctx, keyPrefix+fingerprint).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("[cache] redis get failed, treating as miss: %v", err)
		return nil, false
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		log.Printf("[cache] corrupt cache entry for %s, treating as miss: %v", fingerprint, err)
		r.Invalidate(ctx, fingerprint)
		return nil, false
	}
	result.Fingerprint = fingerprint
	return &result, true
}

// Put implements Cache.
func (r *Redis) Put(ctx context.Context, fingerprint string, result *types.AnalysisResult, ttl time.Duration) {
	if result == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		log.Printf("[cache] failed to marshal result for %s: %v", fingerprint, err)
		return
	}
	if err := r.client.Set(ctx, keyPrefix+fingerprint, data, ttl).Err(); err != nil {
		log.Printf("[cache] redis set failed for %s: %v", fingerprint, err)
	}
}

// Invalidate implements Cache.
func (r *Redis) Invalidate(ctx context.Context, fingerprint string) {
	if err := r.client.Del(ctx, keyPrefix+fingerprint).Err(); err != nil {
		log.Printf("[cache] redis del failed for %s: %v", fingerprint, err)
	}
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
