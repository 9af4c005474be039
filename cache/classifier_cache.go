package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// classifierTTL keeps headline verdicts for a day; market questions
// do not change meaning within that window.
const classifierTTL = 24 * time.Hour

// ClassifierCache caches insider-market classifier verdicts so a
// headline is only pushed through the LLM once.
type ClassifierCache struct {
	redis *RedisClient
}

// NewClassifierCache creates a classifier cache. redis may be nil, in
// which case every lookup misses.
func NewClassifierCache(redis *RedisClient) *ClassifierCache {
	return &ClassifierCache{redis: redis}
}

func headlineKey(headline string) string {
	sum := sha256.Sum256([]byte(headline))
	return "insider:verdict:" + hex.EncodeToString(sum[:8])
}

// GetVerdict returns the cached score for a headline, if present.
func (c *ClassifierCache) GetVerdict(ctx context.Context, headline string) (float64, bool) {
	if c == nil || c.redis == nil {
		return 0, false
	}
	var score float64
	if err := c.redis.Get(ctx, headlineKey(headline), &score); err != nil {
		return 0, false
	}
	return score, true
}

// SetVerdict caches the score for a headline.
func (c *ClassifierCache) SetVerdict(ctx context.Context, headline string, score float64) error {
	if c == nil || c.redis == nil {
		return fmt.Errorf("redis client not available")
	}
	return c.redis.Set(ctx, headlineKey(headline), score, classifierTTL)
}
