// Package predictor provides caching for stage predictions.
package predictor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
)

// CachedPredictor wraps a StagePredictor with an in-memory cache keyed by
// race and partial ordering. Stage vectors are immutable per race, so cached
// entries never go stale within their TTL.
type CachedPredictor struct {
	inner StagePredictor
	cache *cache.Cache
}

// NewCachedPredictor wraps a predictor with a TTL cache.
func NewCachedPredictor(inner StagePredictor, ttl time.Duration) *CachedPredictor {
	return &CachedPredictor{
		inner: inner,
		cache: cache.New(ttl, ttl*2),
	}
}

// Variant returns the wrapped predictor's variant name.
func (c *CachedPredictor) Variant() string { return c.inner.Variant() }

// Predict returns the cached vector when available, otherwise delegates.
func (c *CachedPredictor) Predict(ctx context.Context, raceID uuid.UUID, placed []int, rows [][]float64) ([]float64, error) {
	key := cacheKey(raceID, placed)
	if cached, found := c.cache.Get(key); found {
		if vector, ok := cached.([]float64); ok {
			StagePredictionsTotal.WithLabelValues(c.inner.Variant(), "true").Inc()
			out := make([]float64, len(vector))
			copy(out, vector)
			return out, nil
		}
	}

	vector, err := c.inner.Predict(ctx, raceID, placed, rows)
	if err != nil {
		return nil, err
	}

	stored := make([]float64, len(vector))
	copy(stored, vector)
	c.cache.Set(key, stored, cache.DefaultExpiration)
	return vector, nil
}

func cacheKey(raceID uuid.UUID, placed []int) string {
	return fmt.Sprintf("%s:%v", raceID, placed)
}
