package elevation

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rfsurvey/antenna-cli/internal/geo"
	"github.com/rfsurvey/antenna-cli/internal/store"
)

// CachingProvider wraps a Provider with a SQLite-backed response cache.
// Terrain doesn't move, so cached profiles stay valid for a long TTL.
type CachingProvider struct {
	inner Provider
	store *store.Store
	ttl   time.Duration
}

// NewCachingProvider wraps the given provider. A ttl of zero disables expiry.
func NewCachingProvider(inner Provider, s *store.Store, ttl time.Duration) *CachingProvider {
	return &CachingProvider{inner: inner, store: s, ttl: ttl}
}

// Name implements Provider.
func (c *CachingProvider) Name() string { return c.inner.Name() }

// cacheKey identifies one (provider, path, samples) lookup. Coordinates are
// keyed at 5 decimal places, matching ingestion precision.
func cacheKey(provider string, from, to geo.Point, samples int) string {
	normalized := fmt.Sprintf("%s|%.5f,%.5f|%.5f,%.5f|%d",
		provider, from.Lat, from.Lon, to.Lat, to.Lon, samples,
	)
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// AlongPath implements Provider, serving from the cache when possible.
// Cache failures fall through to the inner provider.
func (c *CachingProvider) AlongPath(ctx context.Context, from, to geo.Point, samples int) ([]Sample, error) {
	key := cacheKey(c.inner.Name(), from, to, samples)

	if payload, hit, err := c.store.CacheGet(ctx, key, c.ttl); err == nil && hit {
		var cached []Sample
		if err := json.Unmarshal([]byte(payload), &cached); err == nil {
			zap.L().Debug("elevation cache hit", zap.String("key", key[:12]))
			return cached, nil
		}
		zap.L().Warn("elevation cache: discarding undecodable entry", zap.String("key", key[:12]))
	}

	result, err := c.inner.AlongPath(ctx, from, to, samples)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "elevation: marshal cache payload")
	}
	if err := c.store.CachePut(ctx, key, c.inner.Name(), string(payload)); err != nil {
		zap.L().Warn("elevation cache: store failed", zap.Error(err))
	}

	return result, nil
}
