package cache

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/routinematch/backend/internal/domain"
	"github.com/routinematch/backend/internal/logging"
	"github.com/routinematch/backend/internal/metrics"
)

var multipleSpaces = regexp.MustCompile(`\s+`)

// CatalogCache memoizes catalog searches. Failures and empty results are not stored.
type CatalogCache struct {
	next  domain.CatalogSearcher
	store domain.CacheRepository
	ttl   time.Duration
}

// NewCatalogCache wraps a searcher; a non-positive ttl defaults to ten minutes
func NewCatalogCache(next domain.CatalogSearcher, store domain.CacheRepository, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CatalogCache{next: next, store: store, ttl: ttl}
}

// Search returns the cached result for the normalized query, or searches and stores it
func (c *CatalogCache) Search(ctx context.Context, query string) ([]domain.CatalogProduct, error) {
	key := catalogKey(query)

	if data, err := c.store.Get(ctx, key); err == nil {
		var products []domain.CatalogProduct
		if err := json.Unmarshal(data, &products); err == nil {
			metrics.RecordCatalogCacheHit()
			return products, nil
		}
		// unreadable entry: drop it and search again
		_ = c.store.Delete(ctx, key)
	}

	products, err := c.next.Search(ctx, query)
	if err != nil || len(products) == 0 {
		return products, err
	}

	data, err := json.Marshal(products)
	if err != nil {
		logging.Warn().Err(err).Str("query", query).Msg("[CACHE] failed to encode catalog result")
		return products, nil
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		logging.Warn().Err(err).Str("query", query).Msg("[CACHE] failed to store catalog result")
	}
	return products, nil
}

// catalogKey builds "catalog:{lowercased query with collapsed whitespace}"
func catalogKey(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	return "catalog:" + multipleSpaces.ReplaceAllString(q, " ")
}
