// internal/providers/cached-search/handler.go
package cachedsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/logger"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/metrics"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/models"
)

// Searcher is the provider being cached.
type Searcher interface {
	Platform() string
	Search(ctx context.Context, q models.SearchQuery) ([]models.Candidate, error)
}

// Provider serves repeated searches from Redis. Any cache failure falls
// through to the wrapped provider; empty results are not cached.
type Provider struct {
	next   Searcher
	rdb    redis.Cmdable
	config *Config
	logger logger.Logger
}

func NewProvider(next Searcher, rdb redis.Cmdable, config *Config, log logger.Logger) *Provider {
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultKeyPrefix
	}
	return &Provider{
		next:   next,
		rdb:    rdb,
		config: config,
		logger: log.With(map[string]interface{}{
			"platform": next.Platform(),
			"cache":    "redis",
		}),
	}
}

func (p *Provider) Platform() string {
	return p.next.Platform()
}

func (p *Provider) Search(ctx context.Context, q models.SearchQuery) ([]models.Candidate, error) {
	key := p.Key(q)

	if cached, ok := p.lookup(ctx, key); ok {
		metrics.SearchCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.SearchCacheLookups.WithLabelValues("miss").Inc()

	candidates, err := p.next.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	if len(candidates) > 0 {
		p.store(ctx, key, candidates)
	}

	return candidates, nil
}

// Key identifies a search by everything that changes its result.
func (p *Provider) Key(q models.SearchQuery) string {
	return fmt.Sprintf("%s:%s:%s:%s:%d:%d",
		p.config.KeyPrefix,
		strings.ToLower(strings.ReplaceAll(p.next.Platform(), " ", "_")),
		normalize(q.Term),
		normalize(q.Location),
		q.MaxPriceLevel,
		q.Limit,
	)
}

func (p *Provider) lookup(ctx context.Context, key string) ([]models.Candidate, bool) {
	raw, err := p.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.logger.Warn("search cache read failed", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
		return nil, false
	}

	var candidates []models.Candidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		p.logger.Warn("discarding unreadable cache entry", map[string]interface{}{
			"key":   key,
			"error": err,
		})
		return nil, false
	}

	return candidates, true
}

func (p *Provider) store(ctx context.Context, key string, candidates []models.Candidate) {
	raw, err := json.Marshal(candidates)
	if err != nil {
		return
	}
	if err := p.rdb.Set(ctx, key, raw, p.config.TTL).Err(); err != nil {
		p.logger.Warn("search cache write failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
