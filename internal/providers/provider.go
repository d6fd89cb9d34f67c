// Package providers selects the restaurant search backend from configuration.
package providers

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/config"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/logger"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/models"
	cachedsearch "github.com/SeanAminov/AutoShopper-AI-Sean/internal/providers/cached-search"
	indexsearch "github.com/SeanAminov/AutoShopper-AI-Sean/internal/providers/index-search"
	placessearch "github.com/SeanAminov/AutoShopper-AI-Sean/internal/providers/places-search"
	yelpsearch "github.com/SeanAminov/AutoShopper-AI-Sean/internal/providers/yelp-search"
)

// RestaurantProvider finds candidate restaurants for a query. Implementations
// make at most one outbound call and never retry.
type RestaurantProvider interface {
	Platform() string
	Search(ctx context.Context, q models.SearchQuery) ([]models.Candidate, error)
}

// Deps carries the optional backing clients. Elasticsearch is required for the
// index provider; Redis wraps any provider in the search cache when set.
type Deps struct {
	Elasticsearch *elasticsearch.Client
	Redis         redis.Cmdable
}

// New builds the provider named by cfg.Provider.Name. An unknown name is an error.
func New(cfg *config.Config, deps Deps, log logger.Logger) (RestaurantProvider, error) {
	timeout := config.GetDuration(cfg.Provider.Timeout)

	var provider RestaurantProvider
	switch cfg.Provider.Name {
	case config.ProviderYelp:
		provider = yelpsearch.NewProvider(&yelpsearch.Config{
			BaseURL: cfg.Provider.Yelp.BaseURL,
			APIKey:  cfg.Provider.Yelp.APIKey,
			Timeout: timeout,
		}, log)
	case config.ProviderGooglePlaces:
		provider = placessearch.NewProvider(&placessearch.Config{
			BaseURL: cfg.Provider.GooglePlaces.BaseURL,
			APIKey:  cfg.Provider.GooglePlaces.APIKey,
			Timeout: timeout,
		}, log)
	case config.ProviderIndex:
		if deps.Elasticsearch == nil {
			return nil, fmt.Errorf("provider %q requires an elasticsearch client", config.ProviderIndex)
		}
		provider = indexsearch.NewProvider(&indexsearch.Config{
			IndexName: cfg.Provider.Index.Name,
			Platform:  cfg.Provider.Index.Platform,
			Timeout:   timeout,
		}, deps.Elasticsearch, log)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
	}

	if cfg.Cache.Enabled && deps.Redis != nil {
		provider = cachedsearch.NewProvider(provider, deps.Redis, &cachedsearch.Config{
			TTL:       config.GetDuration(cfg.Cache.TTL),
			KeyPrefix: cfg.Cache.KeyPrefix,
		}, log)
	}

	log.Info("restaurant provider selected", map[string]interface{}{
		"provider": cfg.Provider.Name,
		"platform": provider.Platform(),
		"cached":   cfg.Cache.Enabled && deps.Redis != nil,
	})

	return provider, nil
}
