// internal/providers/yelp-search/handler.go
package yelpsearch

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/errors"
	commonhttp "github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/http"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/logger"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/models"
)

const (
	Platform    = "Yelp"
	defaultTerm = "food"
)

type Provider struct {
	config *Config
	client *commonhttp.Client
	logger logger.Logger
}

func NewProvider(config *Config, log logger.Logger) *Provider {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	return &Provider{
		config: config,
		client: commonhttp.NewClient(config.Timeout),
		logger: log.With(map[string]interface{}{
			"platform": Platform,
		}),
	}
}

func (p *Provider) Platform() string {
	return Platform
}

// Search queries the business search endpoint sorted by rating and restricted
// to the restaurants category.
func (p *Provider) Search(ctx context.Context, q models.SearchQuery) ([]models.Candidate, error) {
	if p.config.APIKey == "" {
		return nil, apperrors.NewConfigurationError("YELP_API_KEY not set")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.buildSearchURL(q), nil)
	if err != nil {
		return nil, apperrors.NewProviderRequestFailedError(Platform, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	var resp searchResponse
	if err := p.client.DoJSON(req, &resp); err != nil {
		if commonhttp.IsTimeout(err) {
			return nil, apperrors.NewProviderTimeoutError(Platform, err)
		}
		return nil, apperrors.NewProviderRequestFailedError(Platform, err)
	}

	candidates := make([]models.Candidate, 0, len(resp.Businesses))
	for _, b := range resp.Businesses {
		candidates = append(candidates, toCandidate(b))
	}
	if q.Limit > 0 && len(candidates) > q.Limit {
		candidates = candidates[:q.Limit]
	}

	p.logger.Debug("yelp search completed", map[string]interface{}{
		"term":        q.Term,
		"resultCount": len(candidates),
		"total":       resp.Total,
	})

	return candidates, nil
}

func (p *Provider) buildSearchURL(q models.SearchQuery) string {
	term := q.Term
	if term == "" {
		term = defaultTerm
	}

	params := url.Values{}
	params.Set("term", term)
	params.Set("location", q.Location)
	params.Set("categories", "restaurants")
	params.Set("sort_by", "rating")
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.MaxPriceLevel > 0 {
		params.Set("price", priceFilter(q.MaxPriceLevel))
	}

	return strings.TrimRight(p.config.BaseURL, "/") + "/businesses/search?" + params.Encode()
}

// priceFilter expands a tier into Yelp's inclusive list, 3 -> "1,2,3".
func priceFilter(level int) string {
	if level > 4 {
		level = 4
	}
	levels := make([]string, 0, level)
	for i := 1; i <= level; i++ {
		levels = append(levels, strconv.Itoa(i))
	}
	return strings.Join(levels, ",")
}

func toCandidate(b business) models.Candidate {
	categories := make([]string, 0, len(b.Categories))
	for _, c := range b.Categories {
		categories = append(categories, c.Title)
	}
	return models.Candidate{
		ID:         b.ID,
		Name:       b.Name,
		Rating:     b.Rating,
		Price:      b.Price,
		PriceLevel: len(b.Price),
		Categories: categories,
		Address:    strings.Join(b.Location.DisplayAddress, ", "),
		URL:        b.URL,
	}
}
