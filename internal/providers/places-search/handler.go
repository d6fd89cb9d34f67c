// internal/providers/places-search/handler.go
package placessearch

import (
	"context"
	"fmt"
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
	Platform       = "Google Maps"
	textSearchPath = "/maps/api/place/textsearch/json"
	defaultTerm    = "food"
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

// Search runs a text search for "<term> restaurant <location>". The API has
// no limit parameter so results are truncated here.
func (p *Provider) Search(ctx context.Context, q models.SearchQuery) ([]models.Candidate, error) {
	if p.config.APIKey == "" {
		return nil, apperrors.NewConfigurationError("GOOGLE_PLACES_API_KEY not set")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.buildSearchURL(q), nil)
	if err != nil {
		return nil, apperrors.NewProviderRequestFailedError(Platform, err)
	}

	var resp textSearchResponse
	if err := p.client.DoJSON(req, &resp); err != nil {
		if commonhttp.IsTimeout(err) {
			return nil, apperrors.NewProviderTimeoutError(Platform, err)
		}
		return nil, apperrors.NewProviderRequestFailedError(Platform, err)
	}

	// REQUEST_DENIED, OVER_QUERY_LIMIT and friends arrive as HTTP 200 with no
	// results; they are reported to the caller as an empty search.
	if resp.Status != "" && resp.Status != statusOK && resp.Status != statusZeroResults {
		p.logger.Warn("places search returned no usable status", map[string]interface{}{
			"status":       resp.Status,
			"errorMessage": resp.ErrorMessage,
		})
		return []models.Candidate{}, nil
	}

	results := resp.Results
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}

	candidates := make([]models.Candidate, 0, len(results))
	for _, pl := range results {
		candidates = append(candidates, toCandidate(pl))
	}

	p.logger.Debug("places search completed", map[string]interface{}{
		"term":        q.Term,
		"status":      resp.Status,
		"resultCount": len(candidates),
	})

	return candidates, nil
}

func (p *Provider) buildSearchURL(q models.SearchQuery) string {
	term := q.Term
	if term == "" {
		term = defaultTerm
	}

	params := url.Values{}
	params.Set("query", fmt.Sprintf("%s restaurant %s", term, q.Location))
	params.Set("type", "restaurant")
	params.Set("key", p.config.APIKey)
	if q.MaxPriceLevel > 0 {
		params.Set("maxprice", strconv.Itoa(q.MaxPriceLevel))
	}

	return strings.TrimRight(p.config.BaseURL, "/") + textSearchPath + "?" + params.Encode()
}

// CheckoutURL opens the place in Google Maps.
func CheckoutURL(placeID string) string {
	if placeID == "" {
		return ""
	}
	return "https://www.google.com/maps/place/?q=place_id:" + placeID
}

func toCandidate(pl place) models.Candidate {
	types := pl.Types
	if types == nil {
		types = []string{}
	}
	return models.Candidate{
		ID:         pl.PlaceID,
		Name:       pl.Name,
		Rating:     pl.Rating,
		Price:      models.PriceSymbol(pl.PriceLevel),
		PriceLevel: pl.PriceLevel,
		Categories: types,
		Address:    pl.FormattedAddress,
		URL:        CheckoutURL(pl.PlaceID),
	}
}
