// internal/providers/index-search/handler.go
package indexsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/errors"
	commonhttp "github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/http"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/logger"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/models"
)

const (
	DefaultPlatform = "AutoShopper"
	defaultTerm     = "food"
)

// Provider searches a self-hosted restaurant catalogue in Elasticsearch.
type Provider struct {
	config *Config
	client *elasticsearch.Client
	logger logger.Logger
}

func NewProvider(config *Config, client *elasticsearch.Client, log logger.Logger) *Provider {
	if config.Platform == "" {
		config.Platform = DefaultPlatform
	}
	return &Provider{
		config: config,
		client: client,
		logger: log.WithFields(map[string]interface{}{
			"platform": config.Platform,
			"index":    config.IndexName,
		}),
	}
}

func (p *Provider) Platform() string {
	return p.config.Platform
}

func (p *Provider) Search(ctx context.Context, q models.SearchQuery) ([]models.Candidate, error) {
	if p.client == nil || p.config.IndexName == "" {
		return nil, apperrors.NewConfigurationError("restaurant index is not configured")
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(BuildQuery(q))
	if err != nil {
		return nil, apperrors.NewProviderRequestFailedError(p.config.Platform, err)
	}

	size := q.Limit
	req := esapi.SearchRequest{
		Index: []string{p.config.IndexName},
		Body:  bytes.NewReader(body),
	}
	if size > 0 {
		req.Size = &size
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		if commonhttp.IsTimeout(err) || ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewProviderTimeoutError(p.config.Platform, err)
		}
		return nil, apperrors.NewProviderRequestFailedError(p.config.Platform, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, apperrors.NewProviderRequestFailedError(p.config.Platform,
			&commonhttp.StatusError{StatusCode: res.StatusCode, Body: string(msg)})
	}

	var resp searchResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, apperrors.NewProviderRequestFailedError(p.config.Platform, fmt.Errorf("decode response: %w", err))
	}

	candidates := make([]models.Candidate, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		doc := hit.Source
		if doc.ID == "" {
			doc.ID = hit.ID
		}
		candidates = append(candidates, toCandidate(doc))
	}
	if q.Limit > 0 && len(candidates) > q.Limit {
		candidates = candidates[:q.Limit]
	}

	p.logger.Debug("index search completed", map[string]interface{}{
		"term":      q.Term,
		"totalHits": resp.Hits.Total.Value,
		"took":      resp.Took,
	})

	return candidates, nil
}

// BuildQuery renders the search body: a text match on the term (or match_all
// for the generic term), the location as a filter, an optional price ceiling,
// best rated first.
func BuildQuery(q models.SearchQuery) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if q.Term != "" && q.Term != defaultTerm {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Term,
				"fields": []string{"name^3", "categories^2"},
				"type":   "best_fields",
			},
		})
	} else {
		mustClauses = append(mustClauses, map[string]interface{}{
			"match_all": map[string]interface{}{},
		})
	}

	if q.Location != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"match": map[string]interface{}{
				"location": map[string]interface{}{
					"query":    q.Location,
					"operator": "and",
				},
			},
		})
	}

	if q.MaxPriceLevel > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"price_level": map[string]interface{}{"lte": q.MaxPriceLevel},
			},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   mustClauses,
				"filter": filterClauses,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"rating": map[string]interface{}{"order": "desc"}},
			"_score",
		},
	}
}

func toCandidate(doc RestaurantDocument) models.Candidate {
	categories := doc.Categories
	if categories == nil {
		categories = []string{}
	}
	return models.Candidate{
		ID:         doc.ID,
		Name:       doc.Name,
		Rating:     doc.Rating,
		Price:      models.PriceSymbol(doc.PriceLevel),
		PriceLevel: doc.PriceLevel,
		Categories: categories,
		Address:    doc.Address,
		URL:        doc.URL,
	}
}
