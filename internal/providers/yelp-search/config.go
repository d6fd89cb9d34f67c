// internal/providers/yelp-search/config.go
package yelpsearch

import "time"

const DefaultBaseURL = "https://api.yelp.com/v3"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}
