// internal/providers/places-search/config.go
package placessearch

import "time"

const DefaultBaseURL = "https://maps.googleapis.com"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}
