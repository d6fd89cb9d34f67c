// internal/providers/cached-search/config.go
package cachedsearch

import "time"

const DefaultKeyPrefix = "autoshopper:search"

type Config struct {
	TTL       time.Duration
	KeyPrefix string
}
