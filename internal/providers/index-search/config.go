// internal/providers/index-search/config.go
package indexsearch

import "time"

type Config struct {
	IndexName string
	// Platform is reported in OrderResult.platform for plans served from the index.
	Platform string
	Timeout  time.Duration
}
