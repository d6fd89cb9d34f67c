package providers

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/config"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/logger"
	cachedsearch "github.com/SeanAminov/AutoShopper-AI-Sean/internal/providers/cached-search"
	indexsearch "github.com/SeanAminov/AutoShopper-AI-Sean/internal/providers/index-search"
	placessearch "github.com/SeanAminov/AutoShopper-AI-Sean/internal/providers/places-search"
	yelpsearch "github.com/SeanAminov/AutoShopper-AI-Sean/internal/providers/yelp-search"
)

func testConfig(name string) *config.Config {
	cfg := &config.Config{}
	cfg.Provider.Name = name
	cfg.Provider.Timeout = 10000
	cfg.Provider.Index.Name = "restaurants"
	return cfg
}

func TestNew_SelectsByName(t *testing.T) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{"http://127.0.0.1:9200"}})
	require.NoError(t, err)

	tests := []struct {
		name         string
		wantType     interface{}
		wantPlatform string
	}{
		{name: config.ProviderYelp, wantType: &yelpsearch.Provider{}, wantPlatform: "Yelp"},
		{name: config.ProviderGooglePlaces, wantType: &placessearch.Provider{}, wantPlatform: "Google Maps"},
		{name: config.ProviderIndex, wantType: &indexsearch.Provider{}, wantPlatform: "AutoShopper"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(testConfig(tt.name), Deps{Elasticsearch: es}, logger.NewNoOpLogger())
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, p)
			assert.Equal(t, tt.wantPlatform, p.Platform())
		})
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(testConfig("doordash"), Deps{}, logger.NewNoOpLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doordash")
}

func TestNew_IndexWithoutClient(t *testing.T) {
	_, err := New(testConfig(config.ProviderIndex), Deps{}, logger.NewNoOpLogger())
	assert.Error(t, err)
}

func TestNew_WrapsWithCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := testConfig(config.ProviderYelp)
	cfg.Cache.Enabled = true
	cfg.Cache.TTL = 60000

	p, err := New(cfg, Deps{Redis: rdb}, logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.IsType(t, &cachedsearch.Provider{}, p)
	assert.Equal(t, "Yelp", p.Platform())
}
