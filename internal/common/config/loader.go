// internal/common/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml (optional), merges config.<APP_ENVIRONMENT>.yaml
// on top, applies environment overrides and validates the result.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up from the working directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "autoshopper")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout", 15000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 0)
	v.SetDefault("server.rate_limit_burst", 0)

	v.SetDefault("genai.base_url", "https://api.openai.com/v1")
	v.SetDefault("genai.api_key", "")
	v.SetDefault("genai.model", "gpt-4.1-mini")
	v.SetDefault("genai.timeout", 0)

	v.SetDefault("provider.name", ProviderGooglePlaces)
	v.SetDefault("provider.timeout", 10000)
	v.SetDefault("provider.yelp.base_url", "https://api.yelp.com/v3")
	v.SetDefault("provider.yelp.api_key", "")
	v.SetDefault("provider.google_places.base_url", "https://maps.googleapis.com")
	v.SetDefault("provider.google_places.api_key", "")
	v.SetDefault("provider.index.name", "restaurants")
	v.SetDefault("provider.index.platform", "AutoShopper")

	v.SetDefault("planner.candidate_limit", 5)
	v.SetDefault("planner.eta_minutes", 25)
	v.SetDefault("planner.record_timeout", 2000)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", 300000)
	v.SetDefault("cache.key_prefix", "autoshopper:search")

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.table", "order_plans")

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.region", "us-east-1")
	v.SetDefault("events.topic_arn", "")

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "")
	v.SetDefault("sentry.sample_rate", 1.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// expandEnvVars resolves ${VAR} placeholders in string values. Unset
// variables resolve to the empty string.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills credentials from the conventional variable names
// used by the upstream services when the viper keys are empty.
func overrideEmptyConfig(cfg *Config) {
	if cfg.GenAI.APIKey == "" {
		if val := os.Getenv("OPENAI_API_KEY"); val != "" {
			cfg.GenAI.APIKey = val
		}
	}
	if cfg.Provider.Yelp.APIKey == "" {
		if val := os.Getenv("YELP_API_KEY"); val != "" {
			cfg.Provider.Yelp.APIKey = val
		}
	}
	if cfg.Provider.GooglePlaces.APIKey == "" {
		if val := os.Getenv("GOOGLE_PLACES_API_KEY"); val != "" {
			cfg.Provider.GooglePlaces.APIKey = val
		}
	}

	if cfg.Sentry.DSN == "" {
		if val := os.Getenv("SENTRY_DSN"); val != "" {
			cfg.Sentry.DSN = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// applyDefaults guards values a config file may have zeroed out.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15000
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.RateLimitRPS > 0 && cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = int(cfg.Server.RateLimitRPS) + 1
	}

	if cfg.Provider.Name == "" {
		cfg.Provider.Name = ProviderGooglePlaces
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 10000
	}

	if cfg.Planner.CandidateLimit <= 0 {
		cfg.Planner.CandidateLimit = 5
	}
	if cfg.Planner.ETAMinutes <= 0 {
		cfg.Planner.ETAMinutes = 25
	}
	if cfg.Planner.RecordTimeout <= 0 {
		cfg.Planner.RecordTimeout = 2000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = 300000
	}

	if cfg.Sentry.Environment == "" {
		cfg.Sentry.Environment = cfg.App.Environment
	}
	if cfg.Sentry.SampleRate <= 0 || cfg.Sentry.SampleRate > 1 {
		cfg.Sentry.SampleRate = 1.0
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// validateConfig checks structural settings. API keys are deliberately not
// required here: a missing credential surfaces when the integration is called.
func validateConfig(cfg *Config) error {
	switch cfg.Provider.Name {
	case ProviderYelp, ProviderGooglePlaces:
	case ProviderIndex:
		if len(cfg.Database.Elasticsearch.Addresses) == 0 {
			return fmt.Errorf("database.elasticsearch.addresses is required for provider %q", ProviderIndex)
		}
		if cfg.Provider.Index.Name == "" {
			return fmt.Errorf("provider.index.name is required for provider %q", ProviderIndex)
		}
	default:
		return fmt.Errorf("provider.name %q is not one of %s, %s, %s",
			cfg.Provider.Name, ProviderYelp, ProviderGooglePlaces, ProviderIndex)
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", cfg.Server.Port)
	}
	if cfg.GenAI.BaseURL == "" {
		return fmt.Errorf("genai.base_url is required")
	}

	if cfg.Cache.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when cache is enabled")
	}

	if cfg.Audit.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required when audit is enabled")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required when audit is enabled")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required when audit is enabled")
		}
	}

	if cfg.Events.Enabled && cfg.Events.TopicARN == "" {
		return fmt.Errorf("events.topic_arn is required when events are enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
