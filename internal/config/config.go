package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/avm-cli/internal/comparable"
	"github.com/sells-group/avm-cli/internal/scorer"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Valuation  ValuationConfig  `yaml:"valuation" mapstructure:"valuation"`
	Market     scorer.Config    `yaml:"market" mapstructure:"market"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Predictor  PredictorConfig  `yaml:"predictor" mapstructure:"predictor"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Geo        GeoConfig        `yaml:"geo" mapstructure:"geo"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	ViewsFile  string           `yaml:"views_file" mapstructure:"views_file"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// ValuationConfig tunes the comparable search and the per-call store
// timeouts.
type ValuationConfig struct {
	comparable.Config `yaml:",inline" mapstructure:",squash"`

	QueryTimeoutMs  int `yaml:"query_timeout_ms" mapstructure:"query_timeout_ms"`
	LookupTimeoutMs int `yaml:"lookup_timeout_ms" mapstructure:"lookup_timeout_ms"`
}

// QueryTimeout bounds comparable searches and market listings.
func (c ValuationConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutMs) * time.Millisecond
}

// LookupTimeout bounds reference and cache lookups.
func (c ValuationConfig) LookupTimeout() time.Duration {
	return time.Duration(c.LookupTimeoutMs) * time.Millisecond
}

// CacheConfig configures the location premium cache.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled" mapstructure:"enabled"`
	TTLHours int  `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// TTL returns the cache freshness window.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// PredictorConfig configures the external price model.
type PredictorConfig struct {
	URL              string  `yaml:"url" mapstructure:"url"`
	APIKey           string  `yaml:"api_key" mapstructure:"api_key"`
	TimeoutMs        int     `yaml:"timeout_ms" mapstructure:"timeout_ms"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst            int     `yaml:"burst" mapstructure:"burst"`
	CircuitThreshold int     `yaml:"circuit_threshold" mapstructure:"circuit_threshold"`
	CircuitResetSecs int     `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
}

// Timeout bounds a single prediction.
func (c PredictorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// RetryConfig configures retries on store reads.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
}

// GeoConfig configures the location premium inputs.
type GeoConfig struct {
	// AmenityBackfill fills missing amenity distances from the amenities table.
	AmenityBackfill bool `yaml:"amenity_backfill" mapstructure:"amenity_backfill"`
}

// MonitoringConfig configures background alert checks.
type MonitoringConfig struct {
	Enabled               bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL            string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs     int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	FailureRateThreshold  float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	ModelFailureThreshold float64 `yaml:"model_failure_threshold" mapstructure:"model_failure_threshold"`
	MinRequests           int     `yaml:"min_requests" mapstructure:"min_requests"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AVM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	search := comparable.DefaultConfig()
	market := scorer.DefaultConfig()
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("valuation.candidate_limit", search.Limit)
	v.SetDefault("valuation.min_sample", search.MinSample)
	v.SetDefault("valuation.fallback_size", search.FallbackSize)
	v.SetDefault("valuation.trim_low", search.TrimLow)
	v.SetDefault("valuation.trim_high", search.TrimHigh)
	v.SetDefault("valuation.size_tolerance", search.SizeTolerance)
	v.SetDefault("valuation.min_area", search.MinArea)
	v.SetDefault("valuation.max_area", search.MaxArea)
	v.SetDefault("valuation.query_timeout_ms", 5000)
	v.SetDefault("valuation.lookup_timeout_ms", 1000)
	v.SetDefault("market.lookback_months", market.LookbackMonths)
	v.SetDefault("market.recent_months", market.RecentMonths)
	v.SetDefault("market.size_tolerance", market.SizeTolerance)
	v.SetDefault("market.min_lease_sample", market.MinLeaseSample)
	v.SetDefault("market.min_city_lease_sample", market.MinCityLeaseSample)
	v.SetDefault("market.min_sale_sample", market.MinSaleSample)
	v.SetDefault("market.list_limit", market.ListLimit)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("predictor.url", "")
	v.SetDefault("predictor.api_key", "")
	v.SetDefault("predictor.timeout_ms", 2000)
	v.SetDefault("predictor.rate_limit", 20)
	v.SetDefault("predictor.burst", 5)
	v.SetDefault("predictor.circuit_threshold", 5)
	v.SetDefault("predictor.circuit_reset_secs", 30)
	v.SetDefault("retry.max_attempts", 1)
	v.SetDefault("retry.initial_backoff_ms", 100)
	v.SetDefault("retry.max_backoff_ms", 2000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("geo.amenity_backfill", false)
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.failure_rate_threshold", 0.10)
	v.SetDefault("monitoring.model_failure_threshold", 0.50)
	v.SetDefault("monitoring.min_requests", 5)
	v.SetDefault("views_file", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Mode is "cli"
// or "serve".
func (c *Config) Validate(mode string) error {
	switch mode {
	case "cli", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	var problems []string
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		problems = append(problems, "store.driver must be postgres or sqlite")
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required for postgres")
	}
	if c.Valuation.TrimLow < 0 || c.Valuation.TrimHigh > 1 || c.Valuation.TrimLow >= c.Valuation.TrimHigh {
		problems = append(problems, "valuation.trim_low and trim_high must satisfy 0 <= low < high <= 1")
	}
	if c.Cache.TTLHours < 0 {
		problems = append(problems, "cache.ttl_hours must not be negative")
	}
	if c.Retry.MaxAttempts < 1 {
		problems = append(problems, "retry.max_attempts must be at least 1")
	}
	if mode == "serve" {
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
		if t := c.Monitoring.FailureRateThreshold; t < 0 || t > 1 {
			problems = append(problems, "monitoring.failure_rate_threshold must be between 0 and 1")
		}
		if t := c.Monitoring.ModelFailureThreshold; t < 0 || t > 1 {
			problems = append(problems, "monitoring.model_failure_threshold must be between 0 and 1")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
