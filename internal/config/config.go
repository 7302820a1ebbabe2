package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Places    PlacesConfig    `yaml:"places" mapstructure:"places"`
	Jina      JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Redis     RedisConfig     `yaml:"redis" mapstructure:"redis"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Criteria  CriteriaConfig  `yaml:"criteria" mapstructure:"criteria"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// PlacesConfig holds Google Places API settings.
type PlacesConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// JinaConfig holds Jina embeddings API settings.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings for deep analysis.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// CacheConfig configures the semantic result cache.
type CacheConfig struct {
	Enabled             bool    `yaml:"enabled" mapstructure:"enabled"`
	TTLMinutes          int     `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
}

// CriteriaConfig locates the validation criteria document.
type CriteriaConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PipelineConfig configures discovery and processing behavior.
type PipelineConfig struct {
	RadiusMeters     int     `yaml:"radius_meters" mapstructure:"radius_meters"`
	SearchKeyword    string  `yaml:"search_keyword" mapstructure:"search_keyword"`
	MinRating        float64 `yaml:"min_rating" mapstructure:"min_rating"`
	MaxAgencies      int     `yaml:"max_agencies" mapstructure:"max_agencies"`
	BatchSize        int     `yaml:"batch_size" mapstructure:"batch_size"`
	DeepAnalysisTopN int     `yaml:"deep_analysis_top_n" mapstructure:"deep_analysis_top_n"`
	DeepAnalysisMin  float64 `yaml:"deep_analysis_min_trust" mapstructure:"deep_analysis_min_trust"`

	// ContinueWithoutReviews keeps a candidate in the ranking on an
	// empty review set when its review fetch fails; when false the
	// candidate is dropped with an error entry instead.
	ContinueWithoutReviews bool `yaml:"continue_without_reviews" mapstructure:"continue_without_reviews"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("CONFIAUTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("places.requests_per_sec", 5.0)
	v.SetDefault("jina.base_url", "https://api.jina.ai/v1")
	v.SetDefault("jina.model", "jina-embeddings-v3")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_minutes", 60)
	v.SetDefault("cache.similarity_threshold", 0.85)
	v.SetDefault("criteria.path", "criteria.json")
	v.SetDefault("pipeline.radius_meters", 5000)
	v.SetDefault("pipeline.search_keyword", "agencia de autos seminuevos")
	v.SetDefault("pipeline.min_rating", 3.0)
	v.SetDefault("pipeline.max_agencies", 10)
	v.SetDefault("pipeline.batch_size", 3)
	v.SetDefault("pipeline.deep_analysis_top_n", 3)
	v.SetDefault("pipeline.deep_analysis_min_trust", 50.0)
	v.SetDefault("pipeline.continue_without_reviews", true)

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

// Validate checks that the configuration is usable for the given mode
// ("analyze" or "serve"). Missing or out-of-range values are collected
// into a single error.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "analyze", "serve":
		if c.Places.Key == "" {
			problems = append(problems, "places.key is required")
		}
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
		if c.Pipeline.BatchSize < 1 || c.Pipeline.BatchSize > 10 {
			problems = append(problems, "pipeline.batch_size must be between 1 and 10")
		}
		if c.Pipeline.MaxAgencies < 1 {
			problems = append(problems, "pipeline.max_agencies must be >= 1")
		}
		if c.Pipeline.MinRating < 0 || c.Pipeline.MinRating > 5 {
			problems = append(problems, "pipeline.min_rating must be between 0 and 5")
		}
		if c.Cache.SimilarityThreshold < 0 || c.Cache.SimilarityThreshold > 1 {
			problems = append(problems, "cache.similarity_threshold must be between 0 and 1")
		}
		if mode == "serve" && c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
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
