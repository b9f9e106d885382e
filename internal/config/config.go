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
	CSE       CSEConfig       `yaml:"cse" mapstructure:"cse"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Keywords  KeywordsConfig  `yaml:"keywords" mapstructure:"keywords"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// PlacesConfig holds Google Places API settings.
type PlacesConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	Language     string  `yaml:"language" mapstructure:"language"`
	Region       string  `yaml:"region" mapstructure:"region"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// CSEConfig holds Google Custom Search settings for the web provider.
type CSEConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	EngineID     string  `yaml:"engine_id" mapstructure:"engine_id"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key          string `yaml:"key" mapstructure:"key"`
	JudgeModel   string `yaml:"judge_model" mapstructure:"judge_model"`
	IntentModel  string `yaml:"intent_model" mapstructure:"intent_model"`
	SummaryModel string `yaml:"summary_model" mapstructure:"summary_model"`
	MaxTokens    int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PipelineConfig tunes the search pipeline.
type PipelineConfig struct {
	MaxResults          int     `yaml:"max_results" mapstructure:"max_results"`
	JudgeHeadSize       int     `yaml:"judge_head_size" mapstructure:"judge_head_size"`
	FeaturedThreshold   float64 `yaml:"featured_threshold" mapstructure:"featured_threshold"`
	FeaturedLimit       int     `yaml:"featured_limit" mapstructure:"featured_limit"`
	PopularLimit        int     `yaml:"popular_limit" mapstructure:"popular_limit"`
	MaxPhotos           int     `yaml:"max_photos" mapstructure:"max_photos"`
	EnrichConcurrency   int     `yaml:"enrich_concurrency" mapstructure:"enrich_concurrency"`
	ProviderTimeoutSecs int     `yaml:"provider_timeout_secs" mapstructure:"provider_timeout_secs"`
	NearbyRadiusMeters  float64 `yaml:"nearby_radius_meters" mapstructure:"nearby_radius_meters"`
	BreakerThreshold    int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs int     `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
	RetryAttempts       int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// KeywordsConfig points at an optional vocabulary override file for the
// deterministic intent analyzer.
type KeywordsConfig struct {
	VocabularyFile string `yaml:"vocabulary_file" mapstructure:"vocabulary_file"`
}

// CacheConfig configures the photo URL cache.
type CacheConfig struct {
	MaxEntries int    `yaml:"max_entries" mapstructure:"max_entries"`
	TTLHours   int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	DBPath     string `yaml:"db_path" mapstructure:"db_path"`
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
	v.SetEnvPrefix("CAMPSITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys read only from the environment still need a default
	// registered or AutomaticEnv will not surface them through Unmarshal.
	v.SetDefault("places.key", "")
	v.SetDefault("cse.key", "")
	v.SetDefault("cse.engine_id", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("keywords.vocabulary_file", "")
	v.SetDefault("cache.db_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("places.language", "ja")
	v.SetDefault("places.region", "JP")
	v.SetDefault("places.rate_limit_rps", 10.0)
	v.SetDefault("cse.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("cse.rate_limit_rps", 5.0)
	v.SetDefault("anthropic.judge_model", "claude-haiku-4-5")
	v.SetDefault("anthropic.intent_model", "claude-haiku-4-5")
	v.SetDefault("anthropic.summary_model", "claude-sonnet-4-5")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("pipeline.max_results", 20)
	v.SetDefault("pipeline.judge_head_size", 5)
	v.SetDefault("pipeline.featured_threshold", 0.7)
	v.SetDefault("pipeline.featured_limit", 3)
	v.SetDefault("pipeline.popular_limit", 3)
	v.SetDefault("pipeline.max_photos", 6)
	v.SetDefault("pipeline.enrich_concurrency", 4)
	v.SetDefault("pipeline.provider_timeout_secs", 20)
	v.SetDefault("pipeline.nearby_radius_meters", 30000.0)
	v.SetDefault("pipeline.breaker_threshold", 3)
	v.SetDefault("pipeline.breaker_cooldown_secs", 30)
	v.SetDefault("pipeline.retry_attempts", 3)
	v.SetDefault("cache.max_entries", 2048)
	v.SetDefault("cache.ttl_hours", 24)

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
