// Package config loads and validates application configuration from a YAML
// file, environment variables, and production-safe defaults, in that order
// of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/jonesrussell/graphweave/internal/logger"
)

// Default expansion settings.
const (
	DefaultBatchSize       = 10
	DefaultWorkerCount     = 4
	DefaultMaxDepth        = 3
	DefaultMaxRetries      = 3
	DefaultTargetEntries   = 0 // 0 means run until the frontier is exhausted
	DefaultLeaseTimeout    = 5 * time.Minute
	DefaultHeartbeatEvery  = 30 * time.Second
	DefaultClaimRetryDelay = 5 * time.Second
	DefaultReclaimSchedule = "@every 1m"
)

// Config is the root application configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Logger        logger.Config       `mapstructure:"logger"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	OpenAI        OpenAIConfig        `mapstructure:"openai"`
	Wiki          WikiConfig          `mapstructure:"wiki"`
	Expansion     ExpansionConfig     `mapstructure:"expansion"`
	Server        ServerConfig        `mapstructure:"server"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ElasticsearchConfig holds Elasticsearch connection settings.
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	APIKey    string   `mapstructure:"api_key"`
	IndexName string   `mapstructure:"index_name"`
}

// OpenAIConfig holds settings for the extraction and embedding collaborators.
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	ExtractModel   string `mapstructure:"extract_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

// WikiConfig holds content-source settings.
type WikiConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ExpansionConfig holds the orchestration settings for the expansion engine.
type ExpansionConfig struct {
	BatchSize       int           `mapstructure:"batch_size"`
	WorkerCount     int           `mapstructure:"worker_count"`
	MaxDepth        int           `mapstructure:"max_depth"`
	MaxRetries      int           `mapstructure:"max_retries"`
	TargetEntries   int           `mapstructure:"target_entries"`
	LeaseTimeout    time.Duration `mapstructure:"lease_timeout"`
	HeartbeatEvery  time.Duration `mapstructure:"heartbeat_every"`
	ClaimRetryDelay time.Duration `mapstructure:"claim_retry_delay"`
	ReclaimSchedule string        `mapstructure:"reclaim_schedule"`
}

// ServerConfig holds settings for the monitoring HTTP server.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Load reads configuration from viper's current state into a validated Config.
// InitViper must have been called first.
func Load() (*Config, error) {
	var cfg Config

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))

	if err := viper.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %s", c.App.Environment)
	}

	if c.Database.Host == "" {
		return errors.New("database host must be specified")
	}

	if c.Expansion.BatchSize <= 0 {
		return errors.New("expansion batch_size must be positive")
	}
	if c.Expansion.WorkerCount <= 0 {
		return errors.New("expansion worker_count must be positive")
	}
	if c.Expansion.MaxDepth < 0 {
		return errors.New("expansion max_depth must be non-negative")
	}
	if c.Expansion.MaxRetries <= 0 {
		return errors.New("expansion max_retries must be positive")
	}
	if c.Expansion.LeaseTimeout <= 0 {
		return errors.New("expansion lease_timeout must be positive")
	}
	if c.Expansion.HeartbeatEvery >= c.Expansion.LeaseTimeout {
		return errors.New("expansion heartbeat_every must be shorter than lease_timeout")
	}

	return nil
}

// InitViper configures viper: config file discovery, env bindings, defaults.
func InitViper(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.SetEnvPrefix("GRAPHWEAVE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := bindEnvVars(); err != nil {
		return err
	}

	// Config file is optional; env and defaults cover everything.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return nil
}

// bindEnvVars maps conventional environment variables to config keys.
func bindEnvVars() error {
	bindings := map[string][]string{
		"app.environment":          {"APP_ENV"},
		"app.debug":                {"APP_DEBUG"},
		"logger.level":             {"LOG_LEVEL"},
		"logger.encoding":          {"LOG_FORMAT"},
		"database.host":            {"DATABASE_HOST"},
		"database.port":            {"DATABASE_PORT"},
		"database.user":            {"DATABASE_USER"},
		"database.password":        {"DATABASE_PASSWORD"},
		"database.dbname":          {"DATABASE_NAME"},
		"elasticsearch.addresses":  {"ELASTICSEARCH_HOSTS", "ELASTICSEARCH_ADDRESSES"},
		"elasticsearch.password":   {"ELASTIC_PASSWORD", "ELASTICSEARCH_PASSWORD"},
		"elasticsearch.api_key":    {"ELASTICSEARCH_API_KEY"},
		"elasticsearch.index_name": {"ELASTICSEARCH_INDEX_NAME"},
		"openai.api_key":           {"OPENAI_API_KEY"},
		"openai.base_url":          {"OPENAI_BASE_URL"},
	}

	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := viper.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	return nil
}

// setDefaults sets production-safe default configuration values.
func setDefaults() {
	viper.SetDefault("app", map[string]any{
		"name":        "graphweave",
		"version":     "1.0.0",
		"environment": "production",
		"debug":       false,
	})

	viper.SetDefault("logger", map[string]any{
		"level":       "info",
		"encoding":    "json",
		"development": false,
	})

	viper.SetDefault("database", map[string]any{
		"host":    "127.0.0.1",
		"port":    "5432",
		"user":    "graphweave",
		"dbname":  "graphweave",
		"sslmode": "disable",
	})

	viper.SetDefault("elasticsearch", map[string]any{
		"addresses":  []string{"http://127.0.0.1:9200"},
		"index_name": "graphweave-nodes",
	})

	viper.SetDefault("openai", map[string]any{
		"extract_model":   "gpt-4o-mini",
		"embedding_model": "text-embedding-3-small",
	})

	viper.SetDefault("wiki", map[string]any{
		"base_url":        "https://en.wikipedia.org/api/rest_v1",
		"user_agent":      "graphweave/1.0 (knowledge graph builder)",
		"request_timeout": "30s",
	})

	viper.SetDefault("expansion", map[string]any{
		"batch_size":        DefaultBatchSize,
		"worker_count":      DefaultWorkerCount,
		"max_depth":         DefaultMaxDepth,
		"max_retries":       DefaultMaxRetries,
		"target_entries":    DefaultTargetEntries,
		"lease_timeout":     DefaultLeaseTimeout.String(),
		"heartbeat_every":   DefaultHeartbeatEvery.String(),
		"claim_retry_delay": DefaultClaimRetryDelay.String(),
		"reclaim_schedule":  DefaultReclaimSchedule,
	})

	viper.SetDefault("server", map[string]any{
		"address":       ":8080",
		"read_timeout":  "15s",
		"write_timeout": "15s",
	})
}
