// Package config provides application configuration.
package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., OPENAI_API_KEY).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the directory holding the stage files.
	// Env: DATA_DIR
	// Default: ~/.cinemind
	DataDir string `envconfig:"DATA_DIR"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// OpenAI configures the chat and embedding provider.
	OpenAI OpenAIEnv `envconfig:"OPENAI"`

	// LocalEmbeddingPath is the on-disk sentence embedding model directory,
	// used when no embedding endpoint is configured.
	// Env: LOCAL_EMBEDDING_PATH
	LocalEmbeddingPath string `envconfig:"LOCAL_EMBEDDING_PATH"`

	// TMDB configures the movie metadata collaborator.
	TMDB TMDBEnv `envconfig:"TMDB"`

	// Clusters is the number of clusters to fit during training.
	// Env: CLUSTERS (default: 5)
	Clusters int `envconfig:"CLUSTERS" default:"5"`

	// ClusterSeed seeds training for reproducible labels.
	// Env: CLUSTER_SEED (default: 42)
	ClusterSeed int64 `envconfig:"CLUSTER_SEED" default:"42"`

	// ClusterRestarts is the number of independent seedings per run.
	// Env: CLUSTER_RESTARTS (default: 10)
	ClusterRestarts int `envconfig:"CLUSTER_RESTARTS" default:"10"`

	// Choices is the number of blind options offered per picker round.
	// Env: CHOICES (default: 5)
	Choices int `envconfig:"CHOICES" default:"5"`

	// EnrichIntervalSeconds is the pause between enrichment requests.
	// Env: ENRICH_INTERVAL_SECONDS (default: 1)
	EnrichIntervalSeconds float64 `envconfig:"ENRICH_INTERVAL_SECONDS" default:"1"`

	// HTTPCacheEnabled caches provider HTTP responses to disk so stage
	// reruns replay instead of paying for the same completions again.
	// Env: HTTP_CACHE_ENABLED (default: false)
	HTTPCacheEnabled bool `envconfig:"HTTP_CACHE_ENABLED" default:"false"`
}

// OpenAIEnv holds environment configuration for the OpenAI provider.
type OpenAIEnv struct {
	// APIKey is the API key for authentication.
	// Env: OPENAI_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// BaseURL overrides the endpoint, for OpenAI-compatible servers.
	// Env: OPENAI_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// ChatModel is the synopsis rewriting model.
	// Env: OPENAI_CHAT_MODEL (default: gpt-4o-mini)
	ChatModel string `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`

	// EmbeddingModel is the embedding model.
	// Env: OPENAI_EMBEDDING_MODEL (default: text-embedding-3-small)
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`

	// Timeout is the request timeout in seconds.
	// Env: OPENAI_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: OPENAI_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: OPENAI_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: OPENAI_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// MaxTokens is the completion token limit.
	// Env: OPENAI_MAX_TOKENS (default: 512)
	MaxTokens int `envconfig:"MAX_TOKENS" default:"512"`
}

// TMDBEnv holds environment configuration for the metadata collaborator.
type TMDBEnv struct {
	// APIKey is the TMDB API key.
	// Env: TMDB_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// BaseURL overrides the endpoint, for tests.
	// Env: TMDB_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// CacheTTLHours is how long metadata lookups are cached.
	// Env: TMDB_CACHE_TTL_HOURS (default: 24)
	CacheTTLHours float64 `envconfig:"CACHE_TTL_HOURS" default:"24"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "CINEMIND" would require CINEMIND_DATA_DIR instead of
// DATA_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = cfg.Apply(WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = cfg.Apply(WithPort(e.Port))
	}
	if e.DataDir != "" {
		cfg = cfg.Apply(WithDataDir(e.DataDir))
	}
	if e.LogLevel != "" {
		cfg = cfg.Apply(WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = cfg.Apply(WithLogFormat(parseLogFormat(e.LogFormat)))
	}

	if e.OpenAI.IsConfigured() {
		cfg = cfg.Apply(
			WithChatEndpoint(e.OpenAI.ToEndpoint(e.OpenAI.ChatModel)),
			WithEmbeddingEndpoint(e.OpenAI.ToEndpoint(e.OpenAI.EmbeddingModel)),
		)
	}
	if e.LocalEmbeddingPath != "" {
		cfg = cfg.Apply(WithLocalEmbeddingPath(e.LocalEmbeddingPath))
	}

	cfg = cfg.Apply(WithTMDBConfig(e.TMDB.ToTMDBConfig()))
	cfg = cfg.Apply(WithClusterConfig(NewClusterConfig().
		WithCount(e.Clusters).
		WithSeed(e.ClusterSeed).
		WithRestarts(e.ClusterRestarts)))
	cfg = cfg.Apply(WithChoiceCount(e.Choices))
	cfg = cfg.Apply(WithEnrichInterval(time.Duration(e.EnrichIntervalSeconds * float64(time.Second))))
	cfg = cfg.Apply(WithHTTPCacheEnabled(e.HTTPCacheEnabled))

	return cfg
}

// IsConfigured returns true if an API key is set.
func (o OpenAIEnv) IsConfigured() bool {
	return o.APIKey != ""
}

// ToEndpoint converts OpenAIEnv to an Endpoint for the given model.
func (o OpenAIEnv) ToEndpoint(model string) Endpoint {
	opts := []EndpointOption{
		WithModel(model),
		WithAPIKey(o.APIKey),
		WithTimeout(time.Duration(o.Timeout * float64(time.Second))),
		WithMaxRetries(o.MaxRetries),
		WithInitialDelay(time.Duration(o.InitialDelay * float64(time.Second))),
		WithBackoffFactor(o.BackoffFactor),
		WithMaxTokens(o.MaxTokens),
	}
	if o.BaseURL != "" {
		opts = append(opts, WithBaseURL(o.BaseURL))
	}
	return NewEndpointWithOptions(opts...)
}

// ToTMDBConfig converts TMDBEnv to TMDBConfig.
func (t TMDBEnv) ToTMDBConfig() TMDBConfig {
	cfg := NewTMDBConfig().
		WithTMDBCacheTTL(time.Duration(t.CacheTTLHours * float64(time.Hour)))
	if t.APIKey != "" {
		cfg = cfg.WithTMDBAPIKey(t.APIKey)
	}
	if t.BaseURL != "" {
		cfg = cfg.WithTMDBBaseURL(t.BaseURL)
	}
	return cfg
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
