// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 8080
	DefaultLogLevel              = "INFO"
	DefaultClusterCount          = 5
	DefaultClusterSeed           = 42
	DefaultClusterRestarts       = 10
	DefaultChoiceCount           = 5
	DefaultEnrichInterval        = time.Second
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 5
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
	DefaultEndpointMaxTokens     = 512
	DefaultTMDBCacheTTL          = 24 * time.Hour
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures an AI service endpoint.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	maxTokens     int
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
		maxTokens:     DefaultEndpointMaxTokens,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// MaxTokens returns the maximum token limit.
func (e Endpoint) MaxTokens() int { return e.maxTokens }

// IsConfigured returns true if the endpoint has an API key.
func (e Endpoint) IsConfigured() bool {
	return e.apiKey != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// WithMaxTokens sets the maximum token limit.
func WithMaxTokens(n int) EndpointOption {
	return func(e *Endpoint) { e.maxTokens = n }
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// TMDBConfig configures the movie metadata collaborator.
type TMDBConfig struct {
	apiKey   string
	baseURL  string
	cacheTTL time.Duration
}

// NewTMDBConfig creates a new TMDBConfig with defaults.
func NewTMDBConfig() TMDBConfig {
	return TMDBConfig{
		cacheTTL: DefaultTMDBCacheTTL,
	}
}

// APIKey returns the TMDB API key.
func (t TMDBConfig) APIKey() string { return t.apiKey }

// BaseURL returns the TMDB endpoint override, empty for the public API.
func (t TMDBConfig) BaseURL() string { return t.baseURL }

// CacheTTL returns how long metadata lookups are cached.
func (t TMDBConfig) CacheTTL() time.Duration { return t.cacheTTL }

// IsConfigured returns true if an API key is set.
func (t TMDBConfig) IsConfigured() bool { return t.apiKey != "" }

// WithTMDBAPIKey returns a new config with the given API key.
func (t TMDBConfig) WithTMDBAPIKey(key string) TMDBConfig {
	t.apiKey = key
	return t
}

// WithTMDBBaseURL returns a new config with an endpoint override.
func (t TMDBConfig) WithTMDBBaseURL(url string) TMDBConfig {
	t.baseURL = url
	return t
}

// WithTMDBCacheTTL returns a new config with the given cache TTL.
func (t TMDBConfig) WithTMDBCacheTTL(ttl time.Duration) TMDBConfig {
	if ttl > 0 {
		t.cacheTTL = ttl
	}
	return t
}

// ClusterConfig configures the training stage.
type ClusterConfig struct {
	count    int
	seed     int64
	restarts int
}

// NewClusterConfig creates a new ClusterConfig with defaults.
func NewClusterConfig() ClusterConfig {
	return ClusterConfig{
		count:    DefaultClusterCount,
		seed:     DefaultClusterSeed,
		restarts: DefaultClusterRestarts,
	}
}

// Count returns the number of clusters to fit.
func (c ClusterConfig) Count() int { return c.count }

// Seed returns the RNG seed for reproducible training.
func (c ClusterConfig) Seed() int64 { return c.seed }

// Restarts returns how many independent seedings to try.
func (c ClusterConfig) Restarts() int { return c.restarts }

// WithCount returns a new config with the given cluster count.
func (c ClusterConfig) WithCount(n int) ClusterConfig {
	if n > 0 {
		c.count = n
	}
	return c
}

// WithSeed returns a new config with the given seed.
func (c ClusterConfig) WithSeed(seed int64) ClusterConfig {
	c.seed = seed
	return c
}

// WithRestarts returns a new config with the given restart count.
func (c ClusterConfig) WithRestarts(n int) ClusterConfig {
	if n > 0 {
		c.restarts = n
	}
	return c
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host               string
	port               int
	dataDir            string
	logLevel           string
	logFormat          LogFormat
	chatEndpoint       *Endpoint
	embeddingEndpoint  *Endpoint
	localEmbeddingPath string
	tmdb               TMDBConfig
	clusterConfig      ClusterConfig
	choiceCount        int
	enrichInterval     time.Duration
	httpCacheEnabled   bool
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cinemind"
	}
	return filepath.Join(home, ".cinemind")
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		host:           DefaultHost,
		port:           DefaultPort,
		dataDir:        DefaultDataDir(),
		logLevel:       DefaultLogLevel,
		logFormat:      LogFormatPretty,
		tmdb:           NewTMDBConfig(),
		clusterConfig:  NewClusterConfig(),
		choiceCount:    DefaultChoiceCount,
		enrichInterval: DefaultEnrichInterval,
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// ChatEndpoint returns the synopsis rewriting endpoint config.
func (c AppConfig) ChatEndpoint() *Endpoint { return c.chatEndpoint }

// EmbeddingEndpoint returns the embedding endpoint config.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// LocalEmbeddingPath returns the on-disk sentence embedding model directory
// used when no embedding endpoint is configured.
func (c AppConfig) LocalEmbeddingPath() string { return c.localEmbeddingPath }

// TMDB returns the metadata collaborator config.
func (c AppConfig) TMDB() TMDBConfig { return c.tmdb }

// Cluster returns the training stage config.
func (c AppConfig) Cluster() ClusterConfig { return c.clusterConfig }

// ChoiceCount returns how many blind options a picker round offers.
func (c AppConfig) ChoiceCount() int { return c.choiceCount }

// EnrichInterval returns the pause between enrichment requests.
func (c AppConfig) EnrichInterval() time.Duration { return c.enrichInterval }

// HTTPCacheEnabled returns whether provider HTTP responses are cached on
// disk for replayable stage runs.
func (c AppConfig) HTTPCacheEnabled() bool { return c.httpCacheEnabled }

// RawCatalogPath returns the path of the source dataset.
func (c AppConfig) RawCatalogPath() string {
	return filepath.Join(c.dataDir, "all_movies.csv")
}

// EnrichedCatalogPath returns the path of the enriched dataset.
func (c AppConfig) EnrichedCatalogPath() string {
	return filepath.Join(c.dataDir, "all_movies_enriched.csv")
}

// ClusteredCatalogPath returns the path of the labeled dataset.
func (c AppConfig) ClusteredCatalogPath() string {
	return filepath.Join(c.dataDir, "all_movies_clustered.csv")
}

// ModelPath returns the path of the persisted cluster model.
func (c AppConfig) ModelPath() string {
	return filepath.Join(c.dataDir, "kmeans_model.json")
}

// HTTPCacheDir returns the provider HTTP cache directory path.
func (c AppConfig) HTTPCacheDir() string {
	return filepath.Join(c.dataDir, "http_cache")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.dataDir = dir }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithChatEndpoint sets the synopsis rewriting endpoint.
func WithChatEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.chatEndpoint = &e }
}

// WithEmbeddingEndpoint sets the embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithLocalEmbeddingPath sets the local embedding model directory.
func WithLocalEmbeddingPath(path string) AppConfigOption {
	return func(c *AppConfig) { c.localEmbeddingPath = path }
}

// WithTMDBConfig sets the metadata collaborator config.
func WithTMDBConfig(t TMDBConfig) AppConfigOption {
	return func(c *AppConfig) { c.tmdb = t }
}

// WithClusterConfig sets the training stage config.
func WithClusterConfig(cc ClusterConfig) AppConfigOption {
	return func(c *AppConfig) { c.clusterConfig = cc }
}

// WithChoiceCount sets the blind option count.
func WithChoiceCount(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.choiceCount = n
		}
	}
}

// WithEnrichInterval sets the pause between enrichment requests.
func WithEnrichInterval(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.enrichInterval = d
		}
	}
}

// WithHTTPCacheEnabled toggles the on-disk provider HTTP cache.
func WithHTTPCacheEnabled(enabled bool) AppConfigOption {
	return func(c *AppConfig) { c.httpCacheEnabled = enabled }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// API keys are shown only as configured/not-configured.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("log_level", c.logLevel),
		slog.String("chat_model", c.endpointModel(c.chatEndpoint)),
		slog.String("embedding_model", c.endpointModel(c.embeddingEndpoint)),
		slog.Bool("tmdb_configured", c.tmdb.IsConfigured()),
		slog.Int("clusters", c.clusterConfig.Count()),
		slog.Int64("cluster_seed", c.clusterConfig.Seed()),
		slog.Int("choice_count", c.choiceCount),
	}
}

func (c AppConfig) endpointModel(e *Endpoint) string {
	if e == nil {
		return "(not configured)"
	}
	return e.Model()
}
