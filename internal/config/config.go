// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost             = "0.0.0.0"
	DefaultPort             = 8080
	DefaultLogLevel         = "INFO"
	DefaultAppEnv           = "dev"
	DefaultBranch           = "main"
	DefaultDataDir          = ".gitrag"
	DefaultReposDir         = "/workspace/myrepo"
	DefaultStateFile        = "index_state.json"
	DefaultEmbeddingBaseURL = "http://localhost:8080/v1"
	DefaultEmbeddingModel   = "text-embedding-3-large"
	DefaultEmbeddingBatch   = 32
	DefaultEmbeddingTimeout = 60 * time.Second
	DefaultVectorURL        = "http://localhost:6333"
	DefaultUpsertBatch      = 128
	DefaultVectorTimeout    = 30 * time.Second
	DefaultChunkTokens      = 512
	DefaultCharsPerToken    = 1.5
	DefaultChunkLines       = 120

	collectionPrefix = "git_rag"
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// ModelSlug reduces an embedding model name to the lowercase alphanumeric
// form used in collection names.
func ModelSlug(model string) string {
	return nonSlugRe.ReplaceAllString(strings.ToLower(model), "")
}

// Endpoint configures the external embedding service.
type Endpoint struct {
	baseURL   string
	model     string
	apiKey    string
	batchSize int
	timeout   time.Duration
}

// NewEndpoint creates an Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		baseURL:   DefaultEmbeddingBaseURL,
		model:     DefaultEmbeddingModel,
		batchSize: DefaultEmbeddingBatch,
		timeout:   DefaultEmbeddingTimeout,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the default embedding model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// BatchSize returns the number of texts per embedding request.
func (e Endpoint) BatchSize() int { return e.batchSize }

// Timeout returns the per-request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

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

// WithBatchSize sets the embedding batch size.
func WithBatchSize(size int) EndpointOption {
	return func(e *Endpoint) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// WithEndpointTimeout sets the per-request timeout.
func WithEndpointTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// NewEndpointWithOptions creates an Endpoint with the given options applied.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// VectorConfig configures the external vector store.
type VectorConfig struct {
	url         string
	apiKey      string
	dim         int
	upsertBatch int
	timeout     time.Duration
}

// NewVectorConfig creates a VectorConfig with defaults. A zero dim means the
// dimension is probed from the embedding service on first use.
func NewVectorConfig() VectorConfig {
	return VectorConfig{
		url:         DefaultVectorURL,
		upsertBatch: DefaultUpsertBatch,
		timeout:     DefaultVectorTimeout,
	}
}

// URL returns the vector store URL.
func (v VectorConfig) URL() string { return v.url }

// APIKey returns the vector store API key.
func (v VectorConfig) APIKey() string { return v.apiKey }

// Dim returns the configured vector dimension, 0 when unset.
func (v VectorConfig) Dim() int { return v.dim }

// UpsertBatch returns the points-per-upsert batch size.
func (v VectorConfig) UpsertBatch() int { return v.upsertBatch }

// Timeout returns the per-operation timeout.
func (v VectorConfig) Timeout() time.Duration { return v.timeout }

// WithURL returns a copy with the store URL set.
func (v VectorConfig) WithURL(url string) VectorConfig {
	v.url = url
	return v
}

// WithAPIKey returns a copy with the API key set.
func (v VectorConfig) WithAPIKey(key string) VectorConfig {
	v.apiKey = key
	return v
}

// WithDim returns a copy with a fixed vector dimension.
func (v VectorConfig) WithDim(dim int) VectorConfig {
	v.dim = dim
	return v
}

// WithUpsertBatch returns a copy with the upsert batch size set.
func (v VectorConfig) WithUpsertBatch(batch int) VectorConfig {
	if batch > 0 {
		v.upsertBatch = batch
	}
	return v
}

// WithTimeout returns a copy with the per-operation timeout set.
func (v VectorConfig) WithTimeout(d time.Duration) VectorConfig {
	v.timeout = d
	return v
}

// ChunkingConfig tunes the chunkers' size limits.
type ChunkingConfig struct {
	chunkTokens   int
	charsPerToken float64
	chunkLines    int
}

// NewChunkingConfig creates a ChunkingConfig with defaults.
func NewChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		chunkTokens:   DefaultChunkTokens,
		charsPerToken: DefaultCharsPerToken,
		chunkLines:    DefaultChunkLines,
	}
}

// ChunkTokens returns the per-chunk token budget.
func (c ChunkingConfig) ChunkTokens() int { return c.chunkTokens }

// CharsPerToken returns the character-per-token estimate.
func (c ChunkingConfig) CharsPerToken() float64 { return c.charsPerToken }

// ChunkLines returns the generic chunker's line window.
func (c ChunkingConfig) ChunkLines() int { return c.chunkLines }

// WithChunkTokens returns a copy with the token budget set.
func (c ChunkingConfig) WithChunkTokens(tokens int) ChunkingConfig {
	if tokens > 0 {
		c.chunkTokens = tokens
	}
	return c
}

// WithCharsPerToken returns a copy with the estimate set.
func (c ChunkingConfig) WithCharsPerToken(chars float64) ChunkingConfig {
	if chars > 0 {
		c.charsPerToken = chars
	}
	return c
}

// WithChunkLines returns a copy with the line window set.
func (c ChunkingConfig) WithChunkLines(lines int) ChunkingConfig {
	if lines > 0 {
		c.chunkLines = lines
	}
	return c
}

// AppConfig is the application-wide configuration. Immutable value object
// built from defaults, .env, environment, and flag overrides.
type AppConfig struct {
	host      string
	port      int
	logLevel  string
	logFormat LogFormat

	dataDir string
	dbURL   string

	appEnv    string
	branch    string
	reposDir  string
	stateFile string

	embedding Endpoint
	vector    VectorConfig
	chunking  ChunkingConfig

	skipCollectionInit bool
	allowDataReset     bool
}

// NewAppConfig creates an AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		host:      DefaultHost,
		port:      DefaultPort,
		logLevel:  DefaultLogLevel,
		logFormat: LogFormatPretty,
		dataDir:   DefaultDataDir,
		appEnv:    DefaultAppEnv,
		branch:    DefaultBranch,
		reposDir:  DefaultReposDir,
		stateFile: DefaultStateFile,
		embedding: NewEndpoint(),
		vector:    NewVectorConfig(),
		chunking:  NewChunkingConfig(),
	}
}

// Host returns the server host.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port.
func (c AppConfig) Port() int { return c.port }

// Addr returns the host:port listen address.
func (c AppConfig) Addr() string { return fmt.Sprintf("%s:%d", c.host, c.port) }

// LogLevel returns the log verbosity.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log output format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// DataDir returns the local data directory.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the registry database URL. Empty means SQLite under DataDir.
func (c AppConfig) DBURL() string { return c.dbURL }

// AppEnv returns the deployment environment tag used in collection names.
func (c AppConfig) AppEnv() string { return c.appEnv }

// Branch returns the default branch recorded on indexed points.
func (c AppConfig) Branch() string { return c.branch }

// ReposDir returns the root directory holding the Git repositories.
func (c AppConfig) ReposDir() string { return c.reposDir }

// StateFile returns the path of the last-indexed-commit cache file.
func (c AppConfig) StateFile() string { return c.stateFile }

// Embedding returns the embedding service configuration.
func (c AppConfig) Embedding() Endpoint { return c.embedding }

// Vector returns the vector store configuration.
func (c AppConfig) Vector() VectorConfig { return c.vector }

// Chunking returns the chunker limits.
func (c AppConfig) Chunking() ChunkingConfig { return c.chunking }

// SkipCollectionInit reports whether startup skips ensuring the default
// collection.
func (c AppConfig) SkipCollectionInit() bool { return c.skipCollectionInit }

// AllowDataReset reports whether the destructive datastore reset is enabled.
func (c AppConfig) AllowDataReset() bool { return c.allowDataReset }

// CollectionName derives the deterministic collection name for an embedding
// model, so different models never collide.
func (c AppConfig) CollectionName(model string) string {
	if model == "" {
		model = c.embedding.Model()
	}
	return fmt.Sprintf("%s-%s-%s", collectionPrefix, c.appEnv, ModelSlug(model))
}

// CollectionPrefix returns the environment-scoped prefix shared by all
// collections this deployment owns.
func (c AppConfig) CollectionPrefix() string {
	return fmt.Sprintf("%s-%s-", collectionPrefix, c.appEnv)
}

// EnsureDataDir creates the data directory if missing.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// Apply returns a copy with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns the startup log attributes describing this configuration.
// Secrets are not included.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("addr", c.Addr()),
		slog.String("app_env", c.appEnv),
		slog.String("repos_dir", c.reposDir),
		slog.String("branch", c.branch),
		slog.String("embedding_base_url", c.embedding.BaseURL()),
		slog.String("embedding_model", c.embedding.Model()),
		slog.String("vector_url", c.vector.URL()),
		slog.Bool("skip_collection_init", c.skipCollectionInit),
		slog.Bool("allow_data_reset", c.allowDataReset),
	}
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

// WithLogLevel sets the log verbosity.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log output format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithDataDir sets the local data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.dataDir = dir }
}

// WithDBURL sets the registry database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithAppEnv sets the deployment environment tag.
func WithAppEnv(env string) AppConfigOption {
	return func(c *AppConfig) { c.appEnv = env }
}

// WithBranch sets the default branch.
func WithBranch(branch string) AppConfigOption {
	return func(c *AppConfig) { c.branch = branch }
}

// WithReposDir sets the repositories root directory.
func WithReposDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.reposDir = dir }
}

// WithStateFile sets the state cache file path.
func WithStateFile(path string) AppConfigOption {
	return func(c *AppConfig) { c.stateFile = path }
}

// WithEmbeddingEndpoint sets the embedding service configuration.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embedding = e }
}

// WithVectorConfig sets the vector store configuration.
func WithVectorConfig(v VectorConfig) AppConfigOption {
	return func(c *AppConfig) { c.vector = v }
}

// WithChunkingConfig sets the chunker limits.
func WithChunkingConfig(ch ChunkingConfig) AppConfigOption {
	return func(c *AppConfig) { c.chunking = ch }
}

// WithSkipCollectionInit toggles startup collection creation.
func WithSkipCollectionInit(skip bool) AppConfigOption {
	return func(c *AppConfig) { c.skipCollectionInit = skip }
}

// WithAllowDataReset toggles the destructive reset endpoint.
func WithAllowDataReset(allow bool) AppConfigOption {
	return func(c *AppConfig) { c.allowDataReset = allow }
}
