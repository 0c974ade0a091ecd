package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration. Field names map to
// environment variables without a prefix.
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the local data directory.
	// Env: DATA_DIR (default: .gitrag)
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the registry database URL.
	// Env: DB_URL
	// Default: sqlite under {data_dir}/gitrag.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// AppEnv tags collection names so environments never share an index.
	// Env: APP_ENV (default: dev)
	AppEnv string `envconfig:"APP_ENV" default:"dev"`

	// Branch is the branch recorded on indexed points.
	// Env: GIT_BRANCH (default: main)
	Branch string `envconfig:"GIT_BRANCH" default:"main"`

	// ReposDir is the root directory holding the Git repositories.
	// Env: REPOS_DIR (default: /workspace/myrepo)
	ReposDir string `envconfig:"REPOS_DIR"`

	// StateFile caches last indexed commits per repository.
	// Env: STATE_FILE (default: index_state.json)
	StateFile string `envconfig:"STATE_FILE"`

	// EmbBaseURL is the embedding service base URL.
	// Env: EMB_BASE_URL (default: http://localhost:8080/v1)
	EmbBaseURL string `envconfig:"EMB_BASE_URL"`

	// EmbModel is the default embedding model.
	// Env: EMB_MODEL (default: text-embedding-3-large)
	EmbModel string `envconfig:"EMB_MODEL"`

	// OpenAIAPIKey authenticates embedding requests, when required.
	// Env: OPENAI_API_KEY
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// EmbeddingBatchSize is the number of texts per embedding request.
	// Env: EMBEDDING_BATCH_SIZE (default: 32)
	EmbeddingBatchSize int `envconfig:"EMBEDDING_BATCH_SIZE" default:"32"`

	// EmbeddingTimeout is the per-request timeout in seconds.
	// Env: EMBEDDING_TIMEOUT (default: 60)
	EmbeddingTimeout float64 `envconfig:"EMBEDDING_TIMEOUT" default:"60"`

	// QdrantURL is the vector store URL.
	// Env: QDRANT_URL (default: http://localhost:6333)
	QdrantURL string `envconfig:"QDRANT_URL"`

	// QdrantAPIKey authenticates vector store requests.
	// Env: QDRANT_API_KEY
	QdrantAPIKey string `envconfig:"QDRANT_API_KEY"`

	// QdrantUpsertBatch is the points-per-upsert batch size.
	// Env: QDRANT_UPSERT_BATCH (default: 128)
	QdrantUpsertBatch int `envconfig:"QDRANT_UPSERT_BATCH" default:"128"`

	// QdrantTimeout is the per-operation timeout in seconds.
	// Env: QDRANT_TIMEOUT (default: 30)
	QdrantTimeout float64 `envconfig:"QDRANT_TIMEOUT" default:"30"`

	// Dim fixes the vector dimension; 0 probes the embedding service.
	// Env: DIM (default: 0)
	Dim int `envconfig:"DIM" default:"0"`

	// ChunkTokens is the per-chunk token budget.
	// Env: CHUNK_TOKENS (default: 512)
	ChunkTokens int `envconfig:"CHUNK_TOKENS" default:"512"`

	// CharsPerTokenEst estimates characters per token for the content cap.
	// Env: CHARS_PER_TOKEN_EST (default: 1.5)
	CharsPerTokenEst float64 `envconfig:"CHARS_PER_TOKEN_EST" default:"1.5"`

	// ChunkLines is the generic chunker's line window.
	// Env: CHUNK_LINES (default: 120)
	ChunkLines int `envconfig:"CHUNK_LINES" default:"120"`

	// SkipCollectionInit skips ensuring the default collection at startup.
	// Env: SKIP_COLLECTION_INIT (default: false)
	SkipCollectionInit bool `envconfig:"SKIP_COLLECTION_INIT" default:"false"`

	// AllowDataReset enables the destructive datastore reset endpoint.
	// Env: ALLOW_DATA_RESET (default: false)
	AllowDataReset bool `envconfig:"ALLOW_DATA_RESET" default:"false"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig, applying only values the
// environment actually set.
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
	if e.DBURL != "" {
		cfg = cfg.Apply(WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = cfg.Apply(WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = cfg.Apply(WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.AppEnv != "" {
		cfg = cfg.Apply(WithAppEnv(e.AppEnv))
	}
	if e.Branch != "" {
		cfg = cfg.Apply(WithBranch(e.Branch))
	}
	if e.ReposDir != "" {
		cfg = cfg.Apply(WithReposDir(e.ReposDir))
	}
	if e.StateFile != "" {
		cfg = cfg.Apply(WithStateFile(e.StateFile))
	}

	endpointOpts := []EndpointOption{
		WithBatchSize(e.EmbeddingBatchSize),
		WithEndpointTimeout(time.Duration(e.EmbeddingTimeout * float64(time.Second))),
	}
	if e.EmbBaseURL != "" {
		endpointOpts = append(endpointOpts, WithBaseURL(e.EmbBaseURL))
	}
	if e.EmbModel != "" {
		endpointOpts = append(endpointOpts, WithModel(e.EmbModel))
	}
	if e.OpenAIAPIKey != "" {
		endpointOpts = append(endpointOpts, WithAPIKey(e.OpenAIAPIKey))
	}
	cfg = cfg.Apply(WithEmbeddingEndpoint(NewEndpointWithOptions(endpointOpts...)))

	vector := NewVectorConfig().
		WithUpsertBatch(e.QdrantUpsertBatch).
		WithTimeout(time.Duration(e.QdrantTimeout * float64(time.Second))).
		WithDim(e.Dim)
	if e.QdrantURL != "" {
		vector = vector.WithURL(e.QdrantURL)
	}
	if e.QdrantAPIKey != "" {
		vector = vector.WithAPIKey(e.QdrantAPIKey)
	}
	cfg = cfg.Apply(WithVectorConfig(vector))

	chunking := NewChunkingConfig().
		WithChunkTokens(e.ChunkTokens).
		WithCharsPerToken(e.CharsPerTokenEst).
		WithChunkLines(e.ChunkLines)
	cfg = cfg.Apply(WithChunkingConfig(chunking))

	cfg = cfg.Apply(
		WithSkipCollectionInit(e.SkipCollectionInit),
		WithAllowDataReset(e.AllowDataReset),
	)

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
