// Package gitrag provides Git-aware code retrieval: incremental indexing of
// local repositories into a vector store, and filtered semantic search over
// the result.
//
// Basic usage:
//
//	cfg, err := gitrag.ConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := gitrag.New(gitrag.WithConfig(cfg))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Index a repository under REPOS_DIR
//	indexer, _, err := client.Indexer(ctx, "myrepo")
//	for event := range indexer.FullIndex(ctx) {
//	    fmt.Println(event.Message)
//	}
//
//	// Search it
//	retriever, err := client.Retriever(ctx, "myrepo")
//	hits, err := retriever.Search(ctx, search.NewQuery("parse unified diff"))
package gitrag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gitrag/gitrag/application/service"
	"github.com/gitrag/gitrag/domain/repository"
	"github.com/gitrag/gitrag/infrastructure/chunking"
	"github.com/gitrag/gitrag/infrastructure/git"
	"github.com/gitrag/gitrag/infrastructure/persistence"
	"github.com/gitrag/gitrag/infrastructure/stack"
	"github.com/gitrag/gitrag/internal/config"
	"github.com/gitrag/gitrag/internal/database"
	"github.com/gitrag/gitrag/internal/log"
)

// ErrClientClosed is returned by operations on a closed Client.
var ErrClientClosed = errors.New("client is closed")

// Client is the main entry point for the gitrag library. It owns the
// registry database, the state file, and the per-model embedding and
// vector-store caches.
type Client struct {
	// Registry is the repository metadata store.
	Registry repository.Registry

	// Reset is the guarded datastore wipe.
	Reset *service.DatastoreReset

	cfg         config.AppConfig
	logger      *slog.Logger
	db          database.Database
	state       *persistence.StateFile
	workspace   git.Workspace
	initializer *service.Initializer
	chunker     *chunking.Chunker
	closed      atomic.Bool
}

// ConfigFromEnv loads configuration from a .env file (when present) and the
// process environment.
func ConfigFromEnv() (config.AppConfig, error) {
	return config.LoadConfig("")
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	cc := newClientConfig()
	for _, opt := range opts {
		opt(cc)
	}
	cfg := cc.cfg

	logger := cc.logger
	if logger == nil {
		logger = log.Configure(cfg).Slog()
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	dbURL := cfg.DBURL()
	if dbURL == "" {
		dbURL = "sqlite:///" + filepath.Join(cfg.DataDir(), "gitrag.db")
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	registry, err := persistence.NewRegistry(db)
	if err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("open registry: %w", err), errClose)
	}

	statePath := cfg.StateFile()
	if !filepath.IsAbs(statePath) {
		statePath = filepath.Join(cfg.DataDir(), statePath)
	}
	state := persistence.NewStateFile(statePath)

	initializer := service.NewInitializer(cfg, logger)
	client := &Client{
		Registry:    registry,
		cfg:         cfg,
		logger:      logger,
		db:          db,
		state:       state,
		workspace:   git.NewWorkspace(cfg.ReposDir()),
		initializer: initializer,
		chunker:     chunking.NewChunker(cfg.Chunking(), logger, stack.NewAndroidChunkPlugin()),
	}
	client.Reset = service.NewDatastoreReset(cfg, initializer, registry, state, logger)

	if !cfg.SkipCollectionInit() {
		if err := initializer.EnsureDefaultCollection(ctx); err != nil {
			logger.Warn("default collection not ready at startup", slog.Any("error", err))
		}
	}

	return client, nil
}

// Config returns the client configuration.
func (c *Client) Config() config.AppConfig { return c.cfg }

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger { return c.logger }

// Workspace returns the repository workspace.
func (c *Client) Workspace() git.Workspace { return c.workspace }

// Initializer returns the per-process client caches.
func (c *Client) Initializer() *service.Initializer { return c.initializer }

// State returns the last-indexed-commit cache.
func (c *Client) State() *persistence.StateFile { return c.state }

// EnsureRecord returns the registry entry for a repository id, creating it
// with configuration defaults when missing.
func (c *Client) EnsureRecord(ctx context.Context, repoID string) (repository.Record, error) {
	if c.closed.Load() {
		return repository.Record{}, ErrClientClosed
	}
	return c.Registry.Ensure(ctx, repository.NewRecord(repoID,
		repository.WithCollectionName(c.cfg.CollectionName("")),
		repository.WithEmbeddingModel(c.cfg.Embedding().Model()),
	))
}

// Repo looks up a repository by id: ensures a registry entry with config
// defaults, refuses archived repositories, and resolves the work-tree path.
func (c *Client) Repo(ctx context.Context, repoID string) (repository.Record, string, error) {
	path, err := c.workspace.Resolve(repoID)
	if err != nil {
		return repository.Record{}, "", err
	}

	record, err := c.EnsureRecord(ctx, repoID)
	if err != nil {
		return repository.Record{}, "", err
	}
	if record.Archived() {
		return repository.Record{}, "", fmt.Errorf("%w: %s", service.ErrRepoArchived, repoID)
	}
	return record, path, nil
}

// Gateway returns a git gateway for a repository id.
func (c *Client) Gateway(repoID string) (git.Gateway, error) {
	path, err := c.workspace.Resolve(repoID)
	if err != nil {
		return nil, err
	}
	return git.NewCLI(path, c.logger)
}

// Indexer builds an indexing run for a repository. The registry entry's
// collection and model pick the clients; the state file is synced with the
// registry before the run.
func (c *Client) Indexer(ctx context.Context, repoID string) (*service.Indexer, repository.Record, error) {
	record, path, err := c.Repo(ctx, repoID)
	if err != nil {
		return nil, repository.Record{}, err
	}

	if err := c.state.Sync(repoID, record.LastIndexedCommit()); err != nil {
		c.logger.Warn("state file sync failed", slog.Any("error", err))
	}

	embedder, store, err := c.initializer.ResolveClients(ctx, record.CollectionName(), record.EmbeddingModel())
	if err != nil {
		return nil, repository.Record{}, err
	}

	gateway, err := git.NewCLI(path, c.logger)
	if err != nil {
		return nil, repository.Record{}, err
	}

	indexer := service.NewIndexer(repoID, record.StackType(), c.cfg.Branch(), service.IndexerDeps{
		Gateway:        gateway,
		Chunker:        c.chunker,
		Embedder:       embedder,
		Store:          store,
		Registry:       c.Registry,
		State:          c.state,
		PayloadPlugins: []chunking.PayloadPlugin{stack.NewAndroidPayloadPlugin()},
		Logger:         c.logger,
	})
	return indexer, record, nil
}

// Retriever builds a retriever. With a repo id, the registry entry picks
// clients and the work tree hydrates result texts; with an empty id, the
// default collection is searched without hydration.
func (c *Client) Retriever(ctx context.Context, repoID string) (*service.Retriever, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	if repoID == "" {
		model := c.cfg.Embedding().Model()
		embedder, store, err := c.initializer.ResolveClients(ctx, c.cfg.CollectionName(model), model)
		if err != nil {
			return nil, err
		}
		return service.NewRetriever(embedder, store, "", c.cfg.Branch(), c.logger), nil
	}

	record, path, err := c.Repo(ctx, repoID)
	if err != nil {
		return nil, err
	}
	embedder, store, err := c.initializer.ResolveClients(ctx, record.CollectionName(), record.EmbeddingModel())
	if err != nil {
		return nil, err
	}
	return service.NewRetriever(embedder, store, path, c.cfg.Branch(), c.logger), nil
}

// Close releases the database. Safe to call more than once.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.db.Close()
}
