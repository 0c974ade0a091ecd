package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gitrag/gitrag/domain/search"
	"github.com/gitrag/gitrag/infrastructure/provider"
	"github.com/gitrag/gitrag/infrastructure/vector"
	"github.com/gitrag/gitrag/internal/config"
)

// Initializer builds and caches embedding clients and vector stores per
// model and collection, and makes sure collections exist before use.
type Initializer struct {
	cfg    config.AppConfig
	logger *slog.Logger

	cacheLock sync.Mutex
	embedders map[string]search.Embedder
	stores    map[string]VectorStore

	collMu          sync.Mutex
	collectionReady map[string]bool

	// factories are swappable in tests
	newEmbedder func(model string) (search.Embedder, error)
	newStore    func(collection string) (VectorStore, error)
}

// NewInitializer creates an Initializer with real client factories.
func NewInitializer(cfg config.AppConfig, logger *slog.Logger) *Initializer {
	if logger == nil {
		logger = slog.Default()
	}
	init := &Initializer{
		cfg:             cfg,
		logger:          logger,
		embedders:       map[string]search.Embedder{},
		stores:          map[string]VectorStore{},
		collectionReady: map[string]bool{},
	}
	init.newEmbedder = func(model string) (search.Embedder, error) {
		return provider.NewOpenAIEmbedder(cfg.Embedding(), model), nil
	}
	init.newStore = func(collection string) (VectorStore, error) {
		return vector.NewStore(cfg.Vector(), collection, logger)
	}
	return init
}

// Embedder returns the cached embedding client for a model, creating it on
// first use. An empty model resolves to the configured default.
func (in *Initializer) Embedder(model string) (search.Embedder, error) {
	if model == "" {
		model = in.cfg.Embedding().Model()
	}

	in.cacheLock.Lock()
	defer in.cacheLock.Unlock()

	if e, ok := in.embedders[model]; ok {
		return e, nil
	}
	e, err := in.newEmbedder(model)
	if err != nil {
		return nil, fmt.Errorf("create embedder for %s: %w", model, err)
	}
	in.embedders[model] = e
	return e, nil
}

// Store returns the cached vector store for a collection, creating it on
// first use.
func (in *Initializer) Store(collection string) (VectorStore, error) {
	in.cacheLock.Lock()
	defer in.cacheLock.Unlock()

	if s, ok := in.stores[collection]; ok {
		return s, nil
	}
	s, err := in.newStore(collection)
	if err != nil {
		return nil, fmt.Errorf("create vector store for %s: %w", collection, err)
	}
	in.stores[collection] = s
	return s, nil
}

// ResolveClients returns the embedder and store for one repository's
// collection and model, ensuring the collection exists once per process.
func (in *Initializer) ResolveClients(ctx context.Context, collection, model string) (search.Embedder, VectorStore, error) {
	embedder, err := in.Embedder(model)
	if err != nil {
		return nil, nil, err
	}
	store, err := in.Store(collection)
	if err != nil {
		return nil, nil, err
	}
	if err := in.ensureCollection(ctx, store, embedder); err != nil {
		return nil, nil, err
	}
	return embedder, store, nil
}

// EnsureDefaultCollection creates the collection for the default embedding
// model. Called at startup unless SKIP_COLLECTION_INIT is set.
func (in *Initializer) EnsureDefaultCollection(ctx context.Context) error {
	model := in.cfg.Embedding().Model()
	_, _, err := in.ResolveClients(ctx, in.cfg.CollectionName(model), model)
	return err
}

func (in *Initializer) ensureCollection(ctx context.Context, store VectorStore, embedder search.Embedder) error {
	in.collMu.Lock()
	defer in.collMu.Unlock()

	name := store.Collection()
	if in.collectionReady[name] {
		return nil
	}

	dim, err := in.dimension(ctx, embedder)
	if err != nil {
		return err
	}
	if err := store.EnsureCollection(ctx, dim); err != nil {
		return fmt.Errorf("ensure collection %s: %w", name, err)
	}

	in.collectionReady[name] = true
	in.logger.Info("collection ready",
		slog.String("collection", name), slog.Int("dim", dim))
	return nil
}

// dimension returns the configured vector size, probing the embedding
// service when none is configured.
func (in *Initializer) dimension(ctx context.Context, embedder search.Embedder) (int, error) {
	if dim := in.cfg.Vector().Dim(); dim > 0 {
		return dim, nil
	}

	vecs, err := embedder.Embed(ctx, []string{"dimension probe"})
	if err != nil {
		return 0, fmt.Errorf("probe embedding dimension: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return 0, fmt.Errorf("probe embedding dimension: empty vector")
	}
	return len(vecs[0]), nil
}

// Reset drops every cached client and collection marker. Used after a
// datastore reset so stale handles are not reused.
func (in *Initializer) Reset() {
	in.cacheLock.Lock()
	in.embedders = map[string]search.Embedder{}
	in.stores = map[string]VectorStore{}
	in.cacheLock.Unlock()

	in.collMu.Lock()
	in.collectionReady = map[string]bool{}
	in.collMu.Unlock()
}
