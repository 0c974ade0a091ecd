package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gitrag/gitrag/domain/repository"
	"github.com/gitrag/gitrag/infrastructure/persistence"
	"github.com/gitrag/gitrag/internal/config"
)

// DatastoreReset wipes every collection owned by this deployment, the
// registry, and the state file. Disabled unless ALLOW_DATA_RESET is set.
type DatastoreReset struct {
	cfg         config.AppConfig
	initializer *Initializer
	registry    repository.Registry
	state       *persistence.StateFile
	logger      *slog.Logger
}

// ResetResult summarizes what a reset removed.
type ResetResult struct {
	CollectionsDropped  []string `json:"collections_dropped"`
	RepositoriesRemoved int      `json:"repositories_removed"`
	StateCleared        bool     `json:"state_cleared"`
}

// NewDatastoreReset creates the reset service.
func NewDatastoreReset(cfg config.AppConfig, initializer *Initializer, registry repository.Registry, state *persistence.StateFile, logger *slog.Logger) *DatastoreReset {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatastoreReset{
		cfg:         cfg,
		initializer: initializer,
		registry:    registry,
		state:       state,
		logger:      logger,
	}
}

// Reset performs the wipe. Only collections carrying this deployment's
// prefix are dropped; collections of other environments sharing the cluster
// are left alone.
func (d *DatastoreReset) Reset(ctx context.Context) (ResetResult, error) {
	if !d.cfg.AllowDataReset() {
		return ResetResult{}, ErrResetDisabled
	}

	result := ResetResult{CollectionsDropped: []string{}}

	store, err := d.initializer.Store(d.cfg.CollectionName(""))
	if err != nil {
		return result, err
	}
	collections, err := store.ListCollections(ctx)
	if err != nil {
		return result, fmt.Errorf("list collections: %w", err)
	}

	prefix := d.cfg.CollectionPrefix()
	for _, name := range collections {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		target, err := d.initializer.Store(name)
		if err != nil {
			return result, err
		}
		if err := target.DeleteCollection(ctx); err != nil {
			return result, fmt.Errorf("drop collection %s: %w", name, err)
		}
		d.logger.Warn("dropped collection", slog.String("collection", name))
		result.CollectionsDropped = append(result.CollectionsDropped, name)
	}

	records, err := d.registry.List(ctx, true)
	if err != nil {
		return result, fmt.Errorf("list repositories: %w", err)
	}
	for _, record := range records {
		if err := d.registry.Delete(ctx, record.RepoID()); err != nil {
			return result, err
		}
	}
	result.RepositoriesRemoved = len(records)

	if d.state != nil {
		if err := d.state.Clear(); err != nil {
			return result, err
		}
		result.StateCleared = true
	}

	d.initializer.Reset()
	d.logger.Warn("datastore reset completed",
		slog.Int("collections", len(result.CollectionsDropped)),
		slog.Int("repositories", result.RepositoriesRemoved))
	return result, nil
}
