// Package service provides the application layer: indexing runs, retrieval,
// client initialization, and the guarded datastore reset.
package service

import (
	"context"
	"errors"

	"github.com/gitrag/gitrag/domain/search"
	"github.com/gitrag/gitrag/infrastructure/vector"
)

// Service-level errors, mapped to 4xx by the HTTP layer.
var (
	// ErrRepoArchived indicates the repository is archived and refuses
	// indexing and retrieval.
	ErrRepoArchived = errors.New("repository is archived")

	// ErrResetDisabled indicates the destructive datastore reset is not
	// enabled.
	ErrResetDisabled = errors.New("datastore reset is disabled; set ALLOW_DATA_RESET=true")
)

// VectorStore is the slice of the vector store the services depend on.
// Satisfied by *vector.Store; tests substitute an in-memory fake.
type VectorStore interface {
	Collection() string
	EnsureCollection(ctx context.Context, dim int) error
	Upsert(ctx context.Context, points []vector.Point) error
	DemoteLatest(ctx context.Context, logicalID string) error
	SetLines(ctx context.Context, logicalID string, startLine, endLine int) error
	LatestByLogical(ctx context.Context, logicalID string) ([]vector.StoredPoint, error)
	DeleteLatestByLogical(ctx context.Context, logicalID string) error
	Search(ctx context.Context, vec []float32, limit int, filter search.Filter) ([]search.Hit, error)
	DeleteCollection(ctx context.Context) error
	ListCollections(ctx context.Context) ([]string, error)
}

var _ VectorStore = (*vector.Store)(nil)
