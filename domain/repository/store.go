package repository

import (
	"context"
	"errors"

	"github.com/gitrag/gitrag/domain/index"
)

// Registry errors.
var (
	ErrNotFound      = errors.New("repository not found in registry")
	ErrAlreadyExists = errors.New("repository already registered")
)

// Registry persists repository records.
type Registry interface {
	// List returns all records, excluding archived ones unless asked.
	List(ctx context.Context, includeArchived bool) ([]Record, error)

	// Get returns the record for a repository id or ErrNotFound.
	Get(ctx context.Context, repoID string) (Record, error)

	// Ensure returns the existing record or creates one from the given
	// defaults.
	Ensure(ctx context.Context, record Record) (Record, error)

	// Create inserts a new record; ErrAlreadyExists when the id is taken.
	Create(ctx context.Context, record Record) (Record, error)

	// Update applies the non-zero fields of the given record.
	Update(ctx context.Context, record Record) (Record, error)

	// Archive toggles the archived flag.
	Archive(ctx context.Context, repoID string, archived bool) (Record, error)

	// Delete removes a record. Deleting a missing id is a no-op.
	Delete(ctx context.Context, repoID string) error

	// UpdateIndexStatus persists the run snapshot for a repository.
	UpdateIndexStatus(ctx context.Context, repoID string, run index.Run) error

	// UpdateLastIndexedCommit advances the last indexed commit and marks the
	// run completed.
	UpdateLastIndexedCommit(ctx context.Context, repoID, commitSHA string) error
}
