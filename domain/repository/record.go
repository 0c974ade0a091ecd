// Package repository holds the registry's view of an indexed repository:
// identity, binding to a collection and embedding model, and the outcome of
// the most recent indexing run.
package repository

import (
	"time"

	"github.com/gitrag/gitrag/domain/index"
)

// Record is one registry entry. Immutable value object; mutations return
// copies.
type Record struct {
	repoID            string
	name              string
	url               string
	stackType         string
	collectionName    string
	embeddingModel    string
	lastIndexedCommit string
	lastIndexedAt     time.Time
	archived          bool
	run               index.Run
	createdAt         time.Time
	updatedAt         time.Time
}

// RecordOption is a functional option for NewRecord.
type RecordOption func(*Record)

// WithName sets the display name.
func WithName(name string) RecordOption {
	return func(r *Record) { r.name = name }
}

// WithURL sets the upstream URL.
func WithURL(url string) RecordOption {
	return func(r *Record) { r.url = url }
}

// WithStackType sets the technology stack type.
func WithStackType(stackType string) RecordOption {
	return func(r *Record) { r.stackType = stackType }
}

// WithCollectionName sets the vector collection the repository indexes into.
func WithCollectionName(name string) RecordOption {
	return func(r *Record) { r.collectionName = name }
}

// WithEmbeddingModel sets the embedding model.
func WithEmbeddingModel(model string) RecordOption {
	return func(r *Record) { r.embeddingModel = model }
}

// WithLastIndexedCommit sets the last fully indexed commit.
func WithLastIndexedCommit(sha string) RecordOption {
	return func(r *Record) { r.lastIndexedCommit = sha }
}

// NewRecord creates a Record for a repository id. The name defaults to the
// id.
func NewRecord(repoID string, opts ...RecordOption) Record {
	r := Record{repoID: repoID, name: repoID}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// ReconstructRecord recreates a Record from persistence.
func ReconstructRecord(
	repoID, name, url, stackType, collectionName, embeddingModel, lastIndexedCommit string,
	lastIndexedAt time.Time, archived bool, run index.Run,
	createdAt, updatedAt time.Time,
) Record {
	return Record{
		repoID:            repoID,
		name:              name,
		url:               url,
		stackType:         stackType,
		collectionName:    collectionName,
		embeddingModel:    embeddingModel,
		lastIndexedCommit: lastIndexedCommit,
		lastIndexedAt:     lastIndexedAt,
		archived:          archived,
		run:               run,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// RepoID returns the repository id.
func (r Record) RepoID() string { return r.repoID }

// Name returns the display name.
func (r Record) Name() string { return r.name }

// URL returns the upstream URL, empty for purely local repositories.
func (r Record) URL() string { return r.url }

// StackType returns the technology stack type, empty when generic.
func (r Record) StackType() string { return r.stackType }

// CollectionName returns the vector collection name.
func (r Record) CollectionName() string { return r.collectionName }

// EmbeddingModel returns the embedding model.
func (r Record) EmbeddingModel() string { return r.embeddingModel }

// LastIndexedCommit returns the last fully indexed commit, empty before the
// first full index.
func (r Record) LastIndexedCommit() string { return r.lastIndexedCommit }

// LastIndexedAt returns when the last run finished, zero when never.
func (r Record) LastIndexedAt() time.Time { return r.lastIndexedAt }

// Archived reports whether the repository is hidden from listings.
func (r Record) Archived() bool { return r.archived }

// Run returns the most recent indexing run.
func (r Record) Run() index.Run { return r.run }

// CreatedAt returns the creation timestamp.
func (r Record) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last modification timestamp.
func (r Record) UpdatedAt() time.Time { return r.updatedAt }

// WithArchived returns a copy with the archived flag set.
func (r Record) WithArchived(archived bool) Record {
	r.archived = archived
	return r
}

// WithRun returns a copy carrying the given run.
func (r Record) WithRun(run index.Run) Record {
	r.run = run
	return r
}

// Apply returns a copy with the given options applied.
func (r Record) Apply(opts ...RecordOption) Record {
	for _, opt := range opts {
		opt(&r)
	}
	return r
}
