// Package persistence provides the GORM-backed repository registry and the
// JSON state-file cache.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/gitrag/gitrag/domain/index"
	"github.com/gitrag/gitrag/domain/repository"
	"github.com/gitrag/gitrag/internal/database"
)

// RepositoryModel is the GORM model for one registry entry.
type RepositoryModel struct {
	ID                      uint   `gorm:"primaryKey"`
	RepoID                  string `gorm:"uniqueIndex;not null"`
	Name                    string `gorm:"not null"`
	URL                     string
	StackType               string `gorm:"index"`
	CollectionName          string `gorm:"not null"`
	EmbeddingModel          string `gorm:"not null"`
	LastIndexedCommit       string
	LastIndexedAt           *time.Time
	LastIndexMode           string
	LastIndexStatus         string
	LastIndexError          string
	LastIndexStartedAt      *time.Time
	LastIndexFinishedAt     *time.Time
	LastIndexTotalFiles     int
	LastIndexProcessedFiles int
	LastIndexCurrentFile    string
	Archived                bool      `gorm:"not null;default:false"`
	CreatedAt               time.Time `gorm:"not null"`
	UpdatedAt               time.Time `gorm:"not null"`
}

// TableName keeps the table name singular, matching earlier deployments.
func (RepositoryModel) TableName() string { return "repository" }

// Registry implements repository.Registry using GORM.
type Registry struct {
	db database.Database
	mu sync.Mutex
}

// NewRegistry creates a Registry and migrates its schema.
func NewRegistry(db database.Database) (*Registry, error) {
	if err := db.Session(context.Background()).AutoMigrate(&RepositoryModel{}); err != nil {
		return nil, fmt.Errorf("migrate registry schema: %w", err)
	}
	return &Registry{db: db}, nil
}

func toModel(r repository.Record) RepositoryModel {
	run := r.Run()
	m := RepositoryModel{
		RepoID:                  r.RepoID(),
		Name:                    r.Name(),
		URL:                     r.URL(),
		StackType:               r.StackType(),
		CollectionName:          r.CollectionName(),
		EmbeddingModel:          r.EmbeddingModel(),
		LastIndexedCommit:       r.LastIndexedCommit(),
		LastIndexMode:           string(run.Mode()),
		LastIndexStatus:         string(run.State()),
		LastIndexError:          run.ErrorMessage(),
		LastIndexTotalFiles:     run.TotalFiles(),
		LastIndexProcessedFiles: run.ProcessedFiles(),
		LastIndexCurrentFile:    run.CurrentFile(),
		Archived:                r.Archived(),
		CreatedAt:               r.CreatedAt(),
		UpdatedAt:               r.UpdatedAt(),
	}
	if t := r.LastIndexedAt(); !t.IsZero() {
		m.LastIndexedAt = &t
	}
	if t := run.StartedAt(); !t.IsZero() {
		m.LastIndexStartedAt = &t
	}
	if t := run.FinishedAt(); !t.IsZero() {
		m.LastIndexFinishedAt = &t
	}
	return m
}

func toDomain(m RepositoryModel) repository.Record {
	run := index.ReconstructRun(
		index.RunMode(m.LastIndexMode),
		index.RunState(m.LastIndexStatus),
		m.LastIndexError,
		deref(m.LastIndexStartedAt),
		deref(m.LastIndexFinishedAt),
		m.LastIndexTotalFiles,
		m.LastIndexProcessedFiles,
		m.LastIndexCurrentFile,
	)
	return repository.ReconstructRecord(
		m.RepoID, m.Name, m.URL, m.StackType, m.CollectionName,
		m.EmbeddingModel, m.LastIndexedCommit,
		deref(m.LastIndexedAt), m.Archived, run,
		m.CreatedAt, m.UpdatedAt,
	)
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// List returns all records, excluding archived ones unless asked.
func (s *Registry) List(ctx context.Context, includeArchived bool) ([]repository.Record, error) {
	query := s.db.Session(ctx).Order("repo_id")
	if !includeArchived {
		query = query.Where("archived = ?", false)
	}

	var models []RepositoryModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}

	records := make([]repository.Record, 0, len(models))
	for _, m := range models {
		records = append(records, toDomain(m))
	}
	return records, nil
}

// Get returns the record for a repository id.
func (s *Registry) Get(ctx context.Context, repoID string) (repository.Record, error) {
	var m RepositoryModel
	err := s.db.Session(ctx).Where("repo_id = ?", repoID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.Record{}, repository.ErrNotFound
	}
	if err != nil {
		return repository.Record{}, fmt.Errorf("get repository %s: %w", repoID, err)
	}
	return toDomain(m), nil
}

// Ensure returns the existing record or creates one from the given defaults.
func (s *Registry) Ensure(ctx context.Context, record repository.Record) (repository.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.Get(ctx, record.RepoID())
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return repository.Record{}, err
	}
	return s.insert(ctx, record)
}

// Create inserts a new record.
func (s *Registry) Create(ctx context.Context, record repository.Record) (repository.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.Get(ctx, record.RepoID())
	if err == nil {
		return repository.Record{}, repository.ErrAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return repository.Record{}, err
	}
	return s.insert(ctx, record)
}

func (s *Registry) insert(ctx context.Context, record repository.Record) (repository.Record, error) {
	m := toModel(record)
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	if err := s.db.Session(ctx).Create(&m).Error; err != nil {
		return repository.Record{}, fmt.Errorf("create repository %s: %w", record.RepoID(), err)
	}
	return toDomain(m), nil
}

// Update applies the non-zero metadata fields of the given record.
func (s *Registry) Update(ctx context.Context, record repository.Record) (repository.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.patch(ctx, record.RepoID(), func(m *RepositoryModel) {
		if record.Name() != "" {
			m.Name = record.Name()
		}
		if record.URL() != "" {
			m.URL = record.URL()
		}
		if record.StackType() != "" {
			m.StackType = record.StackType()
		}
		if record.CollectionName() != "" {
			m.CollectionName = record.CollectionName()
		}
		if record.EmbeddingModel() != "" {
			m.EmbeddingModel = record.EmbeddingModel()
		}
		if record.LastIndexedCommit() != "" {
			m.LastIndexedCommit = record.LastIndexedCommit()
		}
		m.Archived = record.Archived()
	})
}

// Archive toggles the archived flag.
func (s *Registry) Archive(ctx context.Context, repoID string, archived bool) (repository.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.patch(ctx, repoID, func(m *RepositoryModel) {
		m.Archived = archived
	})
}

// Delete removes a record. Deleting a missing id is a no-op.
func (s *Registry) Delete(ctx context.Context, repoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Session(ctx).Where("repo_id = ?", repoID).Delete(&RepositoryModel{}).Error
	if err != nil {
		return fmt.Errorf("delete repository %s: %w", repoID, err)
	}
	return nil
}

// UpdateIndexStatus persists the run snapshot for a repository. Unknown
// repository ids are ignored, matching Ensure-before-run usage.
func (s *Registry) UpdateIndexStatus(ctx context.Context, repoID string, run index.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.patch(ctx, repoID, func(m *RepositoryModel) {
		m.LastIndexMode = string(run.Mode())
		m.LastIndexStatus = string(run.State())
		m.LastIndexError = run.ErrorMessage()
		m.LastIndexTotalFiles = run.TotalFiles()
		m.LastIndexProcessedFiles = run.ProcessedFiles()
		m.LastIndexCurrentFile = run.CurrentFile()
		if t := run.StartedAt(); !t.IsZero() {
			m.LastIndexStartedAt = &t
		}
		if t := run.FinishedAt(); !t.IsZero() {
			m.LastIndexFinishedAt = &t
			m.LastIndexedAt = &t
		}
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

// UpdateLastIndexedCommit advances the last indexed commit and marks the run
// completed.
func (s *Registry) UpdateLastIndexedCommit(ctx context.Context, repoID, commitSHA string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.patch(ctx, repoID, func(m *RepositoryModel) {
		m.LastIndexedCommit = commitSHA
		m.LastIndexStatus = string(index.RunCompleted)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

func (s *Registry) patch(ctx context.Context, repoID string, apply func(*RepositoryModel)) (repository.Record, error) {
	var m RepositoryModel
	err := s.db.Session(ctx).Where("repo_id = ?", repoID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.Record{}, repository.ErrNotFound
	}
	if err != nil {
		return repository.Record{}, fmt.Errorf("get repository %s: %w", repoID, err)
	}

	apply(&m)
	m.UpdatedAt = time.Now().UTC()

	if err := s.db.Session(ctx).Save(&m).Error; err != nil {
		return repository.Record{}, fmt.Errorf("update repository %s: %w", repoID, err)
	}
	return toDomain(m), nil
}

var _ repository.Registry = (*Registry)(nil)
