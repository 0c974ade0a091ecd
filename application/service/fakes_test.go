package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gitrag/gitrag/domain/index"
	"github.com/gitrag/gitrag/domain/repository"
	"github.com/gitrag/gitrag/domain/search"
	"github.com/gitrag/gitrag/infrastructure/vector"
)

// fakeGateway serves scripted trees and diffs. The "" ref is the working
// tree.
type fakeGateway struct {
	head       string
	trees      map[string]map[string]string
	commitDiff string
	workDiff   string
	status     string
}

func (g *fakeGateway) Path() string { return "/fake/repo" }

func (g *fakeGateway) Head(context.Context) (string, error) { return g.head, nil }

func (g *fakeGateway) RevParse(_ context.Context, ref string) (string, error) { return ref, nil }

func (g *fakeGateway) ListFiles(_ context.Context, ref string) ([]string, error) {
	var files []string
	for path := range g.trees[ref] {
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

func (g *fakeGateway) ShowFile(_ context.Context, ref string, path string) (string, bool, error) {
	src, ok := g.trees[ref][path]
	return src, ok, nil
}

func (g *fakeGateway) DiffUnifiedZero(_ context.Context, _, _ string) (string, error) {
	return g.commitDiff, nil
}

func (g *fakeGateway) DiffWorking(_ context.Context, _ string, _ []string) (string, error) {
	return g.workDiff, nil
}

func (g *fakeGateway) StatusPorcelain(context.Context) (string, error) {
	return g.status, nil
}

// fakeEmbedder returns a fixed-dimension vector per text and counts calls.
type fakeEmbedder struct {
	mu    sync.Mutex
	dim   int
	calls [][]string
}

func newFakeEmbedder(dim int) *fakeEmbedder { return &fakeEmbedder{dim: dim} }

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls = append(e.calls, texts)
	e.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, e.dim)
		vec[0] = float32(len(text))
		out[i] = vec
	}
	return out, nil
}

func (e *fakeEmbedder) Model() string { return "fake-model" }

func (e *fakeEmbedder) embeddedTexts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, call := range e.calls {
		n += len(call)
	}
	return n
}

// fakeCluster tracks which collections exist across fakeStore handles.
type fakeCluster struct {
	mu          sync.Mutex
	collections map[string]bool
}

func newFakeCluster(names ...string) *fakeCluster {
	c := &fakeCluster{collections: map[string]bool{}}
	for _, name := range names {
		c.collections[name] = true
	}
	return c
}

// fakeStore is an in-memory VectorStore.
type fakeStore struct {
	mu       sync.Mutex
	name     string
	cluster  *fakeCluster
	dim      int
	ensured  int
	points   map[string]vector.Point
	searches int
}

func newFakeStore(name string) *fakeStore {
	return &fakeStore{name: name, points: map[string]vector.Point{}}
}

func (s *fakeStore) Collection() string { return s.name }

func (s *fakeStore) EnsureCollection(_ context.Context, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dim = dim
	s.ensured++
	return nil
}

func (s *fakeStore) Upsert(_ context.Context, points []vector.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		s.points[p.ID] = p
	}
	return nil
}

func (s *fakeStore) DemoteLatest(_ context.Context, logicalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.points {
		if p.Payload.LogicalID == logicalID && p.Payload.IsLatest {
			p.Payload.IsLatest = false
			s.points[id] = p
		}
	}
	return nil
}

func (s *fakeStore) SetLines(_ context.Context, logicalID string, startLine, endLine int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.points {
		if p.Payload.LogicalID == logicalID && p.Payload.IsLatest {
			p.Payload.Lines = [2]int{startLine, endLine}
			s.points[id] = p
		}
	}
	return nil
}

func (s *fakeStore) LatestByLogical(_ context.Context, logicalID string) ([]vector.StoredPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []vector.StoredPoint
	for id, p := range s.points {
		if p.Payload.LogicalID == logicalID && p.Payload.IsLatest {
			out = append(out, vector.StoredPoint{ID: id, Payload: p.Payload})
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteLatestByLogical(_ context.Context, logicalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.points {
		if p.Payload.LogicalID == logicalID && p.Payload.IsLatest {
			delete(s.points, id)
		}
	}
	return nil
}

func (s *fakeStore) Search(_ context.Context, _ []float32, limit int, _ search.Filter) ([]search.Hit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches++

	var ids []string
	for id, p := range s.points {
		if p.Payload.IsLatest {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var hits []search.Hit
	for _, id := range ids {
		if len(hits) >= limit {
			break
		}
		hits = append(hits, search.NewHit(id, 1.0, s.points[id].Payload))
	}
	return hits, nil
}

func (s *fakeStore) DeleteCollection(context.Context) error {
	if s.cluster != nil {
		s.cluster.mu.Lock()
		delete(s.cluster.collections, s.name)
		s.cluster.mu.Unlock()
	}
	s.mu.Lock()
	s.points = map[string]vector.Point{}
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) ListCollections(context.Context) ([]string, error) {
	if s.cluster == nil {
		return []string{s.name}, nil
	}
	s.cluster.mu.Lock()
	defer s.cluster.mu.Unlock()
	var names []string
	for name := range s.cluster.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *fakeStore) latestPoints() []vector.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []vector.Point
	for _, p := range s.points {
		if p.Payload.IsLatest {
			out = append(out, p)
		}
	}
	return out
}

func (s *fakeStore) allPoints() []vector.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []vector.Point
	for _, p := range s.points {
		out = append(out, p)
	}
	return out
}

// fakeRegistry is an in-memory repository.Registry that records run
// transitions.
type fakeRegistry struct {
	mu      sync.Mutex
	records map[string]repository.Record
	runs    []index.Run
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{records: map[string]repository.Record{}}
}

func (r *fakeRegistry) List(_ context.Context, includeArchived bool) ([]repository.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []repository.Record
	for _, id := range ids {
		if !includeArchived && r.records[id].Archived() {
			continue
		}
		out = append(out, r.records[id])
	}
	return out, nil
}

func (r *fakeRegistry) Get(_ context.Context, repoID string) (repository.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[repoID]
	if !ok {
		return repository.Record{}, repository.ErrNotFound
	}
	return record, nil
}

func (r *fakeRegistry) Ensure(_ context.Context, record repository.Record) (repository.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.records[record.RepoID()]; ok {
		return existing, nil
	}
	r.records[record.RepoID()] = record
	return record, nil
}

func (r *fakeRegistry) Create(_ context.Context, record repository.Record) (repository.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.RepoID()]; ok {
		return repository.Record{}, repository.ErrAlreadyExists
	}
	r.records[record.RepoID()] = record
	return record, nil
}

func (r *fakeRegistry) Update(_ context.Context, record repository.Record) (repository.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.RepoID()]; !ok {
		return repository.Record{}, repository.ErrNotFound
	}
	r.records[record.RepoID()] = record
	return record, nil
}

func (r *fakeRegistry) Archive(_ context.Context, repoID string, archived bool) (repository.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[repoID]
	if !ok {
		return repository.Record{}, repository.ErrNotFound
	}
	record = record.WithArchived(archived)
	r.records[repoID] = record
	return record, nil
}

func (r *fakeRegistry) Delete(_ context.Context, repoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, repoID)
	return nil
}

func (r *fakeRegistry) UpdateIndexStatus(_ context.Context, repoID string, run index.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	if record, ok := r.records[repoID]; ok {
		r.records[repoID] = record.WithRun(run)
	}
	return nil
}

func (r *fakeRegistry) UpdateLastIndexedCommit(_ context.Context, repoID, commitSHA string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[repoID]
	if !ok {
		return nil
	}
	r.records[repoID] = record.Apply(repository.WithLastIndexedCommit(commitSHA))
	return nil
}

func (r *fakeRegistry) lastRun() (index.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.runs) == 0 {
		return index.Run{}, fmt.Errorf("no runs recorded")
	}
	return r.runs[len(r.runs)-1], nil
}

var _ repository.Registry = (*fakeRegistry)(nil)
