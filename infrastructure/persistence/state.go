package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StateFile is the JSON cache mapping repo_id to last_indexed_commit. The
// registry stays the source of truth; the file only saves a database read on
// startup.
type StateFile struct {
	path string
	mu   sync.Mutex
}

// NewStateFile creates a StateFile at the given path.
func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

// Path returns the file location.
func (s *StateFile) Path() string { return s.path }

// Load reads the state map. A missing file is an empty map.
func (s *StateFile) Load() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *StateFile) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	state := map[string]string{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	return state, nil
}

// Set records a repository's last indexed commit.
func (s *StateFile) Set(repoID, commitSHA string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	if state[repoID] == commitSHA {
		return nil
	}
	state[repoID] = commitSHA
	return s.save(state)
}

// Sync aligns the file with the registry's value for one repository. An
// empty commit leaves the file untouched.
func (s *StateFile) Sync(repoID, lastIndexedCommit string) error {
	if lastIndexedCommit == "" {
		return nil
	}
	return s.Set(repoID, lastIndexedCommit)
}

// Get returns the cached commit for a repository, empty when unknown.
func (s *StateFile) Get(repoID string) (string, error) {
	state, err := s.Load()
	if err != nil {
		return "", err
	}
	return state[repoID], nil
}

// Clear removes the file.
func (s *StateFile) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}

func (s *StateFile) save(state map[string]string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}
