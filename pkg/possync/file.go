package possync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/matzehuels/semtiles/pkg/graph"
)

// FileStore keeps every position in one JSON object keyed by domain id.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

// NewFileStore creates a store backed by path. If path is empty it
// defaults to ~/.config/semtiles/positions.json.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		path = filepath.Join(home, ".config", "semtiles", "positions.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create positions dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) read() (graph.Positions, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return graph.Positions{}, nil
		}
		return nil, fmt.Errorf("read positions file: %w", err)
	}
	pos := graph.Positions{}
	if err := json.Unmarshal(data, &pos); err != nil {
		return nil, fmt.Errorf("parse positions: %w", err)
	}
	return pos, nil
}

// SavePositions merges pos into the file.
func (s *FileStore) SavePositions(ctx context.Context, pos graph.Positions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	for id, p := range pos {
		all[id] = p
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal positions: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write positions file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// LoadPositions implements Store.
func (s *FileStore) LoadPositions(ctx context.Context, ids []string) (graph.Positions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.read()
	if err != nil || ids == nil {
		return all, err
	}
	out := make(graph.Positions, len(ids))
	for _, id := range ids {
		if p, ok := all[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// Backend implements Persister.
func (s *FileStore) Backend() string { return "file" }

// Close does nothing for the file store.
func (s *FileStore) Close() error { return nil }

// Path returns the positions file path.
func (s *FileStore) Path() string { return s.path }

var _ Store = (*FileStore)(nil)
