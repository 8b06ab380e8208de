package tiktok

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
)

// Store persists the single StatsRecord. Read reports ok=false when no
// record has been written yet.
type Store interface {
	Read(ctx context.Context) (rec StatsRecord, ok bool, err error)
	Write(ctx context.Context, rec StatsRecord) error
}

// FileStore keeps the record as an indented JSON document on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the store writes to.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Read(_ context.Context) (StatsRecord, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return StatsRecord{}, false, nil
		}
		return StatsRecord{}, false, fmt.Errorf("read %s: %w", s.path, err)
	}

	var rec StatsRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return StatsRecord{}, false, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return rec, true, nil
}

// Write replaces the file atomically: the record goes to a temp file in
// the same directory which is then renamed over the old one.
func (s *FileStore) Write(_ context.Context, rec StatsRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// MemoryStore is an in-process Store, mostly for tests.
type MemoryStore struct {
	mu  sync.Mutex
	rec *StatsRecord
}

// NewMemoryStore returns a store holding rec, or an empty store when rec
// is nil.
func NewMemoryStore(rec *StatsRecord) *MemoryStore {
	s := &MemoryStore{}
	if rec != nil {
		r := *rec
		s.rec = &r
	}
	return s
}

func (s *MemoryStore) Read(_ context.Context) (StatsRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return StatsRecord{}, false, nil
	}
	return *s.rec, true, nil
}

func (s *MemoryStore) Write(_ context.Context, rec StatsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &rec
	return nil
}
