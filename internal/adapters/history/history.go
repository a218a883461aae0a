// Package history persists the append-only log of past posts used for
// perceptual-hash deduplication and post tracking.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Record is one history entry. Phash is the only field the dedup filter
// reads; the rest exists for tracking and manifest repair.
type Record struct {
	ID        string            `json:"id"`
	Date      string            `json:"date"`
	ThemeHint string            `json:"themeHint,omitempty"`
	Files     map[string]string `json:"files"`
	PostID    string            `json:"postId,omitempty"`
	Phash     string            `json:"phash,omitempty"`
}

// Store provides access to the history log. Records are ordered by
// insertion time; only the most recent window is consulted for dedup.
type Store interface {
	// Append adds a record at the end of the log.
	Append(ctx context.Context, rec Record) error

	// UpdatePostID sets the post id on an existing record.
	// Returns ErrNotFound when no record has the given id.
	UpdatePostID(ctx context.Context, id, postID string) error

	// RecentHashes returns the perceptual hashes of the most recent limit
	// records, skipping records without one.
	RecentHashes(ctx context.Context, limit int) ([]string, error)
}

// FileStore implements Store over a single JSON array file.
//
// Writes use load-all/rewrite-all semantics and are serialized by a mutex.
// Concurrent external modification of the file is not supported; this is a
// known limitation kept on purpose so the file stays a plain inspectable
// JSON document.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Append implements Store.
func (s *FileStore) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadLocked()
	if err != nil {
		return err
	}
	records = append(records, rec)
	return s.saveLocked(records)
}

// UpdatePostID implements Store.
func (s *FileStore) UpdatePostID(ctx context.Context, id, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadLocked()
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].ID == id {
			records[i].PostID = postID
			return s.saveLocked(records)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// RecentHashes implements Store.
func (s *FileStore) RecentHashes(ctx context.Context, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	start := 0
	if limit > 0 && len(records) > limit {
		start = len(records) - limit
	}
	var hashes []string
	for _, rec := range records[start:] {
		if rec.Phash != "" {
			hashes = append(hashes, rec.Phash)
		}
	}
	return hashes, nil
}

func (s *FileStore) loadLocked() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return records, nil
}

func (s *FileStore) saveLocked(records []Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
