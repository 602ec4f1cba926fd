// Package docstore is the file-based text-document store: one JSON file per
// document under a single directory. All bulk operations run under an
// exclusive scope so a restore never interleaves with ordinary writes.
package docstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"workos-go/internal/model"
)

// FileDocumentStore stores each document as <dir>/<id>.json.
type FileDocumentStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileDocumentStore creates the store directory if needed.
func NewFileDocumentStore(dir string) (*FileDocumentStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating document directory: %w", err)
	}
	return &FileDocumentStore{dir: dir}, nil
}

// ReplaceAll removes every stored document and writes the given set, under
// the store's exclusive lock. Document IDs become file names, so an ID that
// is not a safe file name is rejected.
func (s *FileDocumentStore) ReplaceAll(docs []model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range docs {
		if !safeDocumentID(d.ID) {
			return fmt.Errorf("unsafe document id: %q", d.ID)
		}
	}

	existing, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}
	for _, path := range existing {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing %s: %w", filepath.Base(path), err)
		}
	}

	for _, d := range docs {
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding document %s: %w", d.ID, err)
		}
		path := filepath.Join(s.dir, d.ID+".json")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing document %s: %w", d.ID, err)
		}
	}
	return nil
}

// ReadAll returns all stored documents, under the store's exclusive lock.
// A file that no longer parses is an error; the store does not self-heal.
func (s *FileDocumentStore) ReadAll() ([]model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	var docs []model.Document
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
		}
		var d model.Document
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// safeDocumentID accepts IDs usable as bare file names: no separators, no
// traversal, no hidden-file prefix.
func safeDocumentID(id string) bool {
	if id == "" || strings.HasPrefix(id, ".") {
		return false
	}
	return !strings.ContainsAny(id, "/\\\x00")
}
