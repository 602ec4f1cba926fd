package testutil

import (
	"errors"
	"sync"

	"workos-go/internal/model"
	"workos-go/internal/restore"
)

// MemoryDocumentStore is an in-memory restore.DocumentStore.
type MemoryDocumentStore struct {
	mu   sync.Mutex
	Docs []model.Document

	// FailReplace makes ReplaceAll fail, which the orchestrator must
	// downgrade to a warning.
	FailReplace bool

	// ReplaceStarted, if non-nil, receives one signal when ReplaceAll
	// begins. ReplaceProceed, if non-nil, is awaited before ReplaceAll
	// returns. Together they let a test hold a restore inside its final
	// stage while issuing a second attempt.
	ReplaceStarted chan struct{}
	ReplaceProceed chan struct{}
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{}
}

func (s *MemoryDocumentStore) ReplaceAll(docs []model.Document) error {
	if s.ReplaceStarted != nil {
		s.ReplaceStarted <- struct{}{}
	}
	if s.ReplaceProceed != nil {
		<-s.ReplaceProceed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailReplace {
		return errors.New("injected document store failure")
	}
	s.Docs = append([]model.Document(nil), docs...)
	return nil
}

func (s *MemoryDocumentStore) ReadAll() ([]model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Document(nil), s.Docs...), nil
}

var _ restore.DocumentStore = (*MemoryDocumentStore)(nil)
