package testutil

import (
	"errors"
	"fmt"
	"os"
	"sync"

	json "github.com/goccy/go-json"

	"workos-go/internal/model"
	"workos-go/internal/restore"
)

// MemoryRecordStore is an in-memory restore.RecordStore with failure
// injection for exercising the orchestrator's rollback paths. BackupTo and
// RestoreFrom snapshot the whole state to a JSON file, mirroring how the
// real store's safety copies behave.
type MemoryRecordStore struct {
	mu          sync.Mutex
	path        string
	Tasks       []model.Task
	Events      []model.Event
	Attachments []model.AttachmentRef

	// FailReplaceAfterCommit makes ReplaceRecords apply its changes and
	// then return an error, simulating a transaction-level failure whose
	// partial work must be undone via the safety copy.
	FailReplaceAfterCommit bool

	// FailBackup makes BackupTo fail, simulating a safety_backup stage error.
	FailBackup bool
}

type memoryStoreState struct {
	Tasks       []model.Task          `json:"tasks"`
	Events      []model.Event         `json:"events"`
	Attachments []model.AttachmentRef `json:"attachments"`
}

// NewMemoryRecordStore creates a store whose nominal file path is path.
// The path only needs to be writable; the store itself lives in memory.
func NewMemoryRecordStore(path string) *MemoryRecordStore {
	return &MemoryRecordStore{path: path}
}

func (s *MemoryRecordStore) ReplaceRecords(tasks []model.Task, events []model.Event, attachments []model.AttachmentRef) (*restore.InsertReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Tasks = nil
	s.Events = nil
	s.Attachments = nil

	report := &restore.InsertReport{}
	taskIDs := map[string]bool{}
	for _, t := range tasks {
		if t.ID == "" || t.Title == "" {
			report.Skipped = append(report.Skipped, restore.SkippedRecord{Kind: "task", ID: t.ID, Reason: "missing id or title"})
			continue
		}
		s.Tasks = append(s.Tasks, t)
		taskIDs[t.ID] = true
		report.Inserted.Tasks++
	}
	for _, e := range events {
		if e.ID == "" || e.Title == "" || e.StartTime == "" {
			report.Skipped = append(report.Skipped, restore.SkippedRecord{Kind: "event", ID: e.ID, Reason: "missing id, title or start_time"})
			continue
		}
		s.Events = append(s.Events, e)
		report.Inserted.Events++
	}
	for _, a := range attachments {
		if a.ID == "" {
			report.Skipped = append(report.Skipped, restore.SkippedRecord{Kind: "attachment", ID: a.ID, Reason: "missing id"})
			continue
		}
		if !taskIDs[a.TaskID] {
			report.Skipped = append(report.Skipped, restore.SkippedRecord{Kind: "attachment", ID: a.ID, Reason: fmt.Sprintf("unknown task %q", a.TaskID)})
			continue
		}
		s.Attachments = append(s.Attachments, a)
		report.Inserted.Attachments++
	}

	if s.FailReplaceAfterCommit {
		return nil, errors.New("injected transaction failure")
	}
	return report, nil
}

func (s *MemoryRecordStore) ReadRecords() ([]model.Task, []model.Event, []model.AttachmentRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Task(nil), s.Tasks...),
		append([]model.Event(nil), s.Events...),
		append([]model.AttachmentRef(nil), s.Attachments...),
		nil
}

func (s *MemoryRecordStore) CountRecords() (model.RecordCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.RecordCounts{
		Tasks:       len(s.Tasks),
		Events:      len(s.Events),
		Attachments: len(s.Attachments),
	}, nil
}

func (s *MemoryRecordStore) BackupTo(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailBackup {
		return errors.New("injected backup failure")
	}
	data, err := json.Marshal(memoryStoreState{Tasks: s.Tasks, Events: s.Events, Attachments: s.Attachments})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *MemoryRecordStore) RestoreFrom(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var state memoryStoreState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	s.Tasks = state.Tasks
	s.Events = state.Events
	s.Attachments = state.Attachments
	return nil
}

func (s *MemoryRecordStore) Path() string { return s.path }
func (s *MemoryRecordStore) Close() error { return nil }

var _ restore.RecordStore = (*MemoryRecordStore)(nil)
