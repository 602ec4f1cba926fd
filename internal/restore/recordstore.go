package restore

import "workos-go/internal/model"

// RecordStore is the structured record database holding tasks, events and
// attachment metadata. ReplaceRecords must be a single transaction: on a
// transaction-level error nothing is changed and the error is returned;
// per-record insert failures are captured in the report instead, never as
// an error.
type RecordStore interface {
	// ReplaceRecords deletes all existing task, event and attachment rows
	// and inserts the given records, all inside one transaction. Rows are
	// deleted children-first. A record that fails its individual insert is
	// skipped and reported; it does not fail the transaction.
	ReplaceRecords(tasks []model.Task, events []model.Event, attachments []model.AttachmentRef) (*InsertReport, error)

	// ReadRecords returns all current rows, for export.
	ReadRecords() ([]model.Task, []model.Event, []model.AttachmentRef, error)

	// CountRecords returns current row counts. The Documents count is
	// always zero; documents live in the document store.
	CountRecords() (model.RecordCounts, error)

	// BackupTo writes a consistent copy of the store to the given file path.
	BackupTo(path string) error

	// RestoreFrom replaces the store's content from a safety copy produced
	// by BackupTo. Implementations must leave the store usable afterwards
	// (reopening connections if needed).
	RestoreFrom(path string) error

	// Path returns the store's on-disk file path.
	Path() string

	Close() error
}

// InsertReport is the typed accumulator for a ReplaceRecords call: how many
// rows of each kind were actually inserted, and one entry per skipped
// record. Expected-possible rejections (constraint violations, missing
// required fields) land here rather than in an error.
type InsertReport struct {
	Inserted model.RecordCounts
	Skipped  []SkippedRecord
}

// SkippedRecord identifies one record that was not inserted and why.
type SkippedRecord struct {
	Kind   string // "task", "event" or "attachment"
	ID     string
	Reason string
}

// DocumentStore is the file-based text-document store. ReplaceAll runs
// under the store's own exclusive scope, separate from the record store's
// transaction.
type DocumentStore interface {
	// ReplaceAll removes every stored document and writes the given set.
	ReplaceAll(docs []model.Document) error

	// ReadAll returns all stored documents, for export.
	ReadAll() ([]model.Document, error)
}
