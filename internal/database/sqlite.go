package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"workos-go/internal/database/migrations"
	"workos-go/internal/model"
	"workos-go/internal/restore"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the restore.RecordStore interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens the record store at path.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB, path string) *SQLiteStore {
	return &SQLiteStore{db: db, path: path}
}

// OpenConnection opens and configures a SQLite connection with the PRAGMAs
// the store relies on. Exported for tools and tests that need a properly
// configured connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// CheckMigrations verifies the schema is at the latest version.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Migrate brings the schema up to the latest version.
func (s *SQLiteStore) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// ReplaceRecords deletes every task, event and attachment row and inserts
// the given records, all inside a single transaction. Deletes run
// children-first so referential order holds. SQLite cannot toggle foreign
// key enforcement mid-transaction, so enforcement stays on throughout;
// insert-time constraint violations surface per-record and are skipped
// rather than failing the transaction.
func (s *SQLiteStore) ReplaceRecords(tasks []model.Task, events []model.Event, attachments []model.AttachmentRef) (*restore.InsertReport, error) {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"attachments", "events", "tasks"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return nil, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	report := &restore.InsertReport{}
	s.insertTasks(ctx, tx, tasks, report)
	s.insertEvents(ctx, tx, events, report)
	s.insertAttachments(ctx, tx, attachments, report)

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return report, nil
}

func (s *SQLiteStore) insertTasks(ctx context.Context, tx *sql.Tx, tasks []model.Task, report *restore.InsertReport) {
	for _, t := range tasks {
		if t.ID == "" || t.Title == "" {
			report.Skipped = append(report.Skipped, restore.SkippedRecord{Kind: "task", ID: t.ID, Reason: "missing id or title"})
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, title, workspace, status, notes, due_date, scheduled_for, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Title, t.Workspace, t.Status, t.Notes, t.DueDate, t.ScheduledFor, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			report.Skipped = append(report.Skipped, restore.SkippedRecord{Kind: "task", ID: t.ID, Reason: err.Error()})
			continue
		}
		report.Inserted.Tasks++
	}
}

func (s *SQLiteStore) insertEvents(ctx context.Context, tx *sql.Tx, events []model.Event, report *restore.InsertReport) {
	for _, e := range events {
		if e.ID == "" || e.Title == "" || e.StartTime == "" {
			report.Skipped = append(report.Skipped, restore.SkippedRecord{Kind: "event", ID: e.ID, Reason: "missing id, title or start_time"})
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO events (id, title, start_time, end_time, all_day, kind, description)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Title, e.StartTime, e.EndTime, e.AllDay, e.Kind, e.Description)
		if err != nil {
			report.Skipped = append(report.Skipped, restore.SkippedRecord{Kind: "event", ID: e.ID, Reason: err.Error()})
			continue
		}
		report.Inserted.Events++
	}
}

func (s *SQLiteStore) insertAttachments(ctx context.Context, tx *sql.Tx, attachments []model.AttachmentRef, report *restore.InsertReport) {
	for _, a := range attachments {
		if a.ID == "" {
			report.Skipped = append(report.Skipped, restore.SkippedRecord{Kind: "attachment", ID: a.ID, Reason: "missing id"})
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO attachments (id, task_id, file_name, mime_type, size, storage_path)
			VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, a.TaskID, a.FileName, a.MimeType, a.Size, a.StoragePath)
		if err != nil {
			report.Skipped = append(report.Skipped, restore.SkippedRecord{Kind: "attachment", ID: a.ID, Reason: err.Error()})
			continue
		}
		report.Inserted.Attachments++
	}
}

// ReadRecords returns all current rows.
func (s *SQLiteStore) ReadRecords() ([]model.Task, []model.Event, []model.AttachmentRef, error) {
	ctx := context.Background()

	tasks, err := s.readTasks(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	events, err := s.readEvents(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	attachments, err := s.readAttachments(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return tasks, events, attachments, nil
}

func (s *SQLiteStore) readTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, workspace, status, notes, due_date, scheduled_for, created_at, updated_at
		FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Workspace, &t.Status, &t.Notes, &t.DueDate, &t.ScheduledFor, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *SQLiteStore) readEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, start_time, end_time, all_day, kind, description
		FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.StartTime, &e.EndTime, &e.AllDay, &e.Kind, &e.Description); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *SQLiteStore) readAttachments(ctx context.Context) ([]model.AttachmentRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, file_name, mime_type, size, storage_path
		FROM attachments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying attachments: %w", err)
	}
	defer rows.Close()

	var attachments []model.AttachmentRef
	for rows.Next() {
		var a model.AttachmentRef
		if err := rows.Scan(&a.ID, &a.TaskID, &a.FileName, &a.MimeType, &a.Size, &a.StoragePath); err != nil {
			return nil, fmt.Errorf("scanning attachment: %w", err)
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

// CountRecords returns current row counts. Documents are stored elsewhere
// and always count zero here.
func (s *SQLiteStore) CountRecords() (model.RecordCounts, error) {
	var counts model.RecordCounts
	for table, dst := range map[string]*int{
		"tasks":       &counts.Tasks,
		"events":      &counts.Events,
		"attachments": &counts.Attachments,
	} {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(dst); err != nil {
			return counts, fmt.Errorf("counting %s: %w", table, err)
		}
	}
	return counts, nil
}

// BackupTo writes a consistent copy of the store to the given file path
// using VACUUM INTO, which snapshots the database regardless of the
// connection pool's state.
func (s *SQLiteStore) BackupTo(path string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("backing up database to %s: %w", path, err)
	}
	return nil
}

// RestoreFrom replaces the store's content from a safety copy produced by
// BackupTo. The connection pool is closed before the file swap so no open
// connection keeps pages of the replaced database cached, then reopened.
func (s *SQLiteStore) RestoreFrom(path string) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database before restore: %w", err)
	}

	if err := copyFileContents(path, s.path); err != nil {
		return fmt.Errorf("restoring database from %s: %w", path, err)
	}

	db, err := OpenConnection(s.path)
	if err != nil {
		return fmt.Errorf("reopening database: %w", err)
	}
	s.db = db
	return nil
}

func copyFileContents(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Path returns the store's on-disk file path.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Compile-time check that SQLiteStore implements restore.RecordStore.
var _ restore.RecordStore = (*SQLiteStore)(nil)
