package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"workos-go/internal/config"
	"workos-go/internal/database"
	"workos-go/internal/docstore"
	"workos-go/internal/fsops"
	"workos-go/internal/model"
	"workos-go/internal/restore"
)

// App is the application layer between the CLI and the restore engine.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw file paths, and manages the DB lifecycle on Close.
type App struct {
	cfg     *config.Config
	store   *database.SQLiteStore
	docs    *docstore.FileDocumentStore
	service *restore.Service
	logFile *os.File
}

// New creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Restore", "Housekeep").
// The caller must call Close when done.
func New(cfg *config.Config, operation string) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.Restore.ScratchDir, 0755); err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}

	store, err := database.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening record store: %w", err)
	}

	if err := store.CheckMigrations(); err != nil {
		store.Close()
		return nil, fmt.Errorf("record-store schema out of date: %w", err)
	}

	docs, err := docstore.NewFileDocumentStore(cfg.Restore.DocsDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("opening document store: %w", err)
	}

	opID := operation + "-" + time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := restore.NewService(
		store,
		docs,
		fsops.NewOSFilesystem(),
		&slogAdapter{l: logger},
		restore.RealClock{},
		restore.UUIDGenerator{},
		cfg.Attachments.Dir,
		cfg.Restore.ScratchDir,
	)

	return &App{
		cfg:     cfg,
		store:   store,
		docs:    docs,
		service: svc,
		logFile: logFile,
	}, nil
}

// ValidateFile validates an uploaded backup file without mutating anything.
func (a *App) ValidateFile(path string) (*restore.ValidationResult, error) {
	data, err := readUpload(path)
	if err != nil {
		return nil, err
	}
	return a.service.Validate(data), nil
}

// RestoreFile performs the full-replace restore from the given backup file.
func (a *App) RestoreFile(path string) (*restore.RestoreResult, error) {
	data, err := readUpload(path)
	if err != nil {
		return nil, err
	}
	return a.service.Restore(data), nil
}

// ExportTo writes a full backup archive to the given path.
func (a *App) ExportTo(path string) (model.RecordCounts, error) {
	var counts model.RecordCounts

	f, err := os.Create(path)
	if err != nil {
		return counts, fmt.Errorf("creating archive file: %w", err)
	}

	counts, err = a.service.Export(f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return counts, fmt.Errorf("exporting backup: %w", err)
	}
	return counts, nil
}

// Housekeep reclaims old safety copies and stale scratch directories.
func (a *App) Housekeep() (*restore.HousekeepReport, error) {
	return a.service.Housekeep()
}

// Close closes all resources.
func (a *App) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing record store: %w", err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}

// readUpload reads a backup file, enforcing the upload ceiling before any
// parsing happens.
func readUpload(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat upload: %w", err)
	}
	if info.Size() > restore.MaxUploadBytes {
		return nil, fmt.Errorf("upload is %d bytes, ceiling is %d", info.Size(), int64(restore.MaxUploadBytes))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	return data, nil
}
