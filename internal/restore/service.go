package restore

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrRestoreBusy is returned when a restore attempt arrives while another
// one is in flight. Attempts are rejected, never queued.
var ErrRestoreBusy = errors.New("another restore is already in progress")

// safetySuffix terminates every timestamped safety-copy name, for both the
// record-store file and the attachment directory.
const safetySuffix = ".bak"

// scratchPrefix names scratch extraction directories under the scratch root.
const scratchPrefix = "restore-scratch-"

// Service is the backup/restore engine: it validates uploaded backup files
// and performs the staged, rollback-capable full replace of all persisted
// state. At most one restore runs per process; validation has no such
// restriction.
type Service struct {
	records RecordStore
	docs    DocumentStore
	fs      Filesystem
	logger  Logger
	clock   Clock
	idgen   IDGenerator

	attachmentsDir string
	scratchRoot    string

	restoreMu sync.Mutex
}

// NewService creates a Service with the provided dependencies.
// attachmentsDir is the live attachment directory; scratchRoot holds
// scratch extraction directories and must be on the same volume as
// attachmentsDir for the rename fast path to apply.
func NewService(records RecordStore, docs DocumentStore, fs Filesystem, logger Logger, clock Clock, idgen IDGenerator, attachmentsDir, scratchRoot string) *Service {
	return &Service{
		records:        records,
		docs:           docs,
		fs:             fs,
		logger:         logger,
		clock:          clock,
		idgen:          idgen,
		attachmentsDir: attachmentsDir,
		scratchRoot:    scratchRoot,
	}
}

// zipMagic is the two-byte prefix shared by every zip signature: the local
// file header, the empty-archive end-of-central-directory record, and the
// spanned-archive marker. Matching only the local-file-header signature would
// misclassify an empty archive as a bare document.
var zipMagic = []byte{'P', 'K'}

func looksLikeArchive(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// Validate classifies an uploaded backup file and reports its structure
// without mutating any state. It may run concurrently with itself or with
// an in-progress restore.
func (s *Service) Validate(data []byte) *ValidationResult {
	res := newValidationResult()

	docText, ok := s.validateInput(data, res)
	if !ok {
		return res
	}

	doc, errs := ParseBackupDocument(docText)
	if doc == nil {
		res.Errors = append(res.Errors, errs...)
		return res
	}

	res.Warnings = append(res.Warnings, doc.Warnings...)
	res.Format = doc.Format
	if res.Kind == "" {
		if doc.Format == FormatMetadata {
			res.Kind = KindMetadata
		} else {
			res.Kind = KindDocument
		}
	}
	counts := doc.Counts()
	res.Summary = &counts
	res.OK = true
	return res
}

// validateInput applies the upload ceiling and, for archives, the full
// structural scan. It returns the backup-document text and whether the
// caller should continue.
func (s *Service) validateInput(data []byte, res *ValidationResult) ([]byte, bool) {
	if int64(len(data)) > MaxUploadBytes {
		res.Errors = append(res.Errors, fmt.Sprintf("upload exceeds ceiling of %d bytes", int64(MaxUploadBytes)))
		return nil, false
	}

	if !looksLikeArchive(data) {
		return data, true
	}

	res.Kind = KindArchive
	scan := ScanArchive(data)
	res.Warnings = append(res.Warnings, scan.Warnings...)
	if !scan.OK {
		res.Errors = append(res.Errors, scan.Errors...)
		return nil, false
	}
	return scan.BackupDocument, true
}

// Restore performs the full-replace restore of all persisted state from an
// uploaded backup file. The stages run in strict order; any mutating-stage
// failure triggers the compensating actions for everything already done.
// The result is always fully populated, with Stage naming the failed stage.
func (s *Service) Restore(data []byte) *RestoreResult {
	res := newRestoreResult()

	if !s.restoreMu.TryLock() {
		res.Errors = append(res.Errors, ErrRestoreBusy.Error())
		return res
	}
	defer s.restoreMu.Unlock()

	s.logger.Info("restore started", "bytes", len(data))

	// Stage: validate. Read-only; no live state is touched until the
	// document and archive structure are fully accepted.
	res.Stage = StageValidate

	vres := newValidationResult()
	docText, ok := s.validateInput(data, vres)
	res.Warnings = append(res.Warnings, vres.Warnings...)
	if !ok {
		res.Kind = vres.Kind
		res.Errors = append(res.Errors, vres.Errors...)
		return res
	}

	doc, errs := ParseBackupDocument(docText)
	if doc == nil {
		res.Kind = vres.Kind
		res.Errors = append(res.Errors, errs...)
		return res
	}
	res.Warnings = append(res.Warnings, doc.Warnings...)
	res.Format = doc.Format
	res.Kind = vres.Kind
	if res.Kind == "" {
		res.Kind = KindDocument
	}
	if doc.Format == FormatMetadata {
		if res.Kind == KindDocument {
			res.Kind = KindMetadata
		}
		res.Errors = append(res.Errors, "metadata-only backups cannot be restored: no record or attachment content")
		return res
	}

	// Pre-extract the attachments subtree into a fresh scratch directory
	// before anything live is touched. The scratch directory is removed on
	// every exit path.
	var scratchAttachments string
	if res.Kind == KindArchive {
		scratch := filepath.Join(s.scratchRoot, scratchPrefix+s.idgen.New())
		defer s.fs.RemoveAll(scratch)

		staged, warnings, err := s.extractAttachments(data, scratch)
		res.Warnings = append(res.Warnings, warnings...)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("extracting attachments: %v", err))
			return res
		}
		if staged {
			scratchAttachments = filepath.Join(scratch, "attachments")
		}
	}

	// Stage: safety_backup. Nothing live has changed until the attachment
	// directory rename below, and that rename is itself the undo point.
	res.Stage = StageSafetyBackup

	var undo undoStack
	stamp := s.clock.Now().UTC().Format(timestampFormat)

	dbSafety := s.records.Path() + "." + stamp + safetySuffix
	if err := s.records.BackupTo(dbSafety); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("creating record-store safety copy: %v", err))
		return res
	}
	undo.push("restore record store from safety copy", func() error {
		return s.records.RestoreFrom(dbSafety)
	})

	attSafety := s.attachmentsDir + "." + stamp + safetySuffix
	attMoved := false
	if s.fs.Exists(s.attachmentsDir) {
		if err := s.fs.MoveDir(s.attachmentsDir, attSafety); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("moving attachment directory to safety location: %v", err))
			return res
		}
		attMoved = true
		undo.push("restore attachment directory from safety copy", func() error {
			if s.fs.Exists(s.attachmentsDir) {
				if err := s.fs.RemoveAll(s.attachmentsDir); err != nil {
					return err
				}
			}
			return s.fs.MoveDir(attSafety, s.attachmentsDir)
		})
	}

	// Stage: transaction. One transaction replaces every task, event and
	// attachment row. A transaction-level error arrives here already rolled
	// back; the file-level undo then restores the pre-restore bytes.
	res.Stage = StageTransaction

	report, err := s.records.ReplaceRecords(doc.Tasks, doc.Events, doc.Attachments)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("record-store transaction failed: %v", err))
		res.Errors = append(res.Errors, undo.run(s.logger)...)
		return res
	}
	for _, skip := range report.Skipped {
		res.Warnings = append(res.Warnings, fmt.Sprintf("skipped %s %s: %s", skip.Kind, skip.ID, skip.Reason))
	}
	restored := report.Inserted
	res.Restored = &restored

	// Stage: attachments. The transaction is durable now, so a failed swap
	// is compensated by restoring both the record-store file and the
	// attachment directory from their safety copies.
	res.Stage = StageAttachments

	if scratchAttachments != "" {
		if err := s.fs.MoveDir(scratchAttachments, s.attachmentsDir); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("swapping attachment directory into place: %v", err))
			res.Errors = append(res.Errors, undo.run(s.logger)...)
			return res
		}
	}

	// Stage: postcheck. Advisory only; the restore is committed.
	res.Stage = StagePostcheck

	counts, err := s.records.CountRecords()
	switch {
	case err != nil:
		res.Warnings = append(res.Warnings, fmt.Sprintf("post-restore count failed: %v", err))
	case counts.Tasks != restored.Tasks || counts.Events != restored.Events || counts.Attachments != restored.Attachments:
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"post-restore counts differ from inserted records: store has %d/%d/%d, inserted %d/%d/%d (tasks/events/attachments)",
			counts.Tasks, counts.Events, counts.Attachments, restored.Tasks, restored.Events, restored.Attachments))
	}

	// Stage: documents. The document store has its own exclusive scope;
	// a failure here leaves stale documents but the higher-value record
	// data is already committed, so it only warns.
	res.Stage = StageDocuments

	if err := s.docs.ReplaceAll(doc.Documents); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("document restore failed, documents may be stale: %v", err))
	} else {
		res.Restored.Documents = len(doc.Documents)
	}

	res.Stage = ""
	res.OK = true
	s.logger.Info("restore complete",
		"tasks", res.Restored.Tasks,
		"events", res.Restored.Events,
		"documents", res.Restored.Documents,
		"attachments", res.Restored.Attachments,
		"safety_stamp", stamp,
		"attachments_preserved", attMoved)
	return res
}

// extractAttachments streams every attachments/ entry of the archive into
// the scratch directory. Individual stream failures become warnings; losing
// one corrupt file is preferred over aborting the whole restore. Returns
// whether an attachments subtree was staged at all.
func (s *Service) extractAttachments(data []byte, scratch string) (bool, []string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false, nil, fmt.Errorf("reopening archive: %w", err)
	}

	var warnings []string
	staged := false
	for _, entry := range zr.File {
		name := normalizeEntryPath(entry.Name)
		if !strings.HasPrefix(name, attachmentsPrefix) || !IsPathSafe(name) {
			continue
		}

		dst := filepath.Join(scratch, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") || entry.FileInfo().IsDir() {
			if err := os.MkdirAll(dst, 0755); err != nil {
				return staged, warnings, fmt.Errorf("creating directory %s: %w", name, err)
			}
			staged = true
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return staged, warnings, fmt.Errorf("creating parent directory for %s: %w", name, err)
		}
		if err := extractEntry(entry, dst); err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped attachment %s: %v", name, err))
			continue
		}
		staged = true
	}
	return staged, warnings, nil
}

// extractEntry streams one archive entry to dst, bounded by the cumulative
// uncompressed ceiling so a lying entry header cannot bypass the scan limit.
func extractEntry(entry *zip.File, dst string) error {
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, io.LimitReader(rc, maxTotalUncompressed))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}
