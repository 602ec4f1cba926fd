package restore

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"workos-go/internal/model"
)

// exportDocument is the current-format on-disk shape of backup.json.
type exportDocument struct {
	Format string        `json:"format"`
	Data   exportRecords `json:"data"`
}

type exportRecords struct {
	Tasks       []model.Task          `json:"tasks"`
	Events      []model.Event         `json:"events"`
	Documents   []model.Document      `json:"documents"`
	Attachments []model.AttachmentRef `json:"attachments"`
}

// Export writes a full backup archive to w: a current-format backup.json
// plus the live attachment directory under attachments/. The produced
// archive round-trips through Validate and Restore.
func (s *Service) Export(w io.Writer) (model.RecordCounts, error) {
	var counts model.RecordCounts

	tasks, events, attachments, err := s.records.ReadRecords()
	if err != nil {
		return counts, fmt.Errorf("reading records: %w", err)
	}
	documents, err := s.docs.ReadAll()
	if err != nil {
		return counts, fmt.Errorf("reading documents: %w", err)
	}

	doc := exportDocument{
		Format: FormatCurrent,
		Data: exportRecords{
			Tasks:       nonNil(tasks),
			Events:      nonNil(events),
			Documents:   nonNil(documents),
			Attachments: nonNil(attachments),
		},
	}
	docText, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return counts, fmt.Errorf("encoding backup document: %w", err)
	}

	zw := zip.NewWriter(w)

	entry, err := zw.Create(backupDocumentName)
	if err != nil {
		return counts, fmt.Errorf("creating backup.json entry: %w", err)
	}
	if _, err := entry.Write(docText); err != nil {
		return counts, fmt.Errorf("writing backup.json: %w", err)
	}

	if err := s.writeAttachmentEntries(zw); err != nil {
		return counts, err
	}

	if err := zw.Close(); err != nil {
		return counts, fmt.Errorf("finalizing archive: %w", err)
	}

	counts = model.RecordCounts{
		Tasks:       len(tasks),
		Events:      len(events),
		Documents:   len(documents),
		Attachments: len(attachments),
	}
	s.logger.Info("export complete",
		"tasks", counts.Tasks,
		"events", counts.Events,
		"documents", counts.Documents,
		"attachments", counts.Attachments)
	return counts, nil
}

// writeAttachmentEntries adds every regular file under the live attachment
// directory to the archive as attachments/<relative path>. A missing
// attachment directory simply produces an archive without the subtree.
func (s *Service) writeAttachmentEntries(zw *zip.Writer) error {
	if !s.fs.Exists(s.attachmentsDir) {
		return nil
	}

	return filepath.WalkDir(s.attachmentsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.attachmentsDir, p)
		if err != nil {
			return fmt.Errorf("calculating relative path: %w", err)
		}

		entry, err := zw.Create(attachmentsPrefix + filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("creating entry for %s: %w", rel, err)
		}
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("opening attachment %s: %w", rel, err)
		}
		defer f.Close()
		if _, err := io.Copy(entry, f); err != nil {
			return fmt.Errorf("writing attachment %s: %w", rel, err)
		}
		return nil
	})
}

// nonNil keeps empty collections as [] rather than null in the document.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
