package restore_test

import (
	"strings"
	"testing"

	"workos-go/internal/restore"
)

func TestParseBackupDocument(t *testing.T) {
	t.Parallel()

	t.Run("current format", func(t *testing.T) {
		t.Parallel()
		doc, errs := restore.ParseBackupDocument([]byte(`{
			"data": {
				"tasks": [{"id": "t1", "title": "Write report", "workspace": "avaone"}],
				"events": [{"id": "e1", "title": "Standup", "start_time": "2024-01-15T09:00:00Z"}],
				"documents": [{"id": "d1", "title": "Notes", "content_md": "# Notes"}],
				"attachments": [{"id": "a1", "task_id": "t1", "file_name": "r.pdf", "storage_path": "r.pdf"}]
			}
		}`))
		if errs != nil {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if doc.Format != restore.FormatCurrent {
			t.Errorf("Format = %q, want %q", doc.Format, restore.FormatCurrent)
		}
		counts := doc.Counts()
		if counts.Tasks != 1 || counts.Events != 1 || counts.Documents != 1 || counts.Attachments != 1 {
			t.Errorf("counts = %+v, want 1/1/1/1", counts)
		}
	})

	t.Run("legacy format has no events", func(t *testing.T) {
		t.Parallel()
		doc, errs := restore.ParseBackupDocument([]byte(`{
			"tasks": [{"id": "t1", "title": "Old task"}],
			"documents": [{"id": "d1", "title": "Old doc", "content_md": "x"}],
			"attachments": []
		}`))
		if errs != nil {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if doc.Format != restore.FormatLegacy {
			t.Errorf("Format = %q, want %q", doc.Format, restore.FormatLegacy)
		}
		if len(doc.Events) != 0 {
			t.Errorf("Events = %d, want 0", len(doc.Events))
		}
	})

	t.Run("metadata-only with numeric summary fields", func(t *testing.T) {
		t.Parallel()
		doc, errs := restore.ParseBackupDocument([]byte(`{"exported_at": "2024-01-15", "tasks": 12, "documents": 3}`))
		if errs != nil {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if doc.Format != restore.FormatMetadata {
			t.Errorf("Format = %q, want %q", doc.Format, restore.FormatMetadata)
		}
		if doc.Summary.Tasks != 12 || doc.Summary.Documents != 3 {
			t.Errorf("Summary = %+v, want tasks=12 documents=3", doc.Summary)
		}
	})

	t.Run("metadata-only with summary object", func(t *testing.T) {
		t.Parallel()
		doc, errs := restore.ParseBackupDocument([]byte(`{"summary": {"tasks": 5, "documents": 2}}`))
		if errs != nil {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if doc.Format != restore.FormatMetadata {
			t.Errorf("Format = %q, want %q", doc.Format, restore.FormatMetadata)
		}
		if doc.Summary.Tasks != 5 {
			t.Errorf("Summary.Tasks = %d, want 5", doc.Summary.Tasks)
		}
	})

	t.Run("metadata-only is tried before legacy", func(t *testing.T) {
		t.Parallel()
		// Numeric tasks field must classify as metadata even though a
		// documents key is present.
		doc, errs := restore.ParseBackupDocument([]byte(`{"tasks": 4, "documents": 1}`))
		if errs != nil {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if doc.Format != restore.FormatMetadata {
			t.Errorf("Format = %q, want %q", doc.Format, restore.FormatMetadata)
		}
	})

	t.Run("task without title is skipped with a warning", func(t *testing.T) {
		t.Parallel()
		doc, errs := restore.ParseBackupDocument([]byte(`{
			"data": {
				"tasks": [
					{"id": "t1", "title": "Good"},
					{"id": "t2"}
				],
				"events": []
			}
		}`))
		if errs != nil {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if len(doc.Tasks) != 1 {
			t.Fatalf("Tasks = %d, want 1", len(doc.Tasks))
		}
		if len(doc.Warnings) != 1 || !strings.Contains(doc.Warnings[0], "missing id or title") {
			t.Errorf("Warnings = %v, want one missing-field warning", doc.Warnings)
		}
	})

	t.Run("event without start_time is skipped", func(t *testing.T) {
		t.Parallel()
		doc, errs := restore.ParseBackupDocument([]byte(`{
			"data": {
				"tasks": [],
				"events": [{"id": "e1", "title": "No time"}]
			}
		}`))
		if errs != nil {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if len(doc.Events) != 0 {
			t.Errorf("Events = %d, want 0", len(doc.Events))
		}
		if len(doc.Warnings) != 1 {
			t.Errorf("Warnings = %v, want one warning", doc.Warnings)
		}
	})

	t.Run("malformed record element is skipped, not fatal", func(t *testing.T) {
		t.Parallel()
		doc, errs := restore.ParseBackupDocument([]byte(`{
			"data": {
				"tasks": [{"id": "t1", "title": "Good"}, 42],
				"events": []
			}
		}`))
		if errs != nil {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if len(doc.Tasks) != 1 {
			t.Errorf("Tasks = %d, want 1", len(doc.Tasks))
		}
		if len(doc.Warnings) != 1 || !strings.Contains(doc.Warnings[0], "malformed task") {
			t.Errorf("Warnings = %v, want malformed-task warning", doc.Warnings)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		t.Parallel()
		doc, errs := restore.ParseBackupDocument([]byte(`{not json`))
		if doc != nil {
			t.Fatal("got document for invalid JSON")
		}
		if len(errs) != 1 || !strings.Contains(errs[0], "not valid JSON") {
			t.Errorf("errs = %v, want one not-valid-JSON error", errs)
		}
	})

	t.Run("unrecognized shape", func(t *testing.T) {
		t.Parallel()
		doc, errs := restore.ParseBackupDocument([]byte(`{"something": "else"}`))
		if doc != nil {
			t.Fatal("got document for unrecognized shape")
		}
		if len(errs) != 1 || !strings.Contains(errs[0], "unrecognized") {
			t.Errorf("errs = %v, want unrecognized-format error", errs)
		}
	})
}
