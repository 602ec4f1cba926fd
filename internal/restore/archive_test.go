package restore_test

import (
	"strings"
	"testing"

	"workos-go/internal/restore"
	"workos-go/internal/testutil"
)

var minimalDocument = []byte(`{"data":{"tasks":[],"events":[],"documents":[],"attachments":[]}}`)

func hasErrorContaining(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestScanArchive(t *testing.T) {
	t.Parallel()

	t.Run("valid archive with attachments", func(t *testing.T) {
		t.Parallel()
		data := testutil.BuildArchive(t,
			[]string{"backup.json", "attachments/a.txt", "attachments/sub/b.txt"},
			map[string][]byte{
				"backup.json":           minimalDocument,
				"attachments/a.txt":     []byte("alpha"),
				"attachments/sub/b.txt": []byte("beta"),
			})

		scan := restore.ScanArchive(data)
		if !scan.OK {
			t.Fatalf("scan not OK, errors: %v", scan.Errors)
		}
		if scan.EntryCount != 3 {
			t.Errorf("EntryCount = %d, want 3", scan.EntryCount)
		}
		if string(scan.BackupDocument) != string(minimalDocument) {
			t.Errorf("BackupDocument = %q, want %q", scan.BackupDocument, minimalDocument)
		}
		if scan.BackupDocumentSize != int64(len(minimalDocument)) {
			t.Errorf("BackupDocumentSize = %d, want %d", scan.BackupDocumentSize, len(minimalDocument))
		}
	})

	t.Run("missing backup.json is fatal", func(t *testing.T) {
		t.Parallel()
		data := testutil.BuildArchive(t,
			[]string{"attachments/a.txt"},
			map[string][]byte{"attachments/a.txt": []byte("alpha")})

		scan := restore.ScanArchive(data)
		if scan.OK {
			t.Fatal("scan OK, want failure")
		}
		if !hasErrorContaining(scan.Errors, "missing required entry") {
			t.Errorf("errors = %v, want missing-entry error", scan.Errors)
		}
	})

	t.Run("duplicate backup.json is fatal", func(t *testing.T) {
		t.Parallel()
		data := testutil.BuildArchive(t,
			[]string{"backup.json", "backup.json"},
			map[string][]byte{"backup.json": minimalDocument})

		scan := restore.ScanArchive(data)
		if scan.OK {
			t.Fatal("scan OK, want failure")
		}
		if !hasErrorContaining(scan.Errors, "duplicate") {
			t.Errorf("errors = %v, want duplicate error", scan.Errors)
		}
	})

	t.Run("traversal and disallowed entries are all reported in one pass", func(t *testing.T) {
		t.Parallel()
		data := testutil.BuildArchive(t,
			[]string{"backup.json", "../escape.txt", "/abs.txt", "scripts/run.sh"},
			map[string][]byte{
				"backup.json":    minimalDocument,
				"../escape.txt":  []byte("x"),
				"/abs.txt":       []byte("x"),
				"scripts/run.sh": []byte("x"),
			})

		scan := restore.ScanArchive(data)
		if scan.OK {
			t.Fatal("scan OK, want failure")
		}
		if !hasErrorContaining(scan.Errors, "unsafe entry path") {
			t.Errorf("errors = %v, want unsafe-path error", scan.Errors)
		}
		if !hasErrorContaining(scan.Errors, "outside allowed layout") {
			t.Errorf("errors = %v, want allow-list error", scan.Errors)
		}
		if len(scan.Errors) != 3 {
			t.Errorf("got %d errors, want 3 (one per bad entry): %v", len(scan.Errors), scan.Errors)
		}
	})

	t.Run("backslash separators are normalized", func(t *testing.T) {
		t.Parallel()
		data := testutil.BuildArchive(t,
			[]string{"backup.json", `attachments\win.txt`},
			map[string][]byte{
				"backup.json":         minimalDocument,
				`attachments\win.txt`: []byte("w"),
			})

		scan := restore.ScanArchive(data)
		if !scan.OK {
			t.Fatalf("scan not OK, errors: %v", scan.Errors)
		}
	})

	t.Run("not a zip archive", func(t *testing.T) {
		t.Parallel()
		scan := restore.ScanArchive([]byte("PK\x03\x04 not really a zip"))
		if scan.OK {
			t.Fatal("scan OK, want failure")
		}
		if !hasErrorContaining(scan.Errors, "not a readable zip archive") {
			t.Errorf("errors = %v, want unreadable-archive error", scan.Errors)
		}
	})

	t.Run("scanning twice yields the same result", func(t *testing.T) {
		t.Parallel()
		data := testutil.BuildArchive(t,
			[]string{"backup.json", "attachments/a.txt"},
			map[string][]byte{
				"backup.json":       minimalDocument,
				"attachments/a.txt": []byte("alpha"),
			})

		first := restore.ScanArchive(data)
		second := restore.ScanArchive(data)
		if first.OK != second.OK || first.EntryCount != second.EntryCount {
			t.Errorf("scans differ: %+v vs %+v", first, second)
		}
		if len(first.Errors) != len(second.Errors) || len(first.Warnings) != len(second.Warnings) {
			t.Errorf("scan error/warning lists differ")
		}
	})
}
