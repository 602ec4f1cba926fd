package testutil

import (
	"archive/zip"
	"bytes"
	"testing"
)

// BuildArchive builds a zip archive in memory from entry name to content.
// Entries are written in the iteration order of names for deterministic
// structure, so pass names in the order the test cares about.
func BuildArchive(t *testing.T, names []string, contents map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating entry %s: %v", name, err)
		}
		if _, err := w.Write(contents[name]); err != nil {
			t.Fatalf("writing entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	return buf.Bytes()
}
