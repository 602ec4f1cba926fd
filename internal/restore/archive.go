package restore

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Fixed resource ceilings for archive scanning. An uploaded archive is
// attacker-controlled input; each limit defends against one exhaustion
// vector (entry flooding, decompression bombs, an oversized document that
// must be held in memory).
const (
	MaxUploadBytes       = 200 << 20
	maxArchiveEntries    = 10000
	maxTotalUncompressed = 1 << 30
	documentWarnBytes    = 10 << 20
	documentMaxBytes     = 50 << 20
)

// ArchiveScan is the outcome of a structural pass over a candidate archive.
// OK is true iff Errors is empty; warnings never block acceptance. The scan
// never extracts attachment content; only the backup document is retained.
type ArchiveScan struct {
	OK                 bool
	Errors             []string
	Warnings           []string
	EntryCount         int
	TotalUncompressed  int64
	BackupDocument     []byte
	BackupDocumentSize int64
}

// ScanArchive walks every entry of a zip archive, applying path-safety,
// allow-list and resource-limit checks, and extracts the embedded backup
// document. Unsafe or disallowed entries are recorded and skipped rather
// than aborting, so one pass yields the complete error list; only the
// cumulative-size ceiling stops the scan early.
func ScanArchive(data []byte) *ArchiveScan {
	scan := &ArchiveScan{}

	if int64(len(data)) > MaxUploadBytes {
		scan.addError(fmt.Sprintf("archive exceeds upload ceiling of %d bytes", int64(MaxUploadBytes)))
		return scan.finish()
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		scan.addError(fmt.Sprintf("not a readable zip archive: %v", err))
		return scan.finish()
	}

	if len(zr.File) > maxArchiveEntries {
		scan.addError(fmt.Sprintf("archive has %d entries, limit is %d", len(zr.File), maxArchiveEntries))
		return scan.finish()
	}

	documentSeen := false
	for _, entry := range zr.File {
		scan.EntryCount++
		name := normalizeEntryPath(entry.Name)

		if !IsPathSafe(name) {
			scan.addError(fmt.Sprintf("unsafe entry path: %q", entry.Name))
			continue
		}
		if !IsAllowedEntry(name) {
			scan.addError(fmt.Sprintf("entry outside allowed layout: %q", entry.Name))
			continue
		}

		scan.TotalUncompressed += int64(entry.UncompressedSize64)
		if scan.TotalUncompressed > maxTotalUncompressed {
			scan.addError(fmt.Sprintf("archive uncompressed size exceeds %d bytes", int64(maxTotalUncompressed)))
			return scan.finish()
		}

		if name != backupDocumentName {
			continue
		}

		if documentSeen {
			scan.addError("duplicate backup.json entry")
			continue
		}
		documentSeen = true

		size := int64(entry.UncompressedSize64)
		scan.BackupDocumentSize = size
		if size > documentMaxBytes {
			scan.addError(fmt.Sprintf("backup.json is %d bytes, limit is %d", size, int64(documentMaxBytes)))
			continue
		}
		if size > documentWarnBytes {
			scan.addWarning(fmt.Sprintf("backup.json is unusually large (%d bytes)", size))
		}

		text, err := readEntry(entry, documentMaxBytes)
		if err != nil {
			scan.addError(fmt.Sprintf("reading backup.json: %v", err))
			continue
		}
		scan.BackupDocument = text
	}

	if !documentSeen {
		scan.addError("archive is missing required entry backup.json")
	}

	return scan.finish()
}

// normalizeEntryPath converts separators to forward slashes and strips a
// leading "./" so allow-list matching sees canonical paths. It deliberately
// does not clean ".." segments; those must fail the safety check as-is.
func normalizeEntryPath(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.TrimPrefix(name, "./")
	return name
}

// readEntry decompresses a single entry, refusing to read more than limit
// bytes regardless of the declared size. The declared size can lie; the
// limit on actual bytes read is what defends against a bomb here.
func readEntry(entry *zip.File, limit int64) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if n > limit {
		return nil, fmt.Errorf("entry larger than declared, limit is %d bytes", limit)
	}
	return buf.Bytes(), nil
}

func (s *ArchiveScan) addError(msg string)   { s.Errors = append(s.Errors, msg) }
func (s *ArchiveScan) addWarning(msg string) { s.Warnings = append(s.Warnings, msg) }

// finish settles OK from the error list.
func (s *ArchiveScan) finish() *ArchiveScan {
	s.OK = len(s.Errors) == 0
	return s
}
