package restore

import "strings"

// backupDocumentName is the one structured entry every archive must carry,
// exactly once, at the archive root.
const backupDocumentName = "backup.json"

// attachmentsPrefix is the only subtree an archive may carry besides the
// backup document.
const attachmentsPrefix = "attachments/"

// IsPathSafe reports whether an archive entry path is free of traversal
// tricks: no absolute paths, no drive-letter prefixes, no ".." segments,
// no NUL bytes. Paths are expected with forward slashes; callers normalize
// separators before calling. Pure, no I/O.
func IsPathSafe(path string) bool {
	if path == "" {
		return false
	}
	if strings.ContainsRune(path, 0) {
		return false
	}
	if strings.HasPrefix(path, "/") {
		return false
	}
	if hasDrivePrefix(path) {
		return false
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}

// hasDrivePrefix reports whether path starts with a Windows drive letter,
// e.g. "C:\evil" or "c:/evil". Archives built on Windows hosts can carry
// these even when the extractor runs elsewhere.
func hasDrivePrefix(path string) bool {
	if len(path) < 2 || path[1] != ':' {
		return false
	}
	c := path[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsAllowedEntry reports whether an archive entry path is on the allow-list:
// exactly backup.json at the root, or anything under attachments/ (the bare
// "attachments/" directory entry included). Everything else is rejected; the
// allow-list is the primary defense against zip-slip and smuggled content.
func IsAllowedEntry(path string) bool {
	if path == backupDocumentName {
		return true
	}
	if path == strings.TrimSuffix(attachmentsPrefix, "/") {
		return true
	}
	return strings.HasPrefix(path, attachmentsPrefix)
}
