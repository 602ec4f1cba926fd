package restore

// Filesystem abstracts the handful of file and directory operations the
// engine performs outside the record store, so failure paths (rename races,
// cross-device moves) can be exercised in tests.
type Filesystem interface {
	// Exists reports whether path exists at all.
	Exists(path string) bool

	// CopyFile copies a regular file, creating parent directories.
	CopyFile(src, dst string) error

	// MoveDir moves a directory tree, preferring a rename and falling back
	// to recursive copy plus delete when rename fails (e.g. cross-device).
	MoveDir(src, dst string) error

	// CopyDir recursively copies a directory tree.
	CopyDir(src, dst string) error

	// RemoveAll removes path and everything below it.
	RemoveAll(path string) error
}
