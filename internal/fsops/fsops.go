// Package fsops is the real-filesystem implementation of the restore
// engine's Filesystem interface.
package fsops

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// OSFilesystem performs actual filesystem operations using the os package.
type OSFilesystem struct{}

func NewOSFilesystem() *OSFilesystem { return &OSFilesystem{} }

// Exists reports whether path exists at all.
func (*OSFilesystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CopyFile copies a regular file, creating parent directories. The copy is
// synced before close so a safety copy survives a crash right after it is
// taken.
func (*OSFilesystem) CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copying content: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("syncing destination: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing destination: %w", err)
	}

	if info, err := os.Stat(src); err == nil {
		os.Chmod(dst, info.Mode().Perm())
	}
	return nil
}

// MoveDir moves a directory tree. A rename is near-instant and atomic on
// same-volume filesystems; when it fails (typically cross-device) the tree
// is copied recursively and the source removed afterwards.
func (f *OSFilesystem) MoveDir(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := f.CopyDir(src, dst); err != nil {
		return fmt.Errorf("copy fallback: %w", err)
	}
	if err := os.RemoveAll(src); err != nil {
		return fmt.Errorf("removing source after copy: %w", err)
	}
	return nil
}

// CopyDir recursively copies a directory tree. Only directories and regular
// files are copied; anything else in the tree is an error.
func (f *OSFilesystem) CopyDir(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return fmt.Errorf("calculating relative path: %w", err)
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return fmt.Errorf("unsupported file type: %s", p)
		}
		return f.CopyFile(p, target)
	})
}

// RemoveAll removes path and everything below it.
func (*OSFilesystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}
