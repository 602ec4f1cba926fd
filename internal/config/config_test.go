package config_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"workos-go/internal/config"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig("/srv/workos")
	if cfg.Database.Path != filepath.Join("/srv/workos", "data", "workos.db") {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Attachments.Dir != filepath.Join("/srv/workos", "data", "attachments") {
		t.Errorf("Attachments.Dir = %q", cfg.Attachments.Dir)
	}
	if cfg.Restore.ScratchDir != filepath.Join("/srv/workos", "data", "tmp") {
		t.Errorf("Restore.ScratchDir = %q", cfg.Restore.ScratchDir)
	}
	if cfg.Restore.DocsDir != filepath.Join("/srv/workos", "data", "docs") {
		t.Errorf("Restore.DocsDir = %q", cfg.Restore.DocsDir)
	}
	if cfg.LogDir != filepath.Join("/srv/workos", "log") {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
}

func TestManagerRoundTrip(t *testing.T) {
	t.Parallel()

	m := &config.Manager{}
	cfg := config.NewConfig("/srv/workos")

	var buf bytes.Buffer
	if err := m.Write(&buf, cfg); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if *got != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestManagerReadInvalid(t *testing.T) {
	t.Parallel()

	m := &config.Manager{}
	if _, err := m.Read(strings.NewReader("not = [valid")); err == nil {
		t.Error("read of invalid TOML succeeded")
	}
}

func TestInit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "workos.toml")
	cfg := config.NewConfig(filepath.Join(dir, "data"))

	if err := config.Init(path, cfg); err != nil {
		t.Fatalf("init: %v", err)
	}

	got, err := config.ReadFromFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if got.Database.Path != cfg.Database.Path {
		t.Errorf("Database.Path = %q, want %q", got.Database.Path, cfg.Database.Path)
	}

	// A second init must not clobber the existing file.
	if err := config.Init(path, cfg); err == nil {
		t.Error("init over existing config succeeded")
	}
}

func TestReadFromFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := config.ReadFromFile(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("read of missing file succeeded")
	}
}
