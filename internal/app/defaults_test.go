package app_test

import (
	"path/filepath"
	"testing"

	"workos-go/internal/app"
)

func TestGetDefaults(t *testing.T) {
	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("WORKOS_CONFIG_PATH", "/etc/workos/workos.toml")
		t.Setenv("WORKOS_HOME", "/srv/workos")

		defaults, err := app.GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults: %v", err)
		}
		if defaults["config_path"] != "/etc/workos/workos.toml" {
			t.Errorf("config_path = %q", defaults["config_path"])
		}
		if defaults["base_dir"] != "/srv/workos" {
			t.Errorf("base_dir = %q", defaults["base_dir"])
		}
		if defaults["log_dir"] != filepath.Join("/srv/workos", "log") {
			t.Errorf("log_dir = %q", defaults["log_dir"])
		}
	})

	t.Run("home fallback", func(t *testing.T) {
		t.Setenv("WORKOS_CONFIG_PATH", "")
		t.Setenv("WORKOS_HOME", "")
		t.Setenv("HOME", "/home/ava")

		defaults, err := app.GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults: %v", err)
		}
		if defaults["config_path"] != filepath.Join("/home/ava", ".config", "workos.toml") {
			t.Errorf("config_path = %q", defaults["config_path"])
		}
		if defaults["base_dir"] != filepath.Join("/home/ava", ".local", "share", "workos") {
			t.Errorf("base_dir = %q", defaults["base_dir"])
		}
	})
}
