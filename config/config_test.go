package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Detection.BatteryProfile != "full" {
		t.Errorf("expected profile full, got %q", cfg.Detection.BatteryProfile)
	}
	if cfg.Server.Port != "5000" {
		t.Errorf("expected port 5000, got %q", cfg.Server.Port)
	}
}

func TestLoadReadsYamlFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	body := `
server:
  port: "8080"
detection:
  battery_profile: reduced
  max_concurrent: 8
keystore:
  type: sqlite
  sqlite_path: /tmp/keys.db
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Detection.BatteryProfile != "reduced" {
		t.Errorf("expected profile reduced, got %q", cfg.Detection.BatteryProfile)
	}
	if cfg.Detection.MaxConcurrent != 8 {
		t.Errorf("expected max_concurrent 8, got %d", cfg.Detection.MaxConcurrent)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Detection.MFCCCount != 20 {
		t.Errorf("expected mfcc_count default 20, got %d", cfg.Detection.MFCCCount)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	body := `
detection:
  battery_profile: reduced
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	t.Setenv("BATTERY_PROFILE", "minimal")
	t.Setenv("MAX_CONCURRENT_DETECTIONS", "2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Detection.BatteryProfile != "minimal" {
		t.Errorf("environment should beat the file, got %q", cfg.Detection.BatteryProfile)
	}
	if cfg.Detection.MaxConcurrent != 2 {
		t.Errorf("expected max_concurrent 2 from env, got %d", cfg.Detection.MaxConcurrent)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad profile", "detection:\n  battery_profile: turbo\n"},
		{"zero workers", "detection:\n  max_concurrent: 0\n"},
		{"bad keystore", "keystore:\n  type: redis\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"https without certs", "server:\n  protocol: https\n"},
	}

	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "config.yml")
		if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
			t.Fatalf("%s: failed to write fixture: %v", tt.name, err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected a validation error", tt.name)
		}
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
