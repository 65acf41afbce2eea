package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsSnapshotStrategyIsAuto(t *testing.T) {
	cfg := Defaults()
	if cfg.Snapshot.Strategy != "auto" {
		t.Fatalf("expected default strategy auto, got %q", cfg.Snapshot.Strategy)
	}
	if cfg.Budget.DefaultLimit <= 0 {
		t.Fatalf("expected a positive default budget, got %d", cfg.Budget.DefaultLimit)
	}
}

func TestLoadOverlaysYAMLOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("snapshot:\n  strategy: git\n  max_snapshots: 5\nbudget:\n  default_limit: 3\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Snapshot.Strategy != "git" {
		t.Fatalf("expected strategy git, got %q", cfg.Snapshot.Strategy)
	}
	if cfg.Snapshot.MaxSnapshots != 5 {
		t.Fatalf("expected max_snapshots 5, got %d", cfg.Snapshot.MaxSnapshots)
	}
	if cfg.Budget.DefaultLimit != 3 {
		t.Fatalf("expected default_limit 3, got %d", cfg.Budget.DefaultLimit)
	}
	// untouched fields retain their default value.
	if cfg.Models.Variants[LevelFast].Provider != "anthropic" {
		t.Fatalf("expected fast model provider to retain default, got %q", cfg.Models.Variants[LevelFast].Provider)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Snapshot.MaxSnapshots != Defaults().Snapshot.MaxSnapshots {
		t.Fatalf("expected defaults to be returned unchanged")
	}
}
