package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/doeshing/wintool/internal/domain"
)

func TestLoadWritesDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	loader := NewFileLoader(path)

	cfg, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.CacheTTL() != domain.DefaultCacheTTL || !cfg.Cache.Enabled {
		t.Fatalf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if cfg.PowerShellBinary() != "powershell.exe" || cfg.Drive() != "C:" {
		t.Fatalf("unexpected executor defaults: %+v", cfg.Executor)
	}
	if len(cfg.KnownAbsentServices()) != len(domain.DefaultKnownAbsentServices) {
		t.Fatalf("expected default known-absent list, got %v", cfg.Classifier.KnownAbsentServices)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default file to be written: %v", err)
	}
}

func TestLoadHydratesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "executor:\n  default_timeout: 5s\ncache:\n  enabled: false\nhistory:\n  path: ~/journal.db\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewFileLoader(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.CommandTimeout().String() != "5s" {
		t.Fatalf("expected 5s timeout, got %s", cfg.CommandTimeout())
	}
	if cfg.Cache.Enabled {
		t.Fatal("expected cache to stay disabled")
	}
	if cfg.Cache.TTL != "30s" || cfg.Executor.CmdPath != "cmd.exe" {
		t.Fatalf("expected hydrated defaults, got %+v %+v", cfg.Cache, cfg.Executor)
	}
	if strings.HasPrefix(cfg.History.Path, "~") || !filepath.IsAbs(cfg.History.Path) {
		t.Fatalf("expected expanded history path, got %s", cfg.History.Path)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("executor: [broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileLoader(path).Load(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	t.Setenv(EnvConfigPath, path)
	if got := NewFileLoader("").Path(); got != path {
		t.Fatalf("expected %s, got %s", path, got)
	}
}

func TestSaveBackupReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	loader := NewFileLoader(path)
	cfg := DefaultConfig()
	cfg.Executor.Drive = "D:"
	if err := loader.Save(cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	backup, err := loader.Backup()
	if err != nil {
		t.Fatalf("Backup error: %v", err)
	}
	data, err := os.ReadFile(backup)
	if err != nil || !strings.Contains(string(data), "D:") {
		t.Fatalf("backup missing saved value: %v %s", err, data)
	}

	reset, err := loader.Reset()
	if err != nil {
		t.Fatalf("Reset error: %v", err)
	}
	if reset.Drive() != "C:" {
		t.Fatalf("expected default drive after reset, got %s", reset.Drive())
	}
	loaded, err := loader.Load(context.Background())
	if err != nil || loaded.Drive() != "C:" {
		t.Fatalf("expected reset to persist, got %+v %v", loaded.Executor, err)
	}
}
