package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/doeshing/wintool/internal/domain"
)

func TestBuildContainerWiresExecutorAndJournal(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("WINTOOL_CONFIG", "")

	cfgPath := filepath.Join(home, "cfg", "config.yaml")
	c, err := BuildContainer(context.Background(), Options{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("BuildContainer error: %v", err)
	}
	defer c.Close()

	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("expected default config at %s: %v", cfgPath, err)
	}
	if c.Executor == nil || c.SysInfo == nil || c.DoctorService == nil {
		t.Fatalf("container missing services: %+v", c)
	}
	if c.HistoryStore == nil {
		t.Fatalf("history enabled by default but store is nil")
	}
	if got := c.Executor.CacheStats().TTL; got != domain.DefaultCacheTTL {
		t.Fatalf("cache ttl = %v, want %v", got, domain.DefaultCacheTTL)
	}
	if c.Classifier.Source() != "built-in" {
		t.Fatalf("classifier source = %q, want built-in", c.Classifier.Source())
	}
}

func TestBuildContainerHistoryDisabled(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	cfgPath := filepath.Join(home, "config.yaml")
	cfg := []byte("history:\n  enabled: false\ncache:\n  enabled: true\n  ttl: 5s\n")
	if err := os.WriteFile(cfgPath, cfg, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := BuildContainer(context.Background(), Options{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("BuildContainer error: %v", err)
	}
	if c.HistoryStore != nil {
		t.Fatalf("history store should be nil when disabled")
	}
	if c.DoctorService.History != nil {
		t.Fatalf("doctor should not see a journal when disabled")
	}
	if got := c.Executor.CacheStats().TTL.String(); got != "5s" {
		t.Fatalf("cache ttl = %s, want 5s", got)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	// Close is safe to repeat.
	if err := c.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
}
