package commands

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/doeshing/wintool/internal/app"
	configinfra "github.com/doeshing/wintool/internal/infrastructure/config"
)

func newConfigContainer(t *testing.T) *app.Container {
	t.Helper()
	loader := configinfra.NewFileLoader(filepath.Join(t.TempDir(), "config.yaml"))
	return &app.Container{ConfigProvider: loader, ConfigLoader: loader}
}

func TestConfigSetGetDiff(t *testing.T) {
	container := newConfigContainer(t)

	out, _, err := execute(t, NewConfigCommand(container), "diff")
	if err != nil {
		t.Fatalf("diff error: %v", err)
	}
	if strings.TrimSpace(out) != MsgNoDifferencesFromDefault {
		t.Fatalf("fresh config should match defaults: %q", out)
	}

	if _, _, err := execute(t, NewConfigCommand(container), "set", "executor.default_timeout", "45s"); err != nil {
		t.Fatalf("set error: %v", err)
	}

	out, _, err = execute(t, NewConfigCommand(container), "get", "executor.default_timeout")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if strings.TrimSpace(out) != "45s" {
		t.Fatalf("get = %q", out)
	}

	out, _, err = execute(t, NewConfigCommand(container), "diff")
	if err != nil {
		t.Fatalf("diff error: %v", err)
	}
	if !strings.Contains(out, "45s") {
		t.Fatalf("diff should mention the new timeout: %q", out)
	}
}

func TestConfigSetRejectsInvalidValue(t *testing.T) {
	container := newConfigContainer(t)

	if _, _, err := execute(t, NewConfigCommand(container), "set", "cache.ttl", "soon"); err == nil {
		t.Fatalf("expected validation error for cache.ttl")
	}
	out, _, err := execute(t, NewConfigCommand(container), "validate")
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if strings.TrimSpace(out) != MsgConfigurationValid {
		t.Fatalf("validate = %q", out)
	}
}

func TestConfigGetUnknownKey(t *testing.T) {
	container := newConfigContainer(t)
	if _, _, err := execute(t, NewConfigCommand(container), "get", "executor.nope"); err == nil {
		t.Fatalf("expected missing key error")
	}
}
