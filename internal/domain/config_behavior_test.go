package domain_test

import (
	"testing"
	"time"

	"github.com/doeshing/wintool/internal/domain"
)

// TestConfig_CommandTimeout tests parsing of executor.default_timeout
func TestConfig_CommandTimeout(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{name: "empty falls back to default", raw: "", want: domain.DefaultCommandTimeout},
		{name: "valid duration", raw: "45s", want: 45 * time.Second},
		{name: "garbage falls back", raw: "soon", want: domain.DefaultCommandTimeout},
		{name: "negative falls back", raw: "-5s", want: domain.DefaultCommandTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := domain.Config{Executor: domain.ExecutorSettings{DefaultTimeout: tt.raw}}
			if got := cfg.CommandTimeout(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

// TestConfig_CacheTTL tests parsing of cache.ttl
func TestConfig_CacheTTL(t *testing.T) {
	cfg := domain.Config{}
	if got := cfg.CacheTTL(); got != 30*time.Second {
		t.Fatalf("default ttl = %s, want 30s", got)
	}
	cfg.Cache.TTL = "2m"
	if got := cfg.CacheTTL(); got != 2*time.Minute {
		t.Fatalf("ttl = %s, want 2m", got)
	}
}

// TestConfig_Binaries tests executable fallbacks
func TestConfig_Binaries(t *testing.T) {
	cfg := domain.Config{}
	if cfg.PowerShellBinary() != "powershell.exe" {
		t.Errorf("unexpected powershell binary %q", cfg.PowerShellBinary())
	}
	if cfg.CmdBinary() != "cmd.exe" {
		t.Errorf("unexpected cmd binary %q", cfg.CmdBinary())
	}
	cfg.Executor.PowerShellPath = "pwsh.exe"
	if cfg.PowerShellBinary() != "pwsh.exe" {
		t.Errorf("override ignored, got %q", cfg.PowerShellBinary())
	}
	if cfg.Drive() != "C:" {
		t.Errorf("unexpected default drive %q", cfg.Drive())
	}
	if cfg.OutputLimit() != 10*1024*1024 {
		t.Errorf("unexpected output limit %d", cfg.OutputLimit())
	}
}

// TestConfig_KnownAbsentServices tests the default list fallback
func TestConfig_KnownAbsentServices(t *testing.T) {
	cfg := domain.Config{}
	if len(cfg.KnownAbsentServices()) != len(domain.DefaultKnownAbsentServices) {
		t.Fatalf("expected defaults, got %v", cfg.KnownAbsentServices())
	}
	cfg.Classifier.KnownAbsentServices = []string{"Spooler"}
	got := cfg.KnownAbsentServices()
	if len(got) != 1 || got[0] != "Spooler" {
		t.Fatalf("expected override, got %v", got)
	}
}

// TestConfig_HistoryRetention tests day to duration conversion
func TestConfig_HistoryRetention(t *testing.T) {
	cfg := domain.Config{History: domain.HistorySettings{RetentionDays: 2}}
	if got := cfg.HistoryRetention(); got != 48*time.Hour {
		t.Fatalf("got %s, want 48h", got)
	}
	cfg.History.RetentionDays = 0
	if got := cfg.HistoryRetention(); got != 0 {
		t.Fatalf("got %s, want 0", got)
	}
}
