package domain

import (
	"strings"
	"time"
)

// CommandTimeout parses executor.default_timeout, falling back to 30s.
func (c *Config) CommandTimeout() time.Duration {
	return parseDurationOr(c.Executor.DefaultTimeout, DefaultCommandTimeout)
}

// CacheTTL parses cache.ttl, falling back to 30s.
func (c *Config) CacheTTL() time.Duration {
	return parseDurationOr(c.Cache.TTL, DefaultCacheTTL)
}

// OutputLimit returns the per-stream buffer ceiling in bytes.
func (c *Config) OutputLimit() int {
	if c.Executor.MaxOutputBytes <= 0 {
		return DefaultMaxOutputBytes
	}
	return c.Executor.MaxOutputBytes
}

// PowerShellBinary returns the configured PowerShell executable.
func (c *Config) PowerShellBinary() string {
	if strings.TrimSpace(c.Executor.PowerShellPath) == "" {
		return DefaultPowerShellPath
	}
	return c.Executor.PowerShellPath
}

// CmdBinary returns the configured command interpreter.
func (c *Config) CmdBinary() string {
	if strings.TrimSpace(c.Executor.CmdPath) == "" {
		return DefaultCmdPath
	}
	return c.Executor.CmdPath
}

// Drive returns the drive queried by `disk` when none is given.
func (c *Config) Drive() string {
	if strings.TrimSpace(c.Executor.Drive) == "" {
		return DefaultDrive
	}
	return c.Executor.Drive
}

// KnownAbsentServices returns the configured list or the built-in defaults.
func (c *Config) KnownAbsentServices() []string {
	if len(c.Classifier.KnownAbsentServices) == 0 {
		return DefaultKnownAbsentServices
	}
	return c.Classifier.KnownAbsentServices
}

// HistoryRetention converts retention days to a duration; zero keeps everything.
func (c *Config) HistoryRetention() time.Duration {
	if c.History.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.History.RetentionDays) * 24 * time.Hour
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
