// Package config loads and persists ~/.wintool/config.yaml.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/wintool/assets"
	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/pkg/filesystem"
	"github.com/doeshing/wintool/internal/ports"
)

// EnvConfigPath overrides the config location.
const EnvConfigPath = "WINTOOL_CONFIG"

// FileLoader loads YAML configuration from ~/.wintool/config.yaml (overridable via WINTOOL_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader; an empty path uses the default resolution.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider. A missing file is created with the
// defaults.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, fmt.Errorf("ensure config dir: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := writeConfig(path, cfg); err != nil {
				return domain.Config{}, err
			}
			return cfg, nil
		}
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	return hydrateDefaults(cfg), nil
}

// Path returns the resolved config file path.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

// Save writes the given config back to disk.
func (l *FileLoader) Save(cfg domain.Config) error {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return err
	}
	return writeConfig(path, cfg)
}

// Reset overwrites the config with defaults and returns the default snapshot.
func (l *FileLoader) Reset() (domain.Config, error) {
	cfg := DefaultConfig()
	if err := l.Save(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Backup copies the current config file to a timestamped backup.
func (l *FileLoader) Backup() (string, error) {
	path := l.resolvePath()
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	backup := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102T150405"))
	if err := os.WriteFile(backup, data, domain.SecureFilePermissions); err != nil {
		return "", err
	}
	return backup, nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.UserHomeDir(), ".wintool", "config.yaml")
}

// DefaultConfig returns the embedded defaults.
func DefaultConfig() domain.Config {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		// Embedded YAML is compiled in; keep a usable config if it is ever broken.
		cfg = domain.Config{
			ConfigFormatVersion: "1",
			Cache:               domain.CacheSettings{Enabled: true},
			History:             domain.HistorySettings{Enabled: true, RetentionDays: domain.DefaultHistoryRetainDays},
		}
	}
	return hydrateDefaults(cfg)
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Executor.PowerShellPath == "" {
		cfg.Executor.PowerShellPath = domain.DefaultPowerShellPath
	}
	if cfg.Executor.CmdPath == "" {
		cfg.Executor.CmdPath = domain.DefaultCmdPath
	}
	if cfg.Executor.DefaultTimeout == "" {
		cfg.Executor.DefaultTimeout = domain.DefaultCommandTimeout.String()
	}
	if cfg.Executor.MaxOutputBytes == 0 {
		cfg.Executor.MaxOutputBytes = domain.DefaultMaxOutputBytes
	}
	if cfg.Executor.Drive == "" {
		cfg.Executor.Drive = domain.DefaultDrive
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = domain.DefaultCacheTTL.String()
	}
	if cfg.Classifier.KnownAbsentServices == nil {
		cfg.Classifier.KnownAbsentServices = append([]string(nil), domain.DefaultKnownAbsentServices...)
	}
	if cfg.History.Path != "" {
		cfg.History.Path = expandPath(cfg.History.Path)
	}
	if cfg.Classifier.RulesFile != "" {
		cfg.Classifier.RulesFile = expandPath(cfg.Classifier.RulesFile)
	}
	return cfg
}

func ensureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
}

func writeConfig(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
