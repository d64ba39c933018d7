// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). The executor, the CLI and the doctor depend only on
// these abstractions, so tests can swap the OS process primitive, the journal or
// the registry for fakes.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., ProcessRunner, FailureClassifier)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"
	"time"

	"github.com/doeshing/wintool/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.wintool/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// ProcessSpec describes one child process.
type ProcessSpec struct {
	Name string
	Args []string
	// RawCommandLine passes Args to the OS verbatim instead of re-quoting
	// each argument. Needed for `cmd /s /c "..."` on Windows.
	RawCommandLine bool
	Timeout        time.Duration
	// MaxOutputBytes caps stdout and stderr individually; zero means no cap.
	MaxOutputBytes int
}

// ProcessResult is the buffered output of a finished process.
type ProcessResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// ProcessRunner is the OS process-spawning primitive. Failures are returned as
// *domain.ExecError; the result still carries whatever output was captured.
type ProcessRunner interface {
	Run(ctx context.Context, spec ProcessSpec) (ProcessResult, error)
}

// CommandExecutor runs typed commands through the strategy chain for their dialect.
type CommandExecutor interface {
	Run(ctx context.Context, cmd domain.Command) (string, error)
}

// SystemInfoProvider answers the structured queries built on the executor.
type SystemInfoProvider interface {
	GetWindowsServices(ctx context.Context) ([]domain.Service, error)
	GetDiskSpace(ctx context.Context, drive string) (domain.DiskSpace, error)
}

// FailureClassifier decides whether a failure is routine for the host.
type FailureClassifier interface {
	Classify(command, message string) domain.FailureClassification
}

// HistoryRepository persists the execution journal.
type HistoryRepository interface {
	Save(record domain.ExecutionRecord) error
	Records(limit int, search string) ([]domain.ExecutionRecord, error)
	Prune(before time.Time) (int64, error)
	Clear() error
	ExportJSON(dest string) error
	Path() string
}

// ToolProbe reports which interpreters are installed.
type ToolProbe interface {
	Available(name string) bool
	Tools() []domain.ToolStatus
}

// HostProbe reports facts about the running OS.
type HostProbe interface {
	Host(ctx context.Context) (domain.HostFacts, error)
}

// RegistryReader reads values from the Windows registry.
// Implementations return errors.ErrUnsupported on other platforms.
type RegistryReader interface {
	ReadString(key, name string) (string, error)
	ReadInteger(key, name string) (uint64, error)
}

// ExecutionMetrics receives executor telemetry.
type ExecutionMetrics interface {
	ObserveAttempt(dialect domain.Dialect, strategy string, outcome string, elapsed time.Duration)
	ObserveCache(hit bool)
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
