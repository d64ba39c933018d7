// Package winexec runs PowerShell, CMD and WMIC commands on Windows hosts.
//
// The Executor tries an ordered list of strategies per dialect, caches the
// output of read-only commands for a short TTL, and consults a classifier so
// that routine failures (an absent optional service, a missing registry key)
// stay out of warning-level logs. Structured queries built on top of it live
// in services.go and disk.go.
package winexec

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/pkg/logger"
	"github.com/doeshing/wintool/internal/ports"
)

// Strategy names, as they appear in errors, logs, metrics and the journal.
const (
	StrategyDirect     = "direct"
	StrategyCmdWrapper = "cmd-wrapper"
	StrategyCmdShell   = "cmd"
	StrategyCache      = "cache"
)

// Options configures an Executor. Only Runner is required.
type Options struct {
	Runner     ports.ProcessRunner
	Classifier ports.FailureClassifier
	Probe      ports.ToolProbe
	History    ports.HistoryRepository
	Metrics    ports.ExecutionMetrics
	Logger     ports.Logger
	// Disk serves the native disk strategy; nil disables it.
	Disk DiskUsageFunc

	PowerShellPath    string
	CmdPath           string
	DefaultTimeout    time.Duration
	MaxOutputBytes    int
	CacheTTL          time.Duration
	DisableCache      bool
	UseEncodedCommand bool
	// Now replaces time.Now for cache expiry in tests.
	Now func() time.Time
}

// Executor is safe for concurrent use. Identical concurrent calls are not
// merged: each spawns its own process and the last one to finish owns the
// cache entry.
type Executor struct {
	runner     ports.ProcessRunner
	classifier ports.FailureClassifier
	probe      ports.ToolProbe
	history    ports.HistoryRepository
	metrics    ports.ExecutionMetrics
	logger     ports.Logger
	disk       DiskUsageFunc

	powershell     string
	cmd            string
	timeout        time.Duration
	maxOutput      int
	cacheEnabled   bool
	encodedCommand bool

	cache *ResultCache

	mu      sync.Mutex
	pending map[uint64]context.CancelFunc
	nextID  uint64
}

// New builds an Executor, filling unset options with the package defaults.
func New(opts Options) *Executor {
	e := &Executor{
		runner:         opts.Runner,
		classifier:     opts.Classifier,
		probe:          opts.Probe,
		history:        opts.History,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		disk:           opts.Disk,
		powershell:     opts.PowerShellPath,
		cmd:            opts.CmdPath,
		timeout:        opts.DefaultTimeout,
		maxOutput:      opts.MaxOutputBytes,
		cacheEnabled:   !opts.DisableCache,
		encodedCommand: opts.UseEncodedCommand,
		pending:        make(map[uint64]context.CancelFunc),
	}
	if e.runner == nil {
		e.runner = NewOSRunner()
	}
	if e.logger == nil {
		e.logger = logger.Discard()
	}
	if e.powershell == "" {
		e.powershell = domain.DefaultPowerShellPath
	}
	if e.cmd == "" {
		e.cmd = domain.DefaultCmdPath
	}
	if e.timeout <= 0 {
		e.timeout = domain.DefaultCommandTimeout
	}
	if e.maxOutput <= 0 {
		e.maxOutput = domain.DefaultMaxOutputBytes
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = domain.DefaultCacheTTL
	}
	e.cache = NewResultCache(ttl)
	if opts.Now != nil {
		e.cache.now = opts.Now
	}
	return e
}

// ExecutePowerShellCommand runs a PowerShell command. Whether the result may
// be cached is inferred from the command text. A zero timeout means the
// executor default.
func (e *Executor) ExecutePowerShellCommand(ctx context.Context, command string, timeout time.Duration) (string, error) {
	return e.Run(ctx, domain.Infer(domain.DialectPowerShell, command).WithTimeout(timeout))
}

// ExecuteCmdCommand runs a command line through cmd.exe.
func (e *Executor) ExecuteCmdCommand(ctx context.Context, command string, timeout time.Duration) (string, error) {
	return e.Run(ctx, domain.Infer(domain.DialectCmd, command).WithTimeout(timeout))
}

// ExecuteElevatedCommand runs a PowerShell command in an elevated child via
// Start-Process -Verb RunAs. The UAC prompt blocks until answered, so the
// caller's timeout should be generous. Elevated commands are never cached.
func (e *Executor) ExecuteElevatedCommand(ctx context.Context, command string, timeout time.Duration) (string, error) {
	wrapped, err := elevationScript(e.powershell, command)
	if err != nil {
		return "", err
	}
	out, err := e.Run(ctx, domain.Mutation(domain.DialectPowerShell, wrapped).WithTimeout(timeout))
	if err != nil && isElevationDeclined(err) {
		return "", &domain.ExecError{
			Op:   "Elevated command",
			Kind: domain.ErrKindElevationDeclined,
			Err:  errors.Join(domain.ErrElevationDeclined, err),
		}
	}
	return out, err
}

// Run executes a typed command through the strategy chain of its dialect.
func (e *Executor) Run(ctx context.Context, cmd domain.Command) (string, error) {
	op := cmd.Dialect.Label() + " command"
	if strings.TrimSpace(cmd.Body) == "" {
		return "", &domain.ExecError{Op: op, Kind: domain.ErrKindSpawn, Err: errors.New("empty command")}
	}
	if cmd.Timeout <= 0 {
		cmd.Timeout = e.timeout
	}

	cacheable := e.cacheEnabled && cmd.Cacheable()
	key := CacheKey(string(cmd.Dialect), cmd.Body)
	gen := e.cache.Generation()
	if cacheable {
		entry, ok := e.cache.Get(key)
		e.observeCache(ok)
		if ok {
			e.logger.Debug("cache hit", map[string]interface{}{"dialect": cmd.Dialect, "command": cmd.Body})
			return entry.Result, nil
		}
	}

	ctx, done := e.track(ctx)
	defer done()

	var attempts []attempt[string]
	switch cmd.Dialect {
	case domain.DialectPowerShell:
		attempts = e.powerShellAttempts(cmd)
	case domain.DialectCmd, domain.DialectWMIC:
		attempts = e.cmdAttempts(cmd)
	default:
		return "", &domain.ExecError{Op: op, Kind: domain.ErrKindSpawn, Err: fmt.Errorf("unknown dialect %q", cmd.Dialect)}
	}

	start := time.Now()
	res := runChain(ctx, e.available, attempts, e.observer(cmd))
	err := res.asError(op)
	e.journal(cmd, res.strategy, err, time.Since(start))
	if err != nil {
		return "", err
	}
	if cacheable {
		entry := domain.CacheEntry{Key: key, Dialect: cmd.Dialect, Command: cmd.Body, Result: res.value}
		if !e.cache.SetIfCurrent(entry, gen) {
			e.logger.Debug("result finished after cleanup, not cached", map[string]interface{}{"dialect": cmd.Dialect, "command": cmd.Body})
		}
	}
	return res.value, nil
}

// Cleanup empties the cache and cancels commands still running. It may be
// called any number of times.
func (e *Executor) Cleanup() {
	e.cache.Clear()
	e.mu.Lock()
	pending := e.pending
	e.pending = make(map[uint64]context.CancelFunc)
	e.mu.Unlock()
	for _, cancel := range pending {
		cancel()
	}
}

// CacheStats reports the result cache counters.
func (e *Executor) CacheStats() domain.CacheStats {
	return e.cache.Stats()
}

// CachedEntries lists live cache entries, oldest first.
func (e *Executor) CachedEntries() []domain.CacheEntry {
	return e.cache.Entries()
}

// Pending reports how many operations are in flight. A structured query
// counts once for itself and once for each command it is running.
func (e *Executor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

func (e *Executor) powerShellAttempts(cmd domain.Command) []attempt[string] {
	return []attempt[string]{
		{
			name: StrategyDirect,
			tool: e.powershell,
			run: func(ctx context.Context) (string, error) {
				args, err := e.powerShellArgs(cmd.Body)
				if err != nil {
					return "", err
				}
				return e.spawn(ctx, cmd, StrategyDirect, ports.ProcessSpec{Name: e.powershell, Args: args})
			},
		},
		{
			name: StrategyCmdWrapper,
			tool: e.cmd,
			run: func(ctx context.Context) (string, error) {
				line, err := e.wrappedPowerShellLine(cmd.Body)
				if err != nil {
					return "", err
				}
				return e.spawn(ctx, cmd, StrategyCmdWrapper, ports.ProcessSpec{
					Name:           e.cmd,
					Args:           []string{"/d", "/s", "/c", `"` + line + `"`},
					RawCommandLine: true,
				})
			},
		},
	}
}

func (e *Executor) cmdAttempts(cmd domain.Command) []attempt[string] {
	return []attempt[string]{{
		name: StrategyCmdShell,
		tool: e.cmd,
		run: func(ctx context.Context) (string, error) {
			return e.spawn(ctx, cmd, StrategyCmdShell, ports.ProcessSpec{
				Name:           e.cmd,
				Args:           []string{"/d", "/s", "/c", `"` + cmd.Body + `"`},
				RawCommandLine: true,
			})
		},
	}}
}

// powerShellArgs builds argv for the direct strategy.
func (e *Executor) powerShellArgs(body string) ([]string, error) {
	args := []string{"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass"}
	if e.encodedCommand {
		encoded, err := EncodePowerShell(body)
		if err != nil {
			return nil, err
		}
		return append(args, "-EncodedCommand", encoded), nil
	}
	return append(args, "-Command", body), nil
}

// wrappedPowerShellLine renders the PowerShell invocation as one cmd.exe line.
// The body always travels as -EncodedCommand: base64 has no characters that
// cmd.exe treats as quotes or operators.
func (e *Executor) wrappedPowerShellLine(body string) (string, error) {
	encoded, err := EncodePowerShell(body)
	if err != nil {
		return "", err
	}
	return e.powershell + " -NoProfile -NonInteractive -ExecutionPolicy Bypass -EncodedCommand " + encoded, nil
}

// spawn runs one process for a strategy and reports stderr noise on success.
func (e *Executor) spawn(ctx context.Context, cmd domain.Command, strategy string, spec ports.ProcessSpec) (string, error) {
	spec.Timeout = cmd.Timeout
	spec.MaxOutputBytes = e.maxOutput
	result, err := e.runner.Run(ctx, spec)
	if err != nil {
		var execErr *domain.ExecError
		if errors.As(err, &execErr) {
			execErr.Strategy = strategy
			return "", execErr
		}
		return "", &domain.ExecError{Op: spec.Name, Strategy: strategy, Kind: domain.ErrKindSpawn, Stderr: result.Stderr, Err: err}
	}
	if stderr := strings.TrimSpace(result.Stderr); stderr != "" {
		fields := map[string]interface{}{"dialect": cmd.Dialect, "strategy": strategy, "command": cmd.Body, "stderr": stderr}
		if e.expected(cmd.Body, stderr).Expected {
			e.logger.Debug("command wrote to stderr", fields)
		} else {
			e.logger.Warn("command wrote to stderr", fields)
		}
	}
	return strings.TrimSpace(result.Stdout), nil
}

func (e *Executor) observer(cmd domain.Command) attemptObserver {
	return func(name string, err error, elapsed time.Duration, remaining int) {
		outcome := "success"
		if err != nil {
			outcome = string(domain.KindOf(err))
			if outcome == "" {
				outcome = "error"
			}
			fields := map[string]interface{}{
				"dialect":   cmd.Dialect,
				"strategy":  name,
				"command":   cmd.Body,
				"remaining": remaining,
				"error":     err.Error(),
			}
			if e.expected(cmd.Body, domain.DetailOf(err)).Expected {
				e.logger.Debug("strategy failed", fields)
			} else {
				e.logger.Warn("strategy failed", fields)
			}
		}
		if e.metrics != nil {
			e.metrics.ObserveAttempt(cmd.Dialect, name, outcome, elapsed)
		}
	}
}

func (e *Executor) observeCache(hit bool) {
	if e.metrics != nil {
		e.metrics.ObserveCache(hit)
	}
}

func (e *Executor) expected(command, message string) domain.FailureClassification {
	if e.classifier == nil {
		return domain.FailureClassification{}
	}
	return e.classifier.Classify(command, message)
}

func (e *Executor) available(tool string) bool {
	if e.probe == nil {
		return true
	}
	return e.probe.Available(tool)
}

// track registers a cancelable child context so Cleanup can stop it.
func (e *Executor) track(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.pending[id] = cancel
	e.mu.Unlock()
	return ctx, func() {
		e.mu.Lock()
		delete(e.pending, id)
		e.mu.Unlock()
		cancel()
	}
}

func (e *Executor) journal(cmd domain.Command, strategy string, err error, elapsed time.Duration) {
	if e.history == nil {
		return
	}
	record := domain.ExecutionRecord{
		Timestamp:       time.Now(),
		Dialect:         cmd.Dialect,
		Kind:            cmd.Kind.String(),
		Command:         cmd.Body,
		Strategy:        strategy,
		Success:         err == nil,
		ExecutionTimeMS: elapsed.Milliseconds(),
	}
	if err != nil {
		record.Error = err.Error()
		record.ErrorKind = domain.KindOf(err)
		var execErr *domain.ExecError
		if errors.As(err, &execErr) {
			record.ExitCode = execErr.ExitCode
		}
		record.ExpectedFailure = e.expected(cmd.Body, domain.DetailOf(err)).Expected
	}
	if saveErr := e.history.Save(record); saveErr != nil {
		e.logger.Warn("failed to save execution record", map[string]interface{}{"error": saveErr.Error()})
	}
}

// elevationScript wraps command so it runs in an elevated PowerShell and the
// child's exit code is propagated.
func elevationScript(powershell, command string) (string, error) {
	encoded, err := EncodePowerShell(command)
	if err != nil {
		return "", err
	}
	args := strings.Join([]string{
		quotePowerShellLiteral("-NoProfile"),
		quotePowerShellLiteral("-NonInteractive"),
		quotePowerShellLiteral("-ExecutionPolicy"),
		quotePowerShellLiteral("Bypass"),
		quotePowerShellLiteral("-EncodedCommand"),
		quotePowerShellLiteral(encoded),
	}, ",")
	return fmt.Sprintf(
		"$p = Start-Process -FilePath %s -Verb RunAs -Wait -PassThru -WindowStyle Hidden -ArgumentList %s; exit $p.ExitCode",
		quotePowerShellLiteral(powershell), args,
	), nil
}

// isElevationDeclined spots the UAC refusal (ERROR_CANCELLED, 1223).
func isElevationDeclined(err error) bool {
	detail := strings.ToLower(domain.DetailOf(err))
	return strings.Contains(detail, "canceled by the user") || strings.Contains(detail, "cancelled by the user")
}

var (
	_ ports.CommandExecutor    = (*Executor)(nil)
	_ ports.SystemInfoProvider = (*Executor)(nil)
)
