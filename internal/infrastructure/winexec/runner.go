package winexec

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/ports"
)

// waitDelay bounds how long Wait blocks on pipes held open by grandchildren
// after the direct child has been killed.
const waitDelay = 2 * time.Second

// OSRunner spawns real processes on the host.
type OSRunner struct{}

// NewOSRunner builds the default process runner.
func NewOSRunner() *OSRunner {
	return &OSRunner{}
}

// Run implements ports.ProcessRunner.
func (r *OSRunner) Run(ctx context.Context, spec ports.ProcessSpec) (ports.ProcessResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if spec.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, spec.Timeout)
		defer cancelTimeout()
	}

	c := exec.CommandContext(runCtx, spec.Name, spec.Args...)
	if spec.RawCommandLine {
		setRawCommandLine(c, spec.Name, spec.Args)
	}
	hideWindow(c)
	c.WaitDelay = waitDelay

	var overflowOnce sync.Once
	overflow := func() { overflowOnce.Do(cancel) }
	stdout := newCappedBuffer(spec.MaxOutputBytes, overflow)
	stderr := newCappedBuffer(spec.MaxOutputBytes, overflow)
	c.Stdout = stdout
	c.Stderr = stderr

	start := time.Now()
	err := c.Run()
	result := ports.ProcessResult{
		Stdout:   decodeOutput(stdout.Bytes()),
		Stderr:   decodeOutput(stderr.Bytes()),
		Duration: time.Since(start),
	}
	if err == nil {
		return result, nil
	}

	execErr := &domain.ExecError{
		Op:     filepath.Base(spec.Name),
		Stderr: result.Stderr,
		Err:    err,
	}
	var exitErr *exec.ExitError
	switch {
	case stdout.Overflowed() || stderr.Overflowed():
		execErr.Kind = domain.ErrKindOutputLimit
		execErr.Err = fmt.Errorf("output exceeded %d bytes", spec.MaxOutputBytes)
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		execErr.Kind = domain.ErrKindTimeout
		execErr.Err = fmt.Errorf("timed out after %s", spec.Timeout)
		if ctx.Err() != nil {
			execErr.Err = ctx.Err()
		}
	case ctx.Err() != nil:
		execErr.Kind = domain.ErrKindCanceled
		execErr.Err = ctx.Err()
	case errors.As(err, &exitErr):
		execErr.Kind = domain.ErrKindExit
		execErr.ExitCode = exitErr.ExitCode()
		result.ExitCode = execErr.ExitCode
	default:
		execErr.Kind = domain.ErrKindSpawn
	}
	return result, execErr
}

var _ ports.ProcessRunner = (*OSRunner)(nil)
