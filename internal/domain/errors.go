package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind discriminates execution failures.
type ErrorKind string

const (
	ErrKindSpawn             ErrorKind = "spawn"
	ErrKindExit              ErrorKind = "exit"
	ErrKindTimeout           ErrorKind = "timeout"
	ErrKindCanceled          ErrorKind = "canceled"
	ErrKindOutputLimit       ErrorKind = "output_limit"
	ErrKindElevationDeclined ErrorKind = "elevation_declined"
	ErrKindUnavailable       ErrorKind = "unavailable"
	ErrKindParse             ErrorKind = "parse"
)

// Sentinels matched through errors.Is against any ExecError of that kind.
var (
	ErrTimeout           = errors.New("command timed out")
	ErrOutputLimit       = errors.New("command output exceeded buffer limit")
	ErrElevationDeclined = errors.New("elevation was declined")
	ErrUnavailable       = errors.New("execution strategy unavailable")
)

// ExecError describes a failed command execution.
type ExecError struct {
	// Op is the failing operation, e.g. "PowerShell command".
	Op       string
	Strategy string
	Kind     ErrorKind
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(" failed")
	if e.Strategy != "" {
		fmt.Fprintf(&b, " [%s]", e.Strategy)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" && (e.Err == nil || !strings.Contains(e.Err.Error(), stderr)) {
		b.WriteString(": ")
		b.WriteString(stderr)
	}
	return b.String()
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTimeout) and friends work without string matching.
func (e *ExecError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == ErrKindTimeout
	case ErrOutputLimit:
		return e.Kind == ErrKindOutputLimit
	case ErrElevationDeclined:
		return e.Kind == ErrKindElevationDeclined
	case ErrUnavailable:
		return e.Kind == ErrKindUnavailable
	}
	return false
}

// KindOf returns the kind of the outermost ExecError in err, or "".
func KindOf(err error) ErrorKind {
	var execErr *ExecError
	if errors.As(err, &execErr) {
		return execErr.Kind
	}
	return ""
}

// DetailOf returns the error text plus any captured stderr, for classification.
func DetailOf(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	var execErr *ExecError
	if errors.As(err, &execErr) && execErr.Stderr != "" && !strings.Contains(msg, execErr.Stderr) {
		msg += "\n" + execErr.Stderr
	}
	return msg
}
