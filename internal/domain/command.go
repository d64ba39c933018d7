// Package domain defines core entities and value objects for WinTool.
//
// This file holds the typed command descriptor the executor runs. Call sites
// choose the dialect and whether a command only reads state; the executor no
// longer has to guess intent from the text, although InferKind keeps the old
// heuristic for string-based entry points.
package domain

import (
	"regexp"
	"strings"
	"time"
)

// Dialect names the command interpreter a command is written for.
type Dialect string

const (
	DialectPowerShell Dialect = "powershell"
	DialectCmd        Dialect = "cmd"
	DialectWMIC       Dialect = "wmic"
)

// Label is the human facing dialect name used in error messages.
func (d Dialect) Label() string {
	switch d {
	case DialectPowerShell:
		return "PowerShell"
	case DialectCmd:
		return "CMD"
	case DialectWMIC:
		return "WMIC"
	default:
		return string(d)
	}
}

// OperationKind tells the executor whether a command may be cached.
type OperationKind int

const (
	// Mutating commands always run and are never cached.
	Mutating OperationKind = iota
	// ReadOnly commands have no side effects; their output may be cached.
	ReadOnly
)

func (k OperationKind) String() string {
	if k == ReadOnly {
		return "read-only"
	}
	return "mutating"
}

// Command is a single invocation request.
type Command struct {
	Dialect Dialect
	Kind    OperationKind
	Body    string
	// Timeout bounds each strategy attempt. Zero means the executor default.
	Timeout time.Duration
}

// Query builds a read-only command.
func Query(dialect Dialect, body string) Command {
	return Command{Dialect: dialect, Kind: ReadOnly, Body: body}
}

// Mutation builds a command that must always execute.
func Mutation(dialect Dialect, body string) Command {
	return Command{Dialect: dialect, Kind: Mutating, Body: body}
}

// WithTimeout returns a copy of c with the per-attempt timeout set.
func (c Command) WithTimeout(d time.Duration) Command {
	c.Timeout = d
	return c
}

// Cacheable reports whether the command's output may be served from cache.
func (c Command) Cacheable() bool {
	return c.Kind == ReadOnly
}

// readOnlyPatterns is tested in order against the trimmed command text.
var readOnlyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Get-`),
	regexp.MustCompile(`(?i)^wmic \w+ get`),
	regexp.MustCompile(`(?i)^dir`),
	regexp.MustCompile(`(?i)^type`),
	regexp.MustCompile(`(?i)^ls`),
	regexp.MustCompile(`(?i)^cat`),
}

// InferKind classifies raw command text. A Get-Something with side effects
// is still reported as ReadOnly; callers that know better should build the
// Command themselves.
func InferKind(body string) OperationKind {
	trimmed := strings.TrimSpace(body)
	for _, re := range readOnlyPatterns {
		if re.MatchString(trimmed) {
			return ReadOnly
		}
	}
	return Mutating
}

// Infer builds a Command whose kind comes from InferKind.
func Infer(dialect Dialect, body string) Command {
	return Command{Dialect: dialect, Kind: InferKind(body), Body: body}
}
