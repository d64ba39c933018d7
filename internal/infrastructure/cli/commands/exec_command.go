package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/wintool/internal/app"
	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/infrastructure/cli/helpers"
)

// execFlags are shared by `ps` and `cmd`.
type execFlags struct {
	timeout  time.Duration
	mutating bool
	readOnly bool
}

func (f *execFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Per-attempt timeout (default from config)")
	cmd.Flags().BoolVar(&f.mutating, "mutating", false, "Treat the command as mutating: always run, never cache")
	cmd.Flags().BoolVar(&f.readOnly, "read-only", false, "Treat the command as read-only so its result may be cached")
	cmd.MarkFlagsMutuallyExclusive("mutating", "read-only")
	// Everything after the first word belongs to the command, e.g. -Name.
	cmd.Flags().SetInterspersed(false)
}

func (f *execFlags) command(dialect domain.Dialect, body string) domain.Command {
	var c domain.Command
	switch {
	case f.mutating:
		c = domain.Mutation(dialect, body)
	case f.readOnly:
		c = domain.Query(dialect, body)
	default:
		c = domain.Infer(dialect, body)
	}
	return c.WithTimeout(f.timeout)
}

// NewPowerShellCommand creates the `ps` command
func NewPowerShellCommand(container *app.Container) *cobra.Command {
	var flags execFlags

	cmd := &cobra.Command{
		Use:     "ps <command...>",
		Aliases: []string{"powershell"},
		Short:   "Run a PowerShell command with fallback strategies",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypedCommand(cmd, container, flags.command(domain.DialectPowerShell, strings.Join(args, " ")))
		},
	}

	flags.register(cmd)
	return cmd
}

// NewCmdCommand creates the `cmd` command
func NewCmdCommand(container *app.Container) *cobra.Command {
	var flags execFlags

	cmd := &cobra.Command{
		Use:   "cmd <command...>",
		Short: "Run a command through cmd.exe",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypedCommand(cmd, container, flags.command(domain.DialectCmd, strings.Join(args, " ")))
		},
	}

	flags.register(cmd)
	return cmd
}

// NewElevateCommand creates the `elevate` command
func NewElevateCommand(container *app.Container) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "elevate <command...>",
		Short: "Run a PowerShell command elevated through a UAC prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Executor == nil {
				return errors.New(ErrExecutorUnavailable)
			}
			output, err := container.Executor.ExecuteElevatedCommand(cmd.Context(), strings.Join(args, " "), timeout)
			if errors.Is(err, domain.ErrElevationDeclined) {
				return fmt.Errorf("elevation declined at the UAC prompt: %w", err)
			}
			writeCommandOutput(cmd.OutOrStdout(), output)
			return err
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Timeout including the time spent at the UAC prompt")
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// runTypedCommand executes c and prints its output; failures are annotated
// with the expected-failure verdict on stderr.
func runTypedCommand(cmd *cobra.Command, container *app.Container, c domain.Command) error {
	if container.Executor == nil {
		return errors.New(ErrExecutorUnavailable)
	}

	stop := helpers.StartSpinner(cmd.ErrOrStderr())
	output, err := container.Executor.Run(cmd.Context(), c)
	stop()

	writeCommandOutput(cmd.OutOrStdout(), output)
	if err != nil {
		describeFailure(cmd.ErrOrStderr(), container, c, err)
	}
	return err
}

func describeFailure(out io.Writer, container *app.Container, c domain.Command, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	var execErr *domain.ExecError
	if errors.As(err, &execErr) && execErr.Kind == domain.ErrKindExit {
		fmt.Fprintf(out, "exit code: %d\n", execErr.ExitCode)
	}
	if container.Classifier == nil {
		return
	}
	if verdict := container.Classifier.Classify(c.Body, domain.DetailOf(err)); verdict.Expected {
		fmt.Fprintf(out, "expected failure (%s): %s\n", verdict.Category, verdict.Reason)
	}
}

func writeCommandOutput(out io.Writer, output string) {
	if output == "" {
		return
	}
	fmt.Fprintln(out, output)
}
