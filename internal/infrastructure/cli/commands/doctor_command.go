package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/wintool/internal/app"
	"github.com/doeshing/wintool/internal/domain"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(container *app.Container) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose interpreters, WMIC support, rules and the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if refresh && container.ToolProbe != nil {
				container.ToolProbe.Refresh()
			}
			return runDoctorDiagnostics(cmd, cmd.OutOrStdout(), container)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-probe interpreters instead of using cached lookups")
	return cmd
}

// runDoctorDiagnostics runs environment diagnostics
func runDoctorDiagnostics(cmd *cobra.Command, out io.Writer, container *app.Container) error {
	if container.DoctorService == nil {
		return errors.New(ErrDoctorServiceUnavailable)
	}

	ctx := cmd.Context()
	report, err := container.DoctorService.Run(ctx)

	// Display report even if there were errors
	displayDoctorReport(out, report)

	if err != nil {
		return fmt.Errorf("diagnostics completed with errors: %w", err)
	}
	if failed := countFailedChecks(report); failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}

	return nil
}

// displayDoctorReport displays the health check report
func displayDoctorReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%s] %s - %s\n",
			strings.ToUpper(string(check.Status)),
			check.Name,
			check.Details)
	}
}

func countFailedChecks(report domain.HealthReport) int {
	failed := 0
	for _, check := range report.Checks {
		if check.Status == domain.HealthError {
			failed++
		}
	}
	return failed
}
