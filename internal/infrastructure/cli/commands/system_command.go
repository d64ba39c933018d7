package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/doeshing/wintool/internal/app"
	"github.com/doeshing/wintool/internal/application/sysinfo"
	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/infrastructure/cli/helpers"
)

// NewServicesCommand creates the services command
func NewServicesCommand(container *app.Container) *cobra.Command {
	var (
		format string
		status string
		name   string
	)

	cmd := &cobra.Command{
		Use:   "services",
		Short: "List Windows services (WMIC, falling back to PowerShell)",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, err := helpers.ParseFormat(format)
			if err != nil {
				return err
			}
			if container.Executor == nil {
				return errors.New(ErrExecutorUnavailable)
			}

			stop := helpers.StartSpinner(cmd.ErrOrStderr())
			services, err := container.Executor.GetWindowsServices(cmd.Context())
			stop()
			if err != nil {
				return err
			}

			services = filterServices(services, status, name)
			return helpers.WriteStructured(cmd.OutOrStdout(), outputFormat, services, func(w *tabwriter.Writer) {
				writeServiceTable(w, services)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", helpers.FormatTable, "Output format: table, json or yaml")
	cmd.Flags().StringVar(&status, "status", "", "Only show services in this state (e.g. Running)")
	cmd.Flags().StringVar(&name, "name", "", "Only show services whose name or display name contains this text")
	return cmd
}

// NewDiskCommand creates the disk command
func NewDiskCommand(container *app.Container) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "disk [drive...]",
		Short: "Show capacity of one or more drives",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, err := helpers.ParseFormat(format)
			if err != nil {
				return err
			}
			if container.SysInfo == nil {
				return errors.New(ErrExecutorUnavailable)
			}
			drives := args
			if len(drives) == 0 {
				drives = []string{container.Config.Drive()}
			}

			stop := helpers.StartSpinner(cmd.ErrOrStderr())
			disks, err := container.SysInfo.Disks(cmd.Context(), drives)
			stop()
			if err != nil {
				return err
			}

			return helpers.WriteStructured(cmd.OutOrStdout(), outputFormat, disks, func(w *tabwriter.Writer) {
				writeDiskTable(w, disks)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", helpers.FormatTable, "Output format: table, json or yaml")
	return cmd
}

// NewOverviewCommand creates the overview command
func NewOverviewCommand(container *app.Container) *cobra.Command {
	var (
		format string
		drive  string
	)

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Summarize services and disk capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, err := helpers.ParseFormat(format)
			if err != nil {
				return err
			}
			if container.SysInfo == nil {
				return errors.New(ErrExecutorUnavailable)
			}
			if drive == "" {
				drive = container.Config.Drive()
			}

			stop := helpers.StartSpinner(cmd.ErrOrStderr())
			overview, err := container.SysInfo.Overview(cmd.Context(), drive)
			stop()

			// Partial results are still worth printing.
			if writeErr := helpers.WriteStructured(cmd.OutOrStdout(), outputFormat, overview, func(w *tabwriter.Writer) {
				writeOverview(w, overview)
			}); writeErr != nil {
				return writeErr
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", helpers.FormatTable, "Output format: table, json or yaml")
	cmd.Flags().StringVar(&drive, "drive", "", "Drive to report (default from config)")
	return cmd
}

// NewMonitorCommand creates the monitor command
func NewMonitorCommand(container *app.Container) *cobra.Command {
	var (
		interval      time.Duration
		count         int
		drive         string
		metricsListen string
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Poll services and disk capacity, optionally exposing Prometheus metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return errors.New(ErrInvalidInterval)
			}
			if container.SysInfo == nil {
				return errors.New(ErrExecutorUnavailable)
			}
			if drive == "" {
				drive = container.Config.Drive()
			}
			if !cmd.Flags().Changed("metrics-listen") {
				metricsListen = container.Config.Metrics.Listen
			}
			return runMonitor(cmd.Context(), cmd.OutOrStdout(), container, monitorOptions{
				interval:      interval,
				count:         count,
				drive:         drive,
				metricsListen: metricsListen,
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", DefaultMonitorInterval, "Time between samples")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many samples (0 runs until interrupted)")
	cmd.Flags().StringVar(&drive, "drive", "", "Drive to report (default from config)")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "Serve /metrics on this address (default from config)")
	return cmd
}

type monitorOptions struct {
	interval      time.Duration
	count         int
	drive         string
	metricsListen string
}

// runMonitor samples until ctx is done or count samples were taken. The
// metrics server, when enabled, shares the sampling loop's lifetime.
func runMonitor(ctx context.Context, out io.Writer, container *app.Container, opts monitorOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if opts.metricsListen != "" && container.Metrics != nil {
		g.Go(func() error {
			return container.Metrics.Serve(gctx, opts.metricsListen)
		})
		fmt.Fprintf(out, "Serving metrics on %s/metrics\n", opts.metricsListen)
	}

	g.Go(func() error {
		defer cancel()
		ticker := time.NewTicker(opts.interval)
		defer ticker.Stop()
		for sample := 1; ; sample++ {
			overview, err := container.SysInfo.Overview(gctx, opts.drive)
			if gctx.Err() != nil {
				return nil
			}
			writeMonitorSample(out, time.Now(), overview, err)
			if opts.count > 0 && sample >= opts.count {
				return nil
			}
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	err := g.Wait()
	if container.Executor != nil {
		stats := container.Executor.CacheStats()
		fmt.Fprintf(out, "Cache: %d hits, %d misses\n", stats.Hits, stats.Misses)
	}
	return err
}

func writeMonitorSample(out io.Writer, at time.Time, overview domain.Overview, err error) {
	counts := sysinfo.StatusCounts(overview.Services)
	disk := overview.Disk
	fmt.Fprintf(out, "%s services=%d running=%d stopped=%d %s free=%s/%s",
		at.Format(TimestampFormat),
		len(overview.Services),
		counts["Running"],
		counts["Stopped"],
		disk.Drive,
		helpers.FormatBytes(disk.Free),
		helpers.FormatBytes(disk.Total))
	if err != nil {
		fmt.Fprintf(out, " error=%q", err.Error())
	}
	fmt.Fprintln(out)
}

func filterServices(services []domain.Service, status, name string) []domain.Service {
	if status == "" && name == "" {
		return services
	}
	needle := strings.ToLower(name)
	filtered := make([]domain.Service, 0, len(services))
	for _, svc := range services {
		if status != "" && !strings.EqualFold(svc.Status, status) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(svc.Name), needle) &&
			!strings.Contains(strings.ToLower(svc.DisplayName), needle) {
			continue
		}
		filtered = append(filtered, svc)
	}
	return filtered
}

func writeServiceTable(w *tabwriter.Writer, services []domain.Service) {
	fmt.Fprintln(w, "NAME\tSTATUS\tSTART TYPE\tDISPLAY NAME")
	for _, svc := range services {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", svc.Name, svc.Status, svc.StartType, svc.DisplayName)
	}
}

func writeDiskTable(w *tabwriter.Writer, disks []domain.DiskSpace) {
	fmt.Fprintln(w, "DRIVE\tTOTAL\tUSED\tFREE\tUSED%")
	for _, disk := range disks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\n",
			disk.Drive,
			helpers.FormatBytes(disk.Total),
			helpers.FormatBytes(disk.Used),
			helpers.FormatBytes(disk.Free),
			helpers.Percent(disk.Used, disk.Total))
	}
}

func writeOverview(w *tabwriter.Writer, overview domain.Overview) {
	counts := sysinfo.StatusCounts(overview.Services)
	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	fmt.Fprintf(w, "Services\t%d\n", len(overview.Services))
	for _, status := range statuses {
		fmt.Fprintf(w, "  %s\t%d\n", status, counts[status])
	}
	if disk := overview.Disk; disk.Drive != "" {
		fmt.Fprintf(w, "Disk %s\t%s free of %s (%.1f%% used)\n",
			disk.Drive,
			helpers.FormatBytes(disk.Free),
			helpers.FormatBytes(disk.Total),
			helpers.Percent(disk.Used, disk.Total))
	}
}
