package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/wintool/internal/app"
	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/infrastructure/cli/helpers"
	"github.com/doeshing/wintool/internal/ports"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the execution journal",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistorySearchCommand(container),
		newHistoryClearCommand(container),
		newHistoryExportCommand(container),
		newHistoryStatsCommand(container),
		newHistoryPruneCommand(container),
	)

	return historyCmd
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistoryEntries(cmd.OutOrStdout(), container, limit, "")
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max entries to show")
	return cmd
}

// newHistorySearchCommand creates the 'history search' subcommand
func newHistorySearchCommand(container *app.Container) *cobra.Command {
	var searchLimit int

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search executions by command text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistoryEntries(cmd.OutOrStdout(), container, searchLimit, args[0])
		},
	}

	cmd.Flags().IntVar(&searchLimit, "limit", domain.DefaultHistorySearchLimit, "Limit search results")
	return cmd
}

// newHistoryClearCommand creates the 'history clear' subcommand
func newHistoryClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every journal entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return clearHistory(container)
		},
	}
}

// newHistoryExportCommand creates the 'history export' subcommand
func newHistoryExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export the journal to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportHistory(container, args[0])
		},
	}
}

// newHistoryStatsCommand creates the 'history stats' subcommand
func newHistoryStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show success rate, strategies and top commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistoryStats(cmd.OutOrStdout(), container)
		},
	}
}

// newHistoryPruneCommand creates the 'history prune' subcommand
func newHistoryPruneCommand(container *app.Container) *cobra.Command {
	var (
		retainDays int
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete executions older than N days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if retainDays <= 0 {
				return errors.New(ErrInvalidRetainDays)
			}
			return pruneHistory(cmd.Context(), cmd.OutOrStdout(), container, retainDays, save)
		},
	}

	cmd.Flags().IntVar(&retainDays, "days", domain.DefaultHistoryRetainDays, "Days of history to keep")
	cmd.Flags().BoolVar(&save, "save", false, "Also store --days as history.retention_days")
	return cmd
}

func historyStore(container *app.Container) (ports.HistoryRepository, error) {
	if container.HistoryStore == nil {
		return nil, errors.New(ErrHistoryStoreUnavailable)
	}
	return container.HistoryStore, nil
}

// listHistoryEntries lists recent executions, optionally filtered by text
func listHistoryEntries(out io.Writer, container *app.Container, limit int, search string) error {
	store, err := historyStore(container)
	if err != nil {
		return err
	}

	records, err := store.Records(limit, search)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	for _, rec := range records {
		fmt.Fprintf(out, "%s | %s | %s | %s | %s\n",
			rec.Timestamp.Local().Format(TimestampFormat),
			rec.Dialect,
			rec.Strategy,
			describeOutcome(rec),
			rec.Command)
	}

	return nil
}

func describeOutcome(rec domain.ExecutionRecord) string {
	switch {
	case rec.Success:
		return "ok"
	case rec.ExpectedFailure:
		return "expected " + string(rec.ErrorKind)
	case rec.ErrorKind == domain.ErrKindExit:
		return fmt.Sprintf("exit %d", rec.ExitCode)
	case rec.ErrorKind != "":
		return string(rec.ErrorKind)
	default:
		return "failed"
	}
}

// clearHistory deletes every journal entry
func clearHistory(container *app.Container) error {
	store, err := historyStore(container)
	if err != nil {
		return err
	}

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	return nil
}

// exportHistory exports history to a JSONL file
func exportHistory(container *app.Container, path string) error {
	store, err := historyStore(container)
	if err != nil {
		return err
	}

	if err := store.ExportJSON(path); err != nil {
		return fmt.Errorf("failed to export history to %s: %w", path, err)
	}

	return nil
}

// showHistoryStats displays success rate, strategy usage and top commands
func showHistoryStats(out io.Writer, container *app.Container) error {
	store, err := historyStore(container)
	if err != nil {
		return err
	}

	records, err := store.Records(MaxHistoryAnalysisRecords, "")
	if err != nil {
		return fmt.Errorf("failed to retrieve history for analysis: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	displayHistoryStatistics(out, helpers.SummarizeJournal(records))
	return nil
}

// pruneHistory deletes old records and optionally persists the retention policy
func pruneHistory(ctx context.Context, out io.Writer, container *app.Container, days int, save bool) error {
	store, err := historyStore(container)
	if err != nil {
		return err
	}

	removed, err := store.Prune(time.Now().AddDate(0, 0, -days))
	if err != nil {
		return fmt.Errorf("failed to prune old history: %w", err)
	}

	if save {
		cfg, err := container.ConfigProvider.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg.History.RetentionDays = days
		if err := helpers.SaveConfigWithValidation(container, cfg); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Removed %d record(s); kept the last %d days.\n", removed, days)
	return nil
}

// displayHistoryStatistics displays formatted journal statistics
func displayHistoryStatistics(out io.Writer, summary helpers.JournalSummary) {
	fmt.Fprintf(out, "Entries analyzed: %d\nSuccess rate: %.1f%%\nExpected failures: %d\n",
		summary.Total,
		helpers.CalculateSuccessRate(summary.Successful, summary.Total),
		summary.Expected)

	fmt.Fprintln(out, "Strategies:")
	for _, name := range helpers.SortedKeys(summary.Strategies) {
		fmt.Fprintf(out, "  %s: %d\n", name, summary.Strategies[name])
	}

	if len(summary.ErrorKinds) > 0 {
		fmt.Fprintln(out, "Failures by kind:")
		kinds := make(map[string]int, len(summary.ErrorKinds))
		for kind, count := range summary.ErrorKinds {
			kinds[string(kind)] = count
		}
		for _, kind := range helpers.SortedKeys(kinds) {
			fmt.Fprintf(out, "  %s: %d\n", kind, kinds[kind])
		}
	}

	fmt.Fprintln(out, "Top commands:")
	for _, stat := range helpers.CalculateTopCommands(summary.Commands, 5) {
		fmt.Fprintf(out, "  %s (%d)\n", stat.Command, stat.Count)
	}

	if summary.Slowest.Command != "" {
		fmt.Fprintf(out, "Slowest: %s (%s)\n", summary.Slowest.Command, summary.SlowestDuration())
	}
}
