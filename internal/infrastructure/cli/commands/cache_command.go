package commands

import (
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

// NewCacheCommand creates the cache command with all subcommands.
// The result cache lives only as long as the process, so these commands
// report on the queries issued by --warm within the same invocation.
func NewCacheCommand(container *app.Container) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the read-only result cache",
	}

	cacheCmd.AddCommand(
		newCacheStatsCommand(container),
		newCacheListCommand(container),
		newCacheClearCommand(container),
	)

	return cacheCmd
}

// newCacheStatsCommand creates the 'cache stats' subcommand
func newCacheStatsCommand(container *app.Container) *cobra.Command {
	var warm []string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache settings and hit/miss counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Executor == nil {
				return errors.New(ErrExecutorUnavailable)
			}
			if err := warmCache(cmd, container, warm); err != nil {
				return err
			}
			showCacheStats(cmd.OutOrStdout(), container)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&warm, "warm", nil, "PowerShell query to run twice before reporting (repeatable)")
	return cmd
}

// newCacheListCommand creates the 'cache list' subcommand
func newCacheListCommand(container *app.Container) *cobra.Command {
	var warm []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List live cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Executor == nil {
				return errors.New(ErrExecutorUnavailable)
			}
			if err := warmCache(cmd, container, warm); err != nil {
				return err
			}
			listCacheEntries(cmd.OutOrStdout(), container.Executor.CachedEntries(), time.Now())
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&warm, "warm", nil, "PowerShell query to run before listing (repeatable)")
	return cmd
}

// newCacheClearCommand creates the 'cache clear' subcommand
func newCacheClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop cached results and cancel pending commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Executor == nil {
				return errors.New(ErrExecutorUnavailable)
			}
			dropped := container.Executor.CacheStats().Entries
			container.Executor.Cleanup()
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached result(s).\n", dropped)
			return nil
		},
	}
}

// warmCache runs each query twice so the second run is served from the cache.
func warmCache(cmd *cobra.Command, container *app.Container, queries []string) error {
	for _, query := range queries {
		for i := 0; i < 2; i++ {
			if _, err := container.Executor.Run(cmd.Context(), domain.Query(domain.DialectPowerShell, query)); err != nil {
				return fmt.Errorf("warm %q: %w", query, err)
			}
		}
	}
	return nil
}

// showCacheStats displays cache settings and counters
func showCacheStats(out io.Writer, container *app.Container) {
	stats := container.Executor.CacheStats()
	cfg := container.Config

	fmt.Fprintf(out, "Enabled: %t\n", cfg.Cache.Enabled)
	fmt.Fprintf(out, "TTL: %s\n", stats.TTL)
	fmt.Fprintf(out, "Entries: %d\n", stats.Entries)
	fmt.Fprintf(out, "Hits: %d\n", stats.Hits)
	fmt.Fprintf(out, "Misses: %d\n", stats.Misses)
	fmt.Fprintf(out, "Hit rate: %.1f%%\n", helpers.CalculateSuccessRate(int(stats.Hits), int(stats.Hits+stats.Misses)))
}

// listCacheEntries prints entries oldest first with their remaining age
func listCacheEntries(out io.Writer, entries []domain.CacheEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(out, MsgNoCachedResults)
		return
	}
	w := helpers.NewTable(out)
	fmt.Fprintln(w, "DIALECT\tAGE\tBYTES\tCOMMAND")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			entry.Dialect,
			now.Sub(entry.CreatedAt).Truncate(time.Second),
			len(entry.Result),
			strings.ReplaceAll(entry.Command, "\n", " "))
	}
	_ = w.Flush()
}
