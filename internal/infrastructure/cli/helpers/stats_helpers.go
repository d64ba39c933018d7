package helpers

import (
	"sort"
	"time"

	"github.com/doeshing/wintool/internal/domain"
)

// CommandStatistic represents usage statistics for a command
type CommandStatistic struct {
	Command string
	Count   int
}

// JournalSummary aggregates execution records for `history stats`.
type JournalSummary struct {
	Total      int
	Successful int
	Expected   int
	Strategies map[string]int
	ErrorKinds map[domain.ErrorKind]int
	Commands   map[string]int
	Slowest    domain.ExecutionRecord
}

// SummarizeJournal counts outcomes, strategies and error kinds across records.
func SummarizeJournal(records []domain.ExecutionRecord) JournalSummary {
	summary := JournalSummary{
		Strategies: make(map[string]int),
		ErrorKinds: make(map[domain.ErrorKind]int),
		Commands:   make(map[string]int),
	}
	for _, rec := range records {
		summary.Total++
		if rec.Success {
			summary.Successful++
		} else if rec.ErrorKind != "" {
			summary.ErrorKinds[rec.ErrorKind]++
		}
		if rec.ExpectedFailure {
			summary.Expected++
		}
		if rec.Strategy != "" {
			summary.Strategies[rec.Strategy]++
		}
		summary.Commands[rec.Command]++
		if rec.ExecutionTimeMS > summary.Slowest.ExecutionTimeMS {
			summary.Slowest = rec
		}
	}
	return summary
}

// SlowestDuration is the duration of the slowest recorded command.
func (s JournalSummary) SlowestDuration() time.Duration {
	return time.Duration(s.Slowest.ExecutionTimeMS) * time.Millisecond
}

// CalculateTopCommands returns the top N most frequently used commands
// If limit is 0 or negative, returns all commands
func CalculateTopCommands(commandFrequency map[string]int, limit int) []CommandStatistic {
	stats := convertFrequencyMapToStatistics(commandFrequency)
	sortStatisticsByFrequency(stats)

	if shouldLimitResults(limit, len(stats)) {
		return stats[:limit]
	}
	return stats
}

// convertFrequencyMapToStatistics converts a map to a slice of CommandStatistic
func convertFrequencyMapToStatistics(frequency map[string]int) []CommandStatistic {
	stats := make([]CommandStatistic, 0, len(frequency))
	for cmd, count := range frequency {
		stats = append(stats, CommandStatistic{
			Command: cmd,
			Count:   count,
		})
	}
	return stats
}

// sortStatisticsByFrequency sorts statistics by count (descending) then by command name (ascending)
func sortStatisticsByFrequency(stats []CommandStatistic) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Command < stats[j].Command
		}
		return stats[i].Count > stats[j].Count
	})
}

func shouldLimitResults(limit int, actualLength int) bool {
	return limit > 0 && actualLength > limit
}

// CalculateSuccessRate calculates the success rate as a percentage
func CalculateSuccessRate(successfulCount int, executedCount int) float64 {
	if executedCount == 0 {
		return 0.0
	}
	return float64(successfulCount) / float64(executedCount) * 100.0
}

// SortedKeys returns map keys in ascending order for stable output.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
