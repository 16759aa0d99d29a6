package helpers

import (
	"sort"

	"github.com/doeshing/dexter/internal/domain"
)

// Statistic is a usage count for one key (a command or a plugin name).
type Statistic struct {
	Key   string
	Count int
}

// TopCommands returns the most frequently executed commands.
// If limit is 0 or negative, returns all commands
func TopCommands(records []domain.HistoryRecord, limit int) []Statistic {
	freq := make(map[string]int)
	for _, rec := range records {
		freq[rec.Command]++
	}
	return limitStatistics(sortedStatistics(freq), limit)
}

// PluginUsage counts executions per plugin, busiest first.
func PluginUsage(records []domain.HistoryRecord) []Statistic {
	freq := make(map[string]int)
	for _, rec := range records {
		freq[rec.Plugin]++
	}
	return sortedStatistics(freq)
}

// sortedStatistics orders by count (descending) then by key (ascending)
func sortedStatistics(frequency map[string]int) []Statistic {
	stats := make([]Statistic, 0, len(frequency))
	for key, count := range frequency {
		stats = append(stats, Statistic{Key: key, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Key < stats[j].Key
		}
		return stats[i].Count > stats[j].Count
	})
	return stats
}

func limitStatistics(stats []Statistic, limit int) []Statistic {
	if limit > 0 && len(stats) > limit {
		return stats[:limit]
	}
	return stats
}
