package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/dexter/internal/app"
	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/infrastructure/cli/helpers"
	"github.com/doeshing/dexter/internal/ports"
)

// RerunFunc previews a recorded command again through the pipeline.
type RerunFunc func(cmd *cobra.Command, record domain.HistoryRecord, yes bool) error

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(lazy *app.Lazy, rerun RerunFunc) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect executed commands",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(lazy),
		newHistorySearchCommand(lazy),
		newHistoryPinCommand(lazy, true),
		newHistoryPinCommand(lazy, false),
		newHistoryRerunCommand(lazy, rerun),
		newHistoryStatsCommand(lazy),
		newHistoryExportCommand(lazy),
		newHistoryClearCommand(lazy),
	)

	return historyCmd
}

func historyStore(cmd *cobra.Command, lazy *app.Lazy) (ports.HistoryRepository, error) {
	container, err := lazy.Get(cmd.Context())
	if err != nil {
		return nil, err
	}
	if container.HistoryStore == nil {
		return nil, errors.New(ErrHistoryDisabled)
	}
	return container.HistoryStore, nil
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(lazy *app.Lazy) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent executions, pinned first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd, lazy)
			if err != nil {
				return err
			}
			records, err := store.Records(limit)
			if err != nil {
				return fmt.Errorf("failed to retrieve history records: %w", err)
			}
			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max entries to show")
	return cmd
}

// newHistorySearchCommand creates the 'history search' subcommand
func newHistorySearchCommand(lazy *app.Lazy) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search requests and commands for a keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd, lazy)
			if err != nil {
				return err
			}
			records, err := store.Records(0)
			if err != nil {
				return fmt.Errorf("failed to search history: %w", err)
			}
			printRecords(cmd.OutOrStdout(), filterRecords(records, args[0], limit))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Limit search results")
	return cmd
}

func newHistoryPinCommand(lazy *app.Lazy, pin bool) *cobra.Command {
	use, short := "pin <id>", "Pin an entry to the top of the list"
	if !pin {
		use, short = "unpin <id>", "Unpin an entry"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd, lazy)
			if err != nil {
				return err
			}
			id, err := resolveID(store, args[0])
			if err != nil {
				return err
			}
			if pin {
				return store.Pin(id)
			}
			return store.Unpin(id)
		},
	}
}

func newHistoryRerunCommand(lazy *app.Lazy, rerun RerunFunc) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "rerun <id>",
		Short: "Preview a recorded command again and run it after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd, lazy)
			if err != nil {
				return err
			}
			id, err := resolveID(store, args[0])
			if err != nil {
				return err
			}
			record, err := store.Get(id)
			if err != nil {
				return err
			}
			return rerun(cmd, record, yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Execute without asking")
	return cmd
}

// newHistoryStatsCommand creates the 'history stats' subcommand
func newHistoryStatsCommand(lazy *app.Lazy) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show tool usage and top commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd, lazy)
			if err != nil {
				return err
			}
			records, err := store.Records(0)
			if err != nil {
				return fmt.Errorf("failed to retrieve history for analysis: %w", err)
			}
			printStats(cmd.OutOrStdout(), records)
			return nil
		},
	}
}

// newHistoryExportCommand creates the 'history export' subcommand
func newHistoryExportCommand(lazy *app.Lazy) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export history to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd, lazy)
			if err != nil {
				return err
			}
			records, err := store.Records(0)
			if err != nil {
				return err
			}
			if err := exportRecords(args[0], records); err != nil {
				return fmt.Errorf("failed to export history to %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s entries to %s\n", humanize.Comma(int64(len(records))), args[0])
			return nil
		},
	}
}

// newHistoryClearCommand creates the 'history clear' subcommand
func newHistoryClearCommand(lazy *app.Lazy) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd, lazy)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgHistoryCleared)
			return nil
		},
	}
}

func printRecords(out io.Writer, records []domain.HistoryRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return
	}
	for _, rec := range records {
		pin := " "
		if rec.Pinned() {
			pin = "*"
		}
		fmt.Fprintf(out, "%s %s | %-14s | %-7s | %s\n",
			pin,
			shortID(rec.ID),
			humanize.Time(rec.Timestamp),
			rec.Plugin,
			rec.Command)
	}
}

func printStats(out io.Writer, records []domain.HistoryRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return
	}
	fmt.Fprintf(out, "Entries: %s (oldest %s)\n", humanize.Comma(int64(len(records))), humanize.Time(oldest(records)))
	fmt.Fprintln(out, "Tools:")
	for _, stat := range helpers.PluginUsage(records) {
		fmt.Fprintf(out, "  %s (%d)\n", stat.Key, stat.Count)
	}
	fmt.Fprintln(out, "Top commands:")
	for _, stat := range helpers.TopCommands(records, 5) {
		fmt.Fprintf(out, "  %s (%d)\n", stat.Key, stat.Count)
	}
}

func oldest(records []domain.HistoryRecord) time.Time {
	first := records[0].Timestamp
	for _, rec := range records[1:] {
		if rec.Timestamp.Before(first) {
			first = rec.Timestamp
		}
	}
	return first
}

func filterRecords(records []domain.HistoryRecord, keyword string, limit int) []domain.HistoryRecord {
	keyword = strings.ToLower(keyword)
	var out []domain.HistoryRecord
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.Command), keyword) || strings.Contains(strings.ToLower(rec.Input), keyword) {
			out = append(out, rec)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveID accepts a full id or the unique prefix printed by 'history list'.
func resolveID(store ports.HistoryRepository, prefix string) (string, error) {
	records, err := store.Records(0)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, rec := range records {
		if rec.ID == prefix {
			return rec.ID, nil
		}
		if strings.HasPrefix(rec.ID, prefix) {
			matches = append(matches, rec.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no history entry matches %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%q matches %d entries, use a longer id", prefix, len(matches))
	}
}

func exportRecords(path string, records []domain.HistoryRecord) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, domain.SecureFilePermissions)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}
