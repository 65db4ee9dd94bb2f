package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/clifmt"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/stats"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print usage statistics from the trigger tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			logger, err := loggerFromViper()
			if err != nil {
				return err
			}
			store, err := loadStore(cmd.Context(), logger)
			if err != nil {
				return err
			}
			sum := reporterFromViper(store).Summary(time.Now())
			if f, ok := cmd.OutOrStdout().(*os.File); ok {
				clifmt.EnableColorFor(f)
			}
			return writeSummary(cmd.OutOrStdout(), sum, format)
		},
	}
	cmd.Flags().String("format", "text", "Output format: text|json|yaml.")
	return cmd
}

func writeSummary(out io.Writer, sum stats.Summary, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		writeSummaryText(out, sum)
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(sum); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown --format %q (want text|json|yaml)", format)
	}
}

func writeSummaryText(out io.Writer, sum stats.Summary) {
	start := "-"
	if !sum.StartTime.IsZero() {
		start = sum.StartTime.Format(time.RFC3339)
	}
	clifmt.PrintTable(out, clifmt.TableOptions{
		Title:   "Totals",
		Columns: []string{"METRIC", "VALUE"},
		Rows: [][]string{
			{"start_time", start},
			{"uptime_days", strconv.Itoa(sum.UptimeDays)},
			{"senders", strconv.Itoa(sum.TotalSenders)},
			{"image_triggers", strconv.Itoa(sum.TotalImageTriggers)},
			{"text_triggers", strconv.Itoa(sum.TotalTextTriggers)},
			{"fires", fmt.Sprintf("%d (image %d, text %d)", sum.TotalFires, sum.ImageFires, sum.TextFires)},
			{"avg_fires_per_day", strconv.FormatFloat(sum.AvgFiresPerDay, 'f', 1, 64)},
			{"today", fmt.Sprintf("%d (image %d, text %d)", sum.Today.Total(), sum.Today.ImageFires, sum.Today.TextFires)},
		},
	})
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(sum.TopSenders))
	for _, p := range sum.TopSenders {
		name := p.DisplayName
		if p.Username != "" {
			name += " (@" + p.Username + ")"
		}
		rows = append(rows, []string{strconv.FormatInt(p.ID, 10), strconv.Itoa(p.UsageCount), name})
	}
	clifmt.PrintTable(out, clifmt.TableOptions{
		Title:     "Top senders",
		Columns:   []string{"ID", "FIRES", "NAME"},
		Rows:      rows,
		EmptyText: "No senders yet.",
	})
}
