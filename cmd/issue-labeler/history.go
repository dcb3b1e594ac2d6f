package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"yashubustudio/issuelabeler/internal/store"
	"yashubustudio/issuelabeler/labeler"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent triage decisions from the SQLite log",
	RunE: func(cmd *cobra.Command, args []string) error {
		storePath, _ := cmd.Flags().GetString("store")
		if storePath == "" {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := labeler.LoadConfig(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			storePath = cfg.StorePath
		}
		if storePath == "" {
			return errors.New("no triage log configured: pass --store or set storePath")
		}
		runID, _ := cmd.Flags().GetString("run")
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := store.Open(storePath)
		if err != nil {
			return err
		}
		defer s.Close()

		entries, err := s.Recent(cmd.Context(), runID, limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No triage entries found.")
			return nil
		}
		fmt.Fprintf(out, "%-5s  %-19s  %-12s  %-30s  %-20s  %-6s  %s\n",
			"ID", "Timestamp", "Issue", "Title", "Top label", "Score", "Rec")
		fmt.Fprintln(out, strings.Repeat("─", 110))
		for _, e := range entries {
			label, score := "-", "-"
			if len(e.Predictions) > 0 {
				label = e.Predictions[0].Label
				score = fmt.Sprintf("%.3f", e.Predictions[0].Score)
			}
			rec := "✗"
			if e.Recommended {
				rec = "✓"
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-12s  %-30s  %-20s  %-6s  %s\n",
				e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				truncate(e.IssueID, 12), truncate(e.Title, 30), truncate(label, 20), score, rec)
		}
		return nil
	},
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func init() {
	historyCmd.Flags().String("store", "", "SQLite triage log (overrides storePath from the config)")
	historyCmd.Flags().String("run", "", "Only show entries from this run ID")
	historyCmd.Flags().Int("limit", 20, "Maximum number of entries to show")
}
