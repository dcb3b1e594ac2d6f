package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"yashubustudio/issuelabeler/internal/store"
	"yashubustudio/issuelabeler/labeler"
)

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Label every pending issue and flag confident predictions",
	Long: "triage ranks the issues defined in the config (or read from --input) and " +
		"recommends each issue whose top score reaches the threshold. Issues without a title are skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		input, _ := flags.GetString("input")
		if input == "" {
			input = cfg.InputPath
		}
		if err := checkInput(input); err != nil {
			return err
		}
		csvPath, _ := flags.GetString("csv")
		storePath, _ := flags.GetString("store")
		if storePath == "" {
			storePath = cfg.StorePath
		}

		var source labeler.IssueSource = labeler.NewConfigSource(cfg)
		if input != "" {
			idCol, _ := flags.GetString("input-id-column")
			titleCol, _ := flags.GetString("input-title-column")
			descCol, _ := flags.GetString("input-description-column")
			source = labeler.FileSource{Path: input, Options: labeler.IssueParseOptions{
				IDColumn:          idCol,
				TitleColumn:       titleCol,
				DescriptionColumn: descCol,
			}}
		}

		out := cmd.OutOrStdout()
		reporters := labeler.MultiReporter{labeler.NewConsoleReporter(out)}
		if csvPath != "" {
			if err := os.MkdirAll(filepath.Dir(csvPath), 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			f, err := os.Create(csvPath)
			if err != nil {
				return fmt.Errorf("create result file: %w", err)
			}
			defer f.Close()
			reporters = append(reporters, labeler.NewCSVReporter(f, cfg.TopK))
		}
		if storePath != "" {
			if err := store.EnsureDir(storePath); err != nil {
				return err
			}
			s, err := store.Open(storePath)
			if err != nil {
				return err
			}
			defer s.Close()
			reporters = append(reporters, s)
		}

		ctx := cmd.Context()
		logger := newLogger(cmd)
		classifier, err := newClassifier(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer classifier.Close()

		triager, err := labeler.NewTriager(classifier, cfg, logger)
		if err != nil {
			return err
		}
		result, runErr := triager.Run(ctx, source, reporters)
		if result != nil {
			printRunSummary(cmd, result, triager.Threshold())
		}
		if runErr != nil {
			return runErr
		}
		if len(result.Entries) == 0 && len(result.Failures) == 0 {
			return errors.New("no issues with a title to triage")
		}
		return nil
	},
}

func printRunSummary(cmd *cobra.Command, result *labeler.BatchResult, threshold float32) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "==== Recommended only when score is %.0f%% or better ====\n", threshold*100)
	fmt.Fprintf(out, "run %s: %d triaged, %d recommended, %d skipped, %d failed\n",
		result.RunID, len(result.Entries), len(result.Recommended()), result.Skipped, len(result.Failures))
	for _, f := range result.Failures {
		fmt.Fprintf(out, "  failed %s: %v\n", f.Issue.ID, f.Err)
	}
}

func init() {
	triageCmd.Flags().String("input", "", "CSV/TSV/text file of issues (default: issues from the config)")
	triageCmd.Flags().String("input-id-column", "", "Column name or #index for the issue id")
	triageCmd.Flags().String("input-title-column", "", "Column name or #index for the issue title")
	triageCmd.Flags().String("input-description-column", "", "Column name or #index for the issue description")
	triageCmd.Flags().String("csv", "", "Also write results to this CSV file")
	triageCmd.Flags().String("store", "", "SQLite triage log (overrides storePath from the config)")
	triageCmd.Flags().String("labels", "", "Label file overriding labelsPath from the config")
	triageCmd.Flags().Int("top-k", labeler.DefaultTopK, "Number of ranked labels per issue")
	triageCmd.Flags().Float32("threshold", labeler.DefaultThreshold, "Minimum top score for a recommended issue")
	triageCmd.Flags().Bool("continue-on-error", false, "Record classifier failures and keep going instead of stopping")
}
