package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"yashubustudio/issuelabeler/labeler"
)

var predictCmd = &cobra.Command{
	Use:   "predict [title words...]",
	Short: "Show the top ranked labels for a single issue",
	Long: "predict classifies one ad-hoc issue and prints its ranked labels. " +
		"No acceptance threshold is applied.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		id, _ := cmd.Flags().GetString("id")
		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		if title == "" {
			title = strings.Join(args, " ")
		}
		issue := labeler.Issue{ID: id, Title: strings.TrimSpace(title), Description: strings.TrimSpace(description)}
		if issue.Title == "" && issue.Description == "" {
			return errors.New("nothing to predict: pass a title or --description")
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
		preds, err := triager.Predict(ctx, issue)
		if err != nil {
			return fmt.Errorf("predict: %w", err)
		}

		out := cmd.OutOrStdout()
		styles := labeler.DefaultReportStyles()
		fmt.Fprintln(out, styles.Header.Render(fmt.Sprintf("==== Prediction for %q ====", issue.Title)))
		if len(preds) == 0 {
			fmt.Fprintln(out, "no labels")
			return nil
		}
		fmt.Fprint(out, labeler.FormatPredictions(preds, styles.Label))
		return nil
	},
}

func init() {
	predictCmd.Flags().String("id", "adhoc", "Issue identifier")
	predictCmd.Flags().String("title", "", "Issue title (defaults to the positional arguments)")
	predictCmd.Flags().String("description", "", "Issue description")
	predictCmd.Flags().Int("top-k", labeler.DefaultTopK, "Number of ranked labels to show")
	predictCmd.Flags().String("labels", "", "Label file overriding labelsPath from the config")
}
