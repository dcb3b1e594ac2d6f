package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"yashubustudio/issuelabeler/labeler"
)

var rootCmd = &cobra.Command{
	Use:   "issue-labeler",
	Short: "Rank issue area labels and flag confident predictions",
	Long: "issue-labeler scores free-text issues against a set of area labels, " +
		"reports the top ranked labels and recommends those whose best score clears the threshold.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config.json or config.yaml (default: ./config.json)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(triageCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// classifierCloser is a Classifier that owns model resources.
type classifierCloser interface {
	labeler.Classifier
	Close() error
}

// newClassifier builds the classifier used by predict and triage.
// Tests replace it with an in-memory classifier.
var newClassifier = func(ctx context.Context, cfg labeler.Config, logger *slog.Logger) (classifierCloser, error) {
	labels, err := cfg.ResolveLabels()
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}
	embedder, err := labeler.NewOrtEmbedder(cfg.Embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	classifier, err := labeler.NewVectorClassifier(ctx, embedder, labels, logger)
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("init classifier: %w", err)
	}
	return classifier, nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the config file and applies flag overrides shared by
// predict and triage.
func loadConfig(cmd *cobra.Command) (labeler.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := labeler.LoadConfig(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("top-k") {
		cfg.TopK, _ = flags.GetInt("top-k")
	}
	if flags.Changed("threshold") {
		cfg.Threshold, _ = flags.GetFloat32("threshold")
	}
	if flags.Changed("continue-on-error") {
		cfg.ContinueOnError, _ = flags.GetBool("continue-on-error")
	}
	if flags.Changed("labels") {
		cfg.LabelsPath, _ = flags.GetString("labels")
	}
	if cfg.TopK <= 0 {
		return cfg, fmt.Errorf("--top-k must be positive, got %d", cfg.TopK)
	}
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		return cfg, fmt.Errorf("--threshold must be within (0, 1], got %.2f", cfg.Threshold)
	}
	return cfg, nil
}

func checkInput(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("input %s: %w", path, err)
	}
	return nil
}
