package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/issuelabeler/internal/store"
	"yashubustudio/issuelabeler/labeler"
)

type staticCloser struct {
	labeler.StaticClassifier
	closed *bool
}

func (s staticCloser) Close() error {
	*s.closed = true
	return nil
}

// stubClassifier replaces the ONNX classifier for the duration of the test
// and returns the config it was built with.
func stubClassifier(t *testing.T, scores ...float32) *labeler.Config {
	t.Helper()
	labels := []string{"area-bug", "area-feature", "area-doc"}[:len(scores)]
	var (
		seen   labeler.Config
		closed bool
	)
	orig := newClassifier
	newClassifier = func(_ context.Context, cfg labeler.Config, _ *slog.Logger) (classifierCloser, error) {
		seen = cfg
		return staticCloser{
			StaticClassifier: labeler.StaticClassifier{Vector: labeler.ScoreVector{Labels: labels, Scores: scores}},
			closed:           &closed,
		}, nil
	}
	t.Cleanup(func() {
		newClassifier = orig
		assert.True(t, closed, "classifier was not closed")
	})
	return &seen
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, cfg labeler.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "issue-labeler (devel)\n", out)
}

func TestPredict(t *testing.T) {
	seen := stubClassifier(t, 0.1, 0.7, 0.2)
	cfgPath := writeConfig(t, labeler.Config{Labels: []labeler.Label{{Name: "area-bug"}}})

	out, err := runCLI(t, "predict", "--config", cfgPath, "--top-k", "2", "Crash", "on", "save")
	require.NoError(t, err)
	assert.Contains(t, out, `==== Prediction for "Crash on save" ====`)
	assert.Contains(t, out, "1st Label: area-feature with score: 0.700")
	assert.Contains(t, out, "2nd Label: area-doc with score: 0.200")
	assert.NotContains(t, out, "3rd Label")
	assert.Equal(t, 2, seen.TopK)
}

func TestPredict_NothingToPredict(t *testing.T) {
	cfgPath := writeConfig(t, labeler.Config{})
	_, err := runCLI(t, "predict", "--config", cfgPath)
	require.Error(t, err)
}

func TestTriage_FromConfig(t *testing.T) {
	stubClassifier(t, 0.1, 0.7, 0.2)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out", "results.csv")
	dbPath := filepath.Join(dir, "triage.db")
	cfgPath := writeConfig(t, labeler.Config{
		Issue: labeler.Issue{ID: "1", Title: "Add dark mode"},
		Issues: []labeler.Issue{
			{ID: "2", Title: ""},
			{ID: "3", Title: "x"},
		},
		StorePath: dbPath,
	})

	out, err := runCLI(t, "triage", "--config", cfgPath, "--csv", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "==== Issue 1: Add dark mode ====")
	assert.Contains(t, out, "==== Issue 3: x ====")
	assert.NotContains(t, out, "==== Issue 2:")
	assert.Contains(t, out, "==== Recommended only when score is 30% or better ====")
	assert.Contains(t, out, "2 triaged, 2 recommended, 1 skipped, 0 failed")

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "Add dark mode", "area-feature", "0.700", "area-doc", "0.200", "area-bug", "0.100", "true"}, rows[1])

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.Recent(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	out, err = runCLI(t, "history", "--store", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Add dark mode")
	assert.Contains(t, out, "area-feature")
	assert.Contains(t, out, "✓")
}

func TestTriage_Threshold(t *testing.T) {
	stubClassifier(t, 0.29, 0.1)
	cfgPath := writeConfig(t, labeler.Config{Issue: labeler.Issue{ID: "1", Title: "Vague"}})

	out, err := runCLI(t, "triage", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "not recommended")
	assert.Contains(t, out, "1 triaged, 0 recommended")

	stubClassifier(t, 0.29, 0.1)
	out, err = runCLI(t, "triage", "--config", cfgPath, "--threshold", "0.25")
	require.NoError(t, err)
	assert.Contains(t, out, "1 triaged, 1 recommended")
	assert.Contains(t, out, "score is 25% or better")
}

func TestTriage_FromInputFile(t *testing.T) {
	seen := stubClassifier(t, 0.5, 0.1)
	input := filepath.Join(t.TempDir(), "issues.csv")
	require.NoError(t, os.WriteFile(input, []byte("number,headline\n10,Crash\n11,\n"), 0o644))
	cfgPath := writeConfig(t, labeler.Config{Issue: labeler.Issue{ID: "cfg", Title: "ignored"}})

	out, err := runCLI(t, "triage", "--config", cfgPath, "--input", input,
		"--input-title-column", "headline", "--continue-on-error", "--top-k", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "==== Issue 10: Crash ====")
	assert.NotContains(t, out, "ignored")
	assert.Contains(t, out, "1 triaged, 1 recommended, 1 skipped")
	assert.True(t, seen.ContinueOnError)
	assert.Equal(t, 1, seen.TopK)
	assert.Equal(t, 1, strings.Count(out, "Label: "))
}

func TestTriage_Errors(t *testing.T) {
	cfgPath := writeConfig(t, labeler.Config{Issue: labeler.Issue{ID: "1", Title: "t"}})

	_, err := runCLI(t, "triage", "--config", cfgPath, "--threshold", "1.5")
	require.Error(t, err)

	_, err = runCLI(t, "triage", "--config", cfgPath, "--top-k", "0")
	require.Error(t, err)

	_, err = runCLI(t, "triage", "--config", cfgPath, "--input", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	stubClassifier(t, 0.5)
	empty := writeConfig(t, labeler.Config{Issues: []labeler.Issue{{ID: "1"}}})
	_, err = runCLI(t, "triage", "--config", empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no issues with a title")
}

func TestHistory_NoStore(t *testing.T) {
	cfgPath := writeConfig(t, labeler.Config{})
	_, err := runCLI(t, "history", "--config", cfgPath)
	require.Error(t, err)
}
