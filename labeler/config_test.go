package labeler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Missing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, cfg.TopK)
	assert.Equal(t, DefaultThreshold, cfg.Threshold)
	assert.Equal(t, 512, cfg.Embedder.MaxSeqLen)
	assert.False(t, cfg.ContinueOnError)
}

func TestLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	cache := filepath.Join(dir, "cache")
	data := `{
  "topK": 5,
  "threshold": 0.45,
  "continueOnError": true,
  "labels": [{"name": "area-bug", "text": "crash"}, {"name": "area-doc"}],
  "issue": {"id": "42", "title": "Crash on save"},
  "embedder": {"modelPath": "model.onnx", "cacheDir": "` + filepath.ToSlash(cache) + `"}
}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.TopK)
	assert.InDelta(t, 0.45, cfg.Threshold, 1e-6)
	assert.True(t, cfg.ContinueOnError)
	assert.Equal(t, []Label{{Name: "area-bug", Text: "crash"}, {Name: "area-doc"}}, cfg.Labels)
	assert.Equal(t, Issue{ID: "42", Title: "Crash on save"}, cfg.Issue)
	assert.Equal(t, "model.onnx", cfg.Embedder.ModelPath)
	assert.Equal(t, 512, cfg.Embedder.MaxSeqLen)
	assert.DirExists(t, cache)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labeler.yaml")
	data := `topK: 2
threshold: 0.5
labels:
  - name: area-bug
    text: crash or error
issues:
  - id: "1"
    title: App crashes
    description: On startup
  - id: "2"
    title: Add export
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.TopK)
	assert.InDelta(t, 0.5, cfg.Threshold, 1e-6)
	assert.Equal(t, []Label{{Name: "area-bug", Text: "crash or error"}}, cfg.Labels)
	assert.Equal(t, []Issue{
		{ID: "1", Title: "App crashes", Description: "On startup"},
		{ID: "2", Title: "Add export"},
	}, cfg.Issues)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	for _, name := range []string{"config.json", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			in := Config{
				TopK:       4,
				Threshold:  0.25,
				Labels:     []Label{{Name: "area-perf", Text: "slow"}},
				LabelsPath: "labels.txt",
				Issues:     []Issue{{ID: "7", Title: "Slow query"}},
			}
			require.NoError(t, SaveConfig(path, in))
			assert.NoFileExists(t, path+".tmp")

			out, err := LoadConfig(path)
			require.NoError(t, err)
			in.ApplyDefaults()
			assert.Equal(t, in, out)
		})
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{TopK: -1, Threshold: -0.5}
	cfg.ApplyDefaults()
	assert.Equal(t, DefaultTopK, cfg.TopK)
	assert.Equal(t, DefaultThreshold, cfg.Threshold)

	cfg = Config{TopK: 7, Threshold: 0.9}
	cfg.ApplyDefaults()
	assert.Equal(t, 7, cfg.TopK)
	assert.Equal(t, float32(0.9), cfg.Threshold)
}

func TestConfig_Clone(t *testing.T) {
	cfg := Config{Labels: []Label{{Name: "a"}}, Issues: []Issue{{ID: "1", Title: "t"}}}
	clone := cfg.Clone()
	clone.Labels[0].Name = "b"
	clone.Issues[0].Title = "changed"
	assert.Equal(t, "a", cfg.Labels[0].Name)
	assert.Equal(t, "t", cfg.Issues[0].Title)
}

func TestConfig_ResolveLabels(t *testing.T) {
	dir := t.TempDir()
	labelsPath := filepath.Join(dir, "labels.txt")
	require.NoError(t, os.WriteFile(labelsPath, []byte("area-doc\narea-perf; area-ci"), 0o644))

	cfg := Config{Labels: []Label{{Name: "area-bug"}}, LabelsPath: labelsPath}
	labels, err := cfg.ResolveLabels()
	require.NoError(t, err)
	assert.Equal(t, []Label{{Name: "area-bug"}, {Name: "area-doc"}, {Name: "area-perf"}, {Name: "area-ci"}}, labels)

	_, err = Config{}.ResolveLabels()
	require.Error(t, err)

	_, err = Config{LabelsPath: filepath.Join(dir, "missing.txt")}.ResolveLabels()
	require.Error(t, err)
}
