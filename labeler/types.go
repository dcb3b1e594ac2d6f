package labeler

import "encoding/json"

// Issue is a free-text record awaiting triage.
type Issue struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ScoreVector is the raw classifier output for one issue: one score per known
// label, index-aligned with Labels.
type ScoreVector struct {
	Labels []string
	Scores []float32
}

// Len returns the number of classes in the vector.
func (v ScoreVector) Len() int {
	return len(v.Scores)
}

// Prediction is a single ranked label for an issue.
type Prediction struct {
	Label string  `json:"label"`
	Score float32 `json:"score"`
	// Index is the position of the label within the source ScoreVector.
	Index int `json:"index"`
}

// Triage holds the ranked predictions and acceptance decision for one issue.
type Triage struct {
	RunID       string       `json:"runId,omitempty"`
	Issue       Issue        `json:"issue"`
	Predictions []Prediction `json:"predictions"`
	Recommended bool         `json:"recommended"`
}

// Top returns the highest ranked prediction, if any.
func (t Triage) Top() (Prediction, bool) {
	if len(t.Predictions) == 0 {
		return Prediction{}, false
	}
	return t.Predictions[0], true
}

// Label is a class known to the classifier. Text is the prototype phrase used
// to embed the label and defaults to Name.
type Label struct {
	Name string `json:"name" yaml:"name"`
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

// EmbedderConfig wraps the configuration for the ORT embedder and cache.
type EmbedderConfig struct {
	OrtDLL        string `json:"ortDll" yaml:"ortDll"`
	ModelPath     string `json:"modelPath" yaml:"modelPath"`
	TokenizerPath string `json:"tokenizerPath" yaml:"tokenizerPath"`
	MaxSeqLen     int    `json:"maxSeqLen" yaml:"maxSeqLen"`
	CacheDir      string `json:"cacheDir" yaml:"cacheDir"`
	ModelID       string `json:"modelId" yaml:"modelId"`
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	TopK            int            `json:"topK" yaml:"topK"`
	Threshold       float32        `json:"threshold" yaml:"threshold"`
	ContinueOnError bool           `json:"continueOnError" yaml:"continueOnError"`
	Labels          []Label        `json:"labels,omitempty" yaml:"labels,omitempty"`
	LabelsPath      string         `json:"labelsPath,omitempty" yaml:"labelsPath,omitempty"`
	Issue           Issue          `json:"issue" yaml:"issue"`
	Issues          []Issue        `json:"issues,omitempty" yaml:"issues,omitempty"`
	InputPath       string         `json:"inputPath,omitempty" yaml:"inputPath,omitempty"`
	StorePath       string         `json:"storePath,omitempty" yaml:"storePath,omitempty"`
	Embedder        EmbedderConfig `json:"embedder" yaml:"embedder"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.Embedder.MaxSeqLen == 0 {
		c.Embedder.MaxSeqLen = 512
	}
}

const (
	// DefaultTopK is the number of ranked labels reported per issue.
	DefaultTopK = 3
	// DefaultThreshold is the minimum top score for a recommended prediction.
	DefaultThreshold float32 = 0.30
)
