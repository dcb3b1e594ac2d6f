package labeler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Classifier scores an issue against every known label.
// Implementations must be safe for concurrent Predict calls.
type Classifier interface {
	Predict(ctx context.Context, issue Issue) (ScoreVector, error)
	ModelID() string
}

// VectorClassifier scores issues by cosine similarity between the embedded
// issue text and an embedded prototype per label.
type VectorClassifier struct {
	embedder Embedder
	index    *InMemoryIndex
	logger   *slog.Logger
}

// NewVectorClassifier constructs a classifier and embeds the given labels.
func NewVectorClassifier(ctx context.Context, embedder Embedder, labels []Label, logger *slog.Logger) (*VectorClassifier, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	c := &VectorClassifier{
		embedder: embedder,
		index:    NewInMemoryIndex(),
		logger:   orDiscard(logger),
	}
	if err := c.LoadLabels(ctx, labels); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadLabels embeds the provided labels and replaces the current index.
// Duplicate names are dropped, keeping the first occurrence.
func (c *VectorClassifier) LoadLabels(ctx context.Context, labels []Label) error {
	cleaned := make([]Label, 0, len(labels))
	seen := make(map[string]struct{})
	for _, label := range labels {
		name := NormalizeText(label.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		text := NormalizeText(label.Text)
		if text == "" {
			text = name
		}
		cleaned = append(cleaned, Label{Name: name, Text: text})
	}
	if len(cleaned) == 0 {
		c.index.Replace(nil)
		c.logger.Info("label set cleared")
		return nil
	}
	texts := make([]string, len(cleaned))
	for i, label := range cleaned {
		texts[i] = label.Text
	}
	vecs, err := c.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed labels: %w", err)
	}
	items := make([]VectorItem, len(cleaned))
	for i, label := range cleaned {
		items[i] = VectorItem{Label: label.Name, Vector: vecs[i]}
	}
	c.index.Replace(items)
	c.logger.Info("loaded labels", "count", len(items), "model", c.embedder.ModelID())
	return nil
}

// LabelCount returns how many labels are indexed.
func (c *VectorClassifier) LabelCount() int {
	return c.index.Size()
}

// ModelID returns the identifier of the underlying embedder.
func (c *VectorClassifier) ModelID() string {
	return c.embedder.ModelID()
}

// Predict embeds the issue text and scores it against every label.
func (c *VectorClassifier) Predict(ctx context.Context, issue Issue) (ScoreVector, error) {
	text := IssueText(issue)
	if text == "" {
		return ScoreVector{}, fmt.Errorf("%w: issue %q has no text", ErrInvalidRecord, issue.ID)
	}
	if c.index.Size() == 0 {
		return ScoreVector{}, fmt.Errorf("%w: no labels loaded", ErrClassifierUnavailable)
	}
	vec, err := c.embedder.EmbedText(ctx, text)
	if err != nil {
		return ScoreVector{}, fmt.Errorf("%w: embed issue %q: %v", ErrClassifierUnavailable, issue.ID, err)
	}
	return c.index.Scores(vec), nil
}

// Close releases embedder resources.
func (c *VectorClassifier) Close() error {
	if c.embedder != nil {
		return c.embedder.Close()
	}
	return nil
}
