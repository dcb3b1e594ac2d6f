package labeler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// RecordFailure describes an issue that could not be triaged during a run
// with ContinueOnError enabled.
type RecordFailure struct {
	Issue Issue
	Err   error
}

// BatchResult summarises a batch triage run.
type BatchResult struct {
	RunID    string
	Entries  []Triage
	Skipped  int
	Failures []RecordFailure
}

// Recommended returns the entries whose top prediction cleared the threshold.
func (r *BatchResult) Recommended() []Triage {
	var out []Triage
	for _, e := range r.Entries {
		if e.Recommended {
			out = append(out, e)
		}
	}
	return out
}

// Triager classifies issues, ranks the labels and applies the acceptance threshold.
type Triager struct {
	classifier      Classifier
	topK            int
	threshold       float32
	continueOnError bool
	logger          *slog.Logger
}

// NewTriager constructs a triager with the given classifier and configuration.
func NewTriager(classifier Classifier, cfg Config, logger *slog.Logger) (*Triager, error) {
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	cfg.ApplyDefaults()
	return &Triager{
		classifier:      classifier,
		topK:            cfg.TopK,
		threshold:       cfg.Threshold,
		continueOnError: cfg.ContinueOnError,
		logger:          orDiscard(logger),
	}, nil
}

// Threshold returns the acceptance threshold in use.
func (t *Triager) Threshold() float32 {
	return t.threshold
}

// Predict classifies a single issue and returns its ranked labels without
// applying the acceptance threshold.
func (t *Triager) Predict(ctx context.Context, issue Issue) ([]Prediction, error) {
	vec, err := t.classifier.Predict(ctx, issue)
	if err != nil {
		return nil, err
	}
	preds, err := SelectTopKVector(vec, t.topK)
	if err != nil {
		return nil, fmt.Errorf("rank issue %q: %w", issue.ID, err)
	}
	return preds, nil
}

// Triage ranks an issue and flags it as recommended when its top score
// reaches the threshold.
func (t *Triager) Triage(ctx context.Context, issue Issue) (Triage, error) {
	preds, err := t.Predict(ctx, issue)
	if err != nil {
		return Triage{}, err
	}
	entry := Triage{Issue: issue, Predictions: preds}
	if top, ok := entry.Top(); ok {
		entry.Recommended = top.Score >= t.threshold
	}
	return entry, nil
}

// Run triages every issue from source and hands each entry to reporter.
// Issues with an empty title are skipped. By default the first classifier
// failure aborts the run and the partial result is returned with the error.
func (t *Triager) Run(ctx context.Context, source IssueSource, reporter Reporter) (*BatchResult, error) {
	result := &BatchResult{RunID: uuid.NewString()}
	issues, err := source.LoadIssues(ctx)
	if err != nil {
		return result, fmt.Errorf("load issues: %w", err)
	}
	logger := t.logger.With("run", result.RunID)
	logger.Info("triage started", "issues", len(issues), "threshold", t.threshold, "model", t.classifier.ModelID())
	for _, issue := range issues {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if len(issue.Title) == 0 {
			result.Skipped++
			logger.Debug("skipping issue without title", "id", issue.ID)
			continue
		}
		entry, err := t.Triage(ctx, issue)
		if err != nil {
			if !t.continueOnError {
				return result, fmt.Errorf("triage issue %q: %w", issue.ID, err)
			}
			logger.Warn("triage failed", "id", issue.ID, "err", err)
			result.Failures = append(result.Failures, RecordFailure{Issue: issue, Err: err})
			continue
		}
		entry.RunID = result.RunID
		if reporter != nil {
			if err := reporter.Emit(ctx, entry); err != nil {
				return result, fmt.Errorf("report issue %q: %w", issue.ID, err)
			}
		}
		result.Entries = append(result.Entries, entry)
		if top, ok := entry.Top(); ok {
			logger.Debug("issue triaged", "id", issue.ID, "label", top.Label, "score", top.Score, "recommended", entry.Recommended)
		}
	}
	logger.Info("triage finished",
		"triaged", len(result.Entries),
		"recommended", len(result.Recommended()),
		"skipped", result.Skipped,
		"failed", len(result.Failures))
	return result, nil
}
