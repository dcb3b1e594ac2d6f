package labeler

import (
	"context"
	"fmt"
)

// IssueSource supplies the issues for a batch triage run.
type IssueSource interface {
	LoadIssues(ctx context.Context) ([]Issue, error)
}

// ConfigSource reads issues defined in the configuration: the single settings
// issue first, followed by the issues list.
type ConfigSource struct {
	cfg Config
}

// NewConfigSource returns a source over a snapshot of cfg.
func NewConfigSource(cfg Config) *ConfigSource {
	return &ConfigSource{cfg: cfg.Clone()}
}

// LoadIssues implements IssueSource.
func (s *ConfigSource) LoadIssues(ctx context.Context) ([]Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Issue, 0, len(s.cfg.Issues)+1)
	if single := s.cfg.Issue; single != (Issue{}) {
		out = append(out, single)
	}
	out = append(out, s.cfg.Issues...)
	return out, nil
}

// FileSource reads issues from a CSV, TSV or plain text file.
type FileSource struct {
	Path    string
	Options IssueParseOptions
}

// LoadIssues implements IssueSource.
func (s FileSource) LoadIssues(ctx context.Context) ([]Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	issues, err := ParseIssueFile(s.Path, s.Options)
	if err != nil {
		return nil, fmt.Errorf("read issues: %w", err)
	}
	return issues, nil
}

// StaticSource serves a fixed list of issues.
type StaticSource []Issue

// LoadIssues implements IssueSource.
func (s StaticSource) LoadIssues(context.Context) ([]Issue, error) {
	return append([]Issue(nil), s...), nil
}
