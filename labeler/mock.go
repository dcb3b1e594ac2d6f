package labeler

import (
	"context"
	"fmt"
	"sync"
)

// MockResult is a canned response for the MockClassifier.
type MockResult struct {
	Vector ScoreVector
	Err    error
}

// MockClassifier is a deterministic Classifier for testing.
// It returns canned results in FIFO order and records all issues it was asked to score.
type MockClassifier struct {
	mu      sync.Mutex
	results []MockResult
	Calls   []Issue
}

// NewMockClassifier creates a MockClassifier with the given canned results.
func NewMockClassifier(results ...MockResult) *MockClassifier {
	return &MockClassifier{results: results}
}

// Predict returns the next canned result or ErrClassifierUnavailable if the
// queue is empty.
func (m *MockClassifier) Predict(_ context.Context, issue Issue) (ScoreVector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, issue)

	if len(m.results) == 0 {
		return ScoreVector{}, fmt.Errorf("%w: no canned result", ErrClassifierUnavailable)
	}
	res := m.results[0]
	m.results = m.results[1:]
	if res.Err != nil {
		return ScoreVector{}, res.Err
	}
	return res.Vector, nil
}

// ModelID returns "mock".
func (m *MockClassifier) ModelID() string {
	return "mock"
}

// CallCount returns the number of Predict calls made.
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// StaticClassifier returns the same vector for every issue.
type StaticClassifier struct {
	Vector ScoreVector
}

// Predict implements Classifier.
func (s StaticClassifier) Predict(context.Context, Issue) (ScoreVector, error) {
	return ScoreVector{
		Labels: append([]string(nil), s.Vector.Labels...),
		Scores: append([]float32(nil), s.Vector.Scores...),
	}, nil
}

// ModelID returns "static".
func (StaticClassifier) ModelID() string {
	return "static"
}
