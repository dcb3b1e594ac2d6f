package labeler

import (
	"math"
	"sync"
)

// VectorItem represents an embedded label within a vector index.
type VectorItem struct {
	Label  string
	Vector []float32
}

// InMemoryIndex is a brute-force label index scored with cosine similarity.
type InMemoryIndex struct {
	mu    sync.RWMutex
	items []VectorItem
}

// NewInMemoryIndex constructs an empty index.
func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{}
}

// Replace swaps the stored items atomically.
func (idx *InMemoryIndex) Replace(items []VectorItem) {
	next := make([]VectorItem, len(items))
	for i, it := range items {
		next[i] = VectorItem{
			Label:  it.Label,
			Vector: cloneVector(it.Vector),
		}
	}
	idx.mu.Lock()
	idx.items = next
	idx.mu.Unlock()
}

// Size returns the current number of vectors stored.
func (idx *InMemoryIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.items)
}

// Labels returns the indexed label names in index order.
func (idx *InMemoryIndex) Labels() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, len(idx.items))
	for i, it := range idx.items {
		out[i] = it.Label
	}
	return out
}

// Scores computes the cosine similarity of vec against every stored item.
// The result is index-aligned with the stored items and is not sorted.
func (idx *InMemoryIndex) Scores(vec []float32) ScoreVector {
	idx.mu.RLock()
	items := idx.items
	idx.mu.RUnlock()
	out := ScoreVector{
		Labels: make([]string, len(items)),
		Scores: make([]float32, len(items)),
	}
	for i, it := range items {
		out.Labels[i] = it.Label
		out.Scores[i] = cosineSimilarity(vec, it.Vector)
	}
	return out
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		fa := float64(a[i])
		fb := float64(b[i])
		dot += fa * fb
		na += fa * fa
		nb += fb * fb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func cloneVector(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
