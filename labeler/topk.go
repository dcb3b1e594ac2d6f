package labeler

import (
	"fmt"
	"math"
)

type rankedSlot struct {
	score float32
	index int
}

// SelectTopK returns the k highest scoring labels ordered by descending score.
// Equal scores keep their original order, so the earlier index ranks first.
// When fewer than k scores are available all of them are returned.
func SelectTopK(scores []float32, labels []string, k int) ([]Prediction, error) {
	if len(scores) != len(labels) {
		return nil, fmt.Errorf("%w: %d scores for %d labels", ErrInvalidInput, len(scores), len(labels))
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidInput, k)
	}
	return assemblePredictions(rankTopK(scores, k), labels)
}

// SelectTopKVector is SelectTopK over a ScoreVector.
func SelectTopKVector(vec ScoreVector, k int) ([]Prediction, error) {
	return SelectTopK(vec.Scores, vec.Labels, k)
}

// rankTopK keeps an ordered buffer of at most k slots while scanning scores once.
func rankTopK(scores []float32, k int) []rankedSlot {
	limit := k
	if len(scores) < limit {
		limit = len(scores)
	}
	buf := make([]rankedSlot, 0, limit+1)
	for i, score := range scores {
		pos := len(buf)
		for j := range buf {
			if outranks(score, buf[j].score) {
				pos = j
				break
			}
		}
		if pos >= k {
			continue
		}
		buf = append(buf, rankedSlot{})
		copy(buf[pos+1:], buf[pos:])
		buf[pos] = rankedSlot{score: score, index: i}
		if len(buf) > k {
			buf = buf[:k]
		}
	}
	return buf
}

// outranks reports whether a must be placed strictly ahead of b.
// NaN ranks below every number.
func outranks(a, b float32) bool {
	aNaN := math.IsNaN(float64(a))
	bNaN := math.IsNaN(float64(b))
	switch {
	case aNaN:
		return false
	case bNaN:
		return true
	default:
		return a > b
	}
}

func assemblePredictions(slots []rankedSlot, labels []string) ([]Prediction, error) {
	out := make([]Prediction, len(slots))
	for i, slot := range slots {
		if slot.index < 0 || slot.index >= len(labels) {
			return nil, fmt.Errorf("%w: ranked index %d outside %d labels", ErrInternal, slot.index, len(labels))
		}
		out[i] = Prediction{
			Label: labels[slot.index],
			Score: slot.score,
			Index: slot.index,
		}
	}
	return out, nil
}
