package emb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
)

func TestPool_Pooled(t *testing.T) {
	vec, err := pool(ort.NewShape(1, 3), []float32{1, 2, 3}, []int{1})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}

func TestPool_MeanOverMask(t *testing.T) {
	data := []float32{
		1, 2,
		3, 4,
		100, 100,
	}
	vec, err := pool(ort.NewShape(1, 3, 2), data, []int{1, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3}, vec)
}

func TestPool_Errors(t *testing.T) {
	_, err := pool(ort.NewShape(1, 4), []float32{1, 2}, nil)
	require.Error(t, err)
	_, err = pool(ort.NewShape(1, 2, 2), []float32{1, 2, 3}, []int{1, 1})
	require.Error(t, err)
	_, err = pool(ort.NewShape(4), []float32{1, 2, 3, 4}, nil)
	require.Error(t, err)
}

func TestL2Normalize(t *testing.T) {
	vec := []float32{3, 4}
	l2Normalize(vec)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1, math.Sqrt(norm), 1e-6)

	zero := []float32{0, 0}
	l2Normalize(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, []int{101, 5, 102}, truncate([]int{101, 5, 102}, 8))
	assert.Equal(t, []int{101, 5, 102}, truncate([]int{101, 5, 6, 7, 102}, 3))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, []int{1, 1, 1}, onesLike([]int{7, 8, 9}))
	assert.Equal(t, []int64{1, -2, 3}, toInt64([]int{1, -2, 3}))
}

func TestEncoder_Uninitialized(t *testing.T) {
	var e Encoder
	_, err := e.Encode("hello")
	require.Error(t, err)
	e.Close()
}

func TestInit_RequiresPaths(t *testing.T) {
	var e Encoder
	require.Error(t, e.Init(Config{}))
	require.Error(t, e.Init(Config{ModelPath: "model.onnx"}))
}
