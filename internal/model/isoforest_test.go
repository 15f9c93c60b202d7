package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvgPathLength(t *testing.T) {
	t.Run("zero below two samples", func(t *testing.T) {
		assert.Equal(t, 0.0, avgPathLength(0))
		assert.Equal(t, 0.0, avgPathLength(1))
	})

	t.Run("grows with sample size", func(t *testing.T) {
		assert.Less(t, avgPathLength(2), avgPathLength(16))
		assert.Less(t, avgPathLength(16), avgPathLength(256))
	})

	t.Run("matches the closed form for n=2", func(t *testing.T) {
		// c(2) = 2(ln 1 + γ) − 2·1/2 = 2γ − 1
		assert.InDelta(t, 2*0.5772156649015329-1, avgPathLength(2), 1e-12)
	})
}

func TestIsolationForest(t *testing.T) {
	// One tree that isolates values above 100 at depth 1 and sends
	// everything else into a large truncated leaf.
	tree := IsoTree{Nodes: []IsoNode{
		{Feature: 0, Threshold: 100, Left: 1, Right: 2},
		{Left: -1, Right: -1, Size: 128},
		{Left: -1, Right: -1, Size: 1},
	}}
	forest, err := NewIsolationForest([]string{"x"}, []IsoTree{tree}, 256)
	require.NoError(t, err)

	t.Run("isolated points score lower than common points", func(t *testing.T) {
		common, err := forest.Score([]float64{50})
		require.NoError(t, err)
		outlier, err := forest.Score([]float64{500})
		require.NoError(t, err)
		assert.Less(t, outlier, common)
	})

	t.Run("short paths drive the score well below zero", func(t *testing.T) {
		outlier, err := forest.Score([]float64{500})
		require.NoError(t, err)
		assert.Less(t, outlier, -0.1)
	})

	t.Run("scores stay on the decision scale", func(t *testing.T) {
		for _, x := range []float64{-10, 50, 100, 500} {
			score, err := forest.Score([]float64{x})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, score, -0.5)
			assert.LessOrEqual(t, score, 0.5)
		}
	})

	t.Run("wrong input width", func(t *testing.T) {
		_, err := forest.Score([]float64{1, 2})
		assert.Error(t, err)
	})

	t.Run("constructor rejects tiny sample size", func(t *testing.T) {
		_, err := NewIsolationForest([]string{"x"}, []IsoTree{tree}, 1)
		assert.Error(t, err)
	})

	t.Run("constructor rejects empty ensemble", func(t *testing.T) {
		_, err := NewIsolationForest([]string{"x"}, nil, 256)
		assert.Error(t, err)
	})
}
