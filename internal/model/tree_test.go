package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// splitTree predicts leftValue when x[0] <= threshold, else rightValue.
func splitTree(threshold, leftValue, rightValue float64) RegressionTree {
	return RegressionTree{Nodes: []TreeNode{
		{Feature: 0, Threshold: threshold, Left: 1, Right: 2},
		{Left: -1, Right: -1, Value: leftValue},
		{Left: -1, Right: -1, Value: rightValue},
	}}
}

func leafTree(value float64) RegressionTree {
	return RegressionTree{Nodes: []TreeNode{{Left: -1, Right: -1, Value: value}}}
}

func TestRegressionTree(t *testing.T) {
	tree := splitTree(10, 1, 2)

	t.Run("descends left on threshold boundary", func(t *testing.T) {
		assert.Equal(t, 1.0, tree.Predict([]float64{10}))
	})

	t.Run("descends right above threshold", func(t *testing.T) {
		assert.Equal(t, 2.0, tree.Predict([]float64{10.01}))
	})

	t.Run("two-level walk", func(t *testing.T) {
		deep := RegressionTree{Nodes: []TreeNode{
			{Feature: 0, Threshold: 5, Left: 1, Right: 2},
			{Feature: 1, Threshold: 0, Left: 3, Right: 4},
			{Left: -1, Right: -1, Value: 30},
			{Left: -1, Right: -1, Value: 10},
			{Left: -1, Right: -1, Value: 20},
		}}
		assert.Equal(t, 10.0, deep.Predict([]float64{4, -1}))
		assert.Equal(t, 20.0, deep.Predict([]float64{4, 1}))
		assert.Equal(t, 30.0, deep.Predict([]float64{6, 0}))
	})
}

func TestBoostedTrees(t *testing.T) {
	features := []string{"x", "y"}

	t.Run("prediction is base score plus tree sum", func(t *testing.T) {
		m := NewBoostedTrees(features, 1.5, []RegressionTree{
			splitTree(0, -0.5, 0.5),
			splitTree(0, -0.25, 0.25),
		})
		got, err := m.Predict([]float64{1, 0})
		require.NoError(t, err)
		assert.InDelta(t, 2.25, got, 1e-12)
	})

	t.Run("no trees reduces to the base score", func(t *testing.T) {
		m := NewBoostedTrees(features, 3.0, nil)
		got, err := m.Predict([]float64{0, 0})
		require.NoError(t, err)
		assert.Equal(t, 3.0, got)
	})

	t.Run("wrong input width", func(t *testing.T) {
		m := NewBoostedTrees(features, 0, nil)
		_, err := m.Predict([]float64{1})
		assert.Error(t, err)
	})
}

func TestRandomForest(t *testing.T) {
	features := []string{"x"}

	t.Run("prediction is the tree mean", func(t *testing.T) {
		m := NewRandomForest(features, []RegressionTree{
			leafTree(2), leafTree(4), leafTree(9),
		})
		got, err := m.Predict([]float64{0})
		require.NoError(t, err)
		assert.InDelta(t, 5.0, got, 1e-12)
	})

	t.Run("empty ensemble is an error", func(t *testing.T) {
		m := NewRandomForest(features, nil)
		_, err := m.Predict([]float64{0})
		assert.Error(t, err)
	})

	t.Run("wrong input width", func(t *testing.T) {
		m := NewRandomForest(features, []RegressionTree{leafTree(1)})
		_, err := m.Predict([]float64{1, 2})
		assert.Error(t, err)
	})
}
