package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegressionTreeStepFunction(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {10}, {11}, {12}}
	y := []float64{5, 5, 5, 50, 50, 50}

	tree := NewRegressionTree(WithTreeMaxDepth(3))
	require.NoError(t, tree.Fit(X, y))

	preds := tree.Predict([][]float64{{1}, {11}})
	require.InDelta(t, 5, preds[0], 1e-9)
	require.InDelta(t, 50, preds[1], 1e-9)
}

func TestRegressionTreeMissingValues(t *testing.T) {
	nan := math.NaN()
	X := [][]float64{{0}, {1}, {nan}, {10}, {11}, {nan}}
	y := []float64{5, 5, 5, 50, 50, 50}

	tree := NewRegressionTree(WithTreeMaxDepth(4))
	require.NoError(t, tree.Fit(X, y))

	// prediction with a missing feature follows the learned NaN routing
	// and stays within the target range
	p := tree.Predict([][]float64{{nan}})[0]
	require.GreaterOrEqual(t, p, 5.0)
	require.LessOrEqual(t, p, 50.0)
}

func TestRegressionTreeDepthLimit(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{1, 2, 3, 4}

	tree := NewRegressionTree(WithTreeMaxDepth(1))
	require.NoError(t, tree.Fit(X, y))

	// depth 1 means a single split: at most two distinct leaf values
	preds := tree.Predict(X)
	distinct := map[float64]bool{}
	for _, p := range preds {
		distinct[p] = true
	}
	require.LessOrEqual(t, len(distinct), 2)
}

func TestRegressionTreeValidation(t *testing.T) {
	require.Error(t, NewRegressionTree().Fit(nil, nil))
	require.Error(t, NewRegressionTree().Fit([][]float64{{1}}, []float64{1, 2}))
	require.Error(t, NewRegressionTree().Fit([][]float64{{1}, {1, 2}}, []float64{1, 2}))
}
