package model

import (
	"math"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// RegressionTree is a CART-style regression tree splitting on variance
// reduction. Missing feature values must be math.NaN(); each split learns
// which side its NaNs go to.
type RegressionTree struct {
	MaxDepth            int     // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit     int     // minimum samples to attempt a split
	MinSamplesLeaf      int     // minimum samples required in each leaf
	MinVarianceDecrease float64 // minimal impurity decrease to accept a split

	root *rtNode
}

// rtNode holds a node in the tree.
type rtNode struct {
	isLeaf    bool
	feature   int
	threshold float64 // x <= threshold => left
	nanLeft   bool    // where NaN values of this feature are routed
	left      *rtNode
	right     *rtNode

	// leaf data
	n     int
	value float64 // mean target of samples reaching this leaf
}

// TreeOption functional config for RegressionTree.
type TreeOption func(*RegressionTree)

func WithTreeMaxDepth(d int) TreeOption { return func(t *RegressionTree) { t.MaxDepth = d } }
func WithTreeMinSamplesSplit(n int) TreeOption {
	return func(t *RegressionTree) { t.MinSamplesSplit = n }
}
func WithTreeMinSamplesLeaf(n int) TreeOption {
	return func(t *RegressionTree) { t.MinSamplesLeaf = n }
}
func WithTreeMinVarianceDecrease(v float64) TreeOption {
	return func(t *RegressionTree) { t.MinVarianceDecrease = v }
}

// NewRegressionTree returns a tree with sensible defaults.
func NewRegressionTree(opts ...TreeOption) *RegressionTree {
	t := &RegressionTree{
		MaxDepth:            0,
		MinSamplesSplit:     2,
		MinSamplesLeaf:      1,
		MinVarianceDecrease: 0.0,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Fit trains the tree on X (n x p) and y (n targets).
func (t *RegressionTree) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("rtree: empty X")
	}
	n := len(X)
	if len(y) != n {
		return errors.New("rtree: X and y length mismatch")
	}
	p := len(X[0])
	for i := range X {
		if len(X[i]) != p {
			return errors.New("rtree: inconsistent number of features in X rows")
		}
	}

	idx := make([]int, n)
	for i := 0; i < n; i++ {
		idx[i] = i
	}
	t.root = t.buildNode(X, y, idx, 0, p)
	return nil
}

// Predict returns the predicted targets for rows in X.
func (t *RegressionTree) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range X {
		out[i] = t.predictSingle(X[i])
	}
	return out
}

func (t *RegressionTree) predictSingle(x []float64) float64 {
	node := t.root
	for !node.isLeaf {
		v := x[node.feature]
		switch {
		case math.IsNaN(v):
			if node.nanLeft {
				node = node.left
			} else {
				node = node.right
			}
		case v <= node.threshold:
			node = node.left
		default:
			node = node.right
		}
	}
	return node.value
}

// rtSplitResult holds the best split found for one feature.
type rtSplitResult struct {
	gain      float64
	feature   int
	threshold float64
	nanLeft   bool
}

// rtPair is a value with its original sample index.
type rtPair struct {
	v float64
	i int
}

// sse computes sum of squared errors around the mean from running sums.
func sse(sum, sumSq float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sumSq - sum*sum/float64(n)
}

func (t *RegressionTree) buildNode(X [][]float64, y []float64, idx []int, depth, p int) *rtNode {
	node := &rtNode{n: len(idx)}

	targets := make([]float64, len(idx))
	sum, sumSq := 0.0, 0.0
	for i, ii := range idx {
		targets[i] = y[ii]
		sum += y[ii]
		sumSq += y[ii] * y[ii]
	}
	node.value = stat.Mean(targets, nil)
	parentSSE := sse(sum, sumSq, len(idx))

	if parentSSE <= 0 || (t.MinSamplesSplit > 0 && len(idx) < t.MinSamplesSplit) {
		node.isLeaf = true
		return node
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		node.isLeaf = true
		return node
	}

	// Search every feature's best split in parallel.
	results := make(chan rtSplitResult, p)
	var wg sync.WaitGroup
	for f := 0; f < p; f++ {
		wg.Add(1)
		go func(f int) {
			defer wg.Done()
			results <- t.findBestSplitForFeature(X, y, idx, f, parentSSE)
		}(f)
	}
	wg.Wait()
	close(results)

	best := rtSplitResult{gain: 0, feature: -1}
	for r := range results {
		if r.feature < 0 {
			continue
		}
		if r.gain > best.gain || (r.gain == best.gain && best.feature >= 0 && r.feature < best.feature) {
			best = r
		}
	}

	if best.feature == -1 || best.gain <= t.MinVarianceDecrease {
		node.isLeaf = true
		return node
	}

	leftIdx := make([]int, 0, len(idx))
	rightIdx := make([]int, 0, len(idx))
	for _, ii := range idx {
		v := X[ii][best.feature]
		switch {
		case math.IsNaN(v):
			if best.nanLeft {
				leftIdx = append(leftIdx, ii)
			} else {
				rightIdx = append(rightIdx, ii)
			}
		case v <= best.threshold:
			leftIdx = append(leftIdx, ii)
		default:
			rightIdx = append(rightIdx, ii)
		}
	}
	if len(leftIdx) == 0 || len(rightIdx) == 0 {
		node.isLeaf = true
		return node
	}

	node.feature = best.feature
	node.threshold = best.threshold
	node.nanLeft = best.nanLeft
	node.left = t.buildNode(X, y, leftIdx, depth+1, p)
	node.right = t.buildNode(X, y, rightIdx, depth+1, p)
	return node
}

// findBestSplitForFeature is a goroutine-safe helper that scans the sorted
// values of feature f with running sums, trying NaNs on both sides of every
// candidate threshold.
func (t *RegressionTree) findBestSplitForFeature(X [][]float64, y []float64, idx []int, f int, parentSSE float64) rtSplitResult {
	result := rtSplitResult{gain: 0, feature: -1}

	valid := make([]rtPair, 0, len(idx))
	nanSum, nanSumSq := 0.0, 0.0
	nanN := 0
	for _, ii := range idx {
		v := X[ii][f]
		if math.IsNaN(v) {
			nanSum += y[ii]
			nanSumSq += y[ii] * y[ii]
			nanN++
			continue
		}
		valid = append(valid, rtPair{v, ii})
	}
	if len(valid) < 2 {
		return result
	}
	sort.Slice(valid, func(a, b int) bool { return valid[a].v < valid[b].v })

	totalSum, totalSumSq := nanSum, nanSumSq
	for _, pv := range valid {
		totalSum += y[pv.i]
		totalSumSq += y[pv.i] * y[pv.i]
	}
	total := len(valid) + nanN

	leftSum, leftSumSq := 0.0, 0.0
	for i := 0; i < len(valid)-1; i++ {
		yv := y[valid[i].i]
		leftSum += yv
		leftSumSq += yv * yv
		if valid[i].v == valid[i+1].v {
			continue
		}
		threshold := (valid[i].v + valid[i+1].v) / 2
		nLeft := i + 1
		nRight := len(valid) - nLeft

		// NaNs on the right
		if t.okLeafSizes(nLeft, nRight+nanN) {
			g := parentSSE -
				sse(leftSum, leftSumSq, nLeft) -
				sse(totalSum-leftSum, totalSumSq-leftSumSq, total-nLeft)
			if g > result.gain {
				result = rtSplitResult{gain: g, feature: f, threshold: threshold, nanLeft: false}
			}
		}
		// NaNs on the left
		if nanN > 0 && t.okLeafSizes(nLeft+nanN, nRight) {
			g := parentSSE -
				sse(leftSum+nanSum, leftSumSq+nanSumSq, nLeft+nanN) -
				sse(totalSum-leftSum-nanSum, totalSumSq-leftSumSq-nanSumSq, total-nLeft-nanN)
			if g > result.gain {
				result = rtSplitResult{gain: g, feature: f, threshold: threshold, nanLeft: true}
			}
		}
	}
	return result
}

func (t *RegressionTree) okLeafSizes(nLeft, nRight int) bool {
	return nLeft >= t.MinSamplesLeaf && nRight >= t.MinSamplesLeaf
}
