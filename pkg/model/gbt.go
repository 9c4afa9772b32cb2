package model

import (
	"math/rand"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"salesml/pkg/logger"
)

// GBTRegressor is a gradient-boosted ensemble of regression trees fit on
// squared-error residuals with shrinkage. Trees are built sequentially, as
// boosting requires, so parallelism lives inside the per-tree split search
// and in Predict.
type GBTRegressor struct {
	// Hyperparameters / options
	NTrees          int
	LearningRate    float64
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Subsample       float64 // fraction of rows per tree; 1.0 => all rows
	RandomState     int64   // seed for row subsampling

	// Internal state
	baseline float64
	trees    []*RegressionTree
}

// GBTOption functional config for GBTRegressor.
type GBTOption func(*GBTRegressor)

func WithNTrees(n int) GBTOption            { return func(g *GBTRegressor) { g.NTrees = n } }
func WithLearningRate(lr float64) GBTOption { return func(g *GBTRegressor) { g.LearningRate = lr } }
func WithMaxDepth(d int) GBTOption          { return func(g *GBTRegressor) { g.MaxDepth = d } }
func WithMinSamplesSplit(n int) GBTOption   { return func(g *GBTRegressor) { g.MinSamplesSplit = n } }
func WithMinSamplesLeaf(n int) GBTOption    { return func(g *GBTRegressor) { g.MinSamplesLeaf = n } }
func WithSubsample(f float64) GBTOption     { return func(g *GBTRegressor) { g.Subsample = f } }
func WithRandomState(seed int64) GBTOption  { return func(g *GBTRegressor) { g.RandomState = seed } }

// NewGBTRegressor initializes the ensemble with sensible defaults.
func NewGBTRegressor(opts ...GBTOption) *GBTRegressor {
	g := &GBTRegressor{
		NTrees:          100,
		LearningRate:    0.1,
		MaxDepth:        5,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Subsample:       1.0,
		RandomState:     1,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Fit trains the ensemble: the baseline is the mean target, and every tree
// fits the residuals left by the model so far.
func (g *GBTRegressor) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("gbt: empty X")
	}
	n := len(X)
	if len(y) != n {
		return errors.New("gbt: X and y length mismatch")
	}
	if g.NTrees <= 0 {
		return errors.New("gbt: NTrees must be positive")
	}

	g.baseline = stat.Mean(y, nil)
	g.trees = make([]*RegressionTree, 0, g.NTrees)

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = g.baseline
	}
	resid := make([]float64, n)
	rnd := rand.New(rand.NewSource(g.RandomState))

	for m := 0; m < g.NTrees; m++ {
		for i := range resid {
			resid[i] = y[i] - pred[i]
		}

		fitX, fitResid := X, resid
		if g.Subsample > 0 && g.Subsample < 1 {
			k := int(g.Subsample * float64(n))
			if k < 1 {
				k = 1
			}
			perm := rnd.Perm(n)[:k]
			fitX = make([][]float64, k)
			fitResid = make([]float64, k)
			for i, j := range perm {
				fitX[i] = X[j]
				fitResid[i] = resid[j]
			}
		}

		tree := NewRegressionTree(
			WithTreeMaxDepth(g.MaxDepth),
			WithTreeMinSamplesSplit(g.MinSamplesSplit),
			WithTreeMinSamplesLeaf(g.MinSamplesLeaf),
		)
		if err := tree.Fit(fitX, fitResid); err != nil {
			return errors.Wrapf(err, "fitting tree %d", m)
		}
		g.trees = append(g.trees, tree)

		for i := range pred {
			pred[i] += g.LearningRate * tree.predictSingle(X[i])
		}

		if (m+1)%20 == 0 || m == g.NTrees-1 {
			logger.Debug("boosting progress",
				zap.Int("trees", m+1),
				zap.Float64("train_rmse", RMSE(y, pred)))
		}
	}
	return nil
}

// Predict sums the baseline and every tree's shrunken contribution.
// Rows are independent, so they are chunked across workers.
func (g *GBTRegressor) Predict(X [][]float64) []float64 {
	n := len(X)
	out := make([]float64, n)

	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, (w+1)*chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				v := g.baseline
				for _, tree := range g.trees {
					v += g.LearningRate * tree.predictSingle(X[i])
				}
				out[i] = v
			}
		}(lo, hi)
	}
	wg.Wait()
	return out
}
