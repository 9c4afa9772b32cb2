package workflow

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"salesml/pkg/model"
	"salesml/pkg/table"
)

func featureDataset(t *testing.T, vecs [][]float64, labels []float64) *table.Dataset {
	t.Helper()
	ds, err := table.New(len(vecs)).WithVectors("features", vecs)
	require.NoError(t, err)
	ds, err = ds.WithFloats("Sales", labels)
	require.NoError(t, err)
	return ds
}

func TestSplitCompleteAndDisjoint(t *testing.T) {
	n := 100
	vecs := make([][]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		vecs[i] = []float64{float64(i)}
		labels[i] = float64(i)
	}
	ds := featureDataset(t, vecs, labels)

	for _, ratio := range []float64{0.1, 0.3, 0.5, 0.9} {
		train, val, err := Split(ds, ratio, 7)
		require.NoError(t, err)
		require.Equal(t, n, train.NumRows()+val.NumRows())

		seen := map[float64]bool{}
		for _, part := range []*table.Dataset{train, val} {
			ys, err := part.Floats("Sales")
			require.NoError(t, err)
			for _, y := range ys {
				require.False(t, seen[y], "row appears in both splits")
				seen[y] = true
			}
		}
		require.Len(t, seen, n)
	}
}

func TestSplitReproducible(t *testing.T) {
	ds := featureDataset(t,
		[][]float64{{1}, {2}, {3}, {4}, {5}, {6}},
		[]float64{1, 2, 3, 4, 5, 6})

	_, val1, err := Split(ds, 0.5, 42)
	require.NoError(t, err)
	_, val2, err := Split(ds, 0.5, 42)
	require.NoError(t, err)

	y1, err := val1.Floats("Sales")
	require.NoError(t, err)
	y2, err := val2.Floats("Sales")
	require.NoError(t, err)
	require.Equal(t, y1, y2)

	_, val3, err := Split(ds, 0.5, 43)
	require.NoError(t, err)
	y3, err := val3.Floats("Sales")
	require.NoError(t, err)
	require.NotEqual(t, y1, y3)
}

func TestSplitRatioBounds(t *testing.T) {
	ds := featureDataset(t, [][]float64{{1}}, []float64{1})
	for _, ratio := range []float64{0, 1, -0.5, 1.5} {
		_, _, err := Split(ds, ratio, 1)
		require.Error(t, err)
	}
}

func TestTrainEvaluateRoundTrip(t *testing.T) {
	n := 60
	vecs := make([][]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		vecs[i] = []float64{float64(i % 10)}
		labels[i] = float64(i%10) * 2
	}
	ds := featureDataset(t, vecs, labels)

	train, val, err := Split(ds, 0.25, 3)
	require.NoError(t, err)

	reg := model.NewGBTRegressor(
		model.WithNTrees(60),
		model.WithLearningRate(0.2),
		model.WithMaxDepth(4),
		model.WithRandomState(3),
	)
	require.NoError(t, Train(train, "features", "Sales", reg))

	preds, actuals, rmse, err := Evaluate(reg, val, "features", "Sales")
	require.NoError(t, err)
	require.Len(t, preds, val.NumRows())
	require.Len(t, actuals, val.NumRows())
	require.Less(t, rmse, 1.0)
}

func TestEvaluateEmptyValidation(t *testing.T) {
	empty := featureDataset(t, nil, nil)
	reg := model.NewGBTRegressor()
	_, _, _, err := Evaluate(reg, empty, "features", "Sales")
	require.Error(t, err)
	var ede *EmptyDatasetError
	require.ErrorAs(t, err, &ede)
}

func TestEvaluateMissingColumn(t *testing.T) {
	ds := featureDataset(t, [][]float64{{1}}, []float64{1})
	reg := model.NewGBTRegressor()
	_, _, _, err := Evaluate(reg, ds, "nope", "Sales")
	var se *table.SchemaError
	require.ErrorAs(t, err, &se)
}

func TestWriteSchemaAndSamples(t *testing.T) {
	ds := featureDataset(t, [][]float64{{1}}, []float64{2})

	var buf bytes.Buffer
	WriteSchema(&buf, ds)
	out := buf.String()
	require.Contains(t, out, "features")
	require.Contains(t, out, "vector")
	require.Contains(t, out, "1 rows")

	buf.Reset()
	WriteSamples(&buf, []float64{1.5}, []float64{2.0}, 10)
	out = buf.String()
	require.Contains(t, out, "1.50")
	require.Contains(t, out, "2.00")
}
