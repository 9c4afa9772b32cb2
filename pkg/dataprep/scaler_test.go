package dataprep

import (
	"testing"

	"github.com/stretchr/testify/require"

	"salesml/pkg/table"
)

func vectorDataset(t *testing.T, col string, vals [][]float64) *table.Dataset {
	t.Helper()
	ds, err := table.New(len(vals)).WithVectors(col, vals)
	require.NoError(t, err)
	return ds
}

func TestMinMaxScalerScalesToUnitRange(t *testing.T) {
	ds := vectorDataset(t, "f", [][]float64{{0, 100}, {5, 200}, {10, 300}})

	fitted, err := NewMinMaxScaler("f", "scaled").Fit(ds)
	require.NoError(t, err)
	out, err := fitted.Transform(ds)
	require.NoError(t, err)

	vecs, err := out.Vectors("scaled")
	require.NoError(t, err)
	require.Equal(t, [][]float64{{0, 0}, {0.5, 0.5}, {1, 1}}, vecs)
}

func TestMinMaxScalerZeroVarianceDimension(t *testing.T) {
	ds := vectorDataset(t, "f", [][]float64{{7, 1}, {7, 2}, {7, 3}})

	fitted, err := NewMinMaxScaler("f", "scaled").Fit(ds)
	require.NoError(t, err)
	out, err := fitted.Transform(ds)
	require.NoError(t, err)

	vecs, err := out.Vectors("scaled")
	require.NoError(t, err)
	for _, v := range vecs {
		require.Equal(t, 0.0, v[0])
		require.GreaterOrEqual(t, v[1], 0.0)
		require.LessOrEqual(t, v[1], 1.0)
	}
}

func TestMinMaxScalerClampsOutOfRange(t *testing.T) {
	fitDS := vectorDataset(t, "f", [][]float64{{0}, {10}})
	fitted, err := NewMinMaxScaler("f", "scaled").Fit(fitDS)
	require.NoError(t, err)

	later := vectorDataset(t, "f", [][]float64{{-5}, {15}, {5}})
	out, err := fitted.Transform(later)
	require.NoError(t, err)
	vecs, err := out.Vectors("scaled")
	require.NoError(t, err)
	require.Equal(t, [][]float64{{0}, {1}, {0.5}}, vecs)
}

func TestMinMaxScalerManyRows(t *testing.T) {
	// enough rows to exercise the chunked workers
	n := 1000
	vals := make([][]float64, n)
	for i := range vals {
		vals[i] = []float64{float64(i), float64(n - i)}
	}
	ds := vectorDataset(t, "f", vals)

	fitted, err := NewMinMaxScaler("f", "scaled").Fit(ds)
	require.NoError(t, err)
	out, err := fitted.Transform(ds)
	require.NoError(t, err)

	vecs, err := out.Vectors("scaled")
	require.NoError(t, err)
	for i, v := range vecs {
		require.InDelta(t, float64(i)/float64(n-1), v[0], 1e-12)
		require.GreaterOrEqual(t, v[1], 0.0)
		require.LessOrEqual(t, v[1], 1.0)
	}
}

func TestMinMaxScalerMissingColumn(t *testing.T) {
	ds := vectorDataset(t, "f", [][]float64{{1}})
	_, err := NewMinMaxScaler("nope", "scaled").Fit(ds)
	var se *table.SchemaError
	require.ErrorAs(t, err, &se)
}
