package dataprep

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"salesml/pkg/table"
)

func TestVectorAssemblerConcatenatesInOrder(t *testing.T) {
	ds, err := table.New(2).WithFloats("a", []float64{1, 2})
	require.NoError(t, err)
	ds, err = ds.WithVectors("v", [][]float64{{10, 11}, {20, 21}})
	require.NoError(t, err)
	ds, err = ds.WithFloats("b", []float64{5, 6})
	require.NoError(t, err)

	fitted, err := NewVectorAssembler([]string{"v", "a", "b"}, "features").Fit(ds)
	require.NoError(t, err)
	out, err := fitted.Transform(ds)
	require.NoError(t, err)

	vecs, err := out.Vectors("features")
	require.NoError(t, err)
	require.Equal(t, [][]float64{{10, 11, 1, 5}, {20, 21, 2, 6}}, vecs)
}

func TestVectorAssemblerDropsInvalidRows(t *testing.T) {
	ds, err := table.New(3).WithFloats("a", []float64{1, math.NaN(), 3})
	require.NoError(t, err)
	ds, err = ds.WithVectors("v", [][]float64{{1}, {2}, nil})
	require.NoError(t, err)

	fitted, err := NewVectorAssembler([]string{"a", "v"}, "features").Fit(ds)
	require.NoError(t, err)
	m := fitted.(*VectorAssemblerModel)

	out, err := m.Transform(ds)
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())
	require.Equal(t, 2, m.Dropped())

	vecs, err := out.Vectors("features")
	require.NoError(t, err)
	require.Equal(t, [][]float64{{1, 1}}, vecs)

	// surviving row keeps its other column values
	a, err := out.Floats("a")
	require.NoError(t, err)
	require.Equal(t, []float64{1}, a)
}

func TestVectorAssemblerMissingColumnIsSchemaError(t *testing.T) {
	ds, err := table.New(1).WithFloats("a", []float64{1})
	require.NoError(t, err)

	_, err = NewVectorAssembler([]string{"a", "nope"}, "features").Fit(ds)
	require.Error(t, err)
	var se *table.SchemaError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "nope", se.Column)
}

func TestVectorAssemblerRejectsStringColumn(t *testing.T) {
	ds, err := table.New(1).WithStrings("s", []string{"x"})
	require.NoError(t, err)
	_, err = NewVectorAssembler([]string{"s"}, "features").Fit(ds)
	require.Error(t, err)
}
