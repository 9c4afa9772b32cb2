package table

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithColumnsAndAccessors(t *testing.T) {
	ds := New(3)
	ds, err := ds.WithStrings("city", []string{"a", "b", "a"})
	require.NoError(t, err)
	ds, err = ds.WithFloats("price", []float64{1, 2, 3})
	require.NoError(t, err)

	require.Equal(t, 3, ds.NumRows())
	require.Equal(t, Schema{{Name: "city", Type: String}, {Name: "price", Type: Float}}, ds.Schema())

	got, err := ds.Strings("city")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "a"}, got)

	_, err = ds.Floats("missing")
	require.Error(t, err)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "missing", se.Column)
}

func TestWithColumnLengthMismatch(t *testing.T) {
	ds := New(2)
	_, err := ds.WithFloats("x", []float64{1})
	require.Error(t, err)
}

func TestAppendDoesNotMutateOriginal(t *testing.T) {
	ds := New(2)
	ds, err := ds.WithFloats("x", []float64{1, 2})
	require.NoError(t, err)

	ds2, err := ds.WithFloats("y", []float64{3, 4})
	require.NoError(t, err)

	require.False(t, ds.Schema().Has("y"))
	require.True(t, ds2.Schema().Has("y"))
	require.True(t, ds2.Schema().Has("x"))
}

func TestReplaceColumn(t *testing.T) {
	ds := New(2)
	ds, err := ds.WithFloats("x", []float64{1, 2})
	require.NoError(t, err)
	ds, err = ds.WithFloats("x", []float64{5, 6})
	require.NoError(t, err)

	require.Len(t, ds.Schema(), 1)
	got, err := ds.Floats("x")
	require.NoError(t, err)
	require.Equal(t, []float64{5, 6}, got)
}

func TestTake(t *testing.T) {
	ds := New(4)
	ds, err := ds.WithFloats("x", []float64{10, 20, 30, 40})
	require.NoError(t, err)
	ds, err = ds.WithStrings("s", []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	ds, err = ds.WithVectors("v", [][]float64{{1}, {2}, {3}, {4}})
	require.NoError(t, err)

	sub := ds.Take([]int{3, 1})
	require.Equal(t, 2, sub.NumRows())

	x, err := sub.Floats("x")
	require.NoError(t, err)
	require.Equal(t, []float64{40, 20}, x)
	s, err := sub.Strings("s")
	require.NoError(t, err)
	require.Equal(t, []string{"d", "b"}, s)
	v, err := sub.Vectors("v")
	require.NoError(t, err)
	require.Equal(t, [][]float64{{4}, {2}}, v)
}
