package dataprep

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"salesml/pkg/pipeline"
	"salesml/pkg/table"
)

// MinMaxScaler rescales every dimension of a vector column into [0,1] using
// the per-dimension min and max learned at fit time. A zero-range dimension
// (max == min) scales to exactly 0.0; plain division would yield NaN there.
// Values outside the fitted range, which can occur when transforming
// validation data, are clamped.
type MinMaxScaler struct {
	Column string
	Output string
}

func NewMinMaxScaler(column, output string) *MinMaxScaler {
	return &MinMaxScaler{Column: column, Output: output}
}

func (s *MinMaxScaler) Name() string           { return "scale:" + s.Column }
func (s *MinMaxScaler) InputColumns() []string { return []string{s.Column} }
func (s *MinMaxScaler) OutputColumn() string   { return s.Output }

// Fit learns per-dimension min and max over the vector column.
func (s *MinMaxScaler) Fit(ds *table.Dataset) (pipeline.FittedStage, error) {
	col, err := ds.Vectors(s.Column)
	if err != nil {
		return nil, errors.Wrapf(err, "scaling %s", s.Column)
	}
	if len(col) == 0 {
		return nil, errors.Errorf("scaling %s: no rows to fit", s.Column)
	}
	dims := len(col[0])
	mins := make([]float64, dims)
	maxs := make([]float64, dims)
	buf := make([]float64, len(col))
	for d := 0; d < dims; d++ {
		for i, row := range col {
			buf[i] = row[d]
		}
		mins[d] = floats.Min(buf)
		maxs[d] = floats.Max(buf)
	}
	return &MinMaxScalerModel{column: s.Column, output: s.Output, mins: mins, maxs: maxs}, nil
}

// MinMaxScalerModel holds the fitted per-dimension range of one MinMaxScaler.
type MinMaxScalerModel struct {
	column string
	output string
	mins   []float64
	maxs   []float64
}

func (m *MinMaxScalerModel) Name() string         { return "scale:" + m.column }
func (m *MinMaxScalerModel) OutputColumn() string { return m.output }

// Range returns the fitted min and max vectors.
func (m *MinMaxScalerModel) Range() (mins, maxs []float64) { return m.mins, m.maxs }

// Transform appends the scaled vector column. Rows are independent, so the
// work is chunked across workers; each worker writes its own index range.
func (m *MinMaxScalerModel) Transform(ds *table.Dataset) (*table.Dataset, error) {
	col, err := ds.Vectors(m.column)
	if err != nil {
		return nil, errors.Wrapf(err, "scaling %s", m.column)
	}
	n := len(col)
	out := make([][]float64, n)

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
				out[i] = m.scaleRow(col[i])
			}
		}(lo, hi)
	}
	wg.Wait()
	return ds.WithVectors(m.output, out)
}

func (m *MinMaxScalerModel) scaleRow(row []float64) []float64 {
	scaled := make([]float64, len(row))
	for d, v := range row {
		span := m.maxs[d] - m.mins[d]
		if span == 0 {
			scaled[d] = 0
			continue
		}
		x := (v - m.mins[d]) / span
		if x < 0 {
			x = 0
		} else if x > 1 {
			x = 1
		}
		scaled[d] = x
	}
	return scaled
}
