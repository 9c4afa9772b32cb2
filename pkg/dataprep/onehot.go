package dataprep

import (
	"math"

	"github.com/pkg/errors"

	"salesml/pkg/pipeline"
	"salesml/pkg/table"
)

// OneHotEncoder expands an integer-coded column into an indicator vector.
// Cardinality is fixed at fit time as max observed code + 1; codes outside
// that range at transform time encode as the all-zero vector, never an
// out-of-bounds index. The only such code in this pipeline is the indexer's
// reserved unknown code, so all-zero is the encoding of "no known category".
type OneHotEncoder struct {
	Column string
	Output string
}

func NewOneHotEncoder(column, output string) *OneHotEncoder {
	return &OneHotEncoder{Column: column, Output: output}
}

func (e *OneHotEncoder) Name() string           { return "onehot:" + e.Column }
func (e *OneHotEncoder) InputColumns() []string { return []string{e.Column} }
func (e *OneHotEncoder) OutputColumn() string   { return e.Output }

// Fit determines the cardinality from the codes observed in ds.
func (e *OneHotEncoder) Fit(ds *table.Dataset) (pipeline.FittedStage, error) {
	col, err := ds.Floats(e.Column)
	if err != nil {
		return nil, errors.Wrapf(err, "one-hot encoding %s", e.Column)
	}
	maxCode := -1
	for _, v := range col {
		if math.IsNaN(v) {
			continue
		}
		if c := int(v); c > maxCode {
			maxCode = c
		}
	}
	if maxCode < 0 {
		return nil, errors.Errorf("one-hot encoding %s: no codes observed", e.Column)
	}
	return &OneHotEncoderModel{
		column:      e.Column,
		output:      e.Output,
		cardinality: maxCode + 1,
	}, nil
}

// OneHotEncoderModel holds the fitted cardinality of one OneHotEncoder.
type OneHotEncoderModel struct {
	column      string
	output      string
	cardinality int
}

func (m *OneHotEncoderModel) Name() string         { return "onehot:" + m.column }
func (m *OneHotEncoderModel) OutputColumn() string { return m.output }

// Cardinality returns the fitted vector width.
func (m *OneHotEncoderModel) Cardinality() int { return m.cardinality }

// Transform appends the indicator vector column.
func (m *OneHotEncoderModel) Transform(ds *table.Dataset) (*table.Dataset, error) {
	col, err := ds.Floats(m.column)
	if err != nil {
		return nil, errors.Wrapf(err, "one-hot encoding %s", m.column)
	}
	out := make([][]float64, len(col))
	for i, v := range col {
		vec := make([]float64, m.cardinality)
		if !math.IsNaN(v) {
			if c := int(v); c >= 0 && c < m.cardinality {
				vec[c] = 1
			}
		}
		out[i] = vec
	}
	return ds.WithVectors(m.output, out)
}
