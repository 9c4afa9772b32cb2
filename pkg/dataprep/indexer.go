package dataprep

import (
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"salesml/pkg/logger"
	"salesml/pkg/pipeline"
	"salesml/pkg/table"
)

// StringIndexer maps each distinct value of a categorical string column to an
// integer code. Codes are assigned 0..k-1 by descending frequency in the fit
// data; ties go to the value seen first. Values unseen at fit time transform
// to the reserved unknown code k instead of failing.
type StringIndexer struct {
	Column string
	Output string
}

func NewStringIndexer(column, output string) *StringIndexer {
	return &StringIndexer{Column: column, Output: output}
}

func (ix *StringIndexer) Name() string           { return "index:" + ix.Column }
func (ix *StringIndexer) InputColumns() []string { return []string{ix.Column} }
func (ix *StringIndexer) OutputColumn() string   { return ix.Output }

// Fit scans the column and freezes the value→code vocabulary.
func (ix *StringIndexer) Fit(ds *table.Dataset) (pipeline.FittedStage, error) {
	col, err := ds.Strings(ix.Column)
	if err != nil {
		return nil, errors.Wrapf(err, "indexing %s", ix.Column)
	}

	counts := map[string]int{}
	firstSeen := map[string]int{}
	var values []string
	for i, v := range col {
		if _, ok := counts[v]; !ok {
			firstSeen[v] = i
			values = append(values, v)
		}
		counts[v]++
	}
	sort.Slice(values, func(a, b int) bool {
		va, vb := values[a], values[b]
		if counts[va] != counts[vb] {
			return counts[va] > counts[vb]
		}
		return firstSeen[va] < firstSeen[vb]
	})

	codes := make(map[string]int, len(values))
	for code, v := range values {
		codes[v] = code
	}
	logger.Debug("vocabulary built",
		zap.String("column", ix.Column),
		zap.Int("labels", len(codes)))
	return &StringIndexerModel{
		column:  ix.Column,
		output:  ix.Output,
		codes:   codes,
		unknown: len(codes),
	}, nil
}

// StringIndexerModel is the frozen vocabulary of one StringIndexer fit.
type StringIndexerModel struct {
	column  string
	output  string
	codes   map[string]int
	unknown int
}

func (m *StringIndexerModel) Name() string         { return "index:" + m.column }
func (m *StringIndexerModel) OutputColumn() string { return m.output }

// UnknownCode returns the reserved code for values absent from the vocabulary.
func (m *StringIndexerModel) UnknownCode() int { return m.unknown }

// Code returns the code for v, or the reserved unknown code.
func (m *StringIndexerModel) Code(v string) int {
	if c, ok := m.codes[v]; ok {
		return c
	}
	return m.unknown
}

// Transform appends the coded column. Unseen values map to the unknown code.
func (m *StringIndexerModel) Transform(ds *table.Dataset) (*table.Dataset, error) {
	col, err := ds.Strings(m.column)
	if err != nil {
		return nil, errors.Wrapf(err, "indexing %s", m.column)
	}
	out := make([]float64, len(col))
	unseen := 0
	for i, v := range col {
		c, ok := m.codes[v]
		if !ok {
			c = m.unknown
			unseen++
		}
		out[i] = float64(c)
	}
	if unseen > 0 {
		logger.Debug("unseen categories mapped to unknown code",
			zap.String("column", m.column),
			zap.Int("rows", unseen),
			zap.Int("code", m.unknown))
	}
	return ds.WithFloats(m.output, out)
}
