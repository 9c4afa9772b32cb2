package dataprep

import (
	"math"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"salesml/pkg/logger"
	"salesml/pkg/pipeline"
	"salesml/pkg/table"
)

// VectorAssembler concatenates an ordered list of float and vector columns
// into one feature vector per row. Rows where any input is missing (NaN for
// floats, nil for vectors) are dropped from the output; the drop count is
// logged and available through Dropped. A column missing from the schema
// entirely is a hard error, distinct from per-row missingness.
type VectorAssembler struct {
	Columns []string
	Output  string
}

func NewVectorAssembler(columns []string, output string) *VectorAssembler {
	return &VectorAssembler{Columns: columns, Output: output}
}

func (a *VectorAssembler) Name() string           { return "assemble:" + a.Output }
func (a *VectorAssembler) InputColumns() []string { return a.Columns }
func (a *VectorAssembler) OutputColumn() string   { return a.Output }

// Fit validates that every configured column exists and is assemblable.
// The assembler carries no learned state beyond that check.
func (a *VectorAssembler) Fit(ds *table.Dataset) (pipeline.FittedStage, error) {
	schema := ds.Schema()
	for _, name := range a.Columns {
		i := schema.Index(name)
		if i < 0 {
			return nil, errors.Wrap(&table.SchemaError{Column: name}, "assembling features")
		}
		if schema[i].Type == table.String {
			return nil, errors.Errorf("assembling features: column %q is a string column, index it first", name)
		}
	}
	return &VectorAssemblerModel{columns: a.Columns, output: a.Output}, nil
}

// VectorAssemblerModel is the validated form of a VectorAssembler.
type VectorAssemblerModel struct {
	columns []string
	output  string
	dropped int64
}

func (m *VectorAssemblerModel) Name() string         { return "assemble:" + m.output }
func (m *VectorAssemblerModel) OutputColumn() string { return m.output }

// Dropped returns the total number of rows dropped across all Transform calls.
func (m *VectorAssemblerModel) Dropped() int { return int(atomic.LoadInt64(&m.dropped)) }

// Transform appends the assembled vector column, dropping invalid rows.
func (m *VectorAssemblerModel) Transform(ds *table.Dataset) (*table.Dataset, error) {
	n := ds.NumRows()
	schema := ds.Schema()

	type colref struct {
		num []float64
		vec [][]float64
	}
	refs := make([]colref, len(m.columns))
	for j, name := range m.columns {
		i := schema.Index(name)
		if i < 0 {
			return nil, errors.Wrap(&table.SchemaError{Column: name}, "assembling features")
		}
		switch schema[i].Type {
		case table.Float:
			col, err := ds.Floats(name)
			if err != nil {
				return nil, errors.Wrap(err, "assembling features")
			}
			refs[j].num = col
		case table.Vector:
			col, err := ds.Vectors(name)
			if err != nil {
				return nil, errors.Wrap(err, "assembling features")
			}
			refs[j].vec = col
		default:
			return nil, errors.Errorf("assembling features: column %q is a string column, index it first", name)
		}
	}

	keep := make([]int, 0, n)
	rows := make([][]float64, 0, n)
	for i := 0; i < n; i++ {
		vec := make([]float64, 0, len(m.columns))
		valid := true
		for _, r := range refs {
			if r.num != nil {
				v := r.num[i]
				if math.IsNaN(v) {
					valid = false
					break
				}
				vec = append(vec, v)
				continue
			}
			rv := r.vec[i]
			if rv == nil {
				valid = false
				break
			}
			vec = append(vec, rv...)
		}
		if !valid {
			continue
		}
		keep = append(keep, i)
		rows = append(rows, vec)
	}

	if skipped := n - len(keep); skipped > 0 {
		atomic.AddInt64(&m.dropped, int64(skipped))
		logger.Warn("rows dropped by assembler",
			zap.String("output", m.output),
			zap.Int("dropped", skipped),
			zap.Int("kept", len(keep)))
	}
	return ds.Take(keep).WithVectors(m.output, rows)
}
