package pipeline

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"salesml/pkg/logger"
	"salesml/pkg/table"
)

// Stage is one configurable fit/transform step. Fit learns the stage's
// parameters from a Dataset and returns the fitted form; it never mutates
// the stage itself, so a Stage may be fit against multiple Datasets.
type Stage interface {
	Name() string
	InputColumns() []string
	OutputColumn() string
	Fit(ds *table.Dataset) (FittedStage, error)
}

// FittedStage applies already-learned parameters. Transform must be
// deterministic: the same input Dataset always yields identical output.
type FittedStage interface {
	Name() string
	OutputColumn() string
	Transform(ds *table.Dataset) (*table.Dataset, error)
}

// Pipeline is an ordered list of stages fit and applied left to right.
type Pipeline struct {
	stages []Stage
}

// New validates the stage configuration once, up front: every stage needs a
// name and an output column, and no two stages may write the same column.
func New(stages ...Stage) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, errors.New("pipeline: no stages configured")
	}
	outputs := map[string]string{}
	for _, s := range stages {
		if s.Name() == "" {
			return nil, errors.New("pipeline: stage with empty name")
		}
		out := s.OutputColumn()
		if out == "" {
			return nil, errors.Errorf("pipeline: stage %s has no output column", s.Name())
		}
		if prev, ok := outputs[out]; ok {
			return nil, errors.Errorf("pipeline: stages %s and %s both write column %q", prev, s.Name(), out)
		}
		outputs[out] = s.Name()
	}
	return &Pipeline{stages: stages}, nil
}

// Fit runs each stage's fit against the output of the previous stage's
// transform on the same Dataset, in declared order, and collects the fitted
// stages. The returned FittedPipeline replays them without ever refitting.
func (p *Pipeline) Fit(ds *table.Dataset) (*FittedPipeline, error) {
	fitted := make([]FittedStage, 0, len(p.stages))
	cur := ds
	for _, s := range p.stages {
		fs, err := s.Fit(cur)
		if err != nil {
			return nil, errors.Wrapf(err, "fitting stage %s", s.Name())
		}
		cur, err = fs.Transform(cur)
		if err != nil {
			return nil, errors.Wrapf(err, "transforming with stage %s during fit", s.Name())
		}
		logger.Debug("stage fitted",
			zap.String("stage", s.Name()),
			zap.Int("rows", cur.NumRows()))
		fitted = append(fitted, fs)
	}
	return &FittedPipeline{stages: fitted}, nil
}

// FittedPipeline is the ordered list of fitted stage models produced by one
// Fit call. It is immutable; Transform may be called any number of times.
type FittedPipeline struct {
	stages []FittedStage
}

// Stages returns the fitted stages in application order.
func (fp *FittedPipeline) Stages() []FittedStage { return fp.stages }

// Transform replays every fitted stage in fit order.
func (fp *FittedPipeline) Transform(ds *table.Dataset) (*table.Dataset, error) {
	cur := ds
	var err error
	for _, fs := range fp.stages {
		cur, err = fs.Transform(cur)
		if err != nil {
			return nil, errors.Wrapf(err, "transforming with stage %s", fs.Name())
		}
	}
	return cur, nil
}
