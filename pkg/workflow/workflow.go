package workflow

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"salesml/pkg/logger"
	"salesml/pkg/model"
	"salesml/pkg/table"
)

// EmptyDatasetError reports an evaluation attempted on an empty dataset,
// where the metric is undefined.
type EmptyDatasetError struct {
	What string
}

func (e *EmptyDatasetError) Error() string {
	return "empty dataset: " + e.What
}

// Split partitions ds into train and validation row sets. ratio is the
// validation fraction and must lie in (0,1). The same seed always produces
// the same partition; every row lands in exactly one side.
func Split(ds *table.Dataset, ratio float64, seed int64) (train, val *table.Dataset, err error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, errors.Errorf("split ratio %v not in (0,1)", ratio)
	}
	n := ds.NumRows()
	rnd := rand.New(rand.NewSource(seed))
	perm := rnd.Perm(n)
	nVal := int(float64(n) * ratio)
	val = ds.Take(perm[:nVal])
	train = ds.Take(perm[nVal:])
	logger.Info("dataset split",
		zap.Int("train", train.NumRows()),
		zap.Int("validation", val.NumRows()),
		zap.Int64("seed", seed))
	return train, val, nil
}

// features extracts the feature matrix and target column, skipping rows with
// a missing label.
func features(ds *table.Dataset, featureCol, labelCol string) ([][]float64, []float64, error) {
	vecs, err := ds.Vectors(featureCol)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading features")
	}
	labels, err := ds.Floats(labelCol)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading labels")
	}
	X := make([][]float64, 0, len(vecs))
	y := make([]float64, 0, len(labels))
	for i := range vecs {
		if math.IsNaN(labels[i]) {
			continue
		}
		X = append(X, vecs[i])
		y = append(y, labels[i])
	}
	return X, y, nil
}

// Train fits reg on the feature and label columns of ds.
func Train(ds *table.Dataset, featureCol, labelCol string, reg model.Regressor) error {
	X, y, err := features(ds, featureCol, labelCol)
	if err != nil {
		return err
	}
	if len(X) == 0 {
		return &EmptyDatasetError{What: "training set"}
	}
	logger.Info("training regressor",
		zap.Int("rows", len(X)),
		zap.Int("dims", len(X[0])))
	return errors.Wrap(reg.Fit(X, y), "training regressor")
}

// Evaluate predicts the validation rows and returns predictions, actuals,
// and the root-mean-squared error.
func Evaluate(reg model.Regressor, ds *table.Dataset, featureCol, labelCol string) (preds, actuals []float64, rmse float64, err error) {
	X, y, err := features(ds, featureCol, labelCol)
	if err != nil {
		return nil, nil, 0, err
	}
	if len(X) == 0 {
		return nil, nil, 0, &EmptyDatasetError{What: "validation set"}
	}
	preds = reg.Predict(X)
	rmse = model.RMSE(y, preds)
	logger.Info("evaluation complete",
		zap.Int("rows", len(X)),
		zap.Float64("rmse", rmse))
	return preds, y, rmse, nil
}
