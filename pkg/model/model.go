package model

// Regressor is the supervised learning interface the workflow trains against.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
}
