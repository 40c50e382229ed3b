// Package ml fits and persists one forecast model per (commodity, market)
// pair. The Forecaster abstraction keeps the model pluggable; the built-in
// implementation is a seasonal changepoint regression.
package ml

import (
	"errors"
	"time"

	"pricepulse/pipeline"
)

var (
	ErrNotFitted     = errors.New("model not fitted")
	ErrModelNotFound = errors.New("model not found")
)

// Prediction is one forecast day. Lower and Upper are present only when
// the model produced an interval.
type Prediction struct {
	Date  time.Time
	Yhat  float64
	Lower *float64
	Upper *float64
}

// Forecaster is the training-side contract. Regressor values at predict
// time are supplied per name and held constant over the horizon.
type Forecaster interface {
	Fit(points []pipeline.SeriesPoint) error
	Predict(future []time.Time, regressors map[string]float64) ([]Prediction, error)
	Save(path string) error
	Load(path string) error
}
