// Package forecast serves per-pair price forecasts from persisted model
// artifacts, substituting a plausible synthetic series when a model is
// missing or broken.
package forecast

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"pricepulse/ml"
	"pricepulse/pipeline"
)

// Forecast statuses surfaced to API callers. Fallbacks are deliberate
// masking of upstream failure, never an HTTP error.
const (
	StatusSuccess      = "success"
	StatusMissingModel = "fallback_missing_model"
	StatusModelError   = "fallback_model_error"
	StatusException    = "fallback_exception"
)

// DefaultRegressorValue fills a regressor whose historical mean is
// unavailable.
const DefaultRegressorValue = 5000.0

const fallbackBasePrice = 35.0

// Result is a forecast plus the status tag callers use to tell genuine
// predictions from fallback data.
type Result struct {
	Status    string
	Commodity string
	Market    string
	Points    []ml.Prediction
}

// Service loads one model per request; no cross-request model cache.
type Service struct {
	modelsDir string
	logger    *zap.Logger

	now  func() time.Time
	rand *rand.Rand
}

func NewService(modelsDir string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		modelsDir: modelsDir,
		logger:    logger,
		now:       time.Now,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Forecast produces days rows for the requested pair. Never returns an
// error: every failure path degrades to a fallback series with the
// matching status.
func (s *Service) Forecast(commodity, market string, days int) Result {
	if days <= 0 {
		days = 7
	}
	commodity = pipeline.SanitizeName(strings.TrimSpace(commodity))
	market = pipeline.SanitizeName(strings.TrimSpace(market))
	key := commodity + "_" + market

	res := Result{Commodity: commodity, Market: market}

	points, status := s.predict(key, days)
	res.Status = status
	if points == nil {
		points = s.Fallback(days)
	}
	res.Points = points
	return res
}

// predict returns (nil, fallback-status) on any failure. A panic inside
// model load or predict degrades to StatusException.
func (s *Service) predict(key string, days int) (points []ml.Prediction, status string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during prediction", zap.String("key", key), zap.Any("panic", r))
			points, status = nil, StatusException
		}
	}()

	model, err := ml.LoadModel(s.modelsDir, key)
	if err != nil {
		if errors.Is(err, ml.ErrModelNotFound) {
			s.logger.Warn("model not found", zap.String("key", key))
			return nil, StatusMissingModel
		}
		s.logger.Error("failed to load model", zap.String("key", key), zap.Error(err))
		return nil, StatusException
	}

	preds := s.makeForecast(model, days)
	if preds == nil {
		return nil, StatusModelError
	}
	return preds, StatusSuccess
}

// makeForecast mirrors the serving policy: uncertainty sampling disabled,
// future range starting the day after the last training date, regressors
// held at their historical means, nil on unfitted models or NaN output.
func (s *Service) makeForecast(model *ml.SeasonalModel, days int) []ml.Prediction {
	model.UncertaintySamples = 0

	if !model.Fitted() {
		s.logger.Warn("model appears unfitted")
		return nil
	}

	last := model.TrainEnd
	if last.IsZero() {
		last = s.now()
	}
	future := make([]time.Time, days)
	for i := range future {
		future[i] = last.AddDate(0, 0, i+1)
	}

	regressors := make(map[string]float64, len(model.RegressorNames))
	for _, name := range model.RegressorNames {
		val := DefaultRegressorValue
		if mean, ok := model.RegressorMeans[name]; ok && !math.IsNaN(mean) {
			val = mean
		}
		regressors[name] = val
	}

	preds, err := model.Predict(future, regressors)
	if err != nil {
		s.logger.Warn("prediction failed", zap.Error(err))
		return nil
	}
	for _, p := range preds {
		if math.IsNaN(p.Yhat) {
			return nil
		}
	}
	return preds
}

// Fallback generates days rows of plausible demo data starting from now:
// yhat = 35 ± U(−2,2) with lower/upper exactly ±1 around it.
func (s *Service) Fallback(days int) []ml.Prediction {
	start := s.now()
	preds := make([]ml.Prediction, days)
	for i := range preds {
		price := fallbackBasePrice + s.rand.Float64()*4 - 2
		lower := price - 1
		upper := price + 1
		preds[i] = ml.Prediction{
			Date:  start.AddDate(0, 0, i),
			Yhat:  price,
			Lower: &lower,
			Upper: &upper,
		}
	}
	return preds
}
