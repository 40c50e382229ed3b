package ml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"pricepulse/pipeline"
)

// MaxChangepoints caps the per-pair changepoint count.
const MaxChangepoints = 25

// BufferStockRegressor is the auxiliary regressor every pair trains with.
const BufferStockRegressor = "buffer_stock_qty_kg"

// Trainer fits one model per (commodity, market) pair and persists each
// under its sanitized key. Not safe to run concurrently against the same
// output directory.
type Trainer struct {
	ModelsDir     string
	MinRecords    int
	DefaultBuffer float64
	logger        *zap.Logger
}

// TrainStats reports a batch run: pairs seen vs models actually saved.
type TrainStats struct {
	Pairs   int
	Saved   int
	Skipped int
	Failed  int
}

func NewTrainer(modelsDir string, minRecords int, defaultBuffer float64, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{
		ModelsDir:     modelsDir,
		MinRecords:    minRecords,
		DefaultBuffer: defaultBuffer,
		logger:        logger,
	}
}

// ChangepointCount is roughly one changepoint per week of prepared data,
// capped at MaxChangepoints. Behavioral policy; do not tune.
func ChangepointCount(records int) int {
	n := records / 7
	if n < 1 {
		n = 1
	}
	if n > MaxChangepoints {
		n = MaxChangepoints
	}
	return n
}

// Train runs the whole batch. Per-pair failures are logged and skipped;
// only an empty input is fatal.
func (t *Trainer) Train(obs []pipeline.Observation) (TrainStats, error) {
	var stats TrainStats
	if len(obs) == 0 {
		return stats, errors.New("no data to train on")
	}
	if err := os.MkdirAll(t.ModelsDir, 0o755); err != nil {
		return stats, fmt.Errorf("create models dir: %w", err)
	}

	groups := pipeline.GroupByPair(obs)
	keys := make([][2]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	stats.Pairs = len(keys)

	preparer := pipeline.NewPreparer(t.MinRecords, t.DefaultBuffer, t.logger)
	claimed := make(map[string][2]string)

	for _, pair := range keys {
		commodity, market := pair[0], pair[1]
		group := groups[pair]

		series, err := preparer.Prepare(commodity, market, group)
		if err != nil {
			t.logger.Warn("skipping pair",
				zap.String("commodity", commodity),
				zap.String("market", market),
				zap.Int("records", len(group)),
				zap.Error(err))
			stats.Skipped++
			continue
		}

		key := pipeline.ModelKey(commodity, market)
		if owner, ok := claimed[key]; ok {
			// Distinct raw names sanitizing to the same key would
			// silently overwrite each other's artifact; reject instead.
			t.logger.Error("sanitized key collision, pair rejected",
				zap.String("key", key),
				zap.String("commodity", commodity),
				zap.String("market", market),
				zap.String("owner_commodity", owner[0]),
				zap.String("owner_market", owner[1]))
			stats.Skipped++
			continue
		}

		model := NewSeasonalModel(ChangepointCount(len(series.Points)))
		model.AddRegressor(BufferStockRegressor)
		if err := model.Fit(series.Points); err != nil {
			t.logger.Error("failed to train model",
				zap.String("commodity", commodity),
				zap.String("market", market),
				zap.Error(err))
			stats.Failed++
			continue
		}
		claimed[key] = pair

		path := filepath.Join(t.ModelsDir, key+".json")
		if err := model.Save(path); err != nil {
			t.logger.Error("failed to save model",
				zap.String("path", path),
				zap.Error(err))
			stats.Failed++
			continue
		}
		stats.Saved++
		t.logger.Info("model saved",
			zap.String("path", path),
			zap.Int("saved", stats.Saved),
			zap.Int("pairs", stats.Pairs))
	}

	t.logger.Info("training finished",
		zap.Int("saved", stats.Saved),
		zap.Int("pairs", stats.Pairs),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed))
	return stats, nil
}
