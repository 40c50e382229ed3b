package pipeline

import (
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
)

// DefaultMinRecords is the minimum observation count for a pair to be
// worth training.
const DefaultMinRecords = 20

var (
	ErrInsufficientData = errors.New("not enough records for pair")
	ErrBadDateRange     = errors.New("bad date range for pair")
)

// Preparer resamples irregular observations for one (commodity, market)
// pair onto a contiguous daily calendar and fills gaps.
type Preparer struct {
	MinRecords    int
	DefaultBuffer float64
	logger        *zap.Logger
}

func NewPreparer(minRecords int, defaultBuffer float64, logger *zap.Logger) *Preparer {
	if minRecords <= 0 {
		minRecords = DefaultMinRecords
	}
	if defaultBuffer == 0 {
		defaultBuffer = DefaultBufferStock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Preparer{MinRecords: minRecords, DefaultBuffer: defaultBuffer, logger: logger}
}

// Prepare builds the daily series for one pair. All observations must
// belong to the same (commodity, market) key. Same-day duplicates resolve
// last-by-input-order.
func (p *Preparer) Prepare(commodity, market string, obs []Observation) (Series, error) {
	if len(obs) < p.MinRecords {
		return Series{}, ErrInsufficientData
	}

	start, end := dateBounds(obs)
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return Series{}, ErrBadDateRange
	}

	days := int(end.Sub(start).Hours()/24) + 1
	prices := make([]float64, days)
	buffers := make([]float64, days)
	for i := range prices {
		prices[i] = math.NaN()
		buffers[i] = math.NaN()
	}

	// Merge onto the calendar. Later rows overwrite earlier ones for the
	// same day.
	for _, o := range obs {
		idx := int(truncateDay(o.Date).Sub(start).Hours() / 24)
		if idx < 0 || idx >= days {
			continue
		}
		prices[idx] = o.Price
		buffers[idx] = o.BufferStock
	}

	fillBuffer(buffers, p.DefaultBuffer)
	interpolate(prices)

	points := make([]SeriesPoint, 0, days)
	for i := 0; i < days; i++ {
		if math.IsNaN(prices[i]) {
			continue
		}
		points = append(points, SeriesPoint{
			Date:        start.AddDate(0, 0, i),
			Price:       prices[i],
			BufferStock: buffers[i],
		})
	}

	if len(points) < p.MinRecords {
		p.logger.Warn("not enough points after resampling",
			zap.String("commodity", commodity),
			zap.String("market", market),
			zap.Int("points", len(points)))
		return Series{}, ErrInsufficientData
	}

	return Series{Commodity: commodity, Market: market, Points: points}, nil
}

func dateBounds(obs []Observation) (start, end time.Time) {
	for _, o := range obs {
		d := truncateDay(o.Date)
		if start.IsZero() || d.Before(start) {
			start = d
		}
		if end.IsZero() || d.After(end) {
			end = d
		}
	}
	return start, end
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// fillBuffer forward-fills, then back-fills, then falls back to the default.
func fillBuffer(values []float64, def float64) {
	last := math.NaN()
	for i := range values {
		if math.IsNaN(values[i]) {
			values[i] = last
		} else {
			last = values[i]
		}
	}
	next := math.NaN()
	for i := len(values) - 1; i >= 0; i-- {
		if math.IsNaN(values[i]) {
			values[i] = next
		} else {
			next = values[i]
		}
	}
	for i := range values {
		if math.IsNaN(values[i]) {
			values[i] = def
		}
	}
}

// interpolate fills interior gaps linearly between bounding values and
// extends the nearest value over leading and trailing gaps. A series with
// no known value at all stays NaN.
func interpolate(values []float64) {
	known := make([]int, 0, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			known = append(known, i)
		}
	}
	if len(known) == 0 {
		return
	}

	for i := 0; i < known[0]; i++ {
		values[i] = values[known[0]]
	}
	for i := known[len(known)-1] + 1; i < len(values); i++ {
		values[i] = values[known[len(known)-1]]
	}
	for k := 0; k+1 < len(known); k++ {
		lo, hi := known[k], known[k+1]
		span := float64(hi - lo)
		for i := lo + 1; i < hi; i++ {
			frac := float64(i-lo) / span
			values[i] = values[lo] + (values[hi]-values[lo])*frac
		}
	}
}
