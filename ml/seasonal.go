package ml

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"time"

	"pricepulse/pipeline"
)

const (
	yearLength = 365.25
	weekLength = 7.0
	// z value for the 80% interval, matching the default interval width
	// of the reference forecasting stack.
	intervalZ = 1.28
)

// SeasonalModel is a piecewise-linear trend with evenly spaced
// changepoints over the first 80% of the training window, yearly and
// weekly Fourier seasonality, and linear terms for auxiliary regressors.
// Fit solves the whole design by ridge-stabilized least squares.
type SeasonalModel struct {
	TrainStart time.Time `json:"train_start"`
	TrainEnd   time.Time `json:"train_end"`
	NPoints    int       `json:"n_points"`

	NChangepoints int       `json:"n_changepoints"`
	Changepoints  []float64 `json:"changepoints"` // day offsets from TrainStart
	YearlyOrder   int       `json:"yearly_order"`
	WeeklyOrder   int       `json:"weekly_order"`
	Coeffs        []float64 `json:"coeffs"`

	RegressorNames []string           `json:"regressor_names"`
	RegressorMeans map[string]float64 `json:"regressor_means"`
	RegressorStds  map[string]float64 `json:"regressor_stds"`

	ResidualStd        float64 `json:"residual_std"`
	UncertaintySamples int     `json:"uncertainty_samples"`
}

// NewSeasonalModel creates an unfitted model with the given changepoint
// count. The changepoint count is decided by the trainer, not here.
func NewSeasonalModel(nChangepoints int) *SeasonalModel {
	if nChangepoints < 1 {
		nChangepoints = 1
	}
	return &SeasonalModel{
		NChangepoints:      nChangepoints,
		YearlyOrder:        3,
		WeeklyOrder:        2,
		RegressorMeans:     make(map[string]float64),
		RegressorStds:      make(map[string]float64),
		UncertaintySamples: 1000,
	}
}

// AddRegressor registers an auxiliary regressor column. Must be called
// before Fit. The only regressor the pipeline wires today is
// buffer_stock_qty_kg; SeriesPoint carries its values.
func (m *SeasonalModel) AddRegressor(name string) {
	m.RegressorNames = append(m.RegressorNames, name)
}

// Fitted reports whether the model carries trained trend parameters.
// Artifacts written without a Fit call load as unfitted.
func (m *SeasonalModel) Fitted() bool {
	return m.NPoints > 0 && len(m.Coeffs) > 0
}

// Fit trains against a prepared daily series.
func (m *SeasonalModel) Fit(points []pipeline.SeriesPoint) error {
	if len(points) < 2 {
		return errors.New("need at least 2 points to fit")
	}

	m.TrainStart = points[0].Date
	m.TrainEnd = points[len(points)-1].Date
	m.NPoints = len(points)

	span := m.TrainEnd.Sub(m.TrainStart).Hours() / 24
	if span <= 0 {
		span = 1
	}

	// Changepoints over the first 80% of the window.
	m.Changepoints = make([]float64, m.NChangepoints)
	for j := 0; j < m.NChangepoints; j++ {
		m.Changepoints[j] = span * 0.8 * float64(j+1) / float64(m.NChangepoints+1)
	}

	m.fitRegressorStats(points)

	rows := make([][]float64, len(points))
	target := make([]float64, len(points))
	for i, p := range points {
		rows[i] = m.features(p.Date, m.pointRegressors(p))
		target[i] = p.Price
	}

	coeffs, err := solveLeastSquares(rows, target)
	if err != nil {
		return err
	}
	m.Coeffs = coeffs

	var sse float64
	for i, row := range rows {
		r := target[i] - dot(row, coeffs)
		sse += r * r
	}
	m.ResidualStd = math.Sqrt(sse / float64(len(rows)))
	return nil
}

// Predict forecasts the given future dates. Regressor values are held
// constant at the supplied per-name values. Intervals are emitted only
// while uncertainty sampling is enabled.
func (m *SeasonalModel) Predict(future []time.Time, regressors map[string]float64) ([]Prediction, error) {
	if !m.Fitted() {
		return nil, ErrNotFitted
	}

	preds := make([]Prediction, 0, len(future))
	for _, d := range future {
		row := m.features(d, regressors)
		if len(row) != len(m.Coeffs) {
			return nil, errors.New("feature/coefficient size mismatch")
		}
		yhat := dot(row, m.Coeffs)
		p := Prediction{Date: d, Yhat: yhat}
		if m.UncertaintySamples > 0 {
			lower := yhat - intervalZ*m.ResidualStd
			upper := yhat + intervalZ*m.ResidualStd
			p.Lower = &lower
			p.Upper = &upper
		}
		preds = append(preds, p)
	}
	return preds, nil
}

// Save persists the model as a JSON artifact.
func (m *SeasonalModel) Save(path string) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

// Load reads a JSON artifact written by Save.
func (m *SeasonalModel) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, m)
}

func (m *SeasonalModel) fitRegressorStats(points []pipeline.SeriesPoint) {
	for _, name := range m.RegressorNames {
		var sum float64
		for _, p := range points {
			sum += regressorValue(name, p)
		}
		mean := sum / float64(len(points))

		var variance float64
		for _, p := range points {
			d := regressorValue(name, p) - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(len(points)))
		if std == 0 {
			std = 1
		}
		m.RegressorMeans[name] = mean
		m.RegressorStds[name] = std
	}
}

func (m *SeasonalModel) pointRegressors(p pipeline.SeriesPoint) map[string]float64 {
	regs := make(map[string]float64, len(m.RegressorNames))
	for _, name := range m.RegressorNames {
		regs[name] = regressorValue(name, p)
	}
	return regs
}

func regressorValue(name string, p pipeline.SeriesPoint) float64 {
	// SeriesPoint carries a single auxiliary column today.
	_ = name
	return p.BufferStock
}

func (m *SeasonalModel) features(date time.Time, regressors map[string]float64) []float64 {
	t := date.Sub(m.TrainStart).Hours() / 24

	row := make([]float64, 0, 2+len(m.Changepoints)+2*m.YearlyOrder+2*m.WeeklyOrder+len(m.RegressorNames))
	row = append(row, 1, t)
	for _, cp := range m.Changepoints {
		row = append(row, math.Max(0, t-cp))
	}
	for k := 1; k <= m.YearlyOrder; k++ {
		arg := 2 * math.Pi * float64(k) * t / yearLength
		row = append(row, math.Sin(arg), math.Cos(arg))
	}
	for k := 1; k <= m.WeeklyOrder; k++ {
		arg := 2 * math.Pi * float64(k) * t / weekLength
		row = append(row, math.Sin(arg), math.Cos(arg))
	}
	for _, name := range m.RegressorNames {
		v, ok := regressors[name]
		if !ok || math.IsNaN(v) {
			v = m.RegressorMeans[name]
		}
		std := m.RegressorStds[name]
		if std == 0 {
			std = 1
		}
		row = append(row, (v-m.RegressorMeans[name])/std)
	}
	return row
}

// solveLeastSquares solves (XᵀX + λI)β = Xᵀy by Gaussian elimination with
// partial pivoting. The small ridge term keeps the system solvable when
// rows are fewer than features.
func solveLeastSquares(rows [][]float64, target []float64) ([]float64, error) {
	if len(rows) == 0 {
		return nil, errors.New("empty design matrix")
	}
	n := len(rows[0])

	ata := make([][]float64, n)
	atb := make([]float64, n)
	for i := range ata {
		ata[i] = make([]float64, n)
	}
	for r, row := range rows {
		for i := 0; i < n; i++ {
			atb[i] += row[i] * target[r]
			for j := i; j < n; j++ {
				ata[i][j] += row[i] * row[j]
			}
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			ata[i][j] = ata[j][i]
		}
		ata[i][i] += 1e-6
	}

	// Gaussian elimination.
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(ata[r][col]) > math.Abs(ata[pivot][col]) {
				pivot = r
			}
		}
		ata[col], ata[pivot] = ata[pivot], ata[col]
		atb[col], atb[pivot] = atb[pivot], atb[col]
		if ata[col][col] == 0 {
			return nil, errors.New("singular design matrix")
		}
		for r := col + 1; r < n; r++ {
			f := ata[r][col] / ata[col][col]
			for c := col; c < n; c++ {
				ata[r][c] -= f * ata[col][c]
			}
			atb[r] -= f * atb[col]
		}
	}

	coeffs := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := atb[i]
		for j := i + 1; j < n; j++ {
			sum -= ata[i][j] * coeffs[j]
		}
		coeffs[i] = sum / ata[i][i]
	}
	return coeffs, nil
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
