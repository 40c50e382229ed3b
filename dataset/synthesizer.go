package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Header is the synthetic dataset CSV schema.
var Header = []string{
	"commodity", "variety", "grade",
	"min_price", "modal_price", "max_price",
	"date", "state", "district", "market", "buffer_stock_qty_kg",
}

// Row is one (day, market, commodity) sample.
type Row struct {
	Commodity   string
	Variety     string
	Grade       string
	MinPrice    float64
	ModalPrice  float64
	MaxPrice    float64
	Date        time.Time
	State       string
	District    string
	Market      string
	BufferStock int
}

// Synthesizer produces the synthetic daily price/stock grid.
type Synthesizer struct {
	rng    *rand.Rand
	logger *zap.Logger
}

func NewSynthesizer(rng *rand.Rand, logger *zap.Logger) *Synthesizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{rng: rng, logger: logger}
}

// Generate builds one row per (day, market, commodity) triple for the
// `days` days ending at end, shuffled so the output carries no ordering
// guarantee.
func (s *Synthesizer) Generate(days int, end time.Time) []Row {
	start := end.AddDate(0, 0, -days)
	rows := make([]Row, 0, days*len(Markets)*len(Commodities))

	for day := 0; day < days; day++ {
		date := start.AddDate(0, 0, day)
		seasonFactor := math.Sin(2 * math.Pi * float64(date.YearDay()) / 365)

		for _, mkt := range Markets {
			for _, c := range Commodities {
				amplitude := 0.1
				if volatile[c.Name] {
					amplitude = 0.3
				}
				variation := seasonFactor * c.Base * amplitude
				inflation := float64(day) / 365 * c.Base * 0.05
				noise := s.rng.NormFloat64() * c.Base * 0.05

				modal := c.Base + variation + inflation + noise
				modal = math.Max(c.Base*0.5, modal)
				modal = round2(modal)

				minPrice := round2(modal * s.uniform(0.90, 0.95))
				maxPrice := round2(modal * s.uniform(1.05, 1.10))

				// Stock moves inversely to price: high price means the
				// reserve is likely drawn down.
				stockImpact := (c.Base - modal) * 100
				buffer := int(5000 + stockImpact + float64(s.rng.Intn(1001)-500))
				if buffer < 0 {
					buffer = 0
				}

				rows = append(rows, Row{
					Commodity:   c.Name,
					Variety:     c.Variety,
					Grade:       "FAQ",
					MinPrice:    minPrice,
					ModalPrice:  modal,
					MaxPrice:    maxPrice,
					Date:        date,
					State:       mkt.State,
					District:    mkt.District,
					Market:      mkt.Name,
					BufferStock: buffer,
				})
			}
		}
	}

	s.rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
	return rows
}

// WriteCSV persists rows at path, creating the output directory if absent.
func WriteCSV(path string, rows []Row) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Commodity,
			r.Variety,
			r.Grade,
			formatPrice(r.MinPrice),
			formatPrice(r.ModalPrice),
			formatPrice(r.MaxPrice),
			r.Date.Format("2006-01-02"),
			r.State,
			r.District,
			r.Market,
			fmt.Sprintf("%d", r.BufferStock),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (s *Synthesizer) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
