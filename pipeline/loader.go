package pipeline

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DefaultBufferStock is used when no source provides a stock quantity.
const DefaultBufferStock = 5000.0

// Loader reads raw tabular sources of unknown column naming and yields
// canonical observations.
type Loader struct {
	DefaultBuffer float64
	logger        *zap.Logger
}

func NewLoader(defaultBuffer float64, logger *zap.Logger) *Loader {
	if defaultBuffer == 0 {
		defaultBuffer = DefaultBufferStock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{DefaultBuffer: defaultBuffer, logger: logger}
}

// priceColumns in resolution order: first match wins.
var priceColumns = []string{"modal_price", "price", "price_retail", "max_price"}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
}

// LoadMain reads the primary price dataset. A missing file is non-fatal and
// contributes nothing. Rows missing date, commodity or market are dropped;
// rows without a price survive until Combine.
func (l *Loader) LoadMain(path string) ([]Observation, error) {
	table, err := readTable(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn("main dataset missing", zap.String("path", path))
			return nil, nil
		}
		return nil, err
	}

	priceCol := resolveColumn(table.header, priceColumns...)
	if priceCol == "" {
		l.logger.Warn("no price column in main dataset", zap.String("path", path))
	}
	commodityCol := resolveColumn(table.header, "commodity", "commodity_name")
	marketCol := resolveColumn(table.header, "market", "centre_name", "market_name")
	dateCol := resolveColumn(table.header, "date", "entry_date")
	bufferCol := resolveColumn(table.header, "buffer_stock_qty_kg")

	obs := make([]Observation, 0, len(table.rows))
	for _, row := range table.rows {
		date, ok := parseDate(row.get(dateCol))
		if !ok {
			continue
		}
		commodity := strings.TrimSpace(row.get(commodityCol))
		market := row.get(marketCol)
		if market == "" {
			market = "Unknown"
		}
		if commodity == "" {
			continue
		}

		price := math.NaN()
		if priceCol != "" {
			price = parseFloat(row.get(priceCol))
		}
		buffer := l.DefaultBuffer
		if bufferCol != "" {
			if v := parseFloat(row.get(bufferCol)); !math.IsNaN(v) {
				buffer = v
			}
		}

		obs = append(obs, Observation{
			Date:        date,
			Commodity:   commodity,
			Market:      market,
			Price:       price,
			BufferStock: buffer,
		})
	}
	return obs, nil
}

// LoadWarehouse reads a warehouse stock dataset. Market names derive from
// the location column, stock from quantity_mt in metric tons. Rows without
// a price cannot train anything and are dropped here.
func (l *Loader) LoadWarehouse(path string) ([]Observation, error) {
	table, err := readTable(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn("warehouse dataset missing", zap.String("path", path))
			return nil, nil
		}
		return nil, err
	}

	dateCol := resolveColumn(table.header, "entry_date", "date")
	commodityCol := resolveColumn(table.header, "commodity", "commodity_name")
	locationCol := resolveColumn(table.header, "location")
	priceCol := resolveColumn(table.header, "modal_price", "price")
	qtyCol := resolveColumn(table.header, "quantity_mt")

	obs := make([]Observation, 0, len(table.rows))
	for _, row := range table.rows {
		date, ok := parseDate(row.get(dateCol))
		if !ok {
			continue
		}
		commodity := strings.TrimSpace(row.get(commodityCol))
		if commodity == "" {
			continue
		}
		market := "Unknown Warehouse"
		if locationCol != "" && row.get(locationCol) != "" {
			market = row.get(locationCol) + " Warehouse"
		}

		price := math.NaN()
		if priceCol != "" {
			price = parseFloat(row.get(priceCol))
		}
		if math.IsNaN(price) {
			continue
		}

		buffer := l.DefaultBuffer
		if qtyCol != "" {
			if v := parseFloat(row.get(qtyCol)); !math.IsNaN(v) {
				buffer = v * 1000
			} else {
				buffer = 0
			}
		}

		obs = append(obs, Observation{
			Date:        date,
			Commodity:   commodity,
			Market:      market,
			Price:       price,
			BufferStock: buffer,
		})
	}
	return obs, nil
}

// Combine concatenates sources in order, sanitizes names, drops rows still
// missing a price and sorts the result by date (stable, so per-source order
// survives for same-day rows).
func (l *Loader) Combine(sources ...[]Observation) []Observation {
	var combined []Observation
	for _, src := range sources {
		combined = append(combined, src...)
	}

	out := combined[:0]
	for _, o := range combined {
		if math.IsNaN(o.Price) || o.Date.IsZero() {
			continue
		}
		o.Commodity = strings.TrimSpace(o.Commodity)
		o.Market = SanitizeMarket(o.Market)
		out = append(out, o)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// GroupByPair splits observations per (commodity, market) key preserving
// row order within each group.
func GroupByPair(obs []Observation) map[[2]string][]Observation {
	groups := make(map[[2]string][]Observation)
	for _, o := range obs {
		key := [2]string{o.Commodity, o.Market}
		groups[key] = append(groups[key], o)
	}
	return groups
}

type rawTable struct {
	header map[string]int
	rows   []mappedRow
}

type mappedRow struct {
	table  *rawTable
	fields []string
}

func (r mappedRow) get(col string) string {
	idx, ok := r.table.header[col]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

// readTable reads a CSV file into header-indexed rows. Non-UTF-8 input is
// retried as Windows-1252.
func readTable(path string) (*rawTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(raw) {
		decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), charmap.Windows1252.NewDecoder()))
		if err == nil {
			raw = decoded
		}
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &rawTable{header: map[string]int{}}, nil
	}

	table := &rawTable{header: make(map[string]int, len(records[0]))}
	for i, name := range records[0] {
		table.header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	table.rows = make([]mappedRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		table.rows = append(table.rows, mappedRow{table: table, fields: rec})
	}
	return table, nil
}

// resolveColumn returns the first candidate present in the header.
func resolveColumn(header map[string]int, candidates ...string) string {
	for _, c := range candidates {
		if _, ok := header[c]; ok {
			return c
		}
	}
	return ""
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseFloat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
