// Package pipeline loads heterogeneous price CSV sources, normalizes them
// onto a canonical schema and prepares contiguous daily series for training.
package pipeline

import (
	"strings"
	"time"
)

// Observation is one normalized price row. Price may be NaN until Combine
// drops price-less rows.
type Observation struct {
	Date        time.Time `json:"date"`
	Commodity   string    `json:"commodity"`
	Market      string    `json:"market"`
	Price       float64   `json:"price"`
	BufferStock float64   `json:"buffer_stock_qty_kg"`
}

// SeriesPoint is one calendar day of a prepared series. Price is always
// populated after gap filling; BufferStock falls back to the configured
// default.
type SeriesPoint struct {
	Date        time.Time `json:"date"`
	Price       float64   `json:"price"`
	BufferStock float64   `json:"buffer_stock_qty_kg"`
}

// Series is a contiguous daily series for one (commodity, market) pair.
type Series struct {
	Commodity string        `json:"commodity"`
	Market    string        `json:"market"`
	Points    []SeriesPoint `json:"points"`
}

// SanitizeMarket normalizes a raw market name into the form used in
// persisted model keys. The exact transformation is part of the on-disk
// contract: trim, slashes and spaces to underscores, "_APMC" suffix unless
// the name already ends in APMC (case-insensitive). Empty input maps to
// "Unknown_APMC". Idempotent.
func SanitizeMarket(raw string) string {
	m := strings.TrimSpace(raw)
	if m == "" {
		return "Unknown_APMC"
	}
	m = strings.ReplaceAll(m, "/", "_")
	m = strings.ReplaceAll(m, " ", "_")
	if !strings.HasSuffix(strings.ToUpper(m), "APMC") {
		m += "_APMC"
	}
	return m
}

// SanitizeName makes a commodity name filesystem-safe.
func SanitizeName(raw string) string {
	return strings.NewReplacer(" ", "_", "/", "_").Replace(raw)
}

// ModelKey is the artifact key for a (commodity, market) pair. The market
// is expected to already be in sanitized form.
func ModelKey(commodity, market string) string {
	return SanitizeName(commodity) + "_" + SanitizeName(market)
}
