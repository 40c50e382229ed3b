package pipeline

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestSanitizeMarket(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name gets suffix", "Pune", "Pune_APMC"},
		{"existing APMC suffix untouched", "Vashi APMC", "Vashi_APMC"},
		{"lowercase apmc recognized", "vashi apmc", "vashi_apmc"},
		{"slash replaced", "Mumbai/Vashi", "Mumbai_Vashi_APMC"},
		{"whitespace trimmed", "  Azadpur APMC  ", "Azadpur_APMC"},
		{"empty maps to unknown", "", "Unknown_APMC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeMarket(tt.in)
			if got != tt.want {
				t.Errorf("SanitizeMarket(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeMarketIdempotent(t *testing.T) {
	inputs := []string{"Pune", "Vashi APMC", "Dubagga Mandi", "", "a/b c"}
	for _, in := range inputs {
		once := SanitizeMarket(in)
		twice := SanitizeMarket(once)
		if once != twice {
			t.Errorf("sanitize not idempotent for %q: %q != %q", in, once, twice)
		}
		if len(once) < 4 || once[len(once)-4:] != "APMC" {
			t.Errorf("sanitized %q does not end in APMC: %q", in, once)
		}
	}
}

func TestLoadMainResolvesPriceRetail(t *testing.T) {
	path := writeTempCSV(t, "date,commodity,market,price_retail\n2024-01-01,Onion,Pune,42.5\n")

	loader := NewLoader(0, nil)
	obs, err := loader.LoadMain(path)
	if err != nil {
		t.Fatalf("LoadMain: %v", err)
	}
	if len(obs) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(obs))
	}
	if obs[0].Price != 42.5 {
		t.Errorf("expected price_retail column selected, got price %v", obs[0].Price)
	}
}

func TestLoadMainPrefersModalPrice(t *testing.T) {
	path := writeTempCSV(t, "date,commodity,market,modal_price,max_price\n2024-01-01,Onion,Pune,40,55\n")

	loader := NewLoader(0, nil)
	obs, err := loader.LoadMain(path)
	if err != nil {
		t.Fatalf("LoadMain: %v", err)
	}
	if obs[0].Price != 40 {
		t.Errorf("modal_price should win over max_price, got %v", obs[0].Price)
	}
}

func TestLoadMainDefaultsMarket(t *testing.T) {
	path := writeTempCSV(t, "date,commodity,modal_price\n2024-01-01,Onion,40\n")

	loader := NewLoader(0, nil)
	obs, err := loader.LoadMain(path)
	if err != nil {
		t.Fatalf("LoadMain: %v", err)
	}
	if obs[0].Market != "Unknown" {
		t.Errorf("expected default market Unknown, got %q", obs[0].Market)
	}
}

func TestLoadMainDropsBadRows(t *testing.T) {
	path := writeTempCSV(t, `date,commodity,market,modal_price
2024-01-01,Onion,Pune,40
not-a-date,Onion,Pune,41
2024-01-03,,Pune,42
`)

	loader := NewLoader(0, nil)
	obs, err := loader.LoadMain(path)
	if err != nil {
		t.Fatalf("LoadMain: %v", err)
	}
	if len(obs) != 1 {
		t.Errorf("expected 1 surviving row, got %d", len(obs))
	}
}

func TestLoadMainMissingFileIsNonFatal(t *testing.T) {
	loader := NewLoader(0, nil)
	obs, err := loader.LoadMain(filepath.Join(t.TempDir(), "does_not_exist.csv"))
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if len(obs) != 0 {
		t.Errorf("expected empty contribution, got %d rows", len(obs))
	}
}

func TestLoadMainCaseInsensitiveHeaders(t *testing.T) {
	path := writeTempCSV(t, " Date ,COMMODITY,Market,Modal_Price\n2024-01-01,Onion,Pune,40\n")

	loader := NewLoader(0, nil)
	obs, err := loader.LoadMain(path)
	if err != nil {
		t.Fatalf("LoadMain: %v", err)
	}
	if len(obs) != 1 || obs[0].Price != 40 {
		t.Errorf("headers should resolve case-insensitively, got %+v", obs)
	}
}

func TestLoadWarehouse(t *testing.T) {
	path := writeTempCSV(t, `entry_date,commodity,location,modal_price,quantity_mt
2024-01-01,Wheat,Nagpur,30,2.5
2024-01-02,Wheat,Nagpur,,3
`)

	loader := NewLoader(0, nil)
	obs, err := loader.LoadWarehouse(path)
	if err != nil {
		t.Fatalf("LoadWarehouse: %v", err)
	}
	if len(obs) != 1 {
		t.Fatalf("price-less warehouse rows must drop, got %d rows", len(obs))
	}
	if obs[0].Market != "Nagpur Warehouse" {
		t.Errorf("expected market from location, got %q", obs[0].Market)
	}
	if obs[0].BufferStock != 2500 {
		t.Errorf("expected quantity_mt*1000 = 2500, got %v", obs[0].BufferStock)
	}
}

func TestCombineDropsAndSorts(t *testing.T) {
	loader := NewLoader(0, nil)

	a := []Observation{
		{Date: day(2024, 3, 2), Commodity: " Onion ", Market: "Pune", Price: 40, BufferStock: 5000},
		{Date: day(2024, 3, 1), Commodity: "Onion", Market: "Pune", Price: math.NaN(), BufferStock: 5000},
	}
	b := []Observation{
		{Date: day(2024, 3, 1), Commodity: "Onion", Market: "Pune", Price: 39, BufferStock: 5000},
	}

	combined := loader.Combine(a, b)
	if len(combined) != 2 {
		t.Fatalf("expected NaN-price row dropped, got %d rows", len(combined))
	}
	if !combined[0].Date.Before(combined[1].Date) {
		t.Error("combined rows not sorted by date")
	}
	if combined[1].Commodity != "Onion" {
		t.Errorf("commodity not trimmed: %q", combined[1].Commodity)
	}
	if combined[0].Market != "Pune_APMC" {
		t.Errorf("market not sanitized: %q", combined[0].Market)
	}
}
