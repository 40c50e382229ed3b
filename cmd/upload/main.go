package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"pricepulse/config"
	"pricepulse/store"
)

// Uploads a local commodity CSV into the commodities collection. Rows with
// any empty price field are skipped; an unparseable date is stored as null
// rather than dropping the row.
func main() {
	configPath := flag.String("config", "config.yaml", "config file path")
	csvPath := flag.String("csv", "commodity_dataset.csv", "input CSV path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	st, err := store.OpenSQLite(cfg.Store.Path, cfg.Store.CacheSize)
	if err != nil {
		log.Fatalf("failed to open document store: %v", err)
	}
	defer st.Close()

	file, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("failed to open CSV: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		log.Fatalf("failed to read CSV: %v", err)
	}
	if len(records) < 2 {
		log.Fatal("CSV has no data rows")
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[name] = i
	}

	ctx := context.Background()
	uploaded := 0
	for _, row := range records[1:] {
		get := func(name string) string {
			if idx, ok := cols[name]; ok && idx < len(row) {
				return row[idx]
			}
			return ""
		}

		minPrice := get("min_price")
		modalPrice := get("modal_price")
		maxPrice := get("max_price")
		if minPrice == "" || modalPrice == "" || maxPrice == "" {
			continue
		}

		var date interface{}
		if t, err := time.Parse("01/02/2006", get("date")); err == nil {
			date = t.Format("2006-01-02")
		}

		doc := store.Document{
			"commodity":   get("commodity"),
			"variety":     get("variety"),
			"grade":       get("grade"),
			"min_price":   parseFloat(minPrice),
			"modal_price": parseFloat(modalPrice),
			"max_price":   parseFloat(maxPrice),
			"date":        date,
			"state":       get("state"),
			"district":    get("district"),
			"market":      get("market"),
		}
		if _, err := st.Add(ctx, "commodities", doc); err != nil {
			log.Fatalf("failed to upload row: %v", err)
		}
		uploaded++
	}

	fmt.Printf("uploaded %d commodities\n", uploaded)
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
