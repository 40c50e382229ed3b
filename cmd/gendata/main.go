package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"pricepulse/dataset"
)

func main() {
	days := flag.Int("days", 400, "number of days to generate")
	out := flag.String("out", "dataset/commodity_dataset.csv", "output CSV path")
	flag.Parse()

	if *days <= 0 {
		log.Fatal("days must be positive")
	}

	synth := dataset.NewSynthesizer(nil, nil)
	rows := synth.Generate(*days, time.Now())
	if err := dataset.WriteCSV(*out, rows); err != nil {
		log.Fatalf("failed to write dataset: %v", err)
	}

	fmt.Printf("generated %d rows to %s\n", len(rows), *out)
}
