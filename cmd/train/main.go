package main

import (
	"flag"
	"fmt"
	"log"

	"pricepulse/config"
	"pricepulse/logging"
	"pricepulse/ml"
	"pricepulse/pipeline"
)

func main() {
	configPath := flag.String("config", "config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Path)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	loader := pipeline.NewLoader(cfg.Training.DefaultBuffer, logger)

	prices, err := loader.LoadMain(cfg.Dataset.MainPath)
	if err != nil {
		log.Fatalf("failed to load main dataset: %v", err)
	}
	warehouse, err := loader.LoadWarehouse(cfg.Dataset.WarehousePath)
	if err != nil {
		log.Fatalf("failed to load warehouse dataset: %v", err)
	}

	combined := loader.Combine(prices, warehouse)
	if len(combined) == 0 {
		log.Fatal("combined dataset is empty, nothing to train on")
	}

	trainer := ml.NewTrainer(cfg.Models.Dir, cfg.Training.MinRecords, cfg.Training.DefaultBuffer, logger)
	stats, err := trainer.Train(combined)
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}

	fmt.Printf("training finished: %d models saved out of %d pairs\n", stats.Saved, stats.Pairs)
}
