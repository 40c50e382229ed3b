package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pricepulse/auth"
	"pricepulse/config"
	"pricepulse/forecast"
	qhttp "pricepulse/http"
	"pricepulse/logging"
	"pricepulse/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Path)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	st, err := store.OpenSQLite(cfg.Store.Path, cfg.Store.CacheSize)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	defer st.Close()
	logger.Info("document store ready")

	provider := auth.NewLocalProvider(st, cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTL)*time.Minute, logger)

	svc := forecast.NewService(cfg.Models.Dir, logger)

	// The model index is optional: a missing models dir only disables the
	// listing endpoint, forecasts still fall back per request.
	var index *forecast.ModelIndex
	if _, err := os.Stat(cfg.Models.Dir); err == nil {
		index, err = forecast.NewModelIndex(cfg.Models.Dir, logger)
		if err != nil {
			logger.Warn("model index unavailable")
		} else {
			defer index.Close()
		}
	}

	api := &qhttp.API{
		Store:      st,
		Auth:       provider,
		Forecaster: svc,
		Models:     index,
		Logger:     logger,
	}

	serverCfg := qhttp.DefaultServerConfig()
	serverCfg.Port = cfg.Http.Port
	serverCfg.Timeout = time.Duration(cfg.Http.TimeoutSeconds) * time.Second
	serverCfg.AllowedOrigins = cfg.Http.AllowedOrigins

	server := qhttp.NewServer(serverCfg, api, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown")
	}
}
