// Package config holds the application configuration shared by the API
// server and the offline pipeline commands.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config is passed explicitly to every component at construction. Paths are
// never read from package-level globals.
type Config struct {
	Dataset struct {
		MainPath      string `yaml:"main_path"`
		WarehousePath string `yaml:"warehouse_path"`
	} `yaml:"dataset"`

	Models struct {
		Dir string `yaml:"dir"`
	} `yaml:"models"`

	Training struct {
		MinRecords    int     `yaml:"min_records"`
		DefaultBuffer float64 `yaml:"default_buffer"`
	} `yaml:"training"`

	Store struct {
		Path      string `yaml:"path"`
		CacheSize int    `yaml:"cache_size"`
	} `yaml:"store"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  int    `yaml:"token_ttl_minutes"`
	} `yaml:"auth"`

	Http struct {
		Port           int      `yaml:"port"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`

	Log struct {
		Level string `yaml:"level"`
		Path  string `yaml:"path"`
	} `yaml:"log"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Dataset.MainPath = "dataset/commodity_dataset.csv"
	cfg.Dataset.WarehousePath = "dataset/warehouse_stock.csv"
	cfg.Models.Dir = "saved_models"
	cfg.Training.MinRecords = 20
	cfg.Training.DefaultBuffer = 5000
	cfg.Store.Path = "pricepulse.db"
	cfg.Store.CacheSize = 256
	cfg.Auth.JWTSecret = "dev-secret-change-me"
	cfg.Auth.TokenTTL = 60
	cfg.Http.Port = 8080
	cfg.Http.TimeoutSeconds = 30
	cfg.Http.AllowedOrigins = []string{"*"}
	cfg.Log.Level = "info"
	cfg.Log.Path = ""
	return cfg
}

// Load reads the YAML config at path (missing file is not an error) and then
// applies .env / environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err == nil {
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil {
		log.Println("[config] no .env file found, using system env vars")
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Dataset.MainPath = getEnv("PRICEPULSE_DATASET_PATH", c.Dataset.MainPath)
	c.Dataset.WarehousePath = getEnv("PRICEPULSE_WAREHOUSE_PATH", c.Dataset.WarehousePath)
	c.Models.Dir = getEnv("PRICEPULSE_MODELS_DIR", c.Models.Dir)
	c.Training.MinRecords = getEnvInt("PRICEPULSE_MIN_RECORDS", c.Training.MinRecords)
	c.Store.Path = getEnv("PRICEPULSE_STORE_PATH", c.Store.Path)
	c.Auth.JWTSecret = getEnv("PRICEPULSE_JWT_SECRET", c.Auth.JWTSecret)
	c.Http.Port = getEnvInt("PRICEPULSE_HTTP_PORT", c.Http.Port)
	c.Log.Level = getEnv("PRICEPULSE_LOG_LEVEL", c.Log.Level)
	c.Log.Path = getEnv("PRICEPULSE_LOG_PATH", c.Log.Path)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
