package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Supported values for STORE_DRIVER.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// CatalogSource is a file path or http(s) URL of the food catalog JSON.
	CatalogSource string

	// Nominatim geocoding configuration.
	NominatimURL       string
	NominatimUserAgent string
	GeocodeTimeout     time.Duration
	GeocodeCacheSize   int

	// Durable key-value storage.
	StoreDriver string
	SQLitePath  string
	DatabaseURL string

	// Optional publishing of appended daily records.
	KafkaBrokers      []string
	KafkaRecordsTopic string
	KafkaEnabled      bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	geocodeTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("GEOCODE_TIMEOUT", "10s"))
	if err != nil || geocodeTimeout <= 0 {
		return nil, errors.New("invalid GEOCODE_TIMEOUT")
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CatalogSource: sharedcfg.EnvOrDefault("CATALOG_SOURCE", "data/catalog.json"),

		NominatimURL:       sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org/search"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "carbon-food-print/1.0"),
		GeocodeTimeout:     geocodeTimeout,
		GeocodeCacheSize:   parseGeocodeCacheSize(),

		StoreDriver: strings.ToLower(sharedcfg.EnvOrDefault("STORE_DRIVER", StoreSQLite)),
		SQLitePath:  sharedcfg.EnvOrDefault("SQLITE_PATH", "data/cfp.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		KafkaBrokers:      brokers,
		KafkaRecordsTopic: sharedcfg.EnvOrDefault("KAFKA_RECORDS_TOPIC", "daily-cfp-records"),
		KafkaEnabled:      len(brokers) > 0,
	}

	if cfg.CatalogSource == "" {
		return nil, errors.New("CATALOG_SOURCE is required")
	}
	if cfg.NominatimURL == "" {
		return nil, errors.New("NOMINATIM_URL is required")
	}
	switch cfg.StoreDriver {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("STORE_DRIVER is postgres but DATABASE_URL is not set")
		}
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.StoreDriver == StoreSQLite && cfg.SQLitePath == "" {
		return nil, errors.New("SQLITE_PATH is required")
	}
	if cfg.KafkaEnabled && cfg.KafkaRecordsTopic == "" {
		return nil, errors.New("KAFKA_RECORDS_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parseGeocodeCacheSize() int {
	if s := os.Getenv("GEOCODE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
