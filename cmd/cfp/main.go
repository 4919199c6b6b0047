package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/carbon-food-print/internal/adapter/catalog"
	httpadapter "github.com/couchcryptid/carbon-food-print/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/carbon-food-print/internal/adapter/kafka"
	"github.com/couchcryptid/carbon-food-print/internal/adapter/memory"
	"github.com/couchcryptid/carbon-food-print/internal/adapter/nominatim"
	"github.com/couchcryptid/carbon-food-print/internal/adapter/postgres"
	"github.com/couchcryptid/carbon-food-print/internal/adapter/sqlite"
	"github.com/couchcryptid/carbon-food-print/internal/app"
	"github.com/couchcryptid/carbon-food-print/internal/config"
	"github.com/couchcryptid/carbon-food-print/internal/domain"
	"github.com/couchcryptid/carbon-food-print/internal/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	logger.Info("store opened", "driver", cfg.StoreDriver)

	client := nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.GeocodeTimeout, metrics, logger)
	geocoder := nominatim.NewCachedGeocoder(client, cfg.GeocodeCacheSize, metrics)

	var publisher app.RecordPublisher
	if cfg.KafkaEnabled {
		p := kafkaadapter.NewPublisher(cfg, logger)
		defer func() {
			if err := p.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		publisher = p
		logger.Info("record publishing enabled", "topic", cfg.KafkaRecordsTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("record publishing disabled")
	}

	session := app.NewSession(app.Deps{
		Catalog:   catalog.NewLoader(cfg.CatalogSource, cfg.GeocodeTimeout),
		Geocoder:  geocoder,
		KV:        kv,
		Publisher: publisher,
		Clock:     clockwork.NewRealClock(),
		Logger:    logger,
		Metrics:   metrics,
	})
	if err := session.Start(ctx); err != nil {
		logger.Error("failed to start session", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, session, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := session.FlushRecords(shutdownCtx); err != nil {
		logger.Error("unsaved records could not be persisted", "error", err)
	}

	logger.Info("shutdown complete")
}

// openStore returns the configured key-value store and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config) (domain.KeyValueStore, func(), error) {
	var (
		kv     domain.KeyValueStore
		closer io.Closer
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		kv = memory.NewStore()
	case config.StoreSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		kv, closer = s, s
	case config.StorePostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		kv, closer = s, s
	default:
		return nil, nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	return kv, func() {
		if closer != nil {
			_ = closer.Close()
		}
	}, nil
}
