package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/carbon-food-print/internal/domain"
	"github.com/couchcryptid/carbon-food-print/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// RecordAppender receives the daily record of a successful run.
type RecordAppender interface {
	Append(ctx context.Context, rec domain.DailyRecord) error
}

// Aggregator computes the daily footprint of a list of entries. A run either
// succeeds for every entry and appends exactly one record, or appends nothing.
//
// At most one CalculateDaily may be in flight per Aggregator; callers
// serialize runs.
type Aggregator struct {
	resolver *Resolver
	records  RecordAppender
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewAggregator creates an Aggregator.
func NewAggregator(resolver *Resolver, records RecordAppender, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{
		resolver: resolver,
		records:  records,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// CalculateDaily validates entries, resolves the origin and domestic distances
// of each entry to residence, and appends the day's total.
//
// Errors:
//   - *domain.InputRejectedError before any network call, or after the
//     lookups when a computed figure is not a finite number.
//   - *domain.ResolutionFailedError when any place could not be geocoded;
//     nothing is appended.
//   - *domain.StorageError when the record could not be persisted; the
//     returned result is still valid and the record is kept in memory.
func (a *Aggregator) CalculateDaily(ctx context.Context, entries []domain.DailyInputEntry, catalog domain.Catalog, residence string) (domain.FootprintResult, error) {
	start := a.clock.Now()

	if err := validateRun(entries, catalog, residence); err != nil {
		a.metrics.Calculations.WithLabelValues("rejected").Inc()
		return domain.FootprintResult{}, err
	}

	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID)
	a.metrics.EntriesPerRun.Observe(float64(len(entries)))

	result := domain.FootprintResult{
		RunID: runID,
		Lines: make([]domain.FootprintLineResult, 0, len(entries)),
	}

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			a.metrics.Calculations.WithLabelValues("aborted").Inc()
			return domain.FootprintResult{}, fmt.Errorf("calculation canceled: %w", err)
		}

		line, err := a.computeEntry(ctx, entry, catalog, residence)
		if err != nil {
			a.metrics.Calculations.WithLabelValues("aborted").Inc()
			logger.Warn("daily calculation aborted", "entry", i, "food_id", entry.FoodID, "error", err)
			return domain.FootprintResult{}, err
		}
		if !line.Finite() {
			a.metrics.Calculations.WithLabelValues("rejected").Inc()
			return domain.FootprintResult{}, domain.Rejectf("footprint of %q is too large to record; check the quantity", entry.FoodID)
		}
		result.Lines = append(result.Lines, line)
		result.Totals.Add(line)
	}
	if !result.Totals.Finite() {
		a.metrics.Calculations.WithLabelValues("rejected").Inc()
		return domain.FootprintResult{}, domain.Rejectf("daily footprint is too large to record; check the quantities")
	}

	result.Record = domain.NewDailyRecord(a.clock.Now(), result.Totals.CfpKg)
	err := a.records.Append(ctx, result.Record)
	a.metrics.CalculationDuration.Observe(a.clock.Since(start).Seconds())

	var storageErr *domain.StorageError
	switch {
	case errors.As(err, &storageErr):
		a.metrics.Calculations.WithLabelValues("storage_error").Inc()
		a.metrics.StorageFailures.Inc()
		logger.Error("record kept in memory, persisting failed", "key", storageErr.Key, "error", storageErr.Err)
		return result, err
	case err != nil:
		a.metrics.Calculations.WithLabelValues("storage_error").Inc()
		return result, err
	}

	a.metrics.Calculations.WithLabelValues("success").Inc()
	logger.Info("daily calculation complete",
		"entries", len(result.Lines),
		"total_cfp_kg", result.Totals.CfpKg,
		"domestic_cfp_kg", result.Totals.DomesticCfpKg,
		"date", result.Record.Date.Format(domain.DateLayout),
	)
	return result, nil
}

// computeEntry resolves the origin and domestic pairs of one entry
// concurrently. Both pairs always finish so every failed name is reported.
func (a *Aggregator) computeEntry(ctx context.Context, entry domain.DailyInputEntry, catalog domain.Catalog, residence string) (domain.FootprintLineResult, error) {
	food, _ := catalog.Lookup(entry.FoodID)

	var (
		g                      errgroup.Group
		originKm, domesticKm   float64
		originErr, domesticErr error
	)
	g.Go(func() error {
		originKm, originErr = a.resolver.DistanceKm(ctx, entry.Origin, residence)
		return originErr
	})
	g.Go(func() error {
		domesticKm, domesticErr = a.resolver.DistanceKm(ctx, food.DomesticOriginName, residence)
		return domesticErr
	})
	if err := g.Wait(); err != nil {
		if failed := domain.MergeResolutionFailures(originErr, domesticErr); failed != nil {
			return domain.FootprintLineResult{}, failed
		}
		return domain.FootprintLineResult{}, err
	}

	return domain.ComputeLine(entry, food, originKm, domesticKm), nil
}

func validateRun(entries []domain.DailyInputEntry, catalog domain.Catalog, residence string) error {
	if len(entries) == 0 {
		return domain.Rejectf("add at least one food item to the list")
	}
	if strings.TrimSpace(residence) == "" {
		return domain.Rejectf("residence is required")
	}
	for _, e := range entries {
		if err := e.Validate(catalog); err != nil {
			return err
		}
	}
	return nil
}
