// Package app holds the Session, the application context built once at
// startup and handed to the HTTP layer.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/carbon-food-print/internal/domain"
	"github.com/couchcryptid/carbon-food-print/internal/observability"
	"github.com/couchcryptid/carbon-food-print/internal/pipeline"
	"github.com/couchcryptid/carbon-food-print/internal/store"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

// ErrNotStarted is returned by operations that need the catalog before Start succeeded.
var ErrNotStarted = errors.New("session not started: food catalog not loaded")

const publishTimeout = 5 * time.Second

// CatalogLoader reads the food catalog once at startup.
type CatalogLoader interface {
	Load(ctx context.Context) (domain.Catalog, error)
}

// RecordPublisher announces appended daily records. Optional.
type RecordPublisher interface {
	Publish(ctx context.Context, runID string, rec domain.DailyRecord) error
}

// Deps are the collaborators a Session is built from.
type Deps struct {
	Catalog   CatalogLoader
	Geocoder  domain.Geocoder
	KV        domain.KeyValueStore
	Publisher RecordPublisher
	Clock     clockwork.Clock
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

// PendingItem is a pending entry as shown in the daily list.
type PendingItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Origin   string  `json:"origin"`
}

// DashboardStats summarizes the whole history.
type DashboardStats struct {
	CumulativeCfpKg float64              `json:"cumulative_cfp_kg"`
	TreesEquivalent float64              `json:"trees_equivalent"`
	Trees           int                  `json:"trees"`
	Records         []domain.DailyRecord `json:"records"`
}

// Session is the single user's application state: catalog, pending entries,
// profile and record history. Daily runs are serialized; a second
// CalculateDaily while one is in flight fails with domain.ErrRunInProgress.
type Session struct {
	catalogLoader CatalogLoader
	publisher     RecordPublisher
	logger        *slog.Logger
	metrics       *observability.Metrics

	records    *store.RecordStore
	profile    *store.ProfileStore
	aggregator *pipeline.Aggregator
	storeCheck sharedobs.ReadinessChecker

	mu      sync.RWMutex
	catalog domain.Catalog
	pending []domain.DailyInputEntry

	// pendingGen changes whenever the pending list is cleared.
	pendingGen uint64

	running atomic.Bool
	ready   atomic.Bool
}

// NewSession wires a Session. Call Start before serving requests.
func NewSession(deps Deps) *Session {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	// Durable stores report their own readiness.
	storeCheck, _ := deps.KV.(sharedobs.ReadinessChecker)

	records := store.NewRecordStore(deps.KV)
	return &Session{
		catalogLoader: deps.Catalog,
		publisher:     deps.Publisher,
		logger:        deps.Logger,
		metrics:       deps.Metrics,
		records:       records,
		profile:       store.NewProfileStore(deps.KV),
		storeCheck:    storeCheck,
		aggregator: pipeline.NewAggregator(
			pipeline.NewResolver(deps.Geocoder),
			records,
			clock,
			deps.Logger,
			deps.Metrics,
		),
	}
}

// Start loads the catalog, record history and profile. A catalog failure is
// fatal and returned as *domain.CatalogLoadError.
func (s *Session) Start(ctx context.Context) error {
	catalog, err := s.catalogLoader.Load(ctx)
	if err != nil {
		var loadErr *domain.CatalogLoadError
		if !errors.As(err, &loadErr) {
			err = &domain.CatalogLoadError{Source: "catalog", Err: err}
		}
		return err
	}

	if err := s.records.Load(ctx); err != nil {
		return err
	}
	registered, err := s.profile.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.catalog = catalog
	s.mu.Unlock()

	s.updateHistoryGauges()
	s.ready.Store(true)
	s.logger.Info("session started",
		"foods", len(catalog),
		"records", s.records.Len(),
		"registered", registered,
	)
	return nil
}

// CheckReadiness returns nil once the catalog is loaded and the store, when
// it can tell, is reachable.
func (s *Session) CheckReadiness(ctx context.Context) error {
	if !s.ready.Load() {
		return ErrNotStarted
	}
	if s.storeCheck != nil {
		if err := s.storeCheck.CheckReadiness(ctx); err != nil {
			return fmt.Errorf("store not ready: %w", err)
		}
	}
	return nil
}

// Catalog lists the foods available for entries, sorted by ID.
func (s *Session) Catalog() []domain.FoodCatalogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Entries()
}

// AddEntry validates entry against the catalog and appends it to the pending list.
func (s *Session) AddEntry(entry domain.DailyInputEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog == nil {
		return ErrNotStarted
	}
	if err := entry.Validate(s.catalog); err != nil {
		return err
	}
	s.pending = append(s.pending, entry)
	return nil
}

// PendingEntries returns a copy of today's pending list.
func (s *Session) PendingEntries() []domain.DailyInputEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DailyInputEntry, len(s.pending))
	copy(out, s.pending)
	return out
}

// PendingView renders the pending list with display names. Foods missing
// from the catalog show as "unknown".
func (s *Session) PendingView() []PendingItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PendingItem, 0, len(s.pending))
	for _, e := range s.pending {
		name := "unknown"
		if food, ok := s.catalog.Lookup(e.FoodID); ok {
			name = food.DisplayName
		}
		out = append(out, PendingItem{Name: name, Quantity: e.Quantity, Unit: e.Unit, Origin: e.Origin})
	}
	return out
}

// ClearPending empties the pending list.
func (s *Session) ClearPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.pendingGen++
}

// CalculateDaily runs the aggregator over the pending list for the
// registered residence. Once started a run is not canceled by ctx. The
// pending entries that were calculated are removed when the result is valid,
// including when only persisting the record failed.
func (s *Session) CalculateDaily(ctx context.Context) (domain.FootprintResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.Calculations.WithLabelValues("busy").Inc()
		return domain.FootprintResult{}, domain.ErrRunInProgress
	}
	defer s.running.Store(false)

	if !s.ready.Load() {
		return domain.FootprintResult{}, ErrNotStarted
	}

	profile := s.profile.Profile()
	if !profile.IsRegistered() {
		s.metrics.Calculations.WithLabelValues("rejected").Inc()
		return domain.FootprintResult{}, domain.Rejectf("register a name and residence first")
	}

	s.mu.RLock()
	catalog := s.catalog
	entries := make([]domain.DailyInputEntry, len(s.pending))
	copy(entries, s.pending)
	gen := s.pendingGen
	s.mu.RUnlock()

	runCtx := context.WithoutCancel(ctx)
	result, err := s.aggregator.CalculateDaily(runCtx, entries, catalog, profile.Residence)

	var storageErr *domain.StorageError
	if err != nil && !errors.As(err, &storageErr) {
		return result, err
	}

	s.dropCalculated(len(entries), gen)
	s.updateHistoryGauges()
	s.publish(runCtx, result)
	return result, err
}

// dropCalculated removes the n entries a run calculated from the front of the
// pending list. Entries added while the run was in flight stay pending. If
// the list was cleared since gen the calculated entries are already gone.
func (s *Session) dropCalculated(n int, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.pendingGen {
		return
	}

	if n >= len(s.pending) {
		s.pending = nil
		return
	}
	s.pending = append([]domain.DailyInputEntry(nil), s.pending[n:]...)
}

func (s *Session) publish(ctx context.Context, result domain.FootprintResult) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, result.RunID, result.Record); err != nil {
		s.metrics.RecordsPublished.WithLabelValues("error").Inc()
		s.logger.Warn("publish record failed", "run_id", result.RunID, "error", err)
		return
	}
	s.metrics.RecordsPublished.WithLabelValues("success").Inc()
}

// DashboardStats returns cumulative CFP, its tree equivalent and the history.
func (s *Session) DashboardStats() DashboardStats {
	trees := s.records.TreesEquivalent()
	return DashboardStats{
		CumulativeCfpKg: s.records.CumulativeCfpKg(),
		TreesEquivalent: trees,
		Trees:           int(trees),
		Records:         s.records.All(),
	}
}

// Records returns the full daily history.
func (s *Session) Records() []domain.DailyRecord {
	return s.records.All()
}

// FlushRecords retries persisting history left unsaved by a storage failure.
func (s *Session) FlushRecords(ctx context.Context) error {
	if err := s.records.Flush(ctx); err != nil {
		s.metrics.StorageFailures.Inc()
		return err
	}
	return nil
}

// SaveProfile stores the user's name and residence.
func (s *Session) SaveProfile(ctx context.Context, name, residence string) error {
	err := s.profile.Save(ctx, name, residence)
	var storageErr *domain.StorageError
	if errors.As(err, &storageErr) {
		s.metrics.StorageFailures.Inc()
		s.logger.Error("profile kept in memory, persisting failed", "key", storageErr.Key, "error", storageErr.Err)
	}
	return err
}

// Profile returns the current profile and whether it is registered.
func (s *Session) Profile() (domain.UserProfile, bool) {
	p := s.profile.Profile()
	return p, p.IsRegistered()
}

func (s *Session) updateHistoryGauges() {
	s.metrics.HistoryRecords.Set(float64(s.records.Len()))
	s.metrics.CumulativeCfpKg.Set(s.records.CumulativeCfpKg())
}
