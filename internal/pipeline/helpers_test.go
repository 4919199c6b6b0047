package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/couchcryptid/carbon-food-print/internal/domain"
)

// --- mocks ---

// mapGeocoder resolves names from a fixed table; anything else is not found.
type mapGeocoder struct {
	coords map[string]domain.Coordinate
	gate   chan struct{}            // when non-nil every call blocks until closed
	hold   map[string]chan struct{} // per-name gates

	mu    sync.Mutex
	calls []string
}

func (m *mapGeocoder) Resolve(ctx context.Context, name string) (domain.Coordinate, error) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()

	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return domain.Coordinate{}, domain.ErrPlaceNotFound
		}
	}
	if ch, ok := m.hold[name]; ok {
		select {
		case <-ch:
		case <-ctx.Done():
			return domain.Coordinate{}, domain.ErrPlaceNotFound
		}
	}

	c, ok := m.coords[name]
	if !ok {
		return domain.Coordinate{}, domain.ErrPlaceNotFound
	}
	return c, nil
}

func (m *mapGeocoder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mapGeocoder) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

type recordingAppender struct {
	records []domain.DailyRecord
	err     error
}

func (r *recordingAppender) Append(_ context.Context, rec domain.DailyRecord) error {
	r.records = append(r.records, rec)
	return r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// equatorAt returns the point on the equator distanceKm east of 0°,0°.
func equatorAt(distanceKm float64) domain.Coordinate {
	return domain.Coordinate{Lat: 0, Lon: distanceKm / domain.EarthRadiusKm * 180 / math.Pi}
}

// Places used across tests: residence at the origin of the grid, an import
// origin 1000 km away and a domestic origin 100 km away.
const (
	residence      = "Home"
	importOrigin   = "Far Farm"
	domesticOrigin = "Near Farm"
)

func fixtureCoords() map[string]domain.Coordinate {
	return map[string]domain.Coordinate{
		residence:      {Lat: 0, Lon: 0},
		importOrigin:   equatorAt(1000),
		domesticOrigin: equatorAt(100),
	}
}

func fixtureCatalog() domain.Catalog {
	return domain.Catalog{
		"banana": {ID: "banana", DisplayName: "Banana", AverageUnitWeightKg: 0.5, DomesticOriginName: domesticOrigin},
		"rice":   {ID: "rice", DisplayName: "Rice", DomesticOriginName: domesticOrigin},
	}
}
