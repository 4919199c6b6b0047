package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/carbon-food-print/internal/adapter/http"
	"github.com/couchcryptid/carbon-food-print/internal/adapter/memory"
	"github.com/couchcryptid/carbon-food-print/internal/app"
	"github.com/couchcryptid/carbon-food-print/internal/domain"
	"github.com/couchcryptid/carbon-food-print/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type fakeCatalog struct {
	err error
}

func (f fakeCatalog) Load(context.Context) (domain.Catalog, error) {
	if f.err != nil {
		return nil, f.err
	}
	return domain.Catalog{
		"banana": {ID: "banana", DisplayName: "Banana", AverageUnitWeightKg: 0.5, DomesticOriginName: "Near Farm"},
	}, nil
}

type fakeGeocoder map[string]domain.Coordinate

func (g fakeGeocoder) Resolve(_ context.Context, name string) (domain.Coordinate, error) {
	c, ok := g[name]
	if !ok {
		return domain.Coordinate{}, domain.ErrPlaceNotFound
	}
	return c, nil
}

// stubService returns canned calculation outcomes for status mapping tests.
type stubService struct {
	*app.Session
	result domain.FootprintResult
	err    error
}

func (s *stubService) CalculateDaily(context.Context) (domain.FootprintResult, error) {
	return s.result, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func equatorAt(km float64) domain.Coordinate {
	return domain.Coordinate{Lon: km / domain.EarthRadiusKm * 180 / math.Pi}
}

func newSession(t *testing.T, catalogErr error) *app.Session {
	t.Helper()
	s := app.NewSession(app.Deps{
		Catalog: fakeCatalog{err: catalogErr},
		Geocoder: fakeGeocoder{
			"Home":      {},
			"Far Farm":  equatorAt(1000),
			"Near Farm": equatorAt(100),
		},
		KV:      memory.NewStore(),
		Clock:   clockwork.NewFakeClockAt(time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)),
		Logger:  discardLogger(),
		Metrics: observability.NewMetricsForTesting(),
	})
	_ = s.Start(context.Background())
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// --- operational endpoints ---

func TestHealthzReturns200(t *testing.T) {
	srv := httpadapter.NewServer(":0", newSession(t, nil), discardLogger())

	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenStarted(t *testing.T) {
	srv := httpadapter.NewServer(":0", newSession(t, nil), discardLogger())

	rec := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WithoutCatalog(t *testing.T) {
	srv := httpadapter.NewServer(":0", newSession(t, errors.New("missing file")), discardLogger())

	rec := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := httpadapter.NewServer(":0", newSession(t, nil), discardLogger())

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- API ---

func TestProfileLifecycle(t *testing.T) {
	srv := httpadapter.NewServer(":0", newSession(t, nil), discardLogger())

	rec := do(t, srv, http.MethodGet, "/api/v1/profile", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPut, "/api/v1/profile", `{"name":"Aiko","residence":"Home"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/v1/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Aiko", body["name"])
	assert.Equal(t, "Home", body["residence"])
	assert.Equal(t, true, body["registered"])
}

func TestSaveProfileBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "blank residence", body: `{"name":"Aiko","residence":"  "}`},
		{name: "malformed json", body: `{"name":`},
		{name: "unknown field", body: `{"name":"Aiko","residence":"Home","age":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httpadapter.NewServer(":0", newSession(t, nil), discardLogger())

			rec := do(t, srv, http.MethodPut, "/api/v1/profile", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
}

func TestListFoods(t *testing.T) {
	srv := httpadapter.NewServer(":0", newSession(t, nil), discardLogger())

	rec := do(t, srv, http.MethodGet, "/api/v1/foods", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":"banana","name":"Banana","avg_weight_kg":0.5,"domestic_origin":"Near Farm"}]`, rec.Body.String())
}

func TestEntriesLifecycle(t *testing.T) {
	srv := httpadapter.NewServer(":0", newSession(t, nil), discardLogger())

	rec := do(t, srv, http.MethodPost, "/api/v1/entries", `{"food_id":"banana","quantity":2,"unit":"pcs","origin":"Far Farm"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"entries":[{"name":"Banana","quantity":2,"unit":"pcs","origin":"Far Farm"}]}`, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/v1/entries", `{"food_id":"durian","quantity":1,"origin":"Far Farm"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/v1/entries", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["entries"], 1)

	rec = do(t, srv, http.MethodDelete, "/api/v1/entries", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/v1/entries", "")
	assert.JSONEq(t, `{"entries":[]}`, rec.Body.String())
}

func TestCalculateFlow(t *testing.T) {
	srv := httpadapter.NewServer(":0", newSession(t, nil), discardLogger())

	rec := do(t, srv, http.MethodPut, "/api/v1/profile", `{"name":"Aiko","residence":"Home"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, srv, http.MethodPost, "/api/v1/entries", `{"food_id":"banana","quantity":2,"unit":"pcs","origin":"Far Farm"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/v1/calculations", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		RunID  string `json:"run_id"`
		Totals struct {
			WeightKg      float64 `json:"weight_kg"`
			CfpKg         float64 `json:"cfp_kg"`
			DomesticCfpKg float64 `json:"domestic_cfp_kg"`
		} `json:"totals"`
		SavingsKg float64 `json:"savings_kg"`
		Record    struct {
			Date     string  `json:"date"`
			TotalCfp float64 `json:"total_cfp"`
		} `json:"record"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.RunID)
	assert.InDelta(t, 1.0, result.Totals.WeightKg, 1e-9)
	assert.InDelta(t, 0.2, result.Totals.CfpKg, 1e-9)
	assert.InDelta(t, 0.02, result.Totals.DomesticCfpKg, 1e-9)
	assert.InDelta(t, 0.18, result.SavingsKg, 1e-9)
	assert.Equal(t, "2026-10-16", result.Record.Date)

	rec = do(t, srv, http.MethodGet, "/api/v1/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decodeBody(t, rec)
	assert.InDelta(t, 0.2, dash["cumulative_cfp_kg"], 1e-9)
	assert.InDelta(t, 0.2/14, dash["trees_equivalent"], 1e-9)
	assert.InDelta(t, 0, dash["trees"], 0)

	rec = do(t, srv, http.MethodGet, "/api/v1/records", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Records []struct {
			Date     string  `json:"date"`
			TotalCfp float64 `json:"total_cfp"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Records, 1)
	assert.Equal(t, "2026-10-16", history.Records[0].Date)
	assert.InDelta(t, 0.2, history.Records[0].TotalCfp, 1e-9)
}

func TestCalculateUnknownPlaceReturns422(t *testing.T) {
	srv := httpadapter.NewServer(":0", newSession(t, nil), discardLogger())

	do(t, srv, http.MethodPut, "/api/v1/profile", `{"name":"Aiko","residence":"Home"}`)
	do(t, srv, http.MethodPost, "/api/v1/entries", `{"food_id":"banana","quantity":2,"unit":"pcs","origin":"Atlantis"}`)

	rec := do(t, srv, http.MethodPost, "/api/v1/calculations", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []any{"Atlantis"}, decodeBody(t, rec)["failed_places"])

	rec = do(t, srv, http.MethodGet, "/api/v1/entries", "")
	assert.Len(t, decodeBody(t, rec)["entries"], 1, "pending list kept after failure")
}

func TestCalculateStatusMapping(t *testing.T) {
	record := domain.NewDailyRecord(time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), 0.5)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantResult bool
	}{
		{name: "rejected", err: domain.Rejectf("add at least one food item to the list"), wantStatus: http.StatusBadRequest},
		{name: "busy", err: domain.ErrRunInProgress, wantStatus: http.StatusConflict},
		{name: "not started", err: app.ErrNotStarted, wantStatus: http.StatusServiceUnavailable},
		{name: "storage", err: &domain.StorageError{Key: "AllRecords", Err: errors.New("full")}, wantStatus: http.StatusInternalServerError, wantResult: true},
		{name: "unexpected", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				Session: newSession(t, nil),
				result:  domain.FootprintResult{RunID: "run-1", Totals: domain.FootprintTotals{CfpKg: 0.5}, Record: record},
				err:     tt.err,
			}
			srv := httpadapter.NewServer(":0", svc, discardLogger())

			rec := do(t, srv, http.MethodPost, "/api/v1/calculations", "")
			assert.Equal(t, tt.wantStatus, rec.Code)

			body := decodeBody(t, rec)
			assert.NotEmpty(t, body["error"])
			if tt.wantResult {
				result, ok := body["result"].(map[string]any)
				require.True(t, ok, "storage failures carry the computed result")
				assert.Equal(t, "run-1", result["run_id"])
			} else {
				assert.NotContains(t, body, "result")
			}
		})
	}
}
