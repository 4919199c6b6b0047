package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/couchcryptid/carbon-food-print/internal/app"
	"github.com/couchcryptid/carbon-food-print/internal/domain"
)

const maxBodyBytes = 1 << 20

type profileRequest struct {
	Name      string `json:"name"`
	Residence string `json:"residence"`
}

type profileResponse struct {
	Name       string `json:"name"`
	Residence  string `json:"residence"`
	Registered bool   `json:"registered"`
}

type entriesResponse struct {
	Entries []app.PendingItem `json:"entries"`
}

type recordsResponse struct {
	Records []domain.DailyRecord `json:"records"`
}

type calculationResponse struct {
	RunID     string                       `json:"run_id"`
	Lines     []domain.FootprintLineResult `json:"lines"`
	Totals    domain.FootprintTotals       `json:"totals"`
	SavingsKg float64                      `json:"savings_kg"`
	Record    domain.DailyRecord           `json:"record"`
}

type errorResponse struct {
	Error        string               `json:"error"`
	FailedPlaces []string             `json:"failed_places,omitempty"`
	Result       *calculationResponse `json:"result,omitempty"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, _ *http.Request) {
	profile, registered := s.service.Profile()
	if !registered {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "profile not registered"})
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Name: profile.Name, Residence: profile.Residence, Registered: true})
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.service.SaveProfile(r.Context(), req.Name, req.Residence); err != nil {
		s.writeError(w, err, nil)
		return
	}
	profile, registered := s.service.Profile()
	writeJSON(w, http.StatusOK, profileResponse{Name: profile.Name, Residence: profile.Residence, Registered: registered})
}

func (s *Server) handleListFoods(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Catalog())
}

func (s *Server) handleListEntries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, entriesResponse{Entries: s.service.PendingView()})
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var entry domain.DailyInputEntry
	if !s.decode(w, r, &entry) {
		return
	}
	if err := s.service.AddEntry(entry); err != nil {
		s.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, entriesResponse{Entries: s.service.PendingView()})
}

func (s *Server) handleClearEntries(w http.ResponseWriter, _ *http.Request) {
	s.service.ClearPending()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.CalculateDaily(r.Context())
	if err != nil {
		var storageErr *domain.StorageError
		if errors.As(err, &storageErr) {
			body := toCalculationResponse(result)
			s.writeError(w, err, &body)
			return
		}
		s.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toCalculationResponse(result))
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.service.DashboardStats())
}

func (s *Server) handleRecords(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, recordsResponse{Records: s.service.Records()})
}

func toCalculationResponse(r domain.FootprintResult) calculationResponse {
	return calculationResponse{
		RunID:     r.RunID,
		Lines:     r.Lines,
		Totals:    r.Totals,
		SavingsKg: r.SavingsKg(),
		Record:    r.Record,
	}
}

// decode reads a JSON body into v, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error, result *calculationResponse) {
	var (
		rejected   *domain.InputRejectedError
		failed     *domain.ResolutionFailedError
		storageErr *domain.StorageError
	)
	switch {
	case errors.As(err, &rejected):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &failed):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), FailedPlaces: failed.Names})
	case errors.Is(err, domain.ErrRunInProgress):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, app.ErrNotStarted):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.As(err, &storageErr):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Result: result})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
