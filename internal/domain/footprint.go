package domain

import (
	"math"
	"strings"
)

const (
	// EmissionPerKm is the transport emission factor in kg CO2 per kg·km.
	EmissionPerKm = 0.0002

	// TreeAbsorptionPerYear is the CO2 one tree absorbs in a year, in kg.
	TreeAbsorptionPerYear = 14.0
)

// DailyInputEntry is one food item the user has added to today's list.
type DailyInputEntry struct {
	FoodID   string  `json:"food_id"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Origin   string  `json:"origin"`
}

// Validate checks the entry against the catalog. It never touches the network.
func (e DailyInputEntry) Validate(catalog Catalog) error {
	if _, ok := catalog.Lookup(e.FoodID); !ok {
		return Rejectf("unknown food %q", e.FoodID)
	}
	if !(e.Quantity > 0) {
		return Rejectf("quantity for %q must be greater than zero", e.FoodID)
	}
	if math.IsInf(e.Quantity, 0) {
		return Rejectf("quantity for %q must be finite", e.FoodID)
	}
	if strings.TrimSpace(e.Origin) == "" {
		return Rejectf("origin for %q is required", e.FoodID)
	}
	return nil
}

// FootprintLineResult is the computed footprint of one entry.
type FootprintLineResult struct {
	Name          string  `json:"name"`
	WeightKg      float64 `json:"weight_kg"`
	CfpKg         float64 `json:"cfp_kg"`
	DomesticCfpKg float64 `json:"domestic_cfp_kg"`
}

// Finite reports whether every figure of the line is a finite number.
func (l FootprintLineResult) Finite() bool {
	return isFinite(l.WeightKg) && isFinite(l.CfpKg) && isFinite(l.DomesticCfpKg)
}

// FootprintTotals sums the line results of one run.
type FootprintTotals struct {
	WeightKg      float64 `json:"weight_kg"`
	CfpKg         float64 `json:"cfp_kg"`
	DomesticCfpKg float64 `json:"domestic_cfp_kg"`
}

// Add accumulates a line into the totals.
func (t *FootprintTotals) Add(line FootprintLineResult) {
	t.WeightKg += line.WeightKg
	t.CfpKg += line.CfpKg
	t.DomesticCfpKg += line.DomesticCfpKg
}

// Finite reports whether every total is a finite number.
func (t FootprintTotals) Finite() bool {
	return isFinite(t.WeightKg) && isFinite(t.CfpKg) && isFinite(t.DomesticCfpKg)
}

// FootprintResult is the output of a successful daily run.
type FootprintResult struct {
	RunID  string                `json:"run_id"`
	Lines  []FootprintLineResult `json:"lines"`
	Totals FootprintTotals       `json:"totals"`
	Record DailyRecord           `json:"record"`
}

// SavingsKg is how much CO2 the run would have saved had every item come
// from its domestic origin. Negative when imports were closer.
func (r FootprintResult) SavingsKg() float64 {
	return r.Totals.CfpKg - r.Totals.DomesticCfpKg
}

// TransportCfpKg applies the emission factor to a weight moved over a distance.
func TransportCfpKg(weightKg, distanceKm float64) float64 {
	return weightKg * distanceKm * EmissionPerKm
}

// ComputeLine derives the footprint of one entry from resolved distances.
func ComputeLine(entry DailyInputEntry, food FoodCatalogEntry, originKm, domesticKm float64) FootprintLineResult {
	weight := entry.Quantity * food.UnitWeightKg()
	return FootprintLineResult{
		Name:          food.DisplayName,
		WeightKg:      weight,
		CfpKg:         TransportCfpKg(weight, originKm),
		DomesticCfpKg: TransportCfpKg(weight, domesticKm),
	}
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
