package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FoodCatalogEntry describes a food the user can pick.
type FoodCatalogEntry struct {
	ID                  string  `json:"id"`
	DisplayName         string  `json:"name"`
	AverageUnitWeightKg float64 `json:"avg_weight_kg"`
	DomesticOriginName  string  `json:"domestic_origin"`
}

// UnitWeightKg returns the average unit weight, falling back to 1 kg when the
// catalog leaves it missing or non-positive.
func (e FoodCatalogEntry) UnitWeightKg() float64 {
	if e.AverageUnitWeightKg <= 0 {
		return 1.0
	}
	return e.AverageUnitWeightKg
}

// Catalog maps food IDs to their entries. It is read-only once loaded.
type Catalog map[string]FoodCatalogEntry

// Lookup returns the entry for id.
func (c Catalog) Lookup(id string) (FoodCatalogEntry, bool) {
	e, ok := c[id]
	return e, ok
}

// Entries returns all entries sorted by ID.
func (c Catalog) Entries() []FoodCatalogEntry {
	out := make([]FoodCatalogEntry, 0, len(c))
	for _, e := range c {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// rawCatalogEntry is the external catalog shape.
type rawCatalogEntry struct {
	NameEn         string   `json:"NameEn"`
	AvgWeightKg    *float64 `json:"avg_weight_kg"`
	DomesticOrigin string   `json:"domestic_origin"`
}

// ParseCatalog decodes the external catalog JSON keyed by food ID.
func ParseCatalog(data []byte) (Catalog, error) {
	var raw map[string]rawCatalogEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("parse catalog: no foods defined")
	}

	catalog := make(Catalog, len(raw))
	for id, r := range raw {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("parse catalog: empty food id")
		}
		name := strings.TrimSpace(r.NameEn)
		if name == "" {
			return nil, fmt.Errorf("parse catalog: food %q has no NameEn", id)
		}
		origin := strings.TrimSpace(r.DomesticOrigin)
		if origin == "" {
			return nil, fmt.Errorf("parse catalog: food %q has no domestic_origin", id)
		}
		var weight float64
		if r.AvgWeightKg != nil {
			weight = *r.AvgWeightKg
		}
		catalog[id] = FoodCatalogEntry{
			ID:                  id,
			DisplayName:         name,
			AverageUnitWeightKg: weight,
			DomesticOriginName:  origin,
		}
	}
	return catalog, nil
}
