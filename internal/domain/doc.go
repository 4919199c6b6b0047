// Package domain models the carbon food print (CFP) of a user's daily food
// intake.
//
// # Transport Emissions
//
// A food item's CFP is the CO2 attributed to moving it from its declared
// origin to the user's residence:
//
//	weightKg = quantity * averageUnitWeightKg
//	cfpKg    = weightKg * distanceKm * EmissionPerKm
//
// Distances are great-circle distances (haversine, Earth radius 6371 km)
// between geocoded place names. EmissionPerKm is 0.0002 kg CO2 per kg·km.
//
// # Domestic Baseline
//
// Every catalog entry names a domestic origin. The same formula applied to
// the domestic origin gives the baseline the user's choice is compared to.
//
// # Catalog Format
//
// The food catalog is a JSON object keyed by food ID:
//
//	{"banana": {"NameEn": "Banana", "avg_weight_kg": 0.15, "domestic_origin": "Kagoshima"}}
//
// A missing or zero avg_weight_kg means quantities are already in kilograms
// (unit weight 1.0).
//
// # History
//
// Each successful daily run appends one [DailyRecord]. Same-day records are
// not merged. The cumulative CFP divided by [TreeAbsorptionPerYear] gives the
// number of trees needed to absorb it in a year.
package domain
