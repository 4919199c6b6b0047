package domain

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// ErrInvalidCoordinate is returned when a latitude or longitude is out of range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate represents a WGS-84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether the coordinate lies within [-90, 90] x [-180, 180].
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v must be between -90 and 90", ErrInvalidCoordinate, c.Lat)
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v must be between -180 and 180", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// DistanceKm returns the haversine great-circle distance between a and b.
func DistanceKm(a, b Coordinate) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLon := toRadians(b.Lon) - toRadians(a.Lon)

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	// Rounding can push h marginally past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
