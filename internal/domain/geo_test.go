package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokyo = Coordinate{Lat: 35.6762, Lon: 139.6503}
	paris = Coordinate{Lat: 48.8566, Lon: 2.3522}
)

func TestDistanceKm_QuarterGreatCircle(t *testing.T) {
	d := DistanceKm(Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: 0, Lon: 90})
	assert.InDelta(t, 10007.5, d, 0.1)
}

func TestDistanceKm_SamePointIsZero(t *testing.T) {
	points := []Coordinate{
		{Lat: 0, Lon: 0},
		tokyo,
		paris,
		{Lat: 90, Lon: 0},
		{Lat: -90, Lon: 180},
		{Lat: -33.8688, Lon: -151.2093},
	}
	for _, p := range points {
		assert.InDelta(t, 0, DistanceKm(p, p), 1e-6, "point %+v", p)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	pairs := [][2]Coordinate{
		{tokyo, paris},
		{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 180}},
		{{Lat: -45, Lon: -170}, {Lat: 60, Lon: 170}},
	}
	for _, p := range pairs {
		assert.InDelta(t, DistanceKm(p[0], p[1]), DistanceKm(p[1], p[0]), 1e-9)
	}
}

func TestDistanceKm_KnownCities(t *testing.T) {
	// Tokyo to Paris is roughly 9700 km.
	assert.InDelta(t, 9712, DistanceKm(tokyo, paris), 15)
}

func TestDistanceKm_Antipodal(t *testing.T) {
	d := DistanceKm(Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: 0, Lon: 180})
	assert.InDelta(t, 20015.1, d, 0.1)
	assert.GreaterOrEqual(t, d, 0.0)
}

func TestCoordinate_Validate(t *testing.T) {
	tests := []struct {
		name  string
		c     Coordinate
		valid bool
	}{
		{"origin", Coordinate{}, true},
		{"poles and dateline", Coordinate{Lat: -90, Lon: 180}, true},
		{"latitude too high", Coordinate{Lat: 90.1}, false},
		{"latitude too low", Coordinate{Lat: -91}, false},
		{"longitude too high", Coordinate{Lon: 180.5}, false},
		{"longitude too low", Coordinate{Lon: -200}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidCoordinate)
		})
	}
}
