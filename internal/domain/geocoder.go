package domain

import (
	"context"
	"errors"
)

// ErrPlaceNotFound is returned by a Geocoder for any lookup that did not
// produce a coordinate. Transport failures, bad responses and empty result
// sets are deliberately not distinguished.
var ErrPlaceNotFound = errors.New("place not found")

// Geocoder resolves free-text place names to coordinates.
type Geocoder interface {
	// Resolve returns the best match for placeName or ErrPlaceNotFound.
	Resolve(ctx context.Context, placeName string) (Coordinate, error)
}
