// Package pipeline turns a day's pending entries into a footprint result and
// an appended history record.
package pipeline

import (
	"context"
	"sync"

	"github.com/couchcryptid/carbon-food-print/internal/domain"
)

// Resolver geocodes two place names concurrently.
type Resolver struct {
	geocoder domain.Geocoder
}

// NewResolver creates a Resolver over geocoder.
func NewResolver(geocoder domain.Geocoder) *Resolver {
	return &Resolver{geocoder: geocoder}
}

// ResolvePair looks up a and b at the same time and waits for both. When
// either lookup fails it returns a *domain.ResolutionFailedError naming every
// failed place in argument order.
func (r *Resolver) ResolvePair(ctx context.Context, a, b string) (domain.Coordinate, domain.Coordinate, error) {
	var (
		wg         sync.WaitGroup
		coordA     domain.Coordinate
		coordB     domain.Coordinate
		errA, errB error
	)
	wg.Go(func() { coordA, errA = r.geocoder.Resolve(ctx, a) })
	wg.Go(func() { coordB, errB = r.geocoder.Resolve(ctx, b) })
	wg.Wait()

	if errA == nil && errB == nil {
		return coordA, coordB, nil
	}

	failed := &domain.ResolutionFailedError{}
	if errA != nil {
		failed.Names = append(failed.Names, a)
	}
	if errB != nil {
		failed.Names = append(failed.Names, b)
	}
	return domain.Coordinate{}, domain.Coordinate{}, failed
}

// DistanceKm resolves both places and returns the great-circle distance between them.
func (r *Resolver) DistanceKm(ctx context.Context, from, to string) (float64, error) {
	a, b, err := r.ResolvePair(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return domain.DistanceKm(a, b), nil
}
