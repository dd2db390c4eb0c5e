package repository

import (
	"context"

	"voyago/travel-planner/internal/domain"
)

// Error constants for the repository layer.
var (
	ErrNotFound         = RepositoryError("not found")
	ErrPermissionDenied = RepositoryError("permission denied")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TripEvent is one push delivery from a single-trip subscription. Exists is
// false when the document has been deleted (or never existed); Err carries
// a stream failure, after which the channel is closed.
type TripEvent struct {
	Trip   *domain.Trip
	Exists bool
	Err    error
}

// ItineraryEvent is one push delivery from a single-itinerary subscription.
type ItineraryEvent struct {
	Itinerary *domain.Itinerary
	Exists    bool
	Err       error
}

// CatalogEvent is one push delivery from the whole-collection subscription:
// the full set of trips as of this change, not a delta.
type CatalogEvent struct {
	Trips []domain.Trip
	Err   error
}

// TripRepository is the Trips collection of the document store.
//
// Watch and WatchAll deliver the current value immediately on subscribe and
// then again on every remote change, in the order the store applied the
// writes. Both stop, and close their channel, when ctx is canceled —
// cancellation is the unsubscribe.
type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
	Watch(ctx context.Context, id string) (<-chan TripEvent, error)
	WatchAll(ctx context.Context) (<-chan CatalogEvent, error)
}

// ItineraryRepository is the Itineraries collection of the document store.
//
// SetField is the partial-update primitive: it overwrites exactly the field
// at the given path, leaving every sibling untouched server-side. There is
// no version check before the overwrite; the store is last-writer-wins at
// field-path granularity.
type ItineraryRepository interface {
	Create(ctx context.Context, itinerary *domain.Itinerary) error
	GetByID(ctx context.Context, id string) (*domain.Itinerary, error)
	SetField(ctx context.Context, id string, path FieldPath, value interface{}) error
	Watch(ctx context.Context, id string) (<-chan ItineraryEvent, error)
}

// OverrideRepository persists the user's manual exchange-rate overrides,
// independent of any trip. Both maps are keyed by currency code.
type OverrideRepository interface {
	GetManualRates(ctx context.Context) (map[string]float64, error)
	SetManualRates(ctx context.Context, rates map[string]float64) error
	GetEnabled(ctx context.Context) (map[string]bool, error)
	SetEnabled(ctx context.Context, enabled map[string]bool) error
}
