package sync_test

import (
	"context"
	gosync "sync"

	"voyago/travel-planner/internal/domain"
	"voyago/travel-planner/internal/repository"
)

// Fake document-store repositories. Watch channels are fed directly by the
// tests, standing in for remote change-stream pushes.

type tripWatch struct {
	id string
	ch chan repository.TripEvent
}

type fakeTripRepo struct {
	mu        gosync.Mutex
	created   []*domain.Trip
	createErr error
	watches   []*tripWatch
	catalogs  []chan repository.CatalogEvent
}

func (f *fakeTripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	copied := *trip
	f.created = append(f.created, &copied)
	return nil
}

func (f *fakeTripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.created {
		if t.ID == id {
			copied := *t
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTripRepo) Watch(ctx context.Context, id string) (<-chan repository.TripEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &tripWatch{id: id, ch: make(chan repository.TripEvent, 16)}
	f.watches = append(f.watches, w)
	return w.ch, nil
}

func (f *fakeTripRepo) WatchAll(ctx context.Context) (<-chan repository.CatalogEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan repository.CatalogEvent, 16)
	f.catalogs = append(f.catalogs, ch)
	return ch, nil
}

func (f *fakeTripRepo) watchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watches)
}

type itineraryWatch struct {
	id string
	ch chan repository.ItineraryEvent
}

type setFieldCall struct {
	id    string
	path  string
	value interface{}
}

type fakeItineraryRepo struct {
	mu        gosync.Mutex
	created   []*domain.Itinerary
	createErr error
	setErr    error
	setCalls  []setFieldCall
	watches   []*itineraryWatch
}

func (f *fakeItineraryRepo) Create(ctx context.Context, itinerary *domain.Itinerary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	copied := *itinerary
	f.created = append(f.created, &copied)
	return nil
}

func (f *fakeItineraryRepo) GetByID(ctx context.Context, id string) (*domain.Itinerary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.created {
		if it.ID == id {
			copied := *it
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeItineraryRepo) SetField(ctx context.Context, id string, path repository.FieldPath, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.setCalls = append(f.setCalls, setFieldCall{id: id, path: path.String(), value: value})
	return nil
}

func (f *fakeItineraryRepo) Watch(ctx context.Context, id string) (<-chan repository.ItineraryEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &itineraryWatch{id: id, ch: make(chan repository.ItineraryEvent, 16)}
	f.watches = append(f.watches, w)
	return w.ch, nil
}

// lastWatch returns the most recently opened itinerary watch.
func (f *fakeItineraryRepo) lastWatch() *itineraryWatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.watches) == 0 {
		return nil
	}
	return f.watches[len(f.watches)-1]
}

func (f *fakeItineraryRepo) watchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watches)
}

func (f *fakeItineraryRepo) calls() []setFieldCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]setFieldCall, len(f.setCalls))
	copy(out, f.setCalls)
	return out
}
