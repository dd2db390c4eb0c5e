package sync

import (
	"sync"

	"voyago/travel-planner/internal/repository"
)

// Registry owns one Engine per established session. Engines are created
// lazily on first use and torn down when the session ends, so a session's
// subscriptions never outlive it.
type Registry struct {
	trips       repository.TripRepository
	itineraries repository.ItineraryRepository

	mu      sync.Mutex
	engines map[string]*Engine
}

// NewRegistry creates an empty engine registry.
func NewRegistry(trips repository.TripRepository, itineraries repository.ItineraryRepository) *Registry {
	return &Registry{
		trips:       trips,
		itineraries: itineraries,
		engines:     map[string]*Engine{},
	}
}

// Engine returns the engine for the given session subject, creating it on
// first use.
func (r *Registry) Engine(subject string) *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.engines[subject]; ok {
		return e
	}
	e := NewEngine(subject, r.trips, r.itineraries)
	r.engines[subject] = e
	return e
}

// Remove closes and forgets the engine for a session, canceling all of its
// subscriptions.
func (r *Registry) Remove(subject string) {
	r.mu.Lock()
	e, ok := r.engines[subject]
	delete(r.engines, subject)
	r.mu.Unlock()
	if ok {
		e.Close()
	}
}

// Close tears down every engine. Used on server shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	engines := make([]*Engine, 0, len(r.engines))
	for _, e := range r.engines {
		engines = append(engines, e)
	}
	r.engines = map[string]*Engine{}
	r.mu.Unlock()
	for _, e := range engines {
		e.Close()
	}
}
