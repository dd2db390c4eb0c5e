package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"voyago/travel-planner/internal/domain"
	"voyago/travel-planner/internal/repository"

	"github.com/google/uuid"
)

// ErrNoSession is returned by operations that require an established
// session identity.
var ErrNoSession = errors.New("no established session")

// permissionNotice is the user-facing explanation for a denied
// subscription; the usual cause is an installation-id or access-rule
// mismatch between this deployment and the document store.
const permissionNotice = "access to this trip's documents was denied; check the installation id and the store's access rules"

// Snapshot is the engine's local view at one point in time: the
// last-observed remote state of the selected trip and its itinerary.
type Snapshot struct {
	TripID string                `json:"tripId"`
	Trip   *domain.Trip          `json:"trip,omitempty"`
	Days   map[string]domain.Day `json:"days"`
	Notice string                `json:"notice,omitempty"`
}

// TripInfo is the creation form for a new trip.
type TripInfo struct {
	Country   string
	City      string
	StartDate string
	Duration  int
}

// Engine keeps a local in-memory copy of one selected trip's Trip and
// Itinerary documents synchronized with the document store, and translates
// mutation intents into minimal remote writes.
//
// There is no optimistic local update anywhere: a write becomes visible
// only when the store pushes it back through the subscription, so every
// client converges on whatever the store last accepted.
type Engine struct {
	trips       repository.TripRepository
	itineraries repository.ItineraryRepository

	ctx    context.Context // engine lifetime; Close cancels it
	closeF context.CancelFunc

	mu          sync.Mutex
	subject     string // session identity; empty means unestablished
	tripID      string
	gen         int // selection generation, guards against stale pushes
	cancelWatch context.CancelFunc
	trip        *domain.Trip
	days        map[string]domain.Day
	notice      string

	subscribers map[int]chan Snapshot
	nextSubID   int
}

// NewEngine creates an engine bound to one session identity.
func NewEngine(subject string, trips repository.TripRepository, itineraries repository.ItineraryRepository) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		trips:       trips,
		itineraries: itineraries,
		ctx:         ctx,
		closeF:      cancel,
		subject:     subject,
		days:        map[string]domain.Day{},
		subscribers: map[int]chan Snapshot{},
	}
}

// Select subscribes to the given trip's Trip and Itinerary documents,
// tearing down any prior subscription pair first so no stale push from an
// earlier selection can touch the new view. Without an established session
// it is a no-op.
func (e *Engine) Select(tripID string) error {
	e.mu.Lock()
	if e.subject == "" {
		e.mu.Unlock()
		return nil
	}
	if e.cancelWatch != nil {
		// Unsubscribe the previous pair before anything else; the
		// generation bump below makes any in-flight delivery a no-op.
		e.cancelWatch()
	}
	watchCtx, cancel := context.WithCancel(e.ctx)
	e.cancelWatch = cancel
	e.gen++
	gen := e.gen
	e.tripID = tripID
	e.trip = nil
	e.days = map[string]domain.Day{}
	e.notice = ""
	e.mu.Unlock()

	itineraryEvents, err := e.itineraries.Watch(watchCtx, tripID)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe itinerary %s: %w", tripID, err)
	}
	tripEvents, err := e.trips.Watch(watchCtx, tripID)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe trip %s: %w", tripID, err)
	}

	go e.consumeItinerary(gen, itineraryEvents)
	go e.consumeTrip(gen, tripEvents)
	return nil
}

// consumeItinerary applies itinerary pushes to the local view. The local
// days mapping is replaced wholesale on every delivery where the document
// exists; an absent document leaves local state untouched.
func (e *Engine) consumeItinerary(gen int, events <-chan repository.ItineraryEvent) {
	for ev := range events {
		e.mu.Lock()
		if e.gen != gen {
			e.mu.Unlock()
			return
		}
		switch {
		case ev.Err != nil:
			if errors.Is(ev.Err, repository.ErrPermissionDenied) {
				e.notice = permissionNotice
			} else {
				log.Printf("ERROR: itinerary subscription for trip %s: %v", e.tripID, ev.Err)
			}
		case ev.Exists:
			if ev.Itinerary.Days != nil {
				e.days = ev.Itinerary.Days
			} else {
				e.days = map[string]domain.Day{}
			}
		}
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.broadcast(snap)
	}
}

// consumeTrip applies trip-metadata pushes: wholesale replacement whenever
// the document exists.
func (e *Engine) consumeTrip(gen int, events <-chan repository.TripEvent) {
	for ev := range events {
		e.mu.Lock()
		if e.gen != gen {
			e.mu.Unlock()
			return
		}
		switch {
		case ev.Err != nil:
			if errors.Is(ev.Err, repository.ErrPermissionDenied) {
				e.notice = permissionNotice
			} else {
				log.Printf("ERROR: trip subscription for trip %s: %v", e.tripID, ev.Err)
			}
		case ev.Exists:
			e.trip = ev.Trip
		}
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.broadcast(snap)
	}
}

// WriteField issues a partial update setting only the field at the given
// dotted path on the selected trip's itinerary. It requires an established
// session and a selected trip; otherwise it is a no-op. Failures are
// logged, never returned, and nothing is rolled back locally — the view
// changes only when the store pushes the write back.
func (e *Engine) WriteField(ctx context.Context, path repository.FieldPath, value interface{}) {
	e.mu.Lock()
	subject, tripID := e.subject, e.tripID
	e.mu.Unlock()
	if subject == "" || tripID == "" {
		return
	}
	if err := e.itineraries.SetField(ctx, tripID, path, value); err != nil {
		log.Printf("ERROR: write %s on itinerary %s: %v", path, tripID, err)
	}
}

// CreateTrip generates a new trip id, writes the Trip document and an
// Itinerary document with one empty day per day number 1..duration
// (duration floored at 1) as two independent creations, then selects the
// new trip. If either write fails the operation is reported as failed with
// no cleanup of the other document.
func (e *Engine) CreateTrip(ctx context.Context, info TripInfo) (*domain.Trip, error) {
	e.mu.Lock()
	subject := e.subject
	e.mu.Unlock()
	if subject == "" {
		return nil, ErrNoSession
	}

	duration := info.Duration
	if duration < 1 {
		duration = 1
	}
	trip := &domain.Trip{
		ID:        uuid.NewString(),
		Country:   info.Country,
		City:      info.City,
		StartDate: info.StartDate,
		Duration:  duration,
		CreatedBy: subject,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := e.trips.Create(ctx, trip); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}
	itinerary := &domain.Itinerary{
		ID:   trip.ID,
		Days: domain.NewItineraryDays(duration),
	}
	if err := e.itineraries.Create(ctx, itinerary); err != nil {
		return nil, fmt.Errorf("create itinerary: %w", err)
	}

	if err := e.Select(trip.ID); err != nil {
		log.Printf("ERROR: select newly created trip %s: %v", trip.ID, err)
	}
	return trip, nil
}

// DaySpots returns the last-observed spot list for one day of the selected
// trip. The second return is false when no trip is selected or the day
// does not exist.
func (e *Engine) DaySpots(day int) ([]domain.Spot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tripID == "" {
		return nil, false
	}
	d, ok := e.days[fmt.Sprintf("%d", day)]
	if !ok {
		return nil, false
	}
	return d.Spots, true
}

// Snapshot returns the current local view.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	days := make(map[string]domain.Day, len(e.days))
	for k, v := range e.days {
		days[k] = v
	}
	return Snapshot{
		TripID: e.tripID,
		Trip:   e.trip,
		Days:   days,
		Notice: e.notice,
	}
}

// Subscribe registers an observer of the engine's view. Each channel holds
// only the most recent snapshot; a slow consumer sees the latest state,
// not every intermediate one. The returned func unsubscribes.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSubID
	e.nextSubID++
	ch := make(chan Snapshot, 1)
	e.subscribers[id] = ch
	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subscribers, id)
	}
}

func (e *Engine) broadcast(snap Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.subscribers {
		select {
		case ch <- snap:
		default:
			// Replace the stale buffered snapshot with the current one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Close cancels all active subscriptions and ends the engine's lifetime.
func (e *Engine) Close() {
	e.mu.Lock()
	e.gen++ // invalidate any in-flight delivery
	if e.cancelWatch != nil {
		e.cancelWatch()
		e.cancelWatch = nil
	}
	e.tripID = ""
	e.mu.Unlock()
	e.closeF()
}
