package sync

import (
	"context"
	"errors"
	"log"
	"sync"

	"voyago/travel-planner/internal/domain"
	"voyago/travel-planner/internal/repository"
)

// Catalog maintains the list of all trips, kept current by the
// whole-collection subscription and ordered newest-first by creation
// timestamp regardless of the order pushes arrive in.
type Catalog struct {
	trips repository.TripRepository

	mu          sync.Mutex
	current     []domain.Trip
	notice      string
	subscribers map[int]chan []domain.Trip
	nextSubID   int
}

// NewCatalog creates a catalog over the trips collection.
func NewCatalog(trips repository.TripRepository) *Catalog {
	return &Catalog{
		trips:       trips,
		subscribers: map[int]chan []domain.Trip{},
	}
}

// Start subscribes to the collection and keeps the catalog current until
// ctx is canceled.
func (c *Catalog) Start(ctx context.Context) error {
	events, err := c.trips.WatchAll(ctx)
	if err != nil {
		return err
	}
	go func() {
		for ev := range events {
			if ev.Err != nil {
				if errors.Is(ev.Err, repository.ErrPermissionDenied) {
					c.mu.Lock()
					c.notice = permissionNotice
					c.mu.Unlock()
				} else {
					log.Printf("ERROR: trip catalog subscription: %v", ev.Err)
				}
				continue
			}
			trips := ev.Trips
			domain.SortTripsByCreatedDesc(trips)
			c.mu.Lock()
			c.current = trips
			subs := make([]chan []domain.Trip, 0, len(c.subscribers))
			for _, ch := range c.subscribers {
				subs = append(subs, ch)
			}
			c.mu.Unlock()
			for _, ch := range subs {
				select {
				case ch <- trips:
				default:
					select {
					case <-ch:
					default:
					}
					select {
					case ch <- trips:
					default:
					}
				}
			}
		}
	}()
	return nil
}

// Snapshot returns the current sorted trip list.
func (c *Catalog) Snapshot() []domain.Trip {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Trip, len(c.current))
	copy(out, c.current)
	return out
}

// Notice returns the current non-fatal subscription notice, if any.
func (c *Catalog) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

// Subscribe registers an observer of catalog changes; latest-wins
// buffering, same as the engine. The returned func unsubscribes.
func (c *Catalog) Subscribe() (<-chan []domain.Trip, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	ch := make(chan []domain.Trip, 1)
	c.subscribers[id] = ch
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}
