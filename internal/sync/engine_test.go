package sync_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"voyago/travel-planner/internal/domain"
	"voyago/travel-planner/internal/repository"
	"voyago/travel-planner/internal/sync"

	"github.com/stretchr/testify/require"
)

func newTestEngine(subject string) (*sync.Engine, *fakeTripRepo, *fakeItineraryRepo) {
	trips := &fakeTripRepo{}
	itineraries := &fakeItineraryRepo{}
	return sync.NewEngine(subject, trips, itineraries), trips, itineraries
}

// TestEngine_SelectWithoutSession verifies that without an established
// session identity Select is a complete no-op: no subscriptions are
// opened.
func TestEngine_SelectWithoutSession(t *testing.T) {
	engine, trips, itineraries := newTestEngine("")
	defer engine.Close()

	require.NoError(t, engine.Select("trip-1"))
	require.Zero(t, trips.watchCount())
	require.Zero(t, itineraries.watchCount())
}

// TestEngine_RehydratesFromPush verifies the local days mapping is
// replaced wholesale by each itinerary push.
func TestEngine_RehydratesFromPush(t *testing.T) {
	engine, _, itineraries := newTestEngine("subject-1")
	defer engine.Close()

	require.NoError(t, engine.Select("trip-1"))
	watch := itineraries.lastWatch()
	require.NotNil(t, watch)
	require.Equal(t, "trip-1", watch.id)

	watch.ch <- repository.ItineraryEvent{
		Itinerary: &domain.Itinerary{
			ID: "trip-1",
			Days: map[string]domain.Day{
				"1": {Spots: []domain.Spot{{ID: "s1", Name: "Museum"}}},
				"2": {Spots: []domain.Spot{}},
			},
		},
		Exists: true,
	}

	require.Eventually(t, func() bool {
		return len(engine.Snapshot().Days) == 2
	}, time.Second, 10*time.Millisecond)

	spots, ok := engine.DaySpots(1)
	require.True(t, ok)
	require.Len(t, spots, 1)
	require.Equal(t, "Museum", spots[0].Name)

	// A later push replaces the whole mapping, not merges into it.
	watch.ch <- repository.ItineraryEvent{
		Itinerary: &domain.Itinerary{
			ID:   "trip-1",
			Days: map[string]domain.Day{"1": {Spots: []domain.Spot{}}},
		},
		Exists: true,
	}
	require.Eventually(t, func() bool {
		return len(engine.Snapshot().Days) == 1
	}, time.Second, 10*time.Millisecond)
}

// TestEngine_AbsentDocumentLeavesState verifies a push reporting a missing
// document does not clear the last-observed view.
func TestEngine_AbsentDocumentLeavesState(t *testing.T) {
	engine, _, itineraries := newTestEngine("subject-1")
	defer engine.Close()

	require.NoError(t, engine.Select("trip-1"))
	watch := itineraries.lastWatch()

	watch.ch <- repository.ItineraryEvent{
		Itinerary: &domain.Itinerary{
			ID:   "trip-1",
			Days: map[string]domain.Day{"1": {Spots: []domain.Spot{}}},
		},
		Exists: true,
	}
	require.Eventually(t, func() bool {
		return len(engine.Snapshot().Days) == 1
	}, time.Second, 10*time.Millisecond)

	watch.ch <- repository.ItineraryEvent{Exists: false}
	time.Sleep(50 * time.Millisecond)
	require.Len(t, engine.Snapshot().Days, 1)
}

// TestEngine_SelectReplacesSubscription verifies that after selecting trip
// B, a late push for trip A is never applied to the view.
func TestEngine_SelectReplacesSubscription(t *testing.T) {
	engine, _, itineraries := newTestEngine("subject-1")
	defer engine.Close()

	require.NoError(t, engine.Select("trip-a"))
	watchA := itineraries.lastWatch()

	require.NoError(t, engine.Select("trip-b"))
	require.Equal(t, 2, itineraries.watchCount())

	// Stale delivery for the old trip.
	watchA.ch <- repository.ItineraryEvent{
		Itinerary: &domain.Itinerary{
			ID:   "trip-a",
			Days: map[string]domain.Day{"1": {Spots: []domain.Spot{{ID: "ghost", Name: "Old"}}}},
		},
		Exists: true,
	}

	time.Sleep(50 * time.Millisecond)
	snap := engine.Snapshot()
	require.Equal(t, "trip-b", snap.TripID)
	require.Empty(t, snap.Days)
}

// TestEngine_WriteFieldRequiresSelection verifies WriteField is a no-op
// until a trip is selected.
func TestEngine_WriteFieldRequiresSelection(t *testing.T) {
	engine, _, itineraries := newTestEngine("subject-1")
	defer engine.Close()

	engine.WriteField(context.Background(), repository.DaySpotsPath(1), []domain.Spot{})
	require.Empty(t, itineraries.calls())
}

// TestEngine_WriteFieldTargetsDottedPath verifies the partial update
// addresses exactly the day's spot field of the selected itinerary.
func TestEngine_WriteFieldTargetsDottedPath(t *testing.T) {
	engine, _, itineraries := newTestEngine("subject-1")
	defer engine.Close()

	require.NoError(t, engine.Select("trip-1"))
	next := []domain.Spot{{ID: "s1", Name: "Harbor walk"}}
	engine.WriteField(context.Background(), repository.DaySpotsPath(2), next)

	calls := itineraries.calls()
	require.Len(t, calls, 1)
	require.Equal(t, "trip-1", calls[0].id)
	require.Equal(t, "days.2.spots", calls[0].path)
	require.Equal(t, next, calls[0].value)
}

// TestEngine_WriteFieldSwallowsFailure verifies a failed write is logged
// and absorbed; the caller sees nothing and local state is untouched.
func TestEngine_WriteFieldSwallowsFailure(t *testing.T) {
	engine, _, itineraries := newTestEngine("subject-1")
	defer engine.Close()
	itineraries.setErr = errors.New("network down")

	require.NoError(t, engine.Select("trip-1"))
	require.NotPanics(t, func() {
		engine.WriteField(context.Background(), repository.DaySpotsPath(1), []domain.Spot{})
	})
	require.Empty(t, engine.Snapshot().Days)
}

// TestEngine_CreateTrip verifies both documents are created under one
// generated id, days 1..duration each start empty, and the new trip is
// selected.
func TestEngine_CreateTrip(t *testing.T) {
	engine, trips, itineraries := newTestEngine("subject-1")
	defer engine.Close()

	trip, err := engine.CreateTrip(context.Background(), sync.TripInfo{
		Country:   "Japan",
		City:      "Kyoto",
		StartDate: "2026-11-02",
		Duration:  5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, trip.ID)
	require.Equal(t, "subject-1", trip.CreatedBy)
	require.NotEmpty(t, trip.CreatedAt)

	require.Len(t, trips.created, 1)
	require.Len(t, itineraries.created, 1)
	require.Equal(t, trip.ID, itineraries.created[0].ID)

	days := itineraries.created[0].Days
	require.Len(t, days, 5)
	for _, key := range []string{"1", "2", "3", "4", "5"} {
		require.Contains(t, days, key)
		require.Empty(t, days[key].Spots)
	}

	// Creation selects the new trip.
	require.Equal(t, trip.ID, engine.Snapshot().TripID)
	require.Equal(t, 1, itineraries.watchCount())
}

// TestEngine_CreateTripCoercesDuration verifies a non-positive duration
// yields exactly one day.
func TestEngine_CreateTripCoercesDuration(t *testing.T) {
	engine, _, itineraries := newTestEngine("subject-1")
	defer engine.Close()

	trip, err := engine.CreateTrip(context.Background(), sync.TripInfo{
		Country: "Norway", City: "Bergen", StartDate: "2026-06-01", Duration: 0,
	})
	require.NoError(t, err)
	require.Equal(t, 1, trip.Duration)
	require.Len(t, itineraries.created[0].Days, 1)
	require.Contains(t, itineraries.created[0].Days, "1")
}

// TestEngine_CreateTripNoSession verifies creation requires an
// established session.
func TestEngine_CreateTripNoSession(t *testing.T) {
	engine, trips, _ := newTestEngine("")
	defer engine.Close()

	_, err := engine.CreateTrip(context.Background(), sync.TripInfo{Country: "x", City: "y"})
	require.ErrorIs(t, err, sync.ErrNoSession)
	require.Empty(t, trips.created)
}

// TestEngine_CreateTripPartialFailure verifies that when the itinerary
// write fails after the trip write succeeded, the operation reports
// failure and leaves the trip document in place (no cleanup).
func TestEngine_CreateTripPartialFailure(t *testing.T) {
	engine, trips, itineraries := newTestEngine("subject-1")
	defer engine.Close()
	itineraries.createErr = errors.New("write refused")

	_, err := engine.CreateTrip(context.Background(), sync.TripInfo{
		Country: "Italy", City: "Rome", StartDate: "2026-09-10", Duration: 3,
	})
	require.Error(t, err)
	require.Len(t, trips.created, 1)
	require.Empty(t, itineraries.created)
}
