package domain_test

import (
	"testing"

	"voyago/travel-planner/internal/domain"

	"github.com/stretchr/testify/require"
)

// TestSortTripsByCreatedDesc verifies newest-first ordering independent of
// the order trips arrive in.
func TestSortTripsByCreatedDesc(t *testing.T) {
	t1 := domain.Trip{ID: "t1", CreatedAt: "2026-01-05T10:00:00Z"}
	t2 := domain.Trip{ID: "t2", CreatedAt: "2026-03-15T10:00:00Z"}
	t3 := domain.Trip{ID: "t3", CreatedAt: "2026-08-20T10:00:00Z"}

	arrivals := [][]domain.Trip{
		{t1, t2, t3},
		{t3, t1, t2},
		{t2, t3, t1},
	}
	for _, trips := range arrivals {
		domain.SortTripsByCreatedDesc(trips)
		require.Equal(t, "t3", trips[0].ID)
		require.Equal(t, "t2", trips[1].ID)
		require.Equal(t, "t1", trips[2].ID)
	}
}
