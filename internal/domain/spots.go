package domain

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Spot ids are ULIDs drawn from a shared monotonic source, so ids minted in
// the same millisecond still differ and later ids sort after earlier ones.
var (
	spotEntropyMu sync.Mutex
	spotEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewSpotID returns a fresh spot identifier, unique within this process.
func NewSpotID() string {
	spotEntropyMu.Lock()
	defer spotEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), spotEntropy).String()
}

// The functions below are the only way a day's spot list changes. Each one
// takes the current ordered list and returns a full replacement list, never
// a delta, because the remote write path always sets the whole
// "days.<n>.spots" field. None of them mutate their input.

// AppendSpot returns spots with s added at the end.
func AppendSpot(spots []Spot, s Spot) []Spot {
	out := make([]Spot, 0, len(spots)+1)
	out = append(out, spots...)
	return append(out, s)
}

// SwapUp exchanges the spot at index i with the one before it. Index 0 and
// out-of-range indices return the list unchanged.
func SwapUp(spots []Spot, i int) []Spot {
	if i <= 0 || i >= len(spots) {
		return spots
	}
	out := make([]Spot, len(spots))
	copy(out, spots)
	out[i-1], out[i] = out[i], out[i-1]
	return out
}

// SwapDown exchanges the spot at index i with the one after it. The last
// index and out-of-range indices return the list unchanged.
func SwapDown(spots []Spot, i int) []Spot {
	if i < 0 || i >= len(spots)-1 {
		return spots
	}
	out := make([]Spot, len(spots))
	copy(out, spots)
	out[i], out[i+1] = out[i+1], out[i]
	return out
}

// EditSpot replaces the spot whose id matches replacement.ID, keeping its
// position. No match returns the list unchanged: the id may have been
// removed remotely since this client last saw the list, and that race is
// tolerated rather than treated as an error.
func EditSpot(spots []Spot, replacement Spot) []Spot {
	out := make([]Spot, len(spots))
	copy(out, spots)
	for i := range out {
		if out[i].ID == replacement.ID {
			out[i] = replacement
		}
	}
	return out
}

// RemoveSpot drops the first spot with the given id, preserving the order
// of the rest. No match returns the list unchanged.
func RemoveSpot(spots []Spot, id string) []Spot {
	out := make([]Spot, 0, len(spots))
	removed := false
	for _, s := range spots {
		if !removed && s.ID == id {
			removed = true
			continue
		}
		out = append(out, s)
	}
	return out
}
