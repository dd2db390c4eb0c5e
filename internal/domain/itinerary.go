package domain

import "strconv"

// Itinerary is the day-by-day plan paired 1:1 with a Trip; it shares the
// Trip's id. Days are keyed by 1-based day number encoded as a string
// ("1".."N"); the key set is fixed at creation time and never changes.
type Itinerary struct {
	ID   string         `bson:"_id" json:"id"`
	Days map[string]Day `bson:"days" json:"days"`
}

// Day holds the ordered spot list for one day of a trip. Order is the
// user's chronological plan order, not a timestamp sort.
type Day struct {
	Spots []Spot `bson:"spots" json:"spots"`
}

// Spot is a single planned activity within a day.
type Spot struct {
	ID   string `bson:"id" json:"id"`     // immutable once created
	Time string `bson:"time" json:"time"` // "HH:MM"
	Name string `bson:"name" json:"name"`
	Note string `bson:"note,omitempty" json:"note,omitempty"`
}

// NewItineraryDays builds the initial days mapping for a trip of the given
// duration: keys "1".."duration", each with an empty spot list. A duration
// below 1 is coerced to 1, so every itinerary has at least one day.
func NewItineraryDays(duration int) map[string]Day {
	if duration < 1 {
		duration = 1
	}
	days := make(map[string]Day, duration)
	for i := 1; i <= duration; i++ {
		days[strconv.Itoa(i)] = Day{Spots: []Spot{}}
	}
	return days
}
