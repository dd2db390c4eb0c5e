package domain

import "sort"

// Trip is the summary metadata for a planned journey. Its ID is shared with
// the Itinerary document created alongside it and acts as the join key
// between the two collections.
type Trip struct {
	ID        string `bson:"_id" json:"id"`
	Country   string `bson:"country" json:"country"`
	City      string `bson:"city" json:"city"`
	StartDate string `bson:"startDate" json:"startDate"` // ISO-8601 calendar date, e.g. "2026-04-12"
	Duration  int    `bson:"duration" json:"duration"`   // number of days, >= 1
	CreatedBy string `bson:"createdBy" json:"createdBy"` // session subject id
	CreatedAt string `bson:"createdAt" json:"createdAt"` // ISO-8601 timestamp, catalog sort key
}

// SortTripsByCreatedDesc orders trips newest-first by their creation
// timestamp. RFC3339 timestamps sort chronologically as plain strings, so
// a string compare is sufficient. The sort is stable so equal timestamps
// keep their arrival order.
func SortTripsByCreatedDesc(trips []Trip) {
	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].CreatedAt > trips[j].CreatedAt
	})
}
