package repository

import (
	"strconv"
	"strings"
)

// FieldPath addresses a nested location inside a document for partial
// update purposes: a sequence of mapping keys, rendered as a dotted string
// on the wire (e.g. "days.3.spots"). Only the addressed field is ever
// touched; there is deliberately no generic deep-merge.
type FieldPath []string

// String renders the path in dotted form.
func (p FieldPath) String() string {
	return strings.Join(p, ".")
}

// DaySpotsPath addresses the spot list of one day within an itinerary.
func DaySpotsPath(day int) FieldPath {
	return FieldPath{"days", strconv.Itoa(day), "spots"}
}
