package itinerary

import (
	"fmt"

	"github.com/saviobatista/jet-itinerary/internal/types"
)

// Issue codes reported by Validate
const (
	IssueEmpty              = "empty_itinerary"
	IssueMissingDeparture   = "missing_departure"
	IssueMissingArrival     = "missing_arrival"
	IssueMissingCoordinates = "missing_coordinates"
	IssueOverlap            = "departs_before_previous_arrival"
	IssueDiscontinuity      = "discontinuity"
)

// Issue describes one problem with an itinerary. Leg is -1 for
// itinerary-wide issues.
type Issue struct {
	Leg     int    `json:"leg"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Report is the result of validating an itinerary. Problems block
// submission; warnings do not.
type Report struct {
	Submittable bool    `json:"submittable"`
	Problems    []Issue `json:"problems,omitempty"`
	Warnings    []Issue `json:"warnings,omitempty"`
}

// IsSubmittable reports whether every leg has both endpoints resolved
func IsSubmittable(it *types.Itinerary) bool {
	if it == nil || len(it.Legs) == 0 {
		return false
	}
	for i := range it.Legs {
		if !it.Legs[i].HasEndpoints() {
			return false
		}
	}
	return true
}

// Validate reports blocking problems alongside non-blocking warnings
func Validate(it *types.Itinerary) Report {
	var r Report
	if it == nil || len(it.Legs) == 0 {
		r.Problems = append(r.Problems, Issue{Leg: -1, Code: IssueEmpty, Message: "itinerary has no legs"})
		return r
	}

	for i := range it.Legs {
		leg := &it.Legs[i]
		if leg.Departure == nil {
			r.Problems = append(r.Problems, Issue{Leg: i, Code: IssueMissingDeparture, Message: fmt.Sprintf("leg %d has no departure location", i+1)})
		}
		if leg.Arrival == nil {
			r.Problems = append(r.Problems, Issue{Leg: i, Code: IssueMissingArrival, Message: fmt.Sprintf("leg %d has no arrival location", i+1)})
		}
		if leg.HasEndpoints() && !leg.HasGeometry() {
			r.Warnings = append(r.Warnings, Issue{Leg: i, Code: IssueMissingCoordinates, Message: fmt.Sprintf("leg %d has no distance or flight time: coordinates missing", i+1)})
		}

		if i == 0 {
			continue
		}
		prev := &it.Legs[i-1]
		if leg.DepartureTime.Before(prev.ArrivalTime) {
			r.Warnings = append(r.Warnings, Issue{Leg: i, Code: IssueOverlap, Message: fmt.Sprintf("leg %d departs before leg %d arrives", i+1, i)})
		}
		if prev.Arrival != nil && leg.Departure != nil && !prev.Arrival.SameAs(leg.Departure) {
			r.Warnings = append(r.Warnings, Issue{
				Leg:     i,
				Code:    IssueDiscontinuity,
				Message: fmt.Sprintf("leg %d departs %s but leg %d arrives at %s", i+1, leg.Departure.Code(), i, prev.Arrival.Code()),
			})
		}
	}

	r.Submittable = len(r.Problems) == 0
	return r
}
