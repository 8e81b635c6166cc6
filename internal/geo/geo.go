// Package geo estimates flight distance and time between two locations.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/saviobatista/jet-itinerary/internal/types"
)

// EarthRadiusNM is the mean Earth radius in nautical miles
const EarthRadiusNM = 3440.065

// DefaultCruiseSpeed is used when an asset profile does not specify one
const DefaultCruiseSpeed = types.DefaultCruiseSpeed

// Distance returns the great-circle distance between a and b in nautical miles,
// rounded to the nearest whole mile.
func Distance(a, b types.Coordinates) int {
	// orb scales the haversine central angle by its own radius in metres.
	angle := orbgeo.DistanceHaversine(a.Point(), b.Point()) / orb.EarthRadius
	return int(math.Round(angle * EarthRadiusNM))
}

// FlightMinutes converts a distance into whole minutes at the given cruise speed.
// An unknown speed yields 0.
func FlightMinutes(distance int, cruiseSpeed float64) int {
	if cruiseSpeed <= 0 {
		return 0
	}
	return int(math.Round(float64(distance) / cruiseSpeed * 60))
}

// Measure returns the distance and flight time between two locations, and false
// when either of them lacks coordinates.
func Measure(from, to *types.Location, cruiseSpeed float64) (distance, minutes int, ok bool) {
	if !from.HasCoordinates() || !to.HasCoordinates() {
		return 0, 0, false
	}
	distance = Distance(*from.Coordinates, *to.Coordinates)
	return distance, FlightMinutes(distance, cruiseSpeed), true
}
