package types

import (
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/paulmach/orb"
)

// Coordinates is a latitude/longitude pair in decimal degrees
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Point returns the coordinates as an orb point (lon, lat)
func (c Coordinates) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// LocationKind describes what sort of field a location is
type LocationKind string

const (
	LocationAirport  LocationKind = "airport"
	LocationHeliport LocationKind = "heliport"
)

// Location identifies a point on the travel network
type Location struct {
	ID          string       `json:"id"`
	ICAO        string       `json:"icao,omitempty"`
	IATA        string       `json:"iata,omitempty"`
	Name        string       `json:"name"`
	City        string       `json:"city,omitempty"`
	Country     string       `json:"country"`
	Kind        LocationKind `json:"kind"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Code returns the ICAO code, falling back to the IATA code
func (l *Location) Code() string {
	if l == nil {
		return ""
	}
	if l.ICAO != "" {
		return l.ICAO
	}
	return l.IATA
}

// HasCoordinates reports whether distance calculations are possible
func (l *Location) HasCoordinates() bool {
	return l != nil && l.Coordinates != nil
}

// SameAs compares two locations by ID, falling back to their codes
func (l *Location) SameAs(other *Location) bool {
	if l == nil || other == nil {
		return false
	}
	if l.ID != "" && other.ID != "" {
		return l.ID == other.ID
	}
	return strings.EqualFold(l.Code(), other.Code())
}

// AssetKind is the class of aircraft being booked
type AssetKind string

const (
	AssetAirplane   AssetKind = "airplane"
	AssetHelicopter AssetKind = "helicopter"
)

const (
	DefaultCruiseSpeed       = 450.0
	DefaultTurnaroundMinutes = 60
)

// AssetProfile holds the performance characteristics of the aircraft being booked
type AssetProfile struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Kind              AssetKind `json:"kind"`
	CruiseSpeed       float64   `json:"cruise_speed"`
	TurnaroundMinutes int       `json:"turnaround_minutes"`
	HomeBase          string    `json:"home_base,omitempty"`
}

// Speed returns the cruise speed, applying the default when unset
func (p AssetProfile) Speed() float64 {
	if p.CruiseSpeed <= 0 {
		return DefaultCruiseSpeed
	}
	return p.CruiseSpeed
}

// Turnaround returns the turnaround in minutes, applying the default when unset
func (p AssetProfile) Turnaround() int {
	if p.TurnaroundMinutes <= 0 {
		return DefaultTurnaroundMinutes
	}
	return p.TurnaroundMinutes
}

// TripMode selects how an itinerary is derived from an intent
type TripMode string

const (
	ModeTaken    TripMode = "taken"
	ModePickup   TripMode = "pickup"
	ModeMultiLeg TripMode = "multileg"
)

// LegRequest is one user-supplied leg of a multileg intent
type LegRequest struct {
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// TripIntent is the traveller's request. Origin doubles as the pickup location in pickup mode.
type TripIntent struct {
	Mode        TripMode     `json:"mode"`
	Origin      string       `json:"origin,omitempty"`
	Destination string       `json:"destination,omitempty"`
	Date        string       `json:"date,omitempty"`
	Time        string       `json:"time,omitempty"`
	Legs        []LegRequest `json:"legs,omitempty"`
}

// LegKind tells whether the traveller is aboard
type LegKind string

const (
	LegCustomer LegKind = "customer"
	LegEmpty    LegKind = "empty"
)

// FlightLeg is one takeoff-to-landing segment
type FlightLeg struct {
	Kind            LegKind   `json:"kind"`
	Departure       *Location `json:"departure,omitempty"`
	Arrival         *Location `json:"arrival,omitempty"`
	DepartureTime   time.Time `json:"departure_time"`
	ArrivalTime     time.Time `json:"arrival_time"`
	DurationMinutes int       `json:"duration_minutes"`
	DistanceNM      int       `json:"distance_nm"`
}

// HasEndpoints reports whether both endpoints are resolved
func (l *FlightLeg) HasEndpoints() bool {
	return l.Departure != nil && l.Arrival != nil
}

// HasGeometry reports whether distance and duration are defined
func (l *FlightLeg) HasGeometry() bool {
	return l.Departure.HasCoordinates() && l.Arrival.HasCoordinates()
}

// Itinerary is an ordered sequence of legs making up one trip
type Itinerary struct {
	Legs []FlightLeg `json:"legs"`
}

// Clone returns a copy whose leg slice can be mutated independently.
// Locations are shared since the catalog owns them.
func (it *Itinerary) Clone() *Itinerary {
	legs := make([]FlightLeg, len(it.Legs))
	copy(legs, it.Legs)
	return &Itinerary{Legs: legs}
}

// TotalDistance sums the distance of every leg
func (it *Itinerary) TotalDistance() int {
	total := 0
	for _, leg := range it.Legs {
		total += leg.DistanceNM
	}
	return total
}

// TotalMinutes sums the flight time of every leg
func (it *Itinerary) TotalMinutes() int {
	total := 0
	for _, leg := range it.Legs {
		total += leg.DurationMinutes
	}
	return total
}

// Title derives a booking title from the customer legs, e.g. "KTEB → KPBI → KASE · 2026-10-18"
func (it *Itinerary) Title() string {
	var stops []string
	var first time.Time
	for _, leg := range it.Legs {
		if leg.Kind != LegCustomer {
			continue
		}
		if first.IsZero() {
			first = leg.DepartureTime
		}
		for _, code := range []string{leg.Departure.Code(), leg.Arrival.Code()} {
			if code == "" {
				code = "?"
			}
			if len(stops) == 0 || stops[len(stops)-1] != code {
				stops = append(stops, code)
			}
		}
	}
	if len(stops) == 0 {
		return "Positioning flight"
	}
	return strings.Join(stops, " → ") + " · " + first.Format("2006-01-02")
}

// LegRecord is the serialisable form of a leg handed to persistence
type LegRecord struct {
	Kind            LegKind   `json:"kind"`
	DepartureCode   string    `json:"departure_code"`
	ArrivalCode     string    `json:"arrival_code"`
	DepartureTime   time.Time `json:"departure_time"`
	ArrivalTime     time.Time `json:"arrival_time"`
	DistanceNM      int       `json:"distance_nm"`
	DurationMinutes int       `json:"duration_minutes"`
}

// NewLegRecord flattens a leg for persistence
func NewLegRecord(leg FlightLeg) (LegRecord, error) {
	var record LegRecord
	if err := copier.Copy(&record, &leg); err != nil {
		return LegRecord{}, err
	}
	record.DepartureCode = leg.Departure.Code()
	record.ArrivalCode = leg.Arrival.Code()
	return record, nil
}

// Session is a persisted itinerary editing session
type Session struct {
	ID        string      `json:"id"`
	AssetID   string      `json:"asset_id"`
	Intent    TripIntent  `json:"intent"`
	Legs      []FlightLeg `json:"legs"`
	Edited    bool        `json:"edited"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Booking is a submitted itinerary together with trip-level metadata
type Booking struct {
	ID                 string      `json:"id"`
	SessionID          string      `json:"session_id,omitempty"`
	AssetID            string      `json:"asset_id"`
	Mode               TripMode    `json:"mode"`
	Title              string      `json:"title"`
	TotalDistanceNM    int         `json:"total_distance_nm"`
	TotalFlightMinutes int         `json:"total_flight_minutes"`
	Legs               []LegRecord `json:"legs"`
	SubmittedAt        time.Time   `json:"submitted_at"`
}

// EngineStats is a point-in-time snapshot of the planner's counters
type EngineStats struct {
	Time              time.Time     `json:"time"`
	SessionsOpened    uint64        `json:"sessions_opened"`
	ItinerariesBuilt  uint64        `json:"itineraries_built"`
	BuildFailures     uint64        `json:"build_failures"`
	EditsApplied      uint64        `json:"edits_applied"`
	Resets            uint64        `json:"resets"`
	Submissions       uint64        `json:"submissions"`
	FailedSubmissions uint64        `json:"failed_submissions"`
	Uptime            time.Duration `json:"uptime"`
}
