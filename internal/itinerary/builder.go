// Package itinerary derives multi-leg flight itineraries from trip intents and
// keeps them consistent while they are edited.
package itinerary

import (
	"errors"
	"fmt"
	"time"

	"github.com/saviobatista/jet-itinerary/internal/catalog"
	"github.com/saviobatista/jet-itinerary/internal/geo"
	"github.com/saviobatista/jet-itinerary/internal/timecalc"
	"github.com/saviobatista/jet-itinerary/internal/types"
)

var (
	ErrInvalidIntent       = errors.New("invalid trip intent")
	ErrNoHomeBase          = errors.New("asset has no home base")
	ErrHomeBaseCoordinates = errors.New("home base has no coordinates")
	ErrUnknownLocation     = errors.New("unknown location")
	ErrUnknownHomeBase     = errors.New("home base not in catalog")
)

// Builder turns trip intents into itineraries for one asset
type Builder struct {
	catalog catalog.Catalog
	profile types.AssetProfile
	zone    *time.Location
}

// NewBuilder creates a builder. Requested dates and times are read in zone.
func NewBuilder(c catalog.Catalog, profile types.AssetProfile, zone *time.Location) *Builder {
	if zone == nil {
		zone = time.UTC
	}
	return &Builder{catalog: c, profile: profile, zone: zone}
}

// Profile returns the asset profile the builder plans for
func (b *Builder) Profile() types.AssetProfile {
	return b.profile
}

// Catalog returns the catalog endpoints are resolved against
func (b *Builder) Catalog() catalog.Catalog {
	return b.catalog
}

// Zone returns the time zone requested times are read in
func (b *Builder) Zone() *time.Location {
	return b.zone
}

// Build derives an itinerary from the intent. A nil itinerary is always
// accompanied by an error explaining why nothing could be produced.
func (b *Builder) Build(intent types.TripIntent) (*types.Itinerary, error) {
	switch intent.Mode {
	case types.ModeTaken:
		return b.buildTaken(intent)
	case types.ModePickup:
		return b.buildPickup(intent)
	case types.ModeMultiLeg:
		return b.buildMultiLeg(intent)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidIntent, intent.Mode)
	}
}

// HomeBase resolves the asset's home base
func (b *Builder) HomeBase() (*types.Location, error) {
	if b.profile.HomeBase == "" {
		return nil, ErrNoHomeBase
	}
	home, ok := b.catalog.Lookup(b.profile.HomeBase)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHomeBase, b.profile.HomeBase)
	}
	return home, nil
}

func (b *Builder) buildTaken(intent types.TripIntent) (*types.Itinerary, error) {
	home, origin, destination, requested, err := b.resolvePair(intent)
	if err != nil {
		return nil, err
	}

	trip := b.newLeg(types.LegCustomer, origin, destination, timecalc.AddMinutes(requested, timecalc.TaxiBuffer))
	legs := []types.FlightLeg{trip}

	if !destination.SameAs(home) {
		back := b.newLeg(types.LegEmpty, destination, home, timecalc.AddMinutes(trip.ArrivalTime, b.profile.Turnaround()))
		legs = append(legs, back)
	}

	return &types.Itinerary{Legs: legs}, nil
}

func (b *Builder) buildPickup(intent types.TripIntent) (*types.Itinerary, error) {
	home, pickup, destination, requested, err := b.resolvePair(intent)
	if err != nil {
		return nil, err
	}

	var legs []types.FlightLeg
	if !pickup.SameAs(home) {
		// The pickup time constrains the positioning leg's arrival, so it is timed backwards.
		// The taxi buffer sits inside the leg: it departs duration+buffer before it arrives.
		arrival := timecalc.SubtractMinutes(requested, b.profile.Turnaround())
		position := types.FlightLeg{Kind: types.LegEmpty, Departure: home, Arrival: pickup}
		measure(&position, b.profile.Speed())
		position.ArrivalTime = arrival
		position.DepartureTime = timecalc.SubtractMinutes(arrival, position.DurationMinutes+timecalc.TaxiBuffer)
		legs = append(legs, position)
	}

	legs = append(legs, b.newLeg(types.LegCustomer, pickup, destination, timecalc.AddMinutes(requested, timecalc.TaxiBuffer)))

	return &types.Itinerary{Legs: legs}, nil
}

func (b *Builder) buildMultiLeg(intent types.TripIntent) (*types.Itinerary, error) {
	if len(intent.Legs) == 0 {
		return nil, fmt.Errorf("%w: multileg trip has no legs", ErrInvalidIntent)
	}

	legs := make([]types.FlightLeg, 0, len(intent.Legs))
	for i, req := range intent.Legs {
		departs, err := timecalc.Combine(req.Date, req.Time, b.zone)
		if err != nil {
			return nil, fmt.Errorf("%w: leg %d: %v", ErrInvalidIntent, i+1, err)
		}
		// Unknown codes stay unresolved so the validator can block submission.
		from, _ := b.catalog.Lookup(req.Departure)
		to, _ := b.catalog.Lookup(req.Arrival)
		legs = append(legs, b.newLeg(types.LegCustomer, from, to, departs))
	}

	return &types.Itinerary{Legs: legs}, nil
}

// resolvePair resolves the home base and both trip endpoints for taken and pickup trips
func (b *Builder) resolvePair(intent types.TripIntent) (home, from, to *types.Location, requested time.Time, err error) {
	home, err = b.HomeBase()
	if err != nil {
		return nil, nil, nil, time.Time{}, err
	}
	if !home.HasCoordinates() {
		return nil, nil, nil, time.Time{}, fmt.Errorf("%w: %s", ErrHomeBaseCoordinates, home.Code())
	}

	var ok bool
	if from, ok = b.catalog.Lookup(intent.Origin); !ok {
		return nil, nil, nil, time.Time{}, fmt.Errorf("%w: origin %q", ErrUnknownLocation, intent.Origin)
	}
	if to, ok = b.catalog.Lookup(intent.Destination); !ok {
		return nil, nil, nil, time.Time{}, fmt.Errorf("%w: destination %q", ErrUnknownLocation, intent.Destination)
	}

	requested, err = timecalc.Combine(intent.Date, intent.Time, b.zone)
	if err != nil {
		return nil, nil, nil, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidIntent, err)
	}
	return home, from, to, requested, nil
}

// newLeg creates a leg departing at departs with its geometry and arrival filled in
func (b *Builder) newLeg(kind types.LegKind, from, to *types.Location, departs time.Time) types.FlightLeg {
	leg := types.FlightLeg{
		Kind:          kind,
		Departure:     from,
		Arrival:       to,
		DepartureTime: departs,
	}
	measure(&leg, b.profile.Speed())
	leg.ArrivalTime = timecalc.AddMinutes(leg.DepartureTime, leg.DurationMinutes)
	return leg
}

// measure recomputes distance and duration from the leg's endpoints. Legs
// without full coordinates get zero for both.
func measure(leg *types.FlightLeg, cruiseSpeed float64) {
	distance, minutes, _ := geo.Measure(leg.Departure, leg.Arrival, cruiseSpeed)
	leg.DistanceNM = distance
	leg.DurationMinutes = minutes
}
