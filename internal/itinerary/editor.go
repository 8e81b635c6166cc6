package itinerary

import (
	"errors"
	"fmt"
	"time"

	"github.com/saviobatista/jet-itinerary/internal/timecalc"
	"github.com/saviobatista/jet-itinerary/internal/types"
)

// ErrEdited is returned when regeneration would discard manual edits
var ErrEdited = errors.New("itinerary has manual edits; reset first")

// Editor owns the working copy of one itinerary. It is not safe for
// concurrent use; callers serialise edits per session.
type Editor struct {
	builder   *Builder
	intent    types.TripIntent
	itinerary *types.Itinerary
	edited    bool
	now       func() time.Time
}

// NewEditor builds the initial itinerary for intent
func NewEditor(builder *Builder, intent types.TripIntent) (*Editor, error) {
	it, err := builder.Build(intent)
	if err != nil {
		return nil, err
	}
	return &Editor{
		builder:   builder,
		intent:    intent,
		itinerary: it,
		now:       time.Now,
	}, nil
}

// Restore resumes editing a persisted session
func Restore(builder *Builder, session types.Session) *Editor {
	legs := make([]types.FlightLeg, len(session.Legs))
	copy(legs, session.Legs)
	return &Editor{
		builder:   builder,
		intent:    session.Intent,
		itinerary: &types.Itinerary{Legs: legs},
		edited:    session.Edited,
		now:       time.Now,
	}
}

// SetClock overrides the clock used when the first leg is added to an empty itinerary
func (e *Editor) SetClock(now func() time.Time) {
	e.now = now
}

// Snapshot captures the editor state for persistence. Identity and
// timestamps are left to the caller.
func (e *Editor) Snapshot() types.Session {
	return types.Session{
		Intent: e.intent,
		Legs:   e.itinerary.Clone().Legs,
		Edited: e.edited,
	}
}

// Itinerary returns a copy of the working itinerary
func (e *Editor) Itinerary() *types.Itinerary {
	return e.itinerary.Clone()
}

// Intent returns the intent the itinerary was generated from
func (e *Editor) Intent() types.TripIntent {
	return e.intent
}

// Edited reports whether manual edits have been applied since the last build
func (e *Editor) Edited() bool {
	return e.edited
}

// Apply runs one command against the working itinerary
func (e *Editor) Apply(cmd Command) error {
	if cmd == nil {
		return ErrInvalidCommand
	}
	if err := cmd.apply(e); err != nil {
		return fmt.Errorf("failed to apply %s: %w", cmd.Name(), err)
	}
	return nil
}

// Regenerate replaces the itinerary with one built from a new intent. It
// refuses with ErrEdited when that would discard manual edits.
func (e *Editor) Regenerate(intent types.TripIntent) error {
	if e.edited {
		return ErrEdited
	}
	it, err := e.builder.Build(intent)
	if err != nil {
		return err
	}
	e.intent = intent
	e.itinerary = it
	return nil
}

// Reset rebuilds from the original intent and clears the edited flag
func (e *Editor) Reset() error {
	it, err := e.builder.Build(e.intent)
	if err != nil {
		return err
	}
	e.itinerary = it
	e.edited = false
	return nil
}

func (e *Editor) changeEndpoint(c ChangeEndpoint) error {
	if err := e.checkIndex(c.Leg); err != nil {
		return err
	}
	if c.Side != SideDeparture && c.Side != SideArrival {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidCommand, c.Side)
	}

	var loc *types.Location
	if c.Code != "" {
		var ok bool
		if loc, ok = e.builder.Catalog().Lookup(c.Code); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownLocation, c.Code)
		}
	}

	leg := &e.itinerary.Legs[c.Leg]
	if c.Side == SideDeparture {
		leg.Departure = loc
	} else {
		leg.Arrival = loc
	}
	e.retime(c.Leg)
	e.cascade(c.Leg)
	e.edited = true
	return nil
}

func (e *Editor) changeTime(c ChangeTime) error {
	if err := e.checkIndex(c.Leg); err != nil {
		return err
	}
	leg := &e.itinerary.Legs[c.Leg]
	leg.DepartureTime = c.Departure
	leg.ArrivalTime = timecalc.AddMinutes(leg.DepartureTime, leg.DurationMinutes)
	e.cascade(c.Leg)
	e.edited = true
	return nil
}

func (e *Editor) toggleKind(c ToggleKind) error {
	if err := e.checkIndex(c.Leg); err != nil {
		return err
	}
	leg := &e.itinerary.Legs[c.Leg]
	if leg.Kind == types.LegCustomer {
		leg.Kind = types.LegEmpty
	} else {
		leg.Kind = types.LegCustomer
	}
	e.edited = true
	return nil
}

func (e *Editor) addLeg() error {
	leg := types.FlightLeg{Kind: types.LegCustomer}

	if n := len(e.itinerary.Legs); n > 0 {
		prev := e.itinerary.Legs[n-1]
		leg.Departure = prev.Arrival
		leg.DepartureTime = timecalc.AddMinutes(prev.ArrivalTime, e.builder.Profile().Turnaround())
	} else {
		// A missing home base just leaves the departure open.
		leg.Departure, _ = e.builder.HomeBase()
		leg.DepartureTime = e.now().In(e.builder.Zone()).Truncate(time.Minute)
	}

	measure(&leg, e.builder.Profile().Speed())
	leg.ArrivalTime = timecalc.AddMinutes(leg.DepartureTime, leg.DurationMinutes)

	e.itinerary.Legs = append(e.itinerary.Legs, leg)
	e.edited = true
	return nil
}

func (e *Editor) removeLeg(c RemoveLeg) error {
	if err := e.checkIndex(c.Leg); err != nil {
		return err
	}
	if len(e.itinerary.Legs) <= 1 {
		return ErrLastLeg
	}

	legs := e.itinerary.Legs
	e.itinerary.Legs = append(legs[:c.Leg:c.Leg], legs[c.Leg+1:]...)
	e.cascade(max(0, c.Leg-1))
	e.edited = true
	return nil
}

func (e *Editor) checkIndex(i int) error {
	if i < 0 || i >= len(e.itinerary.Legs) {
		return fmt.Errorf("%w: %d (itinerary has %d legs)", ErrLegIndex, i, len(e.itinerary.Legs))
	}
	return nil
}

// retime recomputes leg i's geometry and arrival from its current departure
func (e *Editor) retime(i int) {
	leg := &e.itinerary.Legs[i]
	measure(leg, e.builder.Profile().Speed())
	leg.ArrivalTime = timecalc.AddMinutes(leg.DepartureTime, leg.DurationMinutes)
}

// cascade re-chains every leg after i: each departs one turnaround after
// its predecessor arrives. Endpoints are never changed, and manual
// departure overrides downstream are overwritten.
func (e *Editor) cascade(i int) {
	turnaround := e.builder.Profile().Turnaround()
	legs := e.itinerary.Legs
	for j := i + 1; j < len(legs); j++ {
		legs[j].DepartureTime = timecalc.AddMinutes(legs[j-1].ArrivalTime, turnaround)
		e.retime(j)
	}
}
