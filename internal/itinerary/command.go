package itinerary

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCommand = errors.New("invalid edit command")
	ErrLegIndex       = errors.New("leg index out of range")
	ErrLastLeg        = errors.New("cannot remove the only leg")
)

// Side selects which endpoint of a leg ChangeEndpoint modifies
type Side string

const (
	SideDeparture Side = "departure"
	SideArrival   Side = "arrival"
)

// Command is a discrete edit applied to an editor's working itinerary
type Command interface {
	// Name identifies the command in logs and in the JSON envelope
	Name() string
	apply(e *Editor) error
}

// ChangeEndpoint replaces one endpoint of a leg. An empty code clears it.
type ChangeEndpoint struct {
	Leg  int
	Side Side
	Code string
}

// ChangeTime moves a leg's departure, keeping its duration
type ChangeTime struct {
	Leg       int
	Departure time.Time
}

// ToggleKind flips a leg between customer and empty
type ToggleKind struct {
	Leg int
}

// AddLeg appends a leg continuing from the last arrival
type AddLeg struct{}

// RemoveLeg deletes a leg, re-chaining the ones after it
type RemoveLeg struct {
	Leg int
}

// Reset discards every edit and rebuilds from the original intent
type Reset struct{}

func (ChangeEndpoint) Name() string { return "change_endpoint" }
func (ChangeTime) Name() string     { return "change_time" }
func (ToggleKind) Name() string     { return "toggle_kind" }
func (AddLeg) Name() string         { return "add_leg" }
func (RemoveLeg) Name() string      { return "remove_leg" }
func (Reset) Name() string          { return "reset" }

func (c ChangeEndpoint) apply(e *Editor) error { return e.changeEndpoint(c) }
func (c ChangeTime) apply(e *Editor) error     { return e.changeTime(c) }
func (c ToggleKind) apply(e *Editor) error     { return e.toggleKind(c) }
func (c AddLeg) apply(e *Editor) error         { return e.addLeg() }
func (c RemoveLeg) apply(e *Editor) error      { return e.removeLeg(c) }
func (c Reset) apply(e *Editor) error          { return e.Reset() }

// commandEnvelope is the wire form of a command, e.g.
// {"type":"change_time","leg":1,"departure":"2026-10-18T09:15:00Z"}
type commandEnvelope struct {
	Type      string     `json:"type"`
	Leg       *int       `json:"leg,omitempty"`
	Side      Side       `json:"side,omitempty"`
	Code      string     `json:"code,omitempty"`
	Departure *time.Time `json:"departure,omitempty"`
}

// DecodeCommand parses a JSON command envelope
func DecodeCommand(data []byte) (Command, error) {
	var env commandEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}

	leg := func() (int, error) {
		if env.Leg == nil {
			return 0, fmt.Errorf("%w: %s requires a leg", ErrInvalidCommand, env.Type)
		}
		return *env.Leg, nil
	}

	switch env.Type {
	case "change_endpoint":
		i, err := leg()
		if err != nil {
			return nil, err
		}
		if env.Side != SideDeparture && env.Side != SideArrival {
			return nil, fmt.Errorf("%w: unknown side %q", ErrInvalidCommand, env.Side)
		}
		return ChangeEndpoint{Leg: i, Side: env.Side, Code: env.Code}, nil
	case "change_time":
		i, err := leg()
		if err != nil {
			return nil, err
		}
		if env.Departure == nil {
			return nil, fmt.Errorf("%w: change_time requires a departure", ErrInvalidCommand)
		}
		return ChangeTime{Leg: i, Departure: *env.Departure}, nil
	case "toggle_kind":
		i, err := leg()
		if err != nil {
			return nil, err
		}
		return ToggleKind{Leg: i}, nil
	case "add_leg":
		return AddLeg{}, nil
	case "remove_leg":
		i, err := leg()
		if err != nil {
			return nil, err
		}
		return RemoveLeg{Leg: i}, nil
	case "reset":
		return Reset{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidCommand, env.Type)
	}
}
