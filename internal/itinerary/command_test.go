package itinerary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommand(t *testing.T) {
	departure := time.Date(2026, 10, 18, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		json string
		want Command
	}{
		{"change endpoint", `{"type":"change_endpoint","leg":1,"side":"arrival","code":"KPBI"}`, ChangeEndpoint{Leg: 1, Side: SideArrival, Code: "KPBI"}},
		{"clear endpoint", `{"type":"change_endpoint","leg":0,"side":"departure"}`, ChangeEndpoint{Leg: 0, Side: SideDeparture}},
		{"change time", `{"type":"change_time","leg":2,"departure":"2026-10-18T10:30:00Z"}`, ChangeTime{Leg: 2, Departure: departure}},
		{"toggle kind", `{"type":"toggle_kind","leg":0}`, ToggleKind{Leg: 0}},
		{"add leg", `{"type":"add_leg"}`, AddLeg{}},
		{"remove leg", `{"type":"remove_leg","leg":3}`, RemoveLeg{Leg: 3}},
		{"reset", `{"type":"reset"}`, Reset{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCommand([]byte(tt.json))
			require.NoError(t, err)
			if ct, ok := got.(ChangeTime); ok {
				want := tt.want.(ChangeTime)
				assert.Equal(t, want.Leg, ct.Leg)
				assert.True(t, want.Departure.Equal(ct.Departure))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCommand_Invalid(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"malformed", `{"type":`},
		{"unknown type", `{"type":"teleport","leg":0}`},
		{"missing type", `{"leg":0}`},
		{"missing leg", `{"type":"toggle_kind"}`},
		{"bad side", `{"type":"change_endpoint","leg":0,"side":"middle","code":"KTEB"}`},
		{"missing departure", `{"type":"change_time","leg":0}`},
		{"bad departure", `{"type":"change_time","leg":0,"departure":"10:30"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := DecodeCommand([]byte(tt.json))
			assert.Nil(t, cmd)
			assert.ErrorIs(t, err, ErrInvalidCommand)
		})
	}
}

func TestCommandNames(t *testing.T) {
	for _, cmd := range []Command{ChangeEndpoint{}, ChangeTime{}, ToggleKind{}, AddLeg{}, RemoveLeg{}, Reset{}} {
		decoded, err := DecodeCommand([]byte(`{"type":"` + cmd.Name() + `","leg":0,"side":"arrival","departure":"2026-10-18T10:30:00Z"}`))
		require.NoError(t, err)
		assert.Equal(t, cmd.Name(), decoded.Name())
	}
}
