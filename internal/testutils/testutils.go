package testutils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/saviobatista/jet-itinerary/internal/catalog"
	"github.com/saviobatista/jet-itinerary/internal/types"
)

// Fixture locations sit on the equator one degree of longitude apart, so
// each hop is 60 nm and 8 minutes at the default cruise speed.
const (
	CodeA        = "AAAA" // 0°, 0°
	CodeB        = "BBBB" // 0°, 1°
	CodeC        = "CCCC" // 0°, 2°
	CodeD        = "DDDD" // 0°, 4°
	CodeHeliport = "HELI" // 0°, 3°
	CodeNoCoords = "NOCO"
	FixtureDate  = "2026-10-18"
)

// MockLocation creates an airport at the given coordinates
func MockLocation(code string, lat, lon float64) *types.Location {
	return &types.Location{
		ID:          strings.ToLower(code),
		ICAO:        code,
		Name:        code + " Field",
		Country:     "XX",
		Kind:        types.LocationAirport,
		Coordinates: &types.Coordinates{Latitude: lat, Longitude: lon},
	}
}

// FixtureLocations returns a fresh set of test locations
func FixtureLocations() []*types.Location {
	heli := MockLocation(CodeHeliport, 0, 3)
	heli.Kind = types.LocationHeliport

	noCoords := MockLocation(CodeNoCoords, 0, 0)
	noCoords.Coordinates = nil

	return []*types.Location{
		MockLocation(CodeA, 0, 0),
		MockLocation(CodeB, 0, 1),
		MockLocation(CodeC, 0, 2),
		MockLocation(CodeD, 0, 4),
		heli,
		noCoords,
	}
}

// FixtureCatalog returns an in-memory catalog of FixtureLocations
func FixtureCatalog() *catalog.Memory {
	return catalog.NewMemory(FixtureLocations())
}

// MockProfile creates an airplane flying at 450 kt with a 60 minute turnaround
func MockProfile(homeBase string) types.AssetProfile {
	return types.AssetProfile{
		ID:                "asset-1",
		Name:              "Test Jet",
		Kind:              types.AssetAirplane,
		CruiseSpeed:       types.DefaultCruiseSpeed,
		TurnaroundMinutes: types.DefaultTurnaroundMinutes,
		HomeBase:          homeBase,
	}
}

// At returns the fixture date at the given clock time in UTC
func At(clock string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", FixtureDate+" "+clock)
	if err != nil {
		panic(err)
	}
	return t
}

// WaitForCondition waits for a condition to be true with timeout
func WaitForCondition(condition func() bool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for condition")
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}
