package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saviobatista/jet-itinerary/internal/types"
)

func sampleLocations() []*types.Location {
	return []*types.Location{
		{ID: "1", ICAO: "KTEB", IATA: "TEB", Name: "Teterboro", City: "Teterboro", Country: "US", Kind: types.LocationAirport,
			Coordinates: &types.Coordinates{Latitude: 40.8501, Longitude: -74.0608}},
		{ID: "2", ICAO: "KPBI", IATA: "PBI", Name: "Palm Beach International", City: "West Palm Beach", Country: "US", Kind: types.LocationAirport,
			Coordinates: &types.Coordinates{Latitude: 26.6832, Longitude: -80.0956}},
		{ID: "3", ICAO: "KJRB", Name: "Downtown Manhattan Heliport", City: "New York", Country: "US", Kind: types.LocationHeliport,
			Coordinates: &types.Coordinates{Latitude: 40.7012, Longitude: -74.009}},
		{ID: "4", IATA: "XNY", Name: "Unsurveyed Strip", City: "Nowhere", Country: "US", Kind: types.LocationAirport},
		{ID: "5", Name: "No Code"},
	}
}

func TestNewMemory_SkipsLocationsWithoutCodes(t *testing.T) {
	m := NewMemory(sampleLocations())
	assert.Equal(t, 4, m.Len())
	assert.Len(t, m.All(), 4)
}

func TestLookup(t *testing.T) {
	m := NewMemory(sampleLocations())

	tests := []struct {
		code string
		want string
		ok   bool
	}{
		{"KTEB", "Teterboro", true},
		{"teb", "Teterboro", true},
		{" kpbi ", "Palm Beach International", true},
		{"3", "Downtown Manhattan Heliport", true},
		{"XNY", "Unsurveyed Strip", true},
		{"EGLL", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			loc, ok := m.Lookup(tt.code)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, loc.Name)
			}
		})
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	m := NewMemory(sampleLocations())
	all := m.All()
	all[0] = nil

	assert.NotNil(t, m.All()[0])
}

func TestSearch_Ranking(t *testing.T) {
	m := NewMemory(sampleLocations())

	got := m.Search("k", 0)
	require.Len(t, got, 3)

	got = m.Search("palm", 10)
	require.Len(t, got, 1)
	assert.Equal(t, "KPBI", got[0].Code())

	got = m.Search("new york", 10)
	require.Len(t, got, 1)
	assert.Equal(t, "KJRB", got[0].Code())

	// Exact code match ranks ahead of a name substring match.
	extra := append(sampleLocations(), &types.Location{ID: "6", ICAO: "KXYZ", Name: "Tebbutt Field", Kind: types.LocationAirport})
	m = NewMemory(extra)
	got = m.Search("TEB", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "KTEB", got[0].Code())
	assert.Equal(t, "KXYZ", got[1].Code())
}

func TestSearch_LimitAndEmpty(t *testing.T) {
	m := NewMemory(sampleLocations())

	assert.Len(t, m.Search("k", 1), 1)
	assert.Nil(t, m.Search("  ", 10))
	assert.Empty(t, m.Search("zzzz", 10))
}

func TestForAsset(t *testing.T) {
	m := NewMemory(sampleLocations())

	planes := m.ForAsset(types.AssetAirplane)
	_, ok := planes.Lookup("KJRB")
	assert.False(t, ok, "airplanes cannot use heliports")
	assert.Equal(t, 3, planes.Len())

	helis := m.ForAsset(types.AssetHelicopter)
	_, ok = helis.Lookup("KJRB")
	assert.True(t, ok)
	assert.Equal(t, 4, helis.Len())
}

func TestLoadCSV(t *testing.T) {
	data := strings.Join([]string{
		"id,icao,iata,name,city,country,kind,latitude,longitude",
		"1,kteb,TEB,Teterboro,Teterboro,US,airport,40.8501,-74.0608",
		"2,KJRB,,Downtown Manhattan Heliport,New York,US,heliport,40.7012,-74.009",
		"3,,XNY,Unsurveyed Strip,,US,,,",
	}, "\n")

	m, err := LoadCSV(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())

	teb, ok := m.Lookup("KTEB")
	require.True(t, ok)
	assert.Equal(t, "KTEB", teb.ICAO)
	require.NotNil(t, teb.Coordinates)
	assert.InDelta(t, 40.8501, teb.Coordinates.Latitude, 1e-9)
	assert.InDelta(t, -74.0608, teb.Coordinates.Longitude, 1e-9)

	heli, ok := m.Lookup("KJRB")
	require.True(t, ok)
	assert.Equal(t, types.LocationHeliport, heli.Kind)

	strip, ok := m.Lookup("XNY")
	require.True(t, ok)
	assert.Nil(t, strip.Coordinates)
	assert.Equal(t, types.LocationAirport, strip.Kind)
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing codes", "id,icao,iata,name\n1,,,Nameless"},
		{"bad latitude", "id,icao,name,latitude,longitude\n1,KTEB,Teterboro,north,-74.0"},
		{"bad longitude", "id,icao,name,latitude,longitude\n1,KTEB,Teterboro,40.8,west"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadCSVFile_Missing(t *testing.T) {
	_, err := LoadCSVFile("/nonexistent/catalog.csv")
	assert.Error(t, err)
}
