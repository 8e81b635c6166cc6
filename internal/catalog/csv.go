package catalog

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/saviobatista/jet-itinerary/internal/types"
)

// csvRow is one line of a location catalog export. Coordinates are optional.
type csvRow struct {
	ID        string `csv:"id"`
	ICAO      string `csv:"icao"`
	IATA      string `csv:"iata"`
	Name      string `csv:"name"`
	City      string `csv:"city"`
	Country   string `csv:"country"`
	Kind      string `csv:"kind"`
	Latitude  string `csv:"latitude"`
	Longitude string `csv:"longitude"`
}

// LoadCSV reads a location catalog from CSV with a header row
func LoadCSV(r io.Reader) (*Memory, error) {
	var rows []*csvRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	locations := make([]*types.Location, 0, len(rows))
	for i, row := range rows {
		loc, err := row.location()
		if err != nil {
			return nil, fmt.Errorf("catalog row %d: %w", i+2, err)
		}
		locations = append(locations, loc)
	}
	return NewMemory(locations), nil
}

// LoadCSVFile opens path and reads it with LoadCSV
func LoadCSVFile(path string) (*Memory, error) {
	//nolint:gosec // path comes from operator configuration
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	return LoadCSV(f)
}

func (r *csvRow) location() (*types.Location, error) {
	icao := strings.ToUpper(strings.TrimSpace(r.ICAO))
	iata := strings.ToUpper(strings.TrimSpace(r.IATA))
	if icao == "" && iata == "" {
		return nil, fmt.Errorf("location %q has no ICAO or IATA code", r.Name)
	}

	kind := types.LocationKind(strings.ToLower(strings.TrimSpace(r.Kind)))
	if kind == "" {
		kind = types.LocationAirport
	}

	loc := &types.Location{
		ID:      strings.TrimSpace(r.ID),
		ICAO:    icao,
		IATA:    iata,
		Name:    strings.TrimSpace(r.Name),
		City:    strings.TrimSpace(r.City),
		Country: strings.TrimSpace(r.Country),
		Kind:    kind,
	}

	lat, lon := strings.TrimSpace(r.Latitude), strings.TrimSpace(r.Longitude)
	if lat == "" || lon == "" {
		return loc, nil
	}
	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", lat, err)
	}
	longitude, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", lon, err)
	}
	loc.Coordinates = &types.Coordinates{Latitude: latitude, Longitude: longitude}
	return loc, nil
}
