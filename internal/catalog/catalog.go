// Package catalog provides read-only access to the locations an asset can fly between.
package catalog

import (
	"sort"
	"strings"

	"github.com/saviobatista/jet-itinerary/internal/types"
)

// Catalog is the lookup surface the itinerary engine needs
type Catalog interface {
	Lookup(code string) (*types.Location, bool)
	All() []*types.Location
}

// Memory is an in-memory catalog indexed by ID, ICAO and IATA code
type Memory struct {
	locations []*types.Location
	index     map[string]*types.Location
}

// NewMemory indexes the given locations. Later entries do not override earlier ones.
func NewMemory(locations []*types.Location) *Memory {
	m := &Memory{
		locations: make([]*types.Location, 0, len(locations)),
		index:     make(map[string]*types.Location, len(locations)*3),
	}
	for _, loc := range locations {
		if loc == nil || loc.Code() == "" {
			continue
		}
		m.locations = append(m.locations, loc)
		for _, key := range []string{loc.ID, loc.ICAO, loc.IATA} {
			key = normalise(key)
			if key == "" {
				continue
			}
			if _, exists := m.index[key]; !exists {
				m.index[key] = loc
			}
		}
	}
	return m
}

// Lookup finds a location by ID, ICAO or IATA code, case-insensitively
func (m *Memory) Lookup(code string) (*types.Location, bool) {
	loc, ok := m.index[normalise(code)]
	return loc, ok
}

// All returns every location in catalog order
func (m *Memory) All() []*types.Location {
	out := make([]*types.Location, len(m.locations))
	copy(out, m.locations)
	return out
}

// Len returns the number of locations
func (m *Memory) Len() int {
	return len(m.locations)
}

// Search matches query against codes, name and city. Exact code matches rank
// first, then code prefixes, then name/city substrings. A limit <= 0 means no limit.
func (m *Memory) Search(query string, limit int) []*types.Location {
	q := normalise(query)
	if q == "" {
		return nil
	}

	type hit struct {
		loc  *types.Location
		rank int
		pos  int
	}
	var hits []hit
	for i, loc := range m.locations {
		rank := -1
		icao, iata := normalise(loc.ICAO), normalise(loc.IATA)
		switch {
		case icao == q || iata == q:
			rank = 0
		case (icao != "" && strings.HasPrefix(icao, q)) || (iata != "" && strings.HasPrefix(iata, q)):
			rank = 1
		case strings.Contains(normalise(loc.Name), q) || strings.Contains(normalise(loc.City), q):
			rank = 2
		}
		if rank >= 0 {
			hits = append(hits, hit{loc: loc, rank: rank, pos: i})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		return hits[i].pos < hits[j].pos
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]*types.Location, len(hits))
	for i, h := range hits {
		out[i] = h.loc
	}
	return out
}

// ForAsset restricts the catalog to the travel network of an asset kind.
// Airplanes use airports only; helicopters may use heliports and airports.
func (m *Memory) ForAsset(kind types.AssetKind) *Memory {
	var allowed []*types.Location
	for _, loc := range m.locations {
		if Serves(kind, loc) {
			allowed = append(allowed, loc)
		}
	}
	return NewMemory(allowed)
}

// Serves reports whether an asset of the given kind can use a location
func Serves(kind types.AssetKind, loc *types.Location) bool {
	switch kind {
	case types.AssetHelicopter:
		return true
	default:
		return loc.Kind != types.LocationHeliport
	}
}

func normalise(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
