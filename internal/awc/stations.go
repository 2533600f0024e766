package awc

import (
	"fmt"
	"strings"
)

// stationIndex is keyed by upper-case ICAO id with an FAA side table.
type stationIndex struct {
	byICAO    map[string]Station
	faaToICAO map[string]string
}

func newStationIndex(stations []Station) *stationIndex {
	idx := &stationIndex{
		byICAO:    make(map[string]Station, len(stations)),
		faaToICAO: make(map[string]string, len(stations)),
	}
	for _, s := range stations {
		icao := strings.ToUpper(strings.TrimSpace(s.ICAOID))
		if icao == "" {
			continue
		}
		idx.byICAO[icao] = s
		if faa := strings.ToUpper(strings.TrimSpace(s.FAAID)); faa != "" {
			idx.faaToICAO[faa] = icao
		}
	}
	return idx
}

func (idx *stationIndex) lookup(id string) (Station, error) {
	upper := strings.ToUpper(strings.TrimSpace(id))
	if s, ok := idx.byICAO[upper]; ok {
		return s, nil
	}
	if icao, ok := idx.faaToICAO[upper]; ok {
		if s, ok := idx.byICAO[icao]; ok {
			return s, nil
		}
		return Station{}, fmt.Errorf("inconsistency between FAA and ICAO data for %s", upper)
	}
	return Station{}, fmt.Errorf("%w: %s", ErrStationNotFound, upper)
}
