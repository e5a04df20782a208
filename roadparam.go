package net2otm

import (
	"fmt"
	"sync"
)

// jamDensityFactor converts capacity/speed ratio into jam density (vehicles per lane per distance unit)
const jamDensityFactor = 5.0

type RoadParamID int

// RoadParam is a deduplicated (capacity, speed) profile shared by links
type RoadParam struct {
	Name       string
	ID         RoadParamID
	Capacity   float64
	Speed      float64
	JamDensity float64
}

type roadParamKey struct {
	capacity float64
	speed    float64
}

// roadParamCatalog assigns identifiers to distinct (capacity, speed) pairs in first-seen order
type roadParamCatalog struct {
	sync.Mutex
	ids    map[roadParamKey]RoadParamID
	params []RoadParam
}

func newRoadParamCatalog() *roadParamCatalog {
	return &roadParamCatalog{
		ids:    make(map[roadParamKey]RoadParamID),
		params: make([]RoadParam, 0),
	}
}

// Intern returns identifier of the given pair, allocating the next one if the pair has not been seen yet.
// Callers must feed links in ascending link identifier order to get reproducible identifiers
func (catalog *roadParamCatalog) Intern(capacity, speed float64) RoadParamID {
	catalog.Lock()
	defer catalog.Unlock()
	key := roadParamKey{capacity: capacity, speed: speed}
	if id, ok := catalog.ids[key]; ok {
		return id
	}
	id := RoadParamID(len(catalog.params))
	catalog.ids[key] = id
	catalog.params = append(catalog.params, RoadParam{
		Name:       fmt.Sprintf("link type %d", id),
		ID:         id,
		Capacity:   capacity,
		Speed:      speed,
		JamDensity: jamDensityFactor * capacity / speed,
	})
	return id
}

// Params returns copy of the catalog contents in identifier order
func (catalog *roadParamCatalog) Params() []RoadParam {
	catalog.Lock()
	defer catalog.Unlock()
	params := make([]RoadParam, len(catalog.params))
	copy(params, catalog.params)
	return params
}

// internLinks walks links in ascending identifier order and returns road parameter of each link positionally
func (catalog *roadParamCatalog) internLinks(links []*NetworkLink) []RoadParamID {
	linkParams := make([]RoadParamID, len(links))
	for _, link := range links {
		linkParams[link.ID] = catalog.Intern(link.capacity, link.freeSpeed)
	}
	return linkParams
}
