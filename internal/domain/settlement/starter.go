package settlement

import (
	"time"

	"civico/internal/domain/worldmap"
)

const (
	StartingStock      = 250
	StartingCapacity   = 500
	StartingRate       = 5
	StartingPopulation = 1
)

func starterFields() FieldGrid {
	s := func(name string) GridSlot { return GridSlot{Name: name} }
	return FieldGrid{
		{s("?CAVE"), s("?WHEAT"), s("?CLAY"), s("?CAVE"), s("?WHEAT")},
		{s("?WHEAT"), s("?CLAY"), s("FOREST"), s("?CAVE"), s("?WHEAT")},
		{s("?FOREST"), s("CLAY"), s("TOWN"), s("CAVE"), s("?CLAY")},
		{s("?CLAY"), s("?WHEAT"), s("WHEAT"), s("?CAVE"), s("?FOREST")},
		{s("?FOREST"), s("?CAVE"), s("?FOREST"), s("?CLAY"), s("?FOREST")},
	}
}

func starterBuildings() BuildingGrid {
	var g BuildingGrid
	for r := range g {
		for c := range g[r] {
			g[r][c] = GridSlot{Name: "EMPTY"}
		}
	}
	return g
}

// NewSnapshot builds the document a fresh account starts with.
func NewSnapshot(id, username string, at worldmap.Point, now time.Time) Snapshot {
	starting := Resource{Stock: StartingStock, Max: StartingCapacity, Rate: StartingRate}
	return Snapshot{
		ID:       id,
		Username: username,
		Resources: ResourceState{
			Lumber:    starting,
			Iron:      starting,
			Clay:      starting,
			Wheat:     starting,
			Timestamp: now,
		},
		Population:  StartingPopulation,
		Fields:      starterFields(),
		Buildings:   starterBuildings(),
		Coordinates: at,
		Troops:      EmptyTroops(),
		Groups:      []DispatchedGroup{},
		Inbox:       []InboxMessage{},
		Pacifist:    true,
		Version:     1,
	}
}
