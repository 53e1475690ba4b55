package settlement

import (
	"math"
	"time"

	"civico/internal/domain/worldmap"
)

type TroopStats struct {
	Attack  float64
	Defense float64
	// Speed in map cells per hour.
	Speed float64
	// Carry is how many resource units one unit hauls home.
	Carry float64
}

type TroopStatsTable map[TroopType]TroopStats

var DefaultTroopStats = TroopStatsTable{
	KnifeBoy:    {Attack: 10, Defense: 15, Speed: 24, Carry: 20},
	Spearman:    {Attack: 15, Defense: 35, Speed: 20, Carry: 15},
	Swordsman:   {Attack: 40, Defense: 25, Speed: 18, Carry: 30},
	DonkeyRider: {Attack: 30, Defense: 20, Speed: 40, Carry: 60},
	Jouster:     {Attack: 70, Defense: 40, Speed: 32, Carry: 50},
	DarkKnight:  {Attack: 120, Defense: 80, Speed: 28, Carry: 40},
}

func (t TroopStatsTable) lookup(tt TroopType) TroopStats {
	if t == nil {
		return DefaultTroopStats[tt]
	}
	return t[tt]
}

func (t TroopStatsTable) AttackPower(troops Troops) float64 {
	total := 0.0
	for tt, n := range troops {
		if n > 0 {
			total += float64(n) * t.lookup(tt).Attack
		}
	}
	return total
}

func (t TroopStatsTable) DefensePower(troops Troops) float64 {
	total := 0.0
	for tt, n := range troops {
		if n > 0 {
			total += float64(n) * t.lookup(tt).Defense
		}
	}
	return total
}

func (t TroopStatsTable) CarryCapacity(troops Troops) float64 {
	total := 0.0
	for tt, n := range troops {
		if n > 0 {
			total += float64(n) * t.lookup(tt).Carry
		}
	}
	return total
}

// TravelDuration is distance over the speed of the slowest unit in the group,
// never shorter than one second.
func (t TroopStatsTable) TravelDuration(from, to worldmap.Point, troops Troops) time.Duration {
	slowest := math.Inf(1)
	for tt, n := range troops {
		if n <= 0 {
			continue
		}
		if s := t.lookup(tt).Speed; s > 0 && s < slowest {
			slowest = s
		}
	}
	if math.IsInf(slowest, 1) {
		return time.Second
	}
	hours := worldmap.Distance(from, to) / slowest
	d := time.Duration(hours * float64(time.Hour)).Round(time.Second)
	if d < time.Second {
		return time.Second
	}
	return d
}

type FieldUpgrade struct {
	PopulationGain int
	RateGain       Amounts
	Cost           Amounts
}

const MaxFieldLevel = 3

var fieldUpgrades = map[string]map[int]FieldUpgrade{
	"FOREST": {
		1: {PopulationGain: 1, RateGain: Amounts{Lumber: 6}, Cost: Amounts{Lumber: 35, Iron: 60, Clay: 55, Wheat: 20}},
		2: {PopulationGain: 1, RateGain: Amounts{Lumber: 11}, Cost: Amounts{Lumber: 100, Iron: 120, Clay: 100, Wheat: 85}},
		3: {PopulationGain: 2, RateGain: Amounts{Lumber: 18}, Cost: Amounts{Lumber: 170, Iron: 210, Clay: 220, Wheat: 150}},
	},
	"CAVE": {
		1: {PopulationGain: 1, RateGain: Amounts{Iron: 6}, Cost: Amounts{Lumber: 50, Iron: 30, Clay: 50, Wheat: 25}},
		2: {PopulationGain: 1, RateGain: Amounts{Iron: 11}, Cost: Amounts{Lumber: 100, Iron: 95, Clay: 120, Wheat: 75}},
		3: {PopulationGain: 2, RateGain: Amounts{Iron: 18}, Cost: Amounts{Lumber: 220, Iron: 180, Clay: 225, Wheat: 145}},
	},
	"CLAY": {
		1: {PopulationGain: 1, RateGain: Amounts{Clay: 6}, Cost: Amounts{Lumber: 50, Iron: 45, Clay: 25, Wheat: 35}},
		2: {PopulationGain: 1, RateGain: Amounts{Clay: 11}, Cost: Amounts{Lumber: 105, Iron: 100, Clay: 80, Wheat: 75}},
		3: {PopulationGain: 2, RateGain: Amounts{Clay: 18}, Cost: Amounts{Lumber: 200, Iron: 200, Clay: 175, Wheat: 130}},
	},
	"WHEAT": {
		1: {PopulationGain: 1, RateGain: Amounts{Wheat: 6}, Cost: Amounts{Lumber: 45, Iron: 45, Clay: 50, Wheat: 35}},
		2: {PopulationGain: 1, RateGain: Amounts{Wheat: 1}, Cost: Amounts{Lumber: 95, Iron: 100, Clay: 95, Wheat: 45}},
		3: {PopulationGain: 2, RateGain: Amounts{Wheat: 18}, Cost: Amounts{Lumber: 200, Iron: 210, Clay: 205, Wheat: 70}},
	},
}

// LookupFieldUpgrade returns what reaching level costs and yields for an
// active field kind.
func LookupFieldUpgrade(kind string, level int) (FieldUpgrade, bool) {
	levels, ok := fieldUpgrades[kind]
	if !ok {
		return FieldUpgrade{}, false
	}
	up, ok := levels[level]
	return up, ok
}
