package settlement

import (
	"time"

	"civico/internal/domain/worldmap"
)

type ResourceKind string

const (
	Lumber ResourceKind = "lumber"
	Iron   ResourceKind = "iron"
	Clay   ResourceKind = "clay"
	Wheat  ResourceKind = "wheat"
)

var ResourceKinds = []ResourceKind{Lumber, Iron, Clay, Wheat}

type Resource struct {
	Stock float64 `json:"stock"`
	Max   float64 `json:"max"`
	Rate  float64 `json:"rate"`
}

// ResourceState is the persisted resource baseline. Stock values are exact
// as of Timestamp; anything later is derived by Accrue.
type ResourceState struct {
	Lumber    Resource  `json:"lumber"`
	Iron      Resource  `json:"iron"`
	Clay      Resource  `json:"clay"`
	Wheat     Resource  `json:"wheat"`
	Timestamp time.Time `json:"timestamp"`
}

func (r ResourceState) Get(kind ResourceKind) Resource {
	if p := r.ptr(kind); p != nil {
		return *p
	}
	return Resource{}
}

func (r *ResourceState) ptr(kind ResourceKind) *Resource {
	switch kind {
	case Lumber:
		return &r.Lumber
	case Iron:
		return &r.Iron
	case Clay:
		return &r.Clay
	case Wheat:
		return &r.Wheat
	default:
		return nil
	}
}

// Stocks returns the stock values as Amounts.
func (r ResourceState) Stocks() Amounts {
	return Amounts{Lumber: r.Lumber.Stock, Iron: r.Iron.Stock, Clay: r.Clay.Stock, Wheat: r.Wheat.Stock}
}

// Amounts is a signed quantity per resource kind, used for costs, loot and
// rate changes.
type Amounts struct {
	Lumber float64 `json:"lumber"`
	Iron   float64 `json:"iron"`
	Clay   float64 `json:"clay"`
	Wheat  float64 `json:"wheat"`
}

func (a Amounts) Get(kind ResourceKind) float64 {
	switch kind {
	case Lumber:
		return a.Lumber
	case Iron:
		return a.Iron
	case Clay:
		return a.Clay
	case Wheat:
		return a.Wheat
	default:
		return 0
	}
}

func (a *Amounts) Set(kind ResourceKind, v float64) {
	switch kind {
	case Lumber:
		a.Lumber = v
	case Iron:
		a.Iron = v
	case Clay:
		a.Clay = v
	case Wheat:
		a.Wheat = v
	}
}

func (a Amounts) Add(b Amounts) Amounts {
	return Amounts{
		Lumber: a.Lumber + b.Lumber,
		Iron:   a.Iron + b.Iron,
		Clay:   a.Clay + b.Clay,
		Wheat:  a.Wheat + b.Wheat,
	}
}

func (a Amounts) Scale(f float64) Amounts {
	return Amounts{Lumber: a.Lumber * f, Iron: a.Iron * f, Clay: a.Clay * f, Wheat: a.Wheat * f}
}

func (a Amounts) Total() float64 {
	return a.Lumber + a.Iron + a.Clay + a.Wheat
}

func (a Amounts) IsZero() bool {
	return a == Amounts{}
}

// PotentialPrefix marks a field slot that can be developed but is not active yet.
const PotentialPrefix = "?"

type GridSlot struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

func (g GridSlot) Potential() bool {
	return len(g.Name) > 0 && g.Name[:1] == PotentialPrefix
}

const (
	FieldRows    = 5
	FieldCols    = 5
	BuildingRows = 3
	BuildingCols = 3
)

type FieldGrid [FieldRows][FieldCols]GridSlot

type BuildingGrid [BuildingRows][BuildingCols]GridSlot

type TroopType string

const (
	KnifeBoy    TroopType = "Knife Boy"
	Spearman    TroopType = "Spearman"
	Swordsman   TroopType = "Swordsman"
	DonkeyRider TroopType = "Donkey Rider"
	Jouster     TroopType = "Jouster"
	DarkKnight  TroopType = "Dark Knight"
)

var TroopTypes = []TroopType{KnifeBoy, Spearman, Swordsman, DonkeyRider, Jouster, DarkKnight}

func IsTroopType(t TroopType) bool {
	for _, known := range TroopTypes {
		if known == t {
			return true
		}
	}
	return false
}

type DispatchedGroup struct {
	ID          string         `json:"id"`
	Origin      worldmap.Point `json:"origin"`
	Destination worldmap.Point `json:"destination"`
	Troops      Troops         `json:"troops"`
	Loot        Amounts        `json:"loot"`
	DepartedAt  time.Time      `json:"departed_at"`
	ArrivesAt   time.Time      `json:"arrives_at"`
	HeadingBack bool           `json:"heading_back"`
}

// TravelDuration is the one-way trip length; the return trip takes as long.
func (g DispatchedGroup) TravelDuration() time.Duration {
	d := g.ArrivesAt.Sub(g.DepartedAt)
	if d < 0 {
		return 0
	}
	return d
}

func (g DispatchedGroup) Clone() DispatchedGroup {
	next := g
	next.Troops = g.Troops.Clone()
	return next
}

type InboxMessage struct {
	Sender  string    `json:"sender"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

type Snapshot struct {
	ID                    string            `json:"id"`
	Username              string            `json:"username"`
	Resources             ResourceState     `json:"resources"`
	Population            int               `json:"population"`
	Fields                FieldGrid         `json:"fields"`
	Buildings             BuildingGrid      `json:"buildings"`
	Coordinates           worldmap.Point    `json:"coordinates"`
	Troops                Troops            `json:"troops"`
	Groups                []DispatchedGroup `json:"groups"`
	Inbox                 []InboxMessage    `json:"inbox"`
	Pacifist              bool              `json:"pacifist"`
	PacifismDisabledUntil time.Time         `json:"pacifism_disabled_until"`
	Version               int64             `json:"version"`
}

// Clone returns a deep copy; the maps and slices of the result can be
// mutated without touching s.
func (s Snapshot) Clone() Snapshot {
	next := s
	next.Troops = s.Troops.Clone()
	if s.Groups != nil {
		next.Groups = make([]DispatchedGroup, len(s.Groups))
		for i, g := range s.Groups {
			next.Groups[i] = g.Clone()
		}
	}
	if s.Inbox != nil {
		next.Inbox = append([]InboxMessage(nil), s.Inbox...)
	}
	return next
}

// IsProtected reports whether pacifism shields the settlement from attacks
// at now. A pacifist that never asked to drop protection stays protected.
func (s Snapshot) IsProtected(now time.Time) bool {
	if !s.Pacifist {
		return false
	}
	if s.PacifismDisabledUntil.IsZero() {
		return true
	}
	return now.Before(s.PacifismDisabledUntil)
}

func (s *Snapshot) Deliver(msg InboxMessage) {
	s.Inbox = append(s.Inbox, msg)
}

// Field names a group of persisted columns for partial updates.
type Field uint16

const (
	FieldResources Field = 1 << iota
	FieldPopulation
	FieldFields
	FieldBuildings
	FieldTroops
	FieldGroups
	FieldInbox
	FieldPacifism
)

func (f Field) Has(other Field) bool {
	return f&other != 0
}

type Event struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload"`
}
