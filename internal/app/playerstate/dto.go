package playerstate

import (
	"time"

	"civico/internal/domain/settlement"
	"civico/internal/domain/worldmap"
)

// Delta is a signed change applied by Commit. Troop counts may be negative.
type Delta struct {
	Resources  settlement.Amounts
	Rates      settlement.Amounts
	Capacity   settlement.Amounts
	Population int
	Troops     settlement.Troops
	Reason     string
}

type LevelUpRequest struct {
	Row    int
	Column int
	// NewLevel is optional; when set it must be one above the current level.
	NewLevel int
}

type DispatchRequest struct {
	Target worldmap.Point
	Troops settlement.Troops
}

type MovingGroup struct {
	ID          string             `json:"id"`
	Troops      settlement.Troops  `json:"troops"`
	Loot        settlement.Amounts `json:"loot"`
	ArrivalTime int64              `json:"arrivalTime"`
	HeadingBack bool               `json:"headingBack"`
	Origin      worldmap.Point     `json:"origin"`
	Destination worldmap.Point     `json:"destination"`
}

type InboxItem struct {
	Sender  string `json:"sender"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// View is the SEND_DATA payload: live resources plus the settled ledger.
type View struct {
	SettlementID          string                  `json:"settlementId"`
	Username              string                  `json:"username"`
	Lumber                float64                 `json:"lumber"`
	Iron                  float64                 `json:"iron"`
	Clay                  float64                 `json:"clay"`
	Wheat                 float64                 `json:"wheat"`
	MaxLumber             float64                 `json:"maxLumber"`
	MaxIron               float64                 `json:"maxIron"`
	MaxClay               float64                 `json:"maxClay"`
	MaxWheat              float64                 `json:"maxWheat"`
	LumberRate            float64                 `json:"lumberRate"`
	IronRate              float64                 `json:"ironRate"`
	ClayRate              float64                 `json:"clayRate"`
	WheatRate             float64                 `json:"wheatRate"`
	Population            int                     `json:"population"`
	Fields                [][]settlement.GridSlot `json:"fields"`
	Buildings             [][]settlement.GridSlot `json:"buildings"`
	MapCoordinates        worldmap.Point          `json:"mapCoordinates"`
	Troops                settlement.Troops       `json:"troops"`
	TroopsOnMove          []MovingGroup           `json:"troopsOnMove"`
	Inbox                 []InboxItem             `json:"inbox"`
	Pacifist              bool                    `json:"pacifist"`
	PacifismDisabledUntil int64                   `json:"pacifismDisabledUntil"`
}

// BuildView derives the display payload for s at now. Stored values are
// not modified.
func BuildView(s settlement.Snapshot, now time.Time) View {
	live := settlement.Accrue(s, now)
	v := View{
		SettlementID:   s.ID,
		Username:       s.Username,
		Lumber:         live.Lumber.Stock,
		Iron:           live.Iron.Stock,
		Clay:           live.Clay.Stock,
		Wheat:          live.Wheat.Stock,
		MaxLumber:      live.Lumber.Max,
		MaxIron:        live.Iron.Max,
		MaxClay:        live.Clay.Max,
		MaxWheat:       live.Wheat.Max,
		LumberRate:     live.Lumber.Rate,
		IronRate:       live.Iron.Rate,
		ClayRate:       live.Clay.Rate,
		WheatRate:      live.Wheat.Rate,
		Population:     s.Population,
		Fields:         s.Fields.Rows(),
		Buildings:      s.Buildings.Rows(),
		MapCoordinates: s.Coordinates,
		Troops:         s.Troops.Clone(),
		TroopsOnMove:   make([]MovingGroup, 0, len(s.Groups)),
		Inbox:          make([]InboxItem, 0, len(s.Inbox)),
		Pacifist:       s.IsProtected(now),
	}
	if v.Troops == nil {
		v.Troops = settlement.EmptyTroops()
	}
	if !s.PacifismDisabledUntil.IsZero() {
		v.PacifismDisabledUntil = s.PacifismDisabledUntil.UnixMilli()
	}
	for _, g := range s.Groups {
		v.TroopsOnMove = append(v.TroopsOnMove, MovingGroup{
			ID:          g.ID,
			Troops:      g.Troops.Clone(),
			Loot:        g.Loot,
			ArrivalTime: g.ArrivesAt.UnixMilli(),
			HeadingBack: g.HeadingBack,
			Origin:      g.Origin,
			Destination: g.Destination,
		})
	}
	for _, m := range s.Inbox {
		v.Inbox = append(v.Inbox, InboxItem{Sender: m.Sender, Title: m.Title, Message: m.Message})
	}
	return v
}
