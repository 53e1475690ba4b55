package replay

import "civico/internal/domain/settlement"

type Request struct {
	SettlementID string
	Limit        int
	// OccurredFrom and OccurredTo are unix seconds; zero means unbounded.
	OccurredFrom int64
	OccurredTo   int64
}

// Summary totals the battles fought by a settlement's own groups.
type Summary struct {
	Battles    map[settlement.Outcome]int `json:"battles"`
	Loot       settlement.Amounts         `json:"loot"`
	TroopsLost int                        `json:"troops_lost"`
	UnitsSlain int                        `json:"units_slain"`
}

type Response struct {
	Events  []settlement.Event `json:"events"`
	Summary Summary            `json:"summary"`
}
