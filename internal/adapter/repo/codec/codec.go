// Package codec converts the structured settlement columns to and from the
// JSON stored by the SQL adapters.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"civico/internal/domain/settlement"
)

var ErrCorrupt = errors.New("corrupt settlement column")

func EncodeFields(g settlement.FieldGrid) ([]byte, error) {
	return json.Marshal(g.Rows())
}

func DecodeFields(b []byte) (settlement.FieldGrid, error) {
	var rows [][]settlement.GridSlot
	if err := json.Unmarshal(b, &rows); err != nil {
		return settlement.FieldGrid{}, fmt.Errorf("%w: fields: %v", ErrCorrupt, err)
	}
	return settlement.DecodeFieldGrid(rows)
}

func EncodeBuildings(g settlement.BuildingGrid) ([]byte, error) {
	return json.Marshal(g.Rows())
}

func DecodeBuildings(b []byte) (settlement.BuildingGrid, error) {
	var rows [][]settlement.GridSlot
	if err := json.Unmarshal(b, &rows); err != nil {
		return settlement.BuildingGrid{}, fmt.Errorf("%w: buildings: %v", ErrCorrupt, err)
	}
	return settlement.DecodeBuildingGrid(rows)
}

func EncodeTroops(t settlement.Troops) ([]byte, error) {
	if t == nil {
		t = settlement.EmptyTroops()
	}
	return json.Marshal(t)
}

// DecodeTroops fills in missing troop types with zero and rejects negative
// counts.
func DecodeTroops(b []byte) (settlement.Troops, error) {
	out := settlement.EmptyTroops()
	if len(b) == 0 {
		return out, nil
	}
	var stored map[settlement.TroopType]int
	if err := json.Unmarshal(b, &stored); err != nil {
		return nil, fmt.Errorf("%w: troops: %v", ErrCorrupt, err)
	}
	for t, n := range stored {
		if n < 0 {
			return nil, fmt.Errorf("%w: troops: %s=%d", ErrCorrupt, t, n)
		}
		out[t] = n
	}
	return out, nil
}

func EncodeGroups(groups []settlement.DispatchedGroup) ([]byte, error) {
	if groups == nil {
		groups = []settlement.DispatchedGroup{}
	}
	return json.Marshal(groups)
}

func DecodeGroups(b []byte) ([]settlement.DispatchedGroup, error) {
	out := []settlement.DispatchedGroup{}
	if len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: groups: %v", ErrCorrupt, err)
	}
	return out, nil
}

func EncodeInbox(inbox []settlement.InboxMessage) ([]byte, error) {
	if inbox == nil {
		inbox = []settlement.InboxMessage{}
	}
	return json.Marshal(inbox)
}

func DecodeInbox(b []byte) ([]settlement.InboxMessage, error) {
	out := []settlement.InboxMessage{}
	if len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: inbox: %v", ErrCorrupt, err)
	}
	return out, nil
}

func EncodePayload(p map[string]any) ([]byte, error) {
	if p == nil {
		p = map[string]any{}
	}
	return json.Marshal(p)
}

func DecodePayload(b []byte) map[string]any {
	var out map[string]any
	if len(b) > 0 {
		_ = json.Unmarshal(b, &out)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out
}

// Columns holds every JSON column of a settlement row.
type Columns struct {
	Fields    []byte
	Buildings []byte
	Troops    []byte
	Groups    []byte
	Inbox     []byte
}

func EncodeColumns(s settlement.Snapshot) (Columns, error) {
	var (
		c   Columns
		err error
	)
	if c.Fields, err = EncodeFields(s.Fields); err != nil {
		return c, err
	}
	if c.Buildings, err = EncodeBuildings(s.Buildings); err != nil {
		return c, err
	}
	if c.Troops, err = EncodeTroops(s.Troops); err != nil {
		return c, err
	}
	if c.Groups, err = EncodeGroups(s.Groups); err != nil {
		return c, err
	}
	if c.Inbox, err = EncodeInbox(s.Inbox); err != nil {
		return c, err
	}
	return c, nil
}

// DecodeColumns fills the structured parts of s from stored JSON.
func DecodeColumns(c Columns, s *settlement.Snapshot) error {
	var err error
	if s.Fields, err = DecodeFields(c.Fields); err != nil {
		return err
	}
	if s.Buildings, err = DecodeBuildings(c.Buildings); err != nil {
		return err
	}
	if s.Troops, err = DecodeTroops(c.Troops); err != nil {
		return err
	}
	if s.Groups, err = DecodeGroups(c.Groups); err != nil {
		return err
	}
	if s.Inbox, err = DecodeInbox(c.Inbox); err != nil {
		return err
	}
	return nil
}
