package memory

import (
	"context"

	"civico/internal/app/ports"
	"civico/internal/domain/worldmap"
)

type MapIndex struct {
	store *Store
}

func NewMapIndex(store *Store) MapIndex {
	return MapIndex{store: store}
}

func (m MapIndex) Claim(ctx context.Context, p worldmap.Point, settlementID string) error {
	return m.store.write(ctx, func() error {
		if _, taken := m.store.cells[p]; taken {
			return ports.ErrConflict
		}
		m.store.cells[p] = settlementID
		return nil
	})
}

func (m MapIndex) IsOccupied(ctx context.Context, p worldmap.Point) (bool, error) {
	var taken bool
	err := m.store.read(ctx, func() error {
		_, taken = m.store.cells[p]
		return nil
	})
	return taken, err
}

func (m MapIndex) NextFree(ctx context.Context, from worldmap.Point, size int) (worldmap.Point, bool, error) {
	var (
		free worldmap.Point
		ok   bool
	)
	err := m.store.read(ctx, func() error {
		free, ok = worldmap.ScanFree(worldmap.Bounds{Size: size}, from, func(p worldmap.Point) bool {
			_, taken := m.store.cells[p]
			return taken
		})
		return nil
	})
	return free, ok, err
}
