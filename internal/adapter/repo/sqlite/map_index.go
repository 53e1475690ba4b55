package sqlite

import (
	"context"

	"civico/internal/domain/worldmap"

	"github.com/jmoiron/sqlx"
)

type MapIndex struct {
	db *DB
}

func NewMapIndex(db *DB) MapIndex {
	return MapIndex{db: db}
}

func (m MapIndex) Claim(ctx context.Context, p worldmap.Point, settlementID string) error {
	_, err := m.db.ext(ctx).ExecContext(ctx,
		"INSERT INTO map_cells (x, y, settlement_id) VALUES (?, ?, ?)", p.X, p.Y, settlementID)
	return mapError(err)
}

func (m MapIndex) IsOccupied(ctx context.Context, p worldmap.Point) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, m.db.ext(ctx), &n, "SELECT COUNT(1) FROM map_cells WHERE x = ? AND y = ?", p.X, p.Y)
	if err != nil {
		return false, mapError(err)
	}
	return n > 0, nil
}

// NextFree loads the claimed cells and scans from from in row order.
func (m MapIndex) NextFree(ctx context.Context, from worldmap.Point, size int) (worldmap.Point, bool, error) {
	var cells []worldmap.Point
	if err := sqlx.SelectContext(ctx, m.db.ext(ctx), &cells, "SELECT x, y FROM map_cells"); err != nil {
		return worldmap.Point{}, false, mapError(err)
	}
	taken := make(map[worldmap.Point]struct{}, len(cells))
	for _, c := range cells {
		taken[c] = struct{}{}
	}
	p, ok := worldmap.ScanFree(worldmap.Bounds{Size: size}, from, func(p worldmap.Point) bool {
		_, used := taken[p]
		return used
	})
	return p, ok, nil
}
