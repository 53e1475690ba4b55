package gormrepo

import (
	"context"
	"time"

	"civico/internal/adapter/repo/gorm/model"
	"civico/internal/domain/worldmap"

	"gorm.io/gorm"
)

type MapIndex struct {
	db *gorm.DB
}

func NewMapIndex(db *gorm.DB) MapIndex {
	return MapIndex{db: db}
}

// Claim fails with ErrConflict when the cell already has an owner.
func (m MapIndex) Claim(ctx context.Context, p worldmap.Point, settlementID string) error {
	row := model.MapCell{
		X:            int32(p.X),
		Y:            int32(p.Y),
		SettlementID: settlementID,
		ClaimedAt:    time.Now().UTC(),
	}
	return mapError(getDBFromCtx(ctx, m.db).Create(&row).Error)
}

func (m MapIndex) IsOccupied(ctx context.Context, p worldmap.Point) (bool, error) {
	var count int64
	err := getDBFromCtx(ctx, m.db).Model(&model.MapCell{}).
		Where("x = ? AND y = ?", p.X, p.Y).
		Count(&count).Error
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

const nextFreeSQL = `
SELECT s.idx / @size AS x, s.idx % @size AS y
FROM (
  SELECT (@start + g) % (@size * @size) AS idx
  FROM generate_series(0, @size * @size - 1) AS g
) s
LEFT JOIN map_cells c ON c.x = s.idx / @size AND c.y = s.idx % @size
WHERE c.settlement_id IS NULL
ORDER BY (s.idx - @start + @size * @size) % (@size * @size)
LIMIT 1`

// NextFree scans the map in row order from from, wrapping once.
func (m MapIndex) NextFree(ctx context.Context, from worldmap.Point, size int) (worldmap.Point, bool, error) {
	if size <= 0 {
		size = worldmap.DefaultSize
	}
	bounds := worldmap.Bounds{Size: size}
	var rows []struct {
		X int
		Y int
	}
	err := getDBFromCtx(ctx, m.db).Raw(nextFreeSQL, map[string]any{
		"size":  size,
		"start": bounds.Index(from),
	}).Scan(&rows).Error
	if err != nil {
		return worldmap.Point{}, false, mapError(err)
	}
	if len(rows) == 0 {
		return worldmap.Point{}, false, nil
	}
	return worldmap.Point{X: rows[0].X, Y: rows[0].Y}, true, nil
}
