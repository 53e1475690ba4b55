package worldmap

import (
	"context"
	"errors"
	"math/rand/v2"
)

const defaultPlacementAttempts = 64

var ErrMapFull = errors.New("map full")

// Occupancy answers cell occupancy questions against the map index.
type Occupancy interface {
	IsOccupied(ctx context.Context, p Point) (bool, error)
	NextFree(ctx context.Context, from Point, size int) (Point, bool, error)
}

// Placer picks a free cell for a new settlement. It samples random cells
// first and falls back to a wrapping scan from the last sample, so a nearly
// full map still terminates.
type Placer struct {
	Bounds   Bounds
	Attempts int
	Intn     func(n int) int
}

func (p Placer) Place(ctx context.Context, occ Occupancy) (Point, error) {
	intn := p.Intn
	if intn == nil {
		intn = rand.IntN
	}
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = defaultPlacementAttempts
	}
	size := p.Bounds.size()

	var last Point
	for i := 0; i < attempts; i++ {
		last = Point{X: intn(size), Y: intn(size)}
		taken, err := occ.IsOccupied(ctx, last)
		if err != nil {
			return Point{}, err
		}
		if !taken {
			return last, nil
		}
	}

	free, ok, err := occ.NextFree(ctx, last, size)
	if err != nil {
		return Point{}, err
	}
	if !ok {
		return Point{}, ErrMapFull
	}
	return free, nil
}

// ScanFree walks every cell once starting at from, wrapping at the end of
// the map, and returns the first cell the occupied func rejects.
func ScanFree(b Bounds, from Point, occupied func(Point) bool) (Point, bool) {
	start := b.Index(from)
	cells := b.Cells()
	for i := 0; i < cells; i++ {
		p := b.PointAt(start + i)
		if !occupied(p) {
			return p, true
		}
	}
	return Point{}, false
}
