package worldmap

import (
	"context"
	"errors"
	"testing"
)

type onlyFree struct {
	bounds Bounds
	free   map[Point]bool
	probes int
}

func (o *onlyFree) IsOccupied(_ context.Context, p Point) (bool, error) {
	o.probes++
	return !o.free[p], nil
}

func (o *onlyFree) NextFree(_ context.Context, from Point, _ int) (Point, bool, error) {
	p, ok := ScanFree(o.bounds, from, func(p Point) bool { return !o.free[p] })
	return p, ok, nil
}

func TestPlace_FindsLastFreeCell(t *testing.T) {
	b := DefaultBounds()
	occ := &onlyFree{bounds: b, free: map[Point]bool{{X: 499, Y: 499}: true}}
	p := Placer{Bounds: b, Attempts: 10, Intn: func(int) int { return 7 }}

	got, err := p.Place(context.Background(), occ)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if got != (Point{X: 499, Y: 499}) {
		t.Fatalf("expected (499,499), got %+v", got)
	}
	if occ.probes != 10 {
		t.Fatalf("expected sampling bounded to 10 probes, got %d", occ.probes)
	}
}

func TestPlace_ReturnsSampledFreeCell(t *testing.T) {
	b := Bounds{Size: 10}
	occ := &onlyFree{bounds: b, free: map[Point]bool{{X: 3, Y: 3}: true}}
	p := Placer{Bounds: b, Intn: func(int) int { return 3 }}

	got, err := p.Place(context.Background(), occ)
	if err != nil || got != (Point{X: 3, Y: 3}) {
		t.Fatalf("expected (3,3), got %+v err=%v", got, err)
	}
	if occ.probes != 1 {
		t.Fatalf("expected one probe, got %d", occ.probes)
	}
}

func TestPlace_FullMap(t *testing.T) {
	b := Bounds{Size: 3}
	occ := &onlyFree{bounds: b, free: map[Point]bool{}}
	_, err := Placer{Bounds: b, Attempts: 4}.Place(context.Background(), occ)
	if !errors.Is(err, ErrMapFull) {
		t.Fatalf("expected ErrMapFull, got %v", err)
	}
}

func TestScanFree_Wraps(t *testing.T) {
	b := Bounds{Size: 3}
	free := Point{X: 0, Y: 1}
	got, ok := ScanFree(b, Point{X: 2, Y: 2}, func(p Point) bool { return p != free })
	if !ok || got != free {
		t.Fatalf("expected wrap to %+v, got %+v ok=%v", free, got, ok)
	}
}

func TestBounds(t *testing.T) {
	b := Bounds{Size: 4}
	if b.Contains(Point{X: 4, Y: 0}) || !b.Contains(Point{X: 3, Y: 3}) || b.Contains(Point{X: -1, Y: 0}) {
		t.Fatalf("contains mismatch")
	}
	if got := b.PointAt(b.Index(Point{X: 2, Y: 1})); got != (Point{X: 2, Y: 1}) {
		t.Fatalf("index round trip mismatch: %+v", got)
	}
	if d := Distance(Point{X: 0, Y: 0}, Point{X: 3, Y: 4}); d != 5 {
		t.Fatalf("expected distance 5, got %v", d)
	}
}
