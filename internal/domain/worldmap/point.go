package worldmap

import "math"

const DefaultSize = 500

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Bounds is the square map [0, Size) on both axes.
type Bounds struct {
	Size int
}

func DefaultBounds() Bounds {
	return Bounds{Size: DefaultSize}
}

func (b Bounds) size() int {
	if b.Size <= 0 {
		return DefaultSize
	}
	return b.Size
}

func (b Bounds) Contains(p Point) bool {
	n := b.size()
	return p.X >= 0 && p.Y >= 0 && p.X < n && p.Y < n
}

func (b Bounds) Cells() int {
	n := b.size()
	return n * n
}

// Index orders cells row by row: (0,0), (0,1) ... (0,n-1), (1,0) ...
func (b Bounds) Index(p Point) int {
	return p.X*b.size() + p.Y
}

func (b Bounds) PointAt(index int) Point {
	n := b.size()
	cells := n * n
	index %= cells
	if index < 0 {
		index += cells
	}
	return Point{X: index / n, Y: index % n}
}

func Distance(a, b Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
