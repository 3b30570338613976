// Package grid holds integer tile coordinates and directions.
package grid

import "fmt"

type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func P(x, y int) Point { return Point{X: x, Y: y} }

func (p Point) Add(d Direction) Point {
	o := offsets[d]
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

func (p Point) ToArray() [2]int { return [2]int{p.X, p.Y} }

func FromArray(a [2]int) Point { return Point{X: a[0], Y: a[1]} }

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Distance is the Chebyshev distance (diagonal steps count as one).
func Distance(a, b Point) int {
	dx := AbsInt(a.X - b.X)
	dy := AbsInt(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func Manhattan(a, b Point) int {
	return AbsInt(a.X-b.X) + AbsInt(a.Y-b.Y)
}

// Adjacent reports Chebyshev distance exactly one.
func Adjacent(a, b Point) bool { return Distance(a, b) == 1 }

// Neighbors returns the 8 surrounding points in Directions order.
func (p Point) Neighbors() []Point {
	out := make([]Point, 0, len(Directions))
	for _, d := range Directions {
		out = append(out, p.Add(d))
	}
	return out
}

// StepToward is the direction of a single king-move from a toward b.
// ok is false when a == b.
func StepToward(a, b Point) (dir Direction, ok bool) {
	dx := sign(b.X - a.X)
	dy := sign(b.Y - a.Y)
	if dx == 0 && dy == 0 {
		return 0, false
	}
	return DirectionOf(Point{X: dx, Y: dy})
}

// Line returns the Bresenham line from a to b, inclusive of both ends.
func Line(a, b Point) []Point {
	dx := AbsInt(b.X - a.X)
	dy := -AbsInt(b.Y - a.Y)
	sx, sy := sign(b.X-a.X), sign(b.Y-a.Y)
	err := dx + dy
	out := make([]Point, 0, Distance(a, b)+1)
	p := a
	for {
		out = append(out, p)
		if p == b {
			return out
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			p.X += sx
		}
		if e2 <= dx {
			err += dx
			p.Y += sy
		}
	}
}

func AbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func FloorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func Mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
