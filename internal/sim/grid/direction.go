package grid

import (
	"fmt"
	"strings"
)

// Direction is one of the eight king-move directions.
type Direction uint8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// Directions is the fixed neighbor order used wherever iteration order matters.
var Directions = []Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

// Y grows southward.
var offsets = [...]Point{
	North:     {0, -1},
	NorthEast: {1, -1},
	East:      {1, 0},
	SouthEast: {1, 1},
	South:     {0, 1},
	SouthWest: {-1, 1},
	West:      {-1, 0},
	NorthWest: {-1, -1},
}

var dirNames = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

func (d Direction) Offset() Point { return offsets[d] }

func (d Direction) Diagonal() bool {
	o := offsets[d]
	return o.X != 0 && o.Y != 0
}

func (d Direction) Valid() bool { return int(d) < len(offsets) }

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("dir(%d)", uint8(d))
	}
	return dirNames[d]
}

// DirectionOf maps a unit offset to its direction.
func DirectionOf(off Point) (Direction, bool) {
	for i, o := range offsets {
		if o == off {
			return Direction(i), true
		}
	}
	return 0, false
}

func ParseDirection(s string) (Direction, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range dirNames {
		if n == s {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("grid: unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
