package binder

import (
	"fmt"
)

// GridSize bounds both axes of a Coord. Keys are persisted as two ASCII
// digits, so nothing larger than 9 can be addressed.
const GridSize = 10

// Coord is the grid address of one physical button.
type Coord struct {
	X, Y int
}

func (c Coord) Valid() bool {
	return c.X >= 0 && c.X < GridSize && c.Y >= 0 && c.Y < GridSize
}

// String returns the canonical "xy" key used in bindings files.
func (c Coord) String() string {
	return fmt.Sprintf("%d%d", c.X, c.Y)
}

// ParseCoord parses a canonical "xy" key.
func ParseCoord(s string) (Coord, error) {
	if len(s) != 2 || !isDigit(s[0]) || !isDigit(s[1]) {
		return Coord{}, fmt.Errorf("bad coordinate key %q", s)
	}
	return Coord{X: int(s[0] - '0'), Y: int(s[1] - '0')}, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// compareCoords orders row by row, then column by column.
func compareCoords(a, b Coord) int {
	if a.Y != b.Y {
		return a.Y - b.Y
	}
	return a.X - b.X
}
