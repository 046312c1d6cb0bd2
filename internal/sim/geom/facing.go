package geom

import (
	"fmt"
	"strconv"
	"strings"
)

// Facing is a horizontal orientation. The numeric values are persisted.
type Facing int8

const (
	None  Facing = -1
	South Facing = 0
	West  Facing = 1
	North Facing = 2
	East  Facing = 3
)

// Horizontals lists the four facings in clockwise order starting at North.
var Horizontals = [4]Facing{North, East, South, West}

func (f Facing) Valid() bool { return f >= None && f <= East }

func (f Facing) String() string {
	switch f {
	case South:
		return "south"
	case West:
		return "west"
	case North:
		return "north"
	case East:
		return "east"
	default:
		return "none"
	}
}

// Step is the unit (dx,dz) offset one block in front of f.
func (f Facing) Step() (dx, dz int) {
	switch f {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case West:
		return -1, 0
	case East:
		return 1, 0
	}
	return 0, 0
}

// AlongZ reports whether f points along the Z axis.
func (f Facing) AlongZ() bool { return f == North || f == South }

func (f Facing) Clockwise() Facing {
	switch f {
	case North:
		return East
	case East:
		return South
	case South:
		return West
	case West:
		return North
	}
	return None
}

func (f Facing) CounterClockwise() Facing {
	switch f {
	case North:
		return West
	case West:
		return South
	case South:
		return East
	case East:
		return North
	}
	return None
}

func (f Facing) Opposite() Facing {
	switch f {
	case North:
		return South
	case South:
		return North
	case West:
		return East
	case East:
		return West
	}
	return None
}

// QuarterTurns is the clockwise rotation from North, in [0,3]. None maps to 0.
func (f Facing) QuarterTurns() int {
	switch f {
	case East:
		return 1
	case South:
		return 2
	case West:
		return 3
	}
	return 0
}

// FromQuarterTurns is the inverse of QuarterTurns.
func FromQuarterTurns(r int) Facing {
	return Horizontals[NormalizeRotation(r)]
}

// NormalizeRotation converts a rotation value into a stable quarter-turn
// count in [0,3].
//
// It accepts either quarter-turns (0..3) or degrees (multiples of 90).
func NormalizeRotation(r int) int {
	// Treat large multiples of 90 as degrees.
	if r%90 == 0 && (r > 3 || r < -3) {
		r = r / 90
	}
	r %= 4
	if r < 0 {
		r += 4
	}
	return r
}

// RotateXZ rotates an (x,z) offset around the Y axis by rot*90 degrees
// clockwise. rot must be a normalized quarter-turn count in [0,3].
func RotateXZ(x, z, rot int) (rx, rz int) {
	switch rot & 3 {
	case 0:
		return x, z
	case 1:
		return -z, x
	case 2:
		return -x, -z
	default: // 3
		return z, -x
	}
}

// ParseFacing accepts a facing name ("north", "e", ...), "none"/"" or a
// rotation in quarter-turns or degrees.
func ParseFacing(s string) (Facing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "random":
		return None, nil
	case "n", "north":
		return North, nil
	case "e", "east":
		return East, nil
	case "s", "south":
		return South, nil
	case "w", "west":
		return West, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return None, fmt.Errorf("bad facing %q", s)
	}
	return FromQuarterTurns(n), nil
}
