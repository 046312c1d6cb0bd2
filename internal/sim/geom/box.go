package geom

import "fmt"

// Box is an inclusive, axis-aligned integer volume. Min <= Max on every axis
// for any Box built through this package.
type Box struct {
	MinX, MinY, MinZ int
	MaxX, MaxY, MaxZ int
}

// FromCorners builds the box spanned by two arbitrary corners.
func FromCorners(x1, y1, z1, x2, y2, z2 int) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	if z1 > z2 {
		z1, z2 = z2, z1
	}
	return Box{MinX: x1, MinY: y1, MinZ: z1, MaxX: x2, MaxY: y2, MaxZ: z2}
}

// Oriented builds a box of the given extents anchored at (x,y,z) and rotated so
// that the local +z axis points along f. Offsets are in piece-local space:
// offX across, offY up, offZ forward.
func Oriented(x, y, z, offX, offY, offZ, sizeX, sizeY, sizeZ int, f Facing) Box {
	switch f {
	case North:
		return Box{
			MinX: x + offX, MinY: y + offY, MinZ: z - sizeZ + 1 + offZ,
			MaxX: x + sizeX - 1 + offX, MaxY: y + sizeY - 1 + offY, MaxZ: z + offZ,
		}
	case West:
		return Box{
			MinX: x - sizeZ + 1 + offZ, MinY: y + offY, MinZ: z + offX,
			MaxX: x + offZ, MaxY: y + sizeY - 1 + offY, MaxZ: z + sizeX - 1 + offX,
		}
	case East:
		return Box{
			MinX: x + offZ, MinY: y + offY, MinZ: z + offX,
			MaxX: x + sizeZ - 1 + offZ, MaxY: y + sizeY - 1 + offY, MaxZ: z + sizeX - 1 + offX,
		}
	default: // South, None
		return Box{
			MinX: x + offX, MinY: y + offY, MinZ: z + offZ,
			MaxX: x + sizeX - 1 + offX, MaxY: y + sizeY - 1 + offY, MaxZ: z + sizeZ - 1 + offZ,
		}
	}
}

// Sized builds a box at (x,y,z) whose width runs across f and depth along it.
func Sized(x, y, z int, f Facing, width, height, depth int) Box {
	if f.AlongZ() || f == None {
		return Box{MinX: x, MinY: y, MinZ: z, MaxX: x + width - 1, MaxY: y + height - 1, MaxZ: z + depth - 1}
	}
	return Box{MinX: x, MinY: y, MinZ: z, MaxX: x + depth - 1, MaxY: y + height - 1, MaxZ: z + width - 1}
}

func (b Box) Intersects(o Box) bool {
	return b.MaxX >= o.MinX && b.MinX <= o.MaxX &&
		b.MaxZ >= o.MinZ && b.MinZ <= o.MaxZ &&
		b.MaxY >= o.MinY && b.MinY <= o.MaxY
}

// IntersectsXZ ignores the vertical axis.
func (b Box) IntersectsXZ(minX, minZ, maxX, maxZ int) bool {
	return b.MaxX >= minX && b.MinX <= maxX && b.MaxZ >= minZ && b.MinZ <= maxZ
}

func (b Box) Contains(x, y, z int) bool {
	return x >= b.MinX && x <= b.MaxX && z >= b.MinZ && z <= b.MaxZ && y >= b.MinY && y <= b.MaxY
}

func (b Box) ContainsBox(o Box) bool {
	return b.Contains(o.MinX, o.MinY, o.MinZ) && b.Contains(o.MaxX, o.MaxY, o.MaxZ)
}

// Translated returns a copy of b moved by (dx,dy,dz).
func (b Box) Translated(dx, dy, dz int) Box {
	return Box{
		MinX: b.MinX + dx, MinY: b.MinY + dy, MinZ: b.MinZ + dz,
		MaxX: b.MaxX + dx, MaxY: b.MaxY + dy, MaxZ: b.MaxZ + dz,
	}
}

// Inflated grows b by n on every side. Negative n shrinks; the result is
// re-sorted so it stays valid.
func (b Box) Inflated(n int) Box {
	return FromCorners(b.MinX-n, b.MinY-n, b.MinZ-n, b.MaxX+n, b.MaxY+n, b.MaxZ+n)
}

// Encapsulate returns the smallest box containing b and o.
func (b Box) Encapsulate(o Box) Box {
	return Box{
		MinX: min(b.MinX, o.MinX), MinY: min(b.MinY, o.MinY), MinZ: min(b.MinZ, o.MinZ),
		MaxX: max(b.MaxX, o.MaxX), MaxY: max(b.MaxY, o.MaxY), MaxZ: max(b.MaxZ, o.MaxZ),
	}
}

// Clip returns the intersection of b and o.
func (b Box) Clip(o Box) (Box, bool) {
	if !b.Intersects(o) {
		return Box{}, false
	}
	return Box{
		MinX: max(b.MinX, o.MinX), MinY: max(b.MinY, o.MinY), MinZ: max(b.MinZ, o.MinZ),
		MaxX: min(b.MaxX, o.MaxX), MaxY: min(b.MaxY, o.MaxY), MaxZ: min(b.MaxZ, o.MaxZ),
	}, true
}

func (b Box) SpanX() int { return b.MaxX - b.MinX + 1 }
func (b Box) SpanY() int { return b.MaxY - b.MinY + 1 }
func (b Box) SpanZ() int { return b.MaxZ - b.MinZ + 1 }

func (b Box) Volume() int { return b.SpanX() * b.SpanY() * b.SpanZ() }

func (b Box) Center() (x, y, z int) {
	return b.MinX + (b.MaxX-b.MinX+1)/2, b.MinY + (b.MaxY-b.MinY+1)/2, b.MinZ + (b.MaxZ-b.MinZ+1)/2
}

// Array is the persisted corner order: min x,y,z then max x,y,z.
func (b Box) Array() [6]int {
	return [6]int{b.MinX, b.MinY, b.MinZ, b.MaxX, b.MaxY, b.MaxZ}
}

// FromArray rebuilds a box from Array order. It rejects inverted corners
// instead of sorting them: a persisted box is never inverted.
func FromArray(a [6]int) (Box, error) {
	b := Box{MinX: a[0], MinY: a[1], MinZ: a[2], MaxX: a[3], MaxY: a[4], MaxZ: a[5]}
	if b.MinX > b.MaxX || b.MinY > b.MaxY || b.MinZ > b.MaxZ {
		return Box{}, fmt.Errorf("inverted box %v", a)
	}
	return b, nil
}

func (b Box) String() string {
	return fmt.Sprintf("(%d,%d,%d)-(%d,%d,%d)", b.MinX, b.MinY, b.MinZ, b.MaxX, b.MaxY, b.MaxZ)
}
