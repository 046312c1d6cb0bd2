package geom

import "voxelstruct.ai/internal/sim/mathx"

// Frame maps piece-local coordinates into world space. Local x runs across
// the piece, local z runs along its facing, local y is height above MinY.
// A frame facing None passes coordinates through unchanged.
type Frame struct {
	Box    Box
	Facing Facing
}

func (f Frame) WorldX(x, z int) int {
	switch f.Facing {
	case West:
		return f.Box.MaxX - z
	case East:
		return f.Box.MinX + z
	case North, South:
		return f.Box.MinX + x
	default:
		return x
	}
}

func (f Frame) WorldY(y int) int {
	if f.Facing == None {
		return y
	}
	return f.Box.MinY + y
}

func (f Frame) WorldZ(x, z int) int {
	switch f.Facing {
	case North:
		return f.Box.MaxZ - z
	case South:
		return f.Box.MinZ + z
	case West, East:
		return f.Box.MinZ + x
	default:
		return z
	}
}

// World converts one local point.
func (f Frame) World(x, y, z int) (wx, wy, wz int) {
	return f.WorldX(x, z), f.WorldY(y), f.WorldZ(x, z)
}

// WorldBox converts a local box given by two corners.
func (f Frame) WorldBox(x1, y1, z1, x2, y2, z2 int) Box {
	ax, ay, az := f.World(x1, y1, z1)
	bx, by, bz := f.World(x2, y2, z2)
	return FromCorners(ax, ay, az, bx, by, bz)
}

const ChunkSize = 16

// ChunkPos identifies one 16x16 world column.
type ChunkPos struct {
	X, Z int
}

func ChunkAt(x, z int) ChunkPos {
	return ChunkPos{X: mathx.FloorDiv(x, ChunkSize), Z: mathx.FloorDiv(z, ChunkSize)}
}

// Column is the chunk's footprint between minY and maxY.
func (c ChunkPos) Column(minY, maxY int) Box {
	return Box{
		MinX: c.X * ChunkSize, MinY: minY, MinZ: c.Z * ChunkSize,
		MaxX: c.X*ChunkSize + ChunkSize - 1, MaxY: maxY, MaxZ: c.Z*ChunkSize + ChunkSize - 1,
	}
}

// ChunksTouching lists every chunk whose column intersects b, in x-major order.
func ChunksTouching(b Box) []ChunkPos {
	lo := ChunkAt(b.MinX, b.MinZ)
	hi := ChunkAt(b.MaxX, b.MaxZ)
	out := make([]ChunkPos, 0, (hi.X-lo.X+1)*(hi.Z-lo.Z+1))
	for cx := lo.X; cx <= hi.X; cx++ {
		for cz := lo.Z; cz <= hi.Z; cz++ {
			out = append(out, ChunkPos{X: cx, Z: cz})
		}
	}
	return out
}
