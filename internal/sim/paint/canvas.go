package paint

import (
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/rng"
)

// Canvas writes piece-local coordinates into a World through a Frame. A piece
// is painted one chunk at a time in any order, so writes are bounded by the
// columns of Clip: Below is Clip extended down to the world floor. Floors and
// footings under a piece land in Below; one-shot effects and floods stay in
// Clip.
type Canvas struct {
	W     World
	Frame geom.Frame
	Clip  geom.Box
	Below geom.Box

	Writes int
}

func NewCanvas(w World, box geom.Box, f geom.Facing, clip geom.Box) *Canvas {
	below := clip
	below.MinY = min(clip.MinY, w.MinY())
	return &Canvas{W: w, Frame: geom.Frame{Box: box, Facing: f}, Clip: clip, Below: below}
}

func (c *Canvas) inClip(x, y, z int) (int, int, int, bool) {
	wx, wy, wz := c.Frame.World(x, y, z)
	return wx, wy, wz, c.Clip.Contains(wx, wy, wz)
}

func (c *Canvas) inBelow(x, y, z int) (int, int, int, bool) {
	wx, wy, wz := c.Frame.World(x, y, z)
	return wx, wy, wz, c.Below.Contains(wx, wy, wz)
}

func (c *Canvas) Set(x, y, z int, b Block) {
	wx, wy, wz, ok := c.inBelow(x, y, z)
	if !ok {
		return
	}
	c.W.SetBlock(wx, wy, wz, b)
	c.Writes++
}

// Get reads a local coordinate. Outside the clip columns it reports Air.
func (c *Canvas) Get(x, y, z int) Block {
	wx, wy, wz, ok := c.inBelow(x, y, z)
	if !ok {
		return Air
	}
	return c.W.Block(wx, wy, wz)
}

// Fill paints a local box: edge on its outer shell, inside everywhere else.
func (c *Canvas) Fill(x1, y1, z1, x2, y2, z2 int, edge, inside Block) {
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			for z := z1; z <= z2; z++ {
				if y == y1 || y == y2 || x == x1 || x == x2 || z == z1 || z == z2 {
					c.Set(x, y, z, edge)
				} else {
					c.Set(x, y, z, inside)
				}
			}
		}
	}
}

// Solid fills a local box with a single block.
func (c *Canvas) Solid(x1, y1, z1, x2, y2, z2 int, b Block) {
	c.Fill(x1, y1, z1, x2, y2, z2, b, b)
}

// FillMaybe sets each position of the box with probability pct/100. Draws
// are consumed for every position, including clipped ones, so the result in
// one chunk does not depend on which other chunks were painted.
func (c *Canvas) FillMaybe(r rng.Stream, pct int, x1, y1, z1, x2, y2, z2 int, b Block) {
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			for z := z1; z <= z2; z++ {
				if r.Intn(100) < pct {
					c.Set(x, y, z, b)
				}
			}
		}
	}
}

// ColumnDown fills from local (x,y,z) downward until a solid block or the
// world floor. The start may lie below the piece box but must be in one of
// the clip's columns.
func (c *Canvas) ColumnDown(x, y, z int, b Block) {
	wx, wy, wz, ok := c.inBelow(x, y, z)
	if !ok {
		return
	}
	floor := c.Below.MinY
	for ; wy >= floor && !c.W.Block(wx, wy, wz).Solid(); wy-- {
		c.W.SetBlock(wx, wy, wz, b)
		c.Writes++
	}
}

// Once performs a one-shot side effect at a local position. It flips *done
// and reports true only the first time the position is inside the clip.
func (c *Canvas) Once(done *bool, x, y, z int, b Block, e Entity) bool {
	if *done {
		return false
	}
	wx, wy, wz, ok := c.inClip(x, y, z)
	if !ok {
		return false
	}
	*done = true
	if b != Air {
		c.W.SetBlock(wx, wy, wz, b)
		c.Writes++
	}
	e.X, e.Y, e.Z = wx, wy, wz
	c.W.Spawn(e)
	return true
}

func (c *Canvas) Chest(done *bool, x, y, z int, table string) bool {
	return c.Once(done, x, y, z, Chest, Entity{Kind: EntityLoot, Details: table})
}

func (c *Canvas) Spawner(done *bool, x, y, z int, mob string) bool {
	return c.Once(done, x, y, z, Spawner, Entity{Kind: EntitySpawner, Details: mob})
}

func (c *Canvas) Mob(done *bool, x, y, z int, mob string) bool {
	return c.Once(done, x, y, z, Air, Entity{Kind: EntityMob, Details: mob})
}

// Dome fills the upper half of the ellipsoid inscribed in the local box,
// with its equator on y1.
func (c *Canvas) Dome(x1, y1, z1, x2, y2, z2 int, b Block) {
	w := float64(x2 - x1 + 1)
	h := float64(y2 - y1 + 1)
	d := float64(z2 - z1 + 1)
	cx := float64(x1) + w/2
	cz := float64(z1) + d/2
	for y := y1; y <= y2; y++ {
		fy := float64(y-y1) / h
		for x := x1; x <= x2; x++ {
			fx := (float64(x) - cx) / (w * 0.5)
			for z := z1; z <= z2; z++ {
				fz := (float64(z) - cz) / (d * 0.5)
				if fx*fx+fy*fy+fz*fz <= 1.05 {
					c.Set(x, y, z, b)
				}
			}
		}
	}
}

// Replace swaps every from block inside the local box for to.
func (c *Canvas) Replace(x1, y1, z1, x2, y2, z2 int, from, to Block) {
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			for z := z1; z <= z2; z++ {
				if c.Get(x, y, z) == from {
					c.Set(x, y, z, to)
				}
			}
		}
	}
}

// Flood fills the local box with Water below world height surface and Air at
// or above it. Existing water is kept.
func (c *Canvas) Flood(x1, y1, z1, x2, y2, z2, surface int) {
	for y := y1; y <= y2; y++ {
		b := Water
		if c.Frame.WorldY(y) >= surface {
			b = Air
		}
		for x := x1; x <= x2; x++ {
			for z := z1; z <= z2; z++ {
				wx, wy, wz, ok := c.inClip(x, y, z)
				if !ok || c.W.Block(wx, wy, wz) == Water {
					continue
				}
				c.W.SetBlock(wx, wy, wz, b)
				c.Writes++
			}
		}
	}
}
