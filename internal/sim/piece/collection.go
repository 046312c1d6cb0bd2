package piece

import (
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/mathx"
)

const bucketSize = 16

// Collection is the ordered piece list of one structure instance plus an
// XZ bucket index over it. Insertion order is discovery order.
type Collection struct {
	pieces  []*Piece
	buckets map[[2]int][]int
	stamp   []uint32
	gen     uint32
}

func NewCollection() *Collection {
	return &Collection{buckets: map[[2]int][]int{}}
}

func (c *Collection) Len() int { return len(c.pieces) }

// Pieces returns the backing slice; callers must not modify it.
func (c *Collection) Pieces() []*Piece { return c.pieces }

func (c *Collection) Root() *Piece {
	if len(c.pieces) == 0 {
		return nil
	}
	return c.pieces[0]
}

func (c *Collection) Add(p *Piece) {
	idx := len(c.pieces)
	c.pieces = append(c.pieces, p)
	c.stamp = append(c.stamp, 0)
	c.index(idx, p.Box)
}

func (c *Collection) index(idx int, b geom.Box) {
	x0, x1 := mathx.FloorDiv(b.MinX, bucketSize), mathx.FloorDiv(b.MaxX, bucketSize)
	z0, z1 := mathx.FloorDiv(b.MinZ, bucketSize), mathx.FloorDiv(b.MaxZ, bucketSize)
	for bx := x0; bx <= x1; bx++ {
		for bz := z0; bz <= z1; bz++ {
			k := [2]int{bx, bz}
			c.buckets[k] = append(c.buckets[k], idx)
		}
	}
}

// FindCollision returns the earliest-inserted piece intersecting b, or nil.
func (c *Collection) FindCollision(b geom.Box) *Piece {
	c.gen++
	if c.gen == 0 {
		for i := range c.stamp {
			c.stamp[i] = 0
		}
		c.gen = 1
	}
	best := -1
	x0, x1 := mathx.FloorDiv(b.MinX, bucketSize), mathx.FloorDiv(b.MaxX, bucketSize)
	z0, z1 := mathx.FloorDiv(b.MinZ, bucketSize), mathx.FloorDiv(b.MaxZ, bucketSize)
	for bx := x0; bx <= x1; bx++ {
		for bz := z0; bz <= z1; bz++ {
			for _, idx := range c.buckets[[2]int{bx, bz}] {
				if c.stamp[idx] == c.gen {
					continue
				}
				c.stamp[idx] = c.gen
				if (best < 0 || idx < best) && c.pieces[idx].Box.Intersects(b) {
					best = idx
				}
			}
		}
	}
	if best < 0 {
		return nil
	}
	return c.pieces[best]
}

func (c *Collection) Collides(b geom.Box) bool { return c.FindCollision(b) != nil }

// Bounds is the box enclosing every piece. It is the zero Box when empty.
func (c *Collection) Bounds() geom.Box {
	if len(c.pieces) == 0 {
		return geom.Box{}
	}
	b := c.pieces[0].Box
	for _, p := range c.pieces[1:] {
		b = b.Encapsulate(p.Box)
	}
	return b
}

// Translator is implemented by behaviors that hold world coordinates of
// their own, such as recorded doorways.
type Translator interface {
	Translate(dx, dy, dz int)
}

// Move translates every piece and rebuilds the index.
func (c *Collection) Move(dx, dy, dz int) {
	c.buckets = map[[2]int][]int{}
	for i, p := range c.pieces {
		p.Box = p.Box.Translated(dx, dy, dz)
		if t, ok := p.Body.(Translator); ok {
			t.Translate(dx, dy, dz)
		}
		c.index(i, p.Box)
	}
}
