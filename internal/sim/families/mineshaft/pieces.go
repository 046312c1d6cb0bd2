package mineshaft

import (
	"fmt"

	"voxelstruct.ai/internal/persistence/tag"
	"voxelstruct.ai/internal/sim/chain"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/paint"
	"voxelstruct.ai/internal/sim/piece"
	"voxelstruct.ai/internal/sim/rng"
)

const lootTable = "abandoned_mineshaft"

// base carries the material variant every mineshaft piece saves.
type base struct {
	MST int
}

func (b *base) saveBase(t tag.Compound) { t.PutInt("MST", b.MST) }

func loadBase(t tag.Compound) base { return base{MST: t.IntOr("MST", VariantNormal)} }

// flat paints an unoriented piece in box-relative coordinates.
func flat(w paint.World, p *piece.Piece, clip geom.Box) *paint.Canvas {
	return paint.NewCanvas(w, p.Box, geom.South, clip)
}

// grow asks for a tunnel one step deeper than parent.
func grow(b *chain.Builder, parent *piece.Piece, x, y, z int, f geom.Facing, depth int) *piece.Piece {
	return b.Grow(parent, chain.Request{X: x, Y: y, Z: z, Facing: f, Depth: depth})
}

// ---- room ----

// Room is the root: an open cave with a domed roof and a doorway recorded
// for every tunnel that leaves it.
type Room struct {
	base
	Entrances []geom.Box
}

func newRoom(x, y, z int, r rng.Stream, mst int) *piece.Piece {
	x2 := x + 7 + r.Intn(6)
	y2 := y + 4 + r.Intn(6)
	z2 := z + 7 + r.Intn(6)
	return &piece.Piece{
		Kind:   KindRoom,
		Box:    geom.Box{MinX: x, MinY: y, MinZ: z, MaxX: x2, MaxY: y2, MaxZ: z2},
		Facing: geom.None,
		Body:   &Room{base: base{MST: mst}},
	}
}

func (m *Room) AddChildren(b *chain.Builder, p *piece.Piece, r rng.Stream) {
	box := p.Box
	depth := p.Depth + 1
	j := box.SpanY() - 4
	if j <= 0 {
		j = 1
	}
	walls := []struct {
		span int
		at   func(k, y int) (int, int, int)
		f    geom.Facing
		door func(c geom.Box) geom.Box
	}{
		{
			span: box.SpanX(),
			at:   func(k, y int) (int, int, int) { return box.MinX + k, y, box.MinZ - 1 },
			f:    geom.North,
			door: func(c geom.Box) geom.Box {
				return geom.Box{MinX: c.MinX, MinY: c.MinY, MinZ: box.MinZ, MaxX: c.MaxX, MaxY: c.MaxY, MaxZ: box.MinZ + 1}
			},
		},
		{
			span: box.SpanX(),
			at:   func(k, y int) (int, int, int) { return box.MinX + k, y, box.MaxZ + 1 },
			f:    geom.South,
			door: func(c geom.Box) geom.Box {
				return geom.Box{MinX: c.MinX, MinY: c.MinY, MinZ: box.MaxZ - 1, MaxX: c.MaxX, MaxY: c.MaxY, MaxZ: box.MaxZ}
			},
		},
		{
			span: box.SpanZ(),
			at:   func(k, y int) (int, int, int) { return box.MinX - 1, y, box.MinZ + k },
			f:    geom.West,
			door: func(c geom.Box) geom.Box {
				return geom.Box{MinX: box.MinX, MinY: c.MinY, MinZ: c.MinZ, MaxX: box.MinX + 1, MaxY: c.MaxY, MaxZ: c.MaxZ}
			},
		},
		{
			span: box.SpanZ(),
			at:   func(k, y int) (int, int, int) { return box.MaxX + 1, y, box.MinZ + k },
			f:    geom.East,
			door: func(c geom.Box) geom.Box {
				return geom.Box{MinX: box.MaxX - 1, MinY: c.MinY, MinZ: c.MinZ, MaxX: box.MaxX, MaxY: c.MaxY, MaxZ: c.MaxZ}
			},
		},
	}
	for _, wall := range walls {
		for k := 0; k < wall.span; k += 4 {
			k += r.Intn(wall.span)
			if k+3 > wall.span {
				break
			}
			x, y, z := wall.at(k, box.MinY+r.Intn(j)+1)
			if c := grow(b, p, x, y, z, wall.f, depth); c != nil {
				m.Entrances = append(m.Entrances, wall.door(c.Box))
			}
		}
	}
}

func (m *Room) Translate(dx, dy, dz int) {
	for i := range m.Entrances {
		m.Entrances[i] = m.Entrances[i].Translated(dx, dy, dz)
	}
}

func (m *Room) Paint(w paint.World, p *piece.Piece, clip geom.Box, r rng.Stream, chunk geom.ChunkPos) {
	c := flat(w, p, clip)
	X, Y, Z := p.Box.SpanX()-1, p.Box.SpanY()-1, p.Box.SpanZ()-1
	c.Solid(0, 1, 0, X, min(3, Y), Z, paint.Air)
	for _, e := range m.Entrances {
		lo := e.Translated(-p.Box.MinX, -p.Box.MinY, -p.Box.MinZ)
		c.Solid(lo.MinX, lo.MaxY-2, lo.MinZ, lo.MaxX, lo.MaxY, lo.MaxZ, paint.Air)
	}
	if Y >= 4 {
		c.Dome(0, 4, 0, X, Y, Z, paint.Air)
	}
}

func (m *Room) SaveTag(t tag.Compound) {
	m.saveBase(t)
	rows := make([][]int, len(m.Entrances))
	for i, e := range m.Entrances {
		a := e.Array()
		rows[i] = a[:]
	}
	t.PutIntLists("Entrances", rows)
}

func decodeRoom(t tag.Compound) (piece.Behavior, error) {
	m := &Room{base: loadBase(t)}
	if !t.Has("Entrances") {
		return m, nil
	}
	rows, err := t.IntLists("Entrances")
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != 6 {
			return nil, fmt.Errorf("entrance %d: %w: %d values", i, piece.ErrMissingField, len(row))
		}
		e, err := geom.FromArray([6]int(row))
		if err != nil {
			return nil, fmt.Errorf("entrance %d: %w", i, err)
		}
		m.Entrances = append(m.Entrances, e)
	}
	return m, nil
}

// ---- corridor ----

type corridorArch struct{ mst int }

func (corridorArch) Kind() piece.Kind { return KindCorridor }

// CandidateBox tries 4, 3 or 2 sections first (drawn) and shortens by one
// section until the tunnel fits.
func (corridorArch) CandidateBox(c *piece.Collection, req chain.Request, r rng.Stream) (geom.Box, bool) {
	for n := r.Intn(3) + 2; n > 0; n-- {
		box := geom.Oriented(req.X, req.Y, req.Z, 0, 0, 0, 3, 3, n*5, req.Facing)
		if !c.Collides(box) {
			return box, true
		}
	}
	return geom.Box{}, false
}

func (a corridorArch) Create(req chain.Request, box geom.Box, r rng.Stream) piece.Behavior {
	k := &Corridor{base: base{MST: a.mst}}
	k.Rails = r.Intn(3) == 0
	k.Spider = !k.Rails && r.Intn(23) == 0
	if req.Facing.AlongZ() {
		k.Sections = box.SpanZ() / 5
	} else {
		k.Sections = box.SpanX() / 5
	}
	return k
}

// Corridor is a straight 3x3 tunnel of 5-block sections with timber supports.
type Corridor struct {
	base
	Rails    bool
	Spider   bool
	Spawned  bool
	Sections int
	// Carts has one bit per cart slot already looted.
	Carts uint64
}

func (k *Corridor) AddChildren(b *chain.Builder, p *piece.Piece, r rng.Stream) {
	box := p.Box
	depth := p.Depth + 1
	j := r.Intn(4)
	y := box.MinY - 1 + r.Intn(3)
	switch p.Facing {
	case geom.North:
		switch {
		case j <= 1:
			grow(b, p, box.MinX, y, box.MinZ-1, geom.North, depth)
		case j == 2:
			grow(b, p, box.MinX-1, y, box.MinZ, geom.West, depth)
		default:
			grow(b, p, box.MaxX+1, y, box.MinZ, geom.East, depth)
		}
	case geom.South:
		switch {
		case j <= 1:
			grow(b, p, box.MinX, y, box.MaxZ+1, geom.South, depth)
		case j == 2:
			grow(b, p, box.MinX-1, y, box.MaxZ-3, geom.West, depth)
		default:
			grow(b, p, box.MaxX+1, y, box.MaxZ-3, geom.East, depth)
		}
	case geom.West:
		switch {
		case j <= 1:
			grow(b, p, box.MinX-1, y, box.MinZ, geom.West, depth)
		case j == 2:
			grow(b, p, box.MinX, y, box.MinZ-1, geom.North, depth)
		default:
			grow(b, p, box.MinX, y, box.MaxZ+1, geom.South, depth)
		}
	case geom.East:
		switch {
		case j <= 1:
			grow(b, p, box.MaxX+1, y, box.MinZ, geom.East, depth)
		case j == 2:
			grow(b, p, box.MaxX-3, y, box.MinZ-1, geom.North, depth)
		default:
			grow(b, p, box.MaxX-3, y, box.MaxZ+1, geom.South, depth)
		}
	}

	if p.Depth >= b.MaxDepth() {
		return
	}
	// Side passages every section, one level further down the tree.
	if p.Facing.AlongZ() {
		for z := box.MinZ + 3; z+3 <= box.MaxZ; z += 5 {
			switch r.Intn(5) {
			case 0:
				grow(b, p, box.MinX-1, box.MinY, z, geom.West, depth+1)
			case 1:
				grow(b, p, box.MaxX+1, box.MinY, z, geom.East, depth+1)
			}
		}
		return
	}
	for x := box.MinX + 3; x+3 <= box.MaxX; x += 5 {
		switch r.Intn(5) {
		case 0:
			grow(b, p, x, box.MinY, box.MinZ-1, geom.North, depth+1)
		case 1:
			grow(b, p, x, box.MinY, box.MaxZ+1, geom.South, depth+1)
		}
	}
}

func (k *Corridor) Paint(w paint.World, p *piece.Piece, clip geom.Box, r rng.Stream, chunk geom.ChunkPos) {
	mat := materialOf(k.MST)
	c := p.Canvas(w, clip)
	m := k.Sections*5 - 1
	c.Solid(0, 0, 0, 2, 1, m, paint.Air)
	c.FillMaybe(r, 80, 0, 2, 0, 2, 2, m, paint.Air)
	if k.Spider {
		c.FillMaybe(r, 60, 0, 0, 0, 2, 1, m, paint.Cobweb)
	}
	for n := 0; n < k.Sections; n++ {
		o := 2 + n*5
		k.support(c, r, mat, o)
		for _, web := range [...]struct{ x, z, pct int }{
			{0, o - 1, 10}, {2, o - 1, 10}, {0, o + 1, 10}, {2, o + 1, 10},
			{0, o - 2, 5}, {2, o - 2, 5}, {0, o + 2, 5}, {2, o + 2, 5},
		} {
			if r.Intn(100) < web.pct && c.Get(web.x, 2, web.z) == paint.Air {
				c.Set(web.x, 2, web.z, paint.Cobweb)
			}
		}
		if r.Intn(100) == 0 {
			k.minecart(c, 2*n, 2, 0, o-1)
		}
		if r.Intn(100) == 0 {
			k.minecart(c, 2*n+1, 0, 0, o+1)
		}
		if k.Spider {
			q := o - 1 + r.Intn(3)
			c.Spawner(&k.Spawned, 1, 0, q, "cave_spider")
		}
	}
	for x := 0; x <= 2; x++ {
		for z := 0; z <= m; z++ {
			if !c.Get(x, -1, z).Solid() {
				c.Set(x, -1, z, mat.planks)
			}
		}
	}
	k.pillar(c, mat, 2)
	if k.Sections > 1 {
		k.pillar(c, mat, m-2)
	}
	if k.Rails {
		for z := 0; z <= m; z++ {
			if c.Get(1, -1, z).Solid() && r.Intn(100) < 70 {
				c.Set(1, 0, z, paint.Rail)
			}
		}
	}
}

// support frames one section: two fence posts and a plank beam, with an
// occasional torch. Draws are taken whether or not the roof can hold it.
func (k *Corridor) support(c *paint.Canvas, r rng.Stream, mat material, z int) {
	split := r.Intn(4) == 0
	torchA := r.Intn(100) < 5
	torchB := r.Intn(100) < 5
	for x := 0; x <= 2; x++ {
		if c.Get(x, 3, z) == paint.Air {
			return
		}
	}
	c.Solid(0, 0, z, 0, 1, z, mat.fence)
	c.Solid(2, 0, z, 2, 1, z, mat.fence)
	if split {
		c.Set(0, 2, z, mat.planks)
		c.Set(2, 2, z, mat.planks)
		return
	}
	c.Solid(0, 2, z, 2, 2, z, mat.planks)
	if torchA {
		c.Set(1, 2, z-1, paint.Torch)
	}
	if torchB {
		c.Set(1, 2, z+1, paint.Torch)
	}
}

// pillar props the floor at section z from below on both sides.
func (k *Corridor) pillar(c *paint.Canvas, mat material, z int) {
	for _, x := range [...]int{0, 2} {
		if c.Get(x, -1, z) == mat.planks {
			c.ColumnDown(x, -2, z, mat.wood)
		}
	}
}

// minecart drops a loot cart on a fresh rail. Carts are one-shot per slot,
// slot being 2*section plus side.
func (k *Corridor) minecart(c *paint.Canvas, slot, x, y, z int) {
	bit := uint64(1) << uint(slot)
	if k.Carts&bit != 0 {
		return
	}
	if c.Get(x, y, z) != paint.Air || c.Get(x, y-1, z) == paint.Air {
		return
	}
	done := false
	if c.Once(&done, x, y, z, paint.Rail, paint.Entity{Kind: paint.EntityLoot, Details: lootTable}) {
		k.Carts |= bit
	}
}

func (k *Corridor) SaveTag(t tag.Compound) {
	k.saveBase(t)
	t.PutBool("hr", k.Rails)
	t.PutBool("sc", k.Spider)
	t.PutBool("hps", k.Spawned)
	t.PutInt("Num", k.Sections)
	t.PutLong("Carts", int64(k.Carts))
}

func decodeCorridor(t tag.Compound) (piece.Behavior, error) {
	n, err := t.Int("Num")
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("Num=%d must be > 0", n)
	}
	return &Corridor{
		base:     loadBase(t),
		Rails:    t.BoolOr("hr", false),
		Spider:   t.BoolOr("sc", false),
		Spawned:  t.BoolOr("hps", false),
		Sections: n,
		Carts:    uint64(t.IntOr("Carts", 0)),
	}, nil
}

// ---- crossing ----

type crossingArch struct{ mst int }

func (crossingArch) Kind() piece.Kind { return KindCrossing }

func (crossingArch) CandidateBox(c *piece.Collection, req chain.Request, r rng.Stream) (geom.Box, bool) {
	h := 3
	if r.Intn(4) == 0 {
		h = 7
	}
	box := geom.Oriented(req.X, req.Y, req.Z, -1, 0, 0, 5, h, 5, req.Facing)
	if c.Collides(box) {
		return geom.Box{}, false
	}
	return box, true
}

func (a crossingArch) Create(req chain.Request, box geom.Box, r rng.Stream) piece.Behavior {
	return &Crossing{base: base{MST: a.mst}, Dir: req.Facing, TwoFloors: box.SpanY() > 3}
}

// Crossing is a junction opening on three sides, optionally with a second
// storey that has four more exits.
type Crossing struct {
	base
	Dir       geom.Facing
	TwoFloors bool
}

func (k *Crossing) AddChildren(b *chain.Builder, p *piece.Piece, r rng.Stream) {
	box := p.Box
	depth := p.Depth + 1
	north := func(y int) { grow(b, p, box.MinX+1, y, box.MinZ-1, geom.North, depth) }
	south := func(y int) { grow(b, p, box.MinX+1, y, box.MaxZ+1, geom.South, depth) }
	west := func(y int) { grow(b, p, box.MinX-1, y, box.MinZ+1, geom.West, depth) }
	east := func(y int) { grow(b, p, box.MaxX+1, y, box.MinZ+1, geom.East, depth) }

	y := box.MinY
	switch k.Dir {
	case geom.South:
		south(y)
		west(y)
		east(y)
	case geom.West:
		north(y)
		south(y)
		west(y)
	case geom.East:
		north(y)
		south(y)
		east(y)
	default:
		north(y)
		west(y)
		east(y)
	}
	if !k.TwoFloors {
		return
	}
	up := box.MinY + 4
	for _, exit := range [...]func(int){north, west, east, south} {
		if r.Bool() {
			exit(up)
		}
	}
}

func (k *Crossing) Paint(w paint.World, p *piece.Piece, clip geom.Box, r rng.Stream, chunk geom.ChunkPos) {
	mat := materialOf(k.MST)
	c := flat(w, p, clip)
	X, Y, Z := p.Box.SpanX()-1, p.Box.SpanY()-1, p.Box.SpanZ()-1
	if k.TwoFloors {
		c.Solid(1, 0, 0, X-1, 2, Z, paint.Air)
		c.Solid(0, 0, 1, X, 2, Z-1, paint.Air)
		c.Solid(1, Y-2, 0, X-1, Y, Z, paint.Air)
		c.Solid(0, Y-2, 1, X, Y, Z-1, paint.Air)
		c.Solid(1, 3, 1, X-1, 3, Z-1, paint.Air)
	} else {
		c.Solid(1, 0, 0, X-1, Y, Z, paint.Air)
		c.Solid(0, 0, 1, X, Y, Z-1, paint.Air)
	}
	for _, post := range [...][2]int{{1, 1}, {1, Z - 1}, {X - 1, 1}, {X - 1, Z - 1}} {
		if c.Get(post[0], Y+1, post[1]) != paint.Air {
			c.Solid(post[0], 0, post[1], post[0], Y, post[1], mat.planks)
		}
	}
	for x := 0; x <= X; x++ {
		for z := 0; z <= Z; z++ {
			if !c.Get(x, -1, z).Solid() {
				c.Set(x, -1, z, mat.planks)
			}
		}
	}
}

func (k *Crossing) SaveTag(t tag.Compound) {
	k.saveBase(t)
	t.PutBool("tf", k.TwoFloors)
	t.PutInt("D", int(k.Dir))
}

func decodeCrossing(t tag.Compound) (piece.Behavior, error) {
	d, err := t.Int("D")
	if err != nil {
		return nil, err
	}
	f := geom.Facing(d)
	if !f.Valid() || f == geom.None {
		return nil, fmt.Errorf("D=%d is not a horizontal facing", d)
	}
	return &Crossing{base: loadBase(t), Dir: f, TwoFloors: t.BoolOr("tf", false)}, nil
}

// ---- stairs ----

type stairsArch struct{ mst int }

func (stairsArch) Kind() piece.Kind { return KindStairs }

func (stairsArch) CandidateBox(c *piece.Collection, req chain.Request, r rng.Stream) (geom.Box, bool) {
	box := geom.Oriented(req.X, req.Y, req.Z, 0, -5, 0, 3, 8, 9, req.Facing)
	if c.Collides(box) {
		return geom.Box{}, false
	}
	return box, true
}

func (a stairsArch) Create(req chain.Request, box geom.Box, r rng.Stream) piece.Behavior {
	return &Stairs{base: base{MST: a.mst}}
}

// Stairs drops the tunnel five blocks over nine.
type Stairs struct {
	base
}

func (s *Stairs) AddChildren(b *chain.Builder, p *piece.Piece, r rng.Stream) {
	box := p.Box
	depth := p.Depth + 1
	switch p.Facing {
	case geom.North:
		grow(b, p, box.MinX, box.MinY, box.MinZ-1, geom.North, depth)
	case geom.South:
		grow(b, p, box.MinX, box.MinY, box.MaxZ+1, geom.South, depth)
	case geom.West:
		grow(b, p, box.MinX-1, box.MinY, box.MinZ, geom.West, depth)
	case geom.East:
		grow(b, p, box.MaxX+1, box.MinY, box.MinZ, geom.East, depth)
	}
}

func (s *Stairs) Paint(w paint.World, p *piece.Piece, clip geom.Box, r rng.Stream, chunk geom.ChunkPos) {
	c := p.Canvas(w, clip)
	c.Solid(0, 5, 0, 2, 7, 1, paint.Air)
	c.Solid(0, 0, 7, 2, 2, 8, paint.Air)
	for i := 0; i < 5; i++ {
		lo := 5 - i
		if i < 4 {
			lo--
		}
		c.Solid(0, lo, 2+i, 2, 7-i, 2+i, paint.Air)
	}
}

func (s *Stairs) SaveTag(t tag.Compound) { s.saveBase(t) }

func decodeStairs(t tag.Compound) (piece.Behavior, error) {
	return &Stairs{base: loadBase(t)}, nil
}
