package mansion

import (
	"fmt"

	"voxelstruct.ai/internal/persistence/tag"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/grid"
	"voxelstruct.ai/internal/sim/paint"
	"voxelstruct.ai/internal/sim/piece"
	"voxelstruct.ai/internal/sim/rng"
)

const (
	illager = "vindicator"
	loot    = "woodland_mansion"
)

var sides = [4]grid.Dir{grid.North, grid.South, grid.West, grid.East}

// Cell is one footprint cell of a room, relative to the room origin. Open
// marks pruned-open links to neighbouring cells; Out marks sides that face
// out of the house on this storey.
type Cell struct {
	DX, DZ int
	Open   [6]bool
	Out    [6]bool
}

func cellsOf(cells *grid.CellGrid, grp grid.Group) []Cell {
	o := grp.Cells[0]
	out := make([]Cell, len(grp.Cells))
	for i, s := range grp.Cells {
		out[i] = Cell{DX: s.X - o.X, DZ: s.Z - o.Z, Open: s.Open, Out: outside(cells, s)}
	}
	return out
}

// outside marks the horizontal sides of s whose neighbour is not house.
func outside(cells *grid.CellGrid, s *grid.Slot) [6]bool {
	var out [6]bool
	for _, d := range sides {
		dx, _, dz := d.Step()
		out[d] = !grid.IsHouse(cells.Get(s.X+dx, s.Z+dz))
	}
	return out
}

func mask(b [6]bool) int {
	m := 0
	for d, v := range b {
		if v {
			m |= 1 << d
		}
	}
	return m
}

func unmask(m int) [6]bool {
	var b [6]bool
	for d := range b {
		b[d] = m&(1<<d) != 0
	}
	return b
}

func saveCells(t tag.Compound, key string, cells []Cell) {
	rows := make([][]int, len(cells))
	for i, c := range cells {
		rows[i] = []int{c.DX, c.DZ, mask(c.Open), mask(c.Out)}
	}
	t.PutIntLists(key, rows)
}

func loadCells(t tag.Compound, key string) ([]Cell, error) {
	rows, err := t.IntLists(key)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no cells", key)
	}
	out := make([]Cell, len(rows))
	for i, r := range rows {
		if len(r) != 4 {
			return nil, fmt.Errorf("%s: cell row has %d values", key, len(r))
		}
		out[i] = Cell{DX: r[0], DZ: r[1], Open: unmask(r[2]), Out: unmask(r[3])}
	}
	return out, nil
}

// extent is the local width and depth in blocks covered by cells.
func extent(cells []Cell) (xw, zd int) {
	for _, c := range cells {
		xw, zd = max(xw, c.DX+1), max(zd, c.DZ+1)
	}
	return xw * cellW, zd * cellW
}

func has(cells []Cell, dx, dz int) bool {
	for _, c := range cells {
		if c.DX == dx && c.DZ == dz {
			return true
		}
	}
	return false
}

// wallSpan is the two middle blocks of the wall on side d of c.
func wallSpan(c Cell, d grid.Dir) (x0, z0, x1, z1 int) {
	ox, oz := c.DX*cellW, c.DZ*cellW
	switch d {
	case grid.North:
		return ox + 3, oz + cellW - 1, ox + 4, oz + cellW - 1
	case grid.South:
		return ox + 3, oz, ox + 4, oz
	case grid.West:
		return ox, oz + 3, ox, oz + 4
	default:
		return ox + cellW - 1, oz + 3, ox + cellW - 1, oz + 4
	}
}

// shell paints the walls, floor and ceiling of a local box.
func shell(c *paint.Canvas, xw, h, zd int, floor paint.Block) {
	c.Fill(0, 0, 0, xw-1, h-1, zd-1, paint.BirchPlanks, paint.Air)
	c.Solid(0, 0, 0, xw-1, 0, zd-1, floor)
	c.Solid(0, h-1, 0, xw-1, h-1, zd-1, paint.DarkOakPlanks)
	for _, x := range [2]int{0, xw - 1} {
		for _, z := range [2]int{0, zd - 1} {
			c.Solid(x, 1, z, x, h-2, z, paint.DarkOakLog)
		}
	}
}

// openings cuts doors through open perimeter walls and windows through
// outer ones, on a storey whose floor is at local y0.
func openings(c *paint.Canvas, cells []Cell, y0 int) {
	for _, cl := range cells {
		for _, d := range sides {
			dx, _, dz := d.Step()
			if has(cells, cl.DX+dx, cl.DZ+dz) {
				continue
			}
			x0, z0, x1, z1 := wallSpan(cl, d)
			switch {
			case cl.Out[d]:
				c.Solid(x0, y0+2, z0, x1, y0+4, z1, paint.Glass)
			case cl.Open[d]:
				c.Solid(x0, y0+1, z0, x1, y0+3, z1, paint.Air)
			}
		}
	}
}

func floorBlock(floor int) paint.Block {
	if floor == 0 {
		return paint.Cobblestone
	}
	return paint.DarkOakPlanks
}

// Room is the entrance hall or a 1x1, 1x2 or 2x2 room. Paint dispatches on
// the piece kind. Chest and Mob are one-shot.
type Room struct {
	Floor int
	Style int
	Cells []Cell
	Chest bool
	Mob   bool
}

func (m *Room) SaveTag(t tag.Compound) {
	t.PutInt("Floor", m.Floor)
	t.PutInt("Style", m.Style)
	saveCells(t, "Cells", m.Cells)
	t.PutBool("Chest", m.Chest)
	t.PutBool("Mob", m.Mob)
}

func decodeRoom(t tag.Compound) (piece.Behavior, error) {
	cells, err := loadCells(t, "Cells")
	if err != nil {
		return nil, err
	}
	return &Room{
		Floor: t.IntOr("Floor", 0),
		Style: t.IntOr("Style", 0),
		Cells: cells,
		Chest: t.BoolOr("Chest", false),
		Mob:   t.BoolOr("Mob", false),
	}, nil
}

func (m *Room) Paint(w paint.World, p *piece.Piece, clip geom.Box, _ rng.Stream, _ geom.ChunkPos) {
	c := p.Canvas(w, clip)
	xw, zd := extent(m.Cells)
	h := p.Box.SpanY()
	shell(c, xw, h, zd, floorBlock(m.Floor))
	openings(c, m.Cells, 0)

	if p.Kind == KindEntrance {
		drawEntrance(c, m.Cells, xw, h, zd)
		return
	}
	switch m.Style {
	case 0:
		c.Solid(2, 1, 2, xw-3, 1, zd-3, paint.Carpet)
	case 1:
		for _, x := range [2]int{1, xw - 2} {
			for _, z := range [2]int{1, zd - 2} {
				c.Solid(x, 1, z, x, 2, z, paint.Bookshelf)
			}
		}
	}
	switch p.Kind {
	case KindRoom2x2:
		c.Solid(xw/2-1, 1, zd/2-1, xw/2, 1, zd/2, paint.Carpet)
		c.Mob(&m.Mob, xw/2, 1, zd/2, illager)
	default:
		// A placed chest survives repaints of the room.
		if !c.Chest(&m.Chest, 2, 1, 1, loot) && m.Chest {
			c.Set(2, 1, 1, paint.Chest)
		}
	}
}

// drawEntrance paints the two-storey hall: a gallery floor, four log columns
// and the front door on the side facing away from the house.
func drawEntrance(c *paint.Canvas, cells []Cell, xw, h, zd int) {
	openings(c, cells, floorH)
	c.Solid(1, floorH, 1, xw-2, floorH, zd-2, paint.DarkOakPlanks)
	c.Solid(5, floorH, 5, xw-6, floorH, zd-6, paint.Air)
	for _, x := range [2]int{4, xw - 5} {
		for _, z := range [2]int{4, zd - 5} {
			c.Solid(x, 1, z, x, h-2, z, paint.DarkOakLog)
		}
	}
	c.Solid(1, 1, zd/2-1, xw-2, 1, zd/2, paint.Carpet)
	c.Solid(xw-1, 1, zd/2-1, xw-1, 4, zd/2, paint.Air)
	c.Solid(xw-1, 1, zd/2-1, xw-1, 1, zd/2, paint.Door)
}

// Corridor is one corridor cell. Walls marks the sides that face out of the
// house.
type Corridor struct {
	Floor int
	Walls [6]bool
}

func (k *Corridor) SaveTag(t tag.Compound) {
	t.PutInt("Floor", k.Floor)
	t.PutInt("Walls", mask(k.Walls))
}

func decodeCorridor(t tag.Compound) (piece.Behavior, error) {
	walls, err := t.Int("Walls")
	if err != nil {
		return nil, fmt.Errorf("corridor: %w", err)
	}
	return &Corridor{Floor: t.IntOr("Floor", 0), Walls: unmask(walls)}, nil
}

func (k *Corridor) Paint(w paint.World, p *piece.Piece, clip geom.Box, _ rng.Stream, _ geom.ChunkPos) {
	c := p.Canvas(w, clip)
	c.Solid(0, 0, 0, cellW-1, 0, cellW-1, floorBlock(k.Floor))
	c.Solid(0, 1, 0, cellW-1, floorH-2, cellW-1, paint.Air)
	c.Solid(0, floorH-1, 0, cellW-1, floorH-1, cellW-1, paint.DarkOakPlanks)
	c.Solid(3, 1, 3, 4, 1, 4, paint.Carpet)
	cell := Cell{}
	for _, d := range sides {
		if !k.Walls[d] {
			continue
		}
		dx, _, dz := d.Step()
		// The wall runs along the cell edge on side d.
		x0, z0, x1, z1 := 0, 0, cellW-1, cellW-1
		switch {
		case dx > 0:
			x0 = cellW - 1
		case dx < 0:
			x1 = 0
		case dz > 0:
			z0 = cellW - 1
		default:
			z1 = 0
		}
		c.Solid(x0, 1, z0, x1, floorH-2, z1, paint.BirchPlanks)
		wx0, wz0, wx1, wz1 := wallSpan(cell, d)
		c.Solid(wx0, 2, wz0, wx1, 4, wz1, paint.Glass)
	}
}

// Stairwell is the first-floor 1x2 room that climbs through the roof slab to
// the top floor. Cells are its first-floor openings and Top its top-floor
// ones.
type Stairwell struct {
	Room
	Top []Cell
}

func (s *Stairwell) SaveTag(t tag.Compound) {
	s.Room.SaveTag(t)
	saveCells(t, "Top", s.Top)
}

func decodeStairwell(t tag.Compound) (piece.Behavior, error) {
	b, err := decodeRoom(t)
	if err != nil {
		return nil, err
	}
	top, err := loadCells(t, "Top")
	if err != nil {
		return nil, fmt.Errorf("stairwell: %w", err)
	}
	return &Stairwell{Room: *b.(*Room), Top: top}, nil
}

func (s *Stairwell) Paint(w paint.World, p *piece.Piece, clip geom.Box, _ rng.Stream, _ geom.ChunkPos) {
	c := p.Canvas(w, clip)
	xw, zd := extent(s.Cells)
	h := p.Box.SpanY()
	landing := topY - firstY
	shell(c, xw, h, zd, floorBlock(s.Floor))
	c.Solid(1, landing, 1, xw-2, landing, zd-2, paint.DarkOakPlanks)
	openings(c, s.Cells, 0)
	openings(c, s.Top, landing)
	for y := 1; y <= landing; y++ {
		c.Set(1, y, 1, paint.Ladder)
	}
}
