package monument

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
	gray  = paint.Prismarine
	light = paint.PrismarineBricks
	black = paint.DarkPrismarine
	lamp  = paint.SeaLantern
)

// Cell is one lattice cell of a room, stored relative to the room origin.
type Cell struct {
	DX, DY, DZ int
	Floor      int
	Open       [6]bool
	// Roofed is set when the lattice continues above the cell.
	Roofed bool
}

func cellsOf(origin *grid.Slot, cells ...*grid.Slot) []Cell {
	out := make([]Cell, len(cells))
	for i, s := range cells {
		out[i] = Cell{
			DX: s.X - origin.X, DY: s.Y - origin.Y, DZ: s.Z - origin.Z,
			Floor:  s.Y,
			Open:   s.Open,
			Roofed: s.Next[grid.Up] != nil,
		}
	}
	return out
}

func (c Cell) row() []int {
	mask := 0
	for d, o := range c.Open {
		if o {
			mask |= 1 << d
		}
	}
	roof := 0
	if c.Roofed {
		roof = 1
	}
	return []int{c.DX, c.DY, c.DZ, c.Floor, mask, roof}
}

func cellFromRow(r []int) (Cell, error) {
	if len(r) != 6 {
		return Cell{}, fmt.Errorf("cell row has %d values", len(r))
	}
	c := Cell{DX: r[0], DY: r[1], DZ: r[2], Floor: r[3], Roofed: r[5] != 0}
	for d := range c.Open {
		c.Open[d] = r[4]&(1<<d) != 0
	}
	return c, nil
}

func (c Cell) openings() int {
	n := 0
	for _, o := range c.Open {
		if o {
			n++
		}
	}
	return n
}

// Room is a lattice room; Paint dispatches on the piece kind.
type Room struct {
	Cells []Cell
}

// at returns the cell at the given offset, or a closed cell.
func (m *Room) at(dx, dy, dz int) Cell {
	for _, c := range m.Cells {
		if c.DX == dx && c.DY == dy && c.DZ == dz {
			return c
		}
	}
	return Cell{DX: dx, DY: dy, DZ: dz}
}

func (m *Room) SaveTag(t tag.Compound) {
	rows := make([][]int, len(m.Cells))
	for i, c := range m.Cells {
		rows[i] = c.row()
	}
	t.PutIntLists("Cells", rows)
}

func loadCells(t tag.Compound) ([]Cell, error) {
	rows, err := t.IntLists("Cells")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("room has no cells")
	}
	cells := make([]Cell, len(rows))
	for i, r := range rows {
		if cells[i], err = cellFromRow(r); err != nil {
			return nil, err
		}
	}
	return cells, nil
}

func decodeRoom(t tag.Compound) (piece.Behavior, error) {
	cells, err := loadCells(t)
	if err != nil {
		return nil, err
	}
	return &Room{Cells: cells}, nil
}

func (m *Room) Paint(w paint.World, p *piece.Piece, clip geom.Box, _ rng.Stream, _ geom.ChunkPos) {
	c := p.Canvas(w, clip)
	switch p.Kind {
	case KindEntry:
		m.drawEntry(c)
	case KindCore:
		drawCore(c)
	case KindDoubleX:
		m.drawDoubleX(c)
	case KindDoubleY:
		m.drawDoubleY(c)
	case KindDoubleZ:
		m.drawDoubleZ(c)
	case KindDoubleXY:
		m.drawDoubleXY(c)
	case KindDoubleYZ:
		m.drawDoubleYZ(c)
	}
}

// floor lays the 8x8 floor of the cell at (x,z), leaving a lit 2x2 hole when
// the cell opens downward.
func floor(c *paint.Canvas, x, z int, hole bool) {
	if !hole {
		c.Solid(x, 0, z, x+7, 0, z+7, gray)
		return
	}
	c.Solid(x, 0, z, x+2, 0, z+7, gray)
	c.Solid(x+5, 0, z, x+7, 0, z+7, gray)
	c.Solid(x+3, 0, z, x+4, 0, z+2, gray)
	c.Solid(x+3, 0, z+5, x+4, 0, z+7, gray)
	c.Solid(x+3, 0, z+2, x+4, 0, z+2, light)
	c.Solid(x+3, 0, z+5, x+4, 0, z+5, light)
	c.Solid(x+2, 0, z+3, x+2, 0, z+4, light)
	c.Solid(x+5, 0, z+3, x+5, 0, z+4, light)
}

// ceiling closes the flooded part of a layer with gray.
func ceiling(c *paint.Canvas, x1, y, z1, x2, z2 int) {
	c.Replace(x1, y, z1, x2, y, z2, paint.Water, gray)
}

func door(c *paint.Canvas, x1, y1, z1, x2, y2, z2 int) {
	c.Solid(x1, y1, z1, x2, y2, z2, paint.Water)
}

// floorAndCeiling handles one lattice column of a room: the floor of the
// cell at (dx,0,dz) and the ceiling over the top cell at (dx,top,dz).
func (m *Room) floorAndCeiling(c *paint.Canvas, dx, dz, top int) {
	base := m.at(dx, 0, dz)
	if base.Floor > 0 {
		floor(c, dx*cellW, dz*cellW, base.Open[grid.Down])
	}
	if !m.at(dx, top, dz).Roofed {
		y := (top + 1) * cellH
		c.Replace(dx*cellW+1, y, dz*cellW+1, dx*cellW+6, y, dz*cellW+6, paint.Water, gray)
	}
}

func (m *Room) drawEntry(c *paint.Canvas) {
	s := m.at(0, 0, 0)
	c.Solid(0, 3, 0, 2, 3, 7, light)
	c.Solid(5, 3, 0, 7, 3, 7, light)
	c.Solid(0, 2, 0, 1, 2, 7, light)
	c.Solid(6, 2, 0, 7, 2, 7, light)
	c.Solid(0, 1, 0, 0, 1, 7, light)
	c.Solid(7, 1, 0, 7, 1, 7, light)
	c.Solid(0, 1, 7, 7, 3, 7, light)
	c.Solid(1, 1, 0, 2, 3, 0, light)
	c.Solid(5, 1, 0, 6, 3, 0, light)
	if s.Open[grid.North] {
		door(c, 3, 1, 7, 4, 2, 7)
	}
	if s.Open[grid.West] {
		door(c, 0, 1, 3, 1, 2, 4)
	}
	if s.Open[grid.East] {
		door(c, 6, 1, 3, 7, 2, 4)
	}
}

func drawCore(c *paint.Canvas) {
	ceiling(c, 1, 8, 0, 14, 14)
	c.Solid(0, 7, 0, 0, 7, 15, light)
	c.Solid(15, 7, 0, 15, 7, 15, light)
	c.Solid(1, 7, 0, 15, 7, 0, light)
	c.Solid(1, 7, 15, 14, 7, 15, light)
	for j := 1; j <= 6; j++ {
		b := light
		if j == 2 || j == 6 {
			b = gray
		}
		for k := 0; k <= 15; k += 15 {
			c.Solid(k, j, 0, k, j, 1, b)
			c.Solid(k, j, 6, k, j, 9, b)
			c.Solid(k, j, 14, k, j, 15, b)
		}
		c.Solid(1, j, 0, 1, j, 0, b)
		c.Solid(6, j, 0, 9, j, 0, b)
		c.Solid(14, j, 0, 14, j, 0, b)
		c.Solid(1, j, 15, 14, j, 15, b)
	}
	c.Solid(6, 3, 6, 9, 6, 9, black)
	c.Solid(7, 4, 7, 8, 5, 8, paint.GoldBlock)
	for y := 3; y <= 6; y += 3 {
		for x := 6; x <= 9; x += 3 {
			c.Set(x, y, 6, lamp)
			c.Set(x, y, 9, lamp)
		}
	}
	for _, b := range [][6]int{
		{5, 1, 6, 5, 2, 6}, {5, 1, 9, 5, 2, 9}, {10, 1, 6, 10, 2, 6}, {10, 1, 9, 10, 2, 9},
		{6, 1, 5, 6, 2, 5}, {9, 1, 5, 9, 2, 5}, {6, 1, 10, 6, 2, 10}, {9, 1, 10, 9, 2, 10},
		{5, 2, 5, 5, 6, 5}, {5, 2, 10, 5, 6, 10}, {10, 2, 5, 10, 6, 5}, {10, 2, 10, 10, 6, 10},
		{5, 7, 1, 5, 7, 6}, {10, 7, 1, 10, 7, 6}, {5, 7, 9, 5, 7, 14}, {10, 7, 9, 10, 7, 14},
		{1, 7, 5, 6, 7, 5}, {1, 7, 10, 6, 7, 10}, {9, 7, 5, 14, 7, 5}, {9, 7, 10, 14, 7, 10},
		{2, 1, 2, 2, 1, 3}, {3, 1, 2, 3, 1, 2}, {13, 1, 2, 13, 1, 3}, {12, 1, 2, 12, 1, 2},
		{2, 1, 12, 2, 1, 13}, {3, 1, 13, 3, 1, 13}, {13, 1, 12, 13, 1, 13}, {12, 1, 13, 12, 1, 13},
	} {
		c.Solid(b[0], b[1], b[2], b[3], b[4], b[5], light)
	}
}

// stripes draws the three banded wall rings of a one-cell-high room.
func stripes(c *paint.Canvas, maxX, maxZ int) {
	for i, b := range []paint.Block{light, gray, light} {
		y := i + 1
		c.Solid(0, y, 0, 0, y, maxZ, b)
		c.Solid(maxX, y, 0, maxX, y, maxZ, b)
		c.Solid(1, y, 0, maxX, y, 0, b)
		c.Solid(1, y, maxZ, maxX-1, y, maxZ, b)
	}
}

// tallStripes draws the wall rings of a two-cell-high room.
func tallStripes(c *paint.Canvas, maxX, maxZ int) {
	for y := 1; y <= 7; y++ {
		b := light
		if y == 2 || y == 6 {
			b = gray
		}
		c.Solid(0, y, 0, 0, y, maxZ, b)
		c.Solid(maxX, y, 0, maxX, y, maxZ, b)
		c.Solid(1, y, 0, maxX, y, 0, b)
		c.Solid(1, y, maxZ, maxX-1, y, maxZ, b)
	}
}

// doors cuts the water doorways of the cell at (dx,dy,dz) in the room's
// outer walls. maxX and maxZ are the room's far wall coordinates.
func (m *Room) doors(c *paint.Canvas, dx, dy, dz, maxX, maxZ int) {
	s := m.at(dx, dy, dz)
	x, y, z := dx*cellW, dy*cellH+1, dz*cellW
	if s.Open[grid.South] && z == 0 {
		door(c, x+3, y, 0, x+4, y+1, 0)
	}
	if s.Open[grid.North] && z+7 == maxZ {
		door(c, x+3, y, maxZ, x+4, y+1, maxZ)
	}
	if s.Open[grid.West] && x == 0 {
		door(c, 0, y, z+3, 0, y+1, z+4)
	}
	if s.Open[grid.East] && x+7 == maxX {
		door(c, maxX, y, z+3, maxX, y+1, z+4)
	}
}

func (m *Room) drawDoubleX(c *paint.Canvas) {
	m.floorAndCeiling(c, 0, 0, 0)
	m.floorAndCeiling(c, 1, 0, 0)
	stripes(c, 15, 7)
	c.Solid(5, 1, 0, 10, 1, 4, light)
	c.Solid(6, 2, 0, 9, 2, 3, gray)
	c.Solid(5, 3, 0, 10, 3, 4, light)
	c.Set(6, 2, 3, lamp)
	c.Set(9, 2, 3, lamp)
	m.doors(c, 0, 0, 0, 15, 7)
	m.doors(c, 1, 0, 0, 15, 7)
}

func (m *Room) drawDoubleZ(c *paint.Canvas) {
	m.floorAndCeiling(c, 0, 0, 0)
	m.floorAndCeiling(c, 0, 1, 0)
	stripes(c, 7, 15)
	for _, b := range [][6]int{
		{1, 1, 1, 1, 1, 2}, {6, 1, 1, 6, 1, 2}, {1, 3, 1, 1, 3, 2}, {6, 3, 1, 6, 3, 2},
		{1, 1, 13, 1, 1, 14}, {6, 1, 13, 6, 1, 14}, {1, 3, 13, 1, 3, 14}, {6, 3, 13, 6, 3, 14},
		{2, 1, 6, 2, 3, 6}, {5, 1, 6, 5, 3, 6}, {2, 1, 9, 2, 3, 9}, {5, 1, 9, 5, 3, 9},
		{3, 2, 6, 4, 2, 6}, {3, 2, 9, 4, 2, 9}, {2, 2, 7, 2, 2, 8}, {5, 2, 7, 5, 2, 8},
	} {
		c.Solid(b[0], b[1], b[2], b[3], b[4], b[5], light)
	}
	for _, z := range []int{5, 10} {
		c.Set(2, 2, z, lamp)
		c.Set(5, 2, z, lamp)
		c.Set(2, 3, z, light)
		c.Set(5, 3, z, light)
	}
	m.doors(c, 0, 0, 0, 7, 15)
	m.doors(c, 0, 0, 1, 7, 15)
}

func (m *Room) drawDoubleY(c *paint.Canvas) {
	m.floorAndCeiling(c, 0, 0, 1)
	c.Solid(0, 4, 0, 0, 4, 7, light)
	c.Solid(7, 4, 0, 7, 4, 7, light)
	c.Solid(1, 4, 0, 6, 4, 0, light)
	c.Solid(1, 4, 7, 6, 4, 7, light)
	for _, b := range [][6]int{
		{2, 4, 1, 2, 4, 2}, {1, 4, 2, 1, 4, 2}, {5, 4, 1, 5, 4, 2}, {6, 4, 2, 6, 4, 2},
		{2, 4, 5, 2, 4, 6}, {1, 4, 5, 1, 4, 5}, {5, 4, 5, 5, 4, 6}, {6, 4, 5, 6, 4, 5},
	} {
		c.Solid(b[0], b[1], b[2], b[3], b[4], b[5], light)
	}
	for dy, y := 0, 1; y <= 5; dy, y = dy+1, y+4 {
		s := m.at(0, dy, 0)
		wall := func(open bool, x1, z1, x2, z2 int) {
			if !open {
				c.Solid(x1, y, z1, x2, y+2, z2, light)
				c.Solid(x1, y+1, z1, x2, y+1, z2, gray)
				return
			}
			if z1 == z2 {
				c.Solid(2, y, z1, 2, y+2, z1, light)
				c.Solid(5, y, z1, 5, y+2, z1, light)
				c.Solid(3, y+2, z1, 4, y+2, z1, light)
				return
			}
			c.Solid(x1, y, 2, x1, y+2, 2, light)
			c.Solid(x1, y, 5, x1, y+2, 5, light)
			c.Solid(x1, y+2, 3, x1, y+2, 4, light)
		}
		wall(s.Open[grid.South], 0, 0, 7, 0)
		wall(s.Open[grid.North], 0, 7, 7, 7)
		wall(s.Open[grid.West], 0, 0, 0, 7)
		wall(s.Open[grid.East], 7, 0, 7, 7)
	}
}

func (m *Room) drawDoubleXY(c *paint.Canvas) {
	m.floorAndCeiling(c, 0, 0, 1)
	m.floorAndCeiling(c, 1, 0, 1)
	tallStripes(c, 15, 7)
	for _, b := range [][6]int{
		{2, 1, 3, 2, 7, 4}, {3, 1, 2, 4, 7, 2}, {3, 1, 5, 4, 7, 5},
		{13, 1, 3, 13, 7, 4}, {11, 1, 2, 12, 7, 2}, {11, 1, 5, 12, 7, 5},
		{5, 1, 3, 5, 3, 4}, {10, 1, 3, 10, 3, 4}, {5, 7, 2, 10, 7, 5},
		{5, 5, 2, 5, 7, 2}, {10, 5, 2, 10, 7, 2}, {5, 5, 5, 5, 7, 5}, {10, 5, 5, 10, 7, 5},
		{5, 4, 3, 6, 4, 4}, {9, 4, 3, 10, 4, 4},
	} {
		c.Solid(b[0], b[1], b[2], b[3], b[4], b[5], light)
	}
	for _, x := range []int{6, 9} {
		c.Set(x, 6, 2, light)
		c.Set(x, 6, 5, light)
	}
	for _, x := range []int{5, 10} {
		c.Set(x, 4, 2, lamp)
		c.Set(x, 4, 5, lamp)
	}
	for dy := 0; dy <= 1; dy++ {
		m.doors(c, 0, dy, 0, 15, 7)
		m.doors(c, 1, dy, 0, 15, 7)
	}
}

func (m *Room) drawDoubleYZ(c *paint.Canvas) {
	m.floorAndCeiling(c, 0, 0, 1)
	m.floorAndCeiling(c, 0, 1, 1)
	tallStripes(c, 7, 15)
	for y := 1; y <= 7; y++ {
		b := black
		if y == 2 || y == 6 {
			b = lamp
		}
		c.Solid(3, y, 7, 4, y, 8, b)
	}
	for dz := 0; dz <= 1; dz++ {
		m.doors(c, 0, 0, dz, 7, 15)
		m.doors(c, 0, 1, dz, 7, 15)
	}
	// Side openings on the upper floor get a landing below them.
	for dz := 0; dz <= 1; dz++ {
		s := m.at(0, 1, dz)
		z := dz * cellW
		if s.Open[grid.West] {
			c.Solid(1, 4, z+2, 2, 4, z+5, light)
			c.Solid(1, 1, z+2, 1, 3, z+2, light)
			c.Solid(1, 1, z+5, 1, 3, z+5, light)
		}
		if s.Open[grid.East] {
			c.Solid(5, 4, z+2, 6, 4, z+5, light)
			c.Solid(6, 1, z+2, 6, 3, z+2, light)
			c.Solid(6, 1, z+5, 6, 3, z+5, light)
		}
	}
}

// SimpleRoom is a one-cell room in one of three designs. Pillar adds a
// central column and is decided at layout.
type SimpleRoom struct {
	Room
	Design int
	Pillar bool
}

func newSimpleRoom(r rng.Stream, cells []Cell) *SimpleRoom {
	s := cells[0]
	k := &SimpleRoom{Room: Room{Cells: cells}, Design: r.Intn(3)}
	k.Pillar = k.Design != 0 && r.Bool() && !s.Open[grid.Down] && !s.Open[grid.Up] && s.openings() > 1
	return k
}

func (k *SimpleRoom) SaveTag(t tag.Compound) {
	k.Room.SaveTag(t)
	t.PutInt("Design", k.Design)
	t.PutBool("Pillar", k.Pillar)
}

func decodeSimpleRoom(t tag.Compound) (piece.Behavior, error) {
	cells, err := loadCells(t)
	if err != nil {
		return nil, err
	}
	d := t.IntOr("Design", 0)
	if d < 0 || d > 2 {
		return nil, fmt.Errorf("Design=%d out of range", d)
	}
	return &SimpleRoom{Room: Room{Cells: cells}, Design: d, Pillar: t.BoolOr("Pillar", false)}, nil
}

func (k *SimpleRoom) Paint(w paint.World, p *piece.Piece, clip geom.Box, _ rng.Stream, _ geom.ChunkPos) {
	c := p.Canvas(w, clip)
	s := k.at(0, 0, 0)
	k.floorAndCeiling(c, 0, 0, 0)
	switch k.Design {
	case 0:
		for _, corner := range [][2]int{{0, 0}, {5, 0}, {0, 5}, {5, 5}} {
			x, z := corner[0], corner[1]
			c.Solid(x, 1, z, x+2, 1, z+2, light)
			c.Solid(x, 3, z, x+2, 3, z+2, light)
			wx, fz := x, z
			if x == 5 {
				wx = 7
			}
			if z == 5 {
				fz = 7
			}
			fx := x + 1
			if x == 5 {
				fx = 5
			}
			c.Solid(wx, 2, z, wx, 2, z+2, gray)
			c.Solid(fx, 2, fz, fx+1, 2, fz, gray)
			c.Set(x+1, 2, z+1, lamp)
		}
		pier := func(open bool, x1, z1, x2, z2, ix1, iz1, ix2, iz2 int) {
			if open {
				c.Solid(x1, 3, z1, x2, 3, z2, light)
				return
			}
			c.Solid(ix1, 3, iz1, ix2, 3, iz2, light)
			c.Solid(x1, 2, z1, x2, 2, z2, gray)
			c.Solid(ix1, 1, iz1, ix2, 1, iz2, light)
		}
		pier(s.Open[grid.South], 3, 0, 4, 0, 3, 0, 4, 1)
		pier(s.Open[grid.North], 3, 7, 4, 7, 3, 6, 4, 7)
		pier(s.Open[grid.West], 0, 3, 0, 4, 0, 3, 1, 4)
		pier(s.Open[grid.East], 7, 3, 7, 4, 6, 3, 7, 4)
	case 1:
		for _, xz := range [][2]int{{2, 2}, {2, 5}, {5, 5}, {5, 2}} {
			c.Solid(xz[0], 1, xz[1], xz[0], 3, xz[1], light)
			c.Set(xz[0], 2, xz[1], lamp)
		}
		for _, b := range [][6]int{
			{0, 1, 0, 1, 3, 0}, {0, 1, 1, 0, 3, 1}, {0, 1, 7, 1, 3, 7}, {0, 1, 6, 0, 3, 6},
			{6, 1, 7, 7, 3, 7}, {7, 1, 6, 7, 3, 6}, {6, 1, 0, 7, 3, 0}, {7, 1, 1, 7, 3, 1},
		} {
			c.Solid(b[0], b[1], b[2], b[3], b[4], b[5], light)
		}
		for _, xz := range [][2]int{{1, 0}, {0, 1}, {1, 7}, {0, 6}, {6, 7}, {7, 6}, {6, 0}, {7, 1}} {
			c.Set(xz[0], 2, xz[1], gray)
		}
		wall := func(open bool, x1, z1, x2, z2 int) {
			if open {
				return
			}
			c.Solid(x1, 3, z1, x2, 3, z2, light)
			c.Solid(x1, 2, z1, x2, 2, z2, gray)
			c.Solid(x1, 1, z1, x2, 1, z2, light)
		}
		wall(s.Open[grid.South], 1, 0, 6, 0)
		wall(s.Open[grid.North], 1, 7, 6, 7)
		wall(s.Open[grid.West], 0, 1, 0, 6)
		wall(s.Open[grid.East], 7, 1, 7, 6)
	default:
		darkBand(c)
		k.doors(c, 0, 0, 0, 7, 7)
	}
	if k.Pillar {
		c.Solid(3, 1, 3, 4, 1, 4, light)
		c.Solid(3, 2, 3, 4, 2, 4, gray)
		c.Solid(3, 3, 3, 4, 3, 4, light)
	}
}

// darkBand is the shared wall of the third simple design and the top room.
func darkBand(c *paint.Canvas) {
	for i, b := range []paint.Block{light, black, light} {
		y := i + 1
		c.Solid(0, y, 0, 0, y, 7, b)
		c.Solid(7, y, 0, 7, y, 7, b)
		c.Solid(1, y, 0, 6, y, 0, b)
		c.Solid(1, y, 7, 6, y, 7, b)
	}
	c.Solid(0, 1, 3, 0, 2, 4, black)
	c.Solid(7, 1, 3, 7, 2, 4, black)
	c.Solid(3, 1, 0, 4, 2, 0, black)
	c.Solid(3, 1, 7, 4, 2, 7, black)
}

// TopRoom is a dead-end cell closed on every side but its entrance. Its
// sponge columns come from Seed so every chunk paints the same ones.
type TopRoom struct {
	Room
	Seed int64
}

func (k *TopRoom) SaveTag(t tag.Compound) {
	k.Room.SaveTag(t)
	t.PutLong("Seed", k.Seed)
}

func decodeTopRoom(t tag.Compound) (piece.Behavior, error) {
	cells, err := loadCells(t)
	if err != nil {
		return nil, err
	}
	seed, err := t.Long("Seed")
	if err != nil {
		return nil, err
	}
	return &TopRoom{Room: Room{Cells: cells}, Seed: seed}, nil
}

func (k *TopRoom) Paint(w paint.World, p *piece.Piece, clip geom.Box, _ rng.Stream, _ geom.ChunkPos) {
	c := p.Canvas(w, clip)
	k.floorAndCeiling(c, 0, 0, 0)
	r := rng.New(uint64(k.Seed))
	for x := 1; x <= 6; x++ {
		for z := 1; z <= 6; z++ {
			if r.Intn(3) == 0 {
				continue
			}
			y := 3
			if r.Intn(4) == 0 {
				y = 2
			}
			c.Solid(x, y, z, x, 3, z, paint.Sponge)
		}
	}
	darkBand(c)
	if k.at(0, 0, 0).Open[grid.South] {
		door(c, 3, 1, 0, 4, 2, 0)
	}
}
