// Package mansion is the multi-floor woodland mansion family.
//
// The footprint is an 11x11 grid of 8-block cells grown by carving
// corridors west of a fixed entrance. The ground and first floors share it;
// each is pruned and packed into rooms on its own. One first-floor 1x2 room
// becomes the stairwell, and the smaller top floor is carved outward from it.
package mansion

import (
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/grid"
	"voxelstruct.ai/internal/sim/piece"
	"voxelstruct.ai/internal/sim/rng"
	"voxelstruct.ai/internal/sim/structure"
	"voxelstruct.ai/internal/sim/tuning"
)

const Family = "mansion"

const (
	KindEntrance  piece.Kind = "mansion.entrance"
	KindCorridor  piece.Kind = "mansion.corridor"
	KindRoom1x1   piece.Kind = "mansion.room_1x1"
	KindRoom1x2   piece.Kind = "mansion.room_1x2"
	KindRoom2x2   piece.Kind = "mansion.room_2x2"
	KindStairwell piece.Kind = "mansion.stairwell"
)

const (
	gridW  = 11
	cellW  = 8
	floorH = 8
	// topGap is the roof slab between the first and the top floor.
	topGap = 3

	// Entrance cell; the entrance hall covers it and the three cells east
	// and north of it.
	entX = 7
	entZ = 4
)

// Storey base heights relative to the ground floor.
const (
	groundY = 0
	firstY  = floorH
	topY    = 2*floorH + topGap
	height  = topY + floorH
)

type fit struct {
	shape *grid.Shape
	kind  piece.Kind
	w, d  int
}

var fits = []fit{
	{&grid.Shape{Name: "2x2", Steps: []grid.Step{{From: 0, Dir: grid.East}, {From: 0, Dir: grid.North}, {From: 1, Dir: grid.North}}}, KindRoom2x2, 2, 2},
	{&grid.Shape{Name: "1x2_x", Steps: []grid.Step{{From: 0, Dir: grid.East}}}, KindRoom1x2, 2, 1},
	{&grid.Shape{Name: "1x2_z", Steps: []grid.Step{{From: 0, Dir: grid.North}}}, KindRoom1x2, 1, 2},
	{&grid.Shape{Name: "1x1"}, KindRoom1x1, 1, 1},
}

func shapes() []*grid.Shape {
	out := make([]*grid.Shape, len(fits))
	for i := range fits {
		out[i] = fits[i].shape
	}
	return out
}

func fitFor(sh *grid.Shape) fit {
	for _, ft := range fits {
		if ft.shape == sh {
			return ft
		}
	}
	return fits[len(fits)-1]
}

type Generator struct {
	spec tuning.GridSpec
}

func New(spec tuning.GridSpec) *Generator { return &Generator{spec: spec} }

func (g *Generator) Family() string { return Family }

// footprint grows the base cell grid. Carving and edge cleaning consume the
// stream in a fixed order.
func footprint(r rng.Stream) *grid.CellGrid {
	c := grid.NewCellGrid(gridW, gridW, grid.CellBlocked)
	c.Fill(entX, entZ, entX+1, entZ+1, grid.CellStart)
	c.Fill(entX-1, entZ, entX-1, entZ+1, grid.CellRoom)
	c.Fill(entX+2, entZ-2, entX+3, entZ+3, grid.CellBlocked)
	c.Fill(entX+1, entZ-2, entX+1, entZ-1, grid.CellCorridor)
	c.Fill(entX+1, entZ+2, entX+1, entZ+3, grid.CellCorridor)
	c.Set(entX-1, entZ-1, grid.CellCorridor)
	c.Set(entX-1, entZ+2, grid.CellCorridor)
	c.Fill(0, 0, gridW-1, 1, grid.CellBlocked)
	c.Fill(0, 9, gridW-1, gridW-1, grid.CellBlocked)

	c.Carve(r, entX, entZ-2, geom.West, 6)
	c.Carve(r, entX, entZ+3, geom.West, 6)
	c.Carve(r, entX-2, entZ-1, geom.West, 3)
	c.Carve(r, entX-2, entZ+2, geom.West, 3)
	for c.CleanEdges() {
	}
	return c
}

// storey lays one floor over cells. Everything but room cells is claimed up
// front; the lattice is pruned from the root and the room cells are packed
// in prune order.
func (g *Generator) storey(r rng.Stream, cells *grid.CellGrid, rootX, rootZ int) (*grid.Lattice, []grid.Group) {
	l := cells.Lattice()
	for _, s := range l.Slots() {
		if cells.Get(s.X, s.Z) != grid.CellRoom {
			s.Claimed = true
		}
	}
	l.SetRoot(l.At(rootX, 0, rootZ))
	l.ResetOpenings()
	order := l.Prune(r, grid.PruneConfig{Cuts: g.spec.PruneCuts, Tries: g.spec.PruneTries})
	return l, l.Assign(order, shapes())
}

// stairs picks a 1x2 room with a cell next to a corridor. a is that cell and
// b the other half of the room.
func stairs(r rng.Stream, cells *grid.CellGrid, groups []grid.Group) (idx int, a, b *grid.Slot) {
	var cands []int
	for i, grp := range groups {
		if len(grp.Cells) == 2 && len(doorCells(cells, grp)) > 0 {
			cands = append(cands, i)
		}
	}
	if len(cands) == 0 {
		return -1, nil, nil
	}
	idx = cands[r.Intn(len(cands))]
	grp := groups[idx]
	doors := doorCells(cells, grp)
	a = doors[r.Intn(len(doors))]
	b = grp.Cells[0]
	if b == a {
		b = grp.Cells[1]
	}
	return idx, a, b
}

func doorCells(cells *grid.CellGrid, grp grid.Group) []*grid.Slot {
	var out []*grid.Slot
	for _, s := range grp.Cells {
		if cells.EdgesTo(s.X, s.Z, grid.CellCorridor) {
			out = append(out, s)
		}
	}
	return out
}

// topFloor carves the top storey from the stairwell cells a and b. It
// returns nil when no cell next to b is free to start a corridor.
func topFloor(r rng.Stream, base *grid.CellGrid, a, b *grid.Slot) *grid.CellGrid {
	top := grid.NewCellGrid(gridW, gridW, grid.CellBlocked)
	for z := 0; z < gridW; z++ {
		for x := 0; x < gridW; x++ {
			if !grid.IsHouse(base.Get(x, z)) {
				top.Set(x, z, grid.CellBlocked)
			}
		}
	}
	top.Set(a.X, a.Z, grid.CellStart)
	top.Set(b.X, b.Z, grid.CellStart)

	var dirs []geom.Facing
	for _, f := range geom.Horizontals {
		dx, dz := f.Step()
		if top.Get(b.X+dx, b.Z+dz) == grid.CellClear {
			dirs = append(dirs, f)
		}
	}
	if len(dirs) == 0 {
		return nil
	}
	f := dirs[r.Intn(len(dirs))]
	dx, dz := f.Step()
	top.Carve(r, b.X+dx, b.Z+dz, f, 4)
	for top.CleanEdges() {
	}
	return top
}

func (g *Generator) Layout(req structure.Request) structure.Layout {
	r := req.R
	f := req.Facing
	if f == geom.None {
		f = geom.Horizontals[r.Intn(4)]
	}
	y := req.Y
	if g.spec.BaseY != 0 {
		y = g.spec.BaseY
	}
	const half = gridW * cellW / 2
	frame := geom.Frame{
		Box:    geom.FromCorners(req.X-half, y, req.Z-half, req.X-half+gridW*cellW-1, y+height-1, req.Z-half+gridW*cellW-1),
		Facing: f,
	}
	cellBox := func(x0, z0, w, d, y0, h int) geom.Box {
		return frame.WorldBox(x0*cellW, y0, z0*cellW, (x0+w)*cellW-1, y0+h-1, (z0+d)*cellW-1)
	}

	base := footprint(r)
	ground, groundRooms := g.storey(r, base, entX, entZ)
	first, firstRooms := g.storey(r, base, entX, entZ)

	stats := map[string]int{}
	var pieces []*piece.Piece
	add := func(kind piece.Kind, box geom.Box, depth int, body piece.Behavior) {
		pieces = append(pieces, &piece.Piece{Kind: kind, Box: box, Facing: f, Depth: depth, Body: body})
	}

	entrance := grid.Group{Cells: []*grid.Slot{
		ground.At(entX, 0, entZ), ground.At(entX+1, 0, entZ),
		ground.At(entX, 0, entZ+1), ground.At(entX+1, 0, entZ+1),
	}}
	add(KindEntrance, cellBox(entX, entZ, 2, 2, groundY, 2*floorH), 0, &Room{Cells: cellsOf(base, entrance)})

	corridors := func(cells *grid.CellGrid, l *grid.Lattice, y0, floor int) {
		for _, s := range l.Slots() {
			if cells.Get(s.X, s.Z) != grid.CellCorridor {
				continue
			}
			add(KindCorridor, cellBox(s.X, s.Z, 1, 1, y0, floorH), floor+1, &Corridor{Floor: floor, Walls: outside(cells, s)})
			stats["corridors"]++
		}
	}
	rooms := func(cells *grid.CellGrid, groups []grid.Group, y0, floor int, skip int) {
		for i, grp := range groups {
			if i == skip {
				continue
			}
			ft := fitFor(grp.Shape)
			o := grp.Origin()
			add(ft.kind, cellBox(o.X, o.Z, ft.w, ft.d, y0, floorH), floor+1,
				&Room{Floor: floor, Style: r.Intn(3), Cells: cellsOf(cells, grp)})
			stats["rooms."+grp.Shape.Name]++
		}
	}

	corridors(base, ground, groundY, 0)
	rooms(base, groundRooms, groundY, 0, -1)
	corridors(base, first, firstY, 1)

	idx, a, b := stairs(r, base, firstRooms)
	var top *grid.CellGrid
	if idx >= 0 {
		top = topFloor(r, base, a, b)
	}
	if top == nil {
		rooms(base, firstRooms, firstY, 1, -1)
		stats["cells"] = len(ground.Slots())
		return structure.Layout{Pieces: pieces, Stats: stats}
	}
	rooms(base, firstRooms, firstY, 1, idx)

	upper, upperRooms := g.storey(r, top, b.X, b.Z)
	well := firstRooms[idx]
	landing := grid.Group{Cells: []*grid.Slot{upper.At(well.Cells[0].X, 0, well.Cells[0].Z), upper.At(well.Cells[1].X, 0, well.Cells[1].Z)}}
	o := well.Origin()
	ft := fitFor(well.Shape)
	add(KindStairwell, cellBox(o.X, o.Z, ft.w, ft.d, firstY, height-firstY), 2, &Stairwell{
		Room: Room{Floor: 1, Cells: cellsOf(base, well)},
		Top:  cellsOf(top, landing),
	})
	corridors(top, upper, topY, 2)
	rooms(top, upperRooms, topY, 2, -1)

	stats["cells"] = len(ground.Slots()) + len(upper.Slots())
	stats["top"] = 1
	return structure.Layout{Pieces: pieces, Stats: stats}
}

func (g *Generator) Decoders() piece.Registry {
	return piece.Registry{
		KindEntrance:  decodeRoom,
		KindCorridor:  decodeCorridor,
		KindRoom1x1:   decodeRoom,
		KindRoom1x2:   decodeRoom,
		KindRoom2x2:   decodeRoom,
		KindStairwell: decodeStairwell,
	}
}
