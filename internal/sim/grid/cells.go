package grid

import (
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/rng"
)

// Footprint cell values.
const (
	CellClear    = 0
	CellCorridor = 1
	CellRoom     = 2
	CellStart    = 3
	CellBlocked  = 5
)

// IsHouse reports whether v is part of the building.
func IsHouse(v int) bool { return v >= CellCorridor && v <= 4 }

// CellGrid is a 2D footprint of cell values. Reads outside the grid return
// the fallback value; writes outside are ignored.
type CellGrid struct {
	W, H     int
	cells    []int
	fallback int
}

func NewCellGrid(w, h, fallback int) *CellGrid {
	return &CellGrid{W: w, H: h, cells: make([]int, w*h), fallback: fallback}
}

func (g *CellGrid) inside(x, z int) bool { return x >= 0 && x < g.W && z >= 0 && z < g.H }

func (g *CellGrid) Get(x, z int) int {
	if !g.inside(x, z) {
		return g.fallback
	}
	return g.cells[x+z*g.W]
}

func (g *CellGrid) Set(x, z, v int) {
	if g.inside(x, z) {
		g.cells[x+z*g.W] = v
	}
}

// Fill sets the inclusive rectangle (x0,z0)-(x1,z1).
func (g *CellGrid) Fill(x0, z0, x1, z1, v int) {
	for z := z0; z <= z1; z++ {
		for x := x0; x <= x1; x++ {
			g.Set(x, z, v)
		}
	}
}

func (g *CellGrid) SetIf(x, z, want, v int) {
	if g.Get(x, z) == want {
		g.Set(x, z, v)
	}
}

// EdgesTo reports whether any of the four neighbours of (x,z) holds v.
func (g *CellGrid) EdgesTo(x, z, v int) bool {
	return g.Get(x-1, z) == v || g.Get(x+1, z) == v || g.Get(x, z+1) == v || g.Get(x, z-1) == v
}

func (g *CellGrid) isHouse(x, z int) bool { return IsHouse(g.Get(x, z)) }

type carveFrame struct {
	x, z int
	f    geom.Facing
}

// Carve lays a wandering corridor of up to length cells from (x,z) heading
// f, then lines it with room cells. Each step may turn; a turn is taken only
// into two clear cells.
func (g *CellGrid) Carve(r rng.Stream, x, z int, f geom.Facing, length int) {
	var frames []carveFrame
	for k := length; k > 0; k-- {
		frames = append(frames, carveFrame{x: x, z: z, f: f})
		dx, dz := f.Step()
		g.Set(x, z, CellCorridor)
		g.SetIf(x+dx, z+dz, CellClear, CellCorridor)
		next := geom.None
		for try := 0; try < 8; try++ {
			t := geom.Facing(r.Intn(4))
			if t == f.Opposite() {
				continue
			}
			if t == geom.East && r.Bool() {
				continue
			}
			tx, tz := t.Step()
			mx, mz := x+dx, z+dz
			if g.Get(mx+tx, mz+tz) == CellClear && g.Get(mx+2*tx, mz+2*tz) == CellClear {
				next = t
				break
			}
		}
		if next == geom.None {
			break
		}
		tx, tz := next.Step()
		x, z, f = x+dx+tx, z+dz+tz, next
	}
	// Rooms line the corridor innermost first.
	for i := len(frames) - 1; i >= 0; i-- {
		fr := frames[i]
		dx, dz := fr.f.Step()
		cx, cz := fr.f.Clockwise().Step()
		ccx, ccz := fr.f.CounterClockwise().Step()
		g.SetIf(fr.x+cx, fr.z+cz, CellClear, CellRoom)
		g.SetIf(fr.x+ccx, fr.z+ccz, CellClear, CellRoom)
		g.SetIf(fr.x+dx+cx, fr.z+dz+cz, CellClear, CellRoom)
		g.SetIf(fr.x+dx+ccx, fr.z+dz+ccz, CellClear, CellRoom)
		g.SetIf(fr.x+2*dx, fr.z+2*dz, CellClear, CellRoom)
		g.SetIf(fr.x+2*cx, fr.z+2*cz, CellClear, CellRoom)
		g.SetIf(fr.x+2*ccx, fr.z+2*ccz, CellClear, CellRoom)
	}
}

// CleanEdges fills clear cells that are mostly surrounded by the house. It
// reports whether anything changed; callers repeat until it returns false.
func (g *CellGrid) CleanEdges() bool {
	changed := false
	for z := 0; z < g.H; z++ {
		for x := 0; x < g.W; x++ {
			if g.Get(x, z) != CellClear {
				continue
			}
			k := 0
			for _, n := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				if g.isHouse(x+n[0], z+n[1]) {
					k++
				}
			}
			if k >= 3 {
				g.Set(x, z, CellRoom)
				changed = true
				continue
			}
			if k != 2 {
				continue
			}
			diag := 0
			for _, n := range [4][2]int{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}} {
				if g.isHouse(x+n[0], z+n[1]) {
					diag++
				}
			}
			if diag <= 1 {
				g.Set(x, z, CellRoom)
				changed = true
			}
		}
	}
	return changed
}

// Lattice builds a one-floor lattice over the house cells, linked along
// grid adjacency.
func (g *CellGrid) Lattice() *Lattice {
	l := NewLattice(g.W, 1, g.H)
	for z := 0; z < g.H; z++ {
		for x := 0; x < g.W; x++ {
			if g.isHouse(x, z) {
				l.Occupy(x, 0, z)
			}
		}
	}
	l.LinkAll()
	return l
}
