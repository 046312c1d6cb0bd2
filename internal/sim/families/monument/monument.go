// Package monument is the underwater temple family. Its rooms sit on a fixed
// 5x3x5 lattice inside a 58-block shell: the lattice is pruned to a spanning
// maze around the entrance and then packed into single and double rooms.
package monument

import (
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/grid"
	"voxelstruct.ai/internal/sim/piece"
	"voxelstruct.ai/internal/sim/structure"
	"voxelstruct.ai/internal/sim/tuning"
)

const Family = "monument"

const (
	KindBuilding  piece.Kind = "monument.building"
	KindEntry     piece.Kind = "monument.entry"
	KindCore      piece.Kind = "monument.core"
	KindSimple    piece.Kind = "monument.simple"
	KindSimpleTop piece.Kind = "monument.simple_top"
	KindDoubleX   piece.Kind = "monument.double_x"
	KindDoubleY   piece.Kind = "monument.double_y"
	KindDoubleZ   piece.Kind = "monument.double_z"
	KindDoubleXY  piece.Kind = "monument.double_xy"
	KindDoubleYZ  piece.Kind = "monument.double_yz"
	KindWing      piece.Kind = "monument.wing"
	KindPenthouse piece.Kind = "monument.penthouse"
)

// Lattice and shell dimensions. A cell is 8x4x8 blocks.
const (
	cellW = 8
	cellH = 4

	shellW = 58
	shellH = 23
)

// coreSteps claims the 2x2x2 block of cells the core room occupies.
var coreSteps = []grid.Step{
	{From: 0, Dir: grid.East},
	{From: 0, Dir: grid.North},
	{From: 1, Dir: grid.North},
	{From: 0, Dir: grid.Up},
	{From: 1, Dir: grid.Up},
	{From: 2, Dir: grid.Up},
	{From: 3, Dir: grid.Up},
}

// fit pairs a shape with the room it produces and that room's cell extents.
type fit struct {
	shape   *grid.Shape
	kind    piece.Kind
	w, h, d int
}

// fits is tried in order for every unclaimed cell; larger rooms first.
var fits = []fit{
	{&grid.Shape{Name: "double_xy", Steps: []grid.Step{{From: 0, Dir: grid.East}, {From: 0, Dir: grid.Up}, {From: 1, Dir: grid.Up}}}, KindDoubleXY, 2, 2, 1},
	{&grid.Shape{Name: "double_yz", Steps: []grid.Step{{From: 0, Dir: grid.North}, {From: 0, Dir: grid.Up}, {From: 1, Dir: grid.Up}}}, KindDoubleYZ, 1, 2, 2},
	{&grid.Shape{Name: "double_z", Steps: []grid.Step{{From: 0, Dir: grid.North}}}, KindDoubleZ, 1, 1, 2},
	{&grid.Shape{Name: "double_x", Steps: []grid.Step{{From: 0, Dir: grid.East}}}, KindDoubleX, 2, 1, 1},
	{&grid.Shape{Name: "double_y", Steps: []grid.Step{{From: 0, Dir: grid.Up}}}, KindDoubleY, 1, 2, 1},
	{&grid.Shape{Name: "simple_top", Fits: closedAround}, KindSimpleTop, 1, 1, 1},
	{&grid.Shape{Name: "simple"}, KindSimple, 1, 1, 1},
}

func closedAround(cells []*grid.Slot) bool {
	s := cells[0]
	return !s.Open[grid.West] && !s.Open[grid.East] && !s.Open[grid.North] && !s.Open[grid.South] && !s.Open[grid.Up]
}

type Generator struct {
	spec tuning.GridSpec
	sea  int
}

// New builds a monument generator. sea is the world water level the shell
// floods up to.
func New(spec tuning.GridSpec, sea int) *Generator { return &Generator{spec: spec, sea: sea} }

func (g *Generator) Family() string { return Family }

// newLattice builds the room lattice with its three special attachments and
// returns it together with the entrance cell, which is the root.
func newLattice() (*grid.Lattice, *grid.Slot) {
	l := grid.NewLattice(5, 3, 5)
	for x := 0; x < 5; x++ {
		for z := 0; z < 4; z++ {
			l.Occupy(x, 0, z)
			l.Occupy(x, 1, z)
		}
	}
	for x := 1; x < 4; x++ {
		for z := 0; z < 2; z++ {
			l.Occupy(x, 2, z)
		}
	}
	l.LinkAll()
	l.Attach(l.At(2, 2, 0), grid.Up, "penthouse")
	l.Attach(l.At(0, 1, 0), grid.South, "wing_left")
	l.Attach(l.At(4, 1, 0), grid.South, "wing_right")
	entry := l.At(2, 0, 0)
	l.SetRoot(entry)
	return l, entry
}

func (g *Generator) Layout(req structure.Request) structure.Layout {
	r := req.R
	f := req.Facing
	if f == geom.None {
		f = geom.Horizontals[r.Intn(4)]
	}
	shell := geom.Sized(req.X-29, g.spec.BaseY, req.Z-29, f, shellW, shellH, shellW)
	frame := geom.Frame{Box: shell, Facing: f}

	l, entry := newLattice()
	core := l.At(r.Intn(4), 0, 2)
	grid.ClaimShape(core, coreSteps)
	l.ResetOpenings()
	order := l.Prune(r, grid.PruneConfig{Cuts: g.spec.PruneCuts, Tries: g.spec.PruneTries})
	entry.Claimed = true

	ox, oy, oz := frame.World(9, 0, 22)
	room := func(kind piece.Kind, s *grid.Slot, w, h, d int, body piece.Behavior) *piece.Piece {
		return &piece.Piece{
			Kind:   kind,
			Box:    roomBox(f, s, w, h, d).Translated(ox, oy, oz),
			Facing: f,
			Depth:  1,
			Body:   body,
		}
	}

	pieces := []*piece.Piece{
		{Kind: KindBuilding, Box: shell, Facing: f, Body: &Building{Sea: g.sea}},
		room(KindEntry, entry, 1, 1, 1, &Room{Cells: cellsOf(entry, entry)}),
		room(KindCore, core, 2, 2, 2, &Room{Cells: cellsOf(core, core)}),
	}
	stats := map[string]int{"cells": len(order)}
	for _, grp := range l.Assign(order, shapes()) {
		ft := fitFor(grp.Shape)
		o := grp.Origin()
		cells := cellsOf(o, grp.Cells...)
		var body piece.Behavior
		switch ft.kind {
		case KindSimple:
			body = newSimpleRoom(r, cells)
		case KindSimpleTop:
			body = &TopRoom{Room: Room{Cells: cells}, Seed: int64(int32(r.Int63()))}
		default:
			body = &Room{Cells: cells}
		}
		pieces = append(pieces, room(ft.kind, o, ft.w, ft.h, ft.d, body))
		stats["rooms."+grp.Shape.Name]++
	}

	d := r.Intn(2)
	pieces = append(pieces,
		&piece.Piece{Kind: KindWing, Box: frame.WorldBox(1, 1, 1, 23, 8, 21), Facing: f, Depth: 1, Body: &Wing{Design: d}},
		&piece.Piece{Kind: KindWing, Box: frame.WorldBox(34, 1, 1, 56, 8, 21), Facing: f, Depth: 1, Body: &Wing{Design: 1 - d}},
		// One block lower than the roof opening so the floor ring is inside the box.
		&piece.Piece{Kind: KindPenthouse, Box: frame.WorldBox(22, 12, 22, 35, 17, 35), Facing: f, Depth: 1, Body: &Penthouse{}},
	)

	seams := make([]structure.Seam, 0, len(pieces)-1)
	for i := 1; i < len(pieces); i++ {
		seams = append(seams, structure.Seam{A: 0, B: i})
	}
	return structure.Layout{Pieces: pieces, Seams: seams, Stats: stats}
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

// roomBox places a room of w x h x d cells whose minimum cell is s, relative
// to the lattice origin, so that local z grows away from the entrance.
func roomBox(f geom.Facing, s *grid.Slot, w, h, d int) geom.Box {
	b := geom.Sized(0, 0, 0, f, w*cellW, h*cellH, d*cellW)
	switch f {
	case geom.North:
		return b.Translated(s.X*cellW, s.Y*cellH, -(s.Z+d)*cellW+1)
	case geom.South:
		return b.Translated(s.X*cellW, s.Y*cellH, s.Z*cellW)
	case geom.West:
		return b.Translated(-(s.Z+d)*cellW+1, s.Y*cellH, s.X*cellW)
	default:
		return b.Translated(s.Z*cellW, s.Y*cellH, s.X*cellW)
	}
}

func (g *Generator) Decoders() piece.Registry {
	return piece.Registry{
		KindBuilding:  decodeBuilding,
		KindEntry:     decodeRoom,
		KindCore:      decodeRoom,
		KindSimple:    decodeSimpleRoom,
		KindSimpleTop: decodeTopRoom,
		KindDoubleX:   decodeRoom,
		KindDoubleY:   decodeRoom,
		KindDoubleZ:   decodeRoom,
		KindDoubleXY:  decodeRoom,
		KindDoubleYZ:  decodeRoom,
		KindWing:      decodeWing,
		KindPenthouse: decodePenthouse,
	}
}
