// Package mineshaft is the branching corridor family: a root room with tunnels
// leaving every wall, grown by the chain builder.
package mineshaft

import (
	"voxelstruct.ai/internal/sim/chain"
	"voxelstruct.ai/internal/sim/paint"
	"voxelstruct.ai/internal/sim/piece"
	"voxelstruct.ai/internal/sim/selector"
	"voxelstruct.ai/internal/sim/structure"
	"voxelstruct.ai/internal/sim/tuning"
)

const Family = "mineshaft"

const (
	KindRoom     piece.Kind = "mineshaft.room"
	KindCorridor piece.Kind = "mineshaft.corridor"
	KindCrossing piece.Kind = "mineshaft.crossing"
	KindStairs   piece.Kind = "mineshaft.stairs"
)

// Variants index the material table; the value is persisted as MST.
const (
	VariantNormal = 0
	VariantMesa   = 1
)

type material struct {
	planks, wood, fence paint.Block
}

var materials = [...]material{
	VariantNormal: {planks: paint.Planks, wood: paint.OakLog, fence: paint.Fence},
	VariantMesa:   {planks: paint.DarkOakPlanks, wood: paint.DarkOakLog, fence: paint.DarkFence},
}

func materialOf(mst int) material {
	if mst < 0 || mst >= len(materials) {
		return materials[VariantNormal]
	}
	return materials[mst]
}

// templates is the single selection pool. The three tunnel kinds are
// unlimited and may repeat freely.
var templates = []selector.Descriptor{
	{ID: string(KindCorridor), Weight: 70, AllowInRow: true},
	{ID: string(KindStairs), Weight: 10, AllowInRow: true},
	{ID: string(KindCrossing), Weight: 20, AllowInRow: true},
}

type Generator struct {
	spec    tuning.ChainSpec
	variant int
}

func New(spec tuning.ChainSpec) *Generator {
	g := &Generator{spec: spec}
	if spec.Variant == "mesa" {
		g.variant = VariantMesa
	}
	return g
}

func (g *Generator) Family() string { return Family }

func (g *Generator) catalog() map[string]chain.Archetype {
	return map[string]chain.Archetype{
		string(KindCorridor): corridorArch{mst: g.variant},
		string(KindStairs):   stairsArch{mst: g.variant},
		string(KindCrossing): crossingArch{mst: g.variant},
	}
}

func (g *Generator) Layout(req structure.Request) structure.Layout {
	r := req.R
	pools := []*selector.Pool{selector.NewPool(Family, templates)}
	b := chain.New(chain.Config{
		MaxDepth:      g.spec.MaxDepth,
		LateralRadius: g.spec.LateralRadius,
		RetryBudget:   g.spec.RetryBudget,
	}, g.catalog(), pools, r)

	b.Start(newRoom(req.X, req.Y, req.Z, r, g.variant))
	b.Run()
	g.sink(b)

	return structure.Layout{Pieces: b.Pieces.Pieces(), Pools: pools, Stats: b.Stats.Map()}
}

// sink moves the finished network down so that its top sits below TopBelow,
// at a random depth when there is room for one.
func (g *Generator) sink(b *chain.Builder) {
	if g.spec.TopBelow <= 0 {
		return
	}
	bounds := b.Pieces.Bounds()
	top := g.spec.TopBelow
	j := bounds.SpanY() + 1
	if j < top {
		j += b.R.Intn(top - j)
	}
	b.Pieces.Move(0, j-bounds.MaxY, 0)
}

func (g *Generator) Decoders() piece.Registry {
	return piece.Registry{
		KindRoom:     decodeRoom,
		KindCorridor: decodeCorridor,
		KindCrossing: decodeCrossing,
		KindStairs:   decodeStairs,
	}
}
