// Package fortress is the bridge-and-castle family. Open bridges and enclosed
// castle corridors are drawn from separate pools; a bridge stub closes every
// branch that cannot continue.
package fortress

import (
	"voxelstruct.ai/internal/sim/chain"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/piece"
	"voxelstruct.ai/internal/sim/selector"
	"voxelstruct.ai/internal/sim/structure"
	"voxelstruct.ai/internal/sim/tuning"
)

const Family = "fortress"

const (
	KindStart            piece.Kind = "fortress.start"
	KindBridgeStraight   piece.Kind = "fortress.bridge_straight"
	KindBridgeCrossing   piece.Kind = "fortress.bridge_crossing"
	KindBridgeEnd        piece.Kind = "fortress.bridge_end"
	KindRoomCrossing     piece.Kind = "fortress.room_crossing"
	KindStairsRoom       piece.Kind = "fortress.stairs_room"
	KindMonsterThrone    piece.Kind = "fortress.monster_throne"
	KindCastleEntrance   piece.Kind = "fortress.castle_entrance"
	KindSmallCorridor    piece.Kind = "fortress.small_corridor"
	KindCorridorCrossing piece.Kind = "fortress.corridor_crossing"
	KindRightTurn        piece.Kind = "fortress.right_turn"
	KindLeftTurn         piece.Kind = "fortress.left_turn"
	KindCorridorStairs   piece.Kind = "fortress.corridor_stairs"
	KindTBalcony         piece.Kind = "fortress.t_balcony"
	KindStalkRoom        piece.Kind = "fortress.stalk_room"
)

// Pool indexes in chain.Request.Pool.
const (
	PoolBridge = 0
	PoolCastle = 1
)

var bridgeTemplates = []selector.Descriptor{
	{ID: string(KindBridgeStraight), Weight: 30, AllowInRow: true},
	{ID: string(KindBridgeCrossing), Weight: 10, Max: 4},
	{ID: string(KindRoomCrossing), Weight: 10, Max: 4},
	{ID: string(KindStairsRoom), Weight: 10, Max: 3},
	{ID: string(KindMonsterThrone), Weight: 5, Max: 2},
	{ID: string(KindCastleEntrance), Weight: 5, Max: 1},
}

var castleTemplates = []selector.Descriptor{
	{ID: string(KindSmallCorridor), Weight: 25, AllowInRow: true},
	{ID: string(KindCorridorCrossing), Weight: 15, Max: 5},
	{ID: string(KindRightTurn), Weight: 5, Max: 10},
	{ID: string(KindLeftTurn), Weight: 5, Max: 10},
	{ID: string(KindCorridorStairs), Weight: 10, Max: 3, AllowInRow: true},
	{ID: string(KindTBalcony), Weight: 7, Max: 2},
	{ID: string(KindStalkRoom), Weight: 5, Max: 2},
}

type Generator struct {
	spec tuning.ChainSpec
}

func New(spec tuning.ChainSpec) *Generator { return &Generator{spec: spec} }

func (g *Generator) Family() string { return Family }

func (g *Generator) Layout(req structure.Request) structure.Layout {
	r := req.R
	f := req.Facing
	if f == geom.None {
		f = geom.Horizontals[r.Intn(4)]
	}
	pools := []*selector.Pool{
		selector.NewPool("bridge", bridgeTemplates),
		selector.NewPool("castle", castleTemplates),
	}
	minY := g.spec.MinY
	b := chain.New(chain.Config{
		MaxDepth:       g.spec.MaxDepth,
		LateralRadius:  g.spec.LateralRadius,
		RetryBudget:    g.spec.RetryBudget,
		Legal:          func(box geom.Box) bool { return minY <= 0 || box.MinY > minY },
		Filler:         archetypes[KindBridgeEnd],
		FillerAtLimits: g.spec.FillerAtLimits,
		RandomOrder:    true,
	}, catalog, pools, r)

	b.Start(&piece.Piece{
		Kind:   KindStart,
		Box:    geom.Sized(req.X, req.Y, req.Z, f, 19, 10, 19),
		Facing: f,
		Body:   &Hall{},
	})
	b.Run()
	g.settle(b)

	return structure.Layout{Pieces: b.Pieces.Pieces(), Pools: pools, Stats: b.Stats.Map()}
}

// settle moves the finished fortress to a random base height inside
// HeightRange, or to its bottom when the fortress is too tall to vary.
func (g *Generator) settle(b *chain.Builder) {
	if len(g.spec.HeightRange) != 2 {
		return
	}
	lo, hi := g.spec.HeightRange[0], g.spec.HeightRange[1]
	bounds := b.Pieces.Bounds()
	room := hi - lo + 1 - bounds.SpanY()
	y := lo
	if room > 1 {
		y += b.R.Intn(room)
	}
	b.Pieces.Move(0, y-bounds.MinY, 0)
}

func (g *Generator) Decoders() piece.Registry {
	reg := piece.Registry{}
	for kind, d := range decoders {
		reg[kind] = d
	}
	return reg
}
