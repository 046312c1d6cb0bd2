package chain

import (
	"testing"

	"voxelstruct.ai/internal/persistence/tag"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/mathx"
	"voxelstruct.ai/internal/sim/paint"
	"voxelstruct.ai/internal/sim/piece"
	"voxelstruct.ai/internal/sim/rng"
	"voxelstruct.ai/internal/sim/selector"
)

// cube is a 3 wide, 3 tall archetype of configurable depth.
type cube struct {
	kind  piece.Kind
	depth int
	turns bool
	unfit bool
}

func (c cube) Kind() piece.Kind { return c.kind }

func (c cube) CandidateBox(_ *piece.Collection, req Request, _ rng.Stream) (geom.Box, bool) {
	if c.unfit {
		return geom.Box{}, false
	}
	return geom.Oriented(req.X, req.Y, req.Z, -1, 0, 0, 3, 3, c.depth, req.Facing), true
}

func (c cube) Create(Request, geom.Box, rng.Stream) piece.Behavior { return &node{turns: c.turns} }

type node struct{ turns bool }

func (*node) Paint(paint.World, *piece.Piece, geom.Box, rng.Stream, geom.ChunkPos) {}
func (*node) SaveTag(tag.Compound)                                                 {}

func (n *node) AddChildren(b *Builder, p *piece.Piece, _ rng.Stream) {
	bb := p.Box
	next := func(f geom.Facing) {
		var x, z int
		switch f {
		case geom.North:
			x, z = bb.MinX+1, bb.MinZ-1
		case geom.South:
			x, z = bb.MinX+1, bb.MaxZ+1
		case geom.West:
			x, z = bb.MinX-1, bb.MinZ+1
		default:
			x, z = bb.MaxX+1, bb.MinZ+1
		}
		b.Grow(p, Request{X: x, Y: bb.MinY, Z: z, Facing: f, Depth: p.Depth + 1})
	}
	next(p.Facing)
	if n.turns {
		next(p.Facing.CounterClockwise())
		next(p.Facing.Clockwise())
	}
}

func newBuilder(cfg Config, archs []cube, tmpl []selector.Descriptor, seed uint64) *Builder {
	cat := map[string]Archetype{}
	for _, a := range archs {
		cat[string(a.kind)] = a
	}
	b := New(cfg, cat, []*selector.Pool{selector.NewPool("test", tmpl)}, rng.New(seed))
	root := &piece.Piece{
		Kind:   "test.root",
		Box:    geom.Oriented(0, 64, 0, -1, 0, 0, 3, 3, 3, geom.North),
		Facing: geom.North,
		Body:   &node{turns: true},
	}
	b.Start(root)
	return b
}

func maxDepth(ps []*piece.Piece) int {
	d := 0
	for _, p := range ps {
		d = max(d, p.Depth)
	}
	return d
}

func assertDisjoint(t *testing.T, ps []*piece.Piece) {
	t.Helper()
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			if ps[i].Box.Intersects(ps[j].Box) {
				t.Fatalf("pieces %d (%s) and %d (%s) overlap", i, ps[i], j, ps[j])
			}
		}
	}
}

func TestBuilder_StopsAtMaxDepth(t *testing.T) {
	archs := []cube{{kind: "test.hall", depth: 4}}
	tmpl := []selector.Descriptor{{ID: "test.hall", Weight: 1, AllowInRow: true}}
	b := newBuilder(Config{MaxDepth: 5, LateralRadius: 1000}, archs, tmpl, 1)
	b.Run()
	ps := b.Pieces.Pieces()
	if got := maxDepth(ps); got != 5 {
		t.Fatalf("maxDepth=%d want 5", got)
	}
	if b.Stats.DepthRejects == 0 {
		t.Fatalf("expected depth rejects, stats=%+v", b.Stats)
	}
	assertDisjoint(t, ps)
}

func TestBuilder_LateralCeiling(t *testing.T) {
	archs := []cube{{kind: "test.hall", depth: 7, turns: true}}
	tmpl := []selector.Descriptor{{ID: "test.hall", Weight: 1, AllowInRow: true}}
	b := newBuilder(Config{MaxDepth: 100, LateralRadius: 24}, archs, tmpl, 2)
	b.Run()
	origin := b.Pieces.Root().Box
	for _, p := range b.Pieces.Pieces() {
		for _, x := range []int{p.Box.MinX, p.Box.MaxX} {
			if d := mathx.AbsInt(x - origin.MinX); d > 24 {
				t.Fatalf("%s: x distance %d > 24", p, d)
			}
		}
		for _, z := range []int{p.Box.MinZ, p.Box.MaxZ} {
			if d := mathx.AbsInt(z - origin.MinZ); d > 24 {
				t.Fatalf("%s: z distance %d > 24", p, d)
			}
		}
	}
	if b.Stats.LateralRejects == 0 {
		t.Fatalf("expected lateral rejects, stats=%+v", b.Stats)
	}
	assertDisjoint(t, b.Pieces.Pieces())
}

func TestBuilder_CapsAndNoOverlap(t *testing.T) {
	archs := []cube{
		{kind: "test.hall", depth: 5, turns: true},
		{kind: "test.vault", depth: 3, turns: true},
	}
	tmpl := []selector.Descriptor{
		{ID: "test.hall", Weight: 10, AllowInRow: true},
		{ID: "test.vault", Weight: 30, Max: 3},
	}
	for seed := uint64(0); seed < 20; seed++ {
		b := newBuilder(Config{MaxDepth: 12, LateralRadius: 64, RetryBudget: 4}, archs, tmpl, seed)
		b.Run()
		vaults := 0
		for _, p := range b.Pieces.Pieces() {
			if p.Kind == "test.vault" {
				vaults++
			}
		}
		if vaults > 3 {
			t.Fatalf("seed %d: vaults=%d want <= 3", seed, vaults)
		}
		if got := b.Pools()[0].Placed("test.vault"); got != vaults {
			t.Fatalf("seed %d: pool count %d != placed %d", seed, got, vaults)
		}
		assertDisjoint(t, b.Pieces.Pieces())
	}
}

func TestBuilder_FillerClosesExhaustedBranches(t *testing.T) {
	archs := []cube{{kind: "test.hall", depth: 5}}
	tmpl := []selector.Descriptor{{ID: "test.hall", Weight: 1, Max: 2}}
	cfg := Config{MaxDepth: 20, LateralRadius: 200, Filler: cube{kind: "test.end", depth: 1}}
	b := newBuilder(cfg, archs, tmpl, 3)
	b.Run()
	ends := 0
	for _, p := range b.Pieces.Pieces() {
		if p.Kind == "test.end" {
			ends++
		}
	}
	if ends == 0 || ends != b.Stats.Fillers {
		t.Fatalf("ends=%d fillers=%d", ends, b.Stats.Fillers)
	}
	assertDisjoint(t, b.Pieces.Pieces())
}

func TestBuilder_RepeatRuleIsPerAttempt(t *testing.T) {
	archs := []cube{{kind: "test.root", depth: 3}}
	tmpl := []selector.Descriptor{{ID: "test.root", Weight: 1}}
	b := newBuilder(Config{MaxDepth: 5, LateralRadius: 100, RetryBudget: 3}, archs, tmpl, 4)
	b.Run()
	if b.Pieces.Len() != 1 {
		t.Fatalf("len=%d want 1 (root only)", b.Pieces.Len())
	}
	// Three child requests from the root, three draws each.
	if b.Stats.RepeatRejects != 9 {
		t.Fatalf("RepeatRejects=%d want 9", b.Stats.RepeatRejects)
	}
	if b.Pools()[0].Len() != 1 {
		t.Fatalf("repeat rejection removed the archetype from the pool")
	}
}

func TestBuilder_Deterministic(t *testing.T) {
	archs := []cube{
		{kind: "test.hall", depth: 5, turns: true},
		{kind: "test.vault", depth: 3, turns: true},
	}
	tmpl := []selector.Descriptor{
		{ID: "test.hall", Weight: 10, AllowInRow: true},
		{ID: "test.vault", Weight: 10, Max: 4},
	}
	cfg := Config{MaxDepth: 10, LateralRadius: 48, RetryBudget: 2, RandomOrder: true}
	a := newBuilder(cfg, archs, tmpl, 42)
	a.Run()
	b := newBuilder(cfg, archs, tmpl, 42)
	b.Run()
	pa, pb := a.Pieces.Pieces(), b.Pieces.Pieces()
	if len(pa) != len(pb) {
		t.Fatalf("len %d vs %d", len(pa), len(pb))
	}
	for i := range pa {
		if pa[i].String() != pb[i].String() {
			t.Fatalf("piece %d: %s vs %s", i, pa[i], pb[i])
		}
	}
}

func TestBuilder_UnfitIsNotACollision(t *testing.T) {
	archs := []cube{{kind: "test.vault", unfit: true}}
	tmpl := []selector.Descriptor{{ID: "test.vault", Weight: 1, AllowInRow: true}}
	b := newBuilder(Config{MaxDepth: 5, LateralRadius: 1000, RetryBudget: 2}, archs, tmpl, 4)
	b.Run()
	if n := b.Pieces.Len(); n != 1 {
		t.Fatalf("pieces=%d want 1", n)
	}
	// Three root exits, two draws each.
	if b.Stats.Unfit != 6 || b.Stats.Collisions != 0 {
		t.Fatalf("unfit=%d collisions=%d want 6,0", b.Stats.Unfit, b.Stats.Collisions)
	}
	if b.Stats.Map()["unfit"] != 6 {
		t.Fatalf("stats map=%v", b.Stats.Map())
	}
}
