package mineshaft

import (
	"testing"

	"voxelstruct.ai/internal/persistence/tag"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/mathx"
	"voxelstruct.ai/internal/sim/paint"
	"voxelstruct.ai/internal/sim/piece"
	"voxelstruct.ai/internal/sim/rng"
	"voxelstruct.ai/internal/sim/structure"
	"voxelstruct.ai/internal/sim/tuning"
)

func build(t *testing.T, spec tuning.ChainSpec, seed int64, anchor [3]int) *structure.Instance {
	t.Helper()
	reg := structure.NewRegistry(New(spec))
	in, err := reg.Build(Family, anchor, geom.None, seed)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return in
}

func rngFor(seed int64) rng.Stream { return rng.New(uint64(seed)) }

func TestLayout_Seed42Scenario(t *testing.T) {
	spec := tuning.Defaults().Mineshaft
	in := build(t, spec, 42, [3]int{0, 64, 0})
	if len(in.Pieces) == 0 {
		t.Fatalf("no pieces")
	}
	root := in.Root()
	if root.Kind != KindRoom || root.Depth != 0 {
		t.Fatalf("root=%s want room at depth 0", root)
	}
	if d := in.MaxDepth(); d > 8 {
		t.Fatalf("max depth=%d want <= 8", d)
	}
	for _, p := range in.Pieces {
		for _, x := range []int{p.Box.MinX, p.Box.MaxX} {
			for _, z := range []int{p.Box.MinZ, p.Box.MaxZ} {
				if d := max(mathx.AbsInt(x), mathx.AbsInt(z)); d > 80 {
					t.Fatalf("%s is %d blocks from the anchor", p, d)
				}
			}
		}
	}
	if ov := in.Overlaps(); len(ov) != 0 {
		t.Fatalf("overlapping pieces: %v", ov)
	}
}

func TestLayout_NoOverlapAcrossSeeds(t *testing.T) {
	spec := tuning.Defaults().Mineshaft
	for seed := int64(0); seed < 30; seed++ {
		in := build(t, spec, seed, [3]int{int(seed) * 100, 40, -int(seed) * 37})
		if ov := in.Overlaps(); len(ov) != 0 {
			t.Fatalf("seed %d: overlapping pieces %v", seed, ov)
		}
		for i, p := range in.Pieces[1:] {
			if p.Depth < 1 {
				t.Fatalf("seed %d: piece %d depth=%d want >= 1", seed, i+1, p.Depth)
			}
		}
	}
}

func TestLayout_Deterministic(t *testing.T) {
	spec := tuning.Defaults().Mineshaft
	a := build(t, spec, 7, [3]int{16, 30, -48})
	b := build(t, spec, 7, [3]int{16, 30, -48})
	if a.Built != b.Built {
		t.Fatalf("digest %s != %s", a.Built, b.Built)
	}
	if len(a.Pieces) != len(b.Pieces) {
		t.Fatalf("pieces=%d want %d", len(b.Pieces), len(a.Pieces))
	}
	for i := range a.Pieces {
		if a.Pieces[i].Box != b.Pieces[i].Box || a.Pieces[i].Kind != b.Pieces[i].Kind {
			t.Fatalf("piece %d differs: %s vs %s", i, a.Pieces[i], b.Pieces[i])
		}
	}
}

func TestLayout_SinksBelowTop(t *testing.T) {
	spec := tuning.Defaults().Mineshaft
	for seed := int64(0); seed < 10; seed++ {
		in := build(t, spec, seed, [3]int{0, 200, 0})
		b := in.Bounds()
		if b.SpanY()+1 < spec.TopBelow && b.MaxY >= spec.TopBelow {
			t.Fatalf("seed %d: top=%d want < %d", seed, b.MaxY, spec.TopBelow)
		}
	}

	spec.TopBelow = 0
	in := build(t, spec, 3, [3]int{0, 200, 0})
	if in.Root().Box.MinY != 200 {
		t.Fatalf("root y=%d want 200 when sinking is off", in.Root().Box.MinY)
	}
}

func TestRoom_EntrancesFollowMove(t *testing.T) {
	spec := tuning.Defaults().Mineshaft
	spec.TopBelow = 0
	in := build(t, spec, 11, [3]int{0, 100, 0})
	room := in.Root().Body.(*Room)
	if len(room.Entrances) == 0 {
		t.Skip("seed produced a room without exits")
	}
	before := room.Entrances[0]
	c := piece.NewCollection()
	for _, p := range in.Pieces {
		c.Add(p)
	}
	c.Move(0, -20, 0)
	if got := room.Entrances[0]; got != before.Translated(0, -20, 0) {
		t.Fatalf("entrance=%v want %v", got, before.Translated(0, -20, 0))
	}
}

func TestDecoders_RoundTrip(t *testing.T) {
	spec := tuning.Defaults().Mineshaft
	spec.Variant = "mesa"
	g := New(spec)
	in := build(t, spec, 99, [3]int{0, 64, 0})
	reg := g.Decoders()
	seen := map[piece.Kind]bool{}
	for _, p := range in.Pieces {
		want := piece.Encode(p)
		raw, err := tag.Marshal(want)
		if err != nil {
			t.Fatalf("Marshal %s: %v", p, err)
		}
		back, err := tag.Unmarshal(raw)
		if err != nil {
			t.Fatalf("Unmarshal %s: %v", p, err)
		}
		q, err := reg.Decode(back)
		if err != nil {
			t.Fatalf("Decode %s: %v", p, err)
		}
		if got := piece.Encode(q).Canonical(); got != want.Canonical() {
			t.Fatalf("round trip:\n got %s\nwant %s", got, want.Canonical())
		}
		if mst := want.IntOr("MST", -1); mst != VariantMesa {
			t.Fatalf("%s MST=%d want %d", p.Kind, mst, VariantMesa)
		}
		seen[p.Kind] = true
	}
	if !seen[KindRoom] || !seen[KindCorridor] {
		t.Fatalf("kinds seen=%v", seen)
	}
}

func TestDecodeCorridor_RequiresSections(t *testing.T) {
	if _, err := decodeCorridor(tag.Compound{}); err == nil {
		t.Fatalf("expected error for missing Num")
	}
	if _, err := decodeCrossing(tag.Compound{"D": int32(-1)}); err == nil {
		t.Fatalf("expected error for crossing without a facing")
	}
}

func TestCorridor_SpiderSpawnerOnce(t *testing.T) {
	box := geom.Oriented(0, 10, 0, 0, 0, 0, 3, 3, 10, geom.South)
	p := &piece.Piece{Kind: KindCorridor, Box: box, Facing: geom.South, Depth: 1}
	k := &Corridor{Spider: true, Sections: 2}
	p.Body = k
	w := paint.NewMemWorld(0)
	// A stone shell so supports and carts have something to stand on.
	for x := -1; x <= 3; x++ {
		for y := 8; y <= 14; y++ {
			for z := -1; z <= 10; z++ {
				w.SetBlock(x, y, z, paint.Stone)
			}
		}
	}
	clip := geom.ChunkPos{}.Column(0, 255)
	for i := 0; i < 3; i++ {
		p.Paint(w, clip, rngFor(int64(i)), geom.ChunkPos{})
	}
	spawners := 0
	for _, e := range w.Spawns() {
		if e.Kind == paint.EntitySpawner {
			spawners++
		}
	}
	if spawners != 1 || !k.Spawned {
		t.Fatalf("spawners=%d spawned=%v want 1,true", spawners, k.Spawned)
	}
}

func TestCorridor_FloorAndPillarsBelowBox(t *testing.T) {
	box := geom.Oriented(0, 10, 0, 0, 0, 0, 3, 3, 10, geom.South)
	k := &Corridor{Sections: 2}
	p := &piece.Piece{Kind: KindCorridor, Box: box, Facing: geom.South, Depth: 1, Body: k}
	mat := materialOf(k.MST)
	w := paint.NewMemWorld(2)
	clip, _ := box.Clip(geom.ChunkPos{}.Column(0, 255))
	for i := 0; i < 2; i++ {
		p.Paint(w, clip, rngFor(7), geom.ChunkPos{})
	}
	f := geom.Frame{Box: box, Facing: geom.South}
	for x := 0; x <= 2; x++ {
		for z := 0; z <= 9; z++ {
			wx, wy, wz := f.World(x, -1, z)
			if b := w.Block(wx, wy, wz); b != mat.planks {
				t.Fatalf("floor (%d,%d,%d)=%s want %s", wx, wy, wz, b, mat.planks)
			}
		}
	}
	for _, at := range [][2]int{{0, 2}, {2, 2}, {0, 7}, {2, 7}} {
		wx, wy, wz := f.World(at[0], -2, at[1])
		for y := wy; y >= 2; y-- {
			if b := w.Block(wx, y, wz); b != mat.wood {
				t.Fatalf("pillar (%d,%d,%d)=%s want %s", wx, y, wz, b, mat.wood)
			}
		}
	}
}
