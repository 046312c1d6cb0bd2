package monument

import (
	"testing"

	"voxelstruct.ai/internal/persistence/tag"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/grid"
	"voxelstruct.ai/internal/sim/paint"
	"voxelstruct.ai/internal/sim/piece"
	"voxelstruct.ai/internal/sim/rng"
	"voxelstruct.ai/internal/sim/structure"
	"voxelstruct.ai/internal/sim/tuning"
)

func build(t *testing.T, seed int64, f geom.Facing) *structure.Instance {
	t.Helper()
	tun := tuning.Defaults()
	reg := structure.NewRegistry(New(tun.Monument, tun.SeaLevel))
	in, err := reg.Build(Family, [3]int{int(seed) * 160, 0, int(seed) * -96}, f, seed)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return in
}

func isRoom(k piece.Kind) bool {
	return k != KindBuilding && k != KindWing && k != KindPenthouse
}

func TestLayout_NoOverlapOutsideShell(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		in := build(t, seed, geom.None)
		if ov := in.Overlaps(); len(ov) != 0 {
			t.Fatalf("seed %d: overlapping pieces %v", seed, ov)
		}
		shell := in.Root().Box
		for _, p := range in.Pieces[1:] {
			if !shell.ContainsBox(p.Box) {
				t.Fatalf("seed %d: %s leaves shell %s", seed, p, shell)
			}
		}
	}
}

func TestLayout_RoomsCoverLattice(t *testing.T) {
	const cellVolume = cellW * cellH * cellW
	for seed := int64(0); seed < 20; seed++ {
		in := build(t, seed, geom.None)
		vol := 0
		for _, p := range in.Pieces {
			if isRoom(p.Kind) {
				vol += p.Box.Volume()
			}
		}
		if got := vol / cellVolume; got != 46 || vol%cellVolume != 0 {
			t.Fatalf("seed %d: rooms cover %d cells (volume %d) want 46", seed, got, vol)
		}
		kinds := in.CountKinds()
		if kinds[KindEntry] != 1 || kinds[KindCore] != 1 || kinds[KindWing] != 2 || kinds[KindPenthouse] != 1 {
			t.Fatalf("seed %d: kinds %v", seed, kinds)
		}
	}
}

func TestLayout_Deterministic(t *testing.T) {
	a := build(t, 9, geom.None)
	b := build(t, 9, geom.None)
	if a.Built != b.Built || len(a.Pieces) != len(b.Pieces) {
		t.Fatalf("digest %s/%d != %s/%d", a.Built, len(a.Pieces), b.Built, len(b.Pieces))
	}
}

func TestLayout_ShellFacing(t *testing.T) {
	for _, f := range geom.Horizontals {
		in := build(t, 4, f)
		root := in.Root()
		if root.Facing != f {
			t.Fatalf("facing=%s want %s", root.Facing, f)
		}
		if root.Box.SpanX() != shellW || root.Box.SpanZ() != shellW || root.Box.SpanY() != shellH {
			t.Fatalf("shell %s want %dx%dx%d", root.Box, shellW, shellH, shellW)
		}
		if root.Box.MinY != tuning.Defaults().Monument.BaseY {
			t.Fatalf("shell base y=%d", root.Box.MinY)
		}
		for _, p := range in.Pieces {
			if p.Kind == KindCore && (p.Box.SpanX() != 16 || p.Box.SpanY() != 8 || p.Box.SpanZ() != 16) {
				t.Fatalf("core box %s want 16x8x16", p.Box)
			}
		}
	}
}

func TestPrune_KeepsEverySlotReachable(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		r := rng.New(seed)
		l, entry := newLattice()
		grid.ClaimShape(l.At(r.Intn(4), 0, 2), coreSteps)
		l.ResetOpenings()
		l.Prune(r, grid.PruneConfig{Cuts: 2, Tries: 5})
		if !entry.Root {
			t.Fatalf("entry is not the root")
		}
		if got, want := len(l.Reachable()), len(l.Slots())+len(l.Specials()); got != want {
			t.Fatalf("seed %d: reachable=%d want %d", seed, got, want)
		}
	}
}

func TestLayout_ForcedDraws(t *testing.T) {
	g := New(tuning.Defaults().Monument, 63)
	// Every draw takes its largest value: core in column 3, every prune try
	// heads east, simple rooms use the third design.
	lay := g.Layout(structure.Request{
		Family: Family, X: 29, Z: 29, Facing: geom.South,
		R: rng.Script(func(n int) int { return n - 1 }),
	})
	want := map[piece.Kind]geom.Box{
		KindBuilding: {MinX: 0, MinY: 39, MinZ: 0, MaxX: 57, MaxY: 61, MaxZ: 57},
		KindEntry:    {MinX: 25, MinY: 39, MinZ: 22, MaxX: 32, MaxY: 42, MaxZ: 29},
		KindCore:     {MinX: 33, MinY: 39, MinZ: 38, MaxX: 48, MaxY: 46, MaxZ: 53},
	}
	for _, p := range lay.Pieces {
		if b, ok := want[p.Kind]; ok && p.Box != b {
			t.Fatalf("%s box %s want %s", p.Kind, p.Box, b)
		}
		if k, ok := p.Body.(*SimpleRoom); ok && k.Design != 2 {
			t.Fatalf("simple room design=%d want 2", k.Design)
		}
	}
	if got := lay.Pieces[len(lay.Pieces)-3].Body.(*Wing).Design; got != 1 {
		t.Fatalf("left wing design=%d want 1", got)
	}
	if len(lay.Seams) != len(lay.Pieces)-1 {
		t.Fatalf("seams=%d want %d", len(lay.Seams), len(lay.Pieces)-1)
	}
}

func TestDecoders_RoundTrip(t *testing.T) {
	in := build(t, 17, geom.None)
	reg := New(tuning.Defaults().Monument, 63).Decoders()
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
	}

	bad := tag.Compound{}
	bad.PutIntLists("Cells", [][]int{{0, 0, 0}})
	if _, err := decodeRoom(bad); err == nil {
		t.Fatalf("expected error for short cell row")
	}
	noSeed := tag.Compound{}
	noSeed.PutIntLists("Cells", [][]int{{0, 0, 0, 1, 0, 0}})
	if _, err := decodeTopRoom(noSeed); err == nil {
		t.Fatalf("expected error for top room without a seed")
	}
}

func TestTopRoom_PaintIsStable(t *testing.T) {
	box := geom.Sized(0, 40, 0, geom.South, 8, 4, 8)
	k := &TopRoom{Room: Room{Cells: []Cell{{Floor: 1}}}, Seed: 99}
	p := &piece.Piece{Kind: KindSimpleTop, Box: box, Facing: geom.South, Body: k}
	clip := geom.ChunkPos{}.Column(0, 255)

	a := paint.NewMemWorld(0)
	p.Paint(a, clip, rng.New(1), geom.ChunkPos{})
	b := paint.NewMemWorld(0)
	p.Paint(b, clip, rng.New(2), geom.ChunkPos{})
	if !a.Equal(b) {
		t.Fatalf("sponge columns depend on the chunk stream")
	}
}

func TestElders_SpawnOnce(t *testing.T) {
	in := build(t, 3, geom.East)
	w := paint.NewMemWorld(0)
	in.PaintAll(w)
	in.PaintAll(w)

	n := 0
	for _, e := range w.Spawns() {
		if e.Kind == paint.EntityMob && e.Details == elder {
			n++
		}
	}
	if n != 3 {
		t.Fatalf("elders=%d want 3", n)
	}
	for _, p := range in.Pieces {
		switch k := p.Body.(type) {
		case *Wing:
			if !k.Spawned {
				t.Fatalf("%s: elder flag not set", p)
			}
		case *Penthouse:
			if !k.Spawned {
				t.Fatalf("%s: elder flag not set", p)
			}
		}
	}
}

func TestPaint_RepaintIsIdempotent(t *testing.T) {
	in := build(t, 5, geom.West)
	x, _, z := in.Root().Box.Center()
	chunk := geom.ChunkAt(x, z)
	a := paint.NewMemWorld(0)
	in.PaintChunk(a, chunk)
	once := a.Len()
	in.PaintChunk(a, chunk)

	b := paint.NewMemWorld(0)
	in.PaintChunk(b, chunk)
	if a.Len() != once || !a.Equal(b) {
		t.Fatalf("second paint changed the chunk")
	}
}
