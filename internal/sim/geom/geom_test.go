package geom

import "testing"

func TestFromCorners_SortsAxes(t *testing.T) {
	b := FromCorners(5, 9, -3, 1, 2, 4)
	want := Box{MinX: 1, MinY: 2, MinZ: -3, MaxX: 5, MaxY: 9, MaxZ: 4}
	if b != want {
		t.Fatalf("FromCorners=%v want %v", b, want)
	}
}

func TestOriented_AllFacings(t *testing.T) {
	// A 5 wide, 10 tall, 19 deep bridge anchored at (100,64,200) with offset (-1,-3,0).
	cases := []struct {
		f    Facing
		want Box
	}{
		{f: South, want: Box{99, 61, 200, 103, 70, 218}},
		{f: North, want: Box{99, 61, 182, 103, 70, 200}},
		{f: West, want: Box{82, 61, 199, 100, 70, 203}},
		{f: East, want: Box{100, 61, 199, 118, 70, 203}},
	}
	for _, c := range cases {
		got := Oriented(100, 64, 200, -1, -3, 0, 5, 10, 19, c.f)
		if got != c.want {
			t.Fatalf("Oriented(%s)=%v want %v", c.f, got, c.want)
		}
		if got.SpanY() != 10 {
			t.Fatalf("Oriented(%s) spanY=%d want 10", c.f, got.SpanY())
		}
	}
}

func TestBox_IntersectsIsInclusive(t *testing.T) {
	a := Box{0, 0, 0, 4, 4, 4}
	touching := Box{4, 0, 0, 8, 4, 4}
	apart := Box{5, 0, 0, 8, 4, 4}
	if !a.Intersects(touching) {
		t.Fatalf("boxes sharing a face must intersect")
	}
	if a.Intersects(apart) {
		t.Fatalf("adjacent boxes must not intersect")
	}
}

func TestBox_TranslatedDoesNotAlias(t *testing.T) {
	a := Box{0, 0, 0, 1, 1, 1}
	b := a.Translated(10, 0, -2)
	if a.MinX != 0 {
		t.Fatalf("Translated mutated receiver: %v", a)
	}
	if b != (Box{10, 0, -2, 11, 1, -1}) {
		t.Fatalf("Translated=%v", b)
	}
}

func TestBox_ClipAndEncapsulate(t *testing.T) {
	a := Box{0, 0, 0, 10, 10, 10}
	b := Box{5, -5, 8, 20, 3, 9}
	c, ok := a.Clip(b)
	if !ok || c != (Box{5, 0, 8, 10, 3, 9}) {
		t.Fatalf("Clip=%v ok=%v", c, ok)
	}
	if _, ok := a.Clip(Box{11, 0, 0, 12, 1, 1}); ok {
		t.Fatalf("Clip of disjoint boxes reported overlap")
	}
	if e := a.Encapsulate(b); e != (Box{0, -5, 0, 20, 10, 10}) {
		t.Fatalf("Encapsulate=%v", e)
	}
}

func TestFromArray_RejectsInverted(t *testing.T) {
	if _, err := FromArray([6]int{3, 0, 0, 1, 1, 1}); err == nil {
		t.Fatalf("expected error for inverted box")
	}
	b, err := FromArray(Box{1, 2, 3, 4, 5, 6}.Array())
	if err != nil || b != (Box{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("FromArray=%v err=%v", b, err)
	}
}

func TestFrame_MatchesOrientedBox(t *testing.T) {
	// Local (0,0,0)..(4,9,18) of a frame must be exactly the frame's box.
	for _, f := range Horizontals {
		box := Oriented(0, 64, 0, -1, -3, 0, 5, 10, 19, f)
		fr := Frame{Box: box, Facing: f}
		if got := fr.WorldBox(0, 0, 0, 4, 9, 18); got != box {
			t.Fatalf("facing %s: WorldBox=%v want %v", f, got, box)
		}
	}
}

func TestFrame_ForwardIsFacing(t *testing.T) {
	for _, f := range Horizontals {
		box := Oriented(0, 0, 0, 0, 0, 0, 3, 3, 9, f)
		fr := Frame{Box: box, Facing: f}
		x0, _, z0 := fr.World(1, 0, 0)
		x1, _, z1 := fr.World(1, 0, 1)
		dx, dz := f.Step()
		if x1-x0 != dx || z1-z0 != dz {
			t.Fatalf("facing %s: local +z moved (%d,%d) want (%d,%d)", f, x1-x0, z1-z0, dx, dz)
		}
	}
}

func TestFacing_Rotations(t *testing.T) {
	for _, f := range Horizontals {
		if f.Clockwise().CounterClockwise() != f {
			t.Fatalf("%s: cw/ccw not inverse", f)
		}
		if f.Opposite().Opposite() != f {
			t.Fatalf("%s: opposite not involution", f)
		}
		if FromQuarterTurns(f.QuarterTurns()) != f {
			t.Fatalf("%s: quarter turns round trip failed", f)
		}
		dx, dz := North.Step()
		rx, rz := RotateXZ(dx, dz, f.QuarterTurns())
		wx, wz := f.Step()
		if rx != wx || rz != wz {
			t.Fatalf("RotateXZ(north,%d)=(%d,%d) want (%d,%d)", f.QuarterTurns(), rx, rz, wx, wz)
		}
	}
}

func TestParseFacing(t *testing.T) {
	cases := []struct {
		in   string
		want Facing
	}{
		{in: "north", want: North},
		{in: "E", want: East},
		{in: "", want: None},
		{in: "90", want: East},
		{in: "180", want: South},
		{in: "-1", want: West},
	}
	for _, c := range cases {
		got, err := ParseFacing(c.in)
		if err != nil || got != c.want {
			t.Fatalf("ParseFacing(%q)=%s,%v want %s", c.in, got, err, c.want)
		}
	}
	if _, err := ParseFacing("up"); err == nil {
		t.Fatalf("expected error for bad facing")
	}
}

func TestChunksTouching(t *testing.T) {
	got := ChunksTouching(Box{-1, 0, 15, 16, 10, 16})
	if len(got) != 6 {
		t.Fatalf("ChunksTouching len=%d want 6 (%v)", len(got), got)
	}
	if got[0] != (ChunkPos{X: -1, Z: 0}) || got[len(got)-1] != (ChunkPos{X: 1, Z: 1}) {
		t.Fatalf("ChunksTouching order=%v", got)
	}
	col := ChunkPos{X: -1, Z: 2}.Column(0, 255)
	if col.MinX != -16 || col.MaxX != -1 || col.MinZ != 32 || col.MaxZ != 47 {
		t.Fatalf("Column=%v", col)
	}
}

func TestFrame_NonePassesThrough(t *testing.T) {
	fr := Frame{Box: Box{10, 20, 30, 15, 25, 35}, Facing: None}
	x, y, z := fr.World(3, 4, 5)
	if x != 3 || y != 4 || z != 5 {
		t.Fatalf("World=(%d,%d,%d) want (3,4,5)", x, y, z)
	}
}
