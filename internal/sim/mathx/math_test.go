package mathx

import "testing"

func TestFloorDivAndMod(t *testing.T) {
	cases := []struct {
		a, b int
		div  int
		mod  int
	}{
		{a: 0, b: 16, div: 0, mod: 0},
		{a: 15, b: 16, div: 0, mod: 15},
		{a: 16, b: 16, div: 1, mod: 0},
		{a: -1, b: 16, div: -1, mod: 15},
		{a: -16, b: 16, div: -1, mod: 0},
		{a: -17, b: 16, div: -2, mod: 15},
	}
	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.div {
			t.Fatalf("FloorDiv(%d,%d)=%d want %d", c.a, c.b, got, c.div)
		}
		if got := Mod(c.a, c.b); got != c.mod {
			t.Fatalf("Mod(%d,%d)=%d want %d", c.a, c.b, got, c.mod)
		}
	}
}

func TestHash3_StableAndSpread(t *testing.T) {
	a := Hash3(42, 0, 64, 0)
	if b := Hash3(42, 0, 64, 0); a != b {
		t.Fatalf("Hash3 not stable: %x vs %x", a, b)
	}
	if c := Hash3(42, 1, 64, 0); a == c {
		t.Fatalf("Hash3 collides on neighbouring x")
	}
	if d := Hash3(43, 0, 64, 0); a == d {
		t.Fatalf("Hash3 ignores seed")
	}
}

func TestHashString_DistinguishesNames(t *testing.T) {
	if HashString(1, "mineshaft") == HashString(1, "fortress") {
		t.Fatalf("HashString collides on family names")
	}
}
