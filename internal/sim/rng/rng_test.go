package rng

import "testing"

func TestSource_Deterministic(t *testing.T) {
	a := ForStructure(42, 0, 64, 0, "mineshaft")
	b := ForStructure(42, 0, 64, 0, "mineshaft")
	for i := 0; i < 100; i++ {
		if x, y := a.Intn(1000), b.Intn(1000); x != y {
			t.Fatalf("draw %d: %d vs %d", i, x, y)
		}
	}
	c := ForStructure(42, 0, 64, 0, "fortress")
	same := 0
	a = ForStructure(42, 0, 64, 0, "mineshaft")
	for i := 0; i < 32; i++ {
		if a.Int63() == c.Int63() {
			same++
		}
	}
	if same == 32 {
		t.Fatalf("family name does not affect the stream")
	}
}

func TestSource_IntnRange(t *testing.T) {
	s := New(7)
	seen := make([]int, 6)
	for i := 0; i < 6000; i++ {
		v := s.Intn(6)
		if v < 0 || v >= 6 {
			t.Fatalf("Intn(6)=%d out of range", v)
		}
		seen[v]++
	}
	for d, n := range seen {
		if n == 0 {
			t.Fatalf("Intn(6) never produced %d", d)
		}
	}
}

func TestScript_Wraps(t *testing.T) {
	s := Script(func(n int) int { return n + 1 })
	if got := s.Intn(4); got != 1 {
		t.Fatalf("Intn(4)=%d want 1", got)
	}
	neg := Script(func(n int) int { return -1 })
	if got := neg.Intn(6); got != 5 {
		t.Fatalf("Intn(6)=%d want 5", got)
	}
}

func TestShuffle_IdentityUnderMaxScript(t *testing.T) {
	xs := []int{0, 1, 2, 3, 4}
	Shuffle(Script(func(n int) int { return n - 1 }), len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
	for i, v := range xs {
		if v != i {
			t.Fatalf("xs=%v want identity", xs)
		}
	}
}

func TestBetween(t *testing.T) {
	s := New(1)
	for i := 0; i < 200; i++ {
		if v := Between(s, 3, 5); v < 3 || v > 5 {
			t.Fatalf("Between(3,5)=%d", v)
		}
	}
	if v := Between(s, 4, 4); v != 4 {
		t.Fatalf("Between(4,4)=%d want 4", v)
	}
}
