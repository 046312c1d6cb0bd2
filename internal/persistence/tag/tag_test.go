package tag

import (
	"errors"
	"testing"
)

func TestCompound_TypedAccess(t *testing.T) {
	c := Compound{}
	c.PutInt("GD", 3)
	c.PutBool("hr", true)
	c.PutString("id", "mineshaft.corridor")
	c.PutInts("BB", []int{1, 2, 3, 4, 5, 6})

	if n, err := c.Int("GD"); err != nil || n != 3 {
		t.Fatalf("Int(GD)=%d,%v want 3", n, err)
	}
	if b, err := c.Bool("hr"); err != nil || !b {
		t.Fatalf("Bool(hr)=%v,%v", b, err)
	}
	if _, err := c.Int("nope"); !errors.Is(err, ErrMissing) {
		t.Fatalf("Int(nope) err=%v want ErrMissing", err)
	}
	if _, err := c.Int("id"); !errors.Is(err, ErrType) {
		t.Fatalf("Int(id) err=%v want ErrType", err)
	}
	if got := c.BoolOr("sc", true); !got {
		t.Fatalf("BoolOr default not used")
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	c := Compound{}
	c.PutString("id", "fortress.stalk_room")
	c.PutInts("BB", []int{-5, 40, 10, 7, 53, 22})
	c.PutInt("O", 2)
	c.PutInt("GD", 7)
	c.PutBool("Mob", false)
	c.PutLong("Seed", -1234567890123)
	c.PutIntLists("Entrances", [][]int{{0, 1, 2, 3, 4, 5}, {6, 7, 8, 9, 10, 11}})

	raw, err := Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(raw)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Canonical() != c.Canonical() {
		t.Fatalf("round trip mismatch:\n got %s\nwant %s", got.Canonical(), c.Canonical())
	}
	bb, err := got.Ints("BB")
	if err != nil || len(bb) != 6 || bb[0] != -5 || bb[5] != 22 {
		t.Fatalf("Ints(BB)=%v,%v", bb, err)
	}
	ents, err := got.IntLists("Entrances")
	if err != nil || len(ents) != 2 || ents[1][5] != 11 {
		t.Fatalf("IntLists(Entrances)=%v,%v", ents, err)
	}
}

func TestUnmarshal_Garbage(t *testing.T) {
	if _, err := Unmarshal([]byte{0x0a, 0x00}); err == nil {
		t.Fatalf("expected error for truncated compound")
	}
}
