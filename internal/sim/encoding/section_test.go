package encoding

import (
	"strings"
	"testing"

	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/paint"
)

func TestRLE_RoundTrip(t *testing.T) {
	in := make([]uint16, 0, 200)
	in = append(in, 1, 1, 1, 2, 2, 3)
	for i := 0; i < 50; i++ {
		in = append(in, 7)
	}
	in = append(in, 9, 10, 10, 10)

	out, err := DecodeRLE(EncodeRLE(in), 0)
	if err != nil {
		t.Fatalf("DecodeRLE: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len=%d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("[%d]=%d want %d", i, out[i], in[i])
		}
	}
	if _, err := DecodeRLE(EncodeRLE(in), 10); err == nil {
		t.Fatalf("expected cap error")
	}
}

func TestSection_RoundTrip(t *testing.T) {
	w := paint.NewMemWorld(0)
	// Chunk (-1,2) spans x -16..-1, z 32..47.
	w.SetBlock(-16, 10, 32, paint.Stone)
	w.SetBlock(-1, 11, 47, paint.Torch)
	w.SetBlock(-5, 10, 40, paint.Stone)
	w.SetBlock(0, 10, 32, paint.Planks) // next chunk over

	s := EncodeSection(w, geom.ChunkPos{X: -1, Z: 2}, 10, 11)
	if s.Volume() != 512 {
		t.Fatalf("volume=%d want 512", s.Volume())
	}
	if strings.Join(s.Palette, ",") != "air,stone,torch" {
		t.Fatalf("palette=%v", s.Palette)
	}

	blocks, err := s.Blocks()
	if err != nil {
		t.Fatalf("Blocks: %v", err)
	}
	at := func(x, y, z int) paint.Block {
		return blocks[(x+16)+(z-32)*16+(y-10)*256]
	}
	cases := []struct {
		x, y, z int
		want    paint.Block
	}{
		{-16, 10, 32, paint.Stone},
		{-1, 11, 47, paint.Torch},
		{-5, 10, 40, paint.Stone},
		{-5, 11, 40, paint.Air},
	}
	for _, tc := range cases {
		if got := at(tc.x, tc.y, tc.z); got != tc.want {
			t.Fatalf("(%d,%d,%d)=%s want %s", tc.x, tc.y, tc.z, got, tc.want)
		}
	}

	s.Palette = append(s.Palette[:1], "bogus")
	if _, err := s.Blocks(); err == nil {
		t.Fatalf("expected unknown block error")
	}
}
