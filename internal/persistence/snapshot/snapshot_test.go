package snapshot

import (
	"path/filepath"
	"testing"
)

func TestWriteReadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap", "structures.snap.zst")
	in := SnapshotV1{
		Header: Header{WorldID: "overworld", Seed: 42},
		Structures: []StructureV1{{
			ID:     "6f2c",
			Family: "mineshaft",
			Seed:   42,
			Anchor: [3]int{0, 64, 0},
			Facing: -1,
			Bounds: [6]int{-40, 20, -40, 40, 50, 40},
			Digest: "abc",
			Pieces: [][]byte{{10, 0, 0, 0}, {10, 0, 0, 1}},
			Seams:  [][2]int{{0, 1}},
			Pools:  []PoolV1{{Name: "mineshaft", Placed: map[string]int{"mineshaft.corridor": 7}}},
		}},
	}
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.Version != Version || h.Count != 1 || h.Seed != 42 {
		t.Fatalf("header=%+v", h)
	}
	out, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if len(out.Structures) != 1 {
		t.Fatalf("structures=%d want 1", len(out.Structures))
	}
	s := out.Structures[0]
	if s.Family != "mineshaft" || s.Anchor != [3]int{0, 64, 0} || len(s.Pieces) != 2 || s.Pieces[1][3] != 1 {
		t.Fatalf("structure=%+v", s)
	}
	if s.Pools[0].Placed["mineshaft.corridor"] != 7 {
		t.Fatalf("pools=%+v", s.Pools)
	}
}

func TestReadSnapshot_Missing(t *testing.T) {
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.zst")); err == nil {
		t.Fatalf("expected error")
	}
}
