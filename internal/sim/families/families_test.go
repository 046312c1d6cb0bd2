package families_test

import (
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"voxelstruct.ai/internal/persistence/snapshot"
	"voxelstruct.ai/internal/sim/families"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/structure"
	"voxelstruct.ai/internal/sim/tuning"
)

var all = []string{"fortress", "mansion", "mineshaft", "monument"}

func TestDefault_RegistersEveryFamily(t *testing.T) {
	reg := families.Default(tuning.Defaults())
	if got := reg.Families(); !reflect.DeepEqual(got, all) {
		t.Fatalf("families=%v want %v", got, all)
	}
	if _, err := reg.Build("village", [3]int{}, geom.None, 1); err == nil {
		t.Fatalf("expected error for an unknown family")
	}
}

func TestBuild_EveryFamilyIsDisjointAndDeterministic(t *testing.T) {
	reg := families.Default(tuning.Defaults())
	for _, fam := range all {
		for seed := int64(1); seed <= 4; seed++ {
			anchor := [3]int{int(seed) * 512, 64, int(seed) * -256}
			a, err := reg.Build(fam, anchor, geom.None, seed)
			if err != nil {
				t.Fatalf("%s: %v", fam, err)
			}
			if len(a.Pieces) == 0 {
				t.Fatalf("%s seed %d: no pieces", fam, seed)
			}
			if ov := a.Overlaps(); len(ov) != 0 {
				t.Fatalf("%s seed %d: overlaps %v", fam, seed, ov)
			}
			b, _ := reg.Build(fam, anchor, geom.None, seed)
			if a.Built != b.Built {
				t.Fatalf("%s seed %d: digest %s != %s", fam, seed, a.Built, b.Built)
			}
			if a.ID != b.ID {
				t.Fatalf("%s seed %d: id %s != %s", fam, seed, a.ID, b.ID)
			}
		}
	}
}

func TestBuild_ConcurrentBuildsAgree(t *testing.T) {
	reg := families.Default(tuning.Defaults())
	want := map[string]string{}
	for _, fam := range all {
		in, _ := reg.Build(fam, [3]int{100, 64, 100}, geom.None, 77)
		want[fam] = in.Built
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var bad []string
	for i := 0; i < 8; i++ {
		for _, fam := range all {
			wg.Add(1)
			go func(fam string) {
				defer wg.Done()
				in, err := reg.Build(fam, [3]int{100, 64, 100}, geom.None, 77)
				if err != nil || in.Built != want[fam] {
					mu.Lock()
					bad = append(bad, fam)
					mu.Unlock()
				}
			}(fam)
		}
	}
	wg.Wait()
	if len(bad) != 0 {
		t.Fatalf("concurrent builds diverged: %v", bad)
	}
}

func TestSnapshot_RoundTripKeepsDigests(t *testing.T) {
	reg := families.Default(tuning.Defaults())
	snap := snapshot.SnapshotV1{Header: snapshot.Header{WorldID: "overworld", Seed: 5}}
	built := map[string]*structure.Instance{}
	for i, fam := range all {
		in, err := reg.Build(fam, [3]int{i * 1000, 64, 0}, geom.None, 5)
		if err != nil {
			t.Fatalf("Build %s: %v", fam, err)
		}
		s, err := in.Export()
		if err != nil {
			t.Fatalf("Export %s: %v", fam, err)
		}
		snap.Structures = append(snap.Structures, s)
		built[s.ID] = in
	}

	path := filepath.Join(t.TempDir(), "snap", "structures.zst")
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	back, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if back.Header.Count != len(all) {
		t.Fatalf("count=%d want %d", back.Header.Count, len(all))
	}
	for _, s := range back.Structures {
		in, errs := structure.Import(s, reg.Decoders())
		if len(errs) != 0 {
			t.Fatalf("Import %s: %v", s.Family, errs)
		}
		orig := built[s.ID]
		if got := in.Digest(); got != orig.Built {
			t.Fatalf("%s: digest after import %s want %s", s.Family, got, orig.Built)
		}
		if len(in.Seams) != len(orig.Seams) {
			t.Fatalf("%s: seams=%d want %d", s.Family, len(in.Seams), len(orig.Seams))
		}
		if len(in.Pools) != len(orig.Pools) {
			t.Fatalf("%s: pools=%d want %d", s.Family, len(in.Pools), len(orig.Pools))
		}
		for i, p := range orig.Pools {
			if in.Pools[i].Name != p.Name || !reflect.DeepEqual(in.Pools[i].Counts(), p.Counts()) {
				t.Fatalf("%s: pool %s counts=%v want %v", s.Family, p.Name, in.Pools[i].Counts(), p.Counts())
			}
		}
	}
}

func TestImport_DropsCorruptPiece(t *testing.T) {
	reg := families.Default(tuning.Defaults())
	in, _ := reg.Build("monument", [3]int{0, 0, 0}, geom.South, 3)
	s, err := in.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	s.Pieces[2] = []byte("not a tag")

	back, errs := structure.Import(s, reg.Decoders())
	if len(errs) != 1 {
		t.Fatalf("errors=%v want one", errs)
	}
	if len(back.Pieces) != len(in.Pieces)-1 {
		t.Fatalf("pieces=%d want %d", len(back.Pieces), len(in.Pieces)-1)
	}
	// Every monument seam pairs the shell with a room; the one naming the
	// dropped room goes with it.
	if len(back.Seams) != len(in.Seams)-1 {
		t.Fatalf("seams=%d want %d", len(back.Seams), len(in.Seams)-1)
	}
}
