package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxelstruct.ai/internal/buildsvc"
	persistlog "voxelstruct.ai/internal/persistence/log"
	"voxelstruct.ai/internal/persistence/snapshot"
	"voxelstruct.ai/internal/sim/families"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/tuning"
)

func sampleSnapshot(t *testing.T) snapshot.SnapshotV1 {
	t.Helper()
	reg := families.Default(tuning.Defaults())
	snap := snapshot.SnapshotV1{Header: snapshot.Header{Version: snapshot.Version, WorldID: "w", Seed: 9}}
	for i, fam := range reg.Families() {
		in, err := reg.Build(fam, [3]int{i * 200, 50, -i * 200}, geom.None, int64(100+i))
		if err != nil {
			t.Fatalf("Build %s: %v", fam, err)
		}
		st, err := in.Export()
		if err != nil {
			t.Fatalf("Export %s: %v", fam, err)
		}
		snap.Structures = append(snap.Structures, st)
	}
	return snap
}

func TestReplay_SnapshotMatches(t *testing.T) {
	snap := sampleSnapshot(t)
	r := &replayer{reg: families.Default(tuning.Defaults())}
	if err := r.snapshot(snap); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if want := 2 * len(snap.Structures); r.checked != want {
		t.Fatalf("checked=%d want %d", r.checked, want)
	}
	if r.mismatched != 0 {
		t.Fatalf("mismatched=%d", r.mismatched)
	}
}

func TestReplay_MismatchWritesAudit(t *testing.T) {
	snap := sampleSnapshot(t)
	snap.Structures[1].Digest = "deadbeef"

	dir := t.TempDir()
	al := persistlog.NewAuditLogger(dir)
	r := &replayer{reg: families.Default(tuning.Defaults()), audit: al, keepGoing: true}
	if err := r.snapshot(snap); err != nil {
		t.Fatalf("keep_going snapshot: %v", err)
	}
	if err := al.Close(); err != nil {
		t.Fatalf("close audit: %v", err)
	}
	// Both the rebuild and the import check disagree with the stored digest.
	if r.mismatched != 2 || al.Written() != 2 {
		t.Fatalf("mismatched=%d audits=%d want 2,2", r.mismatched, al.Written())
	}

	entries := readAuditDir(t, filepath.Join(dir, "audit"))
	if len(entries) != 2 {
		t.Fatalf("audit entries=%d want 2", len(entries))
	}
	for _, e := range entries {
		if e.Action != persistlog.AuditDigestMismatch || e.StructureID != snap.Structures[1].ID {
			t.Fatalf("audit=%+v", e)
		}
	}

	strict := &replayer{reg: families.Default(tuning.Defaults())}
	if err := strict.snapshot(snap); err == nil || !strings.Contains(err.Error(), "digest mismatch") {
		t.Fatalf("strict err=%v", err)
	}
}

func TestReplay_BuildLog(t *testing.T) {
	dir := t.TempDir()
	bl := persistlog.NewBuildLogger(dir)
	reg := families.Default(tuning.Defaults())
	for i, fam := range []string{"mineshaft", "fortress"} {
		in, err := reg.Build(fam, [3]int{0, 40, i * 300}, geom.East, int64(i))
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if err := bl.WriteBuild(buildsvc.EntryOf(in, time.Millisecond, "test")); err != nil {
			t.Fatalf("WriteBuild: %v", err)
		}
	}
	if err := bl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := listBuildFiles(filepath.Join(dir, "builds"))
	if err != nil || len(files) == 0 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	r := &replayer{reg: reg}
	for _, f := range files {
		if err := r.buildsFile(f); err != nil {
			t.Fatalf("buildsFile: %v", err)
		}
	}
	if r.checked != 2 || r.mismatched != 0 {
		t.Fatalf("checked=%d mismatched=%d", r.checked, r.mismatched)
	}
}

func TestRun_Flags(t *testing.T) {
	if code := run(nil); code != 2 {
		t.Fatalf("no inputs exit=%d want 2", code)
	}
	path := filepath.Join(t.TempDir(), "1.snap.zst")
	if err := snapshot.WriteSnapshot(path, sampleSnapshot(t)); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if code := run([]string{"-snapshot", path}); code != 0 {
		t.Fatalf("exit=%d want 0", code)
	}
}

func readAuditDir(t *testing.T, dir string) []persistlog.AuditEntry {
	t.Helper()
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read audit dir: %v", err)
	}
	var out []persistlog.AuditEntry
	for _, e := range ents {
		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		dec, err := zstd.NewReader(f)
		if err != nil {
			t.Fatalf("zstd: %v", err)
		}
		sc := bufio.NewScanner(dec)
		for sc.Scan() {
			var a persistlog.AuditEntry
			if err := json.Unmarshal(sc.Bytes(), &a); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			out = append(out, a)
		}
		dec.Close()
		_ = f.Close()
	}
	return out
}
