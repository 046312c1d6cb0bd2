package buildsvc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	vlog "voxelstruct.ai/internal/persistence/log"
	"voxelstruct.ai/internal/persistence/snapshot"
	"voxelstruct.ai/internal/protocol"
)

type memAudit struct{ entries []vlog.AuditEntry }

func (m *memAudit) WriteAudit(e vlog.AuditEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func TestSnapshot_WriteAndRestore(t *testing.T) {
	s := newService(nil, 0)
	var ids []string
	for i, fam := range s.Families() {
		in, err := s.Build(context.Background(), protocol.BuildMsg{Family: fam, Seed: int64(i), Anchor: [3]int{i * 300, 64, 0}}, "test")
		if err != nil {
			t.Fatalf("Build %s: %v", fam, err)
		}
		ids = append(ids, in.ID.String())
	}

	dir := filepath.Join(t.TempDir(), "snapshots")
	path, snap, err := s.WriteSnapshot(dir, 7)
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if len(snap.Structures) != len(ids) {
		t.Fatalf("structures=%d want %d", len(snap.Structures), len(ids))
	}
	if got := LatestSnapshot(dir); got != path {
		t.Fatalf("LatestSnapshot=%s want %s", got, path)
	}

	back, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	back.Structures[0].Pieces[0] = []byte("junk")

	fresh := newService(nil, 0)
	audit := &memAudit{}
	if n := fresh.Restore(back, audit); n != len(ids) {
		t.Fatalf("restored=%d want %d", n, len(ids))
	}
	if len(audit.entries) != 1 || audit.entries[0].Action != vlog.AuditPieceDropped || audit.entries[0].StructureID != ids[0] {
		t.Fatalf("audit=%+v", audit.entries)
	}
	for _, id := range ids {
		if _, ok := fresh.Lookup(id); !ok {
			t.Fatalf("%s not restored", id)
		}
	}
}

func TestLatestSnapshot_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"10.snap.zst", "9.snap.zst", "notes.txt", "x.snap.zst"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if got := LatestSnapshot(dir); filepath.Base(got) != "10.snap.zst" {
		t.Fatalf("latest=%s", got)
	}
	if got := LatestSnapshot(filepath.Join(dir, "missing")); got != "" {
		t.Fatalf("missing dir latest=%q", got)
	}
}
