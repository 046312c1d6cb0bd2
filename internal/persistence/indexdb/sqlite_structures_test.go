package indexdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	vlog "voxelstruct.ai/internal/persistence/log"
	"voxelstruct.ai/internal/persistence/snapshot"
	"voxelstruct.ai/internal/sim/families"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/tuning"
)

func openTemp(t *testing.T) *SQLiteIndex {
	t.Helper()
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index", "index.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestSQLiteIndex_StructureQueries(t *testing.T) {
	idx := openTemp(t)
	reg := families.Default(tuning.Defaults())

	in, err := reg.Build("mineshaft", [3]int{40, 30, -20}, geom.None, 9)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	row := RowOf(in)
	idx.RecordStructure(row)
	// Recording twice replaces the row and its chunk set.
	idx.RecordStructure(row)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := idx.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, err := idx.Structure(ctx, row.ID)
	if err != nil {
		t.Fatalf("Structure: %v", err)
	}
	if got.Digest != in.Built || got.Family != "mineshaft" || got.Pieces != len(in.Pieces) {
		t.Fatalf("row=%+v", got)
	}
	if got.Bounds != in.Bounds().Array() {
		t.Fatalf("bounds=%v want %v", got.Bounds, in.Bounds().Array())
	}
	if len(got.Chunks) != len(row.Chunks) {
		t.Fatalf("chunks=%d want %d", len(got.Chunks), len(row.Chunks))
	}

	for _, c := range row.Chunks {
		list, err := idx.StructuresInChunk(ctx, c[0], c[1])
		if err != nil {
			t.Fatalf("StructuresInChunk: %v", err)
		}
		if len(list) != 1 || list[0].ID != row.ID {
			t.Fatalf("chunk %v: %d rows", c, len(list))
		}
	}

	far, err := idx.StructuresInChunk(ctx, 100000, 100000)
	if err != nil || len(far) != 0 {
		t.Fatalf("far chunk: rows=%d err=%v", len(far), err)
	}

	if _, err := idx.Structure(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: err=%v want ErrNotFound", err)
	}
}

func TestSQLiteIndex_AuditsSnapshotsAndTuning(t *testing.T) {
	idx := openTemp(t)

	if err := idx.UpsertTuning(tuning.Defaults()); err != nil {
		t.Fatalf("UpsertTuning: %v", err)
	}
	_ = idx.WriteAudit(vlog.AuditEntry{Action: vlog.AuditDigestMismatch, StructureID: "s1", Family: "fortress", Detail: "a != b"})
	idx.RecordSnapshot("/data/snap/structures.zst", snapshot.SnapshotV1{
		Header:     snapshot.Header{WorldID: "overworld", Seed: 4},
		Structures: []snapshot.StructureV1{{Pieces: [][]byte{{1}, {2}}}, {Pieces: [][]byte{{3}}}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := idx.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	var action, detail string
	if err := idx.db.QueryRowContext(ctx, `SELECT action, detail FROM audits WHERE structure_id='s1'`).Scan(&action, &detail); err != nil {
		t.Fatalf("audit row: %v", err)
	}
	if action != vlog.AuditDigestMismatch || detail != "a != b" {
		t.Fatalf("audit=%q %q", action, detail)
	}

	var structures, pieces int
	if err := idx.db.QueryRowContext(ctx, `SELECT structures, pieces FROM snapshots`).Scan(&structures, &pieces); err != nil {
		t.Fatalf("snapshot row: %v", err)
	}
	if structures != 2 || pieces != 3 {
		t.Fatalf("snapshot structures=%d pieces=%d", structures, pieces)
	}

	var digest string
	if err := idx.db.QueryRowContext(ctx, `SELECT digest FROM configs WHERE name='tuning'`).Scan(&digest); err != nil {
		t.Fatalf("config row: %v", err)
	}
	if len(digest) != 64 {
		t.Fatalf("digest=%q", digest)
	}
}
