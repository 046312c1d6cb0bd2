package buildsvc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	vlog "voxelstruct.ai/internal/persistence/log"
	"voxelstruct.ai/internal/persistence/snapshot"
	"voxelstruct.ai/internal/sim/structure"
)

// Auditor receives import problems. Both the JSONL audit log and the index
// backends satisfy it.
type Auditor interface {
	WriteAudit(e vlog.AuditEntry) error
}

// Recent returns the remembered instances, oldest first.
func (s *Service) Recent() []*structure.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*structure.Instance, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.recent[id])
	}
	return out
}

// Snapshot exports every remembered instance.
func (s *Service) Snapshot(seed int64) (snapshot.SnapshotV1, error) {
	snap := snapshot.SnapshotV1{Header: snapshot.Header{WorldID: s.tune.WorldID, Seed: seed}}
	for _, in := range s.Recent() {
		st, err := in.Export()
		if err != nil {
			return snap, fmt.Errorf("export %s: %w", in.ID, err)
		}
		snap.Structures = append(snap.Structures, st)
	}
	return snap, nil
}

// Restore imports every structure of snap into the recent set. Dropped
// pieces are reported to audit; a structure whose every piece failed is
// skipped. It returns how many structures were restored.
func (s *Service) Restore(snap snapshot.SnapshotV1, audit Auditor) int {
	n := 0
	for _, st := range snap.Structures {
		in, errs := structure.Import(st, s.reg.Decoders())
		for _, err := range errs {
			s.printf("restore %s: %v", st.ID, err)
			if audit != nil {
				_ = audit.WriteAudit(vlog.AuditEntry{
					Time:        time.Now().UTC(),
					Action:      vlog.AuditPieceDropped,
					StructureID: st.ID,
					Family:      st.Family,
					Detail:      err.Error(),
				})
			}
		}
		if len(in.Pieces) == 0 {
			continue
		}
		s.remember(in)
		n++
	}
	return n
}

// WriteSnapshot stores the recent set under dir as <unix-nanos>.snap.zst.
func (s *Service) WriteSnapshot(dir string, seed int64) (string, snapshot.SnapshotV1, error) {
	snap, err := s.Snapshot(seed)
	if err != nil {
		return "", snap, err
	}
	path := filepath.Join(dir, fmt.Sprintf("%d.snap.zst", time.Now().UnixNano()))
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		return "", snap, err
	}
	return path, snap, nil
}

// LatestSnapshot returns the newest <n>.snap.zst under dir, or "".
func LatestSnapshot(dir string) string {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	type cand struct {
		n    int64
		name string
	}
	var cs []cand
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".snap.zst") {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSuffix(e.Name(), ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		cs = append(cs, cand{n, e.Name()})
	}
	if len(cs) == 0 {
		return ""
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i].n > cs[j].n })
	return filepath.Join(dir, cs[0].name)
}
