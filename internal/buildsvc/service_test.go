package buildsvc

import (
	"context"
	"errors"
	"sync"
	"testing"

	"voxelstruct.ai/internal/persistence/indexdb"
	"voxelstruct.ai/internal/protocol"
	"voxelstruct.ai/internal/sim/families"
	"voxelstruct.ai/internal/sim/tuning"
)

type memIndex struct {
	mu   sync.Mutex
	rows []indexdb.StructureRow
}

func (m *memIndex) RecordStructure(row indexdb.StructureRow) {
	m.mu.Lock()
	m.rows = append(m.rows, row)
	m.mu.Unlock()
}

func newService(idx Index, recent int) *Service {
	tune := tuning.Defaults()
	return New(Config{Registry: families.Default(tune), Tuning: tune, Index: idx, Recent: recent})
}

func TestBuild_RecordsAndRemembers(t *testing.T) {
	idx := &memIndex{}
	s := newService(idx, 0)

	in, err := s.Build(context.Background(), protocol.BuildMsg{
		Type:            protocol.TypeBuild,
		ProtocolVersion: protocol.Version,
		Family:          "Fortress",
		Seed:            3,
		Anchor:          [3]int{0, 64, 0},
		Facing:          "north",
	}, "test")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if in.Family != "fortress" {
		t.Fatalf("family=%q", in.Family)
	}
	if len(idx.rows) != 1 || idx.rows[0].ID != in.ID.String() || idx.rows[0].Digest != in.Built {
		t.Fatalf("index rows=%+v", idx.rows)
	}
	got, ok := s.Lookup(in.ID.String())
	if !ok || got != in {
		t.Fatalf("Lookup missed the build")
	}
}

func TestBuild_Errors(t *testing.T) {
	s := newService(nil, 0)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []struct {
		name string
		ctx  context.Context
		msg  protocol.BuildMsg
		code string
	}{
		{"missing family", context.Background(), protocol.BuildMsg{ReqID: "r1"}, protocol.ErrBadRequest},
		{"unknown family", context.Background(), protocol.BuildMsg{ReqID: "r2", Family: "village"}, protocol.ErrUnknownFamily},
		{"bad facing", context.Background(), protocol.BuildMsg{ReqID: "r3", Family: "mansion", Facing: "up"}, protocol.ErrBadRequest},
		{"old version", context.Background(), protocol.BuildMsg{ReqID: "r4", ProtocolVersion: "0.9", Family: "mansion"}, protocol.ErrProtoVersion},
		{"cancelled", cancelled, protocol.BuildMsg{ReqID: "r5", Family: "mansion"}, protocol.ErrInternal},
	}
	for _, tc := range cases {
		_, err := s.Build(tc.ctx, tc.msg, "test")
		var em protocol.ErrorMsg
		if !errors.As(err, &em) {
			t.Fatalf("%s: err=%v want ErrorMsg", tc.name, err)
		}
		if em.Code != tc.code || em.ReqID != tc.msg.ReqID {
			t.Fatalf("%s: code=%s req=%s want %s %s", tc.name, em.Code, em.ReqID, tc.code, tc.msg.ReqID)
		}
	}
}

func TestLookup_EvictsOldest(t *testing.T) {
	s := newService(nil, 2)
	var ids []string
	for seed := int64(1); seed <= 3; seed++ {
		in, err := s.Build(context.Background(), protocol.BuildMsg{Family: "mineshaft", Seed: seed}, "test")
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		ids = append(ids, in.ID.String())
	}
	if _, ok := s.Lookup(ids[0]); ok {
		t.Fatalf("oldest build still cached")
	}
	for _, id := range ids[1:] {
		if _, ok := s.Lookup(id); !ok {
			t.Fatalf("recent build %s evicted", id)
		}
	}
}

func TestDescribe_BlocksLeaveInstanceUnpainted(t *testing.T) {
	s := newService(nil, 0)
	in, err := s.Build(context.Background(), protocol.BuildMsg{Family: "monument", Seed: 5, Anchor: [3]int{0, 0, 0}}, "test")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	before := in.Digest()
	m := s.Describe("d1", in, true)
	if len(m.Blocks) == 0 {
		t.Fatalf("no block counts")
	}
	if in.Digest() != before {
		t.Fatalf("describe painted the live instance")
	}
	if len(m.Pieces) != len(in.Pieces) || m.Digest != in.Built || m.ReqID != "d1" {
		t.Fatalf("message=%+v", m)
	}
	if len(m.Chunks) == 0 {
		t.Fatalf("no chunks")
	}
}

func TestWelcome(t *testing.T) {
	s := newService(nil, 0)
	w := s.Welcome("sess")
	if w.Type != protocol.TypeWelcome || w.SessionID != "sess" {
		t.Fatalf("welcome=%+v", w)
	}
	if len(w.Families) != 4 || w.TuningDigest != tuning.Defaults().Digest() {
		t.Fatalf("families=%v digest=%s", w.Families, w.TuningDigest)
	}
}

func TestChunkSection(t *testing.T) {
	s := newService(nil, 0)
	in, err := s.Build(context.Background(), protocol.BuildMsg{Family: "mineshaft", Seed: 21, Anchor: [3]int{8, 40, 8}}, "test")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	c := in.Chunks()[0]
	sec, ok := s.ChunkSection(in, c.X, c.Z)
	if !ok {
		t.Fatalf("ChunkSection missed a touched chunk")
	}
	blocks, err := sec.Blocks()
	if err != nil {
		t.Fatalf("Blocks: %v", err)
	}
	nonAir := 0
	for _, b := range blocks {
		if b != 0 {
			nonAir++
		}
	}
	if nonAir == 0 {
		t.Fatalf("section for chunk %v is empty", c)
	}
	again, _ := s.ChunkSection(in, c.X, c.Z)
	if again.RLE != sec.RLE {
		t.Fatalf("repainting the same chunk changed its section")
	}
	if _, ok := s.ChunkSection(in, c.X+1000, c.Z); ok {
		t.Fatalf("far chunk reported as touched")
	}
}
