// Package buildsvc turns BUILD requests into structures for the websocket
// and HTTP surfaces, and remembers recently built instances by id.
package buildsvc

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"voxelstruct.ai/internal/persistence/indexdb"
	vlog "voxelstruct.ai/internal/persistence/log"
	"voxelstruct.ai/internal/protocol"
	"voxelstruct.ai/internal/sim/encoding"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/paint"
	"voxelstruct.ai/internal/sim/structure"
	"voxelstruct.ai/internal/sim/tuning"
)

// Index receives a row per build. Both indexdb backends satisfy it.
type Index interface {
	RecordStructure(row indexdb.StructureRow)
}

type Config struct {
	Registry *structure.Registry
	Tuning   tuning.Tuning
	Index    Index
	BuildLog *vlog.BuildLogger
	Logger   *log.Logger
	// Recent is how many built instances stay addressable by id.
	Recent int
}

type Service struct {
	reg    *structure.Registry
	tune   tuning.Tuning
	digest string
	index  Index
	builds *vlog.BuildLogger
	log    *log.Logger

	mu     sync.Mutex
	recent map[string]*structure.Instance
	order  []string
	limit  int

	built  atomic.Uint64
	failed atomic.Uint64
}

// Counters are the totals behind /metrics.
type Counters struct {
	Built  uint64 `json:"built"`
	Failed uint64 `json:"failed"`
	Recent int    `json:"recent"`
}

func (s *Service) Counters() Counters {
	s.mu.Lock()
	n := len(s.order)
	s.mu.Unlock()
	return Counters{Built: s.built.Load(), Failed: s.failed.Load(), Recent: n}
}

func New(cfg Config) *Service {
	if cfg.Recent <= 0 {
		cfg.Recent = 1024
	}
	return &Service{
		reg:    cfg.Registry,
		tune:   cfg.Tuning,
		digest: cfg.Tuning.Digest(),
		index:  cfg.Index,
		builds: cfg.BuildLog,
		log:    cfg.Logger,
		recent: map[string]*structure.Instance{},
		limit:  cfg.Recent,
	}
}

func (s *Service) Families() []string   { return s.reg.Families() }
func (s *Service) TuningDigest() string { return s.digest }
func (s *Service) WorldID() string      { return s.tune.WorldID }

// Welcome is the reply to a HELLO.
func (s *Service) Welcome(sessionID string) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		Families:        s.Families(),
		TuningDigest:    s.digest,
		WorldID:         s.tune.WorldID,
	}
}

// Build validates m and builds it. Errors are protocol.ErrorMsg values.
func (s *Service) Build(ctx context.Context, m protocol.BuildMsg, source string) (*structure.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, protocol.NewError(m.ReqID, protocol.ErrInternal, "%v", err)
	}
	if m.ProtocolVersion != "" && m.ProtocolVersion != protocol.Version {
		return nil, protocol.NewError(m.ReqID, protocol.ErrProtoVersion, "protocol_version %q, want %q", m.ProtocolVersion, protocol.Version)
	}
	fam := strings.ToLower(strings.TrimSpace(m.Family))
	if fam == "" {
		return nil, protocol.NewError(m.ReqID, protocol.ErrBadRequest, "missing family")
	}
	facing, err := geom.ParseFacing(m.Facing)
	if err != nil {
		return nil, protocol.NewError(m.ReqID, protocol.ErrBadRequest, "%v", err)
	}

	start := time.Now()
	in, err := s.reg.Build(fam, m.Anchor, facing, m.Seed)
	if errors.Is(err, structure.ErrUnknownFamily) {
		s.failed.Add(1)
		return nil, protocol.NewError(m.ReqID, protocol.ErrUnknownFamily, "unknown family %q", fam)
	}
	if err != nil {
		s.failed.Add(1)
		s.printf("build %s seed=%d: %v", fam, m.Seed, err)
		return nil, protocol.NewError(m.ReqID, protocol.ErrInternal, "build failed")
	}
	took := time.Since(start)
	s.built.Add(1)

	s.remember(in)
	if s.index != nil {
		s.index.RecordStructure(indexdb.RowOf(in))
	}
	if s.builds != nil {
		if err := s.builds.WriteBuild(EntryOf(in, took, source)); err != nil {
			s.printf("build log: %v", err)
		}
	}
	return in, nil
}

// Lookup returns a recently built instance.
func (s *Service) Lookup(id string) (*structure.Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.recent[id]
	return in, ok
}

// InChunk lists remembered instances with a piece in chunk (cx,cz), ordered
// by id.
func (s *Service) InChunk(cx, cz int) []*structure.Instance {
	var out []*structure.Instance
	for _, in := range s.Recent() {
		for _, c := range in.Chunks() {
			if c.X == cx && c.Z == cz {
				out = append(out, in)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (s *Service) remember(in *structure.Instance) {
	id := in.ID.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recent[id]; ok {
		s.recent[id] = in
		return
	}
	s.recent[id] = in
	s.order = append(s.order, id)
	for len(s.order) > s.limit {
		delete(s.recent, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *Service) printf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

// EntryOf is the build log record for in.
func EntryOf(in *structure.Instance, took time.Duration, source string) vlog.BuildEntry {
	return vlog.BuildEntry{
		Time:       time.Now().UTC(),
		ID:         in.ID.String(),
		Family:     in.Family,
		Seed:       in.Seed,
		Anchor:     in.Anchor,
		Facing:     in.Facing.String(),
		Pieces:     len(in.Pieces),
		Bounds:     in.Bounds().Array(),
		Digest:     in.Built,
		Stats:      in.Stats,
		DurationMS: float64(took.Microseconds()) / 1000,
		Source:     source,
	}
}

// Describe is StructureMsgOf plus, when blocks is set, the block totals of
// a fresh paint.
func (s *Service) Describe(reqID string, in *structure.Instance, blocks bool) protocol.StructureMsg {
	m := StructureMsgOf(reqID, in)
	if blocks {
		m.Blocks = s.BlockCounts(in)
	}
	return m
}

// StructureMsgOf describes in on the wire.
func StructureMsgOf(reqID string, in *structure.Instance) protocol.StructureMsg {
	m := protocol.StructureMsg{
		Type:            protocol.TypeStructure,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		ID:              in.ID.String(),
		Family:          in.Family,
		Seed:            in.Seed,
		Anchor:          in.Anchor,
		Facing:          in.Facing.String(),
		Digest:          in.Built,
		Bounds:          in.Bounds().Array(),
		Pieces:          make([]protocol.PieceRef, len(in.Pieces)),
		Chunks:          [][2]int{},
		Stats:           in.Stats,
	}
	for i, p := range in.Pieces {
		m.Pieces[i] = protocol.PieceRef{
			Kind:   string(p.Kind),
			Bounds: p.Box.Array(),
			Facing: p.Facing.String(),
			Depth:  p.Depth,
		}
	}
	for _, c := range in.Chunks() {
		m.Chunks = append(m.Chunks, [2]int{c.X, c.Z})
	}
	return m
}

// BlockCounts paints a rebuilt copy of in into an empty world and counts
// blocks by palette name. Paint flips one-shot flags, so the caller's
// instance is left untouched.
func (s *Service) BlockCounts(in *structure.Instance) map[string]int {
	cp, err := s.reg.Build(in.Family, in.Anchor, in.Facing, in.Seed)
	if err != nil {
		return nil
	}
	w := paint.NewMemWorld(0)
	cp.PaintAll(w)
	out := map[string]int{}
	for _, c := range w.Counts() {
		out[c.Name] = c.Count
	}
	return out
}

// ChunkSection paints a rebuilt copy of in clipped to chunk (cx, cz) and
// packs that column. ok is false when the structure does not touch the chunk.
func (s *Service) ChunkSection(in *structure.Instance, cx, cz int) (encoding.Section, bool) {
	c := geom.ChunkPos{X: cx, Z: cz}
	touched := false
	for _, ch := range in.Chunks() {
		if ch == c {
			touched = true
			break
		}
	}
	if !touched {
		return encoding.Section{}, false
	}
	cp, err := s.reg.Build(in.Family, in.Anchor, in.Facing, in.Seed)
	if err != nil {
		return encoding.Section{}, false
	}
	w := paint.NewMemWorld(0)
	cp.PaintChunk(w, c)
	// Footings and floors may hang below the bounds down to the floor.
	b := in.Bounds()
	return encoding.EncodeSection(w, c, min(b.MinY, w.MinY()), b.MaxY), true
}
