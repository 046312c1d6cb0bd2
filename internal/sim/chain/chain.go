// Package chain grows a branching network of pieces outward from a root.
//
// Every extension request goes through Builder.Grow, which applies the
// lateral and depth ceilings, draws an archetype from the request's pool,
// and admits the candidate box only if it is a legal site that collides with
// nothing already placed. Accepted pieces are queued; Run drains the queue
// and lets each piece issue its own child requests, so no call chain grows
// with the structure.
package chain

import (
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/mathx"
	"voxelstruct.ai/internal/sim/piece"
	"voxelstruct.ai/internal/sim/rng"
	"voxelstruct.ai/internal/sim/selector"
)

// Request asks for one piece attached at (X,Y,Z) facing Facing. Depth is the
// depth the new piece will have. Pool selects which of the builder's pools
// the archetype is drawn from.
type Request struct {
	X, Y, Z int
	Facing  geom.Facing
	Depth   int
	Pool    int
}

// Archetype is the layout side of one piece kind.
type Archetype interface {
	Kind() piece.Kind
	// CandidateBox proposes a box for req, or false when the archetype cannot
	// fit at all. The builder still runs the site and collision checks.
	CandidateBox(c *piece.Collection, req Request, r rng.Stream) (geom.Box, bool)
	// Create builds the behavior of an accepted piece.
	Create(req Request, box geom.Box, r rng.Stream) piece.Behavior
}

// Brancher is implemented by behaviors that issue child requests.
type Brancher interface {
	AddChildren(b *Builder, p *piece.Piece, r rng.Stream)
}

type Config struct {
	MaxDepth      int
	LateralRadius int
	// RetryBudget is the number of draws per request before giving up.
	RetryBudget int
	// Legal is the family site predicate. Nil accepts every box.
	Legal func(geom.Box) bool
	// Filler closes a branch whose draws all failed. Nil abandons it.
	Filler Archetype
	// FillerAtLimits also places the filler when a ceiling is hit.
	FillerAtLimits bool
	// RandomOrder drains pending pieces in random rather than FIFO order.
	RandomOrder bool
}

type Stats struct {
	Requests       int `json:"requests"`
	Placed         int `json:"placed"`
	Fillers        int `json:"fillers"`
	LateralRejects int `json:"lateral_rejects"`
	DepthRejects   int `json:"depth_rejects"`
	RepeatRejects  int `json:"repeat_rejects"`
	SiteRejects    int `json:"site_rejects"`
	Collisions     int `json:"collisions"`
	// Unfit counts draws whose archetype proposed no box at all.
	Unfit     int `json:"unfit"`
	Exhausted int `json:"exhausted"`
	Abandoned int `json:"abandoned"`
}

type Builder struct {
	cfg     Config
	catalog map[string]Archetype
	pools   []*selector.Pool

	Pieces *piece.Collection
	R      rng.Stream
	Stats  Stats

	origin geom.Box
	queue  []*piece.Piece
}

// New builds an empty builder. catalog maps descriptor ids to archetypes.
func New(cfg Config, catalog map[string]Archetype, pools []*selector.Pool, r rng.Stream) *Builder {
	if cfg.RetryBudget <= 0 {
		cfg.RetryBudget = 1
	}
	return &Builder{
		cfg:     cfg,
		catalog: catalog,
		pools:   pools,
		Pieces:  piece.NewCollection(),
		R:       r,
	}
}

func (b *Builder) Pools() []*selector.Pool { return b.pools }

// MaxDepth is the configured depth ceiling.
func (b *Builder) MaxDepth() int { return b.cfg.MaxDepth }

// Start places the root. Lateral distances are measured from its min corner.
func (b *Builder) Start(root *piece.Piece) {
	b.origin = root.Box
	b.Pieces.Add(root)
	b.queue = append(b.queue, root)
	b.Stats.Placed++
}

// Run expands queued pieces until none remain.
func (b *Builder) Run() {
	for len(b.queue) > 0 {
		var p *piece.Piece
		if b.cfg.RandomOrder {
			i := b.R.Intn(len(b.queue))
			p = b.queue[i]
			b.queue = append(b.queue[:i], b.queue[i+1:]...)
		} else {
			p = b.queue[0]
			b.queue = b.queue[1:]
		}
		if br, ok := p.Body.(Brancher); ok {
			br.AddChildren(b, p, b.R)
		}
	}
}

// Grow serves one extension request from parent and returns the placed
// piece, or nil when the branch stops here.
func (b *Builder) Grow(parent *piece.Piece, req Request) *piece.Piece {
	b.Stats.Requests++
	if !b.anchorInRange(req.X, req.Z) {
		b.Stats.LateralRejects++
		return b.fill(req, b.cfg.FillerAtLimits)
	}
	if req.Depth > b.cfg.MaxDepth {
		b.Stats.DepthRejects++
		return b.fill(req, b.cfg.FillerAtLimits)
	}
	pool := b.pool(req.Pool)
	if pool == nil || pool.Total() <= 0 {
		b.Stats.Exhausted++
		return b.fill(req, true)
	}
	for try := 0; try < b.cfg.RetryBudget; try++ {
		d := pool.Draw(b.R)
		if d == nil {
			b.Stats.Exhausted++
			break
		}
		if parent != nil && !d.AllowInRow && string(parent.Kind) == d.ID {
			b.Stats.RepeatRejects++
			continue
		}
		arch, ok := b.catalog[d.ID]
		if !ok {
			continue
		}
		box, ok := arch.CandidateBox(b.Pieces, req, b.R)
		if !ok {
			b.Stats.Unfit++
			continue
		}
		if !b.admit(box, true) {
			continue
		}
		pool.Commit(d)
		return b.place(arch, req, box)
	}
	return b.fill(req, true)
}

func (b *Builder) pool(i int) *selector.Pool {
	if i < 0 || i >= len(b.pools) {
		return nil
	}
	return b.pools[i]
}

func (b *Builder) anchorInRange(x, z int) bool {
	r := b.cfg.LateralRadius
	return mathx.AbsInt(x-b.origin.MinX) <= r && mathx.AbsInt(z-b.origin.MinZ) <= r
}

// InRange reports whether every column of box lies within the lateral
// radius of the root's min corner.
func (b *Builder) InRange(box geom.Box) bool {
	return b.anchorInRange(box.MinX, box.MinZ) && b.anchorInRange(box.MaxX, box.MaxZ)
}

func (b *Builder) admit(box geom.Box, guard bool) bool {
	if b.cfg.Legal != nil && !b.cfg.Legal(box) {
		b.Stats.SiteRejects++
		return false
	}
	if guard && !b.InRange(box) {
		b.Stats.LateralRejects++
		return false
	}
	if b.Pieces.Collides(box) {
		b.Stats.Collisions++
		return false
	}
	return true
}

func (b *Builder) fill(req Request, allowed bool) *piece.Piece {
	if !allowed || b.cfg.Filler == nil {
		b.Stats.Abandoned++
		return nil
	}
	box, ok := b.cfg.Filler.CandidateBox(b.Pieces, req, b.R)
	if !ok || !b.admit(box, false) {
		b.Stats.Abandoned++
		return nil
	}
	b.Stats.Fillers++
	return b.place(b.cfg.Filler, req, box)
}

func (b *Builder) place(arch Archetype, req Request, box geom.Box) *piece.Piece {
	p := &piece.Piece{Kind: arch.Kind(), Box: box, Facing: req.Facing, Depth: req.Depth}
	p.Body = arch.Create(req, box, b.R)
	b.Pieces.Add(p)
	b.queue = append(b.queue, p)
	b.Stats.Placed++
	return p
}

// Map flattens the counters for build logs.
func (s Stats) Map() map[string]int {
	return map[string]int{
		"requests":        s.Requests,
		"placed":          s.Placed,
		"fillers":         s.Fillers,
		"lateral_rejects": s.LateralRejects,
		"depth_rejects":   s.DepthRejects,
		"repeat_rejects":  s.RepeatRejects,
		"site_rejects":    s.SiteRejects,
		"collisions":      s.Collisions,
		"unfit":           s.Unfit,
		"exhausted":       s.Exhausted,
		"abandoned":       s.Abandoned,
	}
}
