package fortress

import (
	"fmt"

	"voxelstruct.ai/internal/persistence/tag"
	"voxelstruct.ai/internal/sim/chain"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/paint"
	"voxelstruct.ai/internal/sim/piece"
	"voxelstruct.ai/internal/sim/rng"
)

const lootTable = "nether_bridge"

const (
	brick  = paint.NetherBrick
	fence  = paint.NetherBrickFence
	stairs = paint.NetherBrickStairs
)

// op is one solid box in piece-local coordinates.
type op struct {
	x1, y1, z1, x2, y2, z2 int
	b                      paint.Block
}

type plan []op

func (pl plan) draw(c *paint.Canvas) {
	for _, o := range pl {
		c.Solid(o.x1, o.y1, o.z1, o.x2, o.y2, o.z2, o.b)
	}
}

// footing drops brick columns below every cell of the local rectangle.
func footing(c *paint.Canvas, x1, z1, x2, z2 int) {
	for x := x1; x <= x2; x++ {
		for z := z1; z <= z2; z++ {
			c.ColumnDown(x, -1, z, brick)
		}
	}
}

// layout is everything fixed about one archetype: where its box sits relative
// to the attach point, which exits it opens and how its shell is drawn.
type layout struct {
	off, size [3]int
	exits     func(b *chain.Builder, p *piece.Piece, r rng.Stream)
	draw      func(c *paint.Canvas)
}

var layouts map[piece.Kind]layout

func init() {
	crossing := layout{
		off: [3]int{-8, -3, 0}, size: [3]int{19, 10, 19},
		exits: func(b *chain.Builder, p *piece.Piece, r rng.Stream) {
			forward(b, p, 8, 3, false)
			left(b, p, 3, 8, false)
			right(b, p, 3, 8, false)
		},
		draw: drawBridgeCrossing,
	}
	corridor := [3]int{-1, 0, 0}
	corridorSize := [3]int{5, 7, 5}
	layouts = map[piece.Kind]layout{
		KindStart:          crossing,
		KindBridgeCrossing: crossing,
		KindBridgeStraight: {
			off: [3]int{-1, -3, 0}, size: [3]int{5, 10, 19},
			exits: func(b *chain.Builder, p *piece.Piece, r rng.Stream) { forward(b, p, 1, 3, false) },
			draw:  drawBridgeStraight,
		},
		KindBridgeEnd: {off: [3]int{-1, -3, 0}, size: [3]int{5, 10, 8}},
		KindRoomCrossing: {
			off: [3]int{-2, 0, 0}, size: [3]int{7, 9, 7},
			exits: func(b *chain.Builder, p *piece.Piece, r rng.Stream) {
				forward(b, p, 2, 0, false)
				left(b, p, 0, 2, false)
				right(b, p, 0, 2, false)
			},
			draw: drawRoomCrossing,
		},
		KindStairsRoom: {
			off: [3]int{-2, 0, 0}, size: [3]int{7, 11, 7},
			exits: func(b *chain.Builder, p *piece.Piece, r rng.Stream) { right(b, p, 6, 2, false) },
			draw:  drawStairsRoom,
		},
		KindMonsterThrone: {
			off: [3]int{-2, 0, 0}, size: [3]int{7, 8, 9},
			draw: drawThrone,
		},
		KindCastleEntrance: {
			off: [3]int{-5, -3, 0}, size: [3]int{13, 14, 13},
			exits: func(b *chain.Builder, p *piece.Piece, r rng.Stream) { forward(b, p, 5, 3, true) },
			draw:  drawEntrance,
		},
		KindSmallCorridor: {
			off: corridor, size: corridorSize,
			exits: func(b *chain.Builder, p *piece.Piece, r rng.Stream) { forward(b, p, 1, 0, true) },
			draw:  drawSmallCorridor,
		},
		KindCorridorCrossing: {
			off: corridor, size: corridorSize,
			exits: func(b *chain.Builder, p *piece.Piece, r rng.Stream) {
				forward(b, p, 1, 0, true)
				left(b, p, 0, 1, true)
				right(b, p, 0, 1, true)
			},
			draw: drawCorridorCrossing,
		},
		KindRightTurn: {
			off: corridor, size: corridorSize,
			exits: func(b *chain.Builder, p *piece.Piece, r rng.Stream) { right(b, p, 0, 1, true) },
			draw:  drawRightTurn,
		},
		KindLeftTurn: {
			off: corridor, size: corridorSize,
			exits: func(b *chain.Builder, p *piece.Piece, r rng.Stream) { left(b, p, 0, 1, true) },
			draw:  drawLeftTurn,
		},
		KindCorridorStairs: {
			off: [3]int{-1, -7, 0}, size: [3]int{5, 14, 10},
			exits: func(b *chain.Builder, p *piece.Piece, r rng.Stream) { forward(b, p, 1, 0, true) },
			draw:  drawCorridorStairs,
		},
		KindTBalcony: {
			off: [3]int{-3, 0, 0}, size: [3]int{9, 7, 9},
			exits: balconyExits,
			draw:  drawTBalcony,
		},
		KindStalkRoom: {
			off: [3]int{-5, -3, 0}, size: [3]int{13, 14, 13},
			exits: func(b *chain.Builder, p *piece.Piece, r rng.Stream) {
				forward(b, p, 5, 3, true)
				forward(b, p, 5, 11, true)
			},
			draw: drawStalkRoom,
		},
	}
}

// chestAt is the local chest position of the two turn pieces.
var chestAt = map[piece.Kind][3]int{
	KindRightTurn: {1, 2, 3},
	KindLeftTurn:  {3, 2, 3},
}

// ---- exits ----

func request(p *piece.Piece, x, y, z int, f geom.Facing, inside bool) chain.Request {
	pool := PoolBridge
	if inside {
		pool = PoolCastle
	}
	return chain.Request{X: x, Y: y, Z: z, Facing: f, Depth: p.Depth + 1, Pool: pool}
}

// forward continues straight out of the far wall, lr blocks from the left
// edge and h above the floor.
func forward(b *chain.Builder, p *piece.Piece, lr, h int, inside bool) *piece.Piece {
	box := p.Box
	switch p.Facing {
	case geom.North:
		return b.Grow(p, request(p, box.MinX+lr, box.MinY+h, box.MinZ-1, p.Facing, inside))
	case geom.South:
		return b.Grow(p, request(p, box.MinX+lr, box.MinY+h, box.MaxZ+1, p.Facing, inside))
	case geom.West:
		return b.Grow(p, request(p, box.MinX-1, box.MinY+h, box.MinZ+lr, p.Facing, inside))
	case geom.East:
		return b.Grow(p, request(p, box.MaxX+1, box.MinY+h, box.MinZ+lr, p.Facing, inside))
	}
	return nil
}

// left opens the west or north side wall.
func left(b *chain.Builder, p *piece.Piece, h, lr int, inside bool) *piece.Piece {
	box := p.Box
	switch p.Facing {
	case geom.North, geom.South:
		return b.Grow(p, request(p, box.MinX-1, box.MinY+h, box.MinZ+lr, geom.West, inside))
	case geom.West, geom.East:
		return b.Grow(p, request(p, box.MinX+lr, box.MinY+h, box.MinZ-1, geom.North, inside))
	}
	return nil
}

// right opens the east or south side wall.
func right(b *chain.Builder, p *piece.Piece, h, lr int, inside bool) *piece.Piece {
	box := p.Box
	switch p.Facing {
	case geom.North, geom.South:
		return b.Grow(p, request(p, box.MaxX+1, box.MinY+h, box.MinZ+lr, geom.East, inside))
	case geom.West, geom.East:
		return b.Grow(p, request(p, box.MinX+lr, box.MinY+h, box.MaxZ+1, geom.South, inside))
	}
	return nil
}

// balconyExits leaves the balcony sideways; each side stays enclosed seven
// times in eight.
func balconyExits(b *chain.Builder, p *piece.Piece, r rng.Stream) {
	lr := 1
	if p.Facing == geom.West || p.Facing == geom.North {
		lr = 5
	}
	left(b, p, 0, lr, r.Intn(8) > 0)
	right(b, p, 0, lr, r.Intn(8) > 0)
}

// ---- archetypes ----

type arch struct{ kind piece.Kind }

func (a arch) Kind() piece.Kind { return a.kind }

func (a arch) CandidateBox(c *piece.Collection, req chain.Request, r rng.Stream) (geom.Box, bool) {
	l, ok := layouts[a.kind]
	if !ok {
		return geom.Box{}, false
	}
	return geom.Oriented(req.X, req.Y, req.Z, l.off[0], l.off[1], l.off[2], l.size[0], l.size[1], l.size[2], req.Facing), true
}

func (a arch) Create(req chain.Request, box geom.Box, r rng.Stream) piece.Behavior {
	switch a.kind {
	case KindRightTurn, KindLeftTurn:
		return &Turn{Chest: r.Intn(3) == 0}
	case KindMonsterThrone:
		return &Throne{}
	case KindBridgeEnd:
		return &BridgeEnd{Seed: int64(int32(r.Int63()))}
	}
	return &Hall{}
}

var archetypes = map[piece.Kind]arch{}

// catalog maps pool descriptor ids to archetypes. The filler and the start
// are not drawn from a pool.
var catalog = map[string]chain.Archetype{}

func init() {
	for kind := range layouts {
		if kind == KindStart {
			continue
		}
		archetypes[kind] = arch{kind: kind}
		if kind != KindBridgeEnd {
			catalog[string(kind)] = arch{kind: kind}
		}
	}
}

// ---- behaviors ----

// Hall is every fortress piece without state of its own; the kind alone
// fixes its exits and shell.
type Hall struct{}

func (h *Hall) AddChildren(b *chain.Builder, p *piece.Piece, r rng.Stream) {
	if l := layouts[p.Kind]; l.exits != nil {
		l.exits(b, p, r)
	}
}

func (h *Hall) Paint(w paint.World, p *piece.Piece, clip geom.Box, r rng.Stream, chunk geom.ChunkPos) {
	if l := layouts[p.Kind]; l.draw != nil {
		l.draw(p.Canvas(w, clip))
	}
}

func (h *Hall) SaveTag(t tag.Compound) {}

func decodeHall(t tag.Compound) (piece.Behavior, error) { return &Hall{}, nil }

// Turn is a corridor corner that may hold one loot chest.
type Turn struct {
	Chest bool
}

func (k *Turn) AddChildren(b *chain.Builder, p *piece.Piece, r rng.Stream) {
	layouts[p.Kind].exits(b, p, r)
}

func (k *Turn) Paint(w paint.World, p *piece.Piece, clip geom.Box, r rng.Stream, chunk geom.ChunkPos) {
	c := p.Canvas(w, clip)
	layouts[p.Kind].draw(c)
	if k.Chest {
		at := chestAt[p.Kind]
		done := false
		if c.Chest(&done, at[0], at[1], at[2], lootTable) {
			k.Chest = false
		}
	}
}

func (k *Turn) SaveTag(t tag.Compound) { t.PutBool("Chest", k.Chest) }

func decodeTurn(t tag.Compound) (piece.Behavior, error) {
	return &Turn{Chest: t.BoolOr("Chest", false)}, nil
}

// Throne is the blaze balcony, a dead end with a single spawner.
type Throne struct {
	Spawned bool
}

func (k *Throne) Paint(w paint.World, p *piece.Piece, clip geom.Box, r rng.Stream, chunk geom.ChunkPos) {
	c := p.Canvas(w, clip)
	drawThrone(c)
	c.Spawner(&k.Spawned, 3, 5, 5, "blaze")
}

func (k *Throne) SaveTag(t tag.Compound) { t.PutBool("Mob", k.Spawned) }

func decodeThrone(t tag.Compound) (piece.Behavior, error) {
	return &Throne{Spawned: t.BoolOr("Mob", false)}, nil
}

// BridgeEnd is the ragged stub closing a branch. Its shape comes from a
// private stream seeded at layout time, so every chunk paints the same stub.
type BridgeEnd struct {
	Seed int64
}

func (k *BridgeEnd) Paint(w paint.World, p *piece.Piece, clip geom.Box, r rng.Stream, chunk geom.ChunkPos) {
	c := p.Canvas(w, clip)
	s := rng.New(uint64(k.Seed))
	for x := 0; x <= 4; x++ {
		for y := 3; y <= 4; y++ {
			c.Solid(x, y, 0, x, y, s.Intn(8), brick)
		}
	}
	c.Solid(0, 5, 0, 0, 5, s.Intn(8), brick)
	c.Solid(4, 5, 0, 4, 5, s.Intn(8), brick)
	for x := 0; x <= 4; x++ {
		c.Solid(x, 2, 0, x, 2, s.Intn(5), brick)
	}
	for x := 0; x <= 4; x++ {
		for y := 0; y <= 1; y++ {
			c.Solid(x, y, 0, x, y, s.Intn(3), brick)
		}
	}
}

func (k *BridgeEnd) SaveTag(t tag.Compound) { t.PutLong("Seed", k.Seed) }

func decodeBridgeEnd(t tag.Compound) (piece.Behavior, error) {
	s, err := t.Long("Seed")
	if err != nil {
		return nil, fmt.Errorf("bridge end: %w", err)
	}
	return &BridgeEnd{Seed: s}, nil
}

var decoders = piece.Registry{
	KindStart:            decodeHall,
	KindBridgeStraight:   decodeHall,
	KindBridgeCrossing:   decodeHall,
	KindBridgeEnd:        decodeBridgeEnd,
	KindRoomCrossing:     decodeHall,
	KindStairsRoom:       decodeHall,
	KindMonsterThrone:    decodeThrone,
	KindCastleEntrance:   decodeHall,
	KindSmallCorridor:    decodeHall,
	KindCorridorCrossing: decodeHall,
	KindRightTurn:        decodeTurn,
	KindLeftTurn:         decodeTurn,
	KindCorridorStairs:   decodeHall,
	KindTBalcony:         decodeHall,
	KindStalkRoom:        decodeHall,
}

// ---- shells ----

func drawBridgeCrossing(c *paint.Canvas) {
	plan{
		{7, 3, 0, 11, 4, 18, brick},
		{0, 3, 7, 18, 4, 11, brick},
		{8, 5, 0, 10, 7, 18, paint.Air},
		{0, 5, 8, 18, 7, 10, paint.Air},
		{7, 5, 0, 7, 5, 7, brick},
		{7, 5, 11, 7, 5, 18, brick},
		{11, 5, 0, 11, 5, 7, brick},
		{11, 5, 11, 11, 5, 18, brick},
		{0, 5, 7, 7, 5, 7, brick},
		{11, 5, 7, 18, 5, 7, brick},
		{0, 5, 11, 7, 5, 11, brick},
		{11, 5, 11, 18, 5, 11, brick},
		{7, 2, 0, 11, 2, 5, brick},
		{7, 2, 13, 11, 2, 18, brick},
		{7, 0, 0, 11, 1, 3, brick},
		{7, 0, 15, 11, 1, 18, brick},
	}.draw(c)
	footing(c, 7, 0, 11, 2)
	footing(c, 7, 16, 11, 18)
	plan{
		{0, 2, 7, 5, 2, 11, brick},
		{13, 2, 7, 18, 2, 11, brick},
		{0, 0, 7, 3, 1, 11, brick},
		{15, 0, 7, 18, 1, 11, brick},
	}.draw(c)
	footing(c, 0, 7, 2, 11)
	footing(c, 16, 7, 18, 11)
}

func drawBridgeStraight(c *paint.Canvas) {
	plan{
		{0, 3, 0, 4, 4, 18, brick},
		{1, 5, 0, 3, 7, 18, paint.Air},
		{0, 5, 0, 0, 5, 18, brick},
		{4, 5, 0, 4, 5, 18, brick},
		{0, 2, 0, 4, 2, 5, brick},
		{0, 2, 13, 4, 2, 18, brick},
		{0, 0, 0, 4, 1, 3, brick},
		{0, 0, 15, 4, 1, 18, brick},
	}.draw(c)
	footing(c, 0, 0, 4, 2)
	footing(c, 0, 16, 4, 18)
	for _, x := range [...]int{0, 4} {
		plan{
			{x, 1, 1, x, 4, 1, fence},
			{x, 3, 4, x, 4, 4, fence},
			{x, 3, 14, x, 4, 14, fence},
			{x, 1, 17, x, 4, 17, fence},
		}.draw(c)
	}
}

func drawRoomCrossing(c *paint.Canvas) {
	plan{
		{0, 0, 0, 6, 1, 6, brick},
		{0, 2, 0, 6, 7, 6, paint.Air},
		{0, 2, 0, 1, 6, 0, brick},
		{0, 2, 6, 1, 6, 6, brick},
		{5, 2, 0, 6, 6, 0, brick},
		{5, 2, 6, 6, 6, 6, brick},
		{0, 2, 0, 0, 6, 1, brick},
		{0, 2, 5, 0, 6, 6, brick},
		{6, 2, 0, 6, 6, 1, brick},
		{6, 2, 5, 6, 6, 6, brick},
		{2, 6, 0, 4, 6, 0, brick},
		{2, 5, 0, 4, 5, 0, fence},
		{2, 6, 6, 4, 6, 6, brick},
		{2, 5, 6, 4, 5, 6, fence},
		{0, 6, 2, 0, 6, 4, brick},
		{0, 5, 2, 0, 5, 4, fence},
		{6, 6, 2, 6, 6, 4, brick},
		{6, 5, 2, 6, 5, 4, fence},
	}.draw(c)
	footing(c, 0, 0, 6, 6)
}

func drawStairsRoom(c *paint.Canvas) {
	plan{
		{0, 0, 0, 6, 1, 6, brick},
		{0, 2, 0, 6, 10, 6, paint.Air},
		{0, 2, 0, 1, 8, 0, brick},
		{5, 2, 0, 6, 8, 0, brick},
		{0, 2, 1, 0, 8, 6, brick},
		{6, 2, 1, 6, 8, 6, brick},
		{1, 2, 6, 5, 8, 6, brick},
		{0, 3, 2, 0, 5, 4, fence},
		{6, 3, 2, 6, 5, 2, fence},
		{6, 3, 4, 6, 5, 4, fence},
		{5, 2, 5, 5, 2, 5, brick},
		{4, 2, 5, 4, 3, 5, brick},
		{3, 2, 5, 3, 4, 5, brick},
		{2, 2, 5, 2, 5, 5, brick},
		{1, 2, 5, 1, 6, 5, brick},
		{1, 7, 1, 5, 7, 4, brick},
		{6, 8, 2, 6, 8, 4, paint.Air},
		{2, 6, 0, 4, 8, 0, brick},
		{2, 5, 0, 4, 5, 0, fence},
	}.draw(c)
	footing(c, 0, 0, 6, 6)
}

func drawThrone(c *paint.Canvas) {
	plan{
		{0, 2, 0, 6, 7, 7, paint.Air},
		{1, 0, 0, 5, 1, 7, brick},
		{1, 2, 1, 5, 2, 7, brick},
		{1, 3, 2, 5, 3, 7, brick},
		{1, 4, 3, 5, 4, 7, brick},
		{1, 2, 0, 1, 4, 2, brick},
		{5, 2, 0, 5, 4, 2, brick},
		{1, 5, 2, 1, 5, 3, brick},
		{5, 5, 2, 5, 5, 3, brick},
		{0, 5, 3, 0, 5, 8, brick},
		{6, 5, 3, 6, 5, 8, brick},
		{1, 5, 8, 5, 5, 8, brick},
		{1, 6, 3, 1, 6, 3, fence},
		{5, 6, 3, 5, 6, 3, fence},
		{0, 6, 3, 0, 6, 3, fence},
		{6, 6, 3, 6, 6, 3, fence},
		{0, 6, 4, 0, 6, 7, fence},
		{6, 6, 4, 6, 6, 7, fence},
		{0, 6, 8, 0, 6, 8, fence},
		{6, 6, 8, 6, 6, 8, fence},
		{1, 6, 8, 5, 6, 8, fence},
		{1, 7, 8, 5, 7, 8, fence},
		{2, 8, 8, 4, 8, 8, fence},
	}.draw(c)
	footing(c, 0, 0, 6, 6)
}

// castleShell is the walled courtyard shared by the entrance and the stalk
// room, battlements included.
func castleShell(c *paint.Canvas) {
	plan{
		{0, 3, 0, 12, 4, 12, brick},
		{0, 5, 0, 12, 13, 12, paint.Air},
		{0, 5, 0, 1, 12, 12, brick},
		{11, 5, 0, 12, 12, 12, brick},
		{2, 5, 11, 4, 12, 12, brick},
		{8, 5, 11, 10, 12, 12, brick},
		{5, 9, 11, 7, 12, 12, brick},
		{2, 5, 0, 4, 12, 1, brick},
		{8, 5, 0, 10, 12, 1, brick},
		{5, 9, 0, 7, 12, 1, brick},
		{2, 11, 2, 10, 12, 10, brick},
	}.draw(c)
	for i := 1; i <= 11; i += 2 {
		plan{
			{i, 10, 0, i, 11, 0, fence},
			{i, 10, 12, i, 11, 12, fence},
			{0, 10, i, 0, 11, i, fence},
			{12, 10, i, 12, 11, i, fence},
		}.draw(c)
		c.Set(i, 13, 0, brick)
		c.Set(i, 13, 12, brick)
		c.Set(0, 13, i, brick)
		c.Set(12, 13, i, brick)
		if i != 11 {
			c.Set(i+1, 13, 0, fence)
			c.Set(i+1, 13, 12, fence)
			c.Set(0, 13, i+1, fence)
			c.Set(12, 13, i+1, fence)
		}
	}
	for _, corner := range [...][2]int{{0, 0}, {0, 12}, {12, 12}, {12, 0}} {
		c.Set(corner[0], 13, corner[1], fence)
	}
	for z := 3; z <= 9; z += 2 {
		c.Solid(1, 7, z, 1, 8, z, fence)
		c.Solid(11, 7, z, 11, 8, z, fence)
	}
}

// castleFooting is the cross of bridge stubs under the courtyard.
func castleFooting(c *paint.Canvas) {
	plan{
		{4, 2, 0, 8, 2, 12, brick},
		{0, 2, 4, 12, 2, 8, brick},
		{4, 0, 0, 8, 1, 3, brick},
		{4, 0, 9, 8, 1, 12, brick},
		{0, 0, 4, 3, 1, 8, brick},
		{9, 0, 4, 12, 1, 8, brick},
	}.draw(c)
	footing(c, 4, 0, 8, 2)
	footing(c, 4, 10, 8, 12)
	footing(c, 0, 4, 2, 8)
	footing(c, 10, 4, 12, 8)
}

func drawEntrance(c *paint.Canvas) {
	castleShell(c)
	c.Solid(5, 8, 0, 7, 8, 0, fence)
	castleFooting(c)
	// Lava well in the courtyard centre.
	plan{
		{5, 5, 5, 7, 5, 7, brick},
		{6, 1, 6, 6, 4, 6, paint.Air},
		{6, 0, 6, 6, 0, 6, brick},
		{6, 5, 6, 6, 5, 6, paint.Lava},
	}.draw(c)
}

func drawStalkRoom(c *paint.Canvas) {
	castleShell(c)
	for k := 0; k <= 6; k++ {
		z := k + 4
		c.Solid(5, 5+k, z, 7, 5+k, z, stairs)
		switch {
		case z >= 5 && z <= 8:
			c.Solid(5, 5, z, 7, k+4, z, brick)
		case z >= 9 && z <= 10:
			c.Solid(5, 8, z, 7, k+4, z, brick)
		}
		if k >= 1 {
			c.Solid(5, 6+k, z, 7, 9+k, z, paint.Air)
		}
	}
	plan{
		{5, 12, 11, 7, 12, 11, stairs},
		{5, 6, 7, 5, 7, 7, fence},
		{7, 6, 7, 7, 7, 7, fence},
		{5, 13, 12, 7, 13, 12, paint.Air},
		{2, 5, 2, 3, 5, 3, brick},
		{2, 5, 9, 3, 5, 10, brick},
		{2, 5, 4, 2, 5, 8, brick},
		{9, 5, 2, 10, 5, 3, brick},
		{9, 5, 9, 10, 5, 10, brick},
		{10, 5, 4, 10, 5, 8, brick},
		{4, 5, 2, 4, 5, 3, stairs},
		{4, 5, 9, 4, 5, 10, stairs},
		{8, 5, 2, 8, 5, 3, stairs},
		{8, 5, 9, 8, 5, 10, stairs},
		{3, 4, 4, 4, 4, 8, paint.SoulSand},
		{8, 4, 4, 9, 4, 8, paint.SoulSand},
		{3, 5, 4, 4, 5, 8, paint.NetherWart},
		{8, 5, 4, 9, 5, 8, paint.NetherWart},
	}.draw(c)
	castleFooting(c)
}

// corridorShell is the floor, air and roof every 5x5 castle corridor shares.
func corridorShell(c *paint.Canvas) {
	c.Solid(0, 0, 0, 4, 1, 4, brick)
	c.Solid(0, 2, 0, 4, 5, 4, paint.Air)
}

func corridorRoof(c *paint.Canvas) {
	c.Solid(0, 6, 0, 4, 6, 4, brick)
	footing(c, 0, 0, 4, 4)
}

func drawSmallCorridor(c *paint.Canvas) {
	corridorShell(c)
	plan{
		{0, 2, 0, 0, 5, 4, brick},
		{4, 2, 0, 4, 5, 4, brick},
		{0, 3, 1, 0, 4, 1, fence},
		{0, 3, 3, 0, 4, 3, fence},
		{4, 3, 1, 4, 4, 1, fence},
		{4, 3, 3, 4, 4, 3, fence},
	}.draw(c)
	corridorRoof(c)
}

func drawCorridorCrossing(c *paint.Canvas) {
	corridorShell(c)
	plan{
		{0, 2, 0, 0, 5, 0, brick},
		{4, 2, 0, 4, 5, 0, brick},
		{0, 2, 4, 0, 5, 4, brick},
		{4, 2, 4, 4, 5, 4, brick},
	}.draw(c)
	corridorRoof(c)
}

func drawRightTurn(c *paint.Canvas) {
	corridorShell(c)
	plan{
		{0, 2, 0, 0, 5, 4, brick},
		{0, 3, 1, 0, 4, 1, fence},
		{0, 3, 3, 0, 4, 3, fence},
		{4, 2, 0, 4, 5, 0, brick},
		{1, 2, 4, 4, 5, 4, brick},
		{1, 3, 4, 1, 4, 4, fence},
		{3, 3, 4, 3, 4, 4, fence},
	}.draw(c)
	corridorRoof(c)
}

func drawLeftTurn(c *paint.Canvas) {
	corridorShell(c)
	plan{
		{4, 2, 0, 4, 5, 4, brick},
		{4, 3, 1, 4, 4, 1, fence},
		{4, 3, 3, 4, 4, 3, fence},
		{0, 2, 0, 0, 5, 0, brick},
		{0, 2, 4, 3, 5, 4, brick},
		{1, 3, 4, 1, 4, 4, fence},
		{3, 3, 4, 3, 4, 4, fence},
	}.draw(c)
	corridorRoof(c)
}

func drawCorridorStairs(c *paint.Canvas) {
	for z := 0; z <= 9; z++ {
		lo := max(1, 7-z)
		hi := min(max(lo+5, 14-z), 13)
		c.Solid(0, 0, z, 4, lo, z, brick)
		c.Solid(1, lo+1, z, 3, hi-1, z, paint.Air)
		if z <= 6 {
			c.Solid(1, lo+1, z, 3, lo+1, z, stairs)
		}
		c.Solid(0, hi, z, 4, hi, z, brick)
		c.Solid(0, lo+1, z, 0, hi-1, z, brick)
		c.Solid(4, lo+1, z, 4, hi-1, z, brick)
		if z&1 == 0 {
			c.Solid(0, lo+2, z, 0, lo+3, z, fence)
			c.Solid(4, lo+2, z, 4, lo+3, z, fence)
		}
		footing(c, 0, z, 4, z)
	}
}

func drawTBalcony(c *paint.Canvas) {
	plan{
		{0, 0, 0, 8, 1, 8, brick},
		{0, 2, 0, 8, 5, 8, paint.Air},
		{0, 6, 0, 8, 6, 5, brick},
		{0, 2, 0, 2, 5, 0, brick},
		{6, 2, 0, 8, 5, 0, brick},
		{1, 3, 0, 1, 4, 0, fence},
		{7, 3, 0, 7, 4, 0, fence},
		{0, 2, 4, 8, 2, 8, brick},
		{1, 1, 4, 2, 2, 4, paint.Air},
		{6, 1, 4, 7, 2, 4, paint.Air},
		{1, 3, 8, 7, 3, 8, fence},
		{0, 3, 8, 0, 3, 8, fence},
		{8, 3, 8, 8, 3, 8, fence},
		{0, 3, 6, 0, 3, 7, fence},
		{8, 3, 6, 8, 3, 7, fence},
		{0, 3, 4, 0, 5, 5, brick},
		{8, 3, 4, 8, 5, 5, brick},
		{1, 3, 5, 2, 5, 5, brick},
		{6, 3, 5, 7, 5, 5, brick},
		{1, 4, 5, 1, 5, 5, fence},
		{7, 4, 5, 7, 5, 5, fence},
	}.draw(c)
	footing(c, 0, 0, 8, 5)
}
