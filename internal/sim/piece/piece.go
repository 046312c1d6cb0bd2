// Package piece holds placed structure pieces, their tag form and the
// collision index layout admits them through.
package piece

import (
	"errors"
	"fmt"

	"voxelstruct.ai/internal/persistence/tag"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/paint"
	"voxelstruct.ai/internal/sim/rng"
)

// Kind is the persisted archetype id, "<family>.<archetype>".
type Kind string

// Behavior is the archetype-specific part of a piece: its flags, how it paints
// and how it saves those flags. Implementations are small structs owned by a
// single piece.
type Behavior interface {
	Paint(w paint.World, p *Piece, clip geom.Box, r rng.Stream, chunk geom.ChunkPos)
	SaveTag(t tag.Compound)
}

type Piece struct {
	Kind   Kind
	Box    geom.Box
	Facing geom.Facing
	Depth  int
	Body   Behavior
}

// Paint runs the deferred paint routine clipped to clip.
func (p *Piece) Paint(w paint.World, clip geom.Box, r rng.Stream, chunk geom.ChunkPos) {
	if p.Body == nil {
		return
	}
	p.Body.Paint(w, p, clip, r, chunk)
}

// Canvas is a convenience for Behavior implementations.
func (p *Piece) Canvas(w paint.World, clip geom.Box) *paint.Canvas {
	return paint.NewCanvas(w, p.Box, p.Facing, clip)
}

func (p *Piece) String() string {
	return fmt.Sprintf("%s %s %s d=%d", p.Kind, p.Box, p.Facing, p.Depth)
}

var (
	ErrUnknownKind  = errors.New("unknown piece kind")
	ErrMissingField = errors.New("missing piece field")
)

// Decoder rebuilds the Behavior of one archetype from its saved flags.
type Decoder func(t tag.Compound) (Behavior, error)

type Registry map[Kind]Decoder

// Merge copies every decoder of o into r.
func (r Registry) Merge(o Registry) {
	for k, d := range o {
		r[k] = d
	}
}

// Encode writes the common fields (id, BB, O, GD) and the archetype flags.
func Encode(p *Piece) tag.Compound {
	t := tag.Compound{}
	t.PutString("id", string(p.Kind))
	bb := p.Box.Array()
	t.PutInts("BB", bb[:])
	t.PutInt("O", int(p.Facing))
	t.PutInt("GD", p.Depth)
	if p.Body != nil {
		p.Body.SaveTag(t)
	}
	return t
}

// Decode rebuilds a piece. Unknown ids and missing common fields are
// reported with ErrUnknownKind and ErrMissingField.
func (r Registry) Decode(t tag.Compound) (*Piece, error) {
	id, err := t.Str("id")
	if err != nil {
		return nil, fmt.Errorf("%w: id: %v", ErrMissingField, err)
	}
	dec, ok := r[Kind(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, id)
	}
	bb, err := t.Ints("BB")
	if err != nil {
		return nil, fmt.Errorf("%s: %w: BB: %v", id, ErrMissingField, err)
	}
	if len(bb) != 6 {
		return nil, fmt.Errorf("%s: %w: BB has %d values", id, ErrMissingField, len(bb))
	}
	box, err := geom.FromArray([6]int(bb))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	o, err := t.Int("O")
	if err != nil {
		return nil, fmt.Errorf("%s: %w: O: %v", id, ErrMissingField, err)
	}
	f := geom.Facing(o)
	if !f.Valid() {
		return nil, fmt.Errorf("%s: bad facing %d", id, o)
	}
	depth, err := t.Int("GD")
	if err != nil {
		return nil, fmt.Errorf("%s: %w: GD: %v", id, ErrMissingField, err)
	}
	body, err := dec(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return &Piece{Kind: Kind(id), Box: box, Facing: f, Depth: depth, Body: body}, nil
}
