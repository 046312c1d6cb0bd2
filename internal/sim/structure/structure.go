// Package structure ties a family's layout to a buildable, paintable and
// persistable Instance.
package structure

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"voxelstruct.ai/internal/persistence/tag"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/piece"
	"voxelstruct.ai/internal/sim/rng"
	"voxelstruct.ai/internal/sim/selector"
)

var ErrUnknownFamily = errors.New("unknown structure family")

// Request is what a generator lays out from.
type Request struct {
	Family string
	Seed   int64
	X      int
	Y      int
	Z      int
	// Facing may be geom.None; generators that need one draw it from R.
	Facing geom.Facing
	R      rng.Stream
}

// Seam is a pair of piece indexes allowed to overlap.
type Seam struct {
	A, B int
}

// Layout is a finished piece graph.
type Layout struct {
	Pieces []*piece.Piece
	Pools  []*selector.Pool
	Seams  []Seam
	Stats  map[string]int
}

type Generator interface {
	Family() string
	Layout(req Request) Layout
	Decoders() piece.Registry
}

// Instance is one built structure.
type Instance struct {
	ID     uuid.UUID
	Family string
	Seed   int64
	Anchor [3]int
	Facing geom.Facing

	Pieces []*piece.Piece
	Pools  []*selector.Pool
	Seams  []Seam
	Stats  map[string]int

	// Built is the digest taken right after layout, before any paint.
	Built string
}

// InstanceID derives a stable id from what determines the layout.
func InstanceID(family string, seed int64, anchor [3]int, f geom.Facing) uuid.UUID {
	key := fmt.Sprintf("%s/%d/%d,%d,%d/%d", family, seed, anchor[0], anchor[1], anchor[2], f)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
}

func (in *Instance) Root() *piece.Piece {
	if len(in.Pieces) == 0 {
		return nil
	}
	return in.Pieces[0]
}

func (in *Instance) Bounds() geom.Box {
	if len(in.Pieces) == 0 {
		return geom.Box{}
	}
	b := in.Pieces[0].Box
	for _, p := range in.Pieces[1:] {
		b = b.Encapsulate(p.Box)
	}
	return b
}

// MaxDepth is the largest piece depth.
func (in *Instance) MaxDepth() int {
	d := 0
	for _, p := range in.Pieces {
		d = max(d, p.Depth)
	}
	return d
}

// CountKinds returns the number of pieces per kind.
func (in *Instance) CountKinds() map[piece.Kind]int {
	out := map[piece.Kind]int{}
	for _, p := range in.Pieces {
		out[p.Kind]++
	}
	return out
}

func (in *Instance) seamSet() map[Seam]bool {
	m := make(map[Seam]bool, len(in.Seams))
	for _, s := range in.Seams {
		a, b := s.A, s.B
		if a > b {
			a, b = b, a
		}
		m[Seam{a, b}] = true
	}
	return m
}

// Overlaps lists intersecting piece pairs that are not declared seams. A
// correct layout returns none.
func (in *Instance) Overlaps() []Seam {
	allowed := in.seamSet()
	var out []Seam
	for i := range in.Pieces {
		for j := i + 1; j < len(in.Pieces); j++ {
			if !in.Pieces[i].Box.Intersects(in.Pieces[j].Box) {
				continue
			}
			if !allowed[Seam{i, j}] {
				out = append(out, Seam{i, j})
			}
		}
	}
	return out
}

// Digest hashes the canonical tag form of every piece in order.
func (in *Instance) Digest() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d,%d,%d\n", in.Family, in.Seed, in.Anchor[0], in.Anchor[1], in.Anchor[2])
	for _, p := range in.Pieces {
		h.Write([]byte(piece.Encode(p).Canonical()))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Chunks lists every chunk some piece touches, sorted.
func (in *Instance) Chunks() []geom.ChunkPos {
	seen := map[geom.ChunkPos]bool{}
	var out []geom.ChunkPos
	for _, p := range in.Pieces {
		for _, c := range geom.ChunksTouching(p.Box) {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Z < out[j].Z
	})
	return out
}

// Encode returns the tag form of every piece.
func (in *Instance) Encode() []tag.Compound {
	out := make([]tag.Compound, len(in.Pieces))
	for i, p := range in.Pieces {
		out[i] = piece.Encode(p)
	}
	return out
}
