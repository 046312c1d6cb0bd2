package structure

import (
	"fmt"
	"sort"

	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/piece"
	"voxelstruct.ai/internal/sim/rng"
)

// Registry maps family names to generators. It is read-only after
// construction and safe to share between goroutines; every Build owns its
// own stream, pools and collection.
type Registry struct {
	gens     map[string]Generator
	decoders piece.Registry
}

func NewRegistry(gens ...Generator) *Registry {
	r := &Registry{gens: map[string]Generator{}, decoders: piece.Registry{}}
	for _, g := range gens {
		r.gens[g.Family()] = g
		r.decoders.Merge(g.Decoders())
	}
	return r
}

// Families returns the registered family names, sorted.
func (r *Registry) Families() []string {
	out := make([]string, 0, len(r.gens))
	for name := range r.gens {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Has(family string) bool {
	_, ok := r.gens[family]
	return ok
}

// Decoders is the union of every family's piece decoders.
func (r *Registry) Decoders() piece.Registry { return r.decoders }

// Build lays out one structure. Only an unknown family is an error; a
// layout that cannot place everything still yields a best-effort instance.
func (r *Registry) Build(family string, anchor [3]int, facing geom.Facing, seed int64) (*Instance, error) {
	g, ok := r.gens[family]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
	req := Request{
		Family: family,
		Seed:   seed,
		X:      anchor[0],
		Y:      anchor[1],
		Z:      anchor[2],
		Facing: facing,
		R:      rng.ForStructure(seed, anchor[0], anchor[1], anchor[2], family),
	}
	lay := g.Layout(req)
	in := &Instance{
		ID:     InstanceID(family, seed, anchor, facing),
		Family: family,
		Seed:   seed,
		Anchor: anchor,
		Facing: facing,
		Pieces: lay.Pieces,
		Pools:  lay.Pools,
		Seams:  lay.Seams,
		Stats:  lay.Stats,
	}
	in.Built = in.Digest()
	return in, nil
}
