package structure

import (
	"fmt"

	"github.com/google/uuid"

	"voxelstruct.ai/internal/persistence/snapshot"
	"voxelstruct.ai/internal/persistence/tag"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/piece"
	"voxelstruct.ai/internal/sim/selector"
)

// Export converts the instance to its snapshot form.
func (in *Instance) Export() (snapshot.StructureV1, error) {
	out := snapshot.StructureV1{
		ID:     in.ID.String(),
		Family: in.Family,
		Seed:   in.Seed,
		Anchor: in.Anchor,
		Facing: int(in.Facing),
		Bounds: in.Bounds().Array(),
		Digest: in.Built,
	}
	for i, p := range in.Pieces {
		raw, err := tag.Marshal(piece.Encode(p))
		if err != nil {
			return out, fmt.Errorf("piece %d (%s): %w", i, p.Kind, err)
		}
		out.Pieces = append(out.Pieces, raw)
	}
	for _, s := range in.Seams {
		out.Seams = append(out.Seams, [2]int{s.A, s.B})
	}
	for _, p := range in.Pools {
		out.Pools = append(out.Pools, snapshot.PoolV1{Name: p.Name, Placed: p.Counts()})
	}
	return out, nil
}

// Import rebuilds an instance from its snapshot form. A piece whose tag is
// corrupt is dropped and reported; the rest of the structure still loads.
// Seams that referenced a dropped piece are dropped with it.
func Import(s snapshot.StructureV1, reg piece.Registry) (*Instance, []error) {
	var errs []error
	id, err := uuid.Parse(s.ID)
	if err != nil {
		errs = append(errs, fmt.Errorf("id: %w", err))
	}
	in := &Instance{
		ID:     id,
		Family: s.Family,
		Seed:   s.Seed,
		Anchor: s.Anchor,
		Facing: geom.Facing(s.Facing),
		Built:  s.Digest,
	}
	remap := make([]int, len(s.Pieces))
	for i, raw := range s.Pieces {
		remap[i] = -1
		t, err := tag.Unmarshal(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("piece %d: %w", i, err))
			continue
		}
		p, err := reg.Decode(t)
		if err != nil {
			errs = append(errs, fmt.Errorf("piece %d: %w", i, err))
			continue
		}
		remap[i] = len(in.Pieces)
		in.Pieces = append(in.Pieces, p)
	}
	for _, sm := range s.Seams {
		a, b := sm[0], sm[1]
		if a < 0 || b < 0 || a >= len(remap) || b >= len(remap) || remap[a] < 0 || remap[b] < 0 {
			continue
		}
		in.Seams = append(in.Seams, Seam{A: remap[a], B: remap[b]})
	}
	for _, pl := range s.Pools {
		in.Pools = append(in.Pools, selector.Restore(pl.Name, pl.Placed))
	}
	return in, errs
}
