package indexdb

import (
	"time"

	"voxelstruct.ai/internal/sim/structure"
)

// StructureRow is the indexed summary of one built structure.
type StructureRow struct {
	ID      string         `json:"id"`
	Family  string         `json:"family"`
	Seed    int64          `json:"seed"`
	Anchor  [3]int         `json:"anchor"`
	Facing  int            `json:"facing"`
	Bounds  [6]int         `json:"bounds"`
	Pieces  int            `json:"pieces"`
	Digest  string         `json:"digest"`
	Stats   map[string]int `json:"stats,omitempty"`
	Chunks  [][2]int       `json:"chunks"`
	BuiltAt string         `json:"built_at"`
}

// RowOf summarizes in for the index.
func RowOf(in *structure.Instance) StructureRow {
	r := StructureRow{
		ID:      in.ID.String(),
		Family:  in.Family,
		Seed:    in.Seed,
		Anchor:  in.Anchor,
		Facing:  int(in.Facing),
		Bounds:  in.Bounds().Array(),
		Pieces:  len(in.Pieces),
		Digest:  in.Built,
		Stats:   in.Stats,
		BuiltAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, c := range in.Chunks() {
		r.Chunks = append(r.Chunks, [2]int{c.X, c.Z})
	}
	return r
}
