package structure

import (
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/mathx"
	"voxelstruct.ai/internal/sim/paint"
	"voxelstruct.ai/internal/sim/rng"
)

// paintSeed mixes the anchor into the world seed so two structures sharing a
// chunk paint from different streams.
func (in *Instance) paintSeed() int64 {
	return int64(mathx.Hash3(in.Seed, in.Anchor[0], in.Anchor[1], in.Anchor[2]))
}

// PaintChunk paints every piece intersecting chunk, clipped to that chunk's
// column, and returns how many pieces were painted. Painting the same chunk
// again rewrites the same blocks; one-shot side effects do not repeat.
func (in *Instance) PaintChunk(w paint.World, chunk geom.ChunkPos) int {
	b := in.Bounds()
	col := chunk.Column(b.MinY, b.MaxY)
	r := rng.ForChunk(in.paintSeed(), chunk.X, chunk.Z)
	n := 0
	for _, p := range in.Pieces {
		clip, ok := p.Box.Clip(col)
		if !ok {
			continue
		}
		p.Paint(w, clip, r, chunk)
		n++
	}
	return n
}

// PaintAll paints every chunk the structure touches.
func (in *Instance) PaintAll(w paint.World) int {
	n := 0
	for _, c := range in.Chunks() {
		n += in.PaintChunk(w, c)
	}
	return n
}
