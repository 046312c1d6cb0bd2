// Package encoding packs painted chunk columns for transport.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/paint"
)

// Section is one chunk column between MinY and MaxY inclusive. RLE holds
// indexes into Palette in x + z*16 + (y-MinY)*256 order.
type Section struct {
	Chunk   [2]int   `json:"chunk"`
	MinY    int      `json:"min_y"`
	MaxY    int      `json:"max_y"`
	Palette []string `json:"palette"`
	RLE     string   `json:"rle"`
}

// Volume is the number of cells the section covers.
func (s Section) Volume() int {
	if s.MaxY < s.MinY {
		return 0
	}
	return geom.ChunkSize * geom.ChunkSize * (s.MaxY - s.MinY + 1)
}

// EncodeSection reads chunk c of w between minY and maxY. The local
// palette always starts with air.
func EncodeSection(w paint.World, c geom.ChunkPos, minY, maxY int) Section {
	s := Section{Chunk: [2]int{c.X, c.Z}, MinY: minY, MaxY: maxY, Palette: []string{paint.Air.String()}}
	local := map[paint.Block]uint16{paint.Air: 0}
	ids := make([]uint16, 0, s.Volume())
	x0, z0 := c.X*geom.ChunkSize, c.Z*geom.ChunkSize
	for y := minY; y <= maxY; y++ {
		for z := 0; z < geom.ChunkSize; z++ {
			for x := 0; x < geom.ChunkSize; x++ {
				b := w.Block(x0+x, y, z0+z)
				id, ok := local[b]
				if !ok {
					id = uint16(len(s.Palette))
					local[b] = id
					s.Palette = append(s.Palette, b.String())
				}
				ids = append(ids, id)
			}
		}
	}
	s.RLE = EncodeRLE(ids)
	return s
}

// Blocks decodes the section back to palette blocks.
func (s Section) Blocks() ([]paint.Block, error) {
	pal := make([]paint.Block, len(s.Palette))
	for i, name := range s.Palette {
		b, ok := paint.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown block %q", name)
		}
		pal[i] = b
	}
	ids, err := DecodeRLE(s.RLE, s.Volume())
	if err != nil {
		return nil, err
	}
	if len(ids) != s.Volume() {
		return nil, fmt.Errorf("section has %d cells, want %d", len(ids), s.Volume())
	}
	out := make([]paint.Block, len(ids))
	for i, id := range ids {
		if int(id) >= len(pal) {
			return nil, fmt.Errorf("palette index %d out of range at %d", id, i)
		}
		out[i] = pal[id]
	}
	return out, nil
}

// EncodeRLE encodes ids as base64 of (id, run) uvarint pairs.
func EncodeRLE(ids []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(ids); {
		b := ids[i]
		run := 1
		for j := i + 1; j < len(ids) && ids[j] == b; j++ {
			run++
		}
		n := binary.PutUvarint(tmp[:], uint64(b))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])
		i += run
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRLE reverses EncodeRLE. Output longer than max is an error; max <= 0
// disables the check.
func DecodeRLE(b64 string, max int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []uint16
	for i := 0; i < len(raw); {
		b, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if b > 0xFFFF {
			return nil, fmt.Errorf("id too large: %d", b)
		}
		if max > 0 && uint64(len(out))+run > uint64(max) {
			return nil, fmt.Errorf("runs exceed %d cells", max)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(b))
		}
	}
	return out, nil
}
