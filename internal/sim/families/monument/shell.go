package monument

import (
	"fmt"

	"voxelstruct.ai/internal/persistence/tag"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/paint"
	"voxelstruct.ai/internal/sim/piece"
	"voxelstruct.ai/internal/sim/rng"
)

const elder = "elder_guardian"

// Building is the outer shell: the flooded footprint, the two wing
// housings, the entrance and the stepped walls around the room block.
type Building struct {
	// Sea is the water level the shell floods up to.
	Sea int
}

func (k *Building) SaveTag(t tag.Compound) { t.PutInt("Sea", k.Sea) }

func decodeBuilding(t tag.Compound) (piece.Behavior, error) {
	sea, err := t.Int("Sea")
	if err != nil {
		return nil, err
	}
	return &Building{Sea: sea}, nil
}

func (k *Building) Paint(w paint.World, p *piece.Piece, clip geom.Box, _ rng.Stream, _ geom.ChunkPos) {
	c := p.Canvas(w, clip)
	top := max(k.Sea, 64) - p.Box.MinY
	c.Flood(0, 0, 0, 58, top, 58, k.Sea)
	k.wing(c, false, 0)
	k.wing(c, true, 33)
	k.entranceArchs(c)
	k.entranceWall(c)
	k.roof(c)
	k.lowerWall(c)
	k.middleWall(c)
	k.upperWall(c)
	for j := 0; j < 7; j++ {
		for i := 0; i < 7; {
			if i == 0 && j == 3 {
				i = 6
			}
			c.Solid(j*9, 0, i*9, j*9+3, 0, i*9+3, light)
			if j != 0 && j != 6 {
				i += 6
			} else {
				i++
			}
		}
	}
}

func (k *Building) wing(c *paint.Canvas, right bool, i int) {
	c.Solid(i, 0, 0, i+24, 0, 20, gray)
	c.Flood(i, 1, 0, i+24, 10, 20, k.Sea)
	for n := 0; n < 4; n++ {
		c.Solid(i+n, n+1, n, i+n, n+1, 20, light)
		c.Solid(i+n+7, n+5, n+7, i+n+7, n+5, 20, light)
		c.Solid(i+17-n, n+5, n+7, i+17-n, n+5, 20, light)
		c.Solid(i+24-n, n+1, n, i+24-n, n+1, 20, light)
		c.Solid(i+n+1, n+1, n, i+23-n, n+1, n, light)
		c.Solid(i+n+8, n+5, n+7, i+16-n, n+5, n+7, light)
	}
	c.Solid(i+4, 4, 4, i+6, 4, 20, gray)
	c.Solid(i+7, 4, 4, i+17, 4, 6, gray)
	c.Solid(i+18, 4, 4, i+20, 4, 20, gray)
	c.Solid(i+11, 8, 11, i+13, 8, 20, gray)
	for _, z := range []int{12, 15, 18} {
		c.Set(i+12, 9, z, light)
	}
	l, m := i+5, i+19
	if right {
		l, m = i+19, i+5
	}
	for z := 20; z >= 5; z -= 3 {
		c.Set(l, 5, z, light)
	}
	for z := 19; z >= 7; z -= 3 {
		c.Set(m, 5, z, light)
	}
	for n := 0; n < 4; n++ {
		x := i + 17 - n*3
		if right {
			x = i + 24 - (17 - n*3)
		}
		c.Set(x, 5, 5, light)
	}
	c.Set(m, 5, 5, light)
	c.Solid(i+11, 1, 12, i+13, 7, 12, gray)
	c.Solid(i+12, 1, 11, i+12, 7, 13, gray)
}

func (k *Building) entranceArchs(c *paint.Canvas) {
	c.Flood(25, 0, 0, 32, 8, 20, k.Sea)
	for n := 0; n < 4; n++ {
		z := 5 + n*4
		c.Solid(24, 2, z, 24, 4, z, light)
		c.Solid(22, 4, z, 23, 4, z, light)
		c.Set(25, 5, z, light)
		c.Set(26, 6, z, light)
		c.Set(26, 5, z, lamp)
		c.Solid(33, 2, z, 33, 4, z, light)
		c.Solid(34, 4, z, 35, 4, z, light)
		c.Set(32, 5, z, light)
		c.Set(31, 6, z, light)
		c.Set(31, 5, z, lamp)
		c.Solid(27, 6, z, 30, 6, z, gray)
	}
}

func (k *Building) entranceWall(c *paint.Canvas) {
	c.Solid(15, 0, 21, 42, 0, 21, gray)
	c.Flood(26, 1, 21, 31, 3, 21, k.Sea)
	for _, b := range [][5]int{
		{21, 12, 36, 12}, {17, 11, 40, 11}, {16, 10, 41, 10}, {15, 7, 42, 9}, {16, 6, 41, 6},
		{17, 5, 40, 5}, {21, 4, 36, 4}, {22, 3, 26, 3}, {31, 3, 35, 3}, {23, 2, 25, 2}, {32, 2, 34, 2},
	} {
		c.Solid(b[0], b[1], 21, b[2], b[3], 21, gray)
	}
	c.Solid(28, 4, 20, 29, 4, 21, light)
	for _, xy := range [][2]int{{27, 3}, {30, 3}, {26, 2}, {31, 2}, {25, 1}, {32, 1}} {
		c.Set(xy[0], xy[1], 21, light)
	}
	for n := 0; n < 7; n++ {
		c.Set(28-n, 6+n, 21, black)
		c.Set(29+n, 6+n, 21, black)
	}
	for n := 0; n < 4; n++ {
		c.Set(28-n, 9+n, 21, black)
		c.Set(29+n, 9+n, 21, black)
	}
	c.Set(28, 12, 21, black)
	c.Set(29, 12, 21, black)
	for n := 0; n < 3; n++ {
		c.Set(22-n*2, 8, 21, black)
		c.Set(22-n*2, 9, 21, black)
		c.Set(35+n*2, 8, 21, black)
		c.Set(35+n*2, 9, 21, black)
	}
	c.Flood(15, 13, 21, 42, 15, 21, k.Sea)
	for _, b := range [][3]int{
		{15, 15, 6}, {16, 16, 5}, {17, 20, 4}, {21, 21, 3}, {22, 22, 2}, {23, 24, 1},
		{42, 42, 6}, {41, 41, 5}, {37, 40, 4}, {36, 36, 3}, {33, 34, 1}, {35, 35, 2},
	} {
		c.Flood(b[0], 1, 21, b[1], b[2], 21, k.Sea)
	}
}

func (k *Building) roof(c *paint.Canvas) {
	c.Solid(21, 0, 22, 36, 0, 36, gray)
	c.Flood(21, 1, 22, 36, 23, 36, k.Sea)
	for n := 0; n < 4; n++ {
		c.Solid(21+n, 13+n, 21+n, 36-n, 13+n, 21+n, light)
		c.Solid(21+n, 13+n, 36-n, 36-n, 13+n, 36-n, light)
		c.Solid(21+n, 13+n, 22+n, 21+n, 13+n, 35-n, light)
		c.Solid(36-n, 13+n, 22+n, 36-n, 13+n, 35-n, light)
	}
	c.Solid(25, 16, 25, 32, 16, 32, gray)
	for _, xz := range [][2]int{{25, 25}, {32, 25}, {25, 32}, {32, 32}} {
		c.Solid(xz[0], 17, xz[1], xz[0], 19, xz[1], light)
	}
	for _, q := range [][6]int{
		{26, 26, 27, 27, 27, 27}, {26, 31, 27, 30, 27, 30},
		{31, 31, 30, 30, 30, 30}, {31, 26, 30, 27, 30, 27},
	} {
		c.Set(q[0], 20, q[1], light)
		c.Set(q[2], 21, q[3], light)
		c.Set(q[4], 20, q[5], lamp)
	}
	c.Solid(28, 21, 27, 29, 21, 27, gray)
	c.Solid(27, 21, 28, 27, 21, 29, gray)
	c.Solid(28, 21, 30, 29, 21, 30, gray)
	c.Solid(30, 21, 28, 30, 21, 29, gray)
}

func (k *Building) lowerWall(c *paint.Canvas) {
	c.Solid(0, 0, 21, 6, 0, 57, gray)
	c.Flood(0, 1, 21, 6, 7, 57, k.Sea)
	c.Solid(4, 4, 21, 6, 4, 53, gray)
	for n := 0; n < 4; n++ {
		c.Solid(n, n+1, 21, n, n+1, 57-n, light)
	}
	for z := 23; z < 53; z += 3 {
		c.Set(5, 5, z, light)
	}
	c.Set(5, 5, 52, light)
	c.Solid(4, 1, 52, 6, 3, 52, gray)
	c.Solid(5, 1, 51, 5, 3, 53, gray)

	c.Solid(51, 0, 21, 57, 0, 57, gray)
	c.Flood(51, 1, 21, 57, 7, 57, k.Sea)
	c.Solid(51, 4, 21, 53, 4, 53, gray)
	for n := 0; n < 4; n++ {
		c.Solid(57-n, n+1, 21, 57-n, n+1, 57-n, light)
	}
	for z := 23; z < 53; z += 3 {
		c.Set(52, 5, z, light)
	}
	c.Set(52, 5, 52, light)
	c.Solid(51, 1, 52, 53, 3, 52, gray)
	c.Solid(52, 1, 51, 52, 3, 53, gray)

	c.Solid(7, 0, 51, 50, 0, 57, gray)
	c.Flood(7, 1, 51, 50, 10, 57, k.Sea)
	for n := 0; n < 4; n++ {
		c.Solid(n+1, n+1, 57-n, 56-n, n+1, 57-n, light)
	}
}

func (k *Building) middleWall(c *paint.Canvas) {
	c.Solid(7, 0, 21, 13, 0, 50, gray)
	c.Flood(7, 1, 21, 13, 10, 50, k.Sea)
	c.Solid(11, 8, 21, 13, 8, 53, gray)
	for n := 0; n < 4; n++ {
		c.Solid(n+7, n+5, 21, n+7, n+5, 54, light)
	}
	for z := 21; z <= 45; z += 3 {
		c.Set(12, 9, z, light)
	}

	c.Solid(44, 0, 21, 50, 0, 50, gray)
	c.Flood(44, 1, 21, 50, 10, 50, k.Sea)
	c.Solid(44, 8, 21, 46, 8, 53, gray)
	for n := 0; n < 4; n++ {
		c.Solid(50-n, n+5, 21, 50-n, n+5, 54, light)
	}
	for z := 21; z <= 45; z += 3 {
		c.Set(45, 9, z, light)
	}

	c.Solid(14, 0, 44, 43, 0, 50, gray)
	c.Flood(14, 1, 44, 43, 10, 50, k.Sea)
	for x := 12; x <= 45; x += 3 {
		c.Set(x, 9, 45, light)
		c.Set(x, 9, 52, light)
		if x == 12 || x == 18 || x == 24 || x == 33 || x == 39 || x == 45 {
			for _, yz := range [][2]int{{9, 47}, {9, 50}, {10, 45}, {10, 46}, {10, 51}, {10, 52}, {11, 47}, {11, 50}, {12, 48}, {12, 49}} {
				c.Set(x, yz[0], yz[1], light)
			}
		}
	}
	for n := 0; n < 3; n++ {
		c.Solid(8+n, 5+n, 54, 49-n, 5+n, 54, gray)
	}
	c.Solid(11, 8, 54, 46, 8, 54, light)
	c.Solid(14, 8, 44, 43, 8, 53, gray)
}

func (k *Building) upperWall(c *paint.Canvas) {
	c.Solid(14, 0, 21, 20, 0, 43, gray)
	c.Flood(14, 1, 22, 20, 14, 43, k.Sea)
	c.Solid(18, 12, 22, 20, 12, 39, gray)
	c.Solid(18, 12, 21, 20, 12, 21, light)
	for n := 0; n < 4; n++ {
		c.Solid(n+14, n+9, 21, n+14, n+9, 43-n, light)
	}
	for z := 23; z <= 39; z += 3 {
		c.Set(19, 13, z, light)
	}

	c.Solid(37, 0, 21, 43, 0, 43, gray)
	c.Flood(37, 1, 22, 43, 14, 43, k.Sea)
	c.Solid(37, 12, 22, 39, 12, 39, gray)
	c.Solid(37, 12, 21, 39, 12, 21, light)
	for n := 0; n < 4; n++ {
		c.Solid(43-n, n+9, 21, 43-n, n+9, 43-n, light)
	}
	for z := 23; z <= 39; z += 3 {
		c.Set(38, 13, z, light)
	}

	c.Solid(21, 0, 37, 36, 0, 43, gray)
	c.Flood(21, 1, 37, 36, 14, 43, k.Sea)
	c.Solid(21, 12, 37, 36, 12, 39, gray)
	for n := 0; n < 4; n++ {
		c.Solid(15+n, n+9, 43-n, 42-n, n+9, 43-n, light)
	}
	for x := 21; x <= 36; x += 3 {
		c.Set(x, 13, 38, light)
	}
}

// Wing is one of the two side halls. Each holds an elder guardian, spawned
// once.
type Wing struct {
	Design  int
	Spawned bool
}

func (k *Wing) SaveTag(t tag.Compound) {
	t.PutInt("Design", k.Design)
	t.PutBool("Elder", k.Spawned)
}

func decodeWing(t tag.Compound) (piece.Behavior, error) {
	d, err := t.Int("Design")
	if err != nil {
		return nil, err
	}
	if d != 0 && d != 1 {
		return nil, fmt.Errorf("Design=%d out of range", d)
	}
	return &Wing{Design: d, Spawned: t.BoolOr("Elder", false)}, nil
}

func (k *Wing) Paint(w paint.World, p *piece.Piece, clip geom.Box, _ rng.Stream, _ geom.ChunkPos) {
	c := p.Canvas(w, clip)
	if k.Design == 0 {
		for n := 0; n < 4; n++ {
			c.Solid(10-n, 3-n, 20-n, 12+n, 3-n, 20, light)
		}
		for _, b := range [][6]int{
			{7, 0, 6, 15, 0, 16}, {6, 0, 6, 6, 3, 20}, {16, 0, 6, 16, 3, 20},
			{7, 1, 7, 7, 1, 20}, {15, 1, 7, 15, 1, 20}, {7, 1, 6, 9, 3, 6}, {13, 1, 6, 15, 3, 6},
			{8, 1, 7, 9, 1, 7}, {13, 1, 7, 14, 1, 7}, {9, 0, 5, 13, 0, 5},
		} {
			c.Solid(b[0], b[1], b[2], b[3], b[4], b[5], light)
		}
		c.Solid(10, 0, 7, 12, 0, 7, black)
		c.Solid(8, 0, 10, 8, 0, 12, black)
		c.Solid(14, 0, 10, 14, 0, 12, black)
		for z := 18; z >= 7; z -= 3 {
			c.Set(6, 3, z, lamp)
			c.Set(16, 3, z, lamp)
		}
		for _, xz := range [][2]int{{10, 10}, {12, 10}, {10, 12}, {12, 12}} {
			c.Set(xz[0], 0, xz[1], lamp)
		}
		c.Set(8, 3, 6, lamp)
		c.Set(14, 3, 6, lamp)
		for _, xz := range [][2]int{{4, 4}, {18, 4}, {4, 18}, {18, 18}} {
			c.Set(xz[0], 2, xz[1], light)
			c.Set(xz[0], 1, xz[1], lamp)
			c.Set(xz[0], 0, xz[1], light)
		}
		c.Set(9, 7, 20, light)
		c.Set(13, 7, 20, light)
		c.Solid(6, 0, 21, 7, 4, 21, light)
		c.Solid(15, 0, 21, 16, 4, 21, light)
		c.Mob(&k.Spawned, 11, 2, 16, elder)
		return
	}
	c.Solid(9, 3, 18, 13, 3, 20, light)
	c.Solid(9, 0, 18, 9, 2, 18, light)
	c.Solid(13, 0, 18, 13, 2, 18, light)
	for _, x := range []int{9, 13} {
		c.Set(x, 6, 20, light)
		c.Set(x, 5, 20, lamp)
		c.Set(x, 4, 20, light)
	}
	c.Solid(7, 3, 7, 15, 3, 14, light)
	for _, x := range []int{10, 12} {
		c.Solid(x, 0, 10, x, 6, 10, light)
		c.Solid(x, 0, 12, x, 6, 12, light)
		c.Set(x, 0, 10, lamp)
		c.Set(x, 0, 12, lamp)
		c.Set(x, 4, 10, lamp)
		c.Set(x, 4, 12, lamp)
	}
	for _, x := range []int{8, 14} {
		c.Solid(x, 0, 7, x, 2, 7, light)
		c.Solid(x, 0, 14, x, 2, 14, light)
	}
	c.Solid(8, 3, 8, 8, 3, 13, black)
	c.Solid(14, 3, 8, 14, 3, 13, black)
	c.Mob(&k.Spawned, 11, 5, 13, elder)
}

// Penthouse is the lit chamber on the roof, home of the third elder guardian.
// Its box starts one block below the roof so local y=0 is the floor ring.
type Penthouse struct {
	Spawned bool
}

func (k *Penthouse) SaveTag(t tag.Compound) { t.PutBool("Elder", k.Spawned) }

func decodePenthouse(t tag.Compound) (piece.Behavior, error) {
	return &Penthouse{Spawned: t.BoolOr("Elder", false)}, nil
}

func (k *Penthouse) Paint(w paint.World, p *piece.Piece, clip geom.Box, _ rng.Stream, _ geom.ChunkPos) {
	c := p.Canvas(w, clip)
	c.Solid(2, 0, 2, 11, 0, 11, light)
	c.Solid(0, 0, 0, 1, 0, 11, gray)
	c.Solid(12, 0, 0, 13, 0, 11, gray)
	c.Solid(2, 0, 0, 11, 0, 1, gray)
	c.Solid(2, 0, 12, 11, 0, 13, gray)
	c.Solid(0, 1, 0, 0, 1, 13, light)
	c.Solid(13, 1, 0, 13, 1, 13, light)
	c.Solid(1, 1, 0, 12, 1, 0, light)
	c.Solid(1, 1, 13, 12, 1, 13, light)
	for i := 2; i <= 11; i += 3 {
		c.Set(0, 1, i, lamp)
		c.Set(13, 1, i, lamp)
		c.Set(i, 1, 0, lamp)
	}
	c.Solid(2, 1, 3, 4, 1, 9, light)
	c.Solid(9, 1, 3, 11, 1, 9, light)
	c.Solid(4, 1, 9, 9, 1, 11, light)
	for _, xz := range [][2]int{{5, 8}, {8, 8}, {10, 10}, {3, 10}} {
		c.Set(xz[0], 1, xz[1], light)
	}
	c.Solid(3, 1, 3, 3, 1, 7, black)
	c.Solid(10, 1, 3, 10, 1, 7, black)
	c.Solid(6, 1, 10, 7, 1, 10, black)
	for _, x := range []int{3, 10} {
		for z := 2; z <= 8; z += 3 {
			c.Solid(x, 1, z, x, 3, z, light)
		}
	}
	c.Solid(5, 1, 10, 5, 3, 10, light)
	c.Solid(8, 1, 10, 8, 3, 10, light)
	c.Solid(6, 0, 7, 7, 0, 8, black)
	door(c, 6, 0, 3, 7, 0, 4)
	c.Mob(&k.Spawned, 6, 2, 6, elder)
}
