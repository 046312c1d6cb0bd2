// Package paint is the block-writing surface deferred piece painting uses.
package paint

import "sort"

// World is the caller-supplied accessor paint writes through.
type World interface {
	Block(x, y, z int) Block
	SetBlock(x, y, z int, b Block)
	// Height is the y of the highest non-air block in the column, or the
	// world floor when the column is empty.
	Height(x, z int) int
	// MinY is the lowest y a downward column fill may reach.
	MinY() int
	Spawn(e Entity)
}

// Entity is a one-time side effect: a mob, a spawner entity or a loot roll.
type Entity struct {
	Kind    string `json:"kind"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Z       int    `json:"z"`
	Details string `json:"details,omitempty"`
}

const (
	EntityLoot    = "loot"
	EntitySpawner = "spawner"
	EntityMob     = "mob"
)

// MemWorld is an in-memory World. It is not safe for concurrent use.
type MemWorld struct {
	Floor  int
	blocks map[[3]int]Block
	tops   map[[2]int]int
	spawns []Entity
}

func NewMemWorld(floor int) *MemWorld {
	return &MemWorld{
		Floor:  floor,
		blocks: map[[3]int]Block{},
		tops:   map[[2]int]int{},
	}
}

func (w *MemWorld) Block(x, y, z int) Block { return w.blocks[[3]int{x, y, z}] }

func (w *MemWorld) SetBlock(x, y, z int, b Block) {
	k := [3]int{x, y, z}
	if b == Air {
		delete(w.blocks, k)
		return
	}
	w.blocks[k] = b
	c := [2]int{x, z}
	if top, ok := w.tops[c]; !ok || y > top {
		w.tops[c] = y
	}
}

func (w *MemWorld) Height(x, z int) int {
	if top, ok := w.tops[[2]int{x, z}]; ok && top > w.Floor {
		return top
	}
	return w.Floor
}

func (w *MemWorld) MinY() int { return w.Floor }

func (w *MemWorld) Spawn(e Entity) { w.spawns = append(w.spawns, e) }

func (w *MemWorld) Spawns() []Entity { return append([]Entity(nil), w.spawns...) }

func (w *MemWorld) Len() int { return len(w.blocks) }

// Counts returns the number of placed blocks per palette name, sorted by name.
func (w *MemWorld) Counts() []BlockCount {
	m := map[Block]int{}
	for _, b := range w.blocks {
		m[b]++
	}
	out := make([]BlockCount, 0, len(m))
	for b, n := range m {
		out = append(out, BlockCount{Name: b.String(), Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type BlockCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Equal reports whether w and o hold the same blocks. Spawns are ignored.
func (w *MemWorld) Equal(o *MemWorld) bool {
	if len(w.blocks) != len(o.blocks) {
		return false
	}
	for k, b := range w.blocks {
		if o.blocks[k] != b {
			return false
		}
	}
	return true
}
