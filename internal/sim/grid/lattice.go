// Package grid lays out buildings whose rooms occupy a fixed 3D lattice.
//
// A Lattice holds one Slot per occupied cell, linked to its lattice
// neighbours. Prune thins the links while keeping every slot reachable from
// the root, and Assign merges adjacent slots into multi-cell rooms.
package grid

import "voxelstruct.ai/internal/sim/rng"

// Dir is one of the six axis directions. North is +z, away from the entrance.
type Dir int

const (
	Down Dir = iota
	Up
	North
	South
	West
	East
)

var Dirs = [6]Dir{Down, Up, North, South, West, East}

var dirStep = [6][3]int{
	Down:  {0, -1, 0},
	Up:    {0, 1, 0},
	North: {0, 0, 1},
	South: {0, 0, -1},
	West:  {-1, 0, 0},
	East:  {1, 0, 0},
}

func (d Dir) Opposite() Dir { return d ^ 1 }

func (d Dir) Step() (dx, dy, dz int) {
	s := dirStep[d]
	return s[0], s[1], s[2]
}

func (d Dir) String() string {
	return [...]string{"down", "up", "north", "south", "west", "east"}[d]
}

// Slot is one room cell. Next is always symmetric: a.Next[d] == b implies
// b.Next[d.Opposite()] == a. Open mirrors the same way.
type Slot struct {
	Index   int
	X, Y, Z int
	Open    [6]bool
	Next    [6]*Slot
	Claimed bool
	Root    bool
	// Special slots hang off the lattice (wings, penthouses). They are never
	// pruned or assigned.
	Special bool
	Name    string

	scan uint32
}

// Link connects a and b in both directions.
func Link(a *Slot, d Dir, b *Slot) {
	a.Next[d] = b
	b.Next[d.Opposite()] = a
}

// Openings counts open directions.
func (s *Slot) Openings() int {
	n := 0
	for _, o := range s.Open {
		if o {
			n++
		}
	}
	return n
}

// Passable reports whether s can be left through d.
func (s *Slot) Passable(d Dir) bool { return s.Open[d] && s.Next[d] != nil }

type Lattice struct {
	W, H, D  int
	cells    []*Slot
	specials []*Slot
	root     *Slot
	gen      uint32
	stack    []*Slot
}

func NewLattice(w, h, d int) *Lattice {
	return &Lattice{W: w, H: h, D: d, cells: make([]*Slot, w*h*d)}
}

// Index is the lattice index of (x,y,z): x fastest, then z, then y.
func (l *Lattice) Index(x, y, z int) int { return x + l.W*(z+l.D*y) }

func (l *Lattice) inside(x, y, z int) bool {
	return x >= 0 && x < l.W && y >= 0 && y < l.H && z >= 0 && z < l.D
}

// Occupy creates the slot at (x,y,z) if it does not exist yet.
func (l *Lattice) Occupy(x, y, z int) *Slot {
	if !l.inside(x, y, z) {
		return nil
	}
	i := l.Index(x, y, z)
	if l.cells[i] == nil {
		l.cells[i] = &Slot{Index: i, X: x, Y: y, Z: z}
	}
	return l.cells[i]
}

func (l *Lattice) At(x, y, z int) *Slot {
	if !l.inside(x, y, z) {
		return nil
	}
	return l.cells[l.Index(x, y, z)]
}

// Slots returns the occupied lattice slots in index order.
func (l *Lattice) Slots() []*Slot {
	out := make([]*Slot, 0, len(l.cells))
	for _, s := range l.cells {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (l *Lattice) Specials() []*Slot { return l.specials }

// LinkAll links every pair of lattice-adjacent occupied slots.
func (l *Lattice) LinkAll() {
	for _, s := range l.cells {
		if s == nil {
			continue
		}
		for _, d := range Dirs {
			dx, dy, dz := d.Step()
			if n := l.At(s.X+dx, s.Y+dy, s.Z+dz); n != nil {
				Link(s, d, n)
			}
		}
	}
}

// Attach hangs a special slot off from in direction d. Special slots start
// claimed.
func (l *Lattice) Attach(from *Slot, d Dir, name string) *Slot {
	s := &Slot{Index: len(l.cells) + len(l.specials), Special: true, Claimed: true, Name: name}
	Link(from, d, s)
	l.specials = append(l.specials, s)
	return s
}

func (l *Lattice) SetRoot(s *Slot) {
	if l.root != nil {
		l.root.Root = false
	}
	s.Root = true
	l.root = s
}

func (l *Lattice) Root() *Slot { return l.root }

// ResetOpenings opens every existing link.
func (l *Lattice) ResetOpenings() {
	reset := func(s *Slot) {
		for d := range s.Open {
			s.Open[d] = s.Next[d] != nil
		}
	}
	for _, s := range l.cells {
		if s != nil {
			reset(s)
		}
	}
	for _, s := range l.specials {
		reset(s)
	}
}

// Close shuts the opening between s and its neighbour in d on both sides.
func Close(s *Slot, d Dir) {
	s.Open[d] = false
	if n := s.Next[d]; n != nil {
		n.Open[d.Opposite()] = false
	}
}

// Reopen undoes Close.
func Reopen(s *Slot, d Dir) {
	if n := s.Next[d]; n != nil {
		s.Open[d] = true
		n.Open[d.Opposite()] = true
	}
}

func (l *Lattice) nextGen() uint32 {
	l.gen++
	if l.gen == 0 {
		for _, s := range l.cells {
			if s != nil {
				s.scan = 0
			}
		}
		for _, s := range l.specials {
			s.scan = 0
		}
		l.gen = 1
	}
	return l.gen
}

// ReachesRoot walks open links from s and reports whether the root is found.
func (l *Lattice) ReachesRoot(s *Slot) bool {
	if s == nil || l.root == nil {
		return false
	}
	gen := l.nextGen()
	stack := append(l.stack[:0], s)
	s.scan = gen
	found := false
	for len(stack) > 0 && !found {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.Root {
			found = true
			break
		}
		for d, n := range cur.Next {
			if n != nil && cur.Open[d] && n.scan != gen {
				n.scan = gen
				stack = append(stack, n)
			}
		}
	}
	l.stack = stack[:0]
	return found
}

// Reachable lists every slot connected to the root through open links, in
// discovery order.
func (l *Lattice) Reachable() []*Slot {
	if l.root == nil {
		return nil
	}
	gen := l.nextGen()
	out := []*Slot{l.root}
	l.root.scan = gen
	for i := 0; i < len(out); i++ {
		cur := out[i]
		for d, n := range cur.Next {
			if n != nil && cur.Open[d] && n.scan != gen {
				n.scan = gen
				out = append(out, n)
			}
		}
	}
	return out
}

type PruneConfig struct {
	// Cuts is the number of closures accepted per slot.
	Cuts int
	// Tries is the number of random directions drawn per slot.
	Tries int
}

// Prune visits the lattice slots in a seeded random order and closes up to
// Cuts openings per slot. A closure is kept only when both of its endpoints
// still reach the root. It returns the visit order.
func (l *Lattice) Prune(r rng.Stream, cfg PruneConfig) []*Slot {
	order := l.Slots()
	rng.Shuffle(r, len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	for _, s := range order {
		cuts, tries := 0, 0
		for cuts < cfg.Cuts && tries < cfg.Tries {
			tries++
			d := Dir(r.Intn(6))
			if !s.Open[d] {
				continue
			}
			n := s.Next[d]
			Close(s, d)
			if l.ReachesRoot(s) && l.ReachesRoot(n) {
				cuts++
				continue
			}
			Reopen(s, d)
		}
	}
	return order
}
