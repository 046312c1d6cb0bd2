package grid

// Step grows a shape: from the From-th cell already in the shape, move
// through Dir to the next cell.
type Step struct {
	From int
	Dir  Dir
}

// Shape is a room template over one or more cells. A shape fits a slot when
// every step crosses an open link into an unclaimed, ordinary slot and Fits
// (if set) accepts the collected cells.
type Shape struct {
	Name  string
	Steps []Step
	Fits  func(cells []*Slot) bool
}

// Match returns the cells the shape would claim starting at s, or nil.
func (sh *Shape) Match(s *Slot) []*Slot {
	if s.Claimed || s.Special {
		return nil
	}
	cells := []*Slot{s}
	for _, st := range sh.Steps {
		if st.From >= len(cells) {
			return nil
		}
		from := cells[st.From]
		if !from.Passable(st.Dir) {
			return nil
		}
		n := from.Next[st.Dir]
		if n.Claimed || n.Special || contains(cells, n) {
			return nil
		}
		cells = append(cells, n)
	}
	if sh.Fits != nil && !sh.Fits(cells) {
		return nil
	}
	return cells
}

func contains(cells []*Slot, s *Slot) bool {
	for _, c := range cells {
		if c == s {
			return true
		}
	}
	return false
}

// Group is one assigned room.
type Group struct {
	Shape *Shape
	Cells []*Slot
}

// Origin is the cell the shape was matched from.
func (g Group) Origin() *Slot { return g.Cells[0] }

// Span is the inclusive cell range the group covers.
func (g Group) Span() (x0, y0, z0, x1, y1, z1 int) {
	o := g.Cells[0]
	x0, y0, z0, x1, y1, z1 = o.X, o.Y, o.Z, o.X, o.Y, o.Z
	for _, c := range g.Cells[1:] {
		x0, y0, z0 = min(x0, c.X), min(y0, c.Y), min(z0, c.Z)
		x1, y1, z1 = max(x1, c.X), max(y1, c.Y), max(z1, c.Z)
	}
	return
}

// ClaimShape marks the cells of sh from s claimed without producing a group,
// for reserved rooms. It reports false and claims nothing when the cells are
// not all present.
func ClaimShape(s *Slot, steps []Step) bool {
	cells := []*Slot{s}
	for _, st := range steps {
		if st.From >= len(cells) {
			return false
		}
		n := cells[st.From].Next[st.Dir]
		if n == nil {
			return false
		}
		cells = append(cells, n)
	}
	for _, c := range cells {
		c.Claimed = true
	}
	return true
}

// Assign visits slots in order (the lattice index order when nil) and gives
// every unclaimed, ordinary slot the first shape that fits it. The last
// shape should be a single-cell fallback.
func (l *Lattice) Assign(order []*Slot, shapes []*Shape) []Group {
	if order == nil {
		order = l.Slots()
	}
	var out []Group
	for _, s := range order {
		if s.Claimed || s.Special {
			continue
		}
		for _, sh := range shapes {
			cells := sh.Match(s)
			if cells == nil {
				continue
			}
			for _, c := range cells {
				c.Claimed = true
			}
			out = append(out, Group{Shape: sh, Cells: cells})
			break
		}
	}
	return out
}
