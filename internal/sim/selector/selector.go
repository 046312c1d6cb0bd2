// Package selector is the weighted, cap-limited archetype draw used by chain
// layouts.
package selector

import "voxelstruct.ai/internal/sim/rng"

// Descriptor is one archetype entry of a pool. Max 0 means unlimited.
type Descriptor struct {
	ID         string
	Weight     int
	Max        int
	Placed     int
	AllowInRow bool
}

// Exhausted reports whether the archetype has reached its cap.
func (d *Descriptor) Exhausted() bool { return d.Max > 0 && d.Placed >= d.Max }

// Pool is the live, per-instance copy of a template list. Exhausted entries
// are removed as soon as they hit their cap; order is otherwise fixed.
type Pool struct {
	Name    string
	entries []*Descriptor
	placed  map[string]int
}

// NewPool copies templates so caps never bleed between instances.
func NewPool(name string, templates []Descriptor) *Pool {
	p := &Pool{Name: name, placed: map[string]int{}}
	for _, t := range templates {
		d := t
		d.Placed = 0
		p.entries = append(p.entries, &d)
	}
	return p
}

// Restore rebuilds the placement record of a finished pool. It has no live
// entries, so it never draws again.
func Restore(name string, placed map[string]int) *Pool {
	p := &Pool{Name: name, placed: make(map[string]int, len(placed))}
	for k, v := range placed {
		p.placed[k] = v
	}
	return p
}

// Total is the summed weight of archetypes that still have headroom.
func (p *Pool) Total() int {
	n := 0
	for _, d := range p.entries {
		if !d.Exhausted() {
			n += d.Weight
		}
	}
	return n
}

func (p *Pool) Len() int { return len(p.entries) }

// Entries returns the live descriptors in pool order.
func (p *Pool) Entries() []*Descriptor { return p.entries }

// Draw picks one archetype by weight. It returns nil when the pool has no
// headroom left.
func (p *Pool) Draw(r rng.Stream) *Descriptor {
	total := p.Total()
	if total <= 0 {
		return nil
	}
	n := r.Intn(total)
	for _, d := range p.entries {
		if d.Exhausted() {
			continue
		}
		n -= d.Weight
		if n < 0 {
			return d
		}
	}
	return nil
}

// Commit records one placement of d and drops it from the pool when capped.
func (p *Pool) Commit(d *Descriptor) {
	d.Placed++
	p.placed[d.ID]++
	if !d.Exhausted() {
		return
	}
	for i, e := range p.entries {
		if e == d {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			break
		}
	}
}

// Placed is the number of committed placements of id, including archetypes
// already removed from the pool.
func (p *Pool) Placed(id string) int { return p.placed[id] }

// Counts returns a copy of the placement counts.
func (p *Pool) Counts() map[string]int {
	out := make(map[string]int, len(p.placed))
	for k, v := range p.placed {
		out[k] = v
	}
	return out
}
