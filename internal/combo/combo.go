package combo

import (
	"fmt"
	"slices"
	"strings"

	"github.com/banshee-data/comboer/internal/event"
	"github.com/banshee-data/comboer/internal/pid"
)

// Leaf is a detected particle used under one PID hypothesis.
type Leaf struct {
	PID    pid.PID
	Handle event.Handle
}

// SubCombos holds the combos filling one sub-use of a combo, in the order
// they were added.
type SubCombos struct {
	Use    Use
	Combos []*Combo
}

// Combo is one concrete grouping of detected particles. Combos live in a
// per-event Pool and are shared, never copied, by every combo containing them.
type Combo struct {
	leaves       []Leaf
	decays       []SubCombos // sorted by useCompare
	zIndependent bool
	bunches      BunchSet

	seq uint32 // creation order within the event, starting at 1
	// Resume cursors: the last particle handle and the last sub-combo
	// appended when this combo was built by vertical comboing.
	lastParticle event.Handle
	lastCombo    uint32

	handles []event.Handle // sorted transitive leaf handles, built lazily
}

// Leaves returns the directly-held leaf members.
func (c *Combo) Leaves() []Leaf { return c.leaves }

// Decays returns the sub-combo lists, keyed by z-independent sub-use.
func (c *Combo) Decays() []SubCombos { return c.decays }

// SubCombos returns the combos filling use, which must be in z-independent form.
func (c *Combo) SubCombos(use Use) []*Combo {
	for _, d := range c.decays {
		if d.Use == use {
			return d.Combos
		}
	}
	return nil
}

// IsZIndependent reports whether every member's kinematics are independent of
// the vertex position.
func (c *Combo) IsZIndependent() bool { return c.zIndependent }

// Bunches is the combo's compatible RF bunch set.
func (c *Combo) Bunches() BunchSet { return c.bunches }

// Seq is the combo's creation order within its event.
func (c *Combo) Seq() uint32 { return c.seq }

// SetMembers replaces the combo's contents. decays is re-sorted by use.
func (c *Combo) SetMembers(leaves []Leaf, decays []SubCombos, zIndependent bool) {
	c.leaves = append(c.leaves[:0], leaves...)
	c.decays = append(c.decays[:0], decays...)
	slices.SortStableFunc(c.decays, func(a, b SubCombos) int { return useCompare(a.Use, b.Use) })
	c.zIndependent = zIndependent
	c.handles = c.handles[:0]
}

// AllLeaves appends every leaf of the combo, transitively, to dst.
func (c *Combo) AllLeaves(dst []Leaf) []Leaf {
	dst = append(dst, c.leaves...)
	for _, d := range c.decays {
		for _, sub := range d.Combos {
			dst = sub.AllLeaves(dst)
		}
	}
	return dst
}

// Handles returns the sorted handles of every leaf, transitively.
func (c *Combo) Handles() []event.Handle {
	if len(c.handles) > 0 || c.empty() {
		return c.handles
	}
	for _, l := range c.AllLeaves(nil) {
		c.handles = append(c.handles, l.Handle)
	}
	slices.Sort(c.handles)
	return c.handles
}

func (c *Combo) empty() bool { return len(c.leaves) == 0 && len(c.decays) == 0 }

// Overlaps reports whether the combos share any detected particle.
func (c *Combo) Overlaps(o *Combo) bool { return overlaps(c.Handles(), o.Handles()) }

func overlaps(sorted, other []event.Handle) bool {
	for _, h := range other {
		if _, ok := slices.BinarySearch(sorted, h); ok {
			return true
		}
	}
	return false
}

func (c *Combo) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, l := range c.leaves {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s#%d", l.PID, l.Handle)
	}
	for _, d := range c.decays {
		if b.Len() > 1 {
			b.WriteByte(' ')
		}
		b.WriteString(d.Use.Parent.String())
		b.WriteByte('(')
		for i, sub := range d.Combos {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(sub.String())
		}
		b.WriteByte(')')
	}
	b.WriteByte(']')
	return b.String()
}

// poolChunk is the slab size. Chunks never move, so pointers into them stay
// valid until the pool is reset.
const poolChunk = 1024

// Pool hands out combos for one event. Reset recycles every combo at once;
// Release recycles one. A released combo may be handed out again by the next
// Acquire, so callers must not keep pointers across a Release or Reset.
type Pool struct {
	chunks [][]Combo
	next   int // high-water mark
	free   []*Combo
	seq    uint32
}

// NewPool returns an empty pool.
func NewPool() *Pool { return &Pool{} }

// Acquire returns a cleared combo.
func (p *Pool) Acquire() *Combo {
	var c *Combo
	if n := len(p.free); n > 0 {
		c = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		ci, i := p.next/poolChunk, p.next%poolChunk
		if ci == len(p.chunks) {
			p.chunks = append(p.chunks, make([]Combo, poolChunk))
		}
		c = &p.chunks[ci][i]
		p.next++
	}
	p.seq++
	c.leaves = c.leaves[:0]
	c.decays = c.decays[:0]
	c.handles = c.handles[:0]
	c.bunches = nil
	c.zIndependent = false
	c.lastParticle = 0
	c.lastCombo = 0
	c.seq = p.seq
	return c
}

// Release returns c to the pool.
func (p *Pool) Release(c *Combo) {
	c.seq = 0
	p.free = append(p.free, c)
}

// Reset recycles every combo handed out since the last Reset.
func (p *Pool) Reset() {
	p.next = 0
	p.free = p.free[:0]
	p.seq = 0
}

// InUse is the number of combos handed out and not released.
func (p *Pool) InUse() int { return p.next - len(p.free) }
