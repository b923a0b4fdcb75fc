package combo

import (
	"slices"

	"github.com/banshee-data/comboer/internal/pid"
)

// class is one class of a shape: a particle kind or a decay use, with its count.
type class struct {
	particle pid.PID // set for particle classes
	decay    Use
	count    int
}

func classesOf(info *Info) []class {
	out := make([]class, 0, info.NumClasses())
	for _, d := range info.decays {
		out = append(out, class{decay: d.Use, count: d.Count})
	}
	for _, p := range info.particles {
		out = append(out, class{particle: p.PID, count: p.Count})
	}
	return out
}

// comboHorizontally builds a shape of several classes by extending the
// largest already-built subset missing one class. Decay classes are tried
// before particle classes, in shape order; when no such subset exists yet,
// the subset missing the first class is built and extended.
func (c *Comboer) comboHorizontally(use Use, stage Stage) {
	if c.lookup(stage, use, nil) != nil {
		return
	}
	info := use.Info
	if info.NumClasses() == 1 {
		c.comboSingleClass(use, stage)
		return
	}
	classes := classesOf(info)
	for _, cl := range classes {
		x := c.allButOne(use, cl)
		if c.built(stage, x) {
			c.extend(use, stage, x, c.operandFor(use, cl))
			return
		}
	}
	x := c.allButOne(use, classes[0])
	c.createCombos(x.use, stage, nil)
	c.extend(use, stage, x, c.operandFor(use, classes[0]))
}

// comboSingleClass builds shapes of one class with count one. Larger counts
// are built by the vertical combiner under the same use.
func (c *Comboer) comboSingleClass(use Use, stage Stage) {
	info := use.Info
	l := c.begin(stage, use, nil)
	if len(info.particles) == 1 {
		p := info.particles[0].PID
		for _, h := range c.index.Particles(p, stage, nil, use.ZBin) {
			zIndependent := c.index.IsZIndependent(p, h)
			if stage == StageMixed && zIndependent {
				continue
			}
			combo := c.pool.Acquire()
			combo.SetMembers([]Leaf{{PID: p, Handle: h}}, nil, zIndependent)
			combo.lastParticle = h
			c.emit(l, stage, combo, c.leafBunches(p, h, use.ZBin))
		}
		return
	}
	d := info.decays[0].Use
	key := c.reg.ZIndependent(d)
	for _, x := range c.mustList(stage, d, nil).combos {
		if stage == StageMixed && x.zIndependent {
			continue
		}
		combo := c.pool.Acquire()
		combo.SetMembers(nil, []SubCombos{{Use: key, Combos: []*Combo{x}}}, x.zIndependent)
		combo.lastCombo = x.seq
		c.emit(l, stage, combo, x.bunches)
	}
}

// allButOne is the operand holding every class of use except cl. A lone
// decay of count one is used directly rather than through a wrapping group.
func (c *Comboer) allButOne(use Use, cl class) operand {
	info := c.reg.Without(use.Info, cl.particle, cl.decay)
	if len(info.particles) == 0 && len(info.decays) == 1 && info.decays[0].Count == 1 {
		return operand{use: info.decays[0].Use, nest: true}
	}
	return operand{use: Use{Parent: pid.Unknown, ZBin: use.ZBin, Info: info}}
}

// operandFor is the operand supplying class cl to use.
func (c *Comboer) operandFor(use Use, cl class) operand {
	switch {
	case cl.particle != pid.Unknown && cl.count == 1:
		return operand{particle: cl.particle}
	case cl.particle != pid.Unknown:
		return operand{use: c.groupUse(use, []ParticleCount{{PID: cl.particle, Count: cl.count}}, nil)}
	case cl.count == 1:
		return operand{use: cl.decay, nest: !c.promotes(use.Info, cl.decay)}
	}
	return operand{use: c.groupUse(use, nil, []DecayCount{{Use: cl.decay, Count: cl.count}})}
}

func (c *Comboer) built(stage Stage, op operand) bool {
	return op.particle != pid.Unknown || c.lookup(stage, op.use, nil) != nil
}

// extend merges every combo of x with every compatible, leaf-disjoint
// candidate of y.
func (c *Comboer) extend(use Use, stage Stage, x, y operand) {
	l := c.begin(stage, use, nil)
	for _, xc := range c.mustList(stage, x.use, nil).combos {
		handles := xc.Handles()
		if y.particle != pid.Unknown {
			for _, h := range c.index.Particles(y.particle, stage, xc.bunches, use.ZBin) {
				zIndependent := xc.zIndependent && c.index.IsZIndependent(y.particle, h)
				if stage == StageMixed && zIndependent {
					continue
				}
				bunches, ok := Intersect(xc.bunches, c.leafBunches(y.particle, h, use.ZBin))
				if !ok {
					continue
				}
				if _, dup := slices.BinarySearch(handles, h); dup {
					continue
				}
				m := newMembers(nil, nil)
				m.add(c.reg, xc, x)
				m.leaves = append(m.leaves, Leaf{PID: y.particle, Handle: h})
				combo := c.pool.Acquire()
				combo.SetMembers(m.leaves, m.decays, zIndependent)
				c.emit(l, stage, combo, bunches)
			}
			continue
		}
		for _, yc := range c.mustList(stage, y.use, nil).compatible(xc.bunches) {
			zIndependent := xc.zIndependent && yc.zIndependent
			if stage == StageMixed && zIndependent {
				continue
			}
			bunches, ok := Intersect(xc.bunches, yc.bunches)
			if !ok {
				continue
			}
			if overlaps(handles, yc.Handles()) {
				continue
			}
			m := newMembers(nil, nil)
			m.add(c.reg, xc, x)
			m.add(c.reg, yc, y)
			combo := c.pool.Acquire()
			combo.SetMembers(m.leaves, m.decays, zIndependent)
			c.emit(l, stage, combo, bunches)
		}
	}
}
