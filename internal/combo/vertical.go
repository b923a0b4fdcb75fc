package combo

import (
	"github.com/banshee-data/comboer/internal/event"
	"github.com/banshee-data/comboer/internal/pid"
)

// comboVertically makes sure every class of use is available on its own:
// decays of count one are built directly, and classes needed more than once
// are built as groups of N by the vertical combiner.
func (c *Comboer) comboVertically(use Use, stage Stage) {
	for _, d := range use.Info.decays {
		if stage == StageCharged && d.Use.Info.content == pid.AllNeutral {
			continue
		}
		if d.Count == 1 {
			c.createCombos(d.Use, stage, nil)
			continue
		}
		c.verticalDecays(use, d, stage)
	}
	for _, p := range use.Info.particles {
		if p.Count == 1 || (stage == StageCharged && !p.PID.IsCharged()) {
			continue
		}
		c.verticalParticles(use, p, stage)
	}
}

// groupUse is the unstructured use holding just the given class, which is use
// itself when use has no other class.
func (c *Comboer) groupUse(use Use, particles []ParticleCount, decays []DecayCount) Use {
	info := c.reg.GetOrMake(particles, decays)
	if info == use.Info && use.Parent == pid.Unknown {
		return use
	}
	return Use{Parent: pid.Unknown, ZBin: use.ZBin, Info: info}
}

func (c *Comboer) verticalDecays(use Use, d DecayCount, stage Stage) {
	target := c.groupUse(use, nil, []DecayCount{d})
	if c.lookup(stage, target, nil) != nil {
		return
	}
	c.createCombos(d.Use, stage, nil)
	prev := d.Use
	if d.Count > 2 {
		less := DecayCount{Use: d.Use, Count: d.Count - 1}
		prev = c.groupUse(Use{ZBin: use.ZBin}, nil, []DecayCount{less})
		if c.lookup(stage, prev, nil) == nil {
			c.verticalDecays(prev, less, stage)
		}
	}
	c.comboNDecays(target, prev, d, stage)
}

// comboNDecays extends every group of N-1 decay combos with each later decay
// combo. Candidates resume strictly after the last combo the group consumed,
// so each unordered set is built once, in creation order.
func (c *Comboer) comboNDecays(target, prev Use, d DecayCount, stage Stage) {
	l := c.begin(stage, target, nil)
	nIs2 := d.Count == 2
	key := c.reg.ZIndependent(d.Use)
	decays := c.mustList(stage, d.Use, nil)
	for _, x := range c.mustList(stage, prev, nil).combos {
		resume := x.lastCombo
		if nIs2 {
			resume = x.seq
		}
		handles := x.Handles()
		ys := decays.compatible(x.bunches)
		for _, y := range ys[resumeAfterSeq(ys, resume):] {
			zIndependent := x.zIndependent && y.zIndependent
			if stage == StageMixed && zIndependent {
				continue
			}
			bunches, ok := Intersect(x.bunches, y.bunches)
			if !ok {
				continue
			}
			if overlaps(handles, y.Handles()) {
				continue
			}
			var subs []*Combo
			if nIs2 {
				subs = []*Combo{x, y}
			} else {
				prevSubs := x.SubCombos(key)
				subs = make([]*Combo, 0, len(prevSubs)+1)
				subs = append(append(subs, prevSubs...), y)
			}
			combo := c.pool.Acquire()
			combo.SetMembers(nil, []SubCombos{{Use: key, Combos: subs}}, zIndependent)
			combo.lastCombo = y.seq
			c.emit(l, stage, combo, bunches)
		}
	}
}

func (c *Comboer) verticalParticles(use Use, p ParticleCount, stage Stage) {
	target := c.groupUse(use, []ParticleCount{p}, nil)
	if c.lookup(stage, target, nil) != nil {
		return
	}
	var prev Use
	if p.Count > 2 {
		less := ParticleCount{PID: p.PID, Count: p.Count - 1}
		prev = c.groupUse(Use{ZBin: use.ZBin}, []ParticleCount{less}, nil)
		if c.lookup(stage, prev, nil) == nil {
			c.verticalParticles(prev, less, stage)
		}
	}
	c.comboNParticles(target, prev, p, stage)
}

// comboNParticles builds groups of N particles of one kind: all pairs for
// N=2, otherwise each N-1 group extended by every later particle.
func (c *Comboer) comboNParticles(target, prev Use, p ParticleCount, stage Stage) {
	l := c.begin(stage, target, nil)
	zbin := target.ZBin
	if p.Count == 2 {
		ps := c.index.Particles(p.PID, stage, nil, zbin)
		for i, a := range ps {
			aZI := c.index.IsZIndependent(p.PID, a)
			aBunches := c.leafBunches(p.PID, a, zbin)
			for _, b := range ps[i+1:] {
				zIndependent := aZI && c.index.IsZIndependent(p.PID, b)
				if stage == StageMixed && zIndependent {
					continue
				}
				bunches, ok := Intersect(aBunches, c.leafBunches(p.PID, b, zbin))
				if !ok {
					continue
				}
				combo := c.pool.Acquire()
				combo.SetMembers([]Leaf{{PID: p.PID, Handle: a}, {PID: p.PID, Handle: b}}, nil, zIndependent)
				combo.lastParticle = b
				c.emit(l, stage, combo, bunches)
			}
		}
		return
	}
	for _, x := range c.mustList(stage, prev, nil).combos {
		ps := c.index.Particles(p.PID, stage, x.bunches, zbin)
		for _, h := range ps[resumeAfterHandle(ps, x.lastParticle):] {
			zIndependent := x.zIndependent && c.index.IsZIndependent(p.PID, h)
			if stage == StageMixed && zIndependent {
				continue
			}
			bunches, ok := Intersect(x.bunches, c.leafBunches(p.PID, h, zbin))
			if !ok {
				continue
			}
			leaves := make([]Leaf, 0, len(x.leaves)+1)
			leaves = append(append(leaves, x.leaves...), Leaf{PID: p.PID, Handle: h})
			combo := c.pool.Acquire()
			combo.SetMembers(leaves, nil, zIndependent)
			combo.lastParticle = h
			c.emit(l, stage, combo, bunches)
		}
	}
}

// leafBunches is the bunch constraint a single leaf contributes. Only
// photons constrain the bunch before a vertex is known.
func (c *Comboer) leafBunches(p pid.PID, h event.Handle, zbin ZBin) BunchSet {
	if p != pid.Gamma {
		return nil
	}
	return c.index.PhotonBunches(h, zbin)
}
