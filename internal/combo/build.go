package combo

import (
	"fmt"
	"slices"

	"github.com/banshee-data/comboer/internal/event"
	"github.com/banshee-data/comboer/internal/monitoring"
	"github.com/banshee-data/comboer/internal/pid"
)

// contextFor drops the charged context from keys that do not depend on it:
// everything on the charged stage, and neutral shapes on the mixed stages.
func contextFor(use Use, stage Stage, ctx *Combo) *Combo {
	if stage == StageCharged || use.Info.content != pid.Mixed {
		return nil
	}
	return ctx
}

func (c *Comboer) lookup(stage Stage, use Use, ctx *Combo) *comboList {
	return c.memo[memoKey{stage: stage, use: use, ctx: contextFor(use, stage, ctx)}]
}

// mustList returns a result that the build order guarantees exists.
func (c *Comboer) mustList(stage Stage, use Use, ctx *Combo) *comboList {
	l := c.lookup(stage, use, ctx)
	if l == nil {
		panic(fmt.Sprintf("combo: memo miss for %s use %s", stage, use))
	}
	return l
}

func (c *Comboer) enter(use Use, stage Stage) {
	c.depth++
	if c.depth > c.maxDepth {
		panic(fmt.Sprintf("combo: build depth %d exceeded at %s use %s", c.maxDepth, stage, use))
	}
	monitoring.Tracef("[comboer] build stage=%s use=%s depth=%d", stage, use, c.depth)
}

func (c *Comboer) leave() { c.depth-- }

// begin registers an empty result for use. On the full mixed stage the
// z-independent result is built if needed and carried forward first, so only
// combos holding a vertex-dependent member are built afterwards.
func (c *Comboer) begin(stage Stage, use Use, ctx *Combo) *comboList {
	ctx = contextFor(use, stage, ctx)
	l := &comboList{}
	if stage == StageMixed {
		prev := c.createCombos(c.reg.ZIndependent(use), StageMixedZIndependent, ctx)
		for _, x := range prev.combos {
			l.add(x, stage)
		}
		l.copied = len(prev.combos)
	}
	c.memo[memoKey{stage: stage, use: use, ctx: ctx}] = l
	return l
}

// emit stores a newly built combo.
func (c *Comboer) emit(l *comboList, stage Stage, combo *Combo, bunches BunchSet) {
	combo.bunches = bunches
	l.add(combo, stage)
	c.stats.created[stage]++
}

// createCombos returns every combo for use, building it on first request.
// Decay uses are built as the unstructured grouping first and then filtered
// by the invariant-mass cut, unless the cut must wait for a precise vertex.
func (c *Comboer) createCombos(use Use, stage Stage, ctx *Combo) *comboList {
	if l := c.lookup(stage, use, ctx); l != nil {
		return l
	}
	content := use.Info.content
	switch {
	case stage == StageCharged && content == pid.AllNeutral:
		panic(fmt.Sprintf("combo: neutral use %s requested on the charged stage", use))
	case stage != StageCharged && content == pid.AllCharged:
		panic(fmt.Sprintf("combo: charged use %s requested on the %s stage", use, stage))
	case stage != StageCharged && content == pid.Mixed && ctx == nil:
		panic(fmt.Sprintf("combo: mixed use %s requested on the %s stage without a charged context", use, stage))
	}
	c.enter(use, stage)
	defer c.leave()

	unknown := Use{Parent: pid.Unknown, ZBin: use.ZBin, Info: use.Info}
	ul := c.createUnknown(unknown, stage, ctx)
	if use.Parent == pid.Unknown {
		return ul
	}
	ctx = contextFor(use, stage, ctx)
	if (stage == StageCharged && content != pid.AllCharged) || use.Info.massiveNeutral {
		// incomplete on this stage, or the cut is deferred to the beam stage
		c.memo[memoKey{stage: stage, use: use, ctx: ctx}] = ul
		return ul
	}
	dl := c.begin(stage, use, ctx)
	start := 0
	if stage == StageMixed {
		start = ul.copied
	}
	for _, x := range ul.combos[start:] {
		if stage == StageMixed && use.ZBin == ZBinUnknown {
			dl.add(x, stage)
			continue
		}
		if !c.mass.CutInvariantMass(x, use.Parent, use.ZBin) {
			c.stats.cuts["invariant_mass"]++
			continue
		}
		dl.add(x, stage)
	}
	return dl
}

// createUnknown builds an unstructured grouping.
func (c *Comboer) createUnknown(use Use, stage Stage, ctx *Combo) *comboList {
	if l := c.lookup(stage, use, ctx); l != nil {
		return l
	}
	info := use.Info
	switch {
	case stage == StageCharged && info.hasNeutralClass:
		// Only the charged part can be built now; its combos stand in for
		// the whole shape until the mixed stages.
		proj := Use{Parent: pid.Unknown, ZBin: use.ZBin, Info: c.reg.Filter(info,
			func(p ParticleCount) bool { return p.PID.IsCharged() },
			func(d DecayCount) bool { return d.Use.Info.content != pid.AllNeutral })}
		l := c.createUnknown(proj, stage, nil)
		c.memo[memoKey{stage: stage, use: use}] = l
		return l
	case stage != StageCharged && info.content == pid.Mixed:
		return c.combineMixed(use, stage, ctx)
	}
	c.comboVertically(use, stage)
	c.comboHorizontally(use, stage)
	return c.mustList(stage, use, nil)
}

// combineMixed builds a mixed-charge shape on a mixed stage. The charged
// members are fixed by the charged context; the neutral classes are built as
// one neutral block shared across charged contexts, and each mixed sub-use is
// built against its own charged sub-combo from the context.
func (c *Comboer) combineMixed(use Use, stage Stage, ctx *Combo) *comboList {
	info := use.Info
	type part struct {
		op  operand
		ctx *Combo
	}
	var parts []part

	neutral := c.reg.Filter(info,
		func(p ParticleCount) bool { return !p.PID.IsCharged() },
		func(d DecayCount) bool { return d.Use.Info.content == pid.AllNeutral })
	if neutral.NumClasses() > 0 {
		op := operand{use: Use{Parent: pid.Unknown, ZBin: use.ZBin, Info: neutral}}
		if len(neutral.particles) == 0 && len(neutral.decays) == 1 && neutral.decays[0].Count == 1 {
			d := neutral.decays[0].Use
			op = operand{use: d, nest: !c.promotes(info, d)}
		}
		c.createCombos(op.use, stage, nil)
		parts = append(parts, part{op: op})
	}

	leaves := ctx.leaves
	var core []SubCombos
	for _, d := range ctx.decays {
		if d.Use.Info.content == pid.AllCharged {
			core = append(core, d)
		}
	}
	for _, d := range info.decays {
		if d.Use.Info.content != pid.Mixed {
			continue
		}
		charged := ctx.SubCombos(c.reg.ZIndependent(d.Use))
		if len(charged) != d.Count {
			panic(fmt.Sprintf("combo: charged context %s holds %d combos for %s, want %d", ctx, len(charged), d.Use, d.Count))
		}
		for _, pc := range charged {
			c.createCombos(d.Use, stage, pc)
			parts = append(parts, part{op: operand{use: d.Use, nest: true}, ctx: pc})
		}
	}

	l := c.begin(stage, use, ctx)
	chosen := make([]*Combo, 0, len(parts))
	var rec func(i int, bunches BunchSet, handles []event.Handle, zIndependent bool, chosen []*Combo)
	rec = func(i int, bunches BunchSet, handles []event.Handle, zIndependent bool, chosen []*Combo) {
		if i == len(parts) {
			if stage == StageMixed && zIndependent {
				return
			}
			m := newMembers(leaves, core)
			for j, y := range chosen {
				m.add(c.reg, y, parts[j].op)
			}
			combo := c.pool.Acquire()
			combo.SetMembers(m.leaves, m.decays, zIndependent)
			c.emit(l, stage, combo, bunches)
			return
		}
		p := parts[i]
		for _, y := range c.mustList(stage, p.op.use, p.ctx).compatible(bunches) {
			b, ok := Intersect(bunches, y.bunches)
			if !ok {
				continue
			}
			yh := y.Handles()
			if overlaps(handles, yh) {
				continue
			}
			rec(i+1, b, mergeHandles(handles, yh), zIndependent && y.zIndependent, append(chosen, y))
		}
	}
	rec(0, ctx.bunches, fixedHandles(leaves, core), ctx.zIndependent, chosen)
	return c.mustList(stage, use, ctx)
}

// fixedHandles are the sorted handles of the context members carried over
// unchanged. Mixed sub-combos of the context are rebuilt and bring their own.
func fixedHandles(leaves []Leaf, core []SubCombos) []event.Handle {
	var out []event.Handle
	for _, l := range leaves {
		out = append(out, l.Handle)
	}
	for _, d := range core {
		for _, sub := range d.Combos {
			out = append(out, sub.Handles()...)
		}
	}
	slices.Sort(out)
	return out
}

// promotes reports whether combos of sub can be flattened into a combo of
// info: sub is an unstructured grouping whose classes info already holds.
// Mixed groupings stay nested so their charged sub-combos remain addressable.
func (c *Comboer) promotes(info *Info, sub Use) bool {
	if sub.Parent != pid.Unknown || sub.Info.content == pid.Mixed {
		return false
	}
	for _, p := range sub.Info.particles {
		if !info.containsParticle(p) {
			return false
		}
	}
	for _, d := range sub.Info.decays {
		if !info.containsDecay(d) {
			return false
		}
	}
	return true
}

// operand is one side of a merge: a list of combos for use, or single
// particles of kind particle.
type operand struct {
	use      Use
	particle pid.PID
	// nest keeps each combo as a sub-combo of use instead of flattening
	// its members into the merged combo.
	nest bool
}

// members accumulates the contents of a combo under construction. It owns
// every slice it holds, so shared combos are never modified.
type members struct {
	leaves []Leaf
	decays []SubCombos
}

func newMembers(leaves []Leaf, decays []SubCombos) *members {
	m := &members{leaves: append([]Leaf(nil), leaves...)}
	for _, d := range decays {
		m.decays = append(m.decays, SubCombos{Use: d.Use, Combos: append([]*Combo(nil), d.Combos...)})
	}
	return m
}

func (m *members) addSub(use Use, sub *Combo) {
	for i := range m.decays {
		if m.decays[i].Use == use {
			m.decays[i].Combos = append(m.decays[i].Combos, sub)
			return
		}
	}
	m.decays = append(m.decays, SubCombos{Use: use, Combos: []*Combo{sub}})
}

// add merges x according to op: nested under op's use, or flattened.
func (m *members) add(reg *Registry, x *Combo, op operand) {
	if op.nest {
		m.addSub(reg.ZIndependent(op.use), x)
		return
	}
	m.leaves = append(m.leaves, x.leaves...)
	for _, d := range x.decays {
		for _, sub := range d.Combos {
			m.addSub(d.Use, sub)
		}
	}
}
