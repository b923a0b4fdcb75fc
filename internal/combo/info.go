package combo

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/banshee-data/comboer/internal/pid"
)

// ZBin is a vertex-z bin index, or one of the sentinels below.
type ZBin int

const (
	// ZBinUnknown marks a vertex whose position could not be determined.
	ZBinUnknown ZBin = -1
	// ZBinIndependent marks groupings whose kinematics do not depend on the
	// vertex position.
	ZBinIndependent ZBin = -2
)

func (z ZBin) String() string {
	switch z {
	case ZBinUnknown:
		return "z?"
	case ZBinIndependent:
		return "zI"
	}
	return fmt.Sprintf("z%d", int(z))
}

// ParticleCount is a (kind, multiplicity) pair of directly-detected particles.
type ParticleCount struct {
	PID   pid.PID
	Count int
}

// DecayCount is a (sub-use, multiplicity) pair.
type DecayCount struct {
	Use   Use
	Count int
}

// Use pairs a grouping shape with a decay hypothesis and a vertex-z bin.
// Parent is pid.Unknown for groupings that carry no mass hypothesis.
// Infos are interned, so Use values compare with ==.
type Use struct {
	Parent pid.PID
	ZBin   ZBin
	Info   *Info
}

func (u Use) String() string {
	if u.Info == nil {
		return "<nil use>"
	}
	return u.Parent.String() + "@" + u.ZBin.String() + u.Info.key
}

// Content is the charge content of the use's shape.
func (u Use) Content() pid.ChargeContent { return u.Info.content }

// Info is the canonical description of a grouping shape. Equal shapes are
// the same *Info; build them through a Registry.
type Info struct {
	particles []ParticleCount // sorted by particleLess
	decays    []DecayCount    // sorted by useCompare

	key             string
	content         pid.ChargeContent
	massiveNeutral  bool
	hasNeutralClass bool
}

// Particles returns the directly-detected classes. Callers must not modify it.
func (i *Info) Particles() []ParticleCount { return i.particles }

// Decays returns the sub-use classes. Callers must not modify it.
func (i *Info) Decays() []DecayCount { return i.decays }

// Content is the charge content of every detected member, transitively.
func (i *Info) Content() pid.ChargeContent { return i.content }

// HasMassiveNeutral reports whether any member, transitively, is a massive neutral.
func (i *Info) HasMassiveNeutral() bool { return i.massiveNeutral }

// NumClasses is the number of distinct particle and decay classes.
func (i *Info) NumClasses() int { return len(i.particles) + len(i.decays) }

func (i *Info) String() string { return i.key }

// contains reports whether the info holds the given class with exactly that count.
func (i *Info) containsParticle(pc ParticleCount) bool {
	_, ok := slices.BinarySearchFunc(i.particles, pc, func(a, b ParticleCount) int {
		if c := particleCompare(a.PID, b.PID); c != 0 {
			return c
		}
		return cmp.Compare(a.Count, b.Count)
	})
	return ok
}

func (i *Info) containsDecay(dc DecayCount) bool {
	for _, d := range i.decays {
		if d == dc {
			return true
		}
	}
	return false
}

// particleCompare orders heavier kinds first, ties by PID.
func particleCompare(a, b pid.PID) int {
	if c := cmp.Compare(b.Mass(), a.Mass()); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

func contentRank(c pid.ChargeContent) int {
	switch c {
	case pid.Mixed:
		return 0
	case pid.AllNeutral:
		return 1
	}
	return 2
}

// useCompare orders mixed uses before neutral before charged, heavier parents
// first, then z bin, then shape.
func useCompare(a, b Use) int {
	if c := cmp.Compare(contentRank(a.Info.content), contentRank(b.Info.content)); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Parent.Mass(), a.Parent.Mass()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Parent, b.Parent); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ZBin, b.ZBin); c != 0 {
		return c
	}
	return strings.Compare(a.Info.key, b.Info.key)
}

// canonicalize sorts both lists, merges repeated classes and drops empty ones.
func canonicalize(particles []ParticleCount, decays []DecayCount) ([]ParticleCount, []DecayCount) {
	ps := make([]ParticleCount, 0, len(particles))
	for _, p := range particles {
		if p.Count > 0 {
			ps = append(ps, p)
		}
	}
	slices.SortStableFunc(ps, func(a, b ParticleCount) int { return particleCompare(a.PID, b.PID) })
	ps = mergeRuns(ps, func(a, b ParticleCount) bool { return a.PID == b.PID }, func(a *ParticleCount, b ParticleCount) { a.Count += b.Count })

	ds := make([]DecayCount, 0, len(decays))
	for _, d := range decays {
		if d.Count > 0 && d.Use.Info != nil {
			ds = append(ds, d)
		}
	}
	slices.SortStableFunc(ds, func(a, b DecayCount) int { return useCompare(a.Use, b.Use) })
	ds = mergeRuns(ds, func(a, b DecayCount) bool { return a.Use == b.Use }, func(a *DecayCount, b DecayCount) { a.Count += b.Count })
	return ps, ds
}

func mergeRuns[T any](s []T, same func(a, b T) bool, add func(a *T, b T)) []T {
	out := s[:0]
	for _, v := range s {
		if n := len(out); n > 0 && same(out[n-1], v) {
			add(&out[n-1], v)
			continue
		}
		out = append(out, v)
	}
	return out
}

func infoKey(particles []ParticleCount, decays []DecayCount) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, p := range particles {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s:%d", p.PID, p.Count)
	}
	for i, d := range decays {
		if i > 0 || len(particles) > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s:%d", d.Use, d.Count)
	}
	b.WriteByte('}')
	return b.String()
}

func newInfo(particles []ParticleCount, decays []DecayCount, key string) *Info {
	info := &Info{particles: particles, decays: decays, key: key}
	first := true
	merge := func(c pid.ChargeContent) {
		if first {
			info.content, first = c, false
			return
		}
		info.content = info.content.Merge(c)
	}
	for _, p := range particles {
		if p.PID.IsCharged() {
			merge(pid.AllCharged)
			continue
		}
		merge(pid.AllNeutral)
		info.hasNeutralClass = true
		if p.PID.IsMassiveNeutral() {
			info.massiveNeutral = true
		}
	}
	for _, d := range decays {
		merge(d.Use.Info.content)
		if d.Use.Info.content == pid.AllNeutral {
			info.hasNeutralClass = true
		}
		if d.Use.Info.massiveNeutral {
			info.massiveNeutral = true
		}
	}
	return info
}

// Registry interns grouping shapes. Reaction analysis fills it through
// MakeOrGet; once Freeze is called the sorted index serves GetOrMake, which
// still admits the few shapes derived while building combos.
//
// A Registry is not safe for concurrent use. After reaction analysis it is
// only written by the comboer that owns it.
type Registry struct {
	set    map[string]*Info
	sorted []*Info // by key, valid after Freeze
	frozen bool

	zIndependent map[Use]Use
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		set:          make(map[string]*Info),
		zIndependent: make(map[Use]Use),
	}
}

// Len is the number of distinct shapes.
func (r *Registry) Len() int { return len(r.set) }

// MakeOrGet interns a shape through the hash set.
func (r *Registry) MakeOrGet(particles []ParticleCount, decays []DecayCount) *Info {
	ps, ds := canonicalize(particles, decays)
	key := infoKey(ps, ds)
	if info, ok := r.set[key]; ok {
		return info
	}
	info := newInfo(ps, ds, key)
	r.set[key] = info
	if r.frozen {
		r.insertSorted(info)
	}
	return info
}

// Freeze builds the sorted index used by GetOrMake.
func (r *Registry) Freeze() {
	r.sorted = make([]*Info, 0, len(r.set))
	for _, info := range r.set {
		r.sorted = append(r.sorted, info)
	}
	slices.SortFunc(r.sorted, func(a, b *Info) int { return strings.Compare(a.key, b.key) })
	r.frozen = true
}

// GetOrMake interns a shape by binary search over the sorted index. It falls
// back to MakeOrGet before Freeze.
func (r *Registry) GetOrMake(particles []ParticleCount, decays []DecayCount) *Info {
	if !r.frozen {
		return r.MakeOrGet(particles, decays)
	}
	ps, ds := canonicalize(particles, decays)
	key := infoKey(ps, ds)
	i, ok := slices.BinarySearchFunc(r.sorted, key, func(info *Info, k string) int { return strings.Compare(info.key, k) })
	if ok {
		return r.sorted[i]
	}
	info := newInfo(ps, ds, key)
	r.set[key] = info
	r.sorted = slices.Insert(r.sorted, i, info)
	return info
}

func (r *Registry) insertSorted(info *Info) {
	i, _ := slices.BinarySearchFunc(r.sorted, info.key, func(in *Info, k string) int { return strings.Compare(in.key, k) })
	r.sorted = slices.Insert(r.sorted, i, info)
}

// Without returns the shape with one class removed: a particle class when
// particle is set, otherwise the decay class of use.
func (r *Registry) Without(info *Info, particle pid.PID, use Use) *Info {
	ps := make([]ParticleCount, 0, len(info.particles))
	for _, p := range info.particles {
		if particle != pid.Unknown && p.PID == particle {
			continue
		}
		ps = append(ps, p)
	}
	ds := make([]DecayCount, 0, len(info.decays))
	for _, d := range info.decays {
		if particle == pid.Unknown && d.Use == use {
			continue
		}
		ds = append(ds, d)
	}
	return r.GetOrMake(ps, ds)
}

// Filter returns the shape restricted to the classes keep accepts.
func (r *Registry) Filter(info *Info, keepParticle func(ParticleCount) bool, keepDecay func(DecayCount) bool) *Info {
	var ps []ParticleCount
	for _, p := range info.particles {
		if keepParticle(p) {
			ps = append(ps, p)
		}
	}
	var ds []DecayCount
	for _, d := range info.decays {
		if keepDecay(d) {
			ds = append(ds, d)
		}
	}
	return r.GetOrMake(ps, ds)
}

// ZIndependent maps a use, and every sub-use of its shape, to the
// z-independent bin. Combos key their sub-combos by this form so that results
// built before and after vertex binning share one structure.
func (r *Registry) ZIndependent(u Use) Use {
	if zi, ok := r.zIndependent[u]; ok {
		return zi
	}
	if u.ZBin == ZBinIndependent && !r.hasBinnedDecay(u.Info) {
		r.zIndependent[u] = u
		return u
	}
	ds := make([]DecayCount, len(u.Info.decays))
	for i, d := range u.Info.decays {
		ds[i] = DecayCount{Use: r.ZIndependent(d.Use), Count: d.Count}
	}
	zi := Use{Parent: u.Parent, ZBin: ZBinIndependent, Info: r.GetOrMake(u.Info.particles, ds)}
	r.zIndependent[u] = zi
	return zi
}

func (r *Registry) hasBinnedDecay(info *Info) bool {
	for _, d := range info.decays {
		if d.Use.ZBin != ZBinIndependent || r.hasBinnedDecay(d.Use.Info) {
			return true
		}
	}
	return false
}
