package combo

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/comboer/internal/event"
	"github.com/banshee-data/comboer/internal/monitoring"
	"github.com/banshee-data/comboer/internal/pid"
	"github.com/banshee-data/comboer/internal/reaction"
)

// DefaultMaxDepth bounds the build recursion. Reaction decay trees are far
// shallower; hitting it means a shape refers back to itself.
const DefaultMaxDepth = 32

// DefaultZBinWidth is the vertex-z bin width in cm.
const DefaultZBinWidth = 10.0

// Options configures a Comboer. Geometry, Vertexer, Timing and Mass are required.
type Options struct {
	Geometry Geometry
	Vertexer Vertexer
	Timing   Timing
	Mass     MassCutter
	Builder  Builder
	Metrics  *monitoring.ComboMetrics

	ZBinWidth       float64
	ShowerSelectTag string
	// NumPlusMinusRFBunches, when set, replaces every reaction's own value.
	NumPlusMinusRFBunches *int
	MaxDepth              int
}

// FinalCombo is one result handed downstream.
type FinalCombo struct {
	Full    *Combo
	Charged *Combo      // nil for fully neutral reactions
	Beam    *event.Beam // nil when the reaction has no beam
	RFBunch int
}

type eventStats struct {
	created [3]int
	cuts    map[string]int
}

// Comboer builds every admissible combo of an event's particles for a set of
// reactions. Shapes are analysed once at construction; combos and memo tables
// live for one event.
//
// A Comboer is not safe for concurrent use. To combo events in parallel, give
// each worker its own Comboer.
type Comboer struct {
	reg       *Registry
	bins      ZBinning
	reactions []*reaction.Reaction
	uses      map[*reaction.Reaction]*reactionUses
	// zDependent caches rebuilt primary uses by reaction and vertex bins.
	zDependent map[string]Use

	geometry Geometry
	vertexer Vertexer
	timing   Timing
	mass     MassCutter
	builder  Builder
	metrics  *monitoring.ComboMetrics

	showerTag   string
	rfOverride  *int
	maxDepth    int
	eventAwares []EventAware

	// per event
	ev          *event.Event
	pool        *Pool
	index       *particleIndex
	memo        map[memoKey]*comboList
	beamBunches []int
	depth       int
	stats       eventStats
}

// New analyses the reactions and returns a Comboer ready for BeginEvent.
func New(reactions []*reaction.Reaction, opts Options) (*Comboer, error) {
	if opts.Geometry == nil || opts.Vertexer == nil || opts.Timing == nil || opts.Mass == nil {
		return nil, errors.New("comboer requires geometry, vertexer, timing and mass collaborators")
	}
	width := opts.ZBinWidth
	if width == 0 {
		width = DefaultZBinWidth
	}
	if width < 0 {
		return nil, fmt.Errorf("vertex z bin width must be positive, got %v", width)
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	c := &Comboer{
		reg:        NewRegistry(),
		bins:       NewZBinning(opts.Geometry.TargetCenterZ(), opts.Geometry.TargetLength(), width),
		uses:       make(map[*reaction.Reaction]*reactionUses, len(reactions)),
		zDependent: make(map[string]Use),
		geometry:   opts.Geometry,
		vertexer:   opts.Vertexer,
		timing:     opts.Timing,
		mass:       opts.Mass,
		builder:    opts.Builder,
		metrics:    opts.Metrics,
		showerTag:  opts.ShowerSelectTag,
		rfOverride: opts.NumPlusMinusRFBunches,
		maxDepth:   maxDepth,
		pool:       NewPool(),
	}
	for _, collab := range []any{opts.Geometry, opts.Vertexer, opts.Timing, opts.Mass, opts.Builder} {
		if ea, ok := collab.(EventAware); ok {
			c.eventAwares = append(c.eventAwares, ea)
		}
	}
	for _, r := range reactions {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.uses[r]; dup {
			continue
		}
		c.reactions = append(c.reactions, r)
		c.uses[r] = analyzeReaction(c.reg, r)
	}
	c.reg.Freeze()
	monitoring.Diagf("[comboer] analysed %d reactions into %d shapes, %d z bins of %.1f cm from z=%.1f",
		len(c.reactions), c.reg.Len(), c.bins.N, c.bins.Width, c.bins.Low)
	return c, nil
}

// Registry returns the shape registry.
func (c *Comboer) Registry() *Registry { return c.reg }

// Binning returns the vertex-z bin layout.
func (c *Comboer) Binning() ZBinning { return c.bins }

// PrimaryUse returns the use of a registered reaction's production step.
func (c *Comboer) PrimaryUse(r *reaction.Reaction) (Use, bool) {
	ru, ok := c.uses[r]
	if !ok || ru.primary.Info == nil {
		return Use{}, false
	}
	return ru.primary, true
}

// Event returns the current event.
func (c *Comboer) Event() *event.Event { return c.ev }

// BeginEvent resets every per-event structure when ev differs from the
// current event.
func (c *Comboer) BeginEvent(ev *event.Event) {
	if c.ev == ev && ev != nil && c.memo != nil {
		return
	}
	c.ev = ev
	c.pool.Reset()
	c.memo = make(map[memoKey]*comboList)
	c.index = newParticleIndex(ev, c.timing, c.showerTag)
	c.depth = 0
	c.stats = eventStats{cuts: make(map[string]int)}
	// Collaborators see the event before any of them is asked about it.
	for _, ea := range c.eventAwares {
		ea.BeginEvent(ev, c.bins)
	}
	c.beamBunches = c.beamBunches[:0]
	for i := range ev.Beams {
		c.beamBunches = append(c.beamBunches, c.timing.BeamRFBunch(&ev.Beams[i]))
	}
	monitoring.Tracef("[comboer] begin event=%d tracks=%d showers=%d beams=%d",
		ev.Number, len(ev.Tracks), len(ev.Showers), len(ev.Beams))
}

// Combos returns every combo for use on stage, building it on first
// request. ctx is the charged-stage combo a mixed-content use is built
// against; it is ignored otherwise.
func (c *Comboer) Combos(use Use, stage Stage, ctx *Combo) []*Combo {
	c.mustHaveEvent()
	return c.createCombos(use, stage, ctx).combos
}

// CombosForBunches is Combos restricted to combos compatible with bunches.
func (c *Comboer) CombosForBunches(use Use, stage Stage, ctx *Combo, bunches BunchSet) []*Combo {
	c.mustHaveEvent()
	return c.createCombos(use, stage, ctx).compatible(bunches)
}

func (c *Comboer) mustHaveEvent() {
	if c.ev == nil {
		panic("combo: BeginEvent must be called before comboing")
	}
}

// BuildAll combos every registered reaction, grouping reactions that share a
// production-step shape so their combos are built once.
func (c *Comboer) BuildAll() map[*reaction.Reaction][]FinalCombo {
	out := make(map[*reaction.Reaction][]FinalCombo, len(c.reactions))
	var order []Use
	groups := make(map[Use][]*reaction.Reaction)
	for _, r := range c.reactions {
		p := c.uses[r].primary
		if _, ok := groups[p]; !ok {
			order = append(order, p)
		}
		groups[p] = append(groups[p], r)
	}
	for _, p := range order {
		for r, fcs := range c.BuildParticleCombos(groups[p]) {
			out[r] = fcs
		}
	}
	return out
}

// BuildParticleCombos combos a group of reactions sharing one production-step
// shape. Reactions failing the skim or particle-count gates get no combos.
func (c *Comboer) BuildParticleCombos(group []*reaction.Reaction) map[*reaction.Reaction][]FinalCombo {
	c.mustHaveEvent()
	start := time.Now()
	out := make(map[*reaction.Reaction][]FinalCombo, len(group))
	if len(group) == 0 {
		return out
	}
	ru, ok := c.uses[group[0]]
	if !ok {
		panic(fmt.Sprintf("combo: reaction %s was not registered", group[0]))
	}
	var live []*reaction.Reaction
	for _, r := range group {
		switch {
		case c.uses[r] == nil || c.uses[r].primary != ru.primary:
			panic(fmt.Sprintf("combo: reaction %s does not share the shape of %s", r, group[0]))
		case ru.primary.Info == nil:
		case !c.ev.HasSkims(r.Skims):
			c.stats.cuts["skim"]++
		case !c.enoughParticles(c.uses[r]):
			c.stats.cuts["particle_count"]++
		default:
			live = append(live, r)
		}
	}
	if len(live) > 0 {
		c.build(ru, live, out)
	}
	c.flushStats(out)
	monitoring.Diagf("[comboer] event=%d reactions=%d live=%d elapsed=%s", c.ev.Number, len(group), len(live), time.Since(start))
	return out
}

func (c *Comboer) build(ru *reactionUses, live []*reaction.Reaction, out map[*reaction.Reaction][]FinalCombo) {
	content := ru.primary.Info.content
	if content == pid.AllNeutral {
		c.comboNeutrals(ru, live, nil, nil, out)
		return
	}
	r := live[0]
	for _, pc := range c.createCombos(ru.primary, StageCharged, nil).combos {
		c.vertexer.ComputeVertexTimeOffsets(r, pc, nil, nil)
		bunches, ok := c.timing.SelectChargedRFBunches(r, pc, nil)
		if !ok {
			c.stats.cuts["charged_timing"]++
			continue
		}
		if content == pid.AllCharged {
			c.comboWithBeam(live, pc, pc, c.timing.SelectFinalRFBunch(r, pc, bunches), out)
			continue
		}
		c.comboNeutrals(ru, live, pc, bunches, out)
	}
}

// comboNeutrals runs both mixed stages for one charged combo (nil for fully
// neutral reactions) and passes surviving full combos to the beam stage.
func (c *Comboer) comboNeutrals(ru *reactionUses, live []*reaction.Reaction, charged *Combo, chargedBunches BunchSet, out map[*reaction.Reaction][]FinalCombo) {
	r := live[0]
	c.createCombos(ru.primary, StageMixedZIndependent, charged)

	var bins []ZBin
	if charged == nil {
		bins = make([]ZBin, ru.nVertices)
		for i := range bins {
			bins[i] = c.bins.CenterBin
		}
	} else {
		bins = c.vertexer.VertexZBins(r, charged)
	}
	zuse := c.zDependentUse(ru, bins)
	for _, full := range c.createCombos(zuse, StageMixed, charged).compatible(chargedBunches) {
		bunches, ok := Intersect(chargedBunches, full.bunches)
		if !ok {
			continue
		}
		c.vertexer.ComputeVertexTimeOffsets(r, charged, full, nil)
		if bunches, ok = c.timing.CutTimingAtVertex(r, full, nil, bunches); !ok {
			c.stats.cuts["photon_timing"]++
			continue
		}
		c.comboWithBeam(live, charged, full, c.timing.SelectFinalRFBunch(r, full, bunches), out)
	}
}

// comboWithBeam matches beam photons by RF bunch and applies the cuts that
// need the beam.
func (c *Comboer) comboWithBeam(live []*reaction.Reaction, charged, full *Combo, rf int, out map[*reaction.Reaction][]FinalCombo) {
	for _, r := range live {
		if !r.FirstStepBeam() {
			if !c.mass.CutInvariantMassDeferred(r, full, nil, rf) {
				c.stats.cuts["deferred_mass"]++
				continue
			}
			c.emitFinal(r, FinalCombo{Full: full, Charged: charged, RFBunch: rf}, out)
			continue
		}
		window := r.NumPlusMinusRFBunches
		if c.rfOverride != nil {
			window = *c.rfOverride
		}
		for i := range c.ev.Beams {
			if d := c.beamBunches[i] - rf; d < -window || d > window {
				continue
			}
			beam := &c.ev.Beams[i]
			c.vertexer.ComputeVertexTimeOffsets(r, charged, full, beam)
			if _, ok := c.timing.CutTimingAtVertex(r, full, beam, BunchSet{rf}); !ok {
				c.stats.cuts["beam_timing"]++
				continue
			}
			if !c.mass.CutInvariantMassDeferred(r, full, beam, rf) {
				c.stats.cuts["deferred_mass"]++
				continue
			}
			c.emitFinal(r, FinalCombo{Full: full, Charged: charged, Beam: beam, RFBunch: rf}, out)
		}
	}
}

func (c *Comboer) emitFinal(r *reaction.Reaction, fc FinalCombo, out map[*reaction.Reaction][]FinalCombo) {
	out[r] = append(out[r], fc)
	if c.builder != nil {
		c.builder.BuildParticleCombo(r, fc)
	}
}

// enoughParticles checks that the event holds enough candidates of every
// required kind for the reaction to be possible at all.
func (c *Comboer) enoughParticles(ru *reactionUses) bool {
	var charged, neutral int
	for p, n := range ru.required {
		if p.IsCharged() {
			if c.index.numTracks(p) < n {
				return false
			}
			charged += n
			continue
		}
		neutral += n
	}
	return charged <= len(c.ev.Tracks) && neutral <= len(c.index.showers)
}

func (c *Comboer) flushStats(out map[*reaction.Reaction][]FinalCombo) {
	for s, n := range c.stats.created {
		if n > 0 {
			c.metrics.ObserveCombos(Stage(s).String(), n)
		}
	}
	for cut, n := range c.stats.cuts {
		c.metrics.ObserveCuts(cut, n)
	}
	for r, fcs := range out {
		c.metrics.ObserveFinal(r.Name, len(fcs))
	}
	c.stats.created = [3]int{}
	clear(c.stats.cuts)
}
