package combo

import (
	"github.com/banshee-data/comboer/internal/event"
	"github.com/banshee-data/comboer/internal/pid"
	"github.com/banshee-data/comboer/internal/reaction"
)

type fakeGeometry struct{}

func (fakeGeometry) TargetCenterZ() float64 { return 65 }
func (fakeGeometry) TargetLength() float64  { return 30 }

// fakeVertexer puts every vertex in the bin holding the target centre.
type fakeVertexer struct {
	bins     ZBinning
	zbin     *ZBin // overrides the centre bin when set
	computes int
}

func (v *fakeVertexer) BeginEvent(_ *event.Event, bins ZBinning) { v.bins = bins }

func (v *fakeVertexer) VertexZBins(r *reaction.Reaction, _ *Combo) []ZBin {
	out := make([]ZBin, len(r.Vertices()))
	for i := range out {
		out[i] = v.bins.CenterBin
		if v.zbin != nil {
			out[i] = *v.zbin
		}
	}
	return out
}

func (v *fakeVertexer) ComputeVertexTimeOffsets(*reaction.Reaction, *Combo, *Combo, *event.Beam) {
	v.computes++
}

// fakeTiming gives photons the bunches listed by shower ID ({0} otherwise)
// and passes every other cut.
type fakeTiming struct {
	showerBunches map[int]BunchSet
	beamBunch     int
	rejectCharged bool
	calls         int
}

func (t *fakeTiming) ValidRFBunches(sh *event.Shower, _ ZBin) BunchSet {
	t.calls++
	if b, ok := t.showerBunches[sh.ID]; ok {
		return b
	}
	return BunchSet{0}
}

func (t *fakeTiming) SelectChargedRFBunches(_ *reaction.Reaction, _ *Combo, bunches BunchSet) (BunchSet, bool) {
	t.calls++
	return bunches, !t.rejectCharged
}

func (t *fakeTiming) CutTimingAtVertex(_ *reaction.Reaction, _ *Combo, _ *event.Beam, bunches BunchSet) (BunchSet, bool) {
	t.calls++
	return bunches, true
}

func (t *fakeTiming) SelectFinalRFBunch(_ *reaction.Reaction, _ *Combo, bunches BunchSet) int {
	t.calls++
	if len(bunches) > 0 {
		return bunches[0]
	}
	return 0
}

func (t *fakeTiming) BeamRFBunch(*event.Beam) int {
	t.calls++
	return t.beamBunch
}

// fakeMass passes everything unless reject is set.
type fakeMass struct {
	reject   bool
	cuts     int
	deferred int
}

func (m *fakeMass) CutInvariantMass(*Combo, pid.PID, ZBin) bool {
	m.cuts++
	return !m.reject
}

func (m *fakeMass) CutInvariantMassDeferred(*reaction.Reaction, *Combo, *event.Beam, int) bool {
	m.deferred++
	return true
}

type recordingBuilder struct {
	got map[string][]FinalCombo
}

func (b *recordingBuilder) BuildParticleCombo(r *reaction.Reaction, fc FinalCombo) {
	if b.got == nil {
		b.got = make(map[string][]FinalCombo)
	}
	b.got[r.Name] = append(b.got[r.Name], fc)
}

type harness struct {
	c        *Comboer
	vertexer *fakeVertexer
	timing   *fakeTiming
	mass     *fakeMass
	builder  *recordingBuilder
}

func newHarness(reactions ...*reaction.Reaction) (*harness, error) {
	h := &harness{
		vertexer: &fakeVertexer{},
		timing:   &fakeTiming{},
		mass:     &fakeMass{},
		builder:  &recordingBuilder{},
	}
	c, err := New(reactions, Options{
		Geometry: fakeGeometry{},
		Vertexer: h.vertexer,
		Timing:   h.timing,
		Mass:     h.mass,
		Builder:  h.builder,
	})
	h.c = c
	return h, err
}
