package kinematics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/comboer/internal/combo"
	"github.com/banshee-data/comboer/internal/event"
	"github.com/banshee-data/comboer/internal/pid"
	"github.com/banshee-data/comboer/internal/reaction"
)

// RFTiming matches detected particles to beam RF bunches. Photon times are
// propagated back to an assumed vertex and compared with the RF time there.
type RFTiming struct {
	PeriodNs        float64
	PhotonWindowNs  float64
	ChargedWindowNs float64
	Target          Target
	// Vertexer supplies the precise vertex for the cuts made after the
	// charged stage. Without one the target centre is used.
	Vertexer *ChargedVertexer

	ev   *event.Event
	bins combo.ZBinning
}

// BeginEvent implements combo.EventAware.
func (t *RFTiming) BeginEvent(ev *event.Event, bins combo.ZBinning) {
	t.ev = ev
	t.bins = bins
}

// bunchesWithin returns every bunch n with |dt - n*period| <= window.
func (t *RFTiming) bunchesWithin(dt, window float64) combo.BunchSet {
	lo := int(math.Ceil((dt - window) / t.PeriodNs))
	hi := int(math.Floor((dt + window) / t.PeriodNs))
	if hi < lo {
		return nil
	}
	out := make(combo.BunchSet, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		out = append(out, n)
	}
	return out
}

// rfAt is the bunch-0 RF time at z.
func (t *RFTiming) rfAt(z float64) float64 {
	return t.ev.RFTime + (z-t.Target.CenterZ)/SpeedOfLight
}

func (t *RFTiming) photonDelta(sh *event.Shower, vertex r3.Vec) float64 {
	flight := r3.Norm(r3.Sub(sh.Position, vertex)) / SpeedOfLight
	return sh.Time - flight - t.rfAt(vertex.Z)
}

// ValidRFBunches implements combo.Timing. The window is widened by the light
// travel time across the z range the vertex may lie in.
func (t *RFTiming) ValidRFBunches(sh *event.Shower, zbin combo.ZBin) combo.BunchSet {
	z := t.Target.CenterZ
	spread := t.Target.Length / 2
	if zbin >= 0 {
		z = t.bins.Center(zbin)
		spread = t.bins.Width / 2
	}
	return t.bunchesWithin(t.photonDelta(sh, r3.Vec{Z: z}), t.PhotonWindowNs+spread/SpeedOfLight)
}

// SelectChargedRFBunches implements combo.Timing by intersecting the bunches
// each track is compatible with.
func (t *RFTiming) SelectChargedRFBunches(_ *reaction.Reaction, charged *combo.Combo, bunches combo.BunchSet) (combo.BunchSet, bool) {
	out := bunches
	for _, l := range charged.AllLeaves(nil) {
		dt, ok := t.trackDelta(l)
		if !ok {
			continue
		}
		b := t.bunchesWithin(dt, t.ChargedWindowNs)
		if b.Unconstrained() {
			return nil, false
		}
		if out, ok = combo.Intersect(out, b); !ok {
			return nil, false
		}
	}
	return out, true
}

func (t *RFTiming) trackDelta(l combo.Leaf) (float64, bool) {
	if !t.ev.IsTrack(l.Handle) {
		return 0, false
	}
	tr := t.ev.MustTrack(l.Handle)
	h, ok := tr.Hypothesis(l.PID)
	if !ok {
		return 0, false
	}
	return h.Time - t.rfAt(tr.Position.Z), true
}

func (t *RFTiming) vertex() r3.Vec {
	if t.Vertexer != nil {
		v, _ := t.Vertexer.Vertex()
		return v
	}
	return r3.Vec{Z: t.Target.CenterZ}
}

// CutTimingAtVertex implements combo.Timing. Photons are re-timed at the
// precise vertex; with a beam photon they must also agree with its bunch.
func (t *RFTiming) CutTimingAtVertex(_ *reaction.Reaction, full *combo.Combo, beam *event.Beam, bunches combo.BunchSet) (combo.BunchSet, bool) {
	vertex := t.vertex()
	out := bunches
	for _, l := range full.AllLeaves(nil) {
		if l.PID != pid.Gamma {
			continue
		}
		sh := t.ev.MustShower(l.Handle)
		dt := t.photonDelta(sh, vertex)
		if beam != nil {
			beamAtVertex := beam.Time + (vertex.Z-t.Target.CenterZ)/SpeedOfLight
			if math.Abs(sh.Time-r3.Norm(r3.Sub(sh.Position, vertex))/SpeedOfLight-beamAtVertex) > t.PhotonWindowNs {
				return nil, false
			}
		}
		b := t.bunchesWithin(dt, t.PhotonWindowNs)
		if b.Unconstrained() {
			return nil, false
		}
		var ok bool
		if out, ok = combo.Intersect(out, b); !ok {
			return nil, false
		}
	}
	return out, true
}

// SelectFinalRFBunch implements combo.Timing: the bunch minimising the summed
// squared time differences of every timed leaf.
func (t *RFTiming) SelectFinalRFBunch(_ *reaction.Reaction, full *combo.Combo, bunches combo.BunchSet) int {
	vertex := t.vertex()
	var deltas []float64
	for _, l := range full.AllLeaves(nil) {
		if dt, ok := t.trackDelta(l); ok {
			deltas = append(deltas, dt)
			continue
		}
		if l.PID == pid.Gamma {
			deltas = append(deltas, t.photonDelta(t.ev.MustShower(l.Handle), vertex))
		}
	}
	candidates := bunches
	if candidates.Unconstrained() {
		var sum float64
		for _, d := range deltas {
			sum += d
		}
		if len(deltas) == 0 {
			return 0
		}
		return int(math.Round(sum / float64(len(deltas)) / t.PeriodNs))
	}
	best, bestChi2 := candidates[0], math.Inf(1)
	for _, n := range candidates {
		var chi2 float64
		for _, d := range deltas {
			r := d - float64(n)*t.PeriodNs
			chi2 += r * r
		}
		if chi2 < bestChi2 {
			best, bestChi2 = n, chi2
		}
	}
	return best
}

// BeamRFBunch implements combo.Timing.
func (t *RFTiming) BeamRFBunch(beam *event.Beam) int {
	return int(math.Round((beam.Time - t.ev.RFTime) / t.PeriodNs))
}
