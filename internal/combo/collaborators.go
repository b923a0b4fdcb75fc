package combo

import (
	"github.com/banshee-data/comboer/internal/event"
	"github.com/banshee-data/comboer/internal/pid"
	"github.com/banshee-data/comboer/internal/reaction"
)

// Geometry describes the target, used once to lay out vertex-z bins.
type Geometry interface {
	TargetCenterZ() float64
	TargetLength() float64
}

// EventAware collaborators are told about each new event before it is comboed.
type EventAware interface {
	BeginEvent(ev *event.Event, bins ZBinning)
}

// Vertexer assigns vertex-z bins and vertex times from charged combos.
type Vertexer interface {
	// VertexZBins returns one bin per reaction vertex, in reaction.Vertices order.
	VertexZBins(r *reaction.Reaction, charged *Combo) []ZBin
	// ComputeVertexTimeOffsets prepares per-vertex time offsets for the timing
	// cuts of full (and, once known, beam). charged may be nil.
	ComputeVertexTimeOffsets(r *reaction.Reaction, charged, full *Combo, beam *event.Beam)
}

// Timing evaluates RF-bunch compatibility.
type Timing interface {
	// ValidRFBunches is the set of bunches a photon from the shower is
	// consistent with, assuming a vertex in zbin. An empty set means the shower
	// cannot be used.
	ValidRFBunches(shower *event.Shower, zbin ZBin) BunchSet
	// SelectChargedRFBunches narrows by the charged tracks of a charged combo.
	// ok is false when no bunch is compatible.
	SelectChargedRFBunches(r *reaction.Reaction, charged *Combo, bunches BunchSet) (BunchSet, bool)
	// CutTimingAtVertex re-checks photon timing against the per-vertex times
	// (and the beam photon, when given). ok is false when no bunch survives.
	CutTimingAtVertex(r *reaction.Reaction, full *Combo, beam *event.Beam, bunches BunchSet) (BunchSet, bool)
	// SelectFinalRFBunch picks the bunch used for the beam-photon match.
	SelectFinalRFBunch(r *reaction.Reaction, full *Combo, bunches BunchSet) int
	// BeamRFBunch is the bunch shift of a beam photon relative to the RF time.
	BeamRFBunch(beam *event.Beam) int
}

// MassCutter applies invariant-mass windows.
type MassCutter interface {
	// CutInvariantMass reports whether a grouping passes the window of decay,
	// evaluated with photons from a vertex in zbin.
	CutInvariantMass(c *Combo, decay pid.PID, zbin ZBin) bool
	// CutInvariantMassDeferred applies the windows that had to wait for a
	// precise vertex: decays containing massive neutrals, and decays whose
	// vertex bin was unknown.
	CutInvariantMassDeferred(r *reaction.Reaction, full *Combo, beam *event.Beam, rfBunch int) bool
}

// Builder receives each final combo. It turns them into user-facing
// kinematic objects and is optional.
type Builder interface {
	BuildParticleCombo(r *reaction.Reaction, fc FinalCombo)
}
