package combo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/comboer/internal/combo"
	"github.com/banshee-data/comboer/internal/config"
	"github.com/banshee-data/comboer/internal/event"
	"github.com/banshee-data/comboer/internal/kinematics"
	"github.com/banshee-data/comboer/internal/pid"
	"github.com/banshee-data/comboer/internal/reaction"
	tu "github.com/banshee-data/comboer/internal/testutil"
)

const (
	targetZ     = 65.0
	showerRange = 100.0
	rfPeriod    = 4.008
)

// newComboer wires the kinematics collaborators with the default tuning.
func newComboer(t *testing.T, reactions ...*reaction.Reaction) *combo.Comboer {
	t.Helper()
	cfg := config.EmptyComboConfig()
	colls, err := kinematics.NewCollaborators(cfg)
	require.NoError(t, err)
	c, err := combo.New(reactions, colls.Options(cfg))
	require.NoError(t, err)
	return c
}

// photonAt is a shower along dir from the target centre, timed for a photon
// produced there at rf.
func photonAt(b *tu.EventBuilder, det event.Detector, energy float64, dir r3.Vec, rf float64) {
	pos := r3.Add(r3.Vec{Z: targetZ}, r3.Scale(showerRange, r3.Unit(dir)))
	b.Shower(det, energy, pos, rf+showerRange/kinematics.SpeedOfLight)
}

// pi0ProtonEvent holds a proton at the target centre and a forward photon
// pair with an invariant mass of about 0.1 GeV, every time shifted by rf.
func pi0ProtonEvent(number uint64, rf float64) *event.Event {
	const alpha = 0.1
	b := tu.NewEvent(number).RFTime(rf).Track(targetZ, r3.Vec{Z: 1}, rf, pid.Proton)
	photonAt(b, event.FCAL, 0.5, r3.Vec{X: math.Sin(alpha), Z: math.Cos(alpha)}, rf)
	photonAt(b, event.FCAL, 0.5, r3.Vec{X: -math.Sin(alpha), Z: math.Cos(alpha)}, rf)
	return b.Beam(9, rf).Build()
}

func TestKinematicsCollaborators(t *testing.T) {
	r := tu.NewReaction(t, "pi0_p",
		tu.BeamStep(tu.Finals(pid.Proton)[0], tu.Decaying(pid.PiZero, 1)),
		tu.DecayStep(pid.PiZero, tu.Finals(pid.Gamma, pid.Gamma)...),
	)
	c := newComboer(t, r)

	ev := pi0ProtonEvent(1, 0)
	var out map[*reaction.Reaction][]combo.FinalCombo
	require.NotPanics(t, func() {
		c.BeginEvent(ev)
		out = c.BuildAll()
	})
	require.Len(t, out[r], 1)
	fc := out[r][0]
	assert.Equal(t, []event.Handle{0, 1, 2}, fc.Full.Handles())
	assert.Same(t, &ev.Beams[0], fc.Beam)
	assert.Equal(t, 0, fc.RFBunch)
}

func TestBeamBunchUsesCurrentEventRFTime(t *testing.T) {
	r := tu.NewReaction(t, "pi0_p",
		tu.BeamStep(tu.Finals(pid.Proton)[0], tu.Decaying(pid.PiZero, 1)),
		tu.DecayStep(pid.PiZero, tu.Finals(pid.Gamma, pid.Gamma)...),
	)
	c := newComboer(t, r)

	c.BeginEvent(pi0ProtonEvent(1, 0))
	require.Len(t, c.BuildAll()[r], 1)

	// The second event's RF clock is two bunches later; everything in it is
	// in time with its own RF.
	c.BeginEvent(pi0ProtonEvent(2, 2*rfPeriod))
	out := c.BuildAll()[r]
	require.Len(t, out, 1)
	assert.Equal(t, 0, out[0].RFBunch)
}

// kShortEvent holds a proton at the target centre and four barrel photons in
// the transverse plane at ±30° and 180°±30°. The two same-side pairs and the
// two 120° pairs open to about 0.1 and 0.17 GeV at 0.1 GeV per photon; the
// back-to-back pairs open to 0.2 GeV.
func kShortEvent(energy float64) *event.Event {
	b := tu.NewEvent(1).Track(targetZ, r3.Vec{Z: 1}, 0, pid.Proton)
	for _, deg := range []float64{30, -30, 150, 210} {
		rad := deg * math.Pi / 180
		photonAt(b, event.BCAL, energy, r3.Vec{X: math.Cos(rad), Y: math.Sin(rad)}, 0)
	}
	return b.Beam(9, 0).Build()
}

func kShortReaction(t *testing.T) *reaction.Reaction {
	return tu.NewReaction(t, "ks_p",
		tu.BeamStep(tu.Finals(pid.Proton)[0], tu.Decaying(pid.KShort, 1)),
		tu.DecayStep(pid.KShort, tu.Decaying(pid.PiZero, 2), tu.Decaying(pid.PiZero, 3)),
		tu.DecayStep(pid.PiZero, tu.Finals(pid.Gamma, pid.Gamma)...),
		tu.DecayStep(pid.PiZero, tu.Finals(pid.Gamma, pid.Gamma)...),
	)
}

func TestDetachedVertexPhotonDecaysAreMassCut(t *testing.T) {
	tests := []struct {
		name   string
		energy float64
		want   int
	}{
		// Only the back-to-back pairing falls outside the pi0 window; the
		// four photons sum to 0.4 GeV, inside the K_S window.
		{name: "pi0 pairs in window", energy: 0.1, want: 2},
		// Every pair is above 0.5 GeV.
		{name: "no pi0 pair in window", energy: 0.5, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := kShortReaction(t)
			c := newComboer(t, r)
			c.BeginEvent(kShortEvent(tt.energy))

			out := c.BuildAll()[r]
			require.Len(t, out, tt.want)
			for _, fc := range out {
				assert.Len(t, fc.Full.AllLeaves(nil), 5)
			}
		})
	}
}

func TestPromptPhotonDecaysAreMassCut(t *testing.T) {
	r := tu.NewReaction(t, "2pi0_p",
		tu.BeamStep(tu.Finals(pid.Proton)[0], tu.Decaying(pid.PiZero, 1), tu.Decaying(pid.PiZero, 2)),
		tu.DecayStep(pid.PiZero, tu.Finals(pid.Gamma, pid.Gamma)...),
		tu.DecayStep(pid.PiZero, tu.Finals(pid.Gamma, pid.Gamma)...),
	)
	c := newComboer(t, r)
	c.BeginEvent(kShortEvent(0.5))
	assert.Empty(t, c.BuildAll()[r])

	c.BeginEvent(kShortEvent(0.1))
	assert.Len(t, c.BuildAll()[r], 2)
}
